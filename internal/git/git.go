package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// ChangedFile is one file touched since the base ref, with the 1-based
// new-side line numbers of its hunks. A deleted file keeps its old path
// and has no lines.
type ChangedFile struct {
	Path         string
	ChangedLines []int
}

// hunkHeader captures the new-side start and length of one diff hunk:
// @@ -old[,n] +start[,len] @@
var hunkHeader = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// ChangedFiles diffs the working tree against baseRef and returns the
// touched files.
func ChangedFiles(ctx context.Context, baseRef string) ([]ChangedFile, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "-U0", baseRef)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w", err)
	}
	return parseDiff(out)
}

func parseDiff(out []byte) ([]ChangedFile, error) {
	var (
		changes []ChangedFile
		current *ChangedFile
		oldPath string
	)
	flush := func() {
		if current != nil {
			changes = append(changes, *current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "--- a/"):
			oldPath = strings.TrimPrefix(line, "--- a/")

		case strings.HasPrefix(line, "+++ "):
			flush()
			path := strings.TrimPrefix(line, "+++ ")
			if rest, ok := strings.CutPrefix(path, "b/"); ok {
				path = rest
			} else if path == "/dev/null" {
				// Deletion: keep the old path so its types still seed
				// impact queries against a stored snapshot.
				path = oldPath
			}
			if path == "" {
				continue
			}
			current = &ChangedFile{Path: path}

		case current != nil && strings.HasPrefix(line, "@@"):
			m := hunkHeader.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			start, _ := strconv.Atoi(m[1])
			count := 1
			if m[2] != "" {
				count, _ = strconv.Atoi(m[2])
			}
			for i := 0; i < count; i++ {
				current.ChangedLines = append(current.ChangedLines, start+i)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}
	flush()
	return changes, nil
}
