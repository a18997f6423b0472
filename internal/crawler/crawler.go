package crawler

import (
	"io/fs"
	"path/filepath"
	"strings"

	"digen/internal/extractor"
	"digen/internal/symbol"
)

// Crawler scans a directory for annotated source files.
type Crawler struct {
	extractor *extractor.Extractor
	ignored   []string
}

// NewCrawler creates a new crawler instance.
func NewCrawler(ext *extractor.Extractor) *Crawler {
	return &Crawler{
		extractor: ext,
		ignored:   []string{".git", "vendor", "node_modules", "testdata"},
	}
}

// ScanProject walks the root directory and streams every type record
// declared under it. It uses a callback instead of accumulating, so large
// trees never buffer in memory. A malformed annotation aborts the scan:
// silently dropping a declared service would corrupt every later plan.
func (c *Crawler) ScanProject(root string, onRecord func(*symbol.TypeRecord)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			// Dot and underscore directories are invisible to the Go
			// toolchain, so nothing in them can be wired.
			if path != root && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_")) {
				return filepath.SkipDir
			}
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".go") || strings.HasSuffix(d.Name(), "_test.go") {
			return nil
		}

		records, err := c.extractor.ExtractFile(path)
		if err != nil {
			return err
		}
		for _, rec := range records {
			onRecord(rec)
		}
		return nil
	})
}
