package generator

import (
	"fmt"
	"os"
	"path/filepath"

	"digen/internal/graph"
	"digen/internal/planner"
)

// GraphFileName holds the dependency diagram, markdown-embedded so it
// renders directly in repository browsers.
const GraphFileName = "dependency_graph.md"

// Emitter writes every generated artifact of a run into one directory.
type Emitter struct {
	dir      string
	source   *SourceGenerator
	registry *RegistryGenerator
	mermaid  *MermaidGenerator
}

func NewEmitter(dir, pkg string) *Emitter {
	return &Emitter{
		dir:      dir,
		source:   NewSourceGenerator(pkg),
		registry: NewRegistryGenerator(pkg),
		mermaid:  &MermaidGenerator{},
	}
}

// EmitAll renders one constructor file per plan, the registry, and the
// dependency diagram. Returns the written paths in emission order.
func (e *Emitter) EmitAll(plans []*planner.ConstructionPlan, registrations []planner.RegistrationEntry, d *graph.Digraph) ([]string, error) {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	var written []string
	write := func(name, content string) error {
		path := filepath.Join(e.dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	for _, plan := range plans {
		src, err := e.source.Constructor(plan)
		if err != nil {
			return written, err
		}
		if err := write(e.source.FileName(plan), src); err != nil {
			return written, err
		}
	}

	if err := write(RegistryFileName, e.registry.Generate(registrations)); err != nil {
		return written, err
	}

	if d != nil {
		if err := write(GraphFileName, e.mermaid.DependencyDiagram(d)); err != nil {
			return written, err
		}
	}

	return written, nil
}
