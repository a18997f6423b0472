package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"digen/internal/symbol"
)

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("graph.schema.json", strings.NewReader(graphSchema)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile("graph.schema.json")
	})
	return schema, schemaErr
}

// Load reads a symbol-graph document from disk, picking the decoder by
// file extension. YAML documents are normalized to JSON first; both
// shapes validate against the embedded schema.
func Load(path string) (*symbol.Graph, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(raw)
	default:
		return LoadJSON(raw)
	}
}

func LoadJSON(raw []byte) (*symbol.Graph, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("symbol graph is not valid JSON: %w", err)
	}
	return build(raw, doc)
}

func LoadYAML(raw []byte) (*symbol.Graph, error) {
	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("symbol graph is not valid YAML: %w", err)
	}
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize symbol graph: %w", err)
	}
	return LoadJSON(normalized)
}

func build(raw []byte, doc interface{}) (*symbol.Graph, error) {
	compiled, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile symbol graph schema: %w", err)
	}
	if err := compiled.Validate(doc); err != nil {
		return nil, fmt.Errorf("symbol graph schema validation failed: %w", err)
	}

	var payload struct {
		Types []*symbol.TypeRecord `json:"types"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode symbol graph: %w", err)
	}

	g := symbol.NewGraph()
	for _, t := range payload.Types {
		if t == nil {
			continue
		}
		if g.Lookup(t.Name) != nil {
			return nil, fmt.Errorf("duplicate type record %q", t.Name)
		}
		g.Add(t)
	}
	return g, nil
}
