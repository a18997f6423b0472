package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digen/internal/symbol"
)

const validGraphJSON = `{
  "types": [
    {
      "name": "ConsoleLog",
      "capabilities": ["ILog"],
      "lifetimes": ["singleton"],
      "extensible": false,
      "exported": true
    },
    {
      "name": "Service",
      "base": "",
      "extensible": true,
      "exported": true,
      "edges": [
        {
          "target": { "name": "ILog" },
          "source": "field",
          "member": "_log",
          "level": 0
        },
        {
          "target": { "name": "IHandler", "collection": true },
          "source": "param",
          "level": 0
        }
      ],
      "directive": { "mode": "selective", "listed": ["ILog"], "sharing": "shared" }
    }
  ]
}`

func TestLoadJSON(t *testing.T) {
	g, err := LoadJSON([]byte(validGraphJSON))
	require.NoError(t, err)
	require.Len(t, g.Types, 2)

	svc := g.Lookup("Service")
	require.NotNil(t, svc)
	require.Len(t, svc.Edges, 2)
	assert.Equal(t, symbol.SourceField, svc.Edges[0].Source)
	assert.Equal(t, "_log", svc.Edges[0].Member)
	assert.True(t, svc.Edges[1].Target.Collection)
	assert.Equal(t, symbol.DirectiveSelective, svc.Directive.Mode)
	assert.Equal(t, symbol.SharingShared, svc.Directive.Sharing)

	console := g.Lookup("ConsoleLog")
	require.NotNil(t, console)
	assert.Equal(t, symbol.LifetimeSingleton, console.DeclaredLifetime())
}

func TestLoadYAML(t *testing.T) {
	doc := `
types:
  - name: SystemClock
    capabilities: [IClock]
    lifetimes: [transient]
  - name: Scheduler
    extensible: true
    worker: true
    edges:
      - target: { name: IClock }
        source: param
`
	g, err := LoadYAML([]byte(doc))
	require.NoError(t, err)
	require.Len(t, g.Types, 2)

	scheduler := g.Lookup("Scheduler")
	require.NotNil(t, scheduler)
	assert.True(t, scheduler.Worker)
	require.Len(t, scheduler.Edges, 1)
	assert.Equal(t, "IClock", scheduler.Edges[0].Target.Name)
}

func TestLoad_PicksDecoderByExtension(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "graph.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(validGraphJSON), 0o644))
	g, err := Load(jsonPath)
	require.NoError(t, err)
	assert.Len(t, g.Types, 2)

	yamlPath := filepath.Join(dir, "graph.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("types:\n  - name: Only\n"), 0o644))
	g, err = Load(yamlPath)
	require.NoError(t, err)
	assert.Len(t, g.Types, 1)
}

func TestLoadJSON_SchemaViolations(t *testing.T) {
	cases := map[string]string{
		"missing name":    `{"types": [{"capabilities": ["ILog"]}]}`,
		"empty name":      `{"types": [{"name": ""}]}`,
		"bad source kind": `{"types": [{"name": "A", "edges": [{"target": {"name": "B"}, "source": "magic"}]}]}`,
		"bad lifetime":    `{"types": [{"name": "A", "lifetimes": ["forever"]}]}`,
		"bad mode":        `{"types": [{"name": "A", "directive": {"mode": "everything"}}]}`,
		"missing types":   `{}`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadJSON([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadJSON_DuplicateTypeName(t *testing.T) {
	doc := `{"types": [{"name": "A"}, {"name": "A"}]}`
	_, err := LoadJSON([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestLoadJSON_NotJSON(t *testing.T) {
	_, err := LoadJSON([]byte("not json at all"))
	assert.Error(t, err)
}
