package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digen/internal/analysis"
	"digen/internal/config"
	"digen/internal/diag"
	"digen/internal/planner"
	"digen/internal/symbol"
)

func configWith(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Analysis.DefaultLifetime = "scoped"
	cfg.Analysis.Skip = []string{"Test*"}
	cfg.Diagnostics.Enabled = false
	cfg.Diagnostics.Severity = map[string]string{
		diag.CodeSingletonTransient: "error",
		diag.CodeCycle:              "not-a-severity",
	}
	cfg.Naming.MemberPrefix = "m_"
	return cfg
}

func scenarioRecords() []*symbol.TypeRecord {
	return []*symbol.TypeRecord{
		{Name: "Base", Extensible: true, Lifetimes: []symbol.Lifetime{symbol.LifetimeScoped}},
		{
			Name: "Mid", Base: "Base", Extensible: true,
			Edges: []symbol.DependencyEdge{
				{Target: symbol.TypeRef{Name: "ILog"}, Source: symbol.SourceField, Member: "_log"},
			},
		},
		{
			Name: "Leaf", Base: "Mid", Extensible: true,
			Edges: []symbol.DependencyEdge{
				{Target: symbol.TypeRef{Name: "IClock"}, Source: symbol.SourceParam},
			},
		},
		{Name: "ConsoleLog", Capabilities: []string{"ILog"}},
		{Name: "SystemClock", Capabilities: []string{"IClock"}},
	}
}

func buildGraph(records []*symbol.TypeRecord) *symbol.Graph {
	g := symbol.NewGraph()
	for _, rec := range records {
		g.Add(rec)
	}
	return g
}

func mustRunner(t *testing.T, opts Options) *Runner {
	t.Helper()
	r, err := NewRunner(opts, nil)
	require.NoError(t, err)
	return r
}

func TestRun_EndToEndScenario(t *testing.T) {
	r := mustRunner(t, DefaultOptions())

	result, err := r.Run(context.Background(), buildGraph(scenarioRecords()))
	require.NoError(t, err)

	var leaf *planner.ConstructionPlan
	for _, plan := range result.Plans {
		if plan.Type == "Leaf" {
			leaf = plan
		}
	}
	require.NotNil(t, leaf)

	require.Len(t, leaf.Entries, 2)
	assert.Equal(t, "ILog(_log)", leaf.Entries[0].String())
	assert.Equal(t, 1, leaf.Entries[0].Level)
	assert.Equal(t, "IClock", leaf.Entries[1].String())
	assert.Equal(t, 0, leaf.Entries[1].Level)
	require.Len(t, leaf.BaseForward, 1)
	assert.Equal(t, "ILog(_log)", leaf.BaseForward[0].String())

	assert.True(t, planner.Covered(result.Registrations, "ConsoleLog", "ILog"))
	assert.True(t, planner.Covered(result.Registrations, "SystemClock", "IClock"))

	for _, d := range result.Diagnostics {
		assert.NotEqual(t, diag.SeverityError, d.Severity, "unexpected error diagnostic: %+v", d)
	}

	require.NotNil(t, result.Report)
	assert.Equal(t, len(result.Plans), result.Report.Summary.Plans)
	assert.Equal(t, len(result.Registrations), result.Report.Summary.Registrations)
	assert.GreaterOrEqual(t, result.Report.Summary.StageCount, 4)
	assert.Zero(t, result.Report.Summary.FailedStages)
}

func TestRun_OrderIndependence(t *testing.T) {
	records := scenarioRecords()
	reversed := make([]*symbol.TypeRecord, len(records))
	for i, rec := range records {
		reversed[len(records)-1-i] = rec
	}

	first, err := mustRunner(t, DefaultOptions()).Run(context.Background(), buildGraph(records))
	require.NoError(t, err)
	second, err := mustRunner(t, DefaultOptions()).Run(context.Background(), buildGraph(reversed))
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint, second.Fingerprint)

	marshal := func(r *Result) string {
		data, err := json.Marshal(struct {
			Plans         []*planner.ConstructionPlan
			Registrations []planner.RegistrationEntry
			Diagnostics   []diag.Diagnostic
		}{r.Plans, r.Registrations, r.Diagnostics})
		require.NoError(t, err)
		return string(data)
	}
	assert.Equal(t, marshal(first), marshal(second))
}

func TestRun_CacheHitReturnsSameResult(t *testing.T) {
	r := mustRunner(t, DefaultOptions())

	first, err := r.Run(context.Background(), buildGraph(scenarioRecords()))
	require.NoError(t, err)
	second, err := r.Run(context.Background(), buildGraph(scenarioRecords()))
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestRun_PanicIsolatedPerType(t *testing.T) {
	r := mustRunner(t, DefaultOptions())
	g := buildGraph(scenarioRecords())
	p := planner.NewPlanner(g, analysis.NewAnalyzer(g), planner.DefaultNaming())

	plan, diags := r.planOne(p, nil)

	assert.Nil(t, plan)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeAnalysisPanic, diags[0].Code)
	assert.Equal(t, "<unknown>", diags[0].Type)
}

func TestRun_NilRecordDoesNotAbortRun(t *testing.T) {
	g := buildGraph(scenarioRecords())
	g.Types = append(g.Types, nil)

	result, err := mustRunner(t, DefaultOptions()).Run(context.Background(), g)
	require.NoError(t, err)
	assert.Len(t, result.Plans, len(scenarioRecords()))
}

func TestRun_MissingImplementationReported(t *testing.T) {
	g := buildGraph([]*symbol.TypeRecord{
		{
			Name: "Svc", Extensible: true,
			Edges: []symbol.DependencyEdge{
				{Target: symbol.TypeRef{Name: "INowhere"}, Source: symbol.SourceParam},
			},
		},
	})

	result, err := mustRunner(t, DefaultOptions()).Run(context.Background(), g)
	require.NoError(t, err)

	found := false
	for _, d := range result.Diagnostics {
		if d.Code == diag.CodeMissingImplementation {
			found = true
			assert.Equal(t, diag.SeverityError, d.Severity)
		}
	}
	assert.True(t, found)
}

func TestRun_SeverityOverrideAndDisable(t *testing.T) {
	g := func() *symbol.Graph {
		return buildGraph([]*symbol.TypeRecord{
			{
				Name: "Svc", Extensible: true,
				Edges: []symbol.DependencyEdge{
					{Target: symbol.TypeRef{Name: "INowhere"}, Source: symbol.SourceParam},
				},
			},
		})
	}

	opts := DefaultOptions()
	opts.Severities = map[string]diag.Severity{diag.CodeMissingImplementation: diag.SeverityInfo}
	result, err := mustRunner(t, opts).Run(context.Background(), g())
	require.NoError(t, err)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, diag.SeverityInfo, result.Diagnostics[0].Severity)

	opts = DefaultOptions()
	opts.DiagnosticsEnabled = false
	result, err = mustRunner(t, opts).Run(context.Background(), g())
	require.NoError(t, err)
	assert.Empty(t, result.Diagnostics)
}

func TestRun_WorkerRegistration(t *testing.T) {
	g := buildGraph([]*symbol.TypeRecord{
		{Name: "QueueDrainer", Worker: true, Capabilities: []string{"IWorker"}},
	})

	result, err := mustRunner(t, DefaultOptions()).Run(context.Background(), g)
	require.NoError(t, err)

	require.Len(t, result.Registrations, 1)
	entry := result.Registrations[0]
	assert.Equal(t, planner.KindWorker, entry.Kind)
	assert.Equal(t, symbol.LifetimeSingleton, entry.Lifetime)
	assert.Equal(t, "QueueDrainer", entry.Contract)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mustRunner(t, DefaultOptions()).Run(ctx, buildGraph(scenarioRecords()))
	assert.Error(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := configWith(t)

	opts := OptionsFromConfig(cfg)

	assert.Equal(t, symbol.LifetimeScoped, opts.DefaultLifetime)
	assert.False(t, opts.DiagnosticsEnabled)
	assert.Equal(t, diag.SeverityError, opts.Severities[diag.CodeSingletonTransient])
	assert.NotContains(t, opts.Severities, diag.CodeCycle)
	assert.Equal(t, []string{"Test*"}, opts.SkipPatterns)
	assert.Equal(t, "m_", opts.Naming.MemberPrefix)
}
