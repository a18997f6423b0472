package pipeline

import (
	"context"
	"runtime"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"digen/internal/analysis"
	"digen/internal/config"
	"digen/internal/diag"
	"digen/internal/graph"
	"digen/internal/index"
	"digen/internal/planner"
	"digen/internal/resolver"
	"digen/internal/symbol"
	"digen/internal/validator"
)

// Options configure one analysis run.
type Options struct {
	DefaultLifetime    symbol.Lifetime
	Naming             planner.NamingOptions
	Severities         map[string]diag.Severity
	DiagnosticsEnabled bool
	SkipPatterns       []string
	SkipExceptions     []string
	// Workers bounds the per-type planning pool; zero means one worker
	// per available CPU.
	Workers int
	// CacheSize bounds the result cache; zero picks a small default.
	CacheSize int
}

// DefaultOptions analyze with transient fallback lifetime and the
// built-in severity table.
func DefaultOptions() Options {
	return Options{
		DefaultLifetime:    symbol.LifetimeTransient,
		Naming:             planner.DefaultNaming(),
		DiagnosticsEnabled: true,
	}
}

// OptionsFromConfig maps the loaded configuration onto run options.
// Invalid lifetime or severity strings are dropped in favor of the
// defaults rather than failing the run.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}

	if lt, ok := symbol.ParseLifetime(cfg.Analysis.DefaultLifetime); ok && lt != symbol.LifetimeUnset {
		opts.DefaultLifetime = lt
	}
	opts.DiagnosticsEnabled = cfg.Diagnostics.Enabled
	if len(cfg.Diagnostics.Severity) > 0 {
		opts.Severities = make(map[string]diag.Severity, len(cfg.Diagnostics.Severity))
		for code, raw := range cfg.Diagnostics.Severity {
			if sev, ok := diag.ParseSeverity(raw); ok {
				opts.Severities[code] = sev
			}
		}
	}
	opts.SkipPatterns = cfg.Analysis.Skip
	opts.SkipExceptions = cfg.Analysis.SkipExceptions
	opts.Workers = cfg.Analysis.Workers
	opts.CacheSize = cfg.Analysis.CacheSize

	if cfg.Naming.StripPrefix != "" || cfg.Naming.MemberPrefix != "" || cfg.Naming.MemberCase != "" {
		opts.Naming = planner.NamingOptions{
			StripPrefix:  cfg.Naming.StripPrefix,
			MemberPrefix: cfg.Naming.MemberPrefix,
			MemberCase:   cfg.Naming.MemberCase,
		}
	}

	return opts
}

// Result holds the three artifacts of one analysis run plus its report.
// Results are immutable and safe to share; cached runs return the same
// value.
type Result struct {
	Fingerprint   string
	Plans         []*planner.ConstructionPlan
	Registrations []planner.RegistrationEntry
	Diagnostics   []diag.Diagnostic
	// Resolved is the implementation-level dependency digraph the
	// validators ran on, kept for graph rendering and impact queries.
	Resolved *graph.Digraph
	Report   *diag.RunReport
}

// Runner executes analysis runs and caches results by graph
// fingerprint. The cache is a pure optimization: a hit returns the
// identical artifacts the uncached run would have produced.
type Runner struct {
	opts   Options
	logger *zap.Logger
	cache  *lru.Cache[string, *Result]
}

func NewRunner(opts Options, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	size := opts.CacheSize
	if size <= 0 {
		size = 64
	}
	cache, err := lru.New[string, *Result](size)
	if err != nil {
		return nil, err
	}
	return &Runner{opts: opts, logger: logger, cache: cache}, nil
}

// Run analyzes one symbol graph and produces construction plans, the
// registration plan, and the diagnostic set.
func (r *Runner) Run(ctx context.Context, g *symbol.Graph) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fingerprint := g.Fingerprint()
	if cached, ok := r.cache.Get(fingerprint); ok {
		r.logger.Debug("analysis cache hit", zap.String("fingerprint", short(fingerprint)))
		return cached, nil
	}

	report := diag.NewRunReport(fingerprint)
	agg := diag.NewAggregator(r.opts.DiagnosticsEnabled, r.opts.Severities)
	chain := resolver.DefaultChain()

	h := report.BeginStage("build_index")
	ix := index.Build(g, r.opts.DefaultLifetime)
	an := analysis.NewAnalyzer(g)
	report.EndStage(h, "ok", map[string]float64{
		"types":     float64(len(g.Types)),
		"contracts": float64(len(ix.Contracts())),
	}, nil)
	r.logger.Debug("capability index built",
		zap.Int("types", len(g.Types)),
		zap.Int("contracts", len(ix.Contracts())))

	h = report.BeginStage("plan_types")
	plans, suppressed := r.planTypesStage(ctx, g, an, agg)
	if err := ctx.Err(); err != nil {
		report.EndStage(h, "cancelled", nil, err)
		return nil, err
	}
	report.EndStage(h, "ok", map[string]float64{
		"plans":      float64(len(plans)),
		"suppressed": float64(suppressed),
	}, nil)
	if suppressed > 0 {
		report.AddSignal("plans_suppressed", "plan_types", "warning",
			"construction plans suppressed by structural findings", float64(suppressed))
	}

	h = report.BeginStage("plan_registrations")
	rp := planner.NewRegistrationPlanner(ix, r.opts.SkipPatterns, r.opts.SkipExceptions)
	registrations, regDiags := rp.BuildRegistrationPlan(g)
	agg.Extend(regDiags)
	report.EndStage(h, "ok", map[string]float64{
		"registrations": float64(len(registrations)),
	}, nil)

	h = report.BeginStage("validate")
	digraph := graph.BuildResolved(g, an, ix, chain)
	agg.Extend(validator.ValidateCycles(digraph))
	lifetimes := validator.NewLifetimeValidator(g, an, ix, chain)
	integrity := validator.NewIntegrityValidator(ix, chain, registrations)
	for _, t := range g.Sorted() {
		agg.Extend(lifetimes.Validate(t))
		agg.Extend(integrity.Validate(t))
	}
	report.EndStage(h, "ok", nil, nil)

	result := &Result{
		Fingerprint:   fingerprint,
		Plans:         plans,
		Registrations: registrations,
		Diagnostics:   agg.Items(),
		Resolved:      digraph,
	}
	if agg.HasErrors() {
		report.AddSignal("diagnostic_errors", "validate", "error",
			"analysis produced error diagnostics", float64(agg.Count(diag.SeverityError)))
	}
	report.Finalize(len(plans), len(registrations), result.Diagnostics)
	result.Report = report

	r.cache.Add(fingerprint, result)
	r.logger.Info("analysis run finished",
		zap.String("fingerprint", short(fingerprint)),
		zap.Int("plans", len(plans)),
		zap.Int("registrations", len(registrations)),
		zap.Int("diagnostics", len(result.Diagnostics)))

	return result, nil
}

// planTypesStage plans every type over a bounded worker pool. Each
// result lands in its own slot so the output order never depends on
// scheduling. A panic while planning one type becomes a diagnostic for
// that type; the other types are unaffected.
func (r *Runner) planTypesStage(ctx context.Context, g *symbol.Graph, an *analysis.Analyzer, agg *diag.Aggregator) ([]*planner.ConstructionPlan, int) {
	types := g.Sorted()
	p := planner.NewPlanner(g, an, r.opts.Naming)

	planSlots := make([]*planner.ConstructionPlan, len(types))
	diagSlots := make([][]diag.Diagnostic, len(types))

	tasks := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < r.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				planSlots[i], diagSlots[i] = r.planOne(p, types[i])
			}
		}()
	}

	for i := range types {
		if ctx.Err() != nil {
			break
		}
		tasks <- i
	}
	close(tasks)
	wg.Wait()

	var plans []*planner.ConstructionPlan
	suppressed := 0
	for i := range types {
		agg.Extend(diagSlots[i])
		if planSlots[i] == nil {
			suppressed++
			continue
		}
		plans = append(plans, planSlots[i])
	}
	return plans, suppressed
}

func (r *Runner) planOne(p *planner.Planner, t *symbol.TypeRecord) (plan *planner.ConstructionPlan, diags []diag.Diagnostic) {
	defer func() {
		if rec := recover(); rec != nil {
			name := typeName(t)
			r.logger.Error("type analysis panicked",
				zap.String("type", name), zap.Any("panic", rec))
			plan = nil
			diags = append(diags, diag.AnalysisPanic(name, rec))
		}
	}()
	return p.Plan(t)
}

func typeName(t *symbol.TypeRecord) string {
	if t == nil {
		return "<unknown>"
	}
	return t.Name
}

func short(fingerprint string) string {
	if len(fingerprint) > 12 {
		return fingerprint[:12]
	}
	return fingerprint
}
