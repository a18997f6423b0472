package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"digen/internal/config"
	"digen/internal/crawler"
	"digen/internal/diag"
	"digen/internal/extractor"
	"digen/internal/generator"
	"digen/internal/git"
	"digen/internal/graph"
	"digen/internal/loader"
	"digen/internal/logging"
	"digen/internal/pipeline"
	"digen/internal/reporter"
	"digen/internal/retrieval"
	"digen/internal/storage"
	"digen/internal/symbol"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "digen",
		Short: "Dependency-injection planner and source generator",
	}
	dbPath  string
	cfgPath string

	graphOut  string
	failOn    string
	showPlans bool
	outDir    string
	outPkg    string
	impact    string
	since     string
	hops      int
	runLimit  int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Default DB path is local to the project
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "digen.db", "Path to the local analysis database (SQLite)")
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "digen.yaml", "Path to the configuration file")

	scanCmd.Flags().StringVar(&graphOut, "graph-out", "", "Also write the scanned graph as a JSON document")
	analyzeCmd.Flags().StringVar(&failOn, "fail-on", "error", "Exit non-zero on findings at or above this severity (off disables)")
	analyzeCmd.Flags().BoolVar(&showPlans, "plans", false, "Print the construction plans")
	emitCmd.Flags().StringVar(&outDir, "out", "", "Output directory for generated sources (defaults to project.output)")
	emitCmd.Flags().StringVar(&outPkg, "package", "digen_gen", "Package name for generated sources")
	graphCmd.Flags().StringVar(&impact, "impact", "", "Comma-separated type names to highlight together with their dependents")
	graphCmd.Flags().StringVar(&since, "since", "", "Git ref to diff against; renders the neighborhood of the touched types")
	graphCmd.Flags().IntVar(&hops, "hops", 2, "Neighborhood radius for --since")
	runsCmd.Flags().IntVar(&runLimit, "limit", 10, "Number of runs to list")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(emitCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(runsCmd)
}

// initStore initializes the SQLite store.
func initStore() (*storage.SQLiteStore, error) {
	return storage.NewSQLiteStore(dbPath)
}

// scanTree crawls a source tree into a fresh symbol graph. A second
// declaration of an already-known type name is reported and dropped;
// the first record stays authoritative.
func scanTree(root string) (*symbol.Graph, error) {
	ext, err := extractor.NewExtractor("go")
	if err != nil {
		return nil, err
	}

	g := symbol.NewGraph()
	cr := crawler.NewCrawler(ext)
	err = cr.ScanProject(root, func(t *symbol.TypeRecord) {
		if prev := g.Lookup(t.Name); prev != nil {
			log.Printf("⚠️ Duplicate type %s in %s (keeping the record from %s)", t.Name, t.File, prev.File)
			return
		}
		g.Add(t)
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// resolveGraph turns the positional argument into a symbol graph. A
// .json/.yaml argument is loaded as a graph document, a directory is
// scanned and snapshotted, and no argument means the latest stored
// snapshot.
func resolveGraph(ctx context.Context, store *storage.SQLiteStore, args []string) (*symbol.Graph, error) {
	if len(args) == 0 {
		fmt.Println("🔄 Loading latest graph snapshot...")
		return store.LatestSnapshot(ctx)
	}

	path := args[0]
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		fmt.Printf("📄 Loading graph document: %s\n", path)
		return loader.Load(path)
	default:
		fmt.Printf("📂 Scanning directory: %s\n", path)
		g, err := scanTree(path)
		if err != nil {
			return nil, err
		}
		if err := store.SaveSnapshot(ctx, g); err != nil {
			return nil, err
		}
		return g, nil
	}
}

// runAnalysis executes the full pipeline over the graph with the
// configured options.
func runAnalysis(ctx context.Context, cfg *config.Config, g *symbol.Graph) (*pipeline.Result, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	runner, err := pipeline.NewRunner(pipeline.OptionsFromConfig(cfg), logger)
	if err != nil {
		return nil, err
	}
	return runner.Run(ctx, g)
}

// saveRun records the run summary together with its JSON artifacts.
func saveRun(ctx context.Context, store *storage.SQLiteStore, res *pipeline.Result) error {
	payloads := map[string]interface{}{
		"plans":         res.Plans,
		"registrations": res.Registrations,
		"diagnostics":   res.Diagnostics,
		"report":        res.Report,
	}
	artifacts := make(map[string][]byte, len(payloads))
	for kind, v := range payloads {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		artifacts[kind] = data
	}

	run := storage.RunRecord{
		ID:            res.Report.RunID,
		Fingerprint:   res.Fingerprint,
		Plans:         len(res.Plans),
		Registrations: len(res.Registrations),
		Diagnostics:   len(res.Diagnostics),
	}
	return store.SaveRun(ctx, run, artifacts)
}

// exitOnFindings applies the --fail-on gate.
func exitOnFindings(items []diag.Diagnostic) {
	threshold, ok := diag.ParseSeverity(failOn)
	if !ok || threshold == diag.SeverityOff {
		return
	}
	for _, d := range items {
		if d.Severity.Rank() >= threshold.Rank() {
			fmt.Printf("\n❌ Findings at or above severity %s present.\n", threshold)
			os.Exit(1)
		}
	}
}

func splitNames(csv string) []string {
	var out []string
	for _, p := range strings.Split(csv, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func shorten(fingerprint string) string {
	if len(fingerprint) > 12 {
		return fingerprint[:12]
	}
	return fingerprint
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan the project and store its symbol graph snapshot",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "."
		if len(args) > 0 {
			path = args[0]
		}

		fmt.Printf("📂 Scanning directory: %s\n", path)

		store, err := initStore()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		fmt.Println("🚀 Building symbol graph...")
		start := time.Now()
		g, err := scanTree(path)
		if err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
		fmt.Printf("✅ Graph built in %v. Found %d types.\n", time.Since(start), len(g.Types))

		ctx := context.Background()
		fmt.Println("💾 Saving snapshot to local database...")
		if err := store.SaveSnapshot(ctx, g); err != nil {
			log.Fatalf("Failed to save snapshot: %v", err)
		}

		if graphOut != "" {
			doc, err := json.MarshalIndent(map[string][]*symbol.TypeRecord{"types": g.Sorted()}, "", "  ")
			if err != nil {
				log.Fatalf("Failed to encode graph document: %v", err)
			}
			if err := os.WriteFile(graphOut, append(doc, '\n'), 0644); err != nil {
				log.Fatalf("Failed to write graph document: %v", err)
			}
			fmt.Printf("📄 Graph document written to %s\n", graphOut)
		}

		fmt.Printf("🎉 Scan complete! Fingerprint: %s\n", shorten(g.Fingerprint()))
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path|graph-file]",
	Short: "Plan construction and registration and validate the graph",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, err := initStore()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		cfg, err := config.LoadConfig(cfgPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		g, err := resolveGraph(ctx, store, args)
		if err != nil {
			log.Fatalf("Failed to load graph: %v", err)
		}

		fmt.Println("🔍 Analyzing dependency graph...")
		start := time.Now()
		res, err := runAnalysis(ctx, cfg, g)
		if err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}
		fmt.Printf("✅ Analysis finished in %v.\n\n", time.Since(start))

		console := reporter.NewConsole(nil)
		console.PrintSummary(res.Fingerprint, len(res.Plans), len(res.Registrations), res.Diagnostics)
		console.PrintDiagnostics(res.Diagnostics)
		if showPlans {
			console.PrintPlans(res.Plans)
		}

		if err := saveRun(ctx, store, res); err != nil {
			log.Fatalf("Failed to record run: %v", err)
		}
		fmt.Printf("💾 Run %s recorded.\n", res.Report.RunID)

		exitOnFindings(res.Diagnostics)
	},
}

var emitCmd = &cobra.Command{
	Use:   "emit [path|graph-file]",
	Short: "Analyze the graph and write constructors, registry, and graph doc",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, err := initStore()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		cfg, err := config.LoadConfig(cfgPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		g, err := resolveGraph(ctx, store, args)
		if err != nil {
			log.Fatalf("Failed to load graph: %v", err)
		}

		fmt.Println("🔍 Analyzing dependency graph...")
		res, err := runAnalysis(ctx, cfg, g)
		if err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}

		errs := 0
		for _, d := range res.Diagnostics {
			if d.Severity == diag.SeverityError {
				errs++
			}
		}
		if errs > 0 {
			reporter.NewConsole(nil).PrintDiagnostics(res.Diagnostics)
			log.Fatalf("Refusing to emit with %d error finding(s)", errs)
		}

		dir := outDir
		if dir == "" {
			dir = cfg.Project.Output
		}

		fmt.Printf("✍️  Writing generated sources to %s...\n", dir)
		em := generator.NewEmitter(dir, outPkg)
		files, err := em.EmitAll(res.Plans, res.Registrations, res.Resolved)
		if err != nil {
			log.Fatalf("Failed to emit sources: %v", err)
		}
		for _, f := range files {
			fmt.Printf("  -> %s\n", f)
		}

		reportPath := filepath.Join(dir, "report.json")
		if err := res.Report.Save(reportPath); err != nil {
			log.Fatalf("Failed to write run report: %v", err)
		}
		fmt.Printf("  -> %s\n", reportPath)

		if err := saveRun(ctx, store, res); err != nil {
			log.Fatalf("Failed to record run: %v", err)
		}
		fmt.Printf("✅ Emitted %d file(s).\n", len(files)+1)
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph [path|graph-file]",
	Short: "Render the resolved dependency graph as mermaid",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, err := initStore()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		cfg, err := config.LoadConfig(cfgPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		g, err := resolveGraph(ctx, store, args)
		if err != nil {
			log.Fatalf("Failed to load graph: %v", err)
		}

		res, err := runAnalysis(ctx, cfg, g)
		if err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}

		mg := &generator.MermaidGenerator{}
		switch {
		case since != "":
			changes, err := git.ChangedFiles(ctx, since)
			if err != nil {
				log.Fatalf("Failed to read git changes: %v", err)
			}
			sub := retrieval.ExtractFromChanges(g, res.Resolved, changes, retrieval.Config{MaxHops: hops})
			if len(sub.Seeds) == 0 {
				fmt.Printf("✅ No annotated types touched since %s.\n", since)
				return
			}
			fmt.Printf("🔍 %d type(s) touched since %s across %d file(s)\n",
				len(sub.Seeds), since, len(sub.UpdatedFiles))
			fmt.Println(mg.ImpactDiagram(sub.Digraph(), sub.Seeds))

		case impact != "":
			changed := splitNames(impact)
			report := graph.AnalyzeImpact(res.Resolved, changed)
			fmt.Printf("🔍 Impact of changing %s:\n", strings.Join(changed, ", "))
			fmt.Printf("  -> %d types directly affected\n", len(report.DirectlyAffected))
			fmt.Printf("  -> %d types indirectly affected (dependents)\n", len(report.IndirectlyAffected))
			fmt.Println(mg.ImpactDiagram(res.Resolved, changed))

		default:
			fmt.Println(mg.DependencyDiagram(res.Resolved))
		}
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded analysis runs",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := initStore()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		runs, err := store.ListRuns(context.Background(), runLimit)
		if err != nil {
			log.Fatalf("Failed to list runs: %v", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return
		}

		fmt.Printf("📊 Last %d run(s):\n", len(runs))
		for _, r := range runs {
			fmt.Printf("  %s  %s  plans=%d registrations=%d findings=%d  %s\n",
				r.CreatedAt.Format(time.RFC3339), shorten(r.Fingerprint),
				r.Plans, r.Registrations, r.Diagnostics, r.ID)
		}
	},
}
