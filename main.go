package main

import (
	"context"
	"fmt"
	"log"

	"digen/internal/config"
	"digen/internal/extractor"
	"digen/internal/generator"
	"digen/internal/logging"
	"digen/internal/pipeline"
	"digen/internal/reporter"
	"digen/internal/symbol"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig("digen.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. Extract annotated types
	ext, err := extractor.NewExtractor("go")
	if err != nil {
		log.Fatalf("Failed to create extractor: %v", err)
	}

	fmt.Println("🚀 Extracting annotated types from sample.go...")
	records, err := ext.ExtractFile("sample.go")
	if err != nil {
		log.Fatalf("Failed to extract: %v", err)
	}

	g := symbol.NewGraph()
	for _, t := range records {
		g.Add(t)
	}
	fmt.Printf("✅ Found %d annotated types\n", len(g.Types))

	// 3. Run the analysis pipeline
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	runner, err := pipeline.NewRunner(pipeline.OptionsFromConfig(cfg), logger)
	if err != nil {
		log.Fatalf("Failed to create runner: %v", err)
	}

	fmt.Println("🔍 Analyzing dependency graph...")
	res, err := runner.Run(ctx, g)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	// An identical graph hits the result cache and returns the same
	// artifacts.
	again, err := runner.Run(ctx, g)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
	if res == again {
		fmt.Println("⚡ Second run served from the result cache")
	}

	// 4. Report
	console := reporter.NewConsole(nil)
	console.PrintSummary(res.Fingerprint, len(res.Plans), len(res.Registrations), res.Diagnostics)
	console.PrintDiagnostics(res.Diagnostics)
	console.PrintPlans(res.Plans)

	// 5. Emit generated sources
	fmt.Printf("📝 Writing generated sources to %s...\n", cfg.Project.Output)
	em := generator.NewEmitter(cfg.Project.Output, "digen_gen")
	files, err := em.EmitAll(res.Plans, res.Registrations, res.Resolved)
	if err != nil {
		log.Fatalf("Failed to emit sources: %v", err)
	}
	for _, f := range files {
		fmt.Printf("  -> %s\n", f)
	}

	fmt.Printf("✨ Process complete! Check the '%s' directory for generated files.\n", cfg.Project.Output)
}
