package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/doctoc/internal/config"
	"github.com/ziadkadry99/doctoc/internal/db"
	"github.com/ziadkadry99/doctoc/internal/ledger"
	"github.com/ziadkadry99/doctoc/internal/progress"
	"github.com/ziadkadry99/doctoc/internal/site"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `doctoc init` to create a config file", err)
	}
	if verbose {
		cfg.Logging.Level = config.LogDebug
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// buildSite runs one full build, recording anchors in the ledger unless
// noLedger is set.
func buildSite(ctx context.Context, cfg *config.Config, log *zap.Logger, noLedger bool) (*site.Report, error) {
	gen := site.NewGenerator(cfg, log)
	gen.Reporter = progress.NewReporter()

	if !noLedger && cfg.LedgerPath != "" {
		database, err := db.Open(cfg.LedgerPath)
		if err != nil {
			return nil, err
		}
		defer database.Close()
		gen.Ledger = ledger.NewStore(database)
	}

	return gen.Generate(ctx)
}

// printReport writes the build summary to stdout.
func printReport(r *site.Report, outputDir string) {
	fmt.Printf("Site built: %s (%d pages, %d anchors)\n", outputDir, r.Pages, r.Anchors)
	for page, ids := range r.Duplicates {
		fmt.Printf("  %s: %d duplicate anchor(s): %v\n", page, len(ids), ids)
	}
	for _, d := range r.Diffs {
		if len(d.Removed) > 0 {
			fmt.Printf("  %s: %d permalink(s) no longer resolve: %v\n", d.Page, len(d.Removed), d.Removed)
		}
	}
}
