package cmd

import (
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the static documentation site",
	Long: `Renders every markdown page under source_dir into output_dir, with a TOC
panel, an outline index and a search index. Anchors are recorded in the
ledger so permalinks that stop resolving are reported.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("output", "", "override output directory")
	buildCmd.Flags().Bool("no-ledger", false, "skip recording anchors in the ledger")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		cfg.OutputDir = out
	}
	noLedger, _ := cmd.Flags().GetBool("no-ledger")

	log := cfg.Logging.Logger()
	defer log.Sync()

	report, err := buildSite(cmd.Context(), cfg, log, noLedger)
	if report != nil {
		printReport(report, cfg.OutputDir)
	}
	return err
}
