package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/doctoc/internal/site"
)

var anchorsCmd = &cobra.Command{
	Use:   "anchors <file.md>",
	Short: "Print the anchor identifiers a markdown page publishes",
	Long: `Renders one markdown file and lists the derived anchor of every indexed
heading, indented by level, followed by any duplicate anchors.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnchors,
}

func init() {
	rootCmd.AddCommand(anchorsCmd)
}

func runAnchors(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	log := cfg.Logging.Logger()
	defer log.Sync()

	doc, err := site.NewGenerator(cfg, log).RenderMarkdown(src, site.OutlineOptions(cfg.TOC))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, h := range doc.Headings {
		indent := strings.Repeat("  ", int(h.Level)-1)
		fmt.Fprintf(out, "%s#%s\t%s\n", indent, h.ID, h.Text)
	}
	for _, id := range doc.Pool.Duplicates() {
		fmt.Fprintf(out, "duplicate: #%s (%d headings)\n", id, doc.Pool.Count(id))
	}
	return nil
}
