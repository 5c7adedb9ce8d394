package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "doctoc",
	Short: "Static documentation pages with a synchronized table of contents",
	Long: `doctoc builds HTML pages from markdown and gives every page a
table-of-contents panel whose permalinks stay stable across rebuilds.
While serving, the panel follows the reader's position in the page.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".doctoc.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
