package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configFile  string
	targetsFile string
}

var rootCmd = &cobra.Command{
	Use:   "pagewatch",
	Short: "Poll web pages and report textual changes",
	Long: "pagewatch fetches a fixed set of URLs on an interval, reduces each page to its visible text\n" +
		"and reports a line diff whenever the text changes. Unreachable pages are disabled and\n" +
		"probed again with exponential backoff.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootFlags.configFile, "config", "c", "", "Path to the YAML/JSON configuration file (searched in default locations when empty)")
	pf.StringVarP(&rootFlags.targetsFile, "targets", "t", "", "Path to a file with one URL per line, merged with monitor_config.target_urls")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
