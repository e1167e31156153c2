package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/aleister1102/pagewatch/internal/monitor"

	"github.com/spf13/cobra"
)

var checkFlags struct {
	jsonOutput bool
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one pass and print its summary",
	Long:  "Run one pass over every target, deliver any events, print the per-source outcome and exit.",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkFlags.jsonOutput, "json", false, "Print the summary as JSON")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, zLogger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, zLogger)
	if err != nil {
		return err
	}
	app.start(ctx)
	summary := app.service.RunOnce(ctx)
	app.shutdown()

	out := cmd.OutOrStdout()
	if checkFlags.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	return printSummary(out, summary)
}

func printSummary(out io.Writer, summary monitor.PassSummary) error {
	fmt.Fprintf(out, "Pass %d (%s) finished in %s\n", summary.Pass, summary.PassID, summary.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "checked=%d changed=%d failed=%d probed=%d recovered=%d disabled=%d skipped=%d\n\n",
		summary.Checked, summary.Changed, summary.Failed, summary.Probed,
		summary.Recovered, summary.Disabled, summary.Skipped)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "URL\tOUTCOME\tSTATE\tFAILURES\tDURATION\tERROR")
	for _, src := range summary.Sources {
		url := src.URL
		if src.Probe {
			url += " (probe)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			url, src.Outcome, src.State, src.ConsecutiveFailures, src.Duration.Round(time.Millisecond), src.Error)
	}
	return tw.Flush()
}
