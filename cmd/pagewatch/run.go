package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runFlags struct {
	once bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the poll loop",
	Long:  "Start the poll loop and keep running until interrupted or monitor_config.max_passes is reached.",
	Args:  cobra.NoArgs,
	RunE:  runLoop,
}

func init() {
	runCmd.Flags().BoolVar(&runFlags.once, "once", false, "Run a single pass and exit")
}

func runLoop(cmd *cobra.Command, _ []string) error {
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
	defer app.shutdown()

	if runFlags.once {
		app.service.RunOnce(ctx)
		return nil
	}
	return app.service.Run(ctx)
}

// commandContext returns the command's context or Background when cobra did not set one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
