package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/altproxy/app"
	"github.com/kilianp07/altproxy/config"
	"github.com/kilianp07/altproxy/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "altproxy",
	Short: "Replay actions through isolated proxy stores",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario file",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "scenario.yaml", "scenario file")
	rootCmd.AddCommand(runCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	rep, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	if rep.Failed > 0 {
		return fmt.Errorf("%d of %d steps failed", rep.Failed, rep.Steps)
	}
	return nil
}
