package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"flip-pooling/internal/config"
	"flip-pooling/internal/debug/timing"
	"flip-pooling/internal/logger"
	"flip-pooling/internal/pipeline"
	"flip-pooling/internal/pipeline/stages"
	"flip-pooling/internal/shutdown"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	AppName    = "flip-pooling"
	AppVersion = "1.0.0"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   AppName + " -r reference -t test[,test...] | -e errormap[,errormap...]",
		Short: "Pool per-pixel FLIP error maps into statistics and histograms",
		Long: `flip-pooling accumulates a per-pixel error map into running statistics and a
histogram, prints the mean, weighted median and quartiles, extrema and their
positions, and writes <base>.csv with the histogram plus <base>.py, a
matplotlib script that plots it.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.New(), cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	config.BindFlags(root.Flags())

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", AppName, AppVersion, runtime.Version())
		},
	})

	return root
}

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	appLogger := logger.NewStderrLogger(level)

	appLogger.Info("Main", "starting", map[string]interface{}{
		"version":    AppVersion,
		"go_version": runtime.Version(),
		"num_cpu":    runtime.NumCPU(),
		"workers":    cfg.Workers,
		"buckets":    cfg.Buckets,
		"ppd":        cfg.PPD,
	})

	tracker := timing.NewTracker(appLogger)

	manager := shutdown.NewManager(parent, appLogger)
	manager.Register(tracker)
	manager.Listen()
	defer manager.Shutdown()

	loader := stages.NewLoader(appLogger, tracker)
	coordinator := pipeline.NewCoordinator(loader, appLogger, tracker, os.Stdout)

	if err := coordinator.Run(manager.Context(), cfg); err != nil {
		appLogger.Error("Main", err, nil)
		return err
	}
	return nil
}
