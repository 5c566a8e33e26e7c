package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sellerctl/internal/app"
	"sellerctl/internal/config"
	"sellerctl/internal/logger"
)

var (
	assumeYes bool
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "sellerctl",
	Short: "Run plain-language seller commands against your listings",
	Long: `sellerctl interprets instructions such as "drop all used listings by 10%",
shows what would change, and applies the change only after you confirm it.
Every confirmed command is recorded in the session history.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sellerctl %s (built %s, commit %s)\n", Version, BuildTime, GitCommit)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "skip confirmation for non-destructive commands")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline activity to stderr")
	rootCmd.AddCommand(versionCmd)
}

// openApp loads configuration and wires the pipeline. The CLI only logs
// warnings unless --verbose is set.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	cfg.Logging.Format = "console"
	if !verbose {
		cfg.Logging.Level = "warn"
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return a, nil
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		a.Logger.Warn("close platform", zap.Error(err))
	}
	_ = a.Logger.Sync()
}
