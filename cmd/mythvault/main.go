package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/voyagen/mythvault/internal/config"
	"github.com/voyagen/mythvault/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI flags
var (
	configPath string
	verbosity  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "mythvault",
		Short:         "MythVault - read-only access to a MythTV PVR database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Optional config file path (YAML); else use environment variables")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		backendsCmd(),
		resolveCmd(),
		titlesCmd(),
		jobsCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "mythvault %s (commit: %s, built: %s)\n", version, commit, date)
			},
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "mythvault: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// setup loads configuration and configures logging.
func setup() (*config.Config, zerolog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("config: %w", err)
	}

	switch {
	case verbosity >= 2:
		cfg.Log.Level = "trace"
	case verbosity == 1:
		cfg.Log.Level = "debug"
	}
	return cfg, logging.Apply(cfg.Log), nil
}
