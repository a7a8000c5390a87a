// Command gatectl answers routing questions offline: what would the gate
// do with this host, path, and session, and what does the status source
// say about a tenant.  It builds the same object graph as cmd/gate.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yanizio/kalako-gate/internal/bootstrap"
	"github.com/yanizio/kalako-gate/internal/config"
	"github.com/yanizio/kalako-gate/internal/logger"
)

var (
	rootDir  string
	logLevel string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gatectl",
		Short:         "Inspect Kalako gate decisions",
		Long:          "Evaluate routing decisions and tenant status with the gate's own configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Config root holding conf/global.yaml (default: discovered)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(decideCmd(), statusCmd())
	return rootCmd
}

// loadConfig initialises console logging and reads config the way the
// server does.
func loadConfig(ctx context.Context) (*config.Config, error) {
	log, err := logger.Console(logLevel)
	if err != nil {
		return nil, err
	}
	secrets, err := bootstrap.Secrets(ctx, log)
	if err != nil {
		return nil, err
	}
	if rootDir != "" {
		return config.LoadFrom(ctx, rootDir, secrets)
	}
	return config.Load(ctx, secrets)
}
