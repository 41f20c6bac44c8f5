package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/caffeineduck/sexprbox/executor"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sexprbox",
		Short: "Run WebAssembly guests against an s-expression boundary",
		Long: `sexprbox - Run WebAssembly guests that exchange s-expression values with
the host through opaque handles.

Guests read their input from a one-shot channel and commit results to a
journal. A guest that misuses a handle aborts its execution and its journal
is discarded.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
	}

	root.PersistentFlags().String("config", "", "Config file (default: $XDG_CONFIG_HOME/sexprbox/config.yaml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")
	root.PersistentFlags().Bool("no-cache", false, "Disable compilation cache")
	root.PersistentFlags().String("db", "", "SQLite execution journal")

	root.AddCommand(
		newRunCmd(),
		newEncodeCmd(),
		newDecodeCmd(),
		newRenderCmd(),
		newReplCmd(),
		newHistoryCmd(),
		newShowCmd(),
	)
	return root
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the config file and installs the logger before any command
// runs.
func setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	if err := cfg.apply(cmd.Flags()); err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}

func parseMemoryLimit(s string) (uint32, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return 0, nil
	case "1mb":
		return executor.MemoryLimit1MB, nil
	case "16mb":
		return executor.MemoryLimit16MB, nil
	case "64mb":
		return executor.MemoryLimit64MB, nil
	case "256mb":
		return executor.MemoryLimit256MB, nil
	case "1gb":
		return executor.MemoryLimit1GB, nil
	default:
		return 0, fmt.Errorf("invalid memory limit %q (expected 1mb, 16mb, 64mb, 256mb or 1gb)", s)
	}
}
