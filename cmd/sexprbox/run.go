package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/caffeineduck/sexprbox/channel"
	"github.com/caffeineduck/sexprbox/executor"
	"github.com/caffeineduck/sexprbox/hostfunc"
	"github.com/caffeineduck/sexprbox/journal"
	"github.com/caffeineduck/sexprbox/sexpr"
	"github.com/caffeineduck/sexprbox/wire"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <guest.wasm>",
		Short: "Run a guest once",
		Long: `Run a WebAssembly guest with the given channel input.

Input records come from --input-file first, then every --input value, then
every --input-int scalar. Committed records are printed
one per line after the guest's own output.

Examples:
  sexprbox run reverse.wasm --input '(1 2 3)'
  sexprbox run sum.wasm --input-file testdata/input.yaml --db runs.db`,
		Args: cobra.ExactArgs(1),
		RunE: runRun,
	}

	cmd.Flags().StringArray("input", nil, "Input value as s-expression text (repeatable)")
	cmd.Flags().Int32Slice("input-int", nil, "Input scalar (repeatable)")
	cmd.Flags().String("input-file", "", "YAML input fixture")
	cmd.Flags().StringArray("arg", nil, "Guest argument (repeatable)")
	cmd.Flags().String("entry", "_start", "Exported function to run")
	addLimitFlags(cmd)
	return cmd
}

func addLimitFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("timeout", 30*time.Second, "Execution timeout")
	cmd.Flags().String("memory", "256mb", "Memory limit: 1mb, 16mb, 64mb, 256mb, 1gb")

	// Boundary limits
	cmd.Flags().Int("max-handles", hostfunc.DefaultMaxHandles, "Max live value handles")
	cmd.Flags().Int("max-vector-len", hostfunc.DefaultMaxVectorLen, "Max vector length")
	cmd.Flags().String("malloc", hostfunc.DefaultMalloc, "Guest allocation export")
	cmd.Flags().String("free", hostfunc.DefaultFree, "Guest deallocation export")
}

// buildInput encodes the channel input described by the input flags.
func buildInput(cmd *cobra.Command) ([]byte, error) {
	file, _ := cmd.Flags().GetString("input-file")
	values, _ := cmd.Flags().GetStringArray("input")
	ints, _ := cmd.Flags().GetInt32Slice("input-int")

	var input []byte
	if file != "" {
		var err error
		if input, err = channel.LoadInput(file); err != nil {
			return nil, err
		}
	}

	for _, text := range values {
		v, err := sexpr.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("--input %q: %w", text, err)
		}
		input = wire.AppendValue(input, v)
	}
	for _, n := range ints {
		input = wire.AppendScalar(input, n)
	}
	return input, nil
}

func buildRunOpts(cmd *cobra.Command, input []byte) []executor.Option {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	maxHandles, _ := cmd.Flags().GetInt("max-handles")
	maxVectorLen, _ := cmd.Flags().GetInt("max-vector-len")
	malloc, _ := cmd.Flags().GetString("malloc")
	free, _ := cmd.Flags().GetString("free")
	entry, _ := cmd.Flags().GetString("entry")
	args, _ := cmd.Flags().GetStringArray("arg")

	return []executor.Option{
		executor.WithInput(input),
		executor.WithTimeout(timeout),
		executor.WithMaxHandles(maxHandles),
		executor.WithMaxVectorLen(maxVectorLen),
		executor.WithAllocator(malloc, free),
		executor.WithEntry(entry),
		executor.WithArgs(args...),
	}
}

// newExecutor builds an executor from the shared flags. The returned
// function closes it and the journal store, if any.
func newExecutor(cmd *cobra.Command, extra ...executor.ExecutorOption) (*executor.Executor, func(), error) {
	noCache, _ := cmd.Flags().GetBool("no-cache")
	memory, _ := cmd.Flags().GetString("memory")
	dbPath, _ := cmd.Flags().GetString("db")

	opts := []executor.ExecutorOption{executor.WithLogger(slog.Default())}
	if !noCache {
		opts = append(opts, executor.WithDiskCache())
	}
	pages, err := parseMemoryLimit(memory)
	if err != nil {
		return nil, nil, err
	}
	if pages > 0 {
		opts = append(opts, executor.WithMemoryLimit(pages))
	}

	var store *journal.Store
	if dbPath != "" {
		if store, err = journal.Open(dbPath); err != nil {
			return nil, nil, err
		}
		opts = append(opts, executor.WithRecorder(store))
	}

	exec, err := executor.New(nil, append(opts, extra...)...)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, nil, err
	}

	return exec, func() {
		exec.Close()
		if store != nil {
			store.Close()
		}
	}, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	guest, err := executor.LoadFile(args[0])
	if err != nil {
		return err
	}
	input, err := buildInput(cmd)
	if err != nil {
		return err
	}

	exec, closeExec, err := newExecutor(cmd)
	if err != nil {
		return err
	}
	defer closeExec()

	result := exec.Run(context.Background(), guest, buildRunOpts(cmd, input)...)

	out := cmd.OutOrStdout()
	fmt.Fprint(out, result.Output)
	if result.Error != nil {
		return fmt.Errorf("%s: %w", result.ID, result.Error)
	}
	return printRecords(out, result.Journal)
}
