// Package sandbox runs a guest module once in a throwaway executor.
//
// Use it for one-off runs; callers running many guests should keep an
// executor.Executor to reuse compiled modules.
package sandbox

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/caffeineduck/sexprbox/executor"
	"github.com/caffeineduck/sexprbox/hostfunc"
	"github.com/caffeineduck/sexprbox/sexpr"
	"github.com/caffeineduck/sexprbox/wire"
)

type Result struct {
	Records  []wire.Item
	Output   string
	Duration time.Duration
	Error    error
}

type Config struct {
	Timeout    time.Duration
	MaxHandles int
	Input      []sexpr.Value
	Registry   *hostfunc.Registry
	Logger     *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Timeout:    30 * time.Second,
		MaxHandles: hostfunc.DefaultMaxHandles,
	}
}

// Run executes wasm with cfg.Input as its channel input.
func Run(wasm []byte, cfg Config) Result {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	exec, err := executor.New(cfg.Registry, executor.WithLogger(logger))
	if err != nil {
		return Result{Error: err}
	}
	defer exec.Close()

	opts := []executor.Option{
		executor.WithTimeout(cfg.Timeout),
		executor.WithMaxHandles(cfg.MaxHandles),
	}
	for _, v := range cfg.Input {
		opts = append(opts, executor.WithInputValue(v))
	}

	r := exec.Run(context.Background(), executor.Binary("sandbox", wasm), opts...)
	result := Result{Output: r.Output, Duration: r.Duration, Error: r.Error}
	if r.Error == nil {
		result.Records, result.Error = r.Records()
	}
	return result
}

// RunText parses each input as s-expression text and runs wasm with the
// default config.
func RunText(wasm []byte, inputs ...string) Result {
	cfg := DefaultConfig()
	for _, text := range inputs {
		v, err := sexpr.Parse(text)
		if err != nil {
			return Result{Error: err}
		}
		cfg.Input = append(cfg.Input, v)
	}
	return Run(wasm, cfg)
}
