package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/caffeineduck/sexprbox/abort"
	"github.com/caffeineduck/sexprbox/hostfunc"
	"github.com/caffeineduck/sexprbox/wire"
)

var (
	ErrAborted = errors.New("execution aborted")
	ErrTimeout = errors.New("execution timed out")
	ErrClosed  = errors.New("executor closed")
)

// Execution status values, as reported by Result.Status.
const (
	StatusOK      = "ok"
	StatusAborted = "aborted"
	StatusTimeout = "timeout"
	StatusFailed  = "failed"
)

// Result holds the journal and metadata of one execution.
type Result struct {
	ID       string
	Guest    string
	Journal  []byte // committed records, nil unless the execution succeeded
	Output   string // guest stdout followed by stderr
	Duration time.Duration
	Error    error
}

// Status classifies the outcome.
func (r Result) Status() string {
	switch {
	case r.Error == nil:
		return StatusOK
	case errors.Is(r.Error, ErrAborted):
		return StatusAborted
	case errors.Is(r.Error, ErrTimeout):
		return StatusTimeout
	default:
		return StatusFailed
	}
}

// Records decodes the journal.
func (r Result) Records() ([]wire.Item, error) {
	return wire.DecodeAll(r.Journal)
}

// Execution is what a Recorder receives for every finished run.
type Execution struct {
	Result
	Digest string // hex SHA-256 of the guest module
	Input  []byte
}

// Recorder persists finished executions.
type Recorder interface {
	RecordExecution(ctx context.Context, x Execution) error
}

// Executor manages the WASM runtime and compiled module caching.
type Executor struct {
	runtime  wazero.Runtime
	cache    wazero.CompilationCache
	compiled map[string]wazero.CompiledModule
	logger   *slog.Logger
	recorder Recorder
	mu       sync.RWMutex
	closed   bool
}

// New creates an Executor exporting the functions in registry to guests.
// A nil registry means hostfunc.Default().
func New(registry *hostfunc.Registry, opts ...ExecutorOption) (*Executor, error) {
	cfg := defaultExecutorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if registry == nil {
		registry = hostfunc.Default()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	ctx := context.Background()

	var cache wazero.CompilationCache
	var err error

	if cfg.diskCache {
		cacheDir := cfg.cacheDir
		if cacheDir == "" {
			cacheDir = defaultCacheDir()
		}
		cache, err = wazero.NewCompilationCacheWithDir(cacheDir)
		if err != nil {
			return nil, fmt.Errorf("create disk cache: %w", err)
		}
	}

	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cache != nil {
		rtConfig = rtConfig.WithCompilationCache(cache)
	}
	if cfg.memoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(cfg.memoryLimitPages)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	cleanup := func() {
		if cache != nil {
			cache.Close(ctx)
		}
		rt.Close(ctx)
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		cleanup()
		return nil, fmt.Errorf("instantiate WASI: %w", err)
	}
	if _, err := registry.Instantiate(ctx, rt, cfg.moduleName); err != nil {
		cleanup()
		return nil, err
	}

	e := &Executor{
		runtime:  rt,
		cache:    cache,
		compiled: make(map[string]wazero.CompiledModule),
		logger:   cfg.logger,
		recorder: cfg.recorder,
	}

	for _, g := range cfg.precompile {
		if _, err := e.getCompiled(ctx, g); err != nil {
			e.Close()
			return nil, fmt.Errorf("precompile %s: %w", g.Name(), err)
		}
	}

	return e, nil
}

// Run executes guest once. The guest's commits are returned in
// Result.Journal only if the execution completes; an abort, a trap or a
// timeout discards them.
func (e *Executor) Run(ctx context.Context, guest Guest, opts ...Option) Result {
	start := time.Now()

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	result := Result{ID: uuid.NewString(), Guest: guest.Name()}
	logger := e.logger.With("id", result.ID, "guest", result.Guest)

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	compiled, err := e.getCompiled(ctx, guest)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		e.finish(ctx, logger, guest, cfg, result)
		return result
	}

	st := hostfunc.NewState(cfg.input,
		hostfunc.WithMaxHandles(cfg.maxHandles),
		hostfunc.WithMaxVectorLen(cfg.maxVectorLen),
		hostfunc.WithAllocator(cfg.malloc, cfg.free),
		hostfunc.WithStateLogger(logger),
	)
	defer st.Close()

	var stdout lockedBuffer
	stderr := newStderrLogger(logger)

	moduleConfig := wazero.NewModuleConfig().
		WithStdout(&stdout).
		WithStderr(stderr).
		WithArgs(append([]string{guest.Name()}, cfg.args...)...).
		WithStartFunctions(cfg.entry).
		WithName("")

	logger.Debug("execution started", "input_bytes", len(cfg.input))

	mod, err := e.runtime.InstantiateModule(hostfunc.WithState(ctx, st), compiled, moduleConfig)
	if mod != nil {
		mod.Close(context.Background())
	}
	stderr.Flush()

	journal := st.Channel().Seal()
	result.Output = stdout.String() + stderr.String()
	result.Duration = time.Since(start)
	result.Error = classify(ctx, err, cfg)
	if result.Error == nil {
		result.Journal = journal
	}

	e.finish(ctx, logger, guest, cfg, result)
	return result
}

// classify maps the instantiation error to the result error.
func classify(ctx context.Context, err error, cfg runConfig) error {
	if err == nil {
		return nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w after %v", ErrTimeout, cfg.timeout)
	}
	if ae, ok := abort.As(err); ok {
		return fmt.Errorf("%w: %w", ErrAborted, ae)
	}
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() == 0 {
			return nil
		}
		return fmt.Errorf("execution failed: guest exited with code %d", exitErr.ExitCode())
	}
	return fmt.Errorf("execution failed: %w", err)
}

func (e *Executor) finish(ctx context.Context, logger *slog.Logger, guest Guest, cfg runConfig, result Result) {
	switch result.Status() {
	case StatusOK:
		logger.Info("execution finished",
			"duration", result.Duration,
			"journal_bytes", len(result.Journal),
		)
	case StatusAborted:
		ae, _ := abort.As(result.Error)
		logger.Warn("execution aborted", "op", ae.Op, "reason", ae.Err, "duration", result.Duration)
	default:
		logger.Warn("execution failed", "error", result.Error, "duration", result.Duration)
	}

	if e.recorder == nil {
		return
	}
	x := Execution{Result: result, Digest: Digest(guest), Input: cfg.input}
	// The run context may have expired; recording must not depend on it.
	if err := e.recorder.RecordExecution(context.WithoutCancel(ctx), x); err != nil {
		logger.Error("record execution", "error", err)
	}
}

// getCompiled returns a cached compiled module, compiling if necessary.
func (e *Executor) getCompiled(ctx context.Context, guest Guest) (wazero.CompiledModule, error) {
	key := Digest(guest)

	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, ErrClosed
	}
	if compiled, ok := e.compiled[key]; ok {
		e.mu.RUnlock()
		return compiled, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrClosed
	}
	if compiled, ok := e.compiled[key]; ok {
		return compiled, nil
	}

	compiled, err := e.runtime.CompileModule(ctx, guest.Module())
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", guest.Name(), err)
	}

	e.compiled[key] = compiled
	return compiled, nil
}

// Close releases all resources held by the Executor.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	ctx := context.Background()

	var errs []error
	if err := e.runtime.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if e.cache != nil {
		if err := e.cache.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "sexprbox")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "sexprbox")
	}
	return filepath.Join(os.TempDir(), "sexprbox-cache")
}
