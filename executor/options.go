package executor

import (
	"log/slog"
	"time"

	"github.com/caffeineduck/sexprbox/hostfunc"
	"github.com/caffeineduck/sexprbox/sexpr"
	"github.com/caffeineduck/sexprbox/wire"
)

// Option configures execution behavior.
type Option func(*runConfig)

type runConfig struct {
	timeout time.Duration
	input   []byte
	args    []string
	entry   string
	// Boundary limits
	maxHandles   int
	maxVectorLen int
	malloc       string
	free         string
}

func defaultRunConfig() runConfig {
	return runConfig{
		timeout:      30 * time.Second,
		entry:        "_start",
		maxHandles:   hostfunc.DefaultMaxHandles,
		maxVectorLen: hostfunc.DefaultMaxVectorLen,
		malloc:       hostfunc.DefaultMalloc,
		free:         hostfunc.DefaultFree,
	}
}

// WithTimeout sets the maximum execution time. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(c *runConfig) {
		c.timeout = d
	}
}

// WithInput appends already encoded channel records to the input.
func WithInput(records []byte) Option {
	return func(c *runConfig) {
		c.input = append(c.input, records...)
	}
}

// WithInputValue appends a value record to the input.
func WithInputValue(v sexpr.Value) Option {
	return func(c *runConfig) {
		c.input = wire.AppendValue(c.input, v)
	}
}

// WithInputVector appends a vector record to the input.
func WithInputVector(v *sexpr.Vector) Option {
	return func(c *runConfig) {
		c.input = wire.AppendVector(c.input, v)
	}
}

// WithInputInteger appends a scalar record to the input.
func WithInputInteger(n int32) Option {
	return func(c *runConfig) {
		c.input = wire.AppendScalar(c.input, n)
	}
}

// WithArgs sets the guest's command line arguments after argv[0].
func WithArgs(args ...string) Option {
	return func(c *runConfig) {
		c.args = args
	}
}

// WithEntry names the exported function run on instantiation.
// The default is the WASI entry point "_start".
func WithEntry(name string) Option {
	return func(c *runConfig) {
		c.entry = name
	}
}

// Security limit options

// WithMaxHandles limits live handles per execution.
func WithMaxHandles(n int) Option {
	return func(c *runConfig) {
		c.maxHandles = n
	}
}

// WithMaxVectorLen limits the length of vectors created by the guest.
func WithMaxVectorLen(n int) Option {
	return func(c *runConfig) {
		c.maxVectorLen = n
	}
}

// WithAllocator names the guest's allocation exports.
func WithAllocator(malloc, free string) Option {
	return func(c *runConfig) {
		if malloc != "" {
			c.malloc = malloc
		}
		if free != "" {
			c.free = free
		}
	}
}

// ExecutorOption configures the Executor at creation time.
type ExecutorOption func(*executorConfig)

type executorConfig struct {
	diskCache        bool
	cacheDir         string
	precompile       []Guest // Guests to precompile at startup
	memoryLimitPages uint32  // Max memory pages (each page = 64KB), 0 = default (4GB)
	moduleName       string
	logger           *slog.Logger
	recorder         Recorder
}

func defaultExecutorConfig() executorConfig {
	return executorConfig{
		diskCache:        false,
		memoryLimitPages: 0, // 0 means use wazero default (65536 pages = 4GB)
		moduleName:       hostfunc.ModuleName,
	}
}

// WithDiskCache enables persistent compilation cache for faster CLI startup.
// Optionally provide a custom directory; otherwise uses ~/.cache/sexprbox or XDG_CACHE_HOME/sexprbox.
//
// Examples:
//
//	executor.New(registry, executor.WithDiskCache())            // default dir
//	executor.New(registry, executor.WithDiskCache("/tmp/cache")) // custom dir
func WithDiskCache(dir ...string) ExecutorOption {
	return func(c *executorConfig) {
		c.diskCache = true
		if len(dir) > 0 && dir[0] != "" {
			c.cacheDir = dir[0]
		}
	}
}

// WithPrecompile compiles the specified guests at Executor creation time.
// This moves the compilation cost to startup rather than first execution.
func WithPrecompile(guests ...Guest) ExecutorOption {
	return func(c *executorConfig) {
		c.precompile = guests
	}
}

// WithMemoryLimit sets the maximum memory available to WASM modules.
// Each page is 64KB. Examples:
//   - WithMemoryLimit(16) = 1MB max
//   - WithMemoryLimit(256) = 16MB max
//   - WithMemoryLimit(1024) = 64MB max
//
// Default is 0 (no limit, up to 4GB).
func WithMemoryLimit(pages uint32) ExecutorOption {
	return func(c *executorConfig) {
		c.memoryLimitPages = pages
	}
}

// Memory limit constants for convenience.
const (
	MemoryLimit1MB   uint32 = 16    // 1 MB
	MemoryLimit16MB  uint32 = 256   // 16 MB
	MemoryLimit64MB  uint32 = 1024  // 64 MB
	MemoryLimit256MB uint32 = 4096  // 256 MB
	MemoryLimit1GB   uint32 = 16384 // 1 GB
)

// WithModuleName changes the import module name guests use for the
// boundary functions.
func WithModuleName(name string) ExecutorOption {
	return func(c *executorConfig) {
		c.moduleName = name
	}
}

// WithLogger sets the logger for execution events. The default is
// slog.Default().
func WithLogger(l *slog.Logger) ExecutorOption {
	return func(c *executorConfig) {
		c.logger = l
	}
}

// WithRecorder stores every finished execution in r.
func WithRecorder(r Recorder) ExecutorOption {
	return func(c *executorConfig) {
		c.recorder = r
	}
}
