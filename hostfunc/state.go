package hostfunc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/caffeineduck/sexprbox/abort"
	"github.com/caffeineduck/sexprbox/channel"
	"github.com/caffeineduck/sexprbox/handle"
	"github.com/caffeineduck/sexprbox/sexpr"
)

// Default limits for one execution.
const (
	DefaultMaxHandles   = 1 << 16
	DefaultMaxVectorLen = 1 << 24
	DefaultMalloc       = "malloc"
	DefaultFree         = "free"
)

var (
	ErrNoState        = errors.New("no execution state in context")
	ErrSizeOverflow   = errors.New("value does not fit the host size")
	ErrVectorTooLarge = errors.New("vector too large")
)

// State is everything the boundary keeps for one execution: the handle
// tables, the I/O channel and the text buffers handed to the guest.
// It is not safe for concurrent use.
type State struct {
	values  *handle.Table[sexpr.Value]
	vectors *handle.Table[*sexpr.Vector]
	empty   handle.Handle
	ch      *channel.Channel
	texts   map[uint32]int

	maxVectorLen int
	malloc       string
	free         string
	logger       *slog.Logger
}

type StateOption func(*stateConfig)

type stateConfig struct {
	maxHandles   int
	maxVectorLen int
	malloc       string
	free         string
	logger       *slog.Logger
}

// WithMaxHandles limits the live value handles and, separately, the live
// vector handles.
func WithMaxHandles(n int) StateOption {
	return func(c *stateConfig) {
		c.maxHandles = n
	}
}

// WithMaxVectorLen limits the length accepted by vector_new and read_vector.
func WithMaxVectorLen(n int) StateOption {
	return func(c *stateConfig) {
		c.maxVectorLen = n
	}
}

// WithAllocator names the guest exports used to allocate and free guest
// memory. Empty names keep the defaults.
func WithAllocator(malloc, free string) StateOption {
	return func(c *stateConfig) {
		if malloc != "" {
			c.malloc = malloc
		}
		if free != "" {
			c.free = free
		}
	}
}

func WithStateLogger(l *slog.Logger) StateOption {
	return func(c *stateConfig) {
		c.logger = l
	}
}

// NewState returns the state for an execution reading input.
func NewState(input []byte, opts ...StateOption) *State {
	cfg := stateConfig{
		maxHandles:   DefaultMaxHandles,
		maxVectorLen: DefaultMaxVectorLen,
		malloc:       DefaultMalloc,
		free:         DefaultFree,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxHandles <= 0 {
		cfg.maxHandles = DefaultMaxHandles
	}

	s := &State{
		values:       handle.NewTable[sexpr.Value](cfg.maxHandles + 1),
		vectors:      handle.NewTable[*sexpr.Vector](cfg.maxHandles),
		ch:           channel.New(input),
		texts:        make(map[uint32]int),
		maxVectorLen: cfg.maxVectorLen,
		malloc:       cfg.malloc,
		free:         cfg.free,
		logger:       cfg.logger,
	}
	// The empty value does not count against the limit.
	s.empty, _ = s.values.Pin(sexpr.Nil)
	return s
}

// Channel returns the execution's I/O channel.
func (s *State) Channel() *channel.Channel {
	return s.ch
}

// Value resolves a value handle.
func (s *State) Value(h uint32) (sexpr.Value, error) {
	return s.values.Get(handle.Handle(h))
}

// Vector resolves a vector handle.
func (s *State) Vector(h uint32) (*sexpr.Vector, error) {
	return s.vectors.Get(handle.Handle(h))
}

// Insert adds v as an owned value, for drivers that seed values directly.
func (s *State) Insert(v sexpr.Value) (uint32, error) {
	h, err := s.values.Insert(v)
	return uint32(h), err
}

// Live returns the number of owned value handles (the empty value and
// borrowed views excluded), live vector handles and text buffers not yet
// dropped.
func (s *State) Live() (values, vectors, texts int) {
	values = s.values.Held()
	if _, err := s.values.Get(s.empty); err == nil {
		values--
	}
	return values, s.vectors.Len(), len(s.texts)
}

// Close drops every handle. Handles still live at this point were leaked
// by the guest; they are logged, not treated as errors.
func (s *State) Close() {
	values, vectors, texts := s.Live()
	if values+vectors+texts > 0 {
		s.logger.Debug("guest leaked handles",
			"values", values,
			"vectors", vectors,
			"texts", texts,
		)
	}
	s.values.Reset()
	s.vectors.Reset()
	clear(s.texts)
}

type stateKey struct{}

// WithState attaches s to ctx. Host functions find their state there.
func WithState(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, stateKey{}, s)
}

func StateFrom(ctx context.Context) (*State, bool) {
	s, ok := ctx.Value(stateKey{}).(*State)
	return s, ok && s != nil
}

// size converts a guest length or index to int.
func size(op string, n uint32) int {
	if uint64(n) > uint64(math.MaxInt) {
		abort.Fail(op, fmt.Errorf("%w: %d", ErrSizeOverflow, n))
	}
	return int(n)
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
