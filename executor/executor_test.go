package executor_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caffeineduck/sexprbox/abort"
	"github.com/caffeineduck/sexprbox/executor"
	"github.com/caffeineduck/sexprbox/field"
	"github.com/caffeineduck/sexprbox/handle"
	"github.com/caffeineduck/sexprbox/hostfunc"
	"github.com/caffeineduck/sexprbox/sexpr"
	"github.com/caffeineduck/sexprbox/wire"
)

var sharedExec *executor.Executor

func TestMain(m *testing.M) {
	var err error
	sharedExec, err = executor.GetTestExecutor()
	if err != nil {
		panic("failed to create shared executor: " + err.Error())
	}

	code := m.Run()

	executor.CloseTestExecutor()
	os.Exit(code)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func records(t *testing.T, r executor.Result) []string {
	t.Helper()
	items, err := r.Records()
	require.NoError(t, err)
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.String()
	}
	return out
}

func TestChannelRoundTrip(t *testing.T) {
	inputs := []string{`(1 "two" (3 . 4) ())`, `"héllo"`, "-7", "()"}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			v := sexpr.MustParse(input)
			r := sharedExec.Run(context.Background(), echoGuest(), executor.WithInputValue(v))
			require.NoError(t, r.Error)
			assert.Equal(t, executor.StatusOK, r.Status())

			got, err := wire.Unmarshal(r.Journal)
			require.NoError(t, err)
			assert.True(t, sexpr.Equal(v, got), "committed %s, want %s", got, v)
		})
	}
}

func TestReverseList(t *testing.T) {
	tests := []struct{ in, want string }{
		{"(1 2 3)", "(3 2 1)"},
		{`("a" ("b") ())`, `(() ("b") "a")`},
		{"(7)", "(7)"},
		{"()", "()"},
	}

	for _, tt := range tests {
		r := sharedExec.Run(context.Background(), reverseGuest(), executor.WithInputValue(sexpr.MustParse(tt.in)))
		require.NoError(t, r.Error, tt.in)
		assert.Equal(t, []string{tt.want}, records(t, r))
	}
}

func TestAbortDiscardsJournal(t *testing.T) {
	r := sharedExec.Run(context.Background(), carGuest())

	require.Error(t, r.Error)
	assert.Equal(t, executor.StatusAborted, r.Status())
	assert.ErrorIs(t, r.Error, executor.ErrAborted)
	assert.ErrorIs(t, r.Error, sexpr.ErrNotPair)
	assert.Nil(t, r.Journal, "aborted executions produce no journal")

	ae, ok := abort.As(r.Error)
	require.True(t, ok)
	assert.Equal(t, "car", ae.Op)
}

func TestVectorBounds(t *testing.T) {
	r := sharedExec.Run(context.Background(), vectorGuest(), executor.WithInputInteger(1))
	require.NoError(t, r.Error)
	assert.Equal(t, []string{"9", "#[7 9 7]"}, records(t, r))

	r = sharedExec.Run(context.Background(), vectorGuest(), executor.WithInputInteger(3))
	assert.Equal(t, executor.StatusAborted, r.Status())
	assert.ErrorIs(t, r.Error, sexpr.ErrIndexOutOfRange)
}

func TestMissingInputAborts(t *testing.T) {
	r := sharedExec.Run(context.Background(), vectorGuest())
	assert.ErrorIs(t, r.Error, wire.ErrNoRecord)

	r = sharedExec.Run(context.Background(), vectorGuest(), executor.WithInputValue(sexpr.Integer(1)))
	assert.ErrorIs(t, r.Error, wire.ErrKindMismatch)
}

func TestFieldProtocol(t *testing.T) {
	r := sharedExec.Run(context.Background(), fieldGuest())
	require.NoError(t, r.Error)
	assert.Equal(t, []string{"3", "11", "4", "3"}, records(t, r))

	r = sharedExec.Run(context.Background(), fieldGuest(), executor.WithEntry("put_read_only"))
	assert.Equal(t, executor.StatusAborted, r.Status())
	assert.ErrorIs(t, r.Error, field.ErrUnresolvedWriter)
}

func TestTextAcrossBoundary(t *testing.T) {
	r := sharedExec.Run(context.Background(), textGuest())
	require.NoError(t, r.Error)
	assert.Equal(t, []string{`"héllo"`, "1"}, records(t, r))

	r = sharedExec.Run(context.Background(), badTextGuest())
	assert.ErrorIs(t, r.Error, sexpr.ErrInvalidText)
}

func TestHandleLimit(t *testing.T) {
	r := sharedExec.Run(context.Background(), handlesGuest(4), executor.WithMaxHandles(4))
	require.NoError(t, r.Error)

	r = sharedExec.Run(context.Background(), handlesGuest(5), executor.WithMaxHandles(4))
	assert.ErrorIs(t, r.Error, handle.ErrFull)
}

func TestWalkLongerThanHandleLimit(t *testing.T) {
	n := hostfunc.DefaultMaxHandles + 10
	items := make([]sexpr.Value, n)
	for i := range items {
		items[i] = sexpr.Integer(int32(i))
	}

	r := sharedExec.Run(context.Background(), lengthGuest(), executor.WithInput(wire.Marshal(sexpr.List(items...))))
	require.NoError(t, r.Error)
	assert.Equal(t, []string{strconv.Itoa(n)}, records(t, r))

	// Borrowed views do not count against a small owned budget either.
	r = sharedExec.Run(context.Background(), lengthGuest(),
		executor.WithInput(wire.Marshal(sexpr.List(items[:100]...))), executor.WithMaxHandles(1))
	require.NoError(t, r.Error)
	assert.Equal(t, []string{"100"}, records(t, r))
}

func TestOutputAndExitCode(t *testing.T) {
	r := sharedExec.Run(context.Background(), outputGuest(0))
	require.NoError(t, r.Error)
	assert.Equal(t, "hello\noops\n", r.Output)
	assert.Equal(t, []string{"1"}, records(t, r))

	r = sharedExec.Run(context.Background(), outputGuest(3))
	require.Error(t, r.Error)
	assert.Equal(t, executor.StatusFailed, r.Status())
	assert.Contains(t, r.Error.Error(), "exited with code 3")
	assert.Nil(t, r.Journal)
}

func TestTrapFails(t *testing.T) {
	r := sharedExec.Run(context.Background(), trapGuest())
	require.Error(t, r.Error)
	assert.Equal(t, executor.StatusFailed, r.Status())
	_, ok := abort.As(r.Error)
	assert.False(t, ok)
}

func TestTimeout(t *testing.T) {
	start := time.Now()
	r := sharedExec.Run(context.Background(), loopGuest(), executor.WithTimeout(100*time.Millisecond))

	assert.Equal(t, executor.StatusTimeout, r.Status())
	assert.ErrorIs(t, r.Error, executor.ErrTimeout)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestInvalidModule(t *testing.T) {
	r := sharedExec.Run(context.Background(), executor.Binary("junk", []byte("not wasm")))
	require.Error(t, r.Error)
	assert.Equal(t, executor.StatusFailed, r.Status())
}

func TestConcurrentRunsAreIsolated(t *testing.T) {
	guest := echoGuest()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int32) {
			defer wg.Done()
			v := sexpr.List(sexpr.Integer(n), sexpr.Text("x"))
			r := sharedExec.Run(context.Background(), guest, executor.WithInputValue(v))
			if assert.NoError(t, r.Error) {
				got, err := wire.Unmarshal(r.Journal)
				assert.NoError(t, err)
				assert.True(t, sexpr.Equal(v, got))
			}
		}(int32(i))
	}
	wg.Wait()
}

type memRecorder struct {
	mu   sync.Mutex
	runs []executor.Execution
	err  error
}

func (m *memRecorder) RecordExecution(_ context.Context, x executor.Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, x)
	return m.err
}

func TestRecorder(t *testing.T) {
	rec := &memRecorder{}
	exec, err := executor.New(nil, executor.WithRecorder(rec), executor.WithLogger(discard()))
	require.NoError(t, err)
	defer exec.Close()

	guest := echoGuest()
	ok := exec.Run(context.Background(), guest, executor.WithInputValue(sexpr.Integer(1)))
	failed := exec.Run(context.Background(), carGuest())

	require.Len(t, rec.runs, 2)
	assert.Equal(t, ok.ID, rec.runs[0].ID)
	assert.Equal(t, executor.Digest(guest), rec.runs[0].Digest)
	assert.Equal(t, wire.Marshal(sexpr.Integer(1)), rec.runs[0].Input)
	assert.Equal(t, failed.ID, rec.runs[1].ID)
	assert.Equal(t, executor.StatusAborted, rec.runs[1].Status())
	assert.NotEqual(t, ok.ID, failed.ID)

	rec.err = errors.New("disk full")
	r := exec.Run(context.Background(), guest, executor.WithInputValue(sexpr.Integer(2)))
	assert.NoError(t, r.Error, "recording failures do not fail the execution")
}

func TestPrecompileAndClose(t *testing.T) {
	exec, err := executor.New(nil,
		executor.WithPrecompile(echoGuest()),
		executor.WithLogger(discard()),
		executor.WithMemoryLimit(executor.MemoryLimit16MB),
	)
	require.NoError(t, err)

	r := exec.Run(context.Background(), echoGuest(), executor.WithInputValue(sexpr.Nil))
	require.NoError(t, r.Error)

	require.NoError(t, exec.Close())
	require.NoError(t, exec.Close())

	r = exec.Run(context.Background(), echoGuest(), executor.WithInputValue(sexpr.Nil))
	assert.ErrorIs(t, r.Error, executor.ErrClosed)

	_, err = executor.New(nil, executor.WithPrecompile(executor.Binary("junk", nil)))
	assert.Error(t, err)
}

func TestCustomModuleName(t *testing.T) {
	exec, err := executor.New(nil, executor.WithModuleName("other"), executor.WithLogger(discard()))
	require.NoError(t, err)
	defer exec.Close()

	// The guest imports from "sexpr", which this executor does not provide.
	r := exec.Run(context.Background(), echoGuest(), executor.WithInputValue(sexpr.Nil))
	assert.Equal(t, executor.StatusFailed, r.Status())
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		exec, err := executor.New(nil, executor.WithDiskCache(dir), executor.WithLogger(discard()))
		require.NoError(t, err)
		r := exec.Run(context.Background(), echoGuest(), executor.WithInput(wire.Marshal(sexpr.Integer(5))))
		require.NoError(t, r.Error)
		assert.Equal(t, []string{"5"}, records(t, r))
		require.NoError(t, exec.Close())
	}
}

func TestLoadFile(t *testing.T) {
	_, err := executor.LoadFile("testdata/missing.wasm")
	assert.Error(t, err)

	path := t.TempDir() + "/echo.wasm"
	require.NoError(t, os.WriteFile(path, echoGuest().Module(), 0o644))
	g, err := executor.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "echo", g.Name())
	assert.Equal(t, executor.Digest(echoGuest()), executor.Digest(g))
}
