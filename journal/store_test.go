package journal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caffeineduck/sexprbox/executor"
	"github.com/caffeineduck/sexprbox/hostfunc"
	w "github.com/caffeineduck/sexprbox/internal/wasmtest"
	"github.com/caffeineduck/sexprbox/sexpr"
	"github.com/caffeineduck/sexprbox/wire"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenAppliesPragmas(t *testing.T) {
	s := openTestStore(t)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "open %d", i)
		require.NoError(t, s.Close())
	}
}

func TestRecordAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created := time.Unix(1700000000, 42)
	e := Entry{
		ID:       "a",
		Guest:    "echo",
		Digest:   "abc",
		Input:    wire.Marshal(sexpr.Integer(1)),
		Journal:  wire.Marshal(sexpr.Integer(1)),
		Status:   executor.StatusOK,
		Duration: 3 * time.Millisecond,
		Created:  created,
	}
	require.NoError(t, s.Record(ctx, e))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, e.Journal, got.Journal)
	assert.Equal(t, e.Input, got.Input)
	assert.Equal(t, e.Duration, got.Duration)
	assert.True(t, created.Equal(got.Created))

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.Record(ctx, e), "duplicate id")
}

func TestListAndPrune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Unix(1700000000, 0)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, s.Record(ctx, Entry{
			ID: id, Guest: "g", Digest: "d", Status: executor.StatusOK,
			Created: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new", all[0].ID)
	assert.Equal(t, "old", all[2].ID)

	two, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)

	n, err := s.Prune(ctx, base.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rest, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "new", rest[0].ID)
}

func TestRecordExecution(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	x := executor.Execution{
		Result: executor.Result{
			ID:       "x",
			Guest:    "car",
			Duration: time.Second,
			Error:    fmt.Errorf("%w: car: not a pair", executor.ErrAborted),
		},
		Digest: "d",
	}
	require.NoError(t, s.RecordExecution(ctx, x))

	got, err := s.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, executor.StatusAborted, got.Status)
	assert.Contains(t, got.Reason, "not a pair")
	assert.Nil(t, got.Journal)
}

func TestStoreAsRecorder(t *testing.T) {
	s := openTestStore(t)
	exec, err := executor.New(nil,
		executor.WithRecorder(s),
		executor.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	defer exec.Close()

	m := w.New()
	read := m.Import(hostfunc.ModuleName, "read_value", 0, 1)
	commit := m.Import(hostfunc.ModuleName, "commit_value", 1, 1)
	m.Export("_start", m.Func(0, 0, 0, w.Call(read), w.Call(commit), w.Drop))
	guest := executor.Binary("echo", m.Bytes())

	v := sexpr.MustParse(`(1 "a")`)
	r := exec.Run(context.Background(), guest, executor.WithInputValue(v))
	require.NoError(t, r.Error)

	got, err := s.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, "echo", got.Guest)
	assert.Equal(t, executor.Digest(guest), got.Digest)
	assert.Equal(t, executor.StatusOK, got.Status)
	assert.Equal(t, r.Journal, got.Journal)
	assert.Equal(t, wire.Marshal(v), got.Input)
}
