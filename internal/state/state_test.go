package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func fileStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notebook.state.json")
	return NewStore(NewFileSink(path), zaptest.NewLogger(t)), path
}

func TestGetState_DefaultsToNotExecuted(t *testing.T) {
	s, _ := fileStore(t)
	assert.Equal(t, NotExecuted, s.GetState("never-seen"))
}

func TestSetState_TransitionsAreObservable(t *testing.T) {
	s, _ := fileStore(t)

	s.SetState("a", Executing, nil)
	assert.Equal(t, Executing, s.GetState("a"), "Executing must be visible before the result lands")

	s.SetState("a", Success, &ExecutionResult{Output: "42", DurationMs: 7})
	assert.Equal(t, Success, s.GetState("a"))

	res, ok := s.GetResult("a")
	require.True(t, ok)
	assert.Equal(t, "42", res.Output)
	assert.Equal(t, int64(7), res.DurationMs)
}

func TestSetState_NilResultKeepsPreviousResult(t *testing.T) {
	s, _ := fileStore(t)
	s.SetState("a", Success, &ExecutionResult{Output: "old"})

	// A new run starting must not wipe the last result.
	s.SetState("a", Executing, nil)
	res, ok := s.GetResult("a")
	require.True(t, ok)
	assert.Equal(t, "old", res.Output)
}

func TestGetAllStates_ReturnsCopies(t *testing.T) {
	s, _ := fileStore(t)
	s.SetState("a", Success, nil)
	s.SetState("b", Error, &ExecutionResult{Error: "boom", ExitCode: 1})

	all := s.GetAllStates()
	require.Len(t, all, 2)
	assert.Equal(t, Success, all["a"].State)
	assert.Equal(t, Error, all["b"].State)

	// Mutating the copy must not touch the store.
	entry := all["a"]
	entry.State = Executing
	all["a"] = entry
	assert.Equal(t, Success, s.GetState("a"))
}

func TestClearAll(t *testing.T) {
	s, _ := fileStore(t)
	s.SetState("a", Success, &ExecutionResult{Output: "x"})

	s.ClearAll()
	assert.Equal(t, NotExecuted, s.GetState("a"))
	_, ok := s.GetResult("a")
	assert.False(t, ok)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s, path := fileStore(t)
	s.SetState("a", Success, &ExecutionResult{Output: "hello", DurationMs: 12})
	s.SetState("b", Error, &ExecutionResult{Error: "parse error", ExitCode: 255})
	require.NoError(t, s.Save())

	fresh := NewStore(NewFileSink(path), zaptest.NewLogger(t))
	require.NoError(t, fresh.Load())

	assert.Equal(t, Success, fresh.GetState("a"))
	assert.Equal(t, Error, fresh.GetState("b"))

	res, ok := fresh.GetResult("a")
	require.True(t, ok)
	assert.Equal(t, "hello", res.Output)

	res, ok = fresh.GetResult("b")
	require.True(t, ok)
	assert.Equal(t, "parse error", res.Error)
	assert.Equal(t, 255, res.ExitCode)
}

func TestSaveLoad_TimestampRoundTripsLosslessly(t *testing.T) {
	s, path := fileStore(t)
	stamp := time.Date(2026, 8, 23, 10, 30, 0, 123456789, time.UTC)
	s.now = func() time.Time { return stamp }

	s.SetState("a", Success, nil)
	require.NoError(t, s.Save())

	fresh := NewStore(NewFileSink(path), zaptest.NewLogger(t))
	require.NoError(t, fresh.Load())
	assert.True(t, stamp.Equal(fresh.GetAllStates()["a"].LastExecutedAt))
}

func TestLoad_MissingSinkIsNotAnError(t *testing.T) {
	s, _ := fileStore(t)
	assert.NoError(t, s.Load())
	assert.Empty(t, s.GetAllStates())
}

func TestLoad_CorruptSinkFailsSoft(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewStore(NewFileSink(path), zaptest.NewLogger(t))
	s.SetState("keep", Success, &ExecutionResult{Output: "survivor"})

	err := s.Load()
	assert.Error(t, err, "corruption must be reported")

	// In-memory state stays authoritative.
	assert.Equal(t, Success, s.GetState("keep"))
	res, ok := s.GetResult("keep")
	require.True(t, ok)
	assert.Equal(t, "survivor", res.Output)
}

func TestLoad_ReplacesWholesale(t *testing.T) {
	s, _ := fileStore(t)
	s.SetState("persisted", Success, nil)
	require.NoError(t, s.Save())

	s.ClearAll()
	s.SetState("transient", Executing, nil)
	require.NoError(t, s.Load())

	assert.Equal(t, Success, s.GetState("persisted"))
	assert.Equal(t, NotExecuted, s.GetState("transient"), "load is a wholesale replace, not a merge")
}

func TestFailed(t *testing.T) {
	assert.False(t, ExecutionResult{Output: "ok"}.Failed())
	assert.True(t, ExecutionResult{ExitCode: 1}.Failed())
	assert.True(t, ExecutionResult{Error: "boom"}.Failed())
}
