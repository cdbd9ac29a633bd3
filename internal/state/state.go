// Package state tracks the execution lifecycle of notebook fragments and
// persists it through a pluggable sink.
//
// Every fragment id owns at most one Entry. The lifecycle is
// NotExecuted → Executing → {Success, Error}; NotExecuted is implicit for
// any id without an entry. Transitions are caller-driven — there is no
// watchdog here, so a fragment left in Executing stays there until the
// caller moves it on. Timeouts belong to the external executor.
package state

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Lifecycle is the execution state of one fragment id.
type Lifecycle string

const (
	NotExecuted Lifecycle = "not_executed"
	Executing   Lifecycle = "executing"
	Success     Lifecycle = "success"
	Error       Lifecycle = "error"
)

// timeLayout is the wire format for timestamps. RFC3339Nano round-trips
// losslessly through both sinks.
const timeLayout = time.RFC3339Nano

// ExecutionResult is the outcome of one external execution. Immutable once
// stored; copies handed to rendering or export are never written back.
type ExecutionResult struct {
	Output     string `json:"output"`
	Error      string `json:"error,omitempty"`
	ExitCode   int    `json:"exitCode"`
	DurationMs int64  `json:"durationMs"`
}

// Failed reports whether the execution produced an error outcome.
func (r ExecutionResult) Failed() bool {
	return r.ExitCode != 0 || r.Error != ""
}

// Entry is the lifecycle record for one fragment id.
type Entry struct {
	ID             string
	State          Lifecycle
	LastExecutedAt time.Time
}

// Store holds the per-id lifecycle entries and last results for one
// persistence scope (one store per editing session or workspace). All
// mutation goes through Store methods; no other component writes the maps.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	results map[string]ExecutionResult
	sink    Sink
	log     *zap.Logger
	now     func() time.Time
}

// NewStore creates a store backed by sink. A nil logger is replaced with a
// no-op logger.
func NewStore(sink Sink, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		entries: make(map[string]*Entry),
		results: make(map[string]ExecutionResult),
		sink:    sink,
		log:     log,
		now:     time.Now,
	}
}

// GetState returns the lifecycle of id. Ids with no entry are NotExecuted.
func (s *Store) GetState(id string) Lifecycle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[id]; ok {
		return e.State
	}
	return NotExecuted
}

// SetState moves id to st, stamping the transition time. A non-nil result
// replaces the stored result for id; result is ignored when nil so a
// transition into Executing keeps the previous run's result visible.
func (s *Store) SetState(id string, st Lifecycle, result *ExecutionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		e = &Entry{ID: id}
		s.entries[id] = e
	}
	e.State = st
	e.LastExecutedAt = s.now()
	if result != nil {
		s.results[id] = *result
	}
}

// GetResult returns the last stored result for id, if any.
func (s *Store) GetResult(id string) (ExecutionResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	return r, ok
}

// GetAllStates returns a copy of every entry, keyed by id.
func (s *Store) GetAllStates() map[string]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Entry, len(s.entries))
	for id, e := range s.entries {
		out[id] = *e
	}
	return out
}

// ClearAll drops every entry and result. This is the only way state is ever
// deleted; individual entries are mutated in place, never removed.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*Entry)
	s.results = make(map[string]ExecutionResult)
}

// Save serializes the full state and result maps to the sink. Failures are
// logged and returned but are not fatal to the caller: in-memory state stays
// authoritative for the life of the process.
func (s *Store) Save() error {
	s.mu.RLock()
	doc := Document{
		States:  make(map[string]PersistedState, len(s.entries)),
		Results: make(map[string]ExecutionResult, len(s.results)),
	}
	for id, e := range s.entries {
		ps := PersistedState{State: e.State}
		if !e.LastExecutedAt.IsZero() {
			ps.LastExecutedAt = e.LastExecutedAt.Format(timeLayout)
		}
		doc.States[id] = ps
	}
	for id, r := range s.results {
		doc.Results[id] = r
	}
	s.mu.RUnlock()

	if err := s.sink.Save(doc); err != nil {
		s.log.Warn("state save failed", zap.Error(err))
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Load replaces the in-memory maps wholesale with the sink's contents.
// Partial merges are not supported. On failure the maps are left exactly as
// they were and the error is returned for reporting; a missing sink document
// is not an error and leaves the store empty.
func (s *Store) Load() error {
	doc, found, err := s.sink.Load()
	if err != nil {
		s.log.Warn("state load failed", zap.Error(err))
		return fmt.Errorf("load state: %w", err)
	}
	if !found {
		return nil
	}

	entries := make(map[string]*Entry, len(doc.States))
	for id, ps := range doc.States {
		e := &Entry{ID: id, State: ps.State}
		if ps.LastExecutedAt != "" {
			t, perr := time.Parse(timeLayout, ps.LastExecutedAt)
			if perr != nil {
				s.log.Warn("state load failed", zap.String("id", id), zap.Error(perr))
				return fmt.Errorf("load state: parse timestamp for %q: %w", id, perr)
			}
			e.LastExecutedAt = t
		}
		entries[id] = e
	}
	results := make(map[string]ExecutionResult, len(doc.Results))
	for id, r := range doc.Results {
		results[id] = r
	}

	s.mu.Lock()
	s.entries = entries
	s.results = results
	s.mu.Unlock()
	return nil
}
