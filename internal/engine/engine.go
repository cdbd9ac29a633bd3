// Package engine wires the notebook pipeline together: parse fragments,
// assign identifiers, resolve references against stored results, hand the
// code to an external runner, classify and render what comes back, and
// persist the lifecycle.
//
// One Session serves one open document. Every dependency is injected at
// construction — there are no package-level singletons — so parallel
// sessions over unrelated documents never share identifier sets or state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tinkerpad/internal/document"
	"tinkerpad/internal/phpexec"
	"tinkerpad/internal/refs"
	"tinkerpad/internal/render"
	"tinkerpad/internal/state"
)

// ErrCircularReference aborts a run whose fragment participates in a
// reference cycle. Raised before any external execution is attempted.
var ErrCircularReference = errors.New("circular reference")

// ErrUnknownFragment is returned for a run request naming an id that the
// current parse pass did not produce.
var ErrUnknownFragment = errors.New("unknown fragment")

// Config carries the injected collaborators for one Session.
type Config struct {
	Store       *state.Store
	Primary     phpexec.Runner // plain interpreter blocks
	Secondary   phpexec.Runner // framework-aware blocks
	ProjectPath string         // Laravel root for secondary runs, may be empty
	Render      render.Options
	Timeout     time.Duration
	Logger      *zap.Logger
}

// Session is the engine instance for one open notebook document.
type Session struct {
	parser    *document.Parser
	registry  *document.Registry
	store     *state.Store
	resolver  *refs.Resolver
	chain     *render.Chain
	primary   phpexec.Runner
	secondary phpexec.Runner

	projectPath string
	renderOpts  render.Options
	timeout     time.Duration
	log         *zap.Logger

	fragments []document.Fragment
}

// New creates a session. Store is required; runners may be nil when the
// host only parses and renders.
func New(cfg Config) *Session {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		parser:      document.NewParser(),
		registry:    document.NewRegistry(),
		store:       cfg.Store,
		resolver:    refs.NewResolver(cfg.Store, log),
		chain:       render.NewChain(log),
		primary:     cfg.Primary,
		secondary:   cfg.Secondary,
		projectPath: cfg.ProjectPath,
		renderOpts:  cfg.Render,
		timeout:     cfg.Timeout,
		log:         log,
	}
}

// Parse scans a document for fragments. Paths that are not a recognized
// notebook format yield no fragments. Returned fragments carry no ids yet.
func (s *Session) Parse(path, text string) []document.Fragment {
	if path != "" && !document.IsNotebookPath(path) {
		return nil
	}
	return s.parser.Parse(text)
}

// AssignIDs starts a fresh identifier session, assigns ids to the given
// fragments in order, and adopts them as the session's current parse pass.
func (s *Session) AssignIDs(fragments []document.Fragment) []document.Fragment {
	s.registry.Reset()
	s.fragments = s.registry.AssignAll(fragments)
	return s.fragments
}

// Fragments returns the current parse pass.
func (s *Session) Fragments() []document.Fragment {
	return s.fragments
}

// Fragment finds a fragment of the current pass by id.
func (s *Session) Fragment(id string) (document.Fragment, bool) {
	for _, f := range s.fragments {
		if f.ID == id {
			return f, true
		}
	}
	return document.Fragment{}, false
}

// RunReport is the outcome of one fragment run.
type RunReport struct {
	FragmentID string
	Result     state.ExecutionResult
	Type       render.OutputType
	Rendered   string
}

// Run executes one fragment end to end: cycle check, lifecycle transition
// to Executing, reference substitution, external execution, classification,
// rendering, and the final Success or Error transition with the stored
// result. A save failure is logged but never fails the run.
func (s *Session) Run(ctx context.Context, id string) (*RunReport, error) {
	frag, ok := s.Fragment(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFragment, id)
	}

	if s.resolver.HasCircularReferences(id, frag.Content) {
		return nil, fmt.Errorf("%w: fragment %s refers back to itself", ErrCircularReference, id)
	}

	runner := s.primary
	if frag.Kind == document.KindSecondary {
		runner = s.secondary
	}
	if runner == nil {
		return nil, fmt.Errorf("no runner configured for %s fragments", frag.Kind)
	}

	requestID := uuid.NewString()
	s.log.Info("running fragment",
		zap.String("id", id),
		zap.String("kind", string(frag.Kind)),
		zap.String("request_id", requestID))

	s.store.SetState(id, state.Executing, nil)

	content := s.resolver.ProcessContent(frag.Content)
	res, err := runner.Run(ctx, phpexec.Command{
		Code:        content,
		ProjectPath: s.projectPath,
		Timeout:     s.timeout,
		RequestID:   requestID,
	})
	if err != nil {
		// The interpreter never launched; record the failure like any
		// other error outcome so the notebook shows it per fragment.
		res = &phpexec.Result{Stderr: err.Error(), ExitCode: -1}
	}

	result := state.ExecutionResult{
		Output:     res.Stdout,
		ExitCode:   res.ExitCode,
		DurationMs: res.Duration.Milliseconds(),
	}
	if res.ExitCode != 0 {
		result.Error = strings.TrimSpace(res.Stderr)
		if result.Error == "" {
			result.Error = strings.TrimSpace(res.Stdout)
		}
	}

	report := &RunReport{FragmentID: id, Result: result}
	if result.Failed() {
		s.store.SetState(id, state.Error, &result)
		report.Type = render.TypeString
		report.Rendered = result.Error
	} else {
		s.store.SetState(id, state.Success, &result)
		report.Type = render.Classify(result.Output)
		report.Rendered = s.chain.Format(result.Output, s.renderOpts)
	}

	if err := s.store.Save(); err != nil {
		s.log.Warn("state not persisted after run", zap.String("id", id), zap.Error(err))
	}
	return report, nil
}

// RunAll executes every fragment of the current pass in source order. One
// fragment's failure — cycle or execution — never blocks the rest; failed
// runs appear in the returned map of errors keyed by fragment id.
func (s *Session) RunAll(ctx context.Context) ([]*RunReport, map[string]error) {
	var reports []*RunReport
	failures := make(map[string]error)
	for _, f := range s.fragments {
		report, err := s.Run(ctx, f.ID)
		if err != nil {
			failures[f.ID] = err
			continue
		}
		reports = append(reports, report)
	}
	return reports, failures
}

// GetState returns the lifecycle for id.
func (s *Session) GetState(id string) state.Lifecycle {
	return s.store.GetState(id)
}

// GetResult returns the last stored result for id.
func (s *Session) GetResult(id string) (state.ExecutionResult, bool) {
	return s.store.GetResult(id)
}

// GetAllStates returns every lifecycle entry.
func (s *Session) GetAllStates() map[string]state.Entry {
	return s.store.GetAllStates()
}

// RegisterFormatter inserts a custom formatter ahead of the built-ins.
func (s *Session) RegisterFormatter(f render.Formatter) {
	s.chain.Register(f)
}

// HasCircularReferences exposes the resolver's cycle check to the host.
func (s *Session) HasCircularReferences(id, text string) bool {
	return s.resolver.HasCircularReferences(id, text)
}

// ProcessContent exposes reference substitution to the host.
func (s *Session) ProcessContent(text string) string {
	return s.resolver.ProcessContent(text)
}

// RenderResult formats the stored result for id with the session's render
// options. ok is false when no result is stored.
func (s *Session) RenderResult(id string) (string, bool) {
	res, ok := s.store.GetResult(id)
	if !ok {
		return "", false
	}
	if res.Failed() {
		return res.Error, true
	}
	return s.chain.Format(res.Output, s.renderOpts), true
}

// ExportResult returns the best-effort structural value of the stored
// result for id, for re-export as JSON.
func (s *Session) ExportResult(id string) (any, bool) {
	res, ok := s.store.GetResult(id)
	if !ok || res.Failed() {
		return nil, false
	}
	value, _ := s.chain.Export(res.Output)
	return value, true
}
