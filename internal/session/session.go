// Package session provides the concrete execution context one test runs
// in: the shared variable scope, handler lookup, mode flags, the clock,
// slog-backed reporting hooks, and the ordered result tree the run
// produces.
package session

import (
	"log/slog"
	"time"

	"github.com/vk/keywordgo/internal/engine"
	"github.com/vk/keywordgo/internal/registry"
	"github.com/vk/keywordgo/internal/result"
	"github.com/vk/keywordgo/internal/vars"
	"github.com/zclconf/go-cty/cty"
)

// Session implements engine.Context for one test execution.
type Session struct {
	logger *slog.Logger
	scope  *vars.Scope
	reg    *registry.Registry

	inTeardown bool
	dryRun     bool
	timedOut   bool

	clock func() time.Time

	root  *result.Result
	stack []*result.Result
}

// Option configures a Session.
type Option func(*Session)

// WithDryRun enables validation-only execution.
func WithDryRun(dryRun bool) Option {
	return func(s *Session) { s.dryRun = dryRun }
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) { s.clock = clock }
}

// New creates a session around a scope and a handler registry.
func New(logger *slog.Logger, scope *vars.Scope, reg *registry.Registry, opts ...Option) *Session {
	s := &Session{
		logger: logger,
		scope:  scope,
		reg:    reg,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.root = result.New("", "root", s.clock())
	s.stack = []*result.Result{s.root}
	return s
}

// Variables implements engine.Context.
func (s *Session) Variables() engine.Variables { return s.scope }

// GetHandler implements engine.Context.
func (s *Session) GetHandler(name string) (engine.Handler, error) {
	return s.reg.Lookup(name)
}

// InTeardown implements engine.Context.
func (s *Session) InTeardown() bool { return s.inTeardown }

// DryRun implements engine.Context.
func (s *Session) DryRun() bool { return s.dryRun }

// SetInTeardown flips the teardown flag; the app sets it around a test's
// teardown block so every cleanup step attempts to run.
func (s *Session) SetInTeardown(inTeardown bool) { s.inTeardown = inTeardown }

// StartKeyword implements engine.Context: it attaches the record to the
// result tree and logs the start.
func (s *Session) StartKeyword(res *result.Result) {
	parent := s.stack[len(s.stack)-1]
	parent.Children = append(parent.Children, res)
	s.stack = append(s.stack, res)
	s.logger.Info("▶️ Keyword started.", "name", res.Name, "type", res.Type)
}

// EndKeyword implements engine.Context.
func (s *Session) EndKeyword(res *result.Result) {
	if len(s.stack) > 1 && s.stack[len(s.stack)-1] == res {
		s.stack = s.stack[:len(s.stack)-1]
	}
	s.logger.Info("⏹️ Keyword ended.", "name", res.Name, "status", string(res.Status))
}

// Warn implements engine.Context.
func (s *Session) Warn(message string) { s.logger.Warn(message) }

// Fail implements engine.Context: failures are reported at the point of
// detection, before the signal unwinds.
func (s *Session) Fail(message string) { s.logger.Error(message) }

// Debug implements engine.Context.
func (s *Session) Debug(message string) { s.logger.Debug(message) }

// Now implements engine.Context.
func (s *Session) Now() time.Time { return s.clock() }

// NoteTimeout implements engine.Context.
func (s *Session) NoteTimeout() { s.timedOut = true }

// TimeoutOccurred reports whether any handler signalled an external
// timeout during the run.
func (s *Session) TimeoutOccurred() bool { return s.timedOut }

// AssignVariables implements engine.Context.
func (s *Session) AssignVariables(targets []string, value cty.Value) error {
	return s.scope.AssignReturnValue(targets, value)
}

// Root returns the root of the result tree built during the run; its
// children mirror the executed keyword and loop structure.
func (s *Session) Root() *result.Result { return s.root }
