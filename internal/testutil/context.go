// Package testutil provides shared fakes for engine tests: a recording
// execution context with a deterministic clock, and helpers for
// registering throwaway keywords.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/vk/keywordgo/internal/ctxlog"
	"github.com/vk/keywordgo/internal/engine"
	"github.com/vk/keywordgo/internal/keyword"
	"github.com/vk/keywordgo/internal/registry"
	"github.com/vk/keywordgo/internal/result"
	"github.com/vk/keywordgo/internal/vars"
	"github.com/zclconf/go-cty/cty"
)

// Event is one observed reporting-hook call.
type Event struct {
	Kind    string // "start", "end", "warn", "fail", "debug"
	Name    string
	Type    string
	Status  result.Status
	Message string
	// EndTimeSet records whether the result had a non-zero end time at
	// the moment the end hook fired.
	EndTimeSet bool
}

// Context is a recording engine.Context with a fake clock that advances
// one second per call, so start/end pairing and finalization invariants
// are assertable.
type Context struct {
	Scope    *vars.Scope
	Registry *registry.Registry

	Teardown bool
	Dry      bool

	Events       []Event
	TimeoutNoted bool

	now time.Time
}

// NewContext creates a recording context with an empty scope and registry.
func NewContext() *Context {
	return &Context{
		Scope:    vars.NewScope(),
		Registry: registry.New(),
		now:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Ctx returns a context.Context carrying a discard logger, matching what
// the app provides in production.
func Ctx() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RegisterKeyword registers a throwaway library keyword under the "test"
// library.
func (c *Context) RegisterKeyword(name string, fn func(ctx context.Context, ec engine.Context, args []string) (cty.Value, error)) {
	c.Registry.RegisterKeyword(registry.Keyword{Name: name, Library: "test", Fn: fn})
}

func (c *Context) Variables() engine.Variables { return c.Scope }

func (c *Context) GetHandler(name string) (engine.Handler, error) {
	return c.Registry.Lookup(name)
}

func (c *Context) InTeardown() bool { return c.Teardown }
func (c *Context) DryRun() bool     { return c.Dry }

func (c *Context) StartKeyword(res *result.Result) {
	c.Events = append(c.Events, Event{Kind: "start", Name: res.Name, Type: res.Type, Status: res.Status})
}

func (c *Context) EndKeyword(res *result.Result) {
	c.Events = append(c.Events, Event{
		Kind:       "end",
		Name:       res.Name,
		Type:       res.Type,
		Status:     res.Status,
		Message:    res.Message,
		EndTimeSet: !res.EndTime.IsZero(),
	})
}

func (c *Context) Warn(message string) {
	c.Events = append(c.Events, Event{Kind: "warn", Message: message})
}

func (c *Context) Fail(message string) {
	c.Events = append(c.Events, Event{Kind: "fail", Message: message})
}

func (c *Context) Debug(message string) {
	c.Events = append(c.Events, Event{Kind: "debug", Message: message})
}

func (c *Context) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *Context) NoteTimeout() { c.TimeoutNoted = true }

func (c *Context) AssignVariables(targets []string, value cty.Value) error {
	return c.Scope.AssignReturnValue(targets, value)
}

// ByKind returns the recorded events of one kind, in order.
func (c *Context) ByKind(kind string) []Event {
	var out []Event
	for _, ev := range c.Events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// IterationNames returns the names of recorded loop-iteration starts.
func (c *Context) IterationNames() []string {
	var out []string
	for _, ev := range c.Events {
		if ev.Kind == "start" && ev.Type == keyword.TypeForItem {
			out = append(out, ev.Name)
		}
	}
	return out
}
