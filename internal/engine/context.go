// Package engine is the execution core: it runs ordered sequences of
// keyword calls and FOR loops, tracks pass/fail status per item, applies
// the failure continuation policy, and performs post-call variable
// assignment. Parsing, handler loading, variable storage and reporting are
// external collaborators consumed through the interfaces in this file.
package engine

import (
	"context"
	"time"

	"github.com/vk/keywordgo/internal/result"
	"github.com/zclconf/go-cty/cty"
)

// Kind distinguishes library keywords from user-defined ones. The split
// only matters for the dry-run "don't execute library code" rule and the
// deprecation-check path.
type Kind int

const (
	KindLibrary Kind = iota
	KindUserDefined
)

// Variables is the shared mutable variable scope. Nested blocks observe
// and overwrite outer variables; there is no isolation.
type Variables interface {
	Set(name string, value cty.Value)
	Get(name string) (cty.Value, bool)
	// Replace resolves one raw value expression against current bindings.
	Replace(text string) (cty.Value, error)
	// ResolveList resolves a list of expressions in order, flattening
	// list-variable references into their elements.
	ResolveList(exprs []string) ([]cty.Value, error)
}

// Handler is the resolved, invocable definition behind a keyword name.
type Handler interface {
	Name() string
	LibraryName() string
	ShortDoc() string
	Timeout() string
	Kind() Kind
	// InitKeyword prepares the handler against the current scope, e.g.
	// resolving default-argument expressions.
	InitKeyword(vars Variables) error
	// Run invokes the keyword with a copy of the call's arguments. It
	// may return a flow signal to unwind enclosing blocks.
	Run(ctx context.Context, ec Context, args []string) (cty.Value, error)
}

// FullName returns the handler's library-qualified name.
func FullName(h Handler) string {
	if lib := h.LibraryName(); lib != "" {
		return lib + "." + h.Name()
	}
	return h.Name()
}

// Context is everything the executors consume from the surrounding run:
// variable scope, handler lookup, mode flags, reporting hooks, the clock
// and the variable assigner.
type Context interface {
	Variables() Variables
	// GetHandler resolves a keyword name to a handler, failing with a
	// lookup error if absent.
	GetHandler(name string) (Handler, error)

	InTeardown() bool
	DryRun() bool

	// StartKeyword and EndKeyword are the live-reporting hooks; every
	// executed item notifies each exactly once.
	StartKeyword(res *result.Result)
	EndKeyword(res *result.Result)
	Warn(message string)
	// Fail reports a failure message at the point of detection.
	Fail(message string)
	Debug(message string)

	Now() time.Time
	// NoteTimeout records that a handler reported an external timeout.
	// The engine records it but does not enforce timeouts.
	NoteTimeout()

	// AssignVariables binds a return value to assignment targets, failing
	// with a data error on a malformed target or an arity mismatch.
	AssignVariables(targets []string, value cty.Value) error
}
