package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/keywordgo/internal/engine"
	"github.com/vk/keywordgo/internal/flow"
	"github.com/vk/keywordgo/internal/keyword"
	"github.com/vk/keywordgo/internal/vars"
	"github.com/zclconf/go-cty/cty"
)

// UserKeyword is a keyword composed from other keywords, typically loaded
// from a suite file. Its body runs through the sequence executor, making
// the control-flow engine mutually recursive.
type UserKeyword struct {
	Name    string
	Doc     string
	Timeout string
	// Args are scalar parameter names bound positionally in the shared
	// scope before the body runs.
	Args []string
	Body []keyword.Item
}

// RegisterUserKeyword wraps a user keyword definition into a handler and
// registers it.
func (r *Registry) RegisterUserKeyword(def UserKeyword) {
	r.Register(&userHandler{def: def})
}

// userHandler adapts a UserKeyword definition to the engine's Handler
// interface.
type userHandler struct {
	def UserKeyword
}

func (h *userHandler) Name() string        { return h.def.Name }
func (h *userHandler) LibraryName() string { return "" }
func (h *userHandler) ShortDoc() string    { return h.def.Doc }
func (h *userHandler) Timeout() string     { return h.def.Timeout }
func (h *userHandler) Kind() engine.Kind   { return engine.KindUserDefined }

// InitKeyword validates the parameter declarations against the scope's
// variable syntax. The scope itself is not touched until the call binds
// arguments.
func (h *userHandler) InitKeyword(engine.Variables) error {
	for _, arg := range h.def.Args {
		if !vars.IsScalar(arg) {
			return flow.NewSyntaxError(fmt.Sprintf(
				"Invalid argument specification '%s' in keyword '%s'.", arg, h.def.Name))
		}
	}
	return nil
}

// Run binds the call's arguments to the declared parameters and executes
// the body as a keyword sequence. An early pass raised in the body ends
// this keyword and yields its return value; loop-control signals pass
// through so they can reach a loop enclosing the call.
func (h *userHandler) Run(ctx context.Context, ec engine.Context, args []string) (cty.Value, error) {
	if len(args) != len(h.def.Args) {
		return cty.NilVal, flow.NewFailure(fmt.Sprintf(
			"Keyword '%s' expected %d argument%s, got %d.",
			h.def.Name, len(h.def.Args), pluralSuffix(len(h.def.Args)), len(args)))
	}
	// A dry run validates arity and body shape only; argument values may
	// not exist yet, so binding is skipped.
	if !ec.DryRun() {
		scope := ec.Variables()
		for i, param := range h.def.Args {
			value, err := scope.Replace(args[i])
			if err != nil {
				return cty.NilVal, flow.NewFailure(err.Error())
			}
			scope.Set(param, value)
		}
	}

	err := engine.NewRunner(false).RunSequence(ctx, ec, h.def.Body)
	if err == nil {
		return cty.NilVal, nil
	}
	var passed *flow.Passed
	if errors.As(err, &passed) {
		if earlier := passed.EarlierFailures(); len(earlier) > 0 {
			return cty.NilVal, flow.Aggregate(earlier)
		}
		return passed.ReturnValue(), nil
	}
	return cty.NilVal, err
}

func pluralSuffix(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
