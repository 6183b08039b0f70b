package registry

import (
	"context"
	"fmt"

	"github.com/vk/keywordgo/internal/engine"
	"github.com/zclconf/go-cty/cty"
)

// Keyword describes one library keyword. Fn receives the call's raw
// argument expressions and resolves them against the scope as it sees fit.
type Keyword struct {
	Name    string
	Library string
	Doc     string
	Timeout string
	// Init, if set, prepares the keyword against the current variable
	// scope before each call.
	Init func(vars engine.Variables) error
	Fn   func(ctx context.Context, ec engine.Context, args []string) (cty.Value, error)
}

// RegisterKeyword wraps a library keyword spec into a handler and
// registers it.
func (r *Registry) RegisterKeyword(spec Keyword) {
	if spec.Fn == nil {
		panic(fmt.Sprintf("keyword '%s' registered without a function", spec.Name))
	}
	r.Register(&libraryHandler{spec: spec})
}

// libraryHandler adapts a Keyword spec to the engine's Handler interface.
type libraryHandler struct {
	spec Keyword
}

func (h *libraryHandler) Name() string        { return h.spec.Name }
func (h *libraryHandler) LibraryName() string { return h.spec.Library }
func (h *libraryHandler) ShortDoc() string    { return h.spec.Doc }
func (h *libraryHandler) Timeout() string     { return h.spec.Timeout }
func (h *libraryHandler) Kind() engine.Kind   { return engine.KindLibrary }

func (h *libraryHandler) InitKeyword(vars engine.Variables) error {
	if h.spec.Init == nil {
		return nil
	}
	return h.spec.Init(vars)
}

func (h *libraryHandler) Run(ctx context.Context, ec engine.Context, args []string) (cty.Value, error) {
	return h.spec.Fn(ctx, ec, args)
}
