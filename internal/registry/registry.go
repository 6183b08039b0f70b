// Package registry resolves keyword names to invocable handlers. Compiled-in
// keyword libraries register themselves through the Module interface; suite
// files contribute user-defined keywords at load time.
package registry

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/vk/keywordgo/internal/engine"
)

// Module is implemented by every compiled-in keyword library.
type Module interface {
	Register(r *Registry)
}

// Registry holds all registered keyword handlers for one application
// instance. Lookup is insensitive to case, spaces and underscores, and
// accepts library-qualified names.
type Registry struct {
	byName map[string]engine.Handler
	byFull map[string]engine.Handler
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byName: make(map[string]engine.Handler),
		byFull: make(map[string]engine.Handler),
	}
}

// Register adds a handler. A duplicate name is a programmer error.
func (r *Registry) Register(h engine.Handler) {
	short := normalize(h.Name())
	full := normalize(engine.FullName(h))
	if _, exists := r.byFull[full]; exists {
		panic(fmt.Sprintf("keyword '%s' already registered", engine.FullName(h)))
	}
	if _, exists := r.byName[short]; exists {
		panic(fmt.Sprintf("keyword name '%s' already registered", h.Name()))
	}
	slog.Debug("Registering keyword handler.", "name", engine.FullName(h))
	r.byName[short] = h
	r.byFull[full] = h
}

// Lookup resolves a keyword name, qualified or not.
func (r *Registry) Lookup(name string) (engine.Handler, error) {
	key := normalize(name)
	if h, ok := r.byName[key]; ok {
		return h, nil
	}
	if h, ok := r.byFull[key]; ok {
		return h, nil
	}
	return nil, fmt.Errorf("No keyword with name '%s' found.", name)
}

// Names returns the registered short names, for diagnostics.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}

func normalize(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "")
	return strings.ReplaceAll(name, "_", "")
}
