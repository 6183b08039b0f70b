package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/keywordgo/internal/engine"
	"github.com/vk/keywordgo/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

func noop(context.Context, engine.Context, []string) (cty.Value, error) {
	return cty.NilVal, nil
}

func TestLookupIsInsensitiveToCaseSpacesAndUnderscores(t *testing.T) {
	t.Parallel()
	r := registry.New()
	r.RegisterKeyword(registry.Keyword{Name: "Set Variable", Library: "BuiltIn", Fn: noop})

	for _, name := range []string{
		"Set Variable",
		"set variable",
		"SET_VARIABLE",
		"setvariable",
		"BuiltIn.Set Variable",
		"builtin.set_variable",
	} {
		h, err := r.Lookup(name)
		require.NoError(t, err, "lookup %q", name)
		assert.Equal(t, "Set Variable", h.Name())
	}
}

func TestLookupUnknownKeyword(t *testing.T) {
	t.Parallel()
	r := registry.New()
	_, err := r.Lookup("Missing")
	require.Error(t, err)
	assert.Equal(t, "No keyword with name 'Missing' found.", err.Error())
}

func TestRegisterPanicsOnDuplicate(t *testing.T) {
	t.Parallel()
	r := registry.New()
	r.RegisterKeyword(registry.Keyword{Name: "Log", Library: "BuiltIn", Fn: noop})
	assert.Panics(t, func() {
		r.RegisterKeyword(registry.Keyword{Name: "Log", Library: "BuiltIn", Fn: noop})
	})
}

func TestRegisterPanicsOnConflictingShortName(t *testing.T) {
	t.Parallel()
	r := registry.New()
	r.RegisterKeyword(registry.Keyword{Name: "Log", Library: "BuiltIn", Fn: noop})
	assert.Panics(t, func() {
		r.RegisterKeyword(registry.Keyword{Name: "log", Library: "Other", Fn: noop})
	})
}

func TestRegisterKeywordRequiresFunction(t *testing.T) {
	t.Parallel()
	r := registry.New()
	assert.Panics(t, func() {
		r.RegisterKeyword(registry.Keyword{Name: "Broken"})
	})
}

func TestNames(t *testing.T) {
	t.Parallel()
	r := registry.New()
	r.RegisterKeyword(registry.Keyword{Name: "One", Fn: noop})
	r.RegisterKeyword(registry.Keyword{Name: "Two", Fn: noop})
	assert.ElementsMatch(t, []string{"one", "two"}, r.Names())
}
