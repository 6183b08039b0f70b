package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/keywordgo/internal/engine"
	"github.com/vk/keywordgo/internal/flow"
	"github.com/vk/keywordgo/internal/keyword"
	"github.com/vk/keywordgo/internal/registry"
	"github.com/vk/keywordgo/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

func runCall(t *testing.T, ec *testutil.Context, item *keyword.Call) (cty.Value, error) {
	t.Helper()
	return engine.NewRunner(false).RunItem(testutil.Ctx(), ec, item, "")
}

func bodyCall(name string, args ...string) *keyword.Call {
	return &keyword.Call{Name: name, Args: args, Type: keyword.TypeKeyword}
}

func TestUserKeywordBindsArgumentsAndRunsBody(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()
	var recorded []string
	ec.RegisterKeyword("Record", func(_ context.Context, ec engine.Context, args []string) (cty.Value, error) {
		v, err := ec.Variables().Replace(args[0])
		if err != nil {
			return cty.NilVal, err
		}
		recorded = append(recorded, v.AsString())
		return cty.NilVal, nil
	})
	ec.Registry.RegisterUserKeyword(registry.UserKeyword{
		Name: "Greet",
		Args: []string{"${who}"},
		Body: []keyword.Item{bodyCall("Record", "hello ${who}")},
	})

	_, err := runCall(t, ec, bodyCall("Greet", "world"))

	require.NoError(t, err)
	assert.Equal(t, []string{"hello world"}, recorded)
}

func TestUserKeywordArityMismatch(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()
	ec.RegisterKeyword("Record", func(context.Context, engine.Context, []string) (cty.Value, error) {
		return cty.NilVal, nil
	})
	ec.Registry.RegisterUserKeyword(registry.UserKeyword{
		Name: "Greet",
		Args: []string{"${who}"},
		Body: []keyword.Item{bodyCall("Record")},
	})

	_, err := runCall(t, ec, bodyCall("Greet", "a", "b"))

	require.Error(t, err)
	assert.Equal(t, "Keyword 'Greet' expected 1 argument, got 2.", err.Error())
}

func TestUserKeywordInvalidArgumentSpec(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()
	ec.Registry.RegisterUserKeyword(registry.UserKeyword{
		Name: "Broken",
		Args: []string{"who"},
		Body: []keyword.Item{bodyCall("Whatever")},
	})

	_, err := runCall(t, ec, bodyCall("Broken", "x"))

	require.Error(t, err)
	assert.Equal(t, "Invalid argument specification 'who' in keyword 'Broken'.", err.Error())
}

func TestUserKeywordReturnValueFromEarlyPass(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()
	ec.RegisterKeyword("Return Value", func(_ context.Context, ec engine.Context, args []string) (cty.Value, error) {
		v, err := ec.Variables().Replace(args[0])
		if err != nil {
			return cty.NilVal, err
		}
		return cty.NilVal, flow.NewPassed(v)
	})
	ec.Registry.RegisterUserKeyword(registry.UserKeyword{
		Name: "Double",
		Args: []string{"${n}"},
		Body: []keyword.Item{bodyCall("Return Value", "${n}${n}")},
	})

	item := &keyword.Call{
		Name:   "Double",
		Args:   []string{"ab"},
		Assign: []string{"${out} ="},
		Type:   keyword.TypeKeyword,
	}
	_, err := runCall(t, ec, item)

	require.NoError(t, err)
	got, ok := ec.Scope.Get("out")
	require.True(t, ok)
	assert.Equal(t, cty.StringVal("abab"), got)
}

func TestUserKeywordFailurePropagates(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()
	ec.RegisterKeyword("Explode", func(context.Context, engine.Context, []string) (cty.Value, error) {
		return cty.NilVal, flow.NewFailure("inner failure")
	})
	ec.Registry.RegisterUserKeyword(registry.UserKeyword{
		Name: "Wrapper",
		Body: []keyword.Item{bodyCall("Explode")},
	})

	_, err := runCall(t, ec, bodyCall("Wrapper"))

	require.Error(t, err)
	assert.Equal(t, "inner failure", err.Error())
}

func TestUserKeywordLoopControlPassesThrough(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()
	ec.RegisterKeyword("Bail", func(context.Context, engine.Context, []string) (cty.Value, error) {
		return cty.NilVal, flow.NewLoopExit()
	})
	ec.Registry.RegisterUserKeyword(registry.UserKeyword{
		Name: "Bail Out",
		Body: []keyword.Item{bodyCall("Bail")},
	})

	var seen []string
	ec.RegisterKeyword("Observe", func(_ context.Context, ec engine.Context, _ []string) (cty.Value, error) {
		v, _ := ec.Variables().Replace("${i}")
		seen = append(seen, v.AsString())
		return cty.NilVal, nil
	})

	loop := &keyword.ForLoop{
		Variables: []string{"${i}"},
		Values:    []string{"a", "b"},
		Body:      []keyword.Item{bodyCall("Bail Out"), bodyCall("Observe")},
	}
	_, err := engine.NewRunner(false).RunItem(testutil.Ctx(), ec, loop, "")

	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestUserKeywordDryRunSkipsBindingButChecksArity(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()
	ec.Dry = true
	ec.RegisterKeyword("Record", func(context.Context, engine.Context, []string) (cty.Value, error) {
		return cty.NilVal, nil
	})
	ec.Registry.RegisterUserKeyword(registry.UserKeyword{
		Name: "Greet",
		Args: []string{"${who}"},
		Body: []keyword.Item{bodyCall("Record", "${who}")},
	})

	// The argument references a variable that does not exist yet; a dry
	// run must not try to resolve it.
	_, err := runCall(t, ec, bodyCall("Greet", "${later}"))
	require.NoError(t, err)

	_, err = runCall(t, ec, bodyCall("Greet"))
	require.Error(t, err)
	assert.Equal(t, "Keyword 'Greet' expected 1 argument, got 0.", err.Error())
}
