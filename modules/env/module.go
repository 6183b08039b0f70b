// Package env exposes process environment variables as keywords.
package env

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/keywordgo/internal/engine"
	"github.com/vk/keywordgo/internal/flow"
	"github.com/vk/keywordgo/internal/registry"
	"github.com/vk/keywordgo/internal/vars"
	"github.com/zclconf/go-cty/cty"
)

const library = "Environment"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the library's keywords with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKeyword(registry.Keyword{
		Name: "Get Environment Variable", Library: library,
		Doc: "Returns the value of an environment variable, or a default if given.",
		Fn:  getEnvironmentVariable,
	})
	r.RegisterKeyword(registry.Keyword{
		Name: "Set Environment Variable", Library: library,
		Doc: "Sets an environment variable for this process.",
		Fn:  setEnvironmentVariable,
	})
}

func getEnvironmentVariable(_ context.Context, ec engine.Context, args []string) (cty.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return cty.NilVal, flow.NewFailure(fmt.Sprintf(
			"Keyword 'Get Environment Variable' expected 1 to 2 arguments, got %d.", len(args)))
	}
	name, err := resolve(ec, args[0])
	if err != nil {
		return cty.NilVal, err
	}
	if value, ok := os.LookupEnv(name); ok {
		return cty.StringVal(value), nil
	}
	if len(args) == 2 {
		fallback, err := resolve(ec, args[1])
		if err != nil {
			return cty.NilVal, err
		}
		return cty.StringVal(fallback), nil
	}
	return cty.NilVal, flow.NewFailure(fmt.Sprintf("Environment variable '%s' does not exist.", name))
}

func setEnvironmentVariable(_ context.Context, ec engine.Context, args []string) (cty.Value, error) {
	if len(args) != 2 {
		return cty.NilVal, flow.NewFailure(fmt.Sprintf(
			"Keyword 'Set Environment Variable' expected 2 arguments, got %d.", len(args)))
	}
	name, err := resolve(ec, args[0])
	if err != nil {
		return cty.NilVal, err
	}
	value, err := resolve(ec, args[1])
	if err != nil {
		return cty.NilVal, err
	}
	if err := os.Setenv(name, value); err != nil {
		return cty.NilVal, flow.NewFailure(err.Error())
	}
	return cty.NilVal, nil
}

func resolve(ec engine.Context, expr string) (string, error) {
	v, err := ec.Variables().Replace(expr)
	if err != nil {
		return "", flow.NewFailure(err.Error())
	}
	return vars.Format(v), nil
}
