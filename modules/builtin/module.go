// Package builtin is the standard keyword library compiled into the
// keywordgo binary: logging, assertions, flow-control keywords and basic
// variable helpers.
package builtin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/keywordgo/internal/ctxlog"
	"github.com/vk/keywordgo/internal/engine"
	"github.com/vk/keywordgo/internal/flow"
	"github.com/vk/keywordgo/internal/registry"
	"github.com/vk/keywordgo/internal/vars"
	"github.com/zclconf/go-cty/cty"
)

const library = "BuiltIn"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the library's keywords with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKeyword(registry.Keyword{
		Name: "Log", Library: library,
		Doc: "Logs the given message with the given level.",
		Fn:  logKeyword,
	})
	r.RegisterKeyword(registry.Keyword{
		Name: "No Operation", Library: library,
		Doc: "Does absolutely nothing.",
		Fn: func(context.Context, engine.Context, []string) (cty.Value, error) {
			return cty.NilVal, nil
		},
	})
	r.RegisterKeyword(registry.Keyword{
		Name: "Fail", Library: library,
		Doc: "Fails the test with the given message.",
		Fn:  fail,
	})
	r.RegisterKeyword(registry.Keyword{
		Name: "Sleep", Library: library,
		Doc: "Pauses execution for the given time.",
		Fn:  sleep,
	})
	r.RegisterKeyword(registry.Keyword{
		Name: "Set Variable", Library: library,
		Doc: "Returns the given values, for assignment to variables.",
		Fn:  setVariable,
	})
	r.RegisterKeyword(registry.Keyword{
		Name: "Catenate", Library: library,
		Doc: "Catenates the given items with a space between them.",
		Fn:  catenate,
	})
	r.RegisterKeyword(registry.Keyword{
		Name: "Should Be Equal", Library: library,
		Doc: "Fails if the given objects are unequal.",
		Fn:  shouldBeEqual,
	})
	r.RegisterKeyword(registry.Keyword{
		Name: "Evaluate", Library: library,
		Doc: "Evaluates the given expression and returns its value.",
		Fn:  evaluate,
	})
	r.RegisterKeyword(registry.Keyword{
		Name: "Return From Keyword", Library: library,
		Doc: "Returns from the enclosing user keyword, optionally with a value.",
		Fn:  returnFromKeyword,
	})
	r.RegisterKeyword(registry.Keyword{
		Name: "Exit For Loop", Library: library,
		Doc: "Stops executing the enclosing for loop.",
		Fn: func(context.Context, engine.Context, []string) (cty.Value, error) {
			return cty.NilVal, flow.NewLoopExit()
		},
	})
	r.RegisterKeyword(registry.Keyword{
		Name: "Continue For Loop", Library: library,
		Doc: "Skips the remaining keywords of the current for loop iteration.",
		Fn: func(context.Context, engine.Context, []string) (cty.Value, error) {
			return cty.NilVal, flow.NewLoopContinue()
		},
	})
}

func logKeyword(ctx context.Context, ec engine.Context, args []string) (cty.Value, error) {
	if len(args) == 0 {
		return cty.NilVal, flow.NewFailure("Keyword 'Log' expected at least 1 argument, got 0.")
	}
	message, err := ec.Variables().Replace(args[0])
	if err != nil {
		return cty.NilVal, flow.NewFailure(err.Error())
	}
	level := "INFO"
	if len(args) > 1 {
		level = strings.ToUpper(args[1])
	}
	logger := ctxlog.FromContext(ctx)
	text := vars.Format(message)
	switch level {
	case "DEBUG":
		logger.Debug(text)
	case "WARN":
		logger.Warn(text)
	case "INFO":
		logger.Info(text)
	default:
		return cty.NilVal, flow.NewFailure(fmt.Sprintf("Invalid log level '%s'.", args[1]))
	}
	return cty.NilVal, nil
}

func fail(_ context.Context, ec engine.Context, args []string) (cty.Value, error) {
	message := "AssertionError"
	if len(args) > 0 {
		resolved, err := ec.Variables().Replace(args[0])
		if err != nil {
			return cty.NilVal, flow.NewFailure(err.Error())
		}
		message = vars.Format(resolved)
	}
	return cty.NilVal, flow.NewFailure(message)
}

func sleep(ctx context.Context, ec engine.Context, args []string) (cty.Value, error) {
	if len(args) != 1 {
		return cty.NilVal, flow.NewFailure(fmt.Sprintf("Keyword 'Sleep' expected 1 argument, got %d.", len(args)))
	}
	resolved, err := ec.Variables().Replace(args[0])
	if err != nil {
		return cty.NilVal, flow.NewFailure(err.Error())
	}
	text := vars.Format(resolved)
	d, err := time.ParseDuration(text)
	if err != nil {
		// A bare number means seconds.
		d2, err2 := time.ParseDuration(text + "s")
		if err2 != nil {
			return cty.NilVal, flow.NewFailure(fmt.Sprintf("Invalid sleep time '%s'.", text))
		}
		d = d2
	}
	select {
	case <-time.After(d):
		return cty.NilVal, nil
	case <-ctx.Done():
		return cty.NilVal, ctx.Err()
	}
}

func setVariable(_ context.Context, ec engine.Context, args []string) (cty.Value, error) {
	values, err := ec.Variables().ResolveList(args)
	if err != nil {
		return cty.NilVal, flow.NewFailure(err.Error())
	}
	switch len(values) {
	case 0:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case 1:
		return values[0], nil
	default:
		return cty.TupleVal(values), nil
	}
}

func catenate(_ context.Context, ec engine.Context, args []string) (cty.Value, error) {
	values, err := ec.Variables().ResolveList(args)
	if err != nil {
		return cty.NilVal, flow.NewFailure(err.Error())
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = vars.Format(v)
	}
	return cty.StringVal(strings.Join(parts, " ")), nil
}

func shouldBeEqual(_ context.Context, ec engine.Context, args []string) (cty.Value, error) {
	if len(args) < 2 {
		return cty.NilVal, flow.NewFailure(fmt.Sprintf("Keyword 'Should Be Equal' expected 2 arguments, got %d.", len(args)))
	}
	first, err := ec.Variables().Replace(args[0])
	if err != nil {
		return cty.NilVal, flow.NewFailure(err.Error())
	}
	second, err := ec.Variables().Replace(args[1])
	if err != nil {
		return cty.NilVal, flow.NewFailure(err.Error())
	}
	if !first.RawEquals(second) {
		return cty.NilVal, flow.NewFailure(fmt.Sprintf("%s != %s", vars.Format(first), vars.Format(second)))
	}
	return cty.NilVal, nil
}

// evaluate resolves variables in the expression text, then evaluates it
// as an expression over no external names.
func evaluate(_ context.Context, ec engine.Context, args []string) (cty.Value, error) {
	if len(args) != 1 {
		return cty.NilVal, flow.NewFailure(fmt.Sprintf("Keyword 'Evaluate' expected 1 argument, got %d.", len(args)))
	}
	resolved, err := ec.Variables().Replace(args[0])
	if err != nil {
		return cty.NilVal, flow.NewFailure(err.Error())
	}
	text := vars.Format(resolved)
	expr, diags := hclsyntax.ParseExpression([]byte(text), "<evaluate>", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return cty.NilVal, flow.NewFailure(fmt.Sprintf("Evaluating expression '%s' failed: %s", text, diags.Error()))
	}
	val, diags := expr.Value(&hcl.EvalContext{})
	if diags.HasErrors() {
		return cty.NilVal, flow.NewFailure(fmt.Sprintf("Evaluating expression '%s' failed: %s", text, diags.Error()))
	}
	return val, nil
}

func returnFromKeyword(_ context.Context, ec engine.Context, args []string) (cty.Value, error) {
	value := cty.NilVal
	if len(args) > 0 {
		values, err := ec.Variables().ResolveList(args)
		if err != nil {
			return cty.NilVal, flow.NewFailure(err.Error())
		}
		if len(values) == 1 {
			value = values[0]
		} else {
			value = cty.TupleVal(values)
		}
	}
	return cty.NilVal, flow.NewPassed(value)
}
