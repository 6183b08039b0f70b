package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/vk/keywordgo/internal/ctxlog"
	"github.com/vk/keywordgo/internal/flow"
	"github.com/vk/keywordgo/internal/keyword"
	"github.com/vk/keywordgo/internal/result"
	"github.com/zclconf/go-cty/cty"
)

// callRunner executes one concrete keyword call: handler lookup and init,
// result-record lifecycle, invocation, and return-value assignment.
type callRunner struct{}

func (cr callRunner) run(ctx context.Context, ec Context, call *keyword.Call, overrideName string) (cty.Value, error) {
	name := call.Name
	if overrideName != "" {
		name = overrideName
	}
	handler, err := ec.GetHandler(name)
	if err != nil {
		if _, ok := flow.AsSignal(err); ok {
			return cty.NilVal, err
		}
		return cty.NilVal, flow.NewFailure(err.Error())
	}
	if err := handler.InitKeyword(ec.Variables()); err != nil {
		return cty.NilVal, err
	}

	res := result.New(handler.Name(), call.Type, ec.Now())
	res.LibraryName = handler.LibraryName()
	res.Doc = handler.ShortDoc()
	res.Args = append([]string(nil), call.Args...)
	res.Assign = call.CleanAssign()
	res.Timeout = handler.Timeout()
	ec.StartKeyword(res)

	cr.warnIfDeprecated(ec, handler)

	ctxlog.FromContext(ctx).Debug("Running keyword.", "keyword", FullName(handler))
	var ret cty.Value
	var sig flow.Signal
	if ec.DryRun() && handler.Kind() == KindLibrary {
		// Dry run only validates that a library keyword exists; the
		// library code itself never runs.
		ret = cty.NilVal
	} else {
		ret, sig = cr.invoke(ctx, ec, handler, call)
	}
	if sig != nil {
		res.Status = statusOf(sig)
		if endErr := cr.finalize(ec, res, call, cty.NilVal, sig); endErr != nil {
			// An assignment failure supersedes the original outcome.
			return cty.NilVal, endErr
		}
		return cty.NilVal, sig
	}

	// The record of a skipped library keyword stays NOT_RUN.
	if !(ec.DryRun() && handler.Kind() == KindLibrary) {
		res.Status = result.Pass
	}
	if endErr := cr.finalize(ec, res, call, ret, nil); endErr != nil {
		return cty.NilVal, endErr
	}
	return ret, nil
}

// warnIfDeprecated emits a deprecation warning when the handler's
// documentation starts with a "*DEPRECATED...*" marker.
func (cr callRunner) warnIfDeprecated(ec Context, handler Handler) {
	doc := handler.ShortDoc()
	if !strings.HasPrefix(doc, "*DEPRECATED") || !strings.Contains(doc[1:], "*") {
		return
	}
	message := ""
	if parts := strings.SplitN(doc, "*", 3); len(parts) == 3 {
		message = " " + strings.TrimSpace(parts[2])
	}
	ec.Warn(fmt.Sprintf("Keyword '%s' is deprecated.%s", FullName(handler), message))
}

// invoke runs the handler with a copy of the call's arguments. Flow
// signals pass through unmodified; anything else raised inside the
// handler, panics included, is wrapped into a reported runtime failure.
func (cr callRunner) invoke(ctx context.Context, ec Context, handler Handler, call *keyword.Call) (ret cty.Value, sig flow.Signal) {
	defer func() {
		if rec := recover(); rec != nil {
			ret = cty.NilVal
			sig = cr.reportHandlerFailure(ec, fmt.Sprint(rec), string(debug.Stack()), false)
		}
	}()
	args := append([]string(nil), call.Args...)
	ret, err := handler.Run(ctx, ec, args)
	if err == nil {
		return ret, nil
	}
	if s, ok := flow.AsSignal(err); ok {
		return cty.NilVal, s
	}
	timeout := errors.Is(err, context.DeadlineExceeded)
	return cty.NilVal, cr.reportHandlerFailure(ec, err.Error(), "", timeout)
}

func (cr callRunner) reportHandlerFailure(ec Context, message, traceback string, timeout bool) flow.Signal {
	failure := flow.NewHandlerFailure(message, traceback, timeout)
	if timeout {
		ec.NoteTimeout()
	}
	ec.Fail(failure.Error())
	if traceback != "" {
		ec.Debug(traceback)
	}
	return failure
}

// finalize sets the end time, performs variable assignment when permitted,
// and guarantees the end-of-keyword notification on every path, including
// an assignment failure.
func (cr callRunner) finalize(ec Context, res *result.Result, call *keyword.Call, ret cty.Value, sig flow.Signal) error {
	res.EndTime = ec.Now()
	if sig != nil && call.IsTeardown() {
		// Teardown failures must stay visible on the record itself even
		// when they do not abort the surrounding teardown.
		res.Message = sig.Error()
	}
	defer ec.EndKeyword(res)

	if sig != nil && !sig.CanContinue(flow.Modes{InTeardown: ec.InTeardown()}) {
		return nil
	}
	value := ret
	if sig != nil {
		value = sig.ReturnValue()
	}
	if err := ec.AssignVariables(res.Assign, value); err != nil {
		res.Status = result.Fail
		msg := err.Error()
		ec.Fail(msg)
		return flow.NewSyntaxError(msg)
	}
	return nil
}
