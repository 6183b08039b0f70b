package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vk/keywordgo/internal/ctxlog"
	"github.com/vk/keywordgo/internal/flow"
	"github.com/vk/keywordgo/internal/keyword"
	"github.com/vk/keywordgo/internal/result"
	"github.com/vk/keywordgo/internal/vars"
	"github.com/zclconf/go-cty/cty"
)

// forRunner validates and drives a FOR loop, delegating each iteration's
// body back to the sequence runner.
type forRunner struct {
	runner *Runner
}

func (fr forRunner) run(ctx context.Context, ec Context, loop *keyword.ForLoop, overrideName string) error {
	name := overrideName
	if name == "" {
		name = loopName(loop)
	}
	res := result.New(name, keyword.TypeFor, ec.Now())
	ec.StartKeyword(res)

	err := fr.withErrorHandling(ec, func() error {
		if err := validateLoop(loop); err != nil {
			return err
		}
		return fr.runLoop(ctx, ec, loop)
	})

	res.Status = statusOf(err)
	res.EndTime = ec.Now()
	ec.EndKeyword(res)
	return err
}

// withErrorHandling lets flow signals pass through and converts plain
// data errors into reported syntax failures at the point of detection.
func (fr forRunner) withErrorHandling(ec Context, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	if _, ok := flow.AsSignal(err); ok {
		return err
	}
	msg := err.Error()
	ec.Fail(msg)
	return flow.NewSyntaxError(msg)
}

// loopName synthesizes the loop header's display name from its raw parts.
func loopName(loop *keyword.ForLoop) string {
	sep := "IN"
	if loop.Range {
		sep = "IN RANGE"
	}
	return fmt.Sprintf("%s %s [ %s ]",
		strings.Join(loop.Variables, " | "), sep, strings.Join(loop.Values, " | "))
}

func validateLoop(loop *keyword.ForLoop) error {
	if len(loop.Variables) == 0 {
		return flow.NewDataError("FOR loop has no loop variables.")
	}
	for _, v := range loop.Variables {
		if !vars.IsScalar(v) {
			return flow.NewDataError(fmt.Sprintf("Invalid FOR loop variable '%s'.", v))
		}
	}
	if len(loop.Values) == 0 {
		return flow.NewDataError("FOR loop has no loop values.")
	}
	if len(loop.Body) == 0 {
		return flow.NewDataError("FOR loop contains no keywords.")
	}
	return nil
}

func (fr forRunner) runLoop(ctx context.Context, ec Context, loop *keyword.ForLoop) error {
	items, err := fr.iterationItems(ec, loop)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Expanded FOR loop.",
		"iterations", len(items)/len(loop.Variables), "range", loop.Range)

	var errs []string
iteration:
	for start := 0; start < len(items); start += len(loop.Variables) {
		group := items[start : start+len(loop.Variables)]
		iterErr := fr.runIteration(ctx, ec, loop, group)
		if iterErr == nil {
			continue
		}
		var exit *flow.LoopExit
		if errors.As(iterErr, &exit) {
			errs = append(errs, exit.EarlierFailures()...)
			break iteration
		}
		var cont *flow.LoopContinue
		if errors.As(iterErr, &cont) {
			errs = append(errs, cont.EarlierFailures()...)
			continue
		}
		var passed *flow.Passed
		if errors.As(iterErr, &passed) {
			passed.SetEarlierFailures(errs)
			return passed
		}
		var failed *flow.Failed
		if errors.As(iterErr, &failed) {
			errs = append(errs, failed.Messages()...)
			if !failed.CanContinue(fr.runner.modes(ec)) {
				break iteration
			}
			continue
		}
		errs = append(errs, iterErr.Error())
		break iteration
	}
	if len(errs) > 0 {
		return flow.Aggregate(errs)
	}
	return nil
}

// iterationItems resolves the flat value sequence the loop iterates over.
// A dry run skips real resolution and yields the loop's own variable
// names once, validating the body's shape without real data.
func (fr forRunner) iterationItems(ec Context, loop *keyword.ForLoop) ([]cty.Value, error) {
	if ec.DryRun() {
		placeholders := make([]cty.Value, len(loop.Variables))
		for i, v := range loop.Variables {
			placeholders[i] = cty.StringVal(v)
		}
		return placeholders, nil
	}
	items, err := ec.Variables().ResolveList(loop.Values)
	if err != nil {
		return nil, err
	}
	if loop.Range {
		items, err = rangeItems(items)
		if err != nil {
			return nil, err
		}
	}
	if len(items)%len(loop.Variables) != 0 {
		return nil, flow.NewDataError(fmt.Sprintf(
			"Number of FOR loop values should be multiple of variables. Got %d variables but %d value%s.",
			len(loop.Variables), len(items), pluralSuffix(len(items))))
	}
	return items, nil
}

func (fr forRunner) runIteration(ctx context.Context, ec Context, loop *keyword.ForLoop, values []cty.Value) error {
	pairs := make([]string, len(values))
	for i, v := range values {
		pairs[i] = vars.FormatAssign(loop.Variables[i], v)
	}
	res := result.New(strings.Join(pairs, ", "), keyword.TypeForItem, ec.Now())
	ec.StartKeyword(res)

	for i, v := range values {
		ec.Variables().Set(loop.Variables[i], v)
	}
	err := fr.withErrorHandling(ec, func() error {
		return fr.runner.RunSequence(ctx, ec, loop.Body)
	})

	res.Status = statusOf(err)
	res.EndTime = ec.Now()
	ec.EndKeyword(res)
	return err
}

func pluralSuffix(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
