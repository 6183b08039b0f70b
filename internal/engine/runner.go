package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/keywordgo/internal/flow"
	"github.com/vk/keywordgo/internal/keyword"
	"github.com/vk/keywordgo/internal/result"
	"github.com/zclconf/go-cty/cty"
)

// Runner executes ordered keyword sequences. It is also used recursively
// for loop bodies and user-keyword bodies, so the whole control-flow
// engine is mutually recursive through it.
type Runner struct {
	templated bool
}

// NewRunner creates a sequence runner. templated marks a templated test,
// where every data row must run regardless of earlier row failures.
func NewRunner(templated bool) *Runner {
	return &Runner{templated: templated}
}

func (r *Runner) modes(ec Context) flow.Modes {
	return flow.Modes{
		InTeardown: ec.InTeardown(),
		Templated:  r.templated,
		DryRun:     ec.DryRun(),
	}
}

// Run is the top-level entry point. Unlike RunSequence it rejects
// loop-control signals that escape without an enclosing loop and resolves
// an early pass into its carried failures, so callers only ever see nil
// or an aggregated failure.
func (r *Runner) Run(ctx context.Context, ec Context, items []keyword.Item) error {
	err := r.RunSequence(ctx, ec, items)
	if err == nil {
		return nil
	}
	var exit *flow.LoopExit
	if errors.As(err, &exit) {
		return escapedLoopControl("Exit For Loop", exit)
	}
	var cont *flow.LoopContinue
	if errors.As(err, &cont) {
		return escapedLoopControl("Continue For Loop", cont)
	}
	var passed *flow.Passed
	if errors.As(err, &passed) {
		if earlier := passed.EarlierFailures(); len(earlier) > 0 {
			return flow.Aggregate(earlier)
		}
		return nil
	}
	return err
}

// escapedLoopControl turns a loop-control signal raised outside any loop
// into an ordinary failure instead of silently ignoring it.
func escapedLoopControl(name string, sig flow.EarlierCarrier) error {
	msgs := sig.EarlierFailures()
	msgs = append(msgs, fmt.Sprintf("'%s' can only be used inside a for loop.", name))
	return flow.Aggregate(msgs)
}

// RunSequence runs items in order, accumulating failure messages. A
// passed or loop-control signal wins over accumulated failures: it takes
// them along as earlier failures and stops the sequence immediately. A
// failure stops the sequence unless the continuation policy allows
// proceeding. Collected failures are raised once, aggregated, at exit.
func (r *Runner) RunSequence(ctx context.Context, ec Context, items []keyword.Item) error {
	var errs []string
	for _, item := range items {
		_, err := r.RunItem(ctx, ec, item, "")
		if err == nil {
			continue
		}
		if carrier, ok := flow.AsEarlierCarrier(err); ok {
			carrier.SetEarlierFailures(errs)
			return err
		}
		var failed *flow.Failed
		if errors.As(err, &failed) {
			errs = append(errs, failed.Messages()...)
			if !failed.CanContinue(r.modes(ec)) {
				break
			}
			continue
		}
		// Not a flow signal; nothing below this layer should produce
		// one, but never drop an error on the floor.
		errs = append(errs, err.Error())
		break
	}
	if len(errs) > 0 {
		return flow.Aggregate(errs)
	}
	return nil
}

// RunItem dispatches one item by kind and returns the executor's outcome
// unchanged. The item set is closed, so the switch is exhaustive.
func (r *Runner) RunItem(ctx context.Context, ec Context, item keyword.Item, overrideName string) (cty.Value, error) {
	switch it := item.(type) {
	case *keyword.Call:
		return callRunner{}.run(ctx, ec, it, overrideName)
	case *keyword.ForLoop:
		return cty.NilVal, forRunner{runner: r}.run(ctx, ec, it, overrideName)
	default:
		return cty.NilVal, flow.NewSyntaxError(fmt.Sprintf("Unknown keyword item type %T.", item))
	}
}

// statusOf maps an execution outcome to a terminal result status. An
// early pass only counts as PASS when it carries no earlier failures.
func statusOf(err error) result.Status {
	if err == nil {
		return result.Pass
	}
	if carrier, ok := flow.AsEarlierCarrier(err); ok && len(carrier.EarlierFailures()) == 0 {
		return result.Pass
	}
	return result.Fail
}
