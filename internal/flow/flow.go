// Package flow defines the non-local control-flow outcomes a keyword run
// can produce: runtime and syntax failures, early successful termination,
// and loop-control signals. Signals are ordinary error values so that they
// travel up the call chain through normal returns and are matched with
// errors.As; they never rely on panics.
package flow

import (
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Modes are the context flags that decide whether execution continues past
// a failure. They are read-only for the duration of one run and threaded
// explicitly into every continuation check.
type Modes struct {
	InTeardown bool
	Templated  bool
	DryRun     bool
}

// canContinue is the single place the continuation policy lives. Teardown
// blocks must attempt every cleanup step, templated tests every data row,
// and dry runs every keyword shape; everything else is fail-fast.
func canContinue(m Modes) bool {
	return m.InTeardown || m.Templated || m.DryRun
}

// Signal is implemented by every control-flow outcome in this package.
type Signal interface {
	error
	// CanContinue reports whether sibling execution may proceed after
	// this signal under the given mode flags.
	CanContinue(m Modes) bool
	// ReturnValue is the value fed into variable assignment when this
	// signal ends a call. It is cty.NilVal for plain failures.
	ReturnValue() cty.Value
}

// AsSignal reports whether err is one of this package's signals.
func AsSignal(err error) (Signal, bool) {
	s, ok := err.(Signal)
	return s, ok
}

// Failed is one or more underlying failures from a keyword or a block.
type Failed struct {
	messages []string
	syntax   bool
	ret      cty.Value

	// Traceback and Timeout describe a wrapped handler-internal error.
	Traceback string
	Timeout   bool
}

// NewFailure creates a runtime failure with a single message.
func NewFailure(message string) *Failed {
	return &Failed{messages: []string{message}, ret: cty.NilVal}
}

// NewSyntaxError creates a configuration failure: invalid loop
// declarations, bad assignment targets and the like.
func NewSyntaxError(message string) *Failed {
	return &Failed{messages: []string{message}, syntax: true, ret: cty.NilVal}
}

// NewHandlerFailure wraps an unexpected error raised inside an invoked
// handler, keeping the captured traceback and timeout flag for diagnostics.
func NewHandlerFailure(message, traceback string, timeout bool) *Failed {
	return &Failed{
		messages:  []string{message},
		ret:       cty.NilVal,
		Traceback: traceback,
		Timeout:   timeout,
	}
}

// Aggregate folds the failure messages collected from a block into one
// failure raised at block exit. It must not be called with no messages.
func Aggregate(messages []string) *Failed {
	if len(messages) == 0 {
		panic("flow: aggregating zero failures")
	}
	return &Failed{messages: append([]string(nil), messages...), ret: cty.NilVal}
}

// Error joins the underlying messages. A lone message is reported as-is;
// multiple messages are numbered the way aggregated block failures read
// in the result tree.
func (f *Failed) Error() string {
	if len(f.messages) == 1 {
		return f.messages[0]
	}
	var b strings.Builder
	b.WriteString("Several failures occurred:")
	for i, msg := range f.messages {
		b.WriteString("\n\n")
		b.WriteString(strconv.Itoa(i+1) + ") " + msg)
	}
	return b.String()
}

// Messages returns the individual failure messages in order.
func (f *Failed) Messages() []string {
	return append([]string(nil), f.messages...)
}

// Syntax reports whether this is a configuration error rather than a
// runtime failure.
func (f *Failed) Syntax() bool { return f.syntax }

// CanContinue applies the canonical continuation policy.
func (f *Failed) CanContinue(m Modes) bool { return canContinue(m) }

// ReturnValue implements Signal. Failures carry no usable return value
// unless one was set explicitly.
func (f *Failed) ReturnValue() cty.Value { return f.ret }

// Passed is the early successful termination of an enclosing block, e.g.
// a "return" from a user keyword. It carries the failures seen before it
// was raised so that outer aggregation never drops them.
type Passed struct {
	earlier []string
	ret     cty.Value
}

// NewPassed creates an early-termination signal carrying ret as the
// enclosing call's return value.
func NewPassed(ret cty.Value) *Passed {
	return &Passed{ret: ret}
}

func (p *Passed) Error() string {
	if len(p.earlier) == 0 {
		return "Execution passed."
	}
	return Aggregate(p.earlier).Error()
}

// CanContinue implements Signal; an early pass never blocks siblings.
func (p *Passed) CanContinue(Modes) bool { return true }

// ReturnValue implements Signal.
func (p *Passed) ReturnValue() cty.Value { return p.ret }

// SetEarlierFailures attaches the failures a block had accumulated before
// this signal unwound it. Outer blocks attach after inner ones but their
// failures happened first, so each batch is prepended to keep the
// aggregate in execution order.
func (p *Passed) SetEarlierFailures(messages []string) {
	if len(messages) == 0 {
		return
	}
	p.earlier = append(append([]string(nil), messages...), p.earlier...)
}

// EarlierFailures returns the attached failure messages in order.
func (p *Passed) EarlierFailures() []string {
	return append([]string(nil), p.earlier...)
}

// EarlierCarrier is implemented by the signals that unwind past a block
// while carrying that block's accumulated failures: Passed, LoopExit and
// LoopContinue.
type EarlierCarrier interface {
	Signal
	SetEarlierFailures(messages []string)
	EarlierFailures() []string
}

// AsEarlierCarrier reports whether err unwinds with earlier failures.
func AsEarlierCarrier(err error) (EarlierCarrier, bool) {
	c, ok := err.(EarlierCarrier)
	return c, ok
}

// LoopExit terminates the innermost enclosing loop.
type LoopExit struct {
	Passed
}

// NewLoopExit creates a loop-exit signal.
func NewLoopExit() *LoopExit {
	return &LoopExit{Passed{ret: cty.NilVal}}
}

func (*LoopExit) Error() string { return "Exit for loop." }

// LoopContinue skips the remainder of the current loop iteration.
type LoopContinue struct {
	Passed
}

// NewLoopContinue creates a loop-continue signal.
func NewLoopContinue() *LoopContinue {
	return &LoopContinue{Passed{ret: cty.NilVal}}
}

func (*LoopContinue) Error() string { return "Continue for loop." }

// DataError is a plain validation error from the external collaborators
// (variable resolution, assignment targets). It is not a Signal: the
// executors convert it into a syntax Failed at the point of detection.
type DataError struct {
	Message string
}

func (e *DataError) Error() string { return e.Message }

// NewDataError creates a DataError with the given message.
func NewDataError(message string) *DataError {
	return &DataError{Message: message}
}
