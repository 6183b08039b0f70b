// Package keyword holds the immutable input model the engine executes: a
// tree of keyword calls and FOR loops produced by an external front such
// as the HCL suite loader.
package keyword

import "strings"

// Item type labels, carried onto result records so that reporting can tell
// ordinary keywords, setup/teardown steps, loop headers and loop
// iterations apart.
const (
	TypeKeyword  = "kw"
	TypeSetup    = "setup"
	TypeTeardown = "teardown"
	TypeFor      = "for"
	TypeForItem  = "foritem"
)

// Item is one executable step: a *Call or a *ForLoop. The set is closed;
// the sequence executor dispatches with an exhaustive type switch.
type Item interface {
	item()
}

// Call is a single keyword invocation.
type Call struct {
	// Name resolves the handler unless an override name is supplied at
	// run time (used when a wrapper executes a call under its own name).
	Name string
	// Args are the raw argument expressions, resolved by the handler
	// against the current variable scope.
	Args []string
	// Assign lists the variables the return value is assigned to. A
	// trailing "=" on the last target is a display-only marker.
	Assign []string
	// Type is one of TypeKeyword, TypeSetup or TypeTeardown.
	Type string
}

func (*Call) item() {}

// CleanAssign returns the assignment targets with the display-only
// trailing "=" marker stripped.
func (c *Call) CleanAssign() []string {
	if len(c.Assign) == 0 {
		return nil
	}
	cleaned := make([]string, len(c.Assign))
	for i, target := range c.Assign {
		cleaned[i] = strings.TrimRight(target, "= ")
	}
	return cleaned
}

// IsTeardown reports whether this call is itself a teardown step.
func (c *Call) IsTeardown() bool { return c.Type == TypeTeardown }

// ForLoop is a FOR block binding one or more variables per iteration,
// either from an explicit value list or from a numeric range.
type ForLoop struct {
	// Variables are the loop variable names, e.g. "${i}".
	Variables []string
	// Values are the raw value expressions; in range mode they are the
	// 1-3 range arguments.
	Values []string
	// Range selects numeric-range mode.
	Range bool
	// Body is the non-empty list of items run once per iteration.
	Body []Item
}

func (*ForLoop) item() {}
