package vars

import (
	"fmt"

	"github.com/vk/keywordgo/internal/flow"
	"github.com/zclconf/go-cty/cty"
)

// AssignReturnValue binds a keyword's return value to the given targets.
// Targets must be scalar variables, except that the last one may be a
// list variable taking the remaining elements. Malformed targets and
// arity mismatches are reported as DataErrors.
func (s *Scope) AssignReturnValue(targets []string, value cty.Value) error {
	if len(targets) == 0 {
		return nil
	}
	scalars, listTarget, err := splitTargets(targets)
	if err != nil {
		return err
	}
	if value == cty.NilVal {
		value = cty.NullVal(cty.DynamicPseudoType)
	}

	if len(scalars) == 1 && listTarget == "" {
		s.Set(scalars[0], value)
		return nil
	}

	elems, elemErr := elements(value)
	if elemErr != nil {
		return flow.NewDataError(fmt.Sprintf(
			"Cannot set variables: expected list-like value, %s.", elemErr))
	}
	if listTarget == "" && len(elems) != len(scalars) {
		return flow.NewDataError(fmt.Sprintf(
			"Cannot set variables: expected %d return values, got %d.",
			len(scalars), len(elems)))
	}
	if listTarget != "" && len(elems) < len(scalars) {
		return flow.NewDataError(fmt.Sprintf(
			"Cannot set variables: expected at least %d return values, got %d.",
			len(scalars), len(elems)))
	}

	for i, target := range scalars {
		s.Set(target, elems[i])
	}
	if listTarget != "" {
		rest := elems[len(scalars):]
		if len(rest) == 0 {
			s.Set(listTarget, cty.EmptyTupleVal)
		} else {
			s.Set(listTarget, cty.TupleVal(rest))
		}
	}
	return nil
}

// splitTargets validates the assignment targets and separates the scalar
// targets from an optional trailing list target.
func splitTargets(targets []string) (scalars []string, listTarget string, err error) {
	for i, target := range targets {
		switch {
		case IsScalar(target):
			scalars = append(scalars, target)
		case IsList(target):
			if i != len(targets)-1 {
				return nil, "", flow.NewDataError(fmt.Sprintf(
					"List variable '%s' is allowed only as the last assignment target.", target))
			}
			listTarget = target
		default:
			return nil, "", flow.NewDataError(fmt.Sprintf(
				"Invalid assignment target '%s'.", target))
		}
	}
	return scalars, listTarget, nil
}
