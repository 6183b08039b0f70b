// Package vars is the default implementation of the engine's external
// variable collaborators: a shared mutable scope over cty values, textual
// variable substitution, list resolution with splicing, and the
// return-value assigner.
package vars

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vk/keywordgo/internal/flow"
	"github.com/zclconf/go-cty/cty"
)

var (
	scalarRe = regexp.MustCompile(`^\$\{([^{}]+)\}$`)
	listRe   = regexp.MustCompile(`^@\{([^{}]+)\}$`)
	substRe  = regexp.MustCompile(`\$\{([^{}]+)\}`)
)

// IsScalar reports whether name is a plain scalar variable like "${x}".
func IsScalar(name string) bool { return scalarRe.MatchString(name) }

// IsList reports whether name is a list variable like "@{items}".
func IsList(name string) bool { return listRe.MatchString(name) }

// Scope is the shared mutable variable store. It is deliberately not
// synchronized: exactly one writer context is active at a time within a
// run, and nested blocks observe and overwrite outer variables in place.
type Scope struct {
	values map[string]cty.Value
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{values: make(map[string]cty.Value)}
}

// Set binds a variable. The name may be decorated ("${x}", "@{x}") or
// bare ("x"); both address the same binding.
func (s *Scope) Set(name string, value cty.Value) {
	s.values[baseName(name)] = value
}

// Get looks up a variable by decorated or bare name.
func (s *Scope) Get(name string) (cty.Value, bool) {
	v, ok := s.values[baseName(name)]
	return v, ok
}

// Len returns the number of bindings, for diagnostics.
func (s *Scope) Len() int { return len(s.values) }

func baseName(name string) string {
	if m := scalarRe.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	if m := listRe.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return name
}

// Replace resolves one raw value expression against the scope. An
// expression that is exactly one scalar reference yields the stored value
// unchanged, whatever its type; any other text gets every "${...}"
// occurrence substituted into the string form.
func (s *Scope) Replace(text string) (cty.Value, error) {
	if m := scalarRe.FindStringSubmatch(text); m != nil {
		v, ok := s.values[m[1]]
		if !ok {
			return cty.NilVal, flow.NewDataError(fmt.Sprintf("Variable '${%s}' not found.", m[1]))
		}
		return v, nil
	}
	var missing string
	replaced := substRe.ReplaceAllStringFunc(text, func(ref string) string {
		name := substRe.FindStringSubmatch(ref)[1]
		v, ok := s.values[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return ref
		}
		return Format(v)
	})
	if missing != "" {
		return cty.NilVal, flow.NewDataError(fmt.Sprintf("Variable '${%s}' not found.", missing))
	}
	return cty.StringVal(replaced), nil
}

// ResolveList resolves a list of raw value expressions in order,
// flattening list-variable references ("@{items}") into their elements.
func (s *Scope) ResolveList(exprs []string) ([]cty.Value, error) {
	resolved := make([]cty.Value, 0, len(exprs))
	for _, expr := range exprs {
		if m := listRe.FindStringSubmatch(expr); m != nil {
			v, ok := s.values[m[1]]
			if !ok {
				return nil, flow.NewDataError(fmt.Sprintf("Variable '@{%s}' not found.", m[1]))
			}
			elems, err := elements(v)
			if err != nil {
				return nil, flow.NewDataError(fmt.Sprintf(
					"Value of variable '@{%s}' is not a list: %s", m[1], err))
			}
			resolved = append(resolved, elems...)
			continue
		}
		v, err := s.Replace(expr)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, v)
	}
	return resolved, nil
}

// elements returns the ordered elements of a list-like value.
func elements(v cty.Value) ([]cty.Value, error) {
	if v == cty.NilVal || v.IsNull() {
		return nil, fmt.Errorf("value is null")
	}
	ty := v.Type()
	if !ty.IsListType() && !ty.IsTupleType() && !ty.IsSetType() {
		return nil, fmt.Errorf("got %s", ty.FriendlyName())
	}
	var out []cty.Value
	for it := v.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		out = append(out, elem)
	}
	return out, nil
}

// Format renders a value for messages and iteration names.
func Format(v cty.Value) string {
	if v == cty.NilVal || v.IsNull() {
		return "null"
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString()
	case ty == cty.Number:
		return v.AsBigFloat().Text('f', -1)
	case ty == cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		var parts []string
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			parts = append(parts, Format(elem))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ty.IsMapType() || ty.IsObjectType():
		var parts []string
		for it := v.ElementIterator(); it.Next(); {
			k, elem := it.Element()
			parts = append(parts, Format(k)+": "+Format(elem))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return v.GoString()
	}
}

// FormatAssign renders one "name = value" pair, used for loop iteration
// names and assignment logging.
func FormatAssign(name string, v cty.Value) string {
	return fmt.Sprintf("%s = %s", name, Format(v))
}
