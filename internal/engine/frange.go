package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/keywordgo/internal/flow"
	"github.com/zclconf/go-cty/cty"
)

// rangeItems converts resolved IN RANGE arguments to numbers and expands
// them into the value sequence the loop iterates over: one argument is
// the stop, two are start and stop, three add the step.
func rangeItems(items []cty.Value) ([]cty.Value, error) {
	nums := make([]float64, len(items))
	for i, item := range items {
		n, err := toNumber(item)
		if err != nil {
			return nil, flow.NewDataError("Converting argument of FOR IN RANGE failed: " + err.Error())
		}
		nums[i] = n
	}
	if len(nums) < 1 || len(nums) > 3 {
		return nil, flow.NewDataError(fmt.Sprintf("FOR IN RANGE expected 1-3 arguments, got %d.", len(nums)))
	}
	if len(nums) == 3 && nums[2] == 0 {
		return nil, flow.NewDataError("FOR IN RANGE step must not be zero.")
	}
	return frange(nums...)
}

// toNumber accepts numbers as-is and evaluates strings as arithmetic
// expressions over no external names.
func toNumber(v cty.Value) (float64, error) {
	if v == cty.NilVal || v.IsNull() {
		return 0, fmt.Errorf("expected a number, got null")
	}
	switch v.Type() {
	case cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f, nil
	case cty.String:
		return evalArithmetic(v.AsString())
	default:
		return 0, fmt.Errorf("expected a number, got %s", v.Type().FriendlyName())
	}
}

// evalArithmetic parses text as an expression and evaluates it with an
// empty evaluation context, so only literal arithmetic can succeed.
func evalArithmetic(text string) (float64, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(text), "<range>", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return 0, fmt.Errorf("%s", diags.Error())
	}
	val, diags := expr.Value(&hcl.EvalContext{})
	if diags.HasErrors() {
		return 0, fmt.Errorf("%s", diags.Error())
	}
	if val.Type() != cty.Number {
		return 0, fmt.Errorf("expected a number, got %s", val.Type().FriendlyName())
	}
	f, _ := val.AsBigFloat().Float64()
	return f, nil
}

// frange is a floating-point-aware range expansion. Arguments are scaled
// to integers first so repeated addition cannot accumulate float drift.
func frange(args ...float64) ([]cty.Value, error) {
	start, stop, step := 0.0, 0.0, 1.0
	switch len(args) {
	case 1:
		stop = args[0]
	case 2:
		start, stop = args[0], args[1]
	case 3:
		start, stop, step = args[0], args[1], args[2]
	}

	scale := math.Pow(10, float64(maxDecimals(start, stop, step)))
	// The scaled bounds must stay convertible to int64; past that the
	// conversion is implementation-defined, so reject the arguments.
	const limit = float64(1 << 62)
	for _, n := range []float64{start * scale, stop * scale, step * scale} {
		if math.IsNaN(n) || math.Abs(n) > limit {
			return nil, flow.NewDataError("FOR IN RANGE arguments are too large.")
		}
	}
	s := int64(math.Round(start * scale))
	e := int64(math.Round(stop * scale))
	d := int64(math.Round(step * scale))

	var out []cty.Value
	if d > 0 {
		for v := s; v < e; v += d {
			out = append(out, scaledNumber(v, scale))
		}
	} else {
		for v := s; v > e; v += d {
			out = append(out, scaledNumber(v, scale))
		}
	}
	return out, nil
}

func scaledNumber(scaled int64, scale float64) cty.Value {
	if scale == 1 {
		return cty.NumberIntVal(scaled)
	}
	return cty.NumberFloatVal(float64(scaled) / scale)
}

// maxDecimals returns the widest decimal-fraction length among the
// arguments, capped so the integer scaling cannot overflow.
func maxDecimals(nums ...float64) int {
	const limit = 12
	max := 0
	for _, n := range nums {
		s := strconv.FormatFloat(n, 'f', -1, 64)
		if i := strings.IndexByte(s, '.'); i >= 0 {
			if d := len(s) - i - 1; d > max {
				max = d
			}
		}
	}
	if max > limit {
		return limit
	}
	return max
}
