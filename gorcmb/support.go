package gorcmb

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var siPrefixes = []struct {
	scale  float64
	prefix string
}{
	{1e12, "T"},
	{1e9, "G"},
	{1e6, "M"},
	{1e3, "k"},
	{1, ""},
	{1e-3, "m"},
	{1e-6, "μ"},
	{1e-9, "n"},
	{1e-12, "p"},
}

// FormatValue renders a value with trailing zeros removed.
// With usePrefix set, the value is scaled to an SI prefix and rounded to 3 decimals ("4.7 kΩ"),
// otherwise it is rounded to 6 decimals.
func FormatValue(value float64, unit string, usePrefix bool) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "NaN"
	}

	prefix := ""
	digits := 6
	if usePrefix {
		digits = 3
		for _, si := range siPrefixes {
			if value >= 0.999999*si.scale {
				if si.scale >= 1 {
					value /= si.scale
				} else {
					value *= 1 / si.scale
				}
				prefix = si.prefix
				break
			}
		}
	}

	s := strconv.FormatFloat(value, 'f', digits, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s + " " + prefix + unit)
}

// Pow10 returns 10**exp.
func Pow10(exp int) float64 {
	if exp < 0 {
		return 1 / math.Pow10(-exp)
	}
	return math.Pow10(exp)
}

// ValueKey quantizes a positive value to 7 significant digits so values that differ only by rounding noise share a key.
// The high byte holds the decimal exponent and the low 24 bits the mantissa.
func ValueKey(value float64) uint32 {
	exp := int(math.Floor(math.Log10(value)+1e-6)) - 6
	frac := uint32(math.Round(value * Pow10(-exp)))
	return uint32(exp+128)<<24 | (frac & 0x00FFFFFF)
}

// ParseKind accepts "resistor" / "r" or "capacitor" / "c".
func ParseKind(s string) (ComponentKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "r", "res", "resistor":
		return Resistor, nil
	case "c", "cap", "capacitor":
		return Capacitor, nil
	}
	return Resistor, errors.Wrapf(ErrParameterOutOfRange, "unknown component kind %q", s)
}

func (k ComponentKind) String() string {
	if k == Capacitor {
		return "capacitor"
	}
	return "resistor"
}

// ParseConstraint accepts "series", "parallel" or "any".
func ParseConstraint(s string) (TopologyConstraint, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "series":
		return SeriesOnly, nil
	case "p", "parallel":
		return ParallelOnly, nil
	case "", "any", "unconstrained":
		return Unconstrained, nil
	}
	return Unconstrained, errors.Wrapf(ErrParameterOutOfRange, "unknown topology constraint %q", s)
}

// Allows reports if a root node of the given mode satisfies this constraint.
func (tc TopologyConstraint) Allows(parallel bool) bool {
	if tc == 0 {
		return true
	}
	if parallel {
		return tc&ParallelOnly != 0
	}
	return tc&SeriesOnly != 0
}

func (tc TopologyConstraint) String() string {
	switch tc {
	case SeriesOnly:
		return "series"
	case ParallelOnly:
		return "parallel"
	}
	return "any"
}

// ParseFilter accepts "exact", "below", "above" or "nearest".
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact":
		return FilterExact, nil
	case "below":
		return FilterBelow, nil
	case "above":
		return FilterAbove, nil
	case "", "nearest":
		return FilterNearest, nil
	}
	return FilterNearest, errors.Wrapf(ErrParameterOutOfRange, "unknown filter %q", s)
}

// Admits reports if value passes this filter, treating anything within epsilon of target as on target.
func (f Filter) Admits(value, target, epsilon float64) bool {
	if f&FilterBelow == 0 && value < target-epsilon {
		return false
	}
	if f&FilterAbove == 0 && value > target+epsilon {
		return false
	}
	return true
}

// Mirror swaps Below and Above.
func (f Filter) Mirror() Filter {
	m := f &^ FilterNearest
	if f&FilterBelow != 0 {
		m |= FilterAbove
	}
	if f&FilterAbove != 0 {
		m |= FilterBelow
	}
	return m
}

func (f Filter) String() string {
	switch f {
	case FilterExact:
		return "exact"
	case FilterBelow:
		return "below"
	case FilterAbove:
		return "above"
	}
	return "nearest"
}
