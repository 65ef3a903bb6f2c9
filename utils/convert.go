package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// ToBool accepts bools, numbers (non-zero is true) and "true"/"false" style strings.
func ToBool(v any) (bool, error) {
	if v == nil {
		return false, fmt.Errorf("missing value")
	}
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	return cast.ToBoolE(v)
}

// ToInt truncates toward zero like Python's int(). Numeric strings are
// parsed as decimal. Values beyond the int range saturate.
func ToInt(v any) (int, error) {
	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("missing value")
	case bool:
		return 0, fmt.Errorf("unable to cast %v of type bool to int", t)
	case string:
		f, err := cast.ToFloat64E(strings.TrimSpace(t))
		if err != nil {
			return 0, err
		}
		v = f
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("unable to cast %v to int", f)
	}
	switch {
	case f >= float64(math.MaxInt):
		return math.MaxInt, nil
	case f <= float64(math.MinInt):
		return math.MinInt, nil
	}
	return int(math.Trunc(f)), nil
}

// ToFloat returns def when v is nil or not numeric.
func ToFloat(v any, def float64) float64 {
	if v == nil {
		return def
	}
	if _, ok := v.(bool); ok {
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return def
	}
	return f
}

// Clamp bounds n to [lo, hi].
func Clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
