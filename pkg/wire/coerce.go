package wire

import (
	"fmt"
	"math"
)

// ToFloat64 converts any Go integer or floating point value.
func ToFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

// ToInt32 converts any Go integer value in range, and truncates floating
// point values the way an int() cast does.
func ToInt32(v any) (int32, bool) {
	var i int64
	switch x := v.(type) {
	case int32:
		return x, true
	case int:
		i = int64(x)
	case int8:
		i = int64(x)
	case int16:
		i = int64(x)
	case int64:
		i = x
	case uint:
		if uint64(x) > math.MaxInt32 {
			return 0, false
		}
		i = int64(x)
	case uint8:
		i = int64(x)
	case uint16:
		i = int64(x)
	case uint32:
		i = int64(x)
	case uint64:
		if x > math.MaxInt32 {
			return 0, false
		}
		i = int64(x)
	case float32, float64:
		f, _ := ToFloat64(x)
		if math.IsNaN(f) || f > math.MaxInt32 || f < math.MinInt32 {
			return 0, false
		}
		i = int64(f)
	default:
		return 0, false
	}
	if i > math.MaxInt32 || i < math.MinInt32 {
		return 0, false
	}
	return int32(i), true
}

// ToBool accepts booleans and integers (non-zero is true).
func ToBool(v any) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	switch v.(type) {
	case float32, float64:
		return false, false
	}
	if i, ok := ToInt32(v); ok {
		return i != 0, true
	}
	return false, false
}

// ToString accepts strings, byte slices and fmt.Stringer values.
func ToString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case fmt.Stringer:
		return x.String(), true
	}
	return "", false
}

// ToFloat64s converts a numeric slice, typed or []any.
func ToFloat64s(v any) ([]float64, bool) {
	switch x := v.(type) {
	case []float64:
		return x, true
	case []float32:
		out := make([]float64, len(x))
		for i, f := range x {
			out[i] = float64(f)
		}
		return out, true
	case []int:
		out := make([]float64, len(x))
		for i, n := range x {
			out[i] = float64(n)
		}
		return out, true
	case []any:
		out := make([]float64, len(x))
		for i, e := range x {
			f, ok := ToFloat64(e)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	}
	return nil, false
}

// ToInt32s converts an integer slice, typed or []any.
func ToInt32s(v any) ([]int32, bool) {
	switch x := v.(type) {
	case []int32:
		return x, true
	case []int:
		out := make([]int32, len(x))
		for i, n := range x {
			c, ok := ToInt32(n)
			if !ok {
				return nil, false
			}
			out[i] = c
		}
		return out, true
	case []int64:
		out := make([]int32, len(x))
		for i, n := range x {
			c, ok := ToInt32(n)
			if !ok {
				return nil, false
			}
			out[i] = c
		}
		return out, true
	case []any:
		out := make([]int32, len(x))
		for i, e := range x {
			c, ok := ToInt32(e)
			if !ok {
				return nil, false
			}
			out[i] = c
		}
		return out, true
	}
	return nil, false
}

// ToBools converts a boolean slice, typed or []any.
func ToBools(v any) ([]bool, bool) {
	switch x := v.(type) {
	case []bool:
		return x, true
	case []any:
		out := make([]bool, len(x))
		for i, e := range x {
			b, ok := ToBool(e)
			if !ok {
				return nil, false
			}
			out[i] = b
		}
		return out, true
	}
	return nil, false
}

// ToStrings converts a string slice, typed or []any.
func ToStrings(v any) ([]string, bool) {
	switch x := v.(type) {
	case []string:
		return x, true
	case []any:
		out := make([]string, len(x))
		for i, e := range x {
			s, ok := ToString(e)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	}
	return nil, false
}
