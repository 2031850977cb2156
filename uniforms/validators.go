package uniforms

import (
	"math"
	"reflect"
)

// IsNumber reports whether v is a Go numeric primitive.
func IsNumber(v any) bool {
	_, ok := toFloat64(v)
	return ok
}

// IsString reports whether v is a string.
func IsString(v any) bool {
	_, ok := v.(string)
	return ok
}

// IsBool reports whether v is a bool.
func IsBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

// IsVec2 reports whether v is a sequence of exactly two numbers.
func IsVec2(v any) bool { return isVec(v, 2) }

// IsVec3 reports whether v is a sequence of exactly three numbers.
func IsVec3(v any) bool { return isVec(v, 3) }

// IsVec4 reports whether v is a sequence of exactly four numbers.
func IsVec4(v any) bool { return isVec(v, 4) }

func isVec(v any, n int) bool {
	vec, ok := Floats(v)
	return ok && len(vec) == n
}

// Accepts reports whether v fits the value shape of kind k.
// Webcam slots accept any value.
func Accepts(k Kind, v any) bool {
	switch k {
	case Float, Int:
		return IsNumber(v)
	case Vec2:
		return IsVec2(v)
	case Vec3:
		return IsVec3(v)
	case Vec4:
		return IsVec4(v)
	case Bool:
		return IsBool(v)
	case Image, Video:
		return IsString(v)
	case Webcam:
		return true
	}
	return false
}

// Floats converts a slice or array whose every element is a number into
// []float32. It returns false for anything else, including strings.
func Floats(v any) ([]float32, bool) {
	switch t := v.(type) {
	case []float32:
		out := make([]float32, len(t))
		copy(out, t)
		return out, true
	case []float64:
		out := make([]float32, len(t))
		for i, f := range t {
			out[i] = float32(f)
		}
		return out, true
	case string, nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]float32, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		f, ok := toFloat64(rv.Index(i).Interface())
		if !ok {
			return nil, false
		}
		out[i] = float32(f)
	}
	return out, true
}

// ToFloat32 returns v as a float32 if it is a number.
func ToFloat32(v any) (float32, bool) {
	f, ok := toFloat64(v)
	return float32(f), ok
}

// ToInt32 converts a number to int32 without a float round trip for integer
// types. Floats are truncated. Values outside the int32 range, NaN and
// infinities are rejected.
func ToInt32(v any) (int32, bool) {
	switch n := v.(type) {
	case int:
		return fitInt32(int64(n))
	case int8:
		return int32(n), true
	case int16:
		return int32(n), true
	case int32:
		return n, true
	case int64:
		return fitInt32(n)
	case uint:
		return fitUint32(uint64(n))
	case uint8:
		return int32(n), true
	case uint16:
		return int32(n), true
	case uint32:
		return fitUint32(uint64(n))
	case uint64:
		return fitUint32(n)
	}
	f, ok := toFloat64(v)
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	f = math.Trunc(f)
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	return int32(f), true
}

func fitInt32(n int64) (int32, bool) {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false
	}
	return int32(n), true
}

func fitUint32(n uint64) (int32, bool) {
	if n > math.MaxInt32 {
		return 0, false
	}
	return int32(n), true
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
