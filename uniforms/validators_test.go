package uniforms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloats(t *testing.T) {
	tests := []struct {
		name     string
		in       any
		expected []float32
		ok       bool
	}{
		{"any ints", []any{1, 2, 3}, []float32{1, 2, 3}, true},
		{"float64", []float64{0.5, 0.25}, []float32{0.5, 0.25}, true},
		{"array", [2]int64{4, 5}, []float32{4, 5}, true},
		{"mixed", []any{1, "2"}, nil, false},
		{"string", "12", nil, false},
		{"nil", nil, nil, false},
		{"scalar", 3, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Floats(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFloatsCopiesInput(t *testing.T) {
	in := []float32{1, 2}
	got, ok := Floats(in)
	assert.True(t, ok)
	got[0] = 9
	assert.Equal(t, float32(1), in[0])
}

func TestScalarValidators(t *testing.T) {
	assert.True(t, IsNumber(uint8(3)))
	assert.False(t, IsNumber("3"))
	assert.False(t, IsNumber(true))
	assert.True(t, IsBool(false))
	assert.True(t, IsString(""))
	assert.True(t, IsVec3([]any{0, 0, 1}))
	assert.False(t, IsVec3([]any{0, 0}))

	f, ok := ToFloat32(int32(7))
	assert.True(t, ok)
	assert.Equal(t, float32(7), f)
}

func TestToInt32(t *testing.T) {
	tests := []struct {
		name     string
		in       any
		expected int32
		ok       bool
	}{
		{"above float32 precision", 16777217, 16777217, true},
		{"int64 max int32", int64(2147483647), 2147483647, true},
		{"int min int32", -2147483648, -2147483648, true},
		{"int overflow", 3000000000, 0, false},
		{"int64 underflow", int64(-2147483649), 0, false},
		{"uint64 overflow", uint64(1) << 40, 0, false},
		{"uint8", uint8(200), 200, true},
		{"float truncates", 7.9, 7, true},
		{"negative float truncates", -2.5, -2, true},
		{"float overflow", 1e10, 0, false},
		{"string", "3", 0, false},
		{"bool", true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt32(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}
