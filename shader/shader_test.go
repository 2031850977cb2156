package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateVertexShader(t *testing.T) {
	assert.True(t, strings.HasPrefix(GenerateVertexShader(false), "#version 410 core"))
	assert.True(t, strings.HasPrefix(GenerateVertexShader(true), "#version 300 es"))
	for _, gles := range []bool{false, true} {
		assert.Contains(t, GenerateVertexShader(gles), "layout (location = 0) in vec2 in_vert;")
	}
}

func TestFragment(t *testing.T) {
	assert.Equal(t, DefaultFragment, Fragment(""))
	assert.Equal(t, "void main() {}", Fragment("void main() {}"))

	for _, name := range []string{"u_time", "u_resolution", "u_mouse"} {
		assert.Contains(t, DefaultFragment, name)
	}
}
