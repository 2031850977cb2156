package shader

// ────────────────────────────────── Vertex ──────────────────────────────────

const vertexShaderSourceGL = `#version 410 core
layout (location = 0) in vec2 in_vert;
out vec2 frag_uv;
void main() {
    frag_uv = in_vert * 0.5 + 0.5;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

const vertexShaderSourceGLES = `#version 300 es
layout (location = 0) in vec2 in_vert;
out vec2 frag_uv;
void main() {
    frag_uv = in_vert * 0.5 + 0.5;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

// ────────────────────────────────── Fragment ──────────────────────────────────

// DefaultFragment is drawn when no fragment source is supplied. It uses every
// built-in uniform so all three resolve after linking.
const DefaultFragment = `#version 300 es
precision highp float;

uniform float u_time;
uniform vec2 u_resolution;
uniform vec2 u_mouse;

out vec4 fragColor;

void main() {
    vec2 uv = gl_FragCoord.xy / u_resolution;
    vec2 m = u_mouse / u_resolution;
    vec3 col = 0.5 + 0.5 * cos(u_time + uv.xyx + vec3(0.0, 2.0, 4.0));
    col *= 1.0 - 0.5 * smoothstep(0.0, 0.25, distance(uv, m));
    fragColor = vec4(col, 1.0);
}
`

// GenerateVertexShader returns the full-screen quad vertex shader for the
// current context flavor. The quad position is attribute 0.
func GenerateVertexShader(isGLES bool) string {
	if isGLES {
		return vertexShaderSourceGLES
	}
	return vertexShaderSourceGL
}

// Fragment returns source, or DefaultFragment for an empty source.
func Fragment(source string) string {
	if source == "" {
		return DefaultFragment
	}
	return source
}
