package uniforms

// Kind is the GLSL-side shape a uniform was inferred to have. It never changes
// once a slot is registered.
type Kind string

const (
	// Float is a single float, pushed with glUniform1f.
	Float Kind = "float"
	// Int is a single integer, inferred from integer text.
	Int Kind = "int"
	// Vec2, Vec3 and Vec4 are float vectors of that width.
	Vec2 Kind = "vec2"
	Vec3 Kind = "vec3"
	Vec4 Kind = "vec4"
	// Bool is pushed as 0 or 1.
	Bool Kind = "bool"
	// Image is a still texture loaded once from a URL or path.
	Image Kind = "image"
	// Video is a looping video file decoded frame by frame.
	Video Kind = "video"
	// Webcam is the live camera feed.
	Webcam Kind = "webcam"
)

// String returns the GLSL-facing kind name.
func (k Kind) String() string {
	return string(k)
}

// IsTexture reports whether the kind is backed by a sampler and a texture unit.
func (k Kind) IsTexture() bool {
	switch k {
	case Image, Video, Webcam:
		return true
	}
	return false
}

// IsDynamic reports whether the kind streams frames after it loads.
func (k Kind) IsDynamic() bool {
	return k == Video || k == Webcam
}

// Components returns the vector width of vecN kinds, or 0.
func (k Kind) Components() int {
	switch k {
	case Vec2:
		return 2
	case Vec3:
		return 3
	case Vec4:
		return 4
	}
	return 0
}

// Shape names the value shape setters accept for k. It is used in warnings.
func (k Kind) Shape() string {
	switch k {
	case Float, Int:
		return "number"
	case Vec2:
		return "Vec2"
	case Vec3:
		return "Vec3"
	case Vec4:
		return "Vec4"
	case Bool:
		return "boolean"
	case Image, Video:
		return "string"
	}
	return "any"
}
