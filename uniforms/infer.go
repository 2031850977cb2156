package uniforms

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidVectorLength = errors.New("invalid vector length")
	ErrUnknownType         = errors.New("unknown uniform type")
)

// WebcamSource is the string value that binds a uniform to the camera.
const WebcamSource = "webcam"

var (
	imageSuffixes = []string{".jpg", ".jpeg", ".png", ".avif", ".webp"}
	videoSuffixes = []string{".mp4", ".webm", ".mov"}
)

// Inferred is the outcome of a successful Infer.
type Inferred struct {
	Kind  Kind
	Value any
}

// Infer picks a uniform kind for a loosely typed value. Strings are checked
// for media suffixes, the webcam sentinel and numeric text, in that order.
// Numeric sequences of length 2 to 4 become vectors, other numbers become
// floats and booleans stay booleans.
func Infer(v any) (Inferred, error) {
	if s, ok := v.(string); ok {
		return inferString(s)
	}

	if vec, ok := Floats(v); ok {
		switch len(vec) {
		case 2:
			return Inferred{Kind: Vec2, Value: vec}, nil
		case 3:
			return Inferred{Kind: Vec3, Value: vec}, nil
		case 4:
			return Inferred{Kind: Vec4, Value: vec}, nil
		}
		return Inferred{}, fmt.Errorf("%w: %d", ErrInvalidVectorLength, len(vec))
	}

	if f, ok := toFloat64(v); ok {
		return Inferred{Kind: Float, Value: f}, nil
	}

	if b, ok := v.(bool); ok {
		return Inferred{Kind: Bool, Value: b}, nil
	}

	return Inferred{}, fmt.Errorf("%w: %v", ErrUnknownType, v)
}

func inferString(s string) (Inferred, error) {
	lower := strings.ToLower(s)
	if hasAnySuffix(lower, imageSuffixes) {
		return Inferred{Kind: Image, Value: s}, nil
	}
	if hasAnySuffix(lower, videoSuffixes) {
		return Inferred{Kind: Video, Value: s}, nil
	}
	if s == WebcamSource {
		return Inferred{Kind: Webcam, Value: s}, nil
	}

	text := strings.TrimSpace(s)
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Inferred{}, fmt.Errorf("%w: %s", ErrUnknownType, s)
	}
	if strings.Contains(text, ".") {
		return Inferred{Kind: Float, Value: f}, nil
	}
	if i, err := strconv.ParseInt(text, 10, 0); err == nil {
		return Inferred{Kind: Int, Value: int(i)}, nil
	}
	// exponent or out of int range
	return Inferred{Kind: Float, Value: f}, nil
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
