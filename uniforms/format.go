package uniforms

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Case selects how user names are joined to the prefix.
type Case string

const (
	// Snake produces prefix_name and leaves the name untouched.
	Snake Case = "snake"
	// Camel produces prefixName with the first rune of name upper-cased.
	Camel Case = "camel"
)

// DefaultPrefix is prepended to every uniform name unless configured otherwise.
const DefaultPrefix = "u"

// ParseCase accepts "snake" or "camel". An empty string selects Snake.
func ParseCase(s string) (Case, error) {
	switch Case(s) {
	case "", Snake:
		return Snake, nil
	case Camel:
		return Camel, nil
	}
	return "", fmt.Errorf("unknown uniform case %q, expected snake or camel", s)
}

// Format returns the shader-side name for a user-facing uniform name.
func Format(name, prefix string, c Case) string {
	if c == Camel {
		r, size := utf8.DecodeRuneInString(name)
		if r == utf8.RuneError {
			return prefix + name
		}
		return prefix + string(unicode.ToUpper(r)) + name[size:]
	}
	return prefix + "_" + name
}

// CompanionName returns the name of the vec2 uniform that carries the pixel
// size of a texture uniform.
func CompanionName(formatted string, c Case) string {
	if c == Camel {
		return formatted + "Resolution"
	}
	return formatted + "_resolution"
}
