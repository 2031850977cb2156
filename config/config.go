// Package config reads initial uniform values from YAML, TOML or JSON files
// and from command-line assignments.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// UniformsKey is the optional top-level key that holds the uniform map.
const UniformsKey = "uniforms"

var ErrUnsupportedFormat = errors.New("unsupported config format")

// LoadUniforms reads path and returns its uniform map. The format follows
// the extension: .yaml, .yml, .toml or .json.
func LoadUniforms(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read uniforms file: %w", err)
	}
	values, err := Decode(filepath.Ext(path), data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return values, nil
}

// Decode parses data in the format named by ext.
func Decode(ext string, data []byte) (map[string]any, error) {
	doc := map[string]any{}
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".toml":
		err = toml.Unmarshal(data, &doc)
	case ".json":
		err = json.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return map[string]any{}, nil
	}

	if nested, ok := doc[UniformsKey]; ok {
		m, ok := nested.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%q must be a map, got %T", UniformsKey, nested)
		}
		return m, nil
	}
	return doc, nil
}

// Diff returns the entries of next that are new or differ from prev.
// Removed entries are not reported.
func Diff(prev, next map[string]any) map[string]any {
	changed := map[string]any{}
	for name, v := range next {
		if old, ok := prev[name]; !ok || !reflect.DeepEqual(old, v) {
			changed[name] = v
		}
	}
	return changed
}

// ParseValue turns command-line text into a uniform value. Bracketed lists
// become sequences, true and false become bools, and anything else stays a
// string for type inference.
func ParseValue(text string) any {
	text = strings.TrimSpace(text)
	switch text {
	case "true":
		return true
	case "false":
		return false
	}
	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		var seq []any
		if err := yaml.Unmarshal([]byte(text), &seq); err == nil {
			return seq
		}
	}
	return text
}

// ParseAssignment splits "name=value" and parses the value.
func ParseAssignment(s string) (string, any, error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", nil, fmt.Errorf("invalid uniform assignment %q, want name=value", s)
	}
	return name, ParseValue(value), nil
}

// Assignments collects repeated -set flags.
type Assignments []string

func (a *Assignments) String() string {
	return strings.Join(*a, ",")
}

func (a *Assignments) Set(s string) error {
	if _, _, err := ParseAssignment(s); err != nil {
		return err
	}
	*a = append(*a, s)
	return nil
}

// Apply writes every assignment into values, later ones winning.
func (a Assignments) Apply(values map[string]any) {
	for _, s := range a {
		name, v, err := ParseAssignment(s)
		if err != nil {
			continue
		}
		values[name] = v
	}
}
