package renderer

import (
	"go.uber.org/zap"

	"github.com/richinsley/goshdr/assets"
	"github.com/richinsley/goshdr/media"
	"github.com/richinsley/goshdr/uniforms"
)

// Options configures a Renderer.
type Options struct {
	// Source is the WebGL2 fragment shader. Empty selects the built-in one.
	Source string
	// Uniforms are the initial values, keyed by unformatted name.
	Uniforms map[string]any
	Prefix   string
	Case     uniforms.Case
	Loader   media.Loader
	Logger   *zap.Logger
	OnError  func(*assets.LoadError)
}

// RecordOptions configures RunOffscreen.
type RecordOptions struct {
	Width, Height int
	// Duration in seconds.
	Duration   float64
	FPS        int
	OutputFile string
	FFmpegPath string
	// Codec is "h264" (default) or "hevc".
	Codec string
}
