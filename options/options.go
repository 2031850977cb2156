package options

import (
	"errors"
	"flag"
	"fmt"

	"go.uber.org/zap"

	"github.com/richinsley/goshdr/config"
	"github.com/richinsley/goshdr/uniforms"
)

type ShaderOptions struct {
	FragmentFile *string
	UniformsFile *string
	Sets         config.Assignments
	Prefix       *string
	Case         *string
	Width        *int
	Height       *int
	Watch        *bool
	Help         *bool
	LogLevel     *string

	// Recording
	Record     *bool
	Headless   *bool
	Duration   *float64
	FPS        *int
	OutputFile *string
	Codec      *string
	FFMPEGPath *string

	// Media
	CameraDevice *string
	CameraSize   *string
	CameraFPS    *int
	Cache        *bool
}

// Register defines every flag on fs.
func Register(fs *flag.FlagSet) *ShaderOptions {
	o := &ShaderOptions{
		FragmentFile: fs.String("frag", "", "WebGL2 fragment shader file (built-in shader if empty)"),
		UniformsFile: fs.String("uniforms", "", "YAML, TOML or JSON file of initial uniform values"),
		Prefix:       fs.String("prefix", uniforms.DefaultPrefix, "Uniform name prefix"),
		Case:         fs.String("case", string(uniforms.Snake), "Uniform name case: snake or camel"),
		Width:        fs.Int("width", 1280, "Width of the window or output"),
		Height:       fs.Int("height", 720, "Height of the window or output"),
		Watch:        fs.Bool("watch", false, "Reload the uniforms file when it changes"),
		Help:         fs.Bool("help", false, "Show help message"),
		LogLevel:     fs.String("log-level", "info", "Log level: debug, info, warn or error"),

		Record:     fs.Bool("record", false, "Render offscreen to a video file"),
		Headless:   fs.Bool("headless", false, "Record through an EGL pbuffer instead of a hidden window (Linux)"),
		Duration:   fs.Float64("duration", 10.0, "Duration to record in seconds"),
		FPS:        fs.Int("fps", 60, "Frames per second for recording"),
		OutputFile: fs.String("output", "output.mp4", "Output file name for recording"),
		Codec:      fs.String("codec", "h264", "Recording codec: h264 or hevc"),
		FFMPEGPath: fs.String("ffmpeg", "", "Path to ffmpeg executable"),

		CameraDevice: fs.String("camera", "", "Camera device for webcam uniforms (platform default if empty)"),
		CameraSize:   fs.String("camera-size", "640x480", "Camera capture size"),
		CameraFPS:    fs.Int("camera-fps", 0, "Camera capture frame rate (device default if 0)"),
		Cache:        fs.Bool("cache", true, "Cache downloaded images on disk"),
	}
	fs.Var(&o.Sets, "set", "Uniform assignment name=value, may be repeated")
	return o
}

// NameCase returns the parsed -case value.
func (o *ShaderOptions) NameCase() (uniforms.Case, error) {
	return uniforms.ParseCase(*o.Case)
}

// Level returns the parsed -log-level value.
func (o *ShaderOptions) Level() (zap.AtomicLevel, error) {
	return zap.ParseAtomicLevel(*o.LogLevel)
}

// Validate checks values that flag parsing cannot.
func (o *ShaderOptions) Validate() error {
	var errs []error
	if *o.Width <= 0 || *o.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid size %dx%d", *o.Width, *o.Height))
	}
	if _, err := o.NameCase(); err != nil {
		errs = append(errs, err)
	}
	if _, err := o.Level(); err != nil {
		errs = append(errs, err)
	}
	if *o.Watch && *o.UniformsFile == "" {
		errs = append(errs, errors.New("-watch requires -uniforms"))
	}
	if *o.Codec != "h264" && *o.Codec != "hevc" {
		errs = append(errs, fmt.Errorf("unknown codec %q", *o.Codec))
	}
	if *o.Record && (*o.FPS <= 0 || *o.Duration <= 0) {
		errs = append(errs, errors.New("-record requires positive -fps and -duration"))
	}
	if *o.Headless && !*o.Record {
		errs = append(errs, errors.New("-headless requires -record"))
	}
	return errors.Join(errs...)
}
