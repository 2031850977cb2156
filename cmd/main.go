package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"github.com/richinsley/goshdr/config"
	"github.com/richinsley/goshdr/glfwcontext"
	"github.com/richinsley/goshdr/graphics"
	"github.com/richinsley/goshdr/headless"
	"github.com/richinsley/goshdr/media"
	"github.com/richinsley/goshdr/options"
	"github.com/richinsley/goshdr/renderer"
)

func init() {
	runtime.LockOSThread()
}

func newLogger(o *options.ShaderOptions) (*zap.Logger, error) {
	level, err := o.Level()
	if err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = level
	return cfg.Build()
}

// loadUniforms merges the uniforms file with -set assignments.
func loadUniforms(o *options.ShaderOptions) (map[string]any, error) {
	values := map[string]any{}
	if *o.UniformsFile != "" {
		var err error
		values, err = config.LoadUniforms(*o.UniformsFile)
		if err != nil {
			return nil, err
		}
	}
	o.Sets.Apply(values)
	return values, nil
}

func newLoader(o *options.ShaderOptions, logger *zap.Logger) *media.FFmpegLoader {
	lo := media.LoaderOptions{
		FFmpegPath:   *o.FFMPEGPath,
		CameraDevice: *o.CameraDevice,
		CameraSize:   *o.CameraSize,
		CameraFPS:    *o.CameraFPS,
	}
	if *o.Cache {
		dir, err := media.CacheDir("images")
		if err != nil {
			logger.Warn("Image cache disabled", zap.Error(err))
		} else {
			lo.CacheDir = dir
		}
	}
	return media.NewFFmpegLoader(lo, logger)
}

func run(o *options.ShaderOptions, logger *zap.Logger) error {
	var source string
	if *o.FragmentFile != "" {
		data, err := os.ReadFile(*o.FragmentFile)
		if err != nil {
			return fmt.Errorf("failed to read fragment shader: %w", err)
		}
		source = string(data)
	}

	values, err := loadUniforms(o)
	if err != nil {
		return err
	}
	nameCase, err := o.NameCase()
	if err != nil {
		return err
	}

	var ctx graphics.Context
	var window *glfwcontext.Context
	if *o.Headless {
		hc, err := headless.New(*o.Width, *o.Height, logger.Named("egl"))
		if err != nil {
			return fmt.Errorf("failed to initialize headless context: %w", err)
		}
		defer hc.Shutdown()
		ctx = hc
	} else {
		if err := glfwcontext.InitGraphics(logger); err != nil {
			return fmt.Errorf("failed to initialize glfw: %w", err)
		}
		defer glfwcontext.TerminateGraphics(logger)

		window, err = glfwcontext.New(glfwcontext.Options{
			Width:   *o.Width,
			Height:  *o.Height,
			Title:   "goshdr",
			Visible: !*o.Record,
			Logger:  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize glfw context: %w", err)
		}
		defer window.Shutdown()
		ctx = window
	}

	r, err := renderer.New(ctx, renderer.Options{
		Source:   source,
		Uniforms: values,
		Prefix:   *o.Prefix,
		Case:     nameCase,
		Loader:   newLoader(o, logger.Named("media")),
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer r.Destroy()

	if *o.Watch {
		watchCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		w, err := config.NewWatcher(*o.UniformsFile, values, config.WatcherOptions{
			Logger: logger.Named("config"),
			OnChange: func(changed map[string]any) {
				for name, v := range changed {
					r.QueueUniform(name, v)
				}
			},
		})
		if err != nil {
			return err
		}
		defer w.Close()
		if err := w.Start(watchCtx); err != nil {
			return err
		}
	}

	if *o.Record {
		return r.RunOffscreen(renderer.RecordOptions{
			Width:      *o.Width,
			Height:     *o.Height,
			Duration:   *o.Duration,
			FPS:        *o.FPS,
			OutputFile: *o.OutputFile,
			FFmpegPath: *o.FFMPEGPath,
			Codec:      *o.Codec,
		})
	}

	window.RegisterKeyCallback(glfw.KeySpace, r.TogglePause)
	r.Run()
	return nil
}

func main() {
	o := options.Register(flag.CommandLine)
	flag.Parse()

	if *o.Help {
		fmt.Println("goshdr: WebGL2 fragment shader viewer/recorder")
		flag.PrintDefaults()
		return
	}
	if err := o.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(o)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	if err := run(o, logger); err != nil {
		logger.Error("goshdr failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}
