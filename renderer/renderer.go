// Package renderer drives the frame loop of a canvas: it feeds the built-in
// uniforms, refreshes media textures and draws.
package renderer

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/richinsley/goshdr/assets"
	"github.com/richinsley/goshdr/canvas"
	"github.com/richinsley/goshdr/graphics"
)

// pausedPollInterval throttles the loop while nothing is drawn.
const pausedPollInterval = 10 * time.Millisecond

var errNoContext = errors.New("no graphics context")

// surface is the part of a canvas the frame loop drives.
type surface interface {
	Resize(width, height int) bool
	Draw()
	BeginOffscreen(width, height int) error
	ReadPixels(dst []byte) error
	EndOffscreen()
	Destroy()
}

// Renderer owns a canvas and its asset manager. Except for QueueUniform, all
// methods must be called on the thread that owns the context.
type Renderer struct {
	context graphics.Context
	surface surface
	assets  *assets.Manager
	clock   Clock
	log     *zap.Logger

	destroyed bool
}

// New compiles the shader on ctx and registers the initial uniforms.
func New(ctx graphics.Context, opts Options) (*Renderer, error) {
	if ctx == nil {
		return nil, errNoContext
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ctx.MakeCurrent()

	cv, err := canvas.New(opts.Source, canvas.Options{GLES: ctx.IsGLES(), Logger: opts.Logger})
	if err != nil {
		return nil, fmt.Errorf("failed to create canvas: %w", err)
	}
	return newRenderer(ctx, cv, cv.Device(), cv.Program(), opts), nil
}

func newRenderer(ctx graphics.Context, s surface, device graphics.Device, program graphics.Program, opts Options) *Renderer {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	r := &Renderer{
		context: ctx,
		surface: s,
		log:     opts.Logger,
	}
	r.assets = assets.New(device, program, opts.Uniforms, assets.Options{
		Prefix:  opts.Prefix,
		Case:    opts.Case,
		Loader:  opts.Loader,
		Logger:  opts.Logger.Named("assets"),
		OnError: opts.OnError,
	})
	r.clock.Start(ctx.Time())
	return r
}

// Assets returns the uniform registry.
func (r *Renderer) Assets() *assets.Manager {
	return r.assets
}

// Play resumes time and drawing.
func (r *Renderer) Play() {
	r.clock.Resume(r.context.Time())
}

// Pause freezes time and stops drawing. Loads keep running and their results
// are still applied.
func (r *Renderer) Pause() {
	r.clock.Pause(r.context.Time())
}

func (r *Renderer) Paused() bool {
	return r.clock.Paused()
}

// TogglePause switches between Play and Pause.
func (r *Renderer) TogglePause() {
	if r.Paused() {
		r.Play()
	} else {
		r.Pause()
	}
	r.log.Debug("Toggled playback", zap.Bool("paused", r.Paused()))
}

// UpdateUniform sets a uniform by its unformatted name.
func (r *Renderer) UpdateUniform(name string, value any) {
	r.assets.SetValue(name, value)
}

// QueueUniform is UpdateUniform for use from any goroutine. The value is
// applied at the start of the next frame.
func (r *Renderer) QueueUniform(name string, value any) {
	r.assets.Post(func() { r.assets.SetValue(name, value) })
}

// Frame renders one frame at the clock's time. It reports whether anything
// was drawn.
func (r *Renderer) Frame() bool {
	r.assets.ProcessEvents()
	if r.Paused() {
		r.context.PollEvents()
		return false
	}

	width, height := r.context.GetFramebufferSize()
	r.draw(width, height, r.clock.Elapsed(r.context.Time()), r.context.GetPointer())
	r.context.EndFrame()
	return true
}

func (r *Renderer) draw(width, height int, seconds float64, pointer [2]float32) {
	if r.surface.Resize(width, height) {
		r.assets.PushResolution(width, height)
	}
	r.assets.PushTime(seconds)
	r.assets.PushPointer(pointer[0], pointer[1])
	r.assets.RenderDynamicTextures()
	r.surface.Draw()
}

// Run renders until the window is closed.
func (r *Renderer) Run() {
	r.log.Info("Starting interactive render loop")
	for !r.context.ShouldClose() {
		if !r.Frame() {
			time.Sleep(pausedPollInterval)
		}
	}
}

// Destroy releases the asset manager and the canvas. The context is left to
// its owner.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	r.context.MakeCurrent()
	r.assets.Destroy()
	r.surface.Destroy()
}
