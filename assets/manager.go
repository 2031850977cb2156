// Package assets owns the uniforms of a linked program: it resolves their
// locations, infers their kinds, pushes values and manages the textures that
// back image, video and webcam uniforms.
//
// A Manager is not safe for concurrent use. Every method except Post must be
// called on the thread that owns the graphics context. Background loads hand
// their results back through Post and are applied by ProcessEvents.
package assets

import (
	"context"
	"errors"
	"image"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/richinsley/goshdr/graphics"
	"github.com/richinsley/goshdr/media"
	"github.com/richinsley/goshdr/uniforms"
)

// Names of the built-in uniforms before prefix and case are applied.
const (
	TimeUniform       = "time"
	ResolutionUniform = "resolution"
	PointerUniform    = "mouse"
)

// Slot is a registered uniform.
type Slot struct {
	Name     string
	Kind     uniforms.Kind
	Location graphics.UniformLocation
	// Value is the last value pushed to the device.
	Value any
}

// Options configures a Manager. The zero value uses the "u" prefix, snake
// case and no media loader.
type Options struct {
	Prefix string
	Case   uniforms.Case
	Loader media.Loader
	Logger *zap.Logger
	// OnError is called on the render thread for every failed texture load.
	OnError func(*LoadError)
}

// Manager is the uniform registry and texture table of one program.
type Manager struct {
	device  graphics.Device
	program graphics.Program
	prefix  string
	ucase   uniforms.Case
	loader  media.Loader
	log     *zap.Logger
	onError func(*LoadError)

	timeName, resolutionName, pointerName string

	uniforms map[string]*Slot
	static   map[string]*StaticTexture
	dynamic  map[string]*DynamicTexture
	pending  map[string]*pendingLoad
	gens     map[string]uint64

	ctx       context.Context
	cancel    context.CancelFunc
	destroyed bool

	mu     sync.Mutex
	queue  []event
	closed bool
}

// New registers the built-in uniforms the program uses, then every entry of
// initial in name order. Entries the program does not expose are skipped.
func New(device graphics.Device, program graphics.Program, initial map[string]any, opts Options) *Manager {
	if opts.Prefix == "" {
		opts.Prefix = uniforms.DefaultPrefix
	}
	if opts.Case == "" {
		opts.Case = uniforms.Snake
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Loader == nil {
		opts.Loader = noLoader{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		device:   device,
		program:  program,
		prefix:   opts.Prefix,
		ucase:    opts.Case,
		loader:   opts.Loader,
		log:      opts.Logger,
		onError:  opts.OnError,
		uniforms: make(map[string]*Slot),
		static:   make(map[string]*StaticTexture),
		dynamic:  make(map[string]*DynamicTexture),
		pending:  make(map[string]*pendingLoad),
		gens:     make(map[string]uint64),
		ctx:      ctx,
		cancel:   cancel,
	}

	m.timeName = m.registerBuiltin(TimeUniform, uniforms.Float)
	m.resolutionName = m.registerBuiltin(ResolutionUniform, uniforms.Vec2)
	m.pointerName = m.registerBuiltin(PointerUniform, uniforms.Vec2)

	names := make([]string, 0, len(initial))
	for name := range initial {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m.register(name, initial[name])
	}
	return m
}

func (m *Manager) registerBuiltin(name string, kind uniforms.Kind) string {
	formatted := m.FormatName(name)
	loc := m.device.GetUniformLocation(m.program, formatted)
	if loc.Valid() {
		m.uniforms[formatted] = &Slot{Name: formatted, Kind: kind, Location: loc}
	}
	return formatted
}

func (m *Manager) register(name string, value any) {
	formatted := m.FormatName(name)
	loc := m.device.GetUniformLocation(m.program, formatted)
	if !loc.Valid() {
		m.log.Info("Couldn't init uniform, most likely it was not used in shader and was optimized out",
			zap.String("uniform", formatted))
		return
	}

	inferred, err := uniforms.Infer(value)
	if err != nil {
		m.log.Error("Failed to infer uniform type", zap.String("uniform", formatted), zap.Error(err))
		return
	}

	m.uniforms[formatted] = &Slot{Name: formatted, Kind: inferred.Kind, Location: loc}
	m.SetValue(name, inferred.Value)
}

// FormatName applies the configured prefix and case to a user-facing name.
func (m *Manager) FormatName(name string) string {
	return uniforms.Format(name, m.prefix, m.ucase)
}

// SetValue pushes value to the uniform called name (unformatted). Unknown
// names and values whose shape does not fit the uniform's kind are logged
// and ignored. Texture kinds start a load and return immediately.
func (m *Manager) SetValue(name string, value any) {
	if m.destroyed {
		m.log.Warn("Asset manager destroyed, ignoring uniform update", zap.String("uniform", name))
		return
	}

	formatted := m.FormatName(name)
	slot, ok := m.uniforms[formatted]
	if !ok {
		m.log.Warn("Uniform not found", zap.String("uniform", name))
		return
	}

	if !uniforms.Accepts(slot.Kind, value) {
		m.log.Warn("Couldn't update uniform, value has the wrong shape",
			zap.String("uniform", formatted),
			zap.String("expected", slot.Kind.Shape()),
			zap.Any("value", value))
		return
	}

	switch slot.Kind {
	case uniforms.Float:
		f, _ := uniforms.ToFloat32(value)
		m.device.Uniform1f(slot.Location, f)
	case uniforms.Int:
		i, ok := uniforms.ToInt32(value)
		if !ok {
			m.log.Warn("Couldn't update uniform, value is out of int32 range",
				zap.String("uniform", formatted),
				zap.Any("value", value))
			return
		}
		m.device.Uniform1i(slot.Location, i)
	case uniforms.Vec2:
		v, _ := uniforms.Floats(value)
		m.device.Uniform2fv(slot.Location, v)
	case uniforms.Vec3:
		v, _ := uniforms.Floats(value)
		m.device.Uniform3fv(slot.Location, v)
	case uniforms.Vec4:
		v, _ := uniforms.Floats(value)
		m.device.Uniform4fv(slot.Location, v)
	case uniforms.Bool:
		var i int32
		if value.(bool) {
			i = 1
		}
		m.device.Uniform1i(slot.Location, i)
	case uniforms.Image:
		m.loadStatic(slot, value.(string))
	case uniforms.Video:
		m.loadDynamic(slot, value.(string))
	case uniforms.Webcam:
		m.loadDynamic(slot, "")
	default:
		m.log.Warn("Unsupported uniform type", zap.String("uniform", formatted), zap.Stringer("kind", slot.Kind))
		return
	}
	slot.Value = value
}

// PushTime sets the time built-in, in seconds, if the program uses it.
func (m *Manager) PushTime(seconds float64) {
	if slot, ok := m.uniforms[m.timeName]; ok {
		m.device.Uniform1f(slot.Location, float32(seconds))
		slot.Value = seconds
	}
}

// PushPointer sets the pointer built-in if the program uses it.
func (m *Manager) PushPointer(x, y float32) {
	m.pushVec2(m.pointerName, x, y)
}

// PushResolution sets the resolution built-in if the program uses it.
func (m *Manager) PushResolution(width, height int) {
	m.pushVec2(m.resolutionName, float32(width), float32(height))
}

func (m *Manager) pushVec2(name string, x, y float32) bool {
	slot, ok := m.uniforms[name]
	if !ok {
		return false
	}
	m.device.Uniform2f(slot.Location, x, y)
	slot.Value = []float32{x, y}
	return true
}

// Uniform returns the slot registered under a formatted name.
func (m *Manager) Uniform(formatted string) (Slot, bool) {
	slot, ok := m.uniforms[formatted]
	if !ok {
		return Slot{}, false
	}
	return *slot, true
}

// Uniforms returns a snapshot of the registry keyed by formatted name.
func (m *Manager) Uniforms() map[string]Slot {
	out := make(map[string]Slot, len(m.uniforms))
	for name, slot := range m.uniforms {
		out[name] = *slot
	}
	return out
}

// Destroy releases every texture, closes every media stream and cancels
// loads in flight. Results of loads that finish later are discarded.
func (m *Manager) Destroy() {
	if m.destroyed {
		return
	}
	m.destroyed = true
	m.cancel()

	m.mu.Lock()
	m.closed = true
	queue := m.queue
	m.queue = nil
	m.mu.Unlock()
	for _, ev := range queue {
		if ev.discard != nil {
			ev.discard()
		}
	}

	for _, tex := range m.static {
		m.device.DeleteTexture(tex.Texture)
	}
	clear(m.static)

	for name, tex := range m.dynamic {
		if tex.Source.Live() {
			m.log.Debug("Stopping camera stream", zap.String("uniform", name))
		} else {
			m.log.Debug("Detaching video source", zap.String("uniform", name))
		}
		if err := tex.Source.Close(); err != nil {
			m.log.Warn("Failed to close media source", zap.String("uniform", name), zap.Error(err))
		}
		m.device.DeleteTexture(tex.Texture)
	}
	clear(m.dynamic)

	for _, p := range m.pending {
		p.cancel()
	}
	clear(m.pending)
}

var errNoLoader = errors.New("no media loader configured")

type noLoader struct{}

func (noLoader) LoadImage(context.Context, string) (image.Image, error) {
	return nil, errNoLoader
}

func (noLoader) OpenVideo(context.Context, string) (media.Stream, error) {
	return nil, errNoLoader
}

func (noLoader) OpenCamera(context.Context) (media.Stream, error) {
	return nil, errNoLoader
}
