package assets

import (
	"context"
	"fmt"
	"image"
	"sort"

	"go.uber.org/zap"

	"github.com/richinsley/goshdr/graphics"
	"github.com/richinsley/goshdr/media"
	"github.com/richinsley/goshdr/uniforms"
)

// placeholderPixel is bound while a texture loads so the shader never
// samples uninitialized memory.
var placeholderPixel = []byte{0, 0, 0, 255}

// StaticTexture backs an image uniform.
type StaticTexture struct {
	Texture graphics.Texture
	Unit    int
}

// DynamicTexture backs a video or webcam uniform once its first frame is
// decodable.
type DynamicTexture struct {
	Texture graphics.Texture
	Unit    int
	Source  media.Stream

	lastSeq uint64
	mipmap  bool
	// badFrame is set while frames fail to upload, so the warning is logged
	// once per run of bad frames.
	badFrame bool
}

// LoadError reports a texture source that could not be fetched or decoded.
type LoadError struct {
	Kind uniforms.Kind
	// Uniform is the formatted uniform name.
	Uniform string
	Source  string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s %s: %v", e.Kind, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type pendingLoad struct {
	gen    uint64
	source string
	cancel context.CancelFunc
}

// nextUnit is the unit the next texture receives. Units are never reused
// while the manager lives.
func (m *Manager) nextUnit() int {
	return len(m.static) + len(m.dynamic)
}

func (m *Manager) nextGeneration(name string) uint64 {
	m.gens[name]++
	return m.gens[name]
}

// initializeTexture creates a texture on a fresh unit, points the sampler
// at it and binds the placeholder.
func (m *Manager) initializeTexture(slot *Slot) (graphics.Texture, int) {
	tex := m.device.CreateTexture()
	unit := m.nextUnit()

	m.device.Uniform1i(slot.Location, int32(unit))
	m.device.ActiveTexture(unit)
	m.device.BindTexture(tex)
	m.bindPlaceholder()
	return tex, unit
}

func (m *Manager) bindPlaceholder() {
	_ = m.device.UploadPixels(1, 1, placeholderPixel)
	m.device.SetSamplerParams(graphics.WrapClamp, graphics.FilterLinear)
}

// applyTextureParams must follow an upload into the bound texture.
func (m *Manager) applyTextureParams(width, height int) bool {
	if media.IsPowerOfTwo(width) && media.IsPowerOfTwo(height) {
		m.device.GenerateMipmap()
		m.device.SetSamplerParams(graphics.WrapRepeat, graphics.FilterMipmap)
		return true
	}
	m.device.SetSamplerParams(graphics.WrapClamp, graphics.FilterLinear)
	return false
}

func (m *Manager) registerCompanion(name string) {
	companion := uniforms.CompanionName(name, m.ucase)
	if _, ok := m.uniforms[companion]; ok {
		return
	}
	loc := m.device.GetUniformLocation(m.program, companion)
	if loc.Valid() {
		m.uniforms[companion] = &Slot{Name: companion, Kind: uniforms.Vec2, Location: loc}
	}
}

func (m *Manager) setCompanion(name string, width, height int) {
	companion := uniforms.CompanionName(name, m.ucase)
	if !m.pushVec2(companion, float32(width), float32(height)) {
		m.log.Info("Could not set companion resolution uniform, most likely it was not used in shader and was optimized out",
			zap.String("uniform", companion))
	}
}

func (m *Manager) reportError(kind uniforms.Kind, name, source string, err error) {
	le := &LoadError{Kind: kind, Uniform: name, Source: source, Err: err}
	m.log.Error("Failed to load texture",
		zap.String("uniform", name),
		zap.Stringer("kind", kind),
		zap.String("source", source),
		zap.Error(err))
	if m.onError != nil {
		m.onError(le)
	}
}

// loadStatic binds the placeholder right away and decodes src in the
// background. A name that already has a texture keeps its texture and unit.
func (m *Manager) loadStatic(slot *Slot, src string) {
	name := slot.Name
	entry, ok := m.static[name]
	if ok {
		m.device.ActiveTexture(entry.Unit)
		m.device.BindTexture(entry.Texture)
		m.bindPlaceholder()
		m.device.Uniform1i(slot.Location, int32(entry.Unit))
	} else {
		tex, unit := m.initializeTexture(slot)
		m.static[name] = &StaticTexture{Texture: tex, Unit: unit}
	}
	m.registerCompanion(name)

	gen := m.nextGeneration(name)
	ctx := m.ctx
	loader := m.loader
	go func() {
		var rgba *image.RGBA
		img, err := loader.LoadImage(ctx, src)
		if err == nil {
			rgba = media.FlippedRGBA(img)
		}
		m.post(func() {
			m.finishStatic(name, gen, src, rgba, err)
		}, nil)
	}()
}

func (m *Manager) finishStatic(name string, gen uint64, src string, rgba *image.RGBA, err error) {
	if m.destroyed {
		return
	}
	entry, ok := m.static[name]
	if !ok {
		m.log.Warn("No texture found for uniform", zap.String("uniform", name))
		return
	}
	if m.gens[name] != gen {
		m.log.Debug("Dropping superseded image load", zap.String("uniform", name), zap.String("source", src))
		return
	}
	if err != nil {
		m.reportError(uniforms.Image, name, src, err)
		return
	}

	width, height := rgba.Rect.Dx(), rgba.Rect.Dy()
	m.device.ActiveTexture(entry.Unit)
	m.device.BindTexture(entry.Texture)
	if err := m.device.UploadPixels(width, height, rgba.Pix); err != nil {
		m.reportError(uniforms.Image, name, src, err)
		return
	}
	m.applyTextureParams(width, height)
	m.setCompanion(name, width, height)

	if slot, ok := m.uniforms[name]; ok {
		m.device.Uniform1i(slot.Location, int32(entry.Unit))
	}
	m.log.Debug("Loaded image texture",
		zap.String("uniform", name),
		zap.String("source", src),
		zap.Int("unit", entry.Unit))
}

// loadDynamic opens a video file, or the camera when src is empty. The
// texture and unit are allocated only when the first frame is decodable, so
// units follow readiness order rather than call order.
func (m *Manager) loadDynamic(slot *Slot, src string) {
	name := slot.Name
	kind := slot.Kind
	source := src
	if kind == uniforms.Webcam {
		source = uniforms.WebcamSource
	}

	if p, ok := m.pending[name]; ok {
		p.cancel()
	}
	gen := m.nextGeneration(name)
	ctx, cancel := context.WithCancel(m.ctx)
	m.pending[name] = &pendingLoad{gen: gen, source: source, cancel: cancel}

	loader := m.loader
	go func() {
		var s media.Stream
		var err error
		if kind == uniforms.Webcam {
			s, err = loader.OpenCamera(ctx)
		} else {
			s, err = loader.OpenVideo(ctx, src)
		}
		if err == nil {
			if err = s.Wait(ctx); err != nil {
				s.Close()
				s = nil
			}
		}

		m.post(func() {
			m.finishDynamic(name, kind, gen, source, s, err)
		}, func() {
			if s != nil {
				s.Close()
			}
		})
	}()
}

func (m *Manager) finishDynamic(name string, kind uniforms.Kind, gen uint64, source string, s media.Stream, err error) {
	p, ok := m.pending[name]
	if m.destroyed || !ok || p.gen != gen {
		if s != nil {
			s.Close()
		}
		return
	}
	delete(m.pending, name)
	p.cancel()

	if err != nil {
		m.reportError(kind, name, source, err)
		return
	}
	slot, ok := m.uniforms[name]
	if !ok {
		s.Close()
		return
	}

	entry, ok := m.dynamic[name]
	if ok {
		if cerr := entry.Source.Close(); cerr != nil {
			m.log.Warn("Failed to close replaced media source", zap.String("uniform", name), zap.Error(cerr))
		}
		entry.Source = s
		entry.lastSeq = 0
	} else {
		tex, unit := m.initializeTexture(slot)
		entry = &DynamicTexture{Texture: tex, Unit: unit, Source: s}
		m.dynamic[name] = entry
	}

	s.Play()

	width, height := s.Size()
	m.registerCompanion(name)
	m.setCompanion(name, width, height)

	m.device.ActiveTexture(entry.Unit)
	m.device.BindTexture(entry.Texture)
	entry.mipmap = false
	m.uploadFrame(entry)
	entry.mipmap = m.applyTextureParams(width, height)
	m.device.Uniform1i(slot.Location, int32(entry.Unit))

	m.log.Debug("Started dynamic texture",
		zap.String("uniform", name),
		zap.Stringer("kind", kind),
		zap.String("source", source),
		zap.Int("unit", entry.Unit))
}

// uploadFrame copies the newest frame of entry into the bound texture.
func (m *Manager) uploadFrame(entry *DynamicTexture) bool {
	frame, seq := entry.Source.Frame()
	if frame == nil || seq == entry.lastSeq {
		return false
	}
	width, height := entry.Source.Size()
	entry.lastSeq = seq
	if err := m.device.UploadPixels(width, height, frame); err != nil {
		if !entry.badFrame {
			m.log.Warn("Dropping video frame", zap.Int("unit", entry.Unit), zap.Error(err))
			entry.badFrame = true
		}
		return false
	}
	entry.badFrame = false
	if entry.mipmap {
		m.device.GenerateMipmap()
	}
	return true
}

// RenderDynamicTextures rebinds every dynamic texture on its unit and
// uploads frames that arrived since the last call.
func (m *Manager) RenderDynamicTextures() {
	for _, entry := range m.dynamicByUnit() {
		m.device.ActiveTexture(entry.Unit)
		m.device.BindTexture(entry.Texture)
		m.uploadFrame(entry)
	}
}

func (m *Manager) dynamicByUnit() []*DynamicTexture {
	entries := make([]*DynamicTexture, 0, len(m.dynamic))
	for _, entry := range m.dynamic {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Unit < entries[j].Unit })
	return entries
}

// StaticTextures returns a snapshot of the image texture table.
func (m *Manager) StaticTextures() map[string]StaticTexture {
	out := make(map[string]StaticTexture, len(m.static))
	for name, tex := range m.static {
		out[name] = *tex
	}
	return out
}

// DynamicTextures returns a snapshot of the video and webcam texture table.
func (m *Manager) DynamicTextures() map[string]DynamicTexture {
	out := make(map[string]DynamicTexture, len(m.dynamic))
	for name, tex := range m.dynamic {
		out[name] = *tex
	}
	return out
}

// Pending returns the names whose media is still loading.
func (m *Manager) Pending() []string {
	names := make([]string, 0, len(m.pending))
	for name := range m.pending {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
