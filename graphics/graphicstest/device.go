// Package graphicstest provides an in-memory graphics.Device that records
// every call, for tests of code that drives uniforms and textures.
package graphicstest

import (
	"fmt"
	"sync"

	"github.com/richinsley/goshdr/graphics"
)

// Call is one recorded device invocation.
type Call struct {
	Method string
	Args   []any
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v", c.Method, c.Args)
}

// TextureState is what the fake knows about a texture object.
type TextureState struct {
	Width, Height int
	Pixels        []byte
	Wrap, Filter  string
	Mipmapped     bool
	Deleted       bool
	Uploads       int
}

// Device implements graphics.Device. Uniforms listed in Locations resolve to
// their location, everything else resolves to graphics.NoLocation.
type Device struct {
	mu sync.Mutex

	Locations map[string]graphics.UniformLocation
	Calls     []Call
	// Values holds the last value set per location.
	Values   map[graphics.UniformLocation]any
	Textures map[graphics.Texture]*TextureState

	nextTexture graphics.Texture
	activeUnit  int
	bound       map[int]graphics.Texture
}

// NewDevice returns a device exposing the given uniform names at locations
// 0..len(names)-1.
func NewDevice(names ...string) *Device {
	d := &Device{
		Locations: make(map[string]graphics.UniformLocation),
		Values:    make(map[graphics.UniformLocation]any),
		Textures:  make(map[graphics.Texture]*TextureState),
		bound:     make(map[int]graphics.Texture),
	}
	for i, name := range names {
		d.Locations[name] = graphics.UniformLocation(i)
	}
	return d
}

func (d *Device) record(method string, args ...any) {
	d.Calls = append(d.Calls, Call{Method: method, Args: args})
}

// CallCount returns how many calls have been recorded.
func (d *Device) CallCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Calls)
}

// CallsTo returns the recorded calls of one method.
func (d *Device) CallsTo(method string) []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Call
	for _, c := range d.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Value returns the last value set on the named uniform.
func (d *Device) Value(name string) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	loc, ok := d.Locations[name]
	if !ok {
		return nil, false
	}
	v, ok := d.Values[loc]
	return v, ok
}

// Texture returns the state of tex.
func (d *Device) Texture(tex graphics.Texture) *TextureState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Textures[tex]
}

// Bound returns the texture bound on a unit.
func (d *Device) Bound(unit int) graphics.Texture {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bound[unit]
}

func (d *Device) GetUniformLocation(program graphics.Program, name string) graphics.UniformLocation {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("GetUniformLocation", program, name)
	if loc, ok := d.Locations[name]; ok {
		return loc
	}
	return graphics.NoLocation
}

func (d *Device) CreateTexture() graphics.Texture {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextTexture++
	d.record("CreateTexture")
	d.Textures[d.nextTexture] = &TextureState{}
	return d.nextTexture
}

func (d *Device) DeleteTexture(tex graphics.Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DeleteTexture", tex)
	if ts, ok := d.Textures[tex]; ok {
		ts.Deleted = true
	}
}

func (d *Device) ActiveTexture(unit int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("ActiveTexture", unit)
	d.activeUnit = unit
}

func (d *Device) BindTexture(tex graphics.Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("BindTexture", tex)
	d.bound[d.activeUnit] = tex
}

func (d *Device) current() *TextureState {
	ts := d.Textures[d.bound[d.activeUnit]]
	if ts == nil {
		ts = &TextureState{}
	}
	return ts
}

func (d *Device) UploadPixels(width, height int, pix []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("UploadPixels", width, height)
	if err := graphics.CheckPixels(width, height, pix); err != nil {
		return err
	}
	ts := d.current()
	ts.Width, ts.Height = width, height
	ts.Pixels = append([]byte(nil), pix...)
	ts.Mipmapped = false
	ts.Uploads++
	return nil
}

func (d *Device) GenerateMipmap() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("GenerateMipmap")
	d.current().Mipmapped = true
}

func (d *Device) SetSamplerParams(wrap, filter string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("SetSamplerParams", wrap, filter)
	ts := d.current()
	ts.Wrap, ts.Filter = wrap, filter
}

func (d *Device) set(method string, loc graphics.UniformLocation, v any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(method, loc, v)
	d.Values[loc] = v
}

func (d *Device) Uniform1f(loc graphics.UniformLocation, v float32) {
	d.set("Uniform1f", loc, v)
}

func (d *Device) Uniform1i(loc graphics.UniformLocation, v int32) {
	d.set("Uniform1i", loc, v)
}

func (d *Device) Uniform2f(loc graphics.UniformLocation, x, y float32) {
	d.set("Uniform2f", loc, []float32{x, y})
}

func (d *Device) Uniform2fv(loc graphics.UniformLocation, v []float32) {
	d.set("Uniform2fv", loc, append([]float32(nil), v...))
}

func (d *Device) Uniform3fv(loc graphics.UniformLocation, v []float32) {
	d.set("Uniform3fv", loc, append([]float32(nil), v...))
}

func (d *Device) Uniform4fv(loc graphics.UniformLocation, v []float32) {
	d.set("Uniform4fv", loc, append([]float32(nil), v...))
}

var _ graphics.Device = (*Device)(nil)
