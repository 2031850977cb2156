// Package gldevice implements graphics.Device on OpenGL 4.1 core.
package gldevice

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/richinsley/goshdr/graphics"
)

// NameMapper rewrites source uniform names to the names the driver sees.
type NameMapper interface {
	MappedName(name string) string
}

// Device issues GL calls on the current context.
type Device struct {
	names NameMapper
}

// New returns a device. names may be nil when shader sources are compiled
// untranslated.
func New(names NameMapper) *Device {
	return &Device{names: names}
}

func (d *Device) GetUniformLocation(program graphics.Program, name string) graphics.UniformLocation {
	if d.names != nil {
		name = d.names.MappedName(name)
	}
	return graphics.UniformLocation(gl.GetUniformLocation(uint32(program), gl.Str(name+"\x00")))
}

func (d *Device) CreateTexture() graphics.Texture {
	var tex uint32
	gl.GenTextures(1, &tex)
	return graphics.Texture(tex)
}

func (d *Device) DeleteTexture(tex graphics.Texture) {
	id := uint32(tex)
	gl.DeleteTextures(1, &id)
}

func (d *Device) ActiveTexture(unit int) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
}

func (d *Device) BindTexture(tex graphics.Texture) {
	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
}

func (d *Device) UploadPixels(width, height int, pix []byte) error {
	if err := graphics.CheckPixels(width, height, pix); err != nil {
		return err
	}
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		gl.RGBA8,
		int32(width),
		int32(height),
		0,
		gl.RGBA,
		gl.UNSIGNED_BYTE,
		gl.Ptr(pix),
	)
	return nil
}

func (d *Device) GenerateMipmap() {
	gl.GenerateMipmap(gl.TEXTURE_2D)
}

func (d *Device) SetSamplerParams(wrap, filter string) {
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, getWrapMode(wrap))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, getWrapMode(wrap))

	minFilter, magFilter := getFilterMode(filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, magFilter)
}

func (d *Device) Uniform1f(loc graphics.UniformLocation, v float32) {
	gl.Uniform1f(int32(loc), v)
}

func (d *Device) Uniform1i(loc graphics.UniformLocation, v int32) {
	gl.Uniform1i(int32(loc), v)
}

func (d *Device) Uniform2f(loc graphics.UniformLocation, x, y float32) {
	gl.Uniform2f(int32(loc), x, y)
}

func (d *Device) Uniform2fv(loc graphics.UniformLocation, v []float32) {
	if len(v) >= 2 {
		gl.Uniform2fv(int32(loc), 1, &v[0])
	}
}

func (d *Device) Uniform3fv(loc graphics.UniformLocation, v []float32) {
	if len(v) >= 3 {
		gl.Uniform3fv(int32(loc), 1, &v[0])
	}
}

func (d *Device) Uniform4fv(loc graphics.UniformLocation, v []float32) {
	if len(v) >= 4 {
		gl.Uniform4fv(int32(loc), 1, &v[0])
	}
}

// Helper to convert a wrap name to the OpenGL constant.
func getWrapMode(wrap string) int32 {
	switch wrap {
	case graphics.WrapRepeat:
		return gl.REPEAT
	case graphics.WrapClamp:
		return gl.CLAMP_TO_EDGE
	default:
		return gl.REPEAT
	}
}

// Helper to convert a filter name to OpenGL min and mag filters.
func getFilterMode(filter string) (minFilter, magFilter int32) {
	switch filter {
	case graphics.FilterMipmap:
		return gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR
	case graphics.FilterLinear:
		return gl.LINEAR, gl.LINEAR
	case graphics.FilterNearest:
		return gl.NEAREST, gl.NEAREST
	default:
		return gl.LINEAR, gl.LINEAR
	}
}

var _ graphics.Device = (*Device)(nil)
