package graphics

import "fmt"

// Program is a linked shader program handle.
type Program uint32

// Texture is a 2D texture object handle.
type Texture uint32

// UniformLocation is a resolved uniform slot. NoLocation marks a uniform the
// program does not expose, usually because the compiler optimized it out.
type UniformLocation int32

const NoLocation UniformLocation = -1

// Valid reports whether the location refers to a live uniform.
func (l UniformLocation) Valid() bool {
	return l >= 0
}

// Sampler wrap and filter names understood by Device.SetSamplerParams.
const (
	WrapRepeat = "repeat"
	WrapClamp  = "clamp"

	FilterMipmap  = "mipmap"
	FilterLinear  = "linear"
	FilterNearest = "nearest"
)

// Device is the slice of the graphics API the asset manager drives. All
// methods must be called on the thread that owns the context.
type Device interface {
	GetUniformLocation(program Program, name string) UniformLocation

	CreateTexture() Texture
	DeleteTexture(tex Texture)
	// ActiveTexture selects texture unit n.
	ActiveTexture(unit int)
	// BindTexture binds tex as the 2D texture of the active unit.
	BindTexture(tex Texture)
	// UploadPixels replaces the bound texture with tightly packed RGBA8 rows,
	// first row at the bottom. A buffer of the wrong size leaves the texture
	// untouched and returns an error.
	UploadPixels(width, height int, pix []byte) error
	GenerateMipmap()
	SetSamplerParams(wrap, filter string)

	Uniform1f(loc UniformLocation, v float32)
	Uniform1i(loc UniformLocation, v int32)
	Uniform2f(loc UniformLocation, x, y float32)
	Uniform2fv(loc UniformLocation, v []float32)
	Uniform3fv(loc UniformLocation, v []float32)
	Uniform4fv(loc UniformLocation, v []float32)
}

// CheckPixels reports whether pix holds exactly width*height RGBA8 pixels.
func CheckPixels(width, height int, pix []byte) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid texture size %dx%d", width, height)
	}
	if want := width * height * 4; len(pix) != want {
		return fmt.Errorf("pixel buffer is %d bytes, %dx%d RGBA needs %d", len(pix), width, height, want)
	}
	return nil
}
