// Package canvas hosts a single fragment shader drawn over a full-screen
// quad.
package canvas

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/richinsley/goshdr/gldevice"
	"github.com/richinsley/goshdr/graphics"
	"github.com/richinsley/goshdr/shader"
	"github.com/richinsley/goshdr/translator"
)

var glInitOnce sync.Once
var glInitErr error

// Options configures a Canvas.
type Options struct {
	// GLES selects ESSL output and the GLES vertex shader.
	GLES   bool
	Logger *zap.Logger
}

// Canvas owns the linked program and the quad it draws. All methods must be
// called with the owning context current.
type Canvas struct {
	program  uint32
	quadVAO  uint32
	quadVBO  uint32
	device   *gldevice.Device
	names    *translator.Result
	target   *offscreenTarget
	width    int
	height   int
	log      *zap.Logger
	released bool
}

var quadVertices = []float32{
	-1.0, 1.0, -1.0, -1.0, 1.0, -1.0,
	-1.0, 1.0, 1.0, -1.0, 1.0, 1.0,
}

// InitGL loads the GL function pointers. It must run after a context has been
// made current and is a no-op after the first call.
func InitGL() error {
	glInitOnce.Do(func() {
		if err := gl.Init(); err != nil {
			glInitErr = fmt.Errorf("failed to initialize OpenGL: %w", err)
		}
	})
	return glInitErr
}

// New translates and links source, an empty source selecting the built-in
// shader, and uploads the quad. Nothing is left allocated on failure.
func New(source string, opts Options) (*Canvas, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if err := InitGL(); err != nil {
		return nil, err
	}

	fs, err := translator.Fragment(shader.Fragment(source), opts.GLES)
	if err != nil {
		return nil, err
	}

	program, err := newProgram(shader.GenerateVertexShader(opts.GLES), fs.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}
	gl.UseProgram(program)

	c := &Canvas{
		program: program,
		names:   fs,
		device:  gldevice.New(fs),
		log:     opts.Logger,
	}
	c.createQuad()

	opts.Logger.Debug("Linked fragment program",
		zap.Uint32("program", program),
		zap.Int("uniforms", len(fs.Names)))
	return c, nil
}

func (c *Canvas) createQuad() {
	gl.GenVertexArrays(1, &c.quadVAO)
	gl.GenBuffers(1, &c.quadVBO)
	gl.BindVertexArray(c.quadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, c.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(quadVertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

// Program returns the linked program.
func (c *Canvas) Program() graphics.Program {
	return graphics.Program(c.program)
}

// Device returns a device that resolves uniforms through the translator's
// name map.
func (c *Canvas) Device() graphics.Device {
	return c.device
}

// Size returns the last viewport size.
func (c *Canvas) Size() (int, int) {
	return c.width, c.height
}

// Resize sets the viewport and reports whether the size changed.
func (c *Canvas) Resize(width, height int) bool {
	if width == c.width && height == c.height {
		return false
	}
	c.width, c.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
	return true
}

// Draw clears the bound framebuffer and draws the quad.
func (c *Canvas) Draw() {
	gl.UseProgram(c.program)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.BindVertexArray(c.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
}

// Destroy releases the program and the quad buffers.
func (c *Canvas) Destroy() {
	if c.released {
		return
	}
	c.released = true
	c.EndOffscreen()
	gl.DeleteVertexArrays(1, &c.quadVAO)
	gl.DeleteBuffers(1, &c.quadVBO)
	gl.DeleteProgram(c.program)
}

func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex shader: %w", err)
	}
	defer gl.DeleteShader(vertexShader)

	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment shader: %w", err)
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("failed to link program: %v", trimLog(log))
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile shader: %v", trimLog(logText))
	}
	return shader, nil
}

// trimLog drops the NUL padding and trailing whitespace of a GL info log.
func trimLog(s string) string {
	return strings.TrimRight(s, "\x00 \r\n\t")
}
