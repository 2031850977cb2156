//go:build linux

package headless

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/richinsley/goshdr/graphics"
)

/*
#cgo LDFLAGS: -lEGL -lGLESv2
#include <EGL/egl.h>
#include <EGL/eglext.h>

// Extension entry points are resolved on first use; both are optional.
static EGLint device_count(EGLint max, EGLDeviceEXT *devices) {
    static PFNEGLQUERYDEVICESEXTPROC query = NULL;
    if (!query) {
        query = (PFNEGLQUERYDEVICESEXTPROC) eglGetProcAddress("eglQueryDevicesEXT");
    }
    EGLint n = 0;
    if (!query || query(max, devices, &n) == EGL_FALSE) {
        return 0;
    }
    return n;
}

static EGLDisplay device_display(EGLDeviceEXT device) {
    static PFNEGLGETPLATFORMDISPLAYEXTPROC get = NULL;
    if (!get) {
        get = (PFNEGLGETPLATFORMDISPLAYEXTPROC) eglGetProcAddress("eglGetPlatformDisplayEXT");
    }
    if (!get) {
        return EGL_NO_DISPLAY;
    }
    return get(EGL_PLATFORM_DEVICE_EXT, device, NULL);
}
*/
import "C"

// Context is a GLES 3 context on an EGL pbuffer, for recording without a
// display server.
type Context struct {
	display C.EGLDisplay
	context C.EGLContext
	surface C.EGLSurface
	width   int
	height  int
	start   time.Time
}

var noDisplay = C.EGLDisplay(C.EGL_NO_DISPLAY)

// openDisplay prefers a device display, which works in GPU containers
// without X or Wayland, and falls back to the default display.
func openDisplay(logger *zap.Logger) (C.EGLDisplay, error) {
	if n := C.device_count(0, nil); n > 0 {
		devices := make([]C.EGLDeviceEXT, n)
		n = C.device_count(n, &devices[0])
		for i := 0; i < int(n); i++ {
			if d := C.device_display(devices[i]); d != noDisplay {
				logger.Debug("Using EGL device display", zap.Int("device", i), zap.Int("devices", int(n)))
				return d, nil
			}
		}
	}

	logger.Warn("No EGL device display, using the default display")
	d := C.eglGetDisplay(C.EGLNativeDisplayType(C.EGL_DEFAULT_DISPLAY))
	if d == noDisplay {
		return noDisplay, errors.New("no EGL display available")
	}
	return d, nil
}

// attribs terminates an EGL attribute list.
func attribs(kv ...C.EGLint) []C.EGLint {
	return append(kv, C.EGL_NONE)
}

// New creates a width x height pbuffer context and makes it current.
func New(width, height int, logger *zap.Logger) (*Context, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	display, err := openDisplay(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to get EGL display: %w", err)
	}
	var major, minor C.EGLint
	if C.eglInitialize(display, &major, &minor) == C.EGL_FALSE {
		return nil, errors.New("failed to initialize EGL")
	}
	logger.Info("EGL initialized", zap.Int("major", int(major)), zap.Int("minor", int(minor)))

	h := &Context{
		display: display,
		context: C.EGLContext(C.EGL_NO_CONTEXT),
		surface: C.EGLSurface(C.EGL_NO_SURFACE),
		width:   width,
		height:  height,
	}
	if err := h.createSurface(); err != nil {
		h.Shutdown()
		return nil, err
	}
	h.MakeCurrent()
	h.start = time.Now()
	return h, nil
}

func (h *Context) createSurface() error {
	want := attribs(
		C.EGL_SURFACE_TYPE, C.EGL_PBUFFER_BIT,
		C.EGL_RENDERABLE_TYPE, C.EGL_OPENGL_ES3_BIT,
		C.EGL_RED_SIZE, 8,
		C.EGL_GREEN_SIZE, 8,
		C.EGL_BLUE_SIZE, 8,
		C.EGL_ALPHA_SIZE, 8,
		C.EGL_DEPTH_SIZE, 24,
	)
	var config C.EGLConfig
	var found C.EGLint
	if C.eglChooseConfig(h.display, &want[0], &config, 1, &found) == C.EGL_FALSE || found == 0 {
		return errors.New("no EGL config with an RGBA8 ES3 pbuffer")
	}

	size := attribs(C.EGL_WIDTH, C.EGLint(h.width), C.EGL_HEIGHT, C.EGLint(h.height))
	h.surface = C.eglCreatePbufferSurface(h.display, config, &size[0])
	if h.surface == C.EGLSurface(C.EGL_NO_SURFACE) {
		return fmt.Errorf("failed to create %dx%d pbuffer surface", h.width, h.height)
	}

	version := attribs(C.EGL_CONTEXT_CLIENT_VERSION, 3)
	h.context = C.eglCreateContext(h.display, config, C.EGLContext(C.EGL_NO_CONTEXT), &version[0])
	if h.context == C.EGLContext(C.EGL_NO_CONTEXT) {
		return errors.New("failed to create GLES 3 context")
	}
	return nil
}

func (h *Context) MakeCurrent() {
	C.eglMakeCurrent(h.display, h.surface, h.surface, h.context)
}

// Shutdown releases the context, the surface and the display.
func (h *Context) Shutdown() {
	if h.display == noDisplay {
		return
	}
	C.eglMakeCurrent(h.display, C.EGLSurface(C.EGL_NO_SURFACE), C.EGLSurface(C.EGL_NO_SURFACE), C.EGLContext(C.EGL_NO_CONTEXT))
	if h.context != C.EGLContext(C.EGL_NO_CONTEXT) {
		C.eglDestroyContext(h.display, h.context)
	}
	if h.surface != C.EGLSurface(C.EGL_NO_SURFACE) {
		C.eglDestroySurface(h.display, h.surface)
	}
	C.eglTerminate(h.display)
	h.display = noDisplay
}

func (h *Context) ShouldClose() bool { return false }

func (h *Context) EndFrame() {
	C.eglSwapBuffers(h.display, h.surface)
}

func (h *Context) PollEvents() {}

func (h *Context) GetFramebufferSize() (int, int) { return h.width, h.height }

func (h *Context) Time() float64 { return time.Since(h.start).Seconds() }

func (h *Context) GetPointer() [2]float32 { return [2]float32{} }

func (h *Context) IsGLES() bool { return true }

var _ graphics.Context = (*Context)(nil)
