package graphics

// Context defines the interface for the window and OpenGL context a canvas
// draws into.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	// EndFrame presents the frame and polls window events.
	EndFrame()
	// PollEvents processes window events without presenting.
	PollEvents()
	GetFramebufferSize() (int, int)
	// Time returns seconds on a monotonic clock.
	Time() float64
	// GetPointer returns the cursor position in framebuffer pixels with the
	// origin at the bottom-left corner.
	GetPointer() [2]float32
	IsGLES() bool
}
