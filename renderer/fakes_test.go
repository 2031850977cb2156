package renderer

import (
	"errors"
)

type fakeContext struct {
	now           float64
	width, height int
	pointer       [2]float32
	closeAfter    int

	frames  int
	polls   int
	current int
}

func (c *fakeContext) MakeCurrent()                   { c.current++ }
func (c *fakeContext) Shutdown()                      {}
func (c *fakeContext) ShouldClose() bool              { return c.frames >= c.closeAfter }
func (c *fakeContext) EndFrame()                      { c.frames++; c.now += 0.5 }
func (c *fakeContext) PollEvents()                    { c.polls++ }
func (c *fakeContext) GetFramebufferSize() (int, int) { return c.width, c.height }
func (c *fakeContext) Time() float64                  { return c.now }
func (c *fakeContext) GetPointer() [2]float32         { return c.pointer }
func (c *fakeContext) IsGLES() bool                   { return false }

type fakeSurface struct {
	width, height int
	draws         int
	reads         int
	offscreen     bool
	destroyed     bool
	beginErr      error
}

func (s *fakeSurface) Resize(width, height int) bool {
	if width == s.width && height == s.height {
		return false
	}
	s.width, s.height = width, height
	return true
}

func (s *fakeSurface) Draw() { s.draws++ }

func (s *fakeSurface) BeginOffscreen(width, height int) error {
	if s.beginErr != nil {
		return s.beginErr
	}
	if s.offscreen {
		return errors.New("offscreen target already active")
	}
	s.offscreen = true
	s.width, s.height = 0, 0
	s.Resize(width, height)
	return nil
}

// ReadPixels fills dst with the number of the frame drawn last.
func (s *fakeSurface) ReadPixels(dst []byte) error {
	s.reads++
	for i := range dst {
		dst[i] = byte(s.draws)
	}
	return nil
}

func (s *fakeSurface) EndOffscreen() { s.offscreen = false }

func (s *fakeSurface) Destroy() { s.destroyed = true }
