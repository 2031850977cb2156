package canvas

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// offscreenTarget is an RGBA8 framebuffer used while recording.
type offscreenTarget struct {
	fbo               uint32
	textureID         uint32
	depthRenderbuffer uint32
	width             int
	height            int
}

func newOffscreenTarget(width, height int) (*offscreenTarget, error) {
	t := &offscreenTarget{width: width, height: height}

	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.GenTextures(1, &t.textureID)
	gl.BindTexture(gl.TEXTURE_2D, t.textureID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.textureID, 0)
	gl.GenRenderbuffers(1, &t.depthRenderbuffer)
	gl.BindRenderbuffer(gl.RENDERBUFFER, t.depthRenderbuffer)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(width), int32(height))
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, t.depthRenderbuffer)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		t.destroy()
		return nil, fmt.Errorf("offscreen fbo is not complete: 0x%x", status)
	}
	return t, nil
}

func (t *offscreenTarget) destroy() {
	gl.DeleteFramebuffers(1, &t.fbo)
	gl.DeleteTextures(1, &t.textureID)
	gl.DeleteRenderbuffers(1, &t.depthRenderbuffer)
}

// BeginOffscreen redirects drawing into a width x height framebuffer until
// EndOffscreen.
func (c *Canvas) BeginOffscreen(width, height int) error {
	if c.target != nil {
		return fmt.Errorf("offscreen target already active")
	}
	t, err := newOffscreenTarget(width, height)
	if err != nil {
		return err
	}
	c.target = t
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	c.width, c.height = 0, 0
	c.Resize(width, height)
	return nil
}

// ReadPixels copies the current frame as RGBA8 into dst, bottom row first.
// dst must hold width*height*4 bytes.
func (c *Canvas) ReadPixels(dst []byte) error {
	if need := c.width * c.height * 4; len(dst) < need {
		return fmt.Errorf("pixel buffer too small: %d < %d", len(dst), need)
	}
	if c.target != nil {
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, c.target.fbo)
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(c.width), int32(c.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(dst))
	return nil
}

// EndOffscreen restores the default framebuffer and frees the target.
func (c *Canvas) EndOffscreen() {
	if c.target == nil {
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	c.target.destroy()
	c.target = nil
}
