// Package media fetches and decodes the pixel sources that texture uniforms
// are bound to: still images, looping video files and the camera.
package media

import (
	"context"
	"errors"
	"image"
)

// ErrClosed is returned by Stream.Wait after Close.
var ErrClosed = errors.New("media: stream closed")

// Loader opens pixel sources. Implementations must be safe for concurrent
// use; every method may block and is called off the render thread.
type Loader interface {
	LoadImage(ctx context.Context, src string) (image.Image, error)
	OpenVideo(ctx context.Context, src string) (Stream, error)
	OpenCamera(ctx context.Context) (Stream, error)
}

// Stream is a source of RGBA frames whose rows run bottom to top.
type Stream interface {
	// Wait blocks until the first frame is decodable or the stream fails.
	Wait(ctx context.Context) error
	// Size returns the frame dimensions in pixels.
	Size() (width, height int)
	// Frame returns the latest frame and a sequence number that increases
	// each time a new frame arrives. The slice must not be modified.
	Frame() ([]byte, uint64)
	// Play lets decoding continue past the first frame.
	Play()
	// Live reports whether the stream is a capture device rather than a file.
	Live() bool
	// Close stops decoding and releases the source.
	Close() error
}
