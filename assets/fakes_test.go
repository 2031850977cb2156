package assets

import (
	"context"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/richinsley/goshdr/media"
)

type fakeLoader struct {
	image  func(ctx context.Context, src string) (image.Image, error)
	video  func(ctx context.Context, src string) (media.Stream, error)
	camera func(ctx context.Context) (media.Stream, error)
}

func (l *fakeLoader) LoadImage(ctx context.Context, src string) (image.Image, error) {
	return l.image(ctx, src)
}

func (l *fakeLoader) OpenVideo(ctx context.Context, src string) (media.Stream, error) {
	return l.video(ctx, src)
}

func (l *fakeLoader) OpenCamera(ctx context.Context) (media.Stream, error) {
	return l.camera(ctx)
}

type fakeStream struct {
	width, height int
	live          bool
	ready         chan struct{}
	readyOnce     sync.Once

	mu     sync.Mutex
	err    error
	frame  []byte
	seq    uint64
	played bool
	closed bool
}

func newFakeStream(width, height int, live bool) *fakeStream {
	return &fakeStream{width: width, height: height, live: live, ready: make(chan struct{})}
}

// push delivers a frame filled with b.
func (s *fakeStream) push(b byte) {
	buf := make([]byte, s.width*s.height*4)
	for i := range buf {
		buf[i] = b
	}
	s.mu.Lock()
	s.frame = buf
	s.seq++
	s.mu.Unlock()
}

// release makes the first frame decodable.
func (s *fakeStream) release() {
	s.push(1)
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *fakeStream) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *fakeStream) Wait(ctx context.Context) error {
	select {
	case <-s.ready:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *fakeStream) Size() (int, int) { return s.width, s.height }

func (s *fakeStream) Frame() ([]byte, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame, s.seq
}

func (s *fakeStream) Play() {
	s.mu.Lock()
	s.played = true
	s.mu.Unlock()
}

func (s *fakeStream) Live() bool { return s.live }

func (s *fakeStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeStream) isPlayed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.played
}

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{200, 100, 50, 255})
		}
	}
	return img
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

// pump processes manager events until cond holds.
func pump(t *testing.T, m *Manager, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for manager events")
		}
		m.ProcessEvents()
		time.Sleep(time.Millisecond)
	}
}
