package media

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// frameStream splits a raw RGBA byte stream into fixed size frames and keeps
// only the most recent one.
type frameStream struct {
	width, height int
	live          bool
	src           io.ReadCloser
	kill          func() error

	mu    sync.Mutex
	frame []byte
	seq   uint64
	err   error

	ready     chan struct{}
	readyOnce sync.Once
	play      chan struct{}
	playOnce  sync.Once
	stop      chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
}

func newFrameStream(width, height int, live bool, src io.ReadCloser, kill func() error) *frameStream {
	s := &frameStream{
		width:  width,
		height: height,
		live:   live,
		src:    src,
		kill:   kill,
		ready:  make(chan struct{}),
		play:   make(chan struct{}),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *frameStream) frameSize() int {
	return s.width * s.height * 4
}

func (s *frameStream) readLoop() {
	defer close(s.done)

	for {
		buf := make([]byte, s.frameSize())
		if _, err := io.ReadFull(s.src, buf); err != nil {
			s.mu.Lock()
			select {
			case <-s.stop:
				s.err = ErrClosed
			default:
				if err == io.EOF || err == io.ErrUnexpectedEOF {
					err = fmt.Errorf("stream ended after %d frames: %w", s.seq, err)
				}
				s.err = err
			}
			s.mu.Unlock()
			return
		}

		s.mu.Lock()
		s.frame = buf
		s.seq++
		first := s.seq == 1
		s.mu.Unlock()

		if first {
			s.readyOnce.Do(func() { close(s.ready) })
			select {
			case <-s.play:
			case <-s.stop:
				return
			}
		}
	}
}

func (s *frameStream) Wait(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	default:
	}
	select {
	case <-s.ready:
		return nil
	case <-s.done:
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.seq > 0 {
			return nil
		}
		return s.err
	case <-s.stop:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *frameStream) Size() (int, int) {
	return s.width, s.height
}

func (s *frameStream) Frame() ([]byte, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame, s.seq
}

func (s *frameStream) Play() {
	s.playOnce.Do(func() { close(s.play) })
}

func (s *frameStream) Live() bool {
	return s.live
}

// Err returns the error that ended decoding, if any.
func (s *frameStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *frameStream) Close() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stop)
		if s.kill != nil {
			err = s.kill()
		}
		if cerr := s.src.Close(); err == nil {
			err = cerr
		}
	})
	return err
}
