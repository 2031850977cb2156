//go:build !linux

package headless

import (
	"errors"

	"go.uber.org/zap"

	"github.com/richinsley/goshdr/graphics"
)

var ErrUnsupported = errors.New("egl headless rendering is not supported on this platform")

// New always fails outside Linux.
func New(width, height int, logger *zap.Logger) (graphics.Context, error) {
	return nil, ErrUnsupported
}
