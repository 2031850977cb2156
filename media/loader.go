package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	// Decoders registered with image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const userAgent = "goshdr (+https://github.com/richinsley/goshdr)"

// LoaderOptions configures an FFmpegLoader.
type LoaderOptions struct {
	// FFmpegPath overrides the ffmpeg binary found on PATH.
	FFmpegPath string
	// CacheDir stores downloaded images. Empty disables the cache.
	CacheDir string
	// CameraDevice names the capture device; empty picks the platform default.
	CameraDevice string
	// CameraSize is the capture resolution as WIDTHxHEIGHT.
	CameraSize string
	CameraFPS  int
	Client     *http.Client
}

// FFmpegLoader fetches images over HTTP or from disk and decodes video and
// camera input with an ffmpeg child process.
type FFmpegLoader struct {
	opts   LoaderOptions
	client *http.Client
	log    *zap.Logger
	// transcode decodes stills image.Decode has no decoder for.
	transcode func(ctx context.Context, data []byte) (image.Image, error)
}

type headerTransport struct {
	Transport http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	return t.Transport.RoundTrip(req)
}

// NewFFmpegLoader returns a loader. A nil logger discards output.
func NewFFmpegLoader(opts LoaderOptions, logger *zap.Logger) *FFmpegLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CameraSize == "" {
		opts.CameraSize = "640x480"
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{
			Transport: &headerTransport{Transport: http.DefaultTransport},
		}
	}
	l := &FFmpegLoader{opts: opts, client: client, log: logger}
	l.transcode = l.decodeWithFFmpeg
	return l
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// LoadImage decodes src, which is an http(s) URL, a file:// URL or a path.
func (l *FFmpegLoader) LoadImage(ctx context.Context, src string) (image.Image, error) {
	var data []byte
	var err error
	if isRemote(src) {
		data, err = l.fetch(ctx, src)
	} else {
		data, err = os.ReadFile(strings.TrimPrefix(src, "file://"))
	}
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		// AVIF and other formats without a registered decoder.
		l.log.Debug("Decoding image with ffmpeg", zap.String("source", src))
		img, err = l.transcode(ctx, data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", src, err)
	}
	return img, nil
}

// cachePath maps a URL to a file in the cache directory, keeping the
// extension so cached files stay recognizable.
func (l *FFmpegLoader) cachePath(src string) string {
	sum := sha256.Sum256([]byte(src))
	ext := ""
	if u, err := url.Parse(src); err == nil {
		ext = path.Ext(u.Path)
	}
	return filepath.Join(l.opts.CacheDir, hex.EncodeToString(sum[:8])+ext)
}

func (l *FFmpegLoader) fetch(ctx context.Context, src string) ([]byte, error) {
	var cachePath string
	if l.opts.CacheDir != "" {
		cachePath = l.cachePath(src)
		if data, err := os.ReadFile(cachePath); err == nil {
			l.log.Debug("Using cached media", zap.String("source", src), zap.String("path", cachePath))
			return data, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", src, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download media %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to load media %s, status code: %d", src, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read media data from %s: %w", src, err)
	}

	if cachePath != "" {
		if err := os.WriteFile(cachePath, data, 0o644); err != nil {
			l.log.Warn("Failed to save media to cache", zap.String("path", cachePath), zap.Error(err))
		}
	}
	return data, nil
}

// CacheDir returns goshdr's directory for subdir under the user cache
// directory, creating it.
func CacheDir(subdir string) (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("no user cache directory: %w", err)
	}
	dir := filepath.Join(base, "goshdr", subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return dir, nil
}

var _ Loader = (*FFmpegLoader)(nil)
