package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoadImageHTTP(t *testing.T) {
	data := pngBytes(t, 3, 2)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Write(data)
	}))
	defer srv.Close()

	l := NewFFmpegLoader(LoaderOptions{CacheDir: t.TempDir()}, nil)
	img, err := l.LoadImage(context.Background(), srv.URL+"/img.png")
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())

	_, err = l.LoadImage(context.Background(), srv.URL+"/img.png")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "second load should come from the cache")
	assert.FileExists(t, l.cachePath(srv.URL+"/img.png"))
}

func TestLoadImageHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	l := NewFFmpegLoader(LoaderOptions{}, nil)
	_, err := l.LoadImage(context.Background(), srv.URL+"/missing.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code: 404")
}

func TestLoadImageFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 4, 4), 0o644))

	l := NewFFmpegLoader(LoaderOptions{}, nil)
	img, err := l.LoadImage(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())

	img, err = l.LoadImage(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dy())
}

func TestLoadImageFallsBackToFFmpeg(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.avif")
	require.NoError(t, os.WriteFile(path, []byte("avif payload"), 0o644))

	l := NewFFmpegLoader(LoaderOptions{}, nil)
	var got []byte
	l.transcode = func(_ context.Context, data []byte) (image.Image, error) {
		got = data
		return image.NewRGBA(image.Rect(0, 0, 5, 3)), nil
	}
	img, err := l.LoadImage(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte("avif payload"), got)
	assert.Equal(t, 5, img.Bounds().Dx())
}

func TestLoadImageUndecodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.avif")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	l := NewFFmpegLoader(LoaderOptions{}, nil)
	l.transcode = func(context.Context, []byte) (image.Image, error) {
		return nil, errors.New("ffmpeg could not decode image")
	}
	_, err := l.LoadImage(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode image "+path)
	assert.Contains(t, err.Error(), "ffmpeg could not decode image")
}

func TestLoadImageKnownFormatSkipsFFmpeg(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 2, 2), 0o644))

	l := NewFFmpegLoader(LoaderOptions{}, nil)
	l.transcode = func(context.Context, []byte) (image.Image, error) {
		t.Fatal("ffmpeg used for a png")
		return nil, nil
	}
	_, err := l.LoadImage(context.Background(), path)
	require.NoError(t, err)
}

func TestCacheDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CACHE_HOME is only honored on linux")
	}
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)

	dir, err := CacheDir("images")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "goshdr", "images"), dir)
	assert.DirExists(t, dir)
}

func TestFlippedRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(0, 1, color.RGBA{0, 0, 255, 255})

	out := FlippedRGBA(img)
	assert.Equal(t, []byte{0, 0, 255, 255, 255, 0, 0, 255}, out.Pix)
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, n := range []int{1, 2, 64, 1024} {
		assert.True(t, IsPowerOfTwo(n), n)
	}
	for _, n := range []int{0, -2, 3, 640} {
		assert.False(t, IsPowerOfTwo(n), n)
	}
}
