package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

// probeResult is the subset of ffprobe's JSON output used to size frames.
type probeResult struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// videoSize extracts the dimensions of the first video stream from ffprobe
// JSON.
func videoSize(probeJSON string) (int, int, error) {
	var res probeResult
	if err := json.Unmarshal([]byte(probeJSON), &res); err != nil {
		return 0, 0, fmt.Errorf("failed to parse probe output: %w", err)
	}
	for _, st := range res.Streams {
		if st.CodecType == "video" && st.Width > 0 && st.Height > 0 {
			return st.Width, st.Height, nil
		}
	}
	return 0, 0, errors.New("no video stream found")
}

// parseSize parses WIDTHxHEIGHT.
func parseSize(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q, expected WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("invalid width in size %q", s)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("invalid height in size %q", s)
	}
	return width, height, nil
}

// rawOutputArgs makes ffmpeg emit bottom-up RGBA frames on stdout.
func rawOutputArgs() ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "rgba",
		"vf":      "vflip",
		"an":      "",
	}
}

// videoInputArgs loops the file forever at its native rate, the way a muted
// looping media element plays.
func videoInputArgs() ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"re":          "",
		"stream_loop": "-1",
		"loglevel":    "error",
	}
}

// cameraInput returns the ffmpeg input name and arguments for the platform's
// capture API.
func cameraInput(goos, device, size string, fps int) (string, ffmpeg.KwArgs, error) {
	args := ffmpeg.KwArgs{
		"video_size": size,
		"loglevel":   "error",
	}
	if fps > 0 {
		args["framerate"] = strconv.Itoa(fps)
	}

	switch goos {
	case "darwin":
		args["f"] = "avfoundation"
		if device == "" {
			device = "0"
		}
	case "linux":
		args["f"] = "v4l2"
		if device == "" {
			device = "/dev/video0"
		}
	case "windows":
		args["f"] = "dshow"
		if device == "" {
			return "", nil, errors.New("a camera device name is required on windows")
		}
		if !strings.HasPrefix(device, "video=") {
			device = "video=" + device
		}
	default:
		return "", nil, fmt.Errorf("unsupported OS for camera capture: %s", goos)
	}
	return device, args, nil
}

// stillOutputArgs re-encodes the first frame as PNG so image/png can read it.
func stillOutputArgs() ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"f":        "image2pipe",
		"c:v":      "png",
		"frames:v": "1",
	}
}

// decodeWithFFmpeg pipes data through ffmpeg and decodes the PNG it writes.
func (l *FFmpegLoader) decodeWithFFmpeg(ctx context.Context, data []byte) (image.Image, error) {
	var out, stderr bytes.Buffer
	stream := ffmpeg.Input("pipe:", ffmpeg.KwArgs{"loglevel": "error"}).
		Output("pipe:", stillOutputArgs()).
		WithInput(bytes.NewReader(data)).
		WithOutput(&out).
		WithErrorOutput(&stderr)
	if l.opts.FFmpegPath != "" {
		stream = stream.SetFfmpegPath(l.opts.FFmpegPath)
	}

	cmd := stream.Compile()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = killProcess(cmd) })
	defer stop()
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg could not decode image: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return png.Decode(&out)
}

// OpenVideo probes src and starts decoding it in a loop.
func (l *FFmpegLoader) OpenVideo(ctx context.Context, src string) (Stream, error) {
	probe, err := ffmpeg.Probe(src)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w", src, err)
	}
	width, height, err := videoSize(probe)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w", src, err)
	}

	stream := ffmpeg.Input(src, videoInputArgs()).Output("pipe:", rawOutputArgs())
	return l.start(ctx, stream, width, height, false)
}

// OpenCamera starts capturing from the configured camera.
func (l *FFmpegLoader) OpenCamera(ctx context.Context) (Stream, error) {
	width, height, err := parseSize(l.opts.CameraSize)
	if err != nil {
		return nil, err
	}
	device, inputArgs, err := cameraInput(runtime.GOOS, l.opts.CameraDevice, l.opts.CameraSize, l.opts.CameraFPS)
	if err != nil {
		return nil, err
	}

	stream := ffmpeg.Input(device, inputArgs).Output("pipe:", rawOutputArgs())
	return l.start(ctx, stream, width, height, true)
}

func (l *FFmpegLoader) start(ctx context.Context, stream *ffmpeg.Stream, width, height int, live bool) (Stream, error) {
	pipeReader, pipeWriter := io.Pipe()
	stream = stream.WithOutput(pipeWriter)
	if l.opts.FFmpegPath != "" {
		stream = stream.SetFfmpegPath(l.opts.FFmpegPath)
	}

	cmd := stream.Compile()
	l.log.Debug("Starting ffmpeg", zap.Strings("args", cmd.Args))
	if err := cmd.Start(); err != nil {
		pipeWriter.Close()
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	go func() {
		err := cmd.Wait()
		if err != nil {
			l.log.Debug("ffmpeg exited", zap.Error(err))
			pipeWriter.CloseWithError(fmt.Errorf("ffmpeg exited: %w", err))
			return
		}
		pipeWriter.Close()
	}()

	s := newFrameStream(width, height, live, pipeReader, func() error {
		return killProcess(cmd)
	})

	// ctx bounds the wait for the first frame only.
	go func() {
		select {
		case <-ctx.Done():
			select {
			case <-s.ready:
			default:
				s.Close()
			}
		case <-s.ready:
		case <-s.done:
		}
	}()
	return s, nil
}

func killProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
