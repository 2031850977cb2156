package renderer

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

func (ro RecordOptions) validate() error {
	switch {
	case ro.Width <= 0 || ro.Height <= 0:
		return fmt.Errorf("invalid record size %dx%d", ro.Width, ro.Height)
	case ro.FPS <= 0:
		return fmt.Errorf("invalid record frame rate %d", ro.FPS)
	case ro.Duration <= 0:
		return fmt.Errorf("invalid record duration %v", ro.Duration)
	case ro.OutputFile == "":
		return errors.New("no output file")
	}
	return nil
}

func (ro RecordOptions) totalFrames() int {
	return int(ro.Duration * float64(ro.FPS))
}

// getArgs builds the ffmpeg arguments for raw RGBA frames on stdin. Frames
// are read back bottom row first, so the output is flipped.
func getArgs(goos string, ro RecordOptions) (inputArgs ffmpeg.KwArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", ro.Width, ro.Height),
		"framerate": ro.FPS,
	}

	outputArgs = ffmpeg.KwArgs{
		"vf":      "vflip",
		"pix_fmt": "yuv420p",
		"b:v":     "25M",
	}

	hevc := ro.Codec == "hevc"
	switch goos {
	case "darwin":
		if hevc {
			outputArgs["c:v"] = "hevc_videotoolbox"
		} else {
			outputArgs["c:v"] = "h264_videotoolbox"
		}
	default:
		if hevc {
			outputArgs["c:v"] = "libx265"
		} else {
			outputArgs["c:v"] = "libx264"
		}
	}

	if hevc && strings.HasSuffix(ro.OutputFile, ".mp4") {
		outputArgs["tag:v"] = "hvc1"
	}
	return
}

// RunOffscreen renders ro.Duration seconds at a fixed frame rate into an
// offscreen target and encodes the frames with ffmpeg.
func (r *Renderer) RunOffscreen(ro RecordOptions) error {
	if err := ro.validate(); err != nil {
		return err
	}

	inputArgs, outputArgs := getArgs(runtime.GOOS, ro)
	pipeReader, pipeWriter := io.Pipe()
	ffmpegCmd := ffmpeg.Input("pipe:", inputArgs).
		Output(ro.OutputFile, outputArgs).
		OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()
	if ro.FFmpegPath != "" {
		ffmpegCmd = ffmpegCmd.SetFfmpegPath(ro.FFmpegPath)
	}

	errc := make(chan error, 1)
	go func() {
		err := ffmpegCmd.Run()
		// Unblock the producer if the encoder exits early.
		pipeReader.CloseWithError(errors.New("encoder exited"))
		errc <- err
	}()

	r.log.Info("Starting offscreen render loop",
		zap.String("output", ro.OutputFile),
		zap.Int("frames", ro.totalFrames()),
		zap.Int("fps", ro.FPS))

	renderErr := r.renderFrames(ro, pipeWriter)
	pipeWriter.Close()
	encodeErr := <-errc

	if renderErr != nil {
		return renderErr
	}
	if encodeErr != nil {
		return fmt.Errorf("ffmpeg failed: %w", encodeErr)
	}
	r.log.Info("Recording finished", zap.String("output", ro.OutputFile))
	return nil
}

// renderFrames draws every frame of the recording and writes it to w as
// raw RGBA.
func (r *Renderer) renderFrames(ro RecordOptions, w io.Writer) error {
	if err := r.surface.BeginOffscreen(ro.Width, ro.Height); err != nil {
		return fmt.Errorf("failed to create offscreen target: %w", err)
	}
	defer r.surface.EndOffscreen()

	// BeginOffscreen resized the surface, so draw will not push the size.
	r.assets.PushResolution(ro.Width, ro.Height)

	timeStep := 1.0 / float64(ro.FPS)
	pixels := make([]byte, ro.Width*ro.Height*4)
	for i := 0; i < ro.totalFrames(); i++ {
		r.assets.ProcessEvents()
		r.context.PollEvents()

		r.draw(ro.Width, ro.Height, float64(i)*timeStep, [2]float32{})
		if err := r.surface.ReadPixels(pixels); err != nil {
			return fmt.Errorf("error reading pixels on frame %d: %w", i, err)
		}
		if _, err := w.Write(pixels); err != nil {
			return fmt.Errorf("error writing frame %d: %w", i, err)
		}
	}
	return nil
}
