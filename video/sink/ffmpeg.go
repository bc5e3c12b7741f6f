package sink

import (
	"fmt"
	"image"
	"os/exec"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"cameo/video/frame"
	"cameo/video/session"
)

// FFmpegFactory creates encoders that pipe raw BGR frames to an ffmpeg
// process.
type FFmpegFactory struct {
	// Path to the ffmpeg binary.
	Path string
}

var _ session.EncoderFactory = FFmpegFactory{}

// codecArgs maps a four-character encoding onto ffmpeg output options.
func codecArgs(encoding string) ([]string, error) {
	switch strings.ToUpper(encoding) {
	case "I420", "IYUV":
		return []string{"-c:v", "rawvideo", "-pix_fmt", "yuv420p"}, nil
	case "MJPG":
		return []string{"-c:v", "mjpeg", "-q:v", "3"}, nil
	case "XVID", "DIVX", "MP4V", "FMP4":
		return []string{"-c:v", "mpeg4", "-q:v", "5"}, nil
	case "H264", "X264", "AVC1":
		// "preset" can be lowered if the system is too slow to keep up.
		return []string{"-c:v", "libx264", "-preset", "superfast", "-crf", "30", "-pix_fmt", "yuv420p"}, nil
	}
	return nil, fmt.Errorf("no ffmpeg codec for encoding %q", encoding)
}

func ffmpegArgs(path, encoding string, fps float64, size image.Point) ([]string, error) {
	codec, err := codecArgs(encoding)
	if err != nil {
		return nil, err
	}
	args := []string{
		"-loglevel", "error",
		"-y",
		// Read raw frames from stdin.
		"-f", "rawvideo",
		"-pixel_format", "bgr24",
		"-video_size", fmt.Sprintf("%dx%d", size.X, size.Y),
		"-framerate", fmt.Sprintf("%.3f", fps),
		"-i", "-",
	}
	args = append(args, codec...)
	if strings.HasSuffix(strings.ToLower(path), ".mp4") {
		// Lets browsers play the file before it is fully downloaded.
		args = append(args, "-movflags", "+faststart")
	}
	return append(args, path), nil
}

func (x FFmpegFactory) NewEncoder(path, encoding string, fps float64, size image.Point) (session.Encoder, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("invalid video size %v", size)
	}
	args, err := ffmpegArgs(path, encoding, fps, size)
	if err != nil {
		return nil, err
	}
	c := exec.Command(x.Path, args...)
	stderr := log.WithField("path", path).WriterLevel(log.WarnLevel)
	c.Stderr = stderr
	pipe, err := c.StdinPipe()
	if err != nil {
		stderr.Close()
		return nil, fmt.Errorf("ffmpeg stdin: %w", err)
	}
	if err := c.Start(); err != nil {
		stderr.Close()
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	f := &FFmpeg{
		size:   size,
		b:      make(chan []byte, 4),
		exited: make(chan struct{}),
	}
	go func() {
		defer close(f.exited)
		defer stderr.Close()
		for b := range f.b {
			if _, err := pipe.Write(b); err != nil {
				f.fail(fmt.Errorf("write to ffmpeg: %w", err))
				break
			}
		}
		pipe.Close()
		log.WithField("path", path).Debug("Waiting for ffmpeg shutdown")
		if err := c.Wait(); err != nil {
			f.fail(fmt.Errorf("ffmpeg exited: %w", err))
		}
	}()
	return f, nil
}

// FFmpeg is a running ffmpeg encoder. Frames are copied and written by a
// background goroutine; failures surface on the next Write or on Close.
type FFmpeg struct {
	size   image.Point
	b      chan []byte
	exited chan struct{}
	closed bool

	l   sync.Mutex
	err error
}

func (f *FFmpeg) fail(err error) {
	f.l.Lock()
	defer f.l.Unlock()
	if f.err == nil {
		f.err = err
	}
}

func (f *FFmpeg) failure() error {
	f.l.Lock()
	defer f.l.Unlock()
	return f.err
}

// bgr returns a copy of in as interleaved BGR.
func bgr(in *frame.Frame) []byte {
	if !in.IsGray() {
		return append([]byte(nil), in.Pix...)
	}
	out := make([]byte, 0, len(in.Pix)*3)
	for _, v := range in.Pix {
		out = append(out, v, v, v)
	}
	return out
}

func (f *FFmpeg) Write(in *frame.Frame) error {
	if f.closed {
		return fmt.Errorf("write to closed ffmpeg encoder")
	}
	if err := f.failure(); err != nil {
		return err
	}
	if in.Size() != f.size {
		return fmt.Errorf("%w: frame %v, video %v", frame.ErrShapeMismatch, in.Size(), f.size)
	}
	select {
	case f.b <- bgr(in):
		return nil
	case <-f.exited:
		if err := f.failure(); err != nil {
			return err
		}
		return fmt.Errorf("ffmpeg exited early")
	}
}

// Close flushes pending frames and waits for ffmpeg to finish the file.
func (f *FFmpeg) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	close(f.b)
	<-f.exited
	return f.failure()
}
