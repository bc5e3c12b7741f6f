// Package session drives the capture cycle: grab a frame, let the caller
// process it, then preview and persist it before releasing the buffer.
package session

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"cameo/video/frame"
)

var (
	// ErrCaptureFailed means the device didn't produce a frame this cycle.
	// The cycle is skipped; the next one may succeed.
	ErrCaptureFailed = errors.New("frame grab failed")
	// ErrNoFrame means a grab succeeded but decoding produced nothing.
	ErrNoFrame = errors.New("no frame decoded")
)

// IsTransient reports whether err only means this cycle was skipped.
func IsTransient(err error) bool {
	return errors.Is(err, ErrCaptureFailed) || errors.Is(err, ErrNoFrame)
}

type State int

const (
	Idle State = iota
	FrameEntered
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FrameEntered:
		return "frame-entered"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Property identifies a numeric device property.
type Property int

const (
	PropFPS Property = iota
	PropWidth
	PropHeight
)

// Device is a frame source. Grab reserves the next frame; Decode materializes
// the most recent grab.
type Device interface {
	Grab() bool
	Decode() (*frame.Frame, bool)
	// Get returns a property, or 0 when the device doesn't know it.
	Get(p Property) float64
}

// FrameReleaser is implemented by devices that recycle decoded frames.
type FrameReleaser interface {
	Release(f *frame.Frame)
}

// Previewer displays frames. Show must not keep f after returning.
type Previewer interface {
	Show(f *frame.Frame)
}

type ImageWriter interface {
	WriteImage(path string, f *frame.Frame) error
}

// Encoder appends frames to a video file.
type Encoder interface {
	Write(f *frame.Frame) error
	Close() error
}

type EncoderFactory interface {
	NewEncoder(path, encoding string, fps float64, size image.Point) (Encoder, error)
}

// Listener is told about files the session writes.
type Listener interface {
	SnapshotWritten(path string)
	VideoStarted(path string, fps float64)
	VideoStopped(path string, frames int)
}

type Options struct {
	Preview       Previewer
	MirrorPreview bool

	Images   ImageWriter
	Encoders EncoderFactory

	Listeners []Listener
	Metrics   *Metrics

	// Now defaults to time.Now.
	Now func() time.Time
}

// Session owns a device, the frame of the current cycle and the video
// encoder. It is not safe for concurrent use; run one cycle at a time.
type Session struct {
	device Device
	opts   Options
	sinks  Sinks

	state   State
	frame   *frame.Frame
	decoded bool

	rate RateEstimate

	encoder     Encoder
	encoderPath string
	videoFrames int
}

func New(device Device, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	return &Session{
		device: device,
		opts:   opts,
	}
}

func (s *Session) State() State {
	return s.state
}

// SetPreview replaces the preview target; nil disables previewing.
func (s *Session) SetPreview(p Previewer, mirror bool) {
	s.opts.Preview = p
	s.opts.MirrorPreview = mirror
}

// Enter grabs the next frame. It returns ErrCaptureFailed, leaving the
// session idle, when the device has nothing. Calling Enter twice without Exit
// panics.
func (s *Session) Enter() error {
	if s.state != Idle {
		log.WithField("state", s.state).Panic("Enter called with no matching Exit for the previous frame")
	}
	if !s.device.Grab() {
		s.opts.Metrics.Skipped.WithLabelValues("grab").Inc()
		log.Debug("Frame grab failed, skipping cycle")
		return ErrCaptureFailed
	}
	s.state = FrameEntered
	s.frame = nil
	s.decoded = false
	return nil
}

// Frame returns the frame of the current cycle, decoding it on first access.
// It returns false outside a cycle or when decoding produced nothing.
func (s *Session) Frame() (*frame.Frame, bool) {
	if s.state != FrameEntered {
		return nil, false
	}
	if !s.decoded {
		s.decoded = true
		if f, ok := s.device.Decode(); ok && f != nil {
			if f.Time.IsZero() {
				f.Time = s.opts.Now()
			}
			s.frame = f
		}
	}
	return s.frame, s.frame != nil
}

// Exit finishes the cycle: updates the rate estimate, previews the frame,
// writes any pending snapshot, appends to the active video and releases the
// frame. A cycle without a decoded frame just returns to idle. Sink failures
// are returned after the frame is released. Calling Exit while idle panics.
func (s *Session) Exit() error {
	if s.state != FrameEntered {
		log.WithField("state", s.state).Panic("Exit called without a matching Enter")
	}
	defer s.release()

	f := s.frame
	if f == nil {
		reason := "decode"
		if !s.decoded {
			reason = "unread"
		}
		s.opts.Metrics.Skipped.WithLabelValues(reason).Inc()
		log.WithField("reason", reason).Debug("No frame to exit, skipping cycle")
		return nil
	}

	s.rate.Tick(s.opts.Now())
	s.opts.Metrics.Cycles.Inc()
	if fps, ok := s.rate.FPS(); ok {
		s.opts.Metrics.FPS.Set(fps)
	}

	if s.opts.Preview != nil {
		if s.opts.MirrorPreview {
			s.opts.Preview.Show(f.Mirror())
		} else {
			s.opts.Preview.Show(f)
		}
	}

	var errs []error
	if err := s.writeSnapshot(f); err != nil {
		errs = append(errs, err)
	}
	if err := s.writeVideoFrame(f); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Session) release() {
	if s.frame != nil {
		if r, ok := s.device.(FrameReleaser); ok {
			r.Release(s.frame)
		}
	}
	s.frame = nil
	s.decoded = false
	s.state = Idle
}

// Do runs one full cycle, calling process with the decoded frame. Exit runs on
// every path once Enter has succeeded, including when process fails or
// panics.
func (s *Session) Do(process func(f *frame.Frame) error) (err error) {
	if err := s.Enter(); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.Exit())
	}()

	f, ok := s.Frame()
	if !ok {
		return ErrNoFrame
	}
	if process != nil {
		if err := process(f); err != nil {
			return fmt.Errorf("process frame: %w", err)
		}
	}
	return nil
}

func (s *Session) writeSnapshot(f *frame.Frame) error {
	path := s.sinks.takeSnapshot()
	if path == "" {
		return nil
	}
	l := log.WithField("path", path)
	if s.opts.Images == nil {
		s.opts.Metrics.SnapshotErrors.Inc()
		return fmt.Errorf("write snapshot %q: no image writer configured", path)
	}
	if err := s.opts.Images.WriteImage(path, f); err != nil {
		s.opts.Metrics.SnapshotErrors.Inc()
		l.Errorf("Failed to write snapshot: %v", err)
		return fmt.Errorf("write snapshot %q: %w", path, err)
	}
	s.opts.Metrics.Snapshots.Inc()
	l.WithField("frame", s.rate.Elapsed()-1).Info("Snapshot written")
	for _, lis := range s.opts.Listeners {
		lis.SnapshotWritten(path)
	}
	return nil
}

// videoRate picks the rate for a new encoder: the device's own rate when it
// reports one, otherwise the estimate once it is stable.
func (s *Session) videoRate() (float64, bool) {
	if fps := s.device.Get(PropFPS); fps > 0 {
		return fps, true
	}
	if s.rate.Elapsed() < StableCycles {
		return 0, false
	}
	fps, ok := s.rate.FPS()
	if !ok || math.IsInf(fps, 0) {
		return 0, false
	}
	return fps, true
}

func (s *Session) writeVideoFrame(f *frame.Frame) error {
	if !s.sinks.IsVideoActive() {
		return nil
	}
	path := s.sinks.VideoPath()
	l := log.WithField("path", path)

	if s.encoder == nil {
		fps, ok := s.videoRate()
		if !ok {
			l.WithField("cycles", s.rate.Elapsed()).Debug("Frame rate unknown, deferring video until the estimate settles")
			return nil
		}
		// Dimensions are fixed here for the life of the encoder.
		size := image.Point{
			X: int(s.device.Get(PropWidth)),
			Y: int(s.device.Get(PropHeight)),
		}
		if size.X <= 0 || size.Y <= 0 {
			size = f.Size()
		}
		if s.opts.Encoders == nil {
			s.sinks.EndVideo()
			return fmt.Errorf("start video %q: no encoder configured", path)
		}
		enc, err := s.opts.Encoders.NewEncoder(path, s.sinks.VideoEncoding(), fps, size)
		if err != nil {
			s.sinks.EndVideo()
			l.Errorf("Failed to start video: %v", err)
			return fmt.Errorf("start video %q: %w", path, err)
		}
		s.encoder = enc
		s.encoderPath = path
		s.videoFrames = 0
		l.WithFields(log.Fields{"fps": fps, "size": size, "encoding": s.sinks.VideoEncoding()}).Info("Video started")
		for _, lis := range s.opts.Listeners {
			lis.VideoStarted(path, fps)
		}
	}

	if err := s.encoder.Write(f); err != nil {
		l.Errorf("Failed to append video frame, stopping video: %v", err)
		return errors.Join(fmt.Errorf("append frame to %q: %w", path, err), s.stopVideo())
	}
	s.videoFrames++
	s.opts.Metrics.VideoFrames.Inc()
	return nil
}

// stopVideo releases the encoder, if any, and clears the video request.
func (s *Session) stopVideo() error {
	s.sinks.EndVideo()
	if s.encoder == nil {
		return nil
	}
	err := s.encoder.Close()
	path, frames := s.encoderPath, s.videoFrames
	s.encoder = nil
	s.encoderPath = ""
	s.videoFrames = 0

	l := log.WithFields(log.Fields{"path": path, "frames": frames})
	if err != nil {
		l.Errorf("Failed to finalize video: %v", err)
		err = fmt.Errorf("close video %q: %w", path, err)
	} else {
		l.Info("Video stopped")
	}
	for _, lis := range s.opts.Listeners {
		lis.VideoStopped(path, frames)
	}
	return err
}

// RequestSnapshot writes the next exited frame to path.
func (s *Session) RequestSnapshot(path string) {
	s.sinks.RequestSnapshot(path)
}

// BeginVideo starts writing exited frames to path. The encoder is created
// once a frame rate is known. An encoder already running is finalized first.
func (s *Session) BeginVideo(path, encoding string) error {
	err := s.stopVideo()
	s.sinks.BeginVideo(path, encoding)
	return err
}

// EndVideo stops writing video and releases the encoder.
func (s *Session) EndVideo() error {
	return s.stopVideo()
}

func (s *Session) IsSnapshotPending() bool {
	return s.sinks.IsSnapshotPending()
}

func (s *Session) IsVideoActive() bool {
	return s.sinks.IsVideoActive()
}

// IsEncoding reports whether a video encoder has been created.
func (s *Session) IsEncoding() bool {
	return s.encoder != nil
}

// FPS returns the estimated frame rate, and false before one exists.
func (s *Session) FPS() (float64, bool) {
	return s.rate.FPS()
}

// FramesElapsed is the number of completed cycles.
func (s *Session) FramesElapsed() int64 {
	return s.rate.Elapsed()
}

// Close finalizes any video, releases a frame still held and closes the
// device if it is an io.Closer.
func (s *Session) Close() error {
	errs := []error{s.stopVideo()}
	if s.state == FrameEntered {
		s.release()
	}
	if c, ok := s.device.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
