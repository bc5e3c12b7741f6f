// Package source opens capture devices: cameras by index, or video files and
// stream URLs by name.
package source

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"cameo/video/cv"
	"cameo/video/frame"
	"cameo/video/session"
)

// Capture is a session.Device backed by an OpenCV VideoCapture. Grab reads
// into a reusable Mat; Decode copies it into a pooled Frame.
type Capture struct {
	URI string

	cap  *gocv.VideoCapture
	mat  gocv.Mat
	pool *frame.Pool

	grabbed bool
	fails   int
}

var (
	_ session.Device        = (*Capture)(nil)
	_ session.FrameReleaser = (*Capture)(nil)
)

// OpenCapture opens uri, which is either a camera index such as "0" or a file
// or stream name.
func OpenCapture(uri string) (*Capture, error) {
	c, err := gocv.OpenVideoCapture(uri)
	if err != nil {
		return nil, fmt.Errorf("open video capture %q: %w", uri, err)
	}
	if !c.IsOpened() {
		c.Close()
		return nil, fmt.Errorf("open video capture %q: device not opened", uri)
	}
	v := &Capture{
		URI:  uri,
		cap:  c,
		mat:  gocv.NewMat(),
		pool: frame.NewPool(),
	}
	log.WithFields(log.Fields{
		"uri":    uri,
		"fps":    v.Get(session.PropFPS),
		"width":  v.Get(session.PropWidth),
		"height": v.Get(session.PropHeight),
	}).Info("Video capture opened")
	return v, nil
}

func (v *Capture) Grab() bool {
	v.grabbed = v.cap.Read(&v.mat) && !v.mat.Empty()
	if !v.grabbed {
		v.fails++
		// Log the first failure of a streak, then every hundredth.
		if v.fails%100 == 1 {
			log.WithFields(log.Fields{"uri": v.URI, "failures": v.fails}).Warn("Read failure")
		}
		return false
	}
	v.fails = 0
	return true
}

func (v *Capture) Decode() (*frame.Frame, bool) {
	if !v.grabbed {
		return nil, false
	}
	v.grabbed = false
	f := v.pool.Get(v.mat.Cols(), v.mat.Rows(), v.mat.Channels())
	if err := cv.FromMat(v.mat, f); err != nil {
		log.WithField("uri", v.URI).Errorf("Failed to decode frame: %v", err)
		v.pool.Put(f)
		return nil, false
	}
	return f, true
}

func (v *Capture) Release(f *frame.Frame) {
	v.pool.Put(f)
}

func (v *Capture) Get(p session.Property) float64 {
	switch p {
	case session.PropFPS:
		return v.cap.Get(gocv.VideoCaptureFPS)
	case session.PropWidth:
		return v.cap.Get(gocv.VideoCaptureFrameWidth)
	case session.PropHeight:
		return v.cap.Get(gocv.VideoCaptureFrameHeight)
	}
	return 0
}

func (v *Capture) Close() error {
	v.mat.Close()
	return v.cap.Close()
}
