package cv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"cameo/video/frame"
	"cameo/video/session"
)

// VideoWriterFactory creates encoders backed by OpenCV's VideoWriter, using
// the session's four-character encoding as the codec.
type VideoWriterFactory struct{}

var _ session.EncoderFactory = VideoWriterFactory{}

func (VideoWriterFactory) NewEncoder(path, encoding string, fps float64, size image.Point) (session.Encoder, error) {
	if len(encoding) != 4 {
		return nil, fmt.Errorf("codec %q is not a four-character code", encoding)
	}
	w, err := gocv.VideoWriterFile(path, encoding, fps, size.X, size.Y, true)
	if err != nil {
		return nil, err
	}
	if !w.IsOpened() {
		w.Close()
		return nil, fmt.Errorf("video writer for %q with codec %s did not open", path, encoding)
	}
	return &VideoFile{writer: w}, nil
}

// VideoFile wraps an open VideoWriter. Gray frames are expanded to color.
type VideoFile struct {
	writer *gocv.VideoWriter
}

func (v *VideoFile) Write(f *frame.Frame) error {
	m, err := ToMat(f)
	if err != nil {
		return err
	}
	defer m.Close()
	if f.IsGray() {
		c := gocv.NewMat()
		defer c.Close()
		gocv.CvtColor(m, &c, gocv.ColorGrayToBGR)
		return v.writer.Write(c)
	}
	return v.writer.Write(m)
}

func (v *VideoFile) Close() error {
	return v.writer.Close()
}
