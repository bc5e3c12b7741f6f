// Package cv backs the frame engine with OpenCV through gocv.
package cv

import (
	"fmt"

	"gocv.io/x/gocv"

	"cameo/video/frame"
)

func matType(channels int) (gocv.MatType, error) {
	switch channels {
	case 1:
		return gocv.MatTypeCV8UC1, nil
	case 3:
		return gocv.MatTypeCV8UC3, nil
	}
	return 0, fmt.Errorf("unsupported channel count %d", channels)
}

// ToMat copies f into a new Mat. The caller closes it.
func ToMat(f *frame.Frame) (gocv.Mat, error) {
	mt, err := matType(f.Channels)
	if err != nil {
		return gocv.NewMat(), err
	}
	return gocv.NewMatFromBytes(f.Height, f.Width, mt, f.Pix)
}

// FromMat copies an 8-bit Mat into dst, which must match its shape.
func FromMat(m gocv.Mat, dst *frame.Frame) error {
	if m.Cols() != dst.Width || m.Rows() != dst.Height || m.Channels() != dst.Channels {
		return fmt.Errorf("%w: mat %dx%dx%d, frame %dx%dx%d", frame.ErrShapeMismatch,
			m.Cols(), m.Rows(), m.Channels(), dst.Width, dst.Height, dst.Channels)
	}
	b := m.ToBytes()
	if len(b) != dst.Len() {
		return fmt.Errorf("%w: mat holds %d bytes, frame %d", frame.ErrShapeMismatch, len(b), dst.Len())
	}
	copy(dst.Pix, b)
	return nil
}

// NewFrameFromMat allocates a frame shaped like m and copies it in.
func NewFrameFromMat(m gocv.Mat) (*frame.Frame, error) {
	if m.Channels() != 1 && m.Channels() != 3 {
		return nil, fmt.Errorf("unsupported channel count %d", m.Channels())
	}
	f := frame.New(m.Cols(), m.Rows(), m.Channels())
	return f, FromMat(m, f)
}

// Encode compresses f into the image format named by ext, such as ".png" or
// ".jpg".
func Encode(ext string, f *frame.Frame) ([]byte, error) {
	m, err := ToMat(f)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	buf, err := gocv.IMEncode(gocv.FileExt(ext), m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ext, err)
	}
	defer buf.Close()
	// GetBytes aliases native memory released by Close.
	return append([]byte(nil), buf.GetBytes()...), nil
}
