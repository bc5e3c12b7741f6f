package sink

import (
	"image"
	"time"

	"cameo/video/frame"
	"cameo/video/session"
)

// FPSNormalize wraps an Encoder so that a stream of variable-timed frames is
// written at a fixed rate. Frames are dropped or repeated, based on Frame.Time,
// to hit the target rate. Webcams rarely deliver a steady rate but most
// containers assume one.
type FPSNormalize struct {
	enc session.Encoder

	frameDur time.Duration
	last     *frame.Frame
	curFrame time.Time
}

// NewFPSNormalize wraps enc, writing at the given frame rate.
func NewFPSNormalize(enc session.Encoder, fps float64) *FPSNormalize {
	return &FPSNormalize{
		enc:      enc,
		frameDur: time.Duration(float64(time.Second) / fps),
	}
}

func (f *FPSNormalize) Close() error {
	f.last = nil
	return f.enc.Close()
}

func (f *FPSNormalize) remember(input *frame.Frame) {
	if f.last == nil || !f.last.SameShape(input) {
		f.last = input.NewLike()
	}
	input.CopyTo(f.last)
}

func (f *FPSNormalize) Write(input *frame.Frame) error {
	if f.curFrame.IsZero() {
		f.curFrame = input.Time
		f.remember(input)
		return f.enc.Write(input)
	}

	nextFrame := f.curFrame.Add(f.frameDur)
	if input.Time.Before(nextFrame) {
		// Don't need a new frame yet.
		return nil
	}

	for {
		f.curFrame = nextFrame
		nextFrame = f.curFrame.Add(f.frameDur)
		if input.Time.Before(nextFrame) {
			f.remember(input)
			return f.enc.Write(input)
		}
		// Missed a slot; repeat the last frame.
		if err := f.enc.Write(f.last); err != nil {
			return err
		}
	}
}

// NormalizedFactory wraps the encoders of another factory in FPSNormalize.
type NormalizedFactory struct {
	session.EncoderFactory
}

func (n NormalizedFactory) NewEncoder(path, encoding string, fps float64, size image.Point) (session.Encoder, error) {
	enc, err := n.EncoderFactory.NewEncoder(path, encoding, fps, size)
	if err != nil {
		return nil, err
	}
	return NewFPSNormalize(enc, fps), nil
}
