// Package frame holds the pixel buffer passed through the capture pipeline.
package frame

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"
)

// ErrShapeMismatch is returned when two frames must share dimensions but don't.
var ErrShapeMismatch = errors.New("frame shapes differ")

// Frame is a rectangular buffer of 8-bit samples. Samples are stored row-major
// and interleaved; color frames use BGR channel order.
type Frame struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8

	// Time the frame was captured.
	Time time.Time
}

// New allocates a zeroed frame. Channels must be 1 (gray) or 3 (BGR).
func New(width, height, channels int) *Frame {
	if channels != 1 && channels != 3 {
		panic(fmt.Sprintf("unsupported channel count %d", channels))
	}
	return &Frame{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// Len is the number of samples in the frame.
func (f *Frame) Len() int {
	return f.Width * f.Height * f.Channels
}

// Flat returns a one-dimensional view of every sample, independent of the
// frame's dimensions. Writes through the view modify the frame.
func (f *Frame) Flat() []uint8 {
	return f.Pix[:f.Len()]
}

func (f *Frame) IsGray() bool {
	return f.Channels == 1
}

func (f *Frame) Size() image.Point {
	return image.Point{X: f.Width, Y: f.Height}
}

func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// SameShape reports whether o has the same dimensions and channel count.
func (f *Frame) SameShape(o *Frame) bool {
	return f.Width == o.Width && f.Height == o.Height && f.Channels == o.Channels
}

// CheckShape returns ErrShapeMismatch with context when the shapes differ.
func CheckShape(src, dst *Frame) error {
	if src == nil || dst == nil {
		return fmt.Errorf("%w: nil frame", ErrShapeMismatch)
	}
	if !src.SameShape(dst) {
		return fmt.Errorf("%w: %dx%dx%d vs %dx%dx%d", ErrShapeMismatch,
			src.Width, src.Height, src.Channels, dst.Width, dst.Height, dst.Channels)
	}
	return nil
}

// Offset of the first sample of pixel (x, y).
func (f *Frame) Offset(x, y int) int {
	return (y*f.Width + x) * f.Channels
}

// At returns channel c of pixel (x, y).
func (f *Frame) At(x, y, c int) uint8 {
	return f.Pix[f.Offset(x, y)+c]
}

func (f *Frame) Set(x, y, c int, v uint8) {
	f.Pix[f.Offset(x, y)+c] = v
}

// NewLike allocates a zeroed frame shaped like f.
func (f *Frame) NewLike() *Frame {
	n := New(f.Width, f.Height, f.Channels)
	n.Time = f.Time
	return n
}

func (f *Frame) Clone() *Frame {
	n := f.NewLike()
	copy(n.Pix, f.Flat())
	return n
}

// CopyTo copies f into dst, reallocating dst's buffer if needed.
func (f *Frame) CopyTo(dst *Frame) {
	if dst == f {
		return
	}
	if cap(dst.Pix) < f.Len() {
		dst.Pix = make([]uint8, f.Len())
	}
	dst.Width, dst.Height, dst.Channels, dst.Time = f.Width, f.Height, f.Channels, f.Time
	dst.Pix = dst.Pix[:f.Len()]
	copy(dst.Pix, f.Pix)
}

// Mirror returns a horizontally flipped copy.
func (f *Frame) Mirror() *Frame {
	n := f.NewLike()
	ch := f.Channels
	for y := 0; y < f.Height; y++ {
		row := y * f.Width * ch
		for x := 0; x < f.Width; x++ {
			s := row + x*ch
			d := row + (f.Width-1-x)*ch
			copy(n.Pix[d:d+ch], f.Pix[s:s+ch])
		}
	}
	return n
}

// Gray converts to a single-channel intensity frame using the ITU-R BT.601
// weights. A gray frame is cloned.
func (f *Frame) Gray() *Frame {
	if f.IsGray() {
		return f.Clone()
	}
	g := New(f.Width, f.Height, 1)
	g.Time = f.Time
	for i, j := 0, 0; j < len(g.Pix); i, j = i+3, j+1 {
		b, gr, r := float64(f.Pix[i]), float64(f.Pix[i+1]), float64(f.Pix[i+2])
		g.Pix[j] = uint8(0.114*b + 0.587*gr + 0.299*r + 0.5)
	}
	return g
}

// Channel extracts channel c into a new gray frame.
func (f *Frame) Channel(c int) *Frame {
	g := New(f.Width, f.Height, 1)
	g.Time = f.Time
	for i, j := c, 0; j < len(g.Pix); i, j = i+f.Channels, j+1 {
		g.Pix[j] = f.Pix[i]
	}
	return g
}

// ToImage converts to *image.Gray or *image.RGBA. The pixels are copied.
func (f *Frame) ToImage() image.Image {
	if f.IsGray() {
		img := image.NewGray(f.Bounds())
		for y := 0; y < f.Height; y++ {
			copy(img.Pix[y*img.Stride:y*img.Stride+f.Width], f.Pix[y*f.Width:(y+1)*f.Width])
		}
		return img
	}
	img := image.NewRGBA(f.Bounds())
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			s := f.Offset(x, y)
			d := img.PixOffset(x, y)
			img.Pix[d+0] = f.Pix[s+2]
			img.Pix[d+1] = f.Pix[s+1]
			img.Pix[d+2] = f.Pix[s+0]
			img.Pix[d+3] = 0xff
		}
	}
	return img
}

// FromImage copies img into f. The image bounds must match f's dimensions.
func (f *Frame) FromImage(img image.Image) error {
	b := img.Bounds()
	if b.Dx() != f.Width || b.Dy() != f.Height {
		return fmt.Errorf("%w: image %v vs frame %dx%d", ErrShapeMismatch, b.Size(), f.Width, f.Height)
	}
	switch src := img.(type) {
	case *image.RGBA:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				s := src.PixOffset(b.Min.X+x, b.Min.Y+y)
				f.setRGB(x, y, src.Pix[s+0], src.Pix[s+1], src.Pix[s+2])
			}
		}
	case *image.Gray:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				v := src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)]
				f.setRGB(x, y, v, v, v)
			}
		}
	default:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
				f.setRGB(x, y, c.R, c.G, c.B)
			}
		}
	}
	return nil
}

func (f *Frame) setRGB(x, y int, r, g, b uint8) {
	o := f.Offset(x, y)
	if f.IsGray() {
		// Gray round-trips through RGBA with equal channels.
		f.Pix[o] = r
		return
	}
	f.Pix[o+0] = b
	f.Pix[o+1] = g
	f.Pix[o+2] = r
}

// Fill sets every pixel to the given per-channel values.
func (f *Frame) Fill(values ...uint8) {
	for i := range f.Flat() {
		f.Pix[i] = values[(i%f.Channels)%len(values)]
	}
}
