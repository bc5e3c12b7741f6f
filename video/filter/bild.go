package filter

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"

	"cameo/video/frame"
)

// Bild implements Primitives in pure Go. It needs no native libraries, at the
// cost of being slower than the OpenCV primitives.
type Bild struct{}

var _ Primitives = Bild{}

func (Bild) Convolve(src, dst *frame.Frame, k Kernel) error {
	if err := frame.CheckShape(src, dst); err != nil {
		return err
	}
	if err := k.Validate(); err != nil {
		return err
	}
	return dst.FromImage(bildConvolve(src.ToImage(), k))
}

func bildConvolve(img image.Image, k Kernel) *image.RGBA {
	bk := convolution.NewKernel(k.Size, k.Size)
	copy(bk.Matrix, k.Weights)
	return convolution.Convolve(img, bk, &convolution.Options{KeepAlpha: true})
}

func (Bild) MedianBlur(src, dst *frame.Frame, ksize int) error {
	if err := frame.CheckShape(src, dst); err != nil {
		return err
	}
	if ksize < 1 || ksize%2 == 0 {
		return fmt.Errorf("%w: median size %d is not odd", ErrKernel, ksize)
	}
	return dst.FromImage(effect.Median(src.ToImage(), float64(ksize/2)))
}

func (Bild) Laplacian(src, dst *frame.Frame, ksize int) error {
	if err := frame.CheckShape(src, dst); err != nil {
		return err
	}
	if !src.IsGray() {
		return fmt.Errorf("laplacian needs a gray frame, got %d channels", src.Channels)
	}
	k, err := LaplacianKernel(ksize)
	if err != nil {
		return err
	}
	return dst.FromImage(bildConvolve(src.ToImage(), k))
}
