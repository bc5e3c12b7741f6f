package cv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"cameo/video/filter"
	"cameo/video/frame"
)

// Primitives implements filter.Primitives with OpenCV.
type Primitives struct{}

var _ filter.Primitives = Primitives{}

// apply runs op from a Mat copy of src into dst.
func apply(src, dst *frame.Frame, op func(in gocv.Mat, out *gocv.Mat)) error {
	if err := frame.CheckShape(src, dst); err != nil {
		return err
	}
	in, err := ToMat(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out := gocv.NewMat()
	defer out.Close()
	op(in, &out)
	return FromMat(out, dst)
}

func (Primitives) Convolve(src, dst *frame.Frame, k filter.Kernel) error {
	if err := k.Validate(); err != nil {
		return err
	}
	km := gocv.NewMatWithSize(k.Size, k.Size, gocv.MatTypeCV32F)
	defer km.Close()
	for y := 0; y < k.Size; y++ {
		for x := 0; x < k.Size; x++ {
			km.SetFloatAt(y, x, float32(k.At(x, y)))
		}
	}
	return apply(src, dst, func(in gocv.Mat, out *gocv.Mat) {
		gocv.Filter2D(in, out, -1, km, image.Pt(-1, -1), 0, gocv.BorderReplicate)
	})
}

func (Primitives) MedianBlur(src, dst *frame.Frame, ksize int) error {
	if ksize < 1 || ksize%2 == 0 {
		return fmt.Errorf("%w: median size %d is not odd", filter.ErrKernel, ksize)
	}
	return apply(src, dst, func(in gocv.Mat, out *gocv.Mat) {
		gocv.MedianBlur(in, out, ksize)
	})
}

func (Primitives) Laplacian(src, dst *frame.Frame, ksize int) error {
	if !src.IsGray() {
		return fmt.Errorf("laplacian needs a gray frame, got %d channels", src.Channels)
	}
	if _, err := filter.LaplacianKernel(ksize); err != nil {
		return err
	}
	return apply(src, dst, func(in gocv.Mat, out *gocv.Mat) {
		gocv.Laplacian(in, out, gocv.MatTypeCV8U, ksize, 1, 0, gocv.BorderReplicate)
	})
}
