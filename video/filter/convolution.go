package filter

import (
	"errors"
	"fmt"

	"cameo/video/frame"
)

var ErrKernel = errors.New("invalid kernel")

// Kernel is a square, odd-sized weight matrix whose center element sits over
// the pixel being computed.
type Kernel struct {
	Size    int
	Weights []float64
}

// NewKernel builds a kernel from rows of weights.
func NewKernel(rows [][]float64) (Kernel, error) {
	k := Kernel{Size: len(rows)}
	for i, row := range rows {
		if len(row) != len(rows) {
			return Kernel{}, fmt.Errorf("%w: row %d has %d weights, want %d", ErrKernel, i, len(row), len(rows))
		}
		k.Weights = append(k.Weights, row...)
	}
	return k, k.Validate()
}

func mustKernel(rows [][]float64) Kernel {
	k, err := NewKernel(rows)
	if err != nil {
		panic(err)
	}
	return k
}

func (k Kernel) Validate() error {
	if k.Size < 1 || k.Size%2 == 0 {
		return fmt.Errorf("%w: size %d is not odd", ErrKernel, k.Size)
	}
	if len(k.Weights) != k.Size*k.Size {
		return fmt.Errorf("%w: %d weights for size %d", ErrKernel, len(k.Weights), k.Size)
	}
	return nil
}

// At returns the weight in column x, row y.
func (k Kernel) At(x, y int) float64 {
	return k.Weights[y*k.Size+x]
}

func (k Kernel) Sum() float64 {
	var s float64
	for _, w := range k.Weights {
		s += w
	}
	return s
}

var (
	// SharpenKernel amplifies the center against its neighbors; weights sum to 1.
	SharpenKernel = mustKernel([][]float64{
		{-1, -1, -1},
		{-1, 9, -1},
		{-1, -1, -1},
	})
	// FindEdgesKernel sums to 0: edges turn white, flat regions black.
	FindEdgesKernel = mustKernel([][]float64{
		{-1, -1, -1},
		{-1, 8, -1},
		{-1, -1, -1},
	})
	// BlurKernel averages a 2-pixel radius.
	BlurKernel = mustKernel([][]float64{
		{0.04, 0.04, 0.04, 0.04, 0.04},
		{0.04, 0.04, 0.04, 0.04, 0.04},
		{0.04, 0.04, 0.04, 0.04, 0.04},
		{0.04, 0.04, 0.04, 0.04, 0.04},
		{0.04, 0.04, 0.04, 0.04, 0.04},
	})
	EmbossKernel = mustKernel([][]float64{
		{-2, -1, 0},
		{-1, 8, 1},
		{0, 1, 2},
	})
)

// LaplacianKernel returns the aperture OpenCV uses for a Laplacian of the
// given size (1, 3 or 5).
func LaplacianKernel(ksize int) (Kernel, error) {
	switch ksize {
	case 1:
		return NewKernel([][]float64{
			{0, 1, 0},
			{1, -4, 1},
			{0, 1, 0},
		})
	case 3:
		return NewKernel([][]float64{
			{2, 0, 2},
			{0, -8, 0},
			{2, 0, 2},
		})
	case 5:
		return NewKernel([][]float64{
			{2, 4, 4, 4, 2},
			{4, 0, -8, 0, 4},
			{4, -8, -24, -8, 4},
			{4, 0, -8, 0, 4},
			{2, 4, 4, 4, 2},
		})
	}
	return Kernel{}, fmt.Errorf("%w: unsupported Laplacian size %d", ErrKernel, ksize)
}

// Primitives are the neighborhood operations the engine delegates to. Outputs
// saturate to [0,255]; borders replicate edge pixels.
type Primitives interface {
	// Convolve correlates every channel of src with k.
	Convolve(src, dst *frame.Frame, k Kernel) error
	// MedianBlur replaces each sample with the median of its ksize×ksize
	// neighborhood.
	MedianBlur(src, dst *frame.Frame, ksize int) error
	// Laplacian writes the second-derivative magnitude of a gray src.
	Laplacian(src, dst *frame.Frame, ksize int) error
}

// ConvolutionFilter applies a fixed kernel to every channel.
type ConvolutionFilter struct {
	Kernel     Kernel
	Primitives Primitives
}

func NewConvolutionFilter(k Kernel, p Primitives) *ConvolutionFilter {
	return &ConvolutionFilter{Kernel: k, Primitives: p}
}

func NewSharpenFilter(p Primitives) *ConvolutionFilter {
	return NewConvolutionFilter(SharpenKernel, p)
}

func NewFindEdgesFilter(p Primitives) *ConvolutionFilter {
	return NewConvolutionFilter(FindEdgesKernel, p)
}

func NewBlurFilter(p Primitives) *ConvolutionFilter {
	return NewConvolutionFilter(BlurKernel, p)
}

func NewEmbossFilter(p Primitives) *ConvolutionFilter {
	return NewConvolutionFilter(EmbossKernel, p)
}

func (f *ConvolutionFilter) Apply(src, dst *frame.Frame) error {
	if err := frame.CheckShape(src, dst); err != nil {
		return err
	}
	if err := f.Kernel.Validate(); err != nil {
		return err
	}
	return f.Primitives.Convolve(src, dst, f.Kernel)
}
