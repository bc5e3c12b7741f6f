// Package filter transforms frames: tone curves via lookup tables, channel
// recoloring, fixed-kernel neighborhood filters, an edge-stroke composite and
// region copy/swap/outline operations.
package filter

import (
	"errors"
	"fmt"

	"cameo/video/frame"
)

// ErrChannels is returned when a filter needs a color frame and gets gray.
var ErrChannels = errors.New("filter requires a 3-channel frame")

// Filter writes a transformed src into dst. dst must have the same shape as
// src and may be src itself.
type Filter interface {
	Apply(src, dst *frame.Frame) error
}

// Func adapts a function to the Filter interface.
type Func func(src, dst *frame.Frame) error

func (f Func) Apply(src, dst *frame.Frame) error {
	return f(src, dst)
}

// None copies src to dst unchanged.
var None Filter = Func(func(src, dst *frame.Frame) error {
	if err := frame.CheckShape(src, dst); err != nil {
		return err
	}
	if src != dst {
		copy(dst.Pix, src.Flat())
	}
	return nil
})

// Chain applies filters in order. The first reads src, the rest work in place
// on dst.
type Chain []Filter

func (c Chain) Apply(src, dst *frame.Frame) error {
	if len(c) == 0 {
		return None.Apply(src, dst)
	}
	in := src
	for i, f := range c {
		if err := f.Apply(in, dst); err != nil {
			return fmt.Errorf("filter %d of %d: %w", i+1, len(c), err)
		}
		in = dst
	}
	return nil
}

func requireColor(f *frame.Frame) error {
	if f.Channels != 3 {
		return fmt.Errorf("%w: got %d channel(s)", ErrChannels, f.Channels)
	}
	return nil
}
