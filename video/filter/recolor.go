package filter

import (
	"cameo/video/frame"
)

func recolor(fn func(b, g, r uint8) uint8) Filter {
	return Func(func(src, dst *frame.Frame) error {
		if err := frame.CheckShape(src, dst); err != nil {
			return err
		}
		if err := requireColor(src); err != nil {
			return err
		}
		s, d := src.Flat(), dst.Flat()
		for i := 0; i < len(s); i += 3 {
			b, g, r := s[i], s[i+1], s[i+2]
			d[i] = fn(b, g, r)
			d[i+1] = g
			d[i+2] = r
		}
		return nil
	})
}

// RecolorRC simulates a red/cyan palette: blue and green both become their
// average.
var RecolorRC Filter = Func(func(src, dst *frame.Frame) error {
	if err := frame.CheckShape(src, dst); err != nil {
		return err
	}
	if err := requireColor(src); err != nil {
		return err
	}
	s, d := src.Flat(), dst.Flat()
	for i := 0; i < len(s); i += 3 {
		avg := uint8((int(s[i]) + int(s[i+1]) + 1) / 2)
		r := s[i+2]
		d[i], d[i+1], d[i+2] = avg, avg, r
	}
	return nil
})

// RecolorRGV desaturates blues: blue becomes min(b, g, r).
var RecolorRGV = recolor(func(b, g, r uint8) uint8 {
	return min(b, g, r)
})

// RecolorCMV desaturates yellows: blue becomes max(b, g, r).
var RecolorCMV = recolor(func(b, g, r uint8) uint8 {
	return max(b, g, r)
})
