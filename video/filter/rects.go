package filter

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"cameo/video/frame"
)

// Crop copies region r of f into a new frame. r is clipped to f's bounds.
func Crop(f *frame.Frame, r image.Rectangle) *frame.Frame {
	r = r.Intersect(f.Bounds())
	out := frame.New(r.Dx(), r.Dy(), f.Channels)
	out.Time = f.Time
	rowLen := r.Dx() * f.Channels
	for y := 0; y < r.Dy(); y++ {
		s := f.Offset(r.Min.X, r.Min.Y+y)
		copy(out.Pix[y*rowLen:(y+1)*rowLen], f.Pix[s:s+rowLen])
	}
	return out
}

// paste writes sub into f with its top-left corner at p. sub must fit.
func paste(f, sub *frame.Frame, p image.Point) {
	rowLen := sub.Width * sub.Channels
	for y := 0; y < sub.Height; y++ {
		d := f.Offset(p.X, p.Y+y)
		copy(f.Pix[d:d+rowLen], sub.Pix[y*rowLen:(y+1)*rowLen])
	}
}

// mapRect maps r, a part of from, onto the matching part of to.
func mapRect(r, from, to image.Rectangle) image.Rectangle {
	scale := func(v, num, den int) int {
		return (v*num + den/2) / den
	}
	return image.Rect(
		to.Min.X+scale(r.Min.X-from.Min.X, to.Dx(), from.Dx()),
		to.Min.Y+scale(r.Min.Y-from.Min.Y, to.Dy(), from.Dy()),
		to.Min.X+scale(r.Max.X-from.Min.X, to.Dx(), from.Dx()),
		to.Min.Y+scale(r.Max.Y-from.Min.Y, to.Dy(), from.Dy()),
	)
}

// clipPair clips srcRect and dstRect to their bounds, cropping the other side
// by the same proportion so the mapping between them is kept.
func clipPair(srcRect, dstRect, srcBounds, dstBounds image.Rectangle) (image.Rectangle, image.Rectangle) {
	if srcRect.Empty() || dstRect.Empty() {
		return image.Rectangle{}, image.Rectangle{}
	}
	d := dstRect.Intersect(dstBounds)
	if d.Empty() {
		return image.Rectangle{}, image.Rectangle{}
	}
	s := mapRect(d, dstRect, srcRect)
	sc := s.Intersect(srcBounds)
	if sc != s {
		d = mapRect(sc, srcRect, dstRect).Intersect(d)
	}
	return sc, d
}

// CopyRect copies srcRect of src into dstRect of dst, scaling bilinearly when
// the rectangles differ in size. Parts of either rectangle outside its frame
// are cropped from both.
func CopyRect(src, dst *frame.Frame, srcRect, dstRect image.Rectangle) error {
	if err := channelsMatch(src, dst); err != nil {
		return err
	}
	srcRect, dstRect = clipPair(srcRect, dstRect, src.Bounds(), dst.Bounds())
	if srcRect.Empty() || dstRect.Empty() {
		return nil
	}

	region := Crop(src, srcRect)
	if srcRect.Size() != dstRect.Size() {
		scaled := image.NewRGBA(image.Rectangle{Max: dstRect.Size()})
		xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), region.ToImage(), region.Bounds(), xdraw.Src, nil)
		region = frame.New(dstRect.Dx(), dstRect.Dy(), src.Channels)
		if err := region.FromImage(scaled); err != nil {
			return err
		}
	}
	paste(dst, region, dstRect.Min)
	return nil
}

// SwapRects rotates the contents of rects: each region moves into the next,
// and the last wraps around into the first. With fewer than two rects dst is
// just a copy of src.
func SwapRects(src, dst *frame.Frame, rects []image.Rectangle) error {
	if err := frame.CheckShape(src, dst); err != nil {
		return err
	}
	if src != dst {
		copy(dst.Pix, src.Flat())
	}
	n := len(rects)
	if n < 2 {
		return nil
	}

	// Keep the last region before it is overwritten, in its own coordinates.
	visible := rects[n-1].Intersect(src.Bounds())
	last := Crop(src, visible)
	for i := n - 2; i >= 0; i-- {
		if err := CopyRect(src, dst, rects[i], rects[i+1]); err != nil {
			return err
		}
	}
	return CopyRect(last, dst, rects[n-1].Sub(visible.Min), rects[0])
}

// OutlineRect draws a one-pixel border just inside r. Empty rectangles are
// ignored. color holds one value per channel.
func OutlineRect(f *frame.Frame, r image.Rectangle, color []uint8) {
	r = r.Intersect(f.Bounds())
	if r.Empty() {
		return
	}
	set := func(x, y int) {
		o := f.Offset(x, y)
		for c := 0; c < f.Channels; c++ {
			f.Pix[o+c] = color[c%len(color)]
		}
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		set(x, r.Min.Y)
		set(x, r.Max.Y-1)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		set(r.Min.X, y)
		set(r.Max.X-1, y)
	}
}

func channelsMatch(src, dst *frame.Frame) error {
	if src.Channels != dst.Channels {
		return frame.CheckShape(src, dst)
	}
	return nil
}
