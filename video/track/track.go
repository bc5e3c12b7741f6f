// Package track describes facial features found by a region detector and the
// geometry used to search for them.
package track

import (
	"image"

	"cameo/video/filter"
	"cameo/video/frame"
)

// Face holds the rectangles of one detected face. A zero rectangle means the
// feature wasn't found.
type Face struct {
	Face     image.Rectangle
	LeftEye  image.Rectangle
	RightEye image.Rectangle
	Nose     image.Rectangle
	Mouth    image.Rectangle
}

// Detector finds faces in a frame. Implementations are constructed once and
// are not modified by Detect.
type Detector interface {
	Detect(f *frame.Frame) ([]Face, error)
}

// Cascades names the Haar cascade files a detector loads. Only Face is
// required; a missing feature cascade leaves that feature empty.
type Cascades struct {
	Face  string
	Eye   string
	Nose  string
	Mouth string
}

// Search regions for each feature, relative to the face rectangle.
func LeftEyeRegion(face image.Rectangle) image.Rectangle {
	x, y, w, h := face.Min.X, face.Min.Y, face.Dx(), face.Dy()
	return rect(x+w/7, y, w*2/7, h/2)
}

func RightEyeRegion(face image.Rectangle) image.Rectangle {
	x, y, w, h := face.Min.X, face.Min.Y, face.Dx(), face.Dy()
	return rect(x+w*4/7, y, w*2/7, h/2)
}

func NoseRegion(face image.Rectangle) image.Rectangle {
	x, y, w, h := face.Min.X, face.Min.Y, face.Dx(), face.Dy()
	return rect(x+w/4, y+h/4, w/2, h/2)
}

func MouthRegion(face image.Rectangle) image.Rectangle {
	x, y, w, h := face.Min.X, face.Min.Y, face.Dx(), face.Dy()
	return rect(x+w/6, y+h*2/3, w*2/3, h/3)
}

func rect(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h)
}

// MinSize is the frame size divided by divisor, used as the smallest
// detection window.
func MinSize(size image.Point, divisor int) image.Point {
	return image.Point{X: size.X / divisor, Y: size.Y / divisor}
}

// FaceRects returns the face rectangles, skipping empty ones.
func FaceRects(faces []Face) []image.Rectangle {
	var rs []image.Rectangle
	for _, f := range faces {
		if !f.Face.Empty() {
			rs = append(rs, f.Face)
		}
	}
	return rs
}

// Outline colors in BGR order.
var (
	FaceColor     = []uint8{255, 255, 255}
	LeftEyeColor  = []uint8{0, 0, 255}
	RightEyeColor = []uint8{0, 255, 255}
	NoseColor     = []uint8{0, 255, 0}
	MouthColor    = []uint8{255, 0, 0}
)

// DrawDebugRects outlines every tracked feature. Gray frames are drawn white.
func DrawDebugRects(f *frame.Frame, faces []Face) {
	white := []uint8{255}
	pick := func(c []uint8) []uint8 {
		if f.IsGray() {
			return white
		}
		return c
	}
	for _, face := range faces {
		filter.OutlineRect(f, face.Face, pick(FaceColor))
		filter.OutlineRect(f, face.LeftEye, pick(LeftEyeColor))
		filter.OutlineRect(f, face.RightEye, pick(RightEyeColor))
		filter.OutlineRect(f, face.Nose, pick(NoseColor))
		filter.OutlineRect(f, face.Mouth, pick(MouthColor))
	}
}

// SwapFaces returns a filter rotating the detected face regions among
// themselves.
func SwapFaces(faces []Face) filter.Filter {
	rects := FaceRects(faces)
	return filter.Func(func(src, dst *frame.Frame) error {
		return filter.SwapRects(src, dst, rects)
	})
}
