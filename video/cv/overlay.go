package cv

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"cameo/video/frame"
)

var (
	colorTime = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorBG   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// DrawTimestamp stamps the label and frame time in the top-left corner.
func DrawTimestamp(f *frame.Frame, label string) error {
	text := f.Time.Format("2006-01-02 15:04:05.000 MST")
	if label != "" {
		text = label + " - " + text
	}
	m, err := ToMat(f)
	if err != nil {
		return err
	}
	defer m.Close()

	font := gocv.FontHersheySimplex
	scale := 0.5
	thickness := 1
	sz := gocv.GetTextSize(text, font, scale, thickness)
	pad := 2

	gocv.Rectangle(&m, image.Rect(0, 0, sz.X+pad*2, sz.Y+pad*2), colorBG, -1)
	gocv.PutText(&m, text, image.Pt(pad, sz.Y+pad), font, scale, colorTime, thickness)
	return FromMat(m, f)
}
