package cv

import (
	"errors"
	"fmt"
	"image"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"cameo/video/frame"
	"cameo/video/track"
)

// FaceDetector finds faces with a face cascade, then searches fixed regions
// of each face for eyes, nose and mouth.
type FaceDetector struct {
	ScaleFactor  float64
	MinNeighbors int

	face, eye, nose, mouth *gocv.CascadeClassifier
}

var _ track.Detector = (*FaceDetector)(nil)

func loadCascade(path string) (*gocv.CascadeClassifier, error) {
	if path == "" {
		return nil, nil
	}
	c := gocv.NewCascadeClassifier()
	if !c.Load(path) {
		c.Close()
		return nil, fmt.Errorf("load cascade %q", path)
	}
	return &c, nil
}

func NewFaceDetector(c track.Cascades) (*FaceDetector, error) {
	if c.Face == "" {
		return nil, errors.New("face cascade is required")
	}
	d := &FaceDetector{ScaleFactor: 1.2, MinNeighbors: 2}
	var err error
	for _, l := range []struct {
		path string
		dst  **gocv.CascadeClassifier
	}{
		{c.Face, &d.face},
		{c.Eye, &d.eye},
		{c.Nose, &d.nose},
		{c.Mouth, &d.mouth},
	} {
		if *l.dst, err = loadCascade(l.path); err != nil {
			d.Close()
			return nil, err
		}
	}
	log.WithField("cascades", c).Info("Face detector loaded")
	return d, nil
}

func (d *FaceDetector) Detect(f *frame.Frame) ([]track.Face, error) {
	m, err := ToMat(f)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	if f.IsGray() {
		gocv.EqualizeHist(m, &gray)
	} else {
		gocv.CvtColor(m, &gray, gocv.ColorBGRToGray)
		gocv.EqualizeHist(gray, &gray)
	}

	size := f.Size()
	rects := d.face.DetectMultiScaleWithParams(gray, d.ScaleFactor, d.MinNeighbors, 0,
		track.MinSize(size, 8), image.Point{})

	faces := make([]track.Face, 0, len(rects))
	for _, r := range rects {
		faces = append(faces, track.Face{
			Face:     r,
			LeftEye:  d.detectOne(d.eye, gray, track.LeftEyeRegion(r), track.MinSize(size, 64)),
			RightEye: d.detectOne(d.eye, gray, track.RightEyeRegion(r), track.MinSize(size, 64)),
			Nose:     d.detectOne(d.nose, gray, track.NoseRegion(r), track.MinSize(size, 32)),
			Mouth:    d.detectOne(d.mouth, gray, track.MouthRegion(r), track.MinSize(size, 16)),
		})
	}
	return faces, nil
}

// detectOne returns the first match of c inside region, in frame
// coordinates, or an empty rectangle.
func (d *FaceDetector) detectOne(c *gocv.CascadeClassifier, gray gocv.Mat, region image.Rectangle, minSize image.Point) image.Rectangle {
	region = region.Intersect(image.Rect(0, 0, gray.Cols(), gray.Rows()))
	if c == nil || region.Empty() {
		return image.Rectangle{}
	}
	sub := gray.Region(region)
	defer sub.Close()
	found := c.DetectMultiScaleWithParams(sub, d.ScaleFactor, d.MinNeighbors, 0, minSize, image.Point{})
	if len(found) == 0 {
		return image.Rectangle{}
	}
	return found[0].Add(region.Min)
}

func (d *FaceDetector) Close() error {
	for _, c := range []*gocv.CascadeClassifier{d.face, d.eye, d.nose, d.mouth} {
		if c != nil {
			c.Close()
		}
	}
	return nil
}
