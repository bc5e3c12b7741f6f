package config

import (
	"errors"
	"fmt"
	"strings"

	"cameo/video/filter"
	"cameo/video/track"
)

// Encoder backends.
const (
	EncoderOpenCV = "opencv"
	EncoderFFmpeg = "ffmpeg"
)

type StrokeConfig struct {
	BlurKsize int
	EdgeKsize int
}

type Config struct {
	// Device is a camera index such as "0", or a video file or stream URL.
	Device        string
	WindowName    string
	MirrorPreview bool

	// Filters are applied in order, by name. See filter.Names.
	Filters []string
	// Curves, if set, is applied after Filters.
	Curves *filter.Curves
	Stroke StrokeConfig
	// Timestamp, if set, stamps frames with this label and the capture time.
	Timestamp string

	OutputDir     string
	SnapshotExt   string
	VideoExt      string
	VideoEncoding string
	Encoder       string
	// NormalizeFPS resamples screencasts to a constant frame rate.
	NormalizeFPS bool
	// If non-zero, the oldest captures are deleted to stay under this many
	// bytes.
	MaxCaptureSize int64

	// Face tracking runs when Cascades.Face is set.
	Cascades   track.Cascades
	DebugRects bool
	SwapFaces  bool

	// HTTPPort serves previews, captures and metrics. Zero disables it.
	HTTPPort int
	// CatalogDSN, if set, records captures in MySQL.
	CatalogDSN string
}

func Default() *Config {
	return &Config{
		Device:        "0",
		WindowName:    "Cameo",
		MirrorPreview: true,
		Filters:       []string{"stroke", "portra"},
		Stroke:        StrokeConfig{BlurKsize: 7, EdgeKsize: 5},
		OutputDir:     "captures",
		SnapshotExt:   ".png",
		VideoExt:      ".avi",
		VideoEncoding: "I420",
		Encoder:       EncoderOpenCV,
		HTTPPort:      8080,
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Device == "" {
		errs = append(errs, errors.New("Device is empty"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("OutputDir is empty"))
	}
	for _, ext := range []string{c.SnapshotExt, c.VideoExt} {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, fmt.Errorf("extension %q must look like \".png\"", ext))
		}
	}
	if len(c.VideoEncoding) != 4 {
		errs = append(errs, fmt.Errorf("VideoEncoding %q is not a four-character code", c.VideoEncoding))
	}
	if c.Encoder != EncoderOpenCV && c.Encoder != EncoderFFmpeg {
		errs = append(errs, fmt.Errorf("Encoder %q is not %q or %q", c.Encoder, EncoderOpenCV, EncoderFFmpeg))
	}
	if _, err := filter.ParseChain(c.Filters, filter.Bild{}); err != nil {
		errs = append(errs, err)
	}
	if c.Curves != nil {
		if _, err := filter.NewCurveFilter(*c.Curves); err != nil {
			errs = append(errs, fmt.Errorf("Curves: %w", err))
		}
	}
	if k := c.Stroke.BlurKsize; k != 0 && (k < 0 || k%2 == 0) {
		errs = append(errs, fmt.Errorf("Stroke.BlurKsize %d must be odd", k))
	}
	if _, err := filter.LaplacianKernel(c.Stroke.EdgeKsize); err != nil {
		errs = append(errs, fmt.Errorf("Stroke.EdgeKsize: %w", err))
	}
	if (c.DebugRects || c.SwapFaces) && c.Cascades.Face == "" {
		errs = append(errs, errors.New("face tracking needs Cascades.Face"))
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("HTTPPort %d out of range", c.HTTPPort))
	}
	if c.MaxCaptureSize < 0 {
		errs = append(errs, fmt.Errorf("MaxCaptureSize %d is negative", c.MaxCaptureSize))
	}
	return errors.Join(errs...)
}

// Chain builds the configured filter chain.
func (c *Config) Chain(p filter.Primitives) (filter.Chain, error) {
	chain, err := filter.ParseChain(c.Filters, p)
	if err != nil {
		return nil, err
	}
	for i, f := range chain {
		if s, ok := f.(*filter.StrokeEdges); ok {
			s.BlurKsize = c.Stroke.BlurKsize
			s.EdgeKsize = c.Stroke.EdgeKsize
			chain[i] = s
		}
	}
	if c.Curves != nil {
		f, err := filter.NewCurveFilter(*c.Curves)
		if err != nil {
			return nil, err
		}
		chain = append(chain, f)
	}
	return chain, nil
}
