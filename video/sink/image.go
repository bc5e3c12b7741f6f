package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"cameo/video/frame"
	"cameo/video/session"
)

// EncodeFunc compresses a frame into the format named by ext.
type EncodeFunc func(ext string, f *frame.Frame) ([]byte, error)

// ImageFile writes snapshots, picking the format from the file extension.
type ImageFile struct {
	Encode EncodeFunc
}

var _ session.ImageWriter = (*ImageFile)(nil)

func (w *ImageFile) WriteImage(path string, f *frame.Frame) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return fmt.Errorf("no image format for %q", path)
	}
	b, err := w.Encode(ext, f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return err
	}
	log.WithField("path", path).Debugf("Wrote %s image", humanize.Bytes(uint64(len(b))))
	return nil
}
