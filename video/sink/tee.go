// Package sink holds the destinations a session writes to: image files,
// video encoders and live previews.
package sink

import (
	"cameo/video/frame"
	"cameo/video/session"
)

// Tee shows each frame on every previewer in order.
type Tee []session.Previewer

var _ session.Previewer = Tee(nil)

func (t Tee) Show(f *frame.Frame) {
	for _, p := range t {
		if p != nil {
			p.Show(f)
		}
	}
}
