package cv

import (
	"gocv.io/x/gocv"

	"cameo/video/frame"
	"cameo/video/session"
)

// Key codes returned by Window.Key.
const (
	KeyTab    = 9
	KeyEscape = 27
	KeySpace  = 32
)

// Window previews frames in a native window. It must be used from the thread
// that created it.
type Window struct {
	window  *gocv.Window
	sizeSet bool
}

var _ session.Previewer = (*Window)(nil)

func NewWindow(name string) *Window {
	return &Window{
		window: gocv.NewWindow(name),
	}
}

func (w *Window) Show(f *frame.Frame) {
	m, err := ToMat(f)
	if err != nil {
		return
	}
	defer m.Close()
	if !w.sizeSet {
		w.window.ResizeWindow(f.Width, f.Height)
		w.sizeSet = true
	}
	w.window.IMShow(m)
}

// Key waits up to delay milliseconds for a keypress and returns its code, or
// -1 when none arrived. It also lets the window process its events.
func (w *Window) Key(delay int) int {
	k := w.window.WaitKey(delay)
	if k < 0 {
		return -1
	}
	return k & 0xff
}

// Open reports whether the window is still shown.
func (w *Window) Open() bool {
	return w.window.IsOpen()
}

func (w *Window) Close() error {
	return w.window.Close()
}
