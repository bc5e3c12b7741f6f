package session

import (
	"time"
)

// StableCycles is the number of completed cycles after which the frame rate
// estimate is trusted for encoding.
const StableCycles = 20

// RateEstimate tracks completed cycles against wall-clock time.
type RateEstimate struct {
	start   time.Time
	elapsed int64
	fps     float64
}

// Tick records one completed cycle at now. The first cycle only starts the
// clock; later cycles refresh the estimate from the cycles completed before
// them.
func (r *RateEstimate) Tick(now time.Time) {
	if r.elapsed == 0 {
		r.start = now
	} else if secs := now.Sub(r.start).Seconds(); secs > 0 {
		r.fps = float64(r.elapsed) / secs
	}
	r.elapsed++
}

// Elapsed is the number of completed cycles.
func (r *RateEstimate) Elapsed() int64 {
	return r.elapsed
}

// FPS returns the current estimate, and false until one is available.
func (r *RateEstimate) FPS() (float64, bool) {
	return r.fps, r.fps > 0
}

// Stable reports whether enough cycles have elapsed to rely on FPS.
func (r *RateEstimate) Stable() bool {
	_, ok := r.FPS()
	return ok && r.elapsed >= StableCycles
}
