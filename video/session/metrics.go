package session

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exported by a Session.
type Metrics struct {
	Cycles         prometheus.Counter
	Skipped        *prometheus.CounterVec
	Snapshots      prometheus.Counter
	SnapshotErrors prometheus.Counter
	VideoFrames    prometheus.Counter
	FPS            prometheus.Gauge
}

// NewMetrics creates the session metrics and registers them with reg, which
// may be nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cameo",
			Name:      "frames_completed_total",
			Help:      "Capture cycles that produced a frame.",
		}),
		Skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cameo",
			Name:      "frames_skipped_total",
			Help:      "Capture cycles dropped, by reason.",
		}, []string{"reason"}),
		Snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cameo",
			Name:      "snapshots_written_total",
			Help:      "Still images written.",
		}),
		SnapshotErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cameo",
			Name:      "snapshot_errors_total",
			Help:      "Still images that failed to write.",
		}),
		VideoFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cameo",
			Name:      "video_frames_written_total",
			Help:      "Frames appended to video files.",
		}),
		FPS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cameo",
			Name:      "fps_estimate",
			Help:      "Estimated capture frame rate.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Cycles, m.Skipped, m.Snapshots, m.SnapshotErrors, m.VideoFrames, m.FPS)
	}
	return m
}
