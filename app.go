package main

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"cameo/config"
	"cameo/serve"
	"cameo/util"
	"cameo/video"
	"cameo/video/cv"
	"cameo/video/filter"
	"cameo/video/frame"
	"cameo/video/session"
	"cameo/video/track"
)

// maxGrabFailures in a row ends the loop; a finished video file fails every
// grab.
const maxGrabFailures = 500

type app struct {
	session  *session.Session
	window   *cv.Window
	preview  session.Previewer
	fs       *video.Filesystem
	commands <-chan serve.Command
	quit     *util.Event

	// Rebuilt whenever the config pointer changes.
	cfg      *config.Config
	chain    filter.Chain
	detector *cv.FaceDetector
}

// reconfigure picks up a reloaded config. Device and output settings only
// apply on restart.
func (a *app) reconfigure(cfg *config.Config) {
	if cfg == a.cfg {
		return
	}
	a.cfg = cfg
	chain, err := cfg.Chain(cv.Primitives{})
	if err != nil {
		log.Errorf("Failed to build filter chain, keeping the previous one: %v", err)
	} else {
		a.chain = chain
		log.WithField("filters", cfg.Filters).Info("Filter chain updated")
	}
	a.session.SetPreview(a.preview, cfg.MirrorPreview)

	if a.detector != nil {
		a.detector.Close()
		a.detector = nil
	}
	if cfg.Cascades.Face != "" {
		d, err := cv.NewFaceDetector(cfg.Cascades)
		if err != nil {
			log.Errorf("Face tracking disabled: %v", err)
		} else {
			a.detector = d
		}
	}
}

func (a *app) process(f *frame.Frame) error {
	var faces []track.Face
	if a.detector != nil {
		var err error
		if faces, err = a.detector.Detect(f); err != nil {
			return err
		}
	}
	if a.cfg.SwapFaces && len(faces) > 1 {
		if err := track.SwapFaces(faces).Apply(f, f); err != nil {
			return err
		}
	}
	if err := a.chain.Apply(f, f); err != nil {
		return err
	}
	if a.cfg.DebugRects {
		track.DrawDebugRects(f, faces)
	}
	if a.cfg.Timestamp != "" {
		return cv.DrawTimestamp(f, a.cfg.Timestamp)
	}
	return nil
}

func (a *app) snapshot() {
	p := a.fs.NewSnapshotPath(time.Now())
	log.WithField("path", p).Info("Snapshot requested")
	a.session.RequestSnapshot(p)
}

func (a *app) toggleVideo() {
	if a.session.IsVideoActive() {
		if err := a.session.EndVideo(); err != nil {
			log.Errorf("Failed to end screencast: %v", err)
		}
		return
	}
	p := a.fs.NewVideoPath(time.Now())
	log.WithField("path", p).Info("Screencast requested")
	if err := a.session.BeginVideo(p, a.cfg.VideoEncoding); err != nil {
		log.Errorf("Failed to end previous screencast: %v", err)
	}
}

func (a *app) handleKey(k int) {
	switch k {
	case cv.KeySpace:
		a.snapshot()
	case cv.KeyTab:
		a.toggleVideo()
	case cv.KeyEscape:
		log.Info("Escape pressed")
		a.quit.Notify()
	}
}

func (a *app) run() {
	fails := 0
	for !a.quit.HasBeenNotified() {
		a.reconfigure(config.Get())

		err := a.session.Do(a.process)
		switch {
		case errors.Is(err, session.ErrCaptureFailed):
			fails++
			if fails >= maxGrabFailures {
				log.Warnf("No frames after %d attempts, stopping", fails)
				return
			}
			time.Sleep(10 * time.Millisecond)
		case session.IsTransient(err):
			log.Debugf("Skipped frame: %v", err)
		case err != nil:
			fails = 0
			log.Errorf("Frame cycle failed: %v", err)
		default:
			fails = 0
		}

		if k := a.window.Key(1); k >= 0 {
			a.handleKey(k)
		}
	drain:
		for {
			select {
			case c := <-a.commands:
				switch c {
				case serve.CommandSnapshot:
					a.snapshot()
				case serve.CommandToggleVideo:
					a.toggleVideo()
				}
			default:
				break drain
			}
		}
	}
	if a.detector != nil {
		a.detector.Close()
	}
}
