// Package catalog records captures in a MySQL database so they can be
// searched after the files are collected.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pillash/mp4util"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"cameo/video"
	"cameo/video/session"
)

// Capture is one snapshot or screencast.
type Capture struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex;size:255"`
	Kind        string `gorm:"index;size:16"`
	Path        string
	TakenAt     time.Time `gorm:"index"`
	Size        int64
	Frames      int
	FPS         float64
	DurationSec int
}

// Catalog is a session.Listener that inserts a row per capture.
type Catalog struct {
	db  *gorm.DB
	now func() time.Time

	// Started videos by path, until they stop.
	pending map[string]*Capture

	// Inserts run off the capture loop.
	queue chan *Capture
	wg    sync.WaitGroup
	once  sync.Once
}

// queueSize bounds inserts waiting on a slow database.
const queueSize = 64

var _ session.Listener = (*Catalog)(nil)

// Open connects to the database at dsn and migrates the schema.
func Open(dsn string) (*Catalog, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return New(db)
}

func New(db *gorm.DB) (*Catalog, error) {
	if err := db.AutoMigrate(&Capture{}); err != nil {
		return nil, fmt.Errorf("failed to migrate catalog: %w", err)
	}
	return newCatalog(db), nil
}

func newCatalog(db *gorm.DB) *Catalog {
	c := &Catalog{
		db:      db,
		now:     time.Now,
		pending: make(map[string]*Capture),
		queue:   make(chan *Capture, queueSize),
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for capture := range c.queue {
			c.create(capture)
		}
	}()
	return c
}

// newCapture describes the file at path. The capture time comes from the
// file name when it follows the capture layout.
func newCapture(kind video.Kind, path string, now time.Time) *Capture {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	c := &Capture{
		Name:    name,
		Kind:    string(kind),
		Path:    path,
		TakenAt: now,
	}
	if r, ok := video.ParseName(filepath.Base(path)); ok {
		c.TakenAt = r.Time
	}
	if info, err := os.Stat(path); err == nil {
		c.Size = info.Size()
	}
	return c
}

// videoDuration reads the duration of mp4 files; other containers report 0.
func videoDuration(path string) int {
	if !strings.EqualFold(filepath.Ext(path), ".mp4") {
		return 0
	}
	d, err := mp4util.Duration(path)
	if err != nil {
		log.WithField("path", path).Warnf("Failed to read video duration: %v", err)
		return 0
	}
	return d
}

func (c *Catalog) create(capture *Capture) {
	if err := c.db.Create(capture).Error; err != nil {
		log.WithField("path", capture.Path).Errorf("Failed to catalog capture: %v", err)
	}
}

// insert queues a row without blocking, dropping it if the queue is full.
func (c *Catalog) insert(capture *Capture) {
	select {
	case c.queue <- capture:
	default:
		log.WithField("path", capture.Path).Warn("Catalog queue full, capture not recorded")
	}
}

// flush stops the insert worker once queued rows are written.
func (c *Catalog) flush() {
	c.once.Do(func() { close(c.queue) })
	c.wg.Wait()
}

func (c *Catalog) SnapshotWritten(path string) {
	c.insert(newCapture(video.KindSnapshot, path, c.now()))
}

func (c *Catalog) VideoStarted(path string, fps float64) {
	capture := newCapture(video.KindVideo, path, c.now())
	capture.FPS = fps
	c.pending[path] = capture
}

func (c *Catalog) VideoStopped(path string, frames int) {
	capture, ok := c.pending[path]
	if !ok {
		capture = newCapture(video.KindVideo, path, c.now())
	}
	delete(c.pending, path)
	if info, err := os.Stat(path); err == nil {
		capture.Size = info.Size()
	}
	capture.Frames = frames
	capture.DurationSec = videoDuration(path)
	if capture.DurationSec == 0 && capture.FPS > 0 {
		capture.DurationSec = int(float64(frames) / capture.FPS)
	}
	c.insert(capture)
}

// Recent returns up to limit captures, newest first.
func (c *Catalog) Recent(limit int) ([]Capture, error) {
	var captures []Capture
	err := c.db.Order("taken_at desc").Limit(limit).Find(&captures).Error
	return captures, err
}

// Close writes queued rows and disconnects. Listener calls must not follow.
func (c *Catalog) Close() error {
	c.flush()
	db, err := c.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
