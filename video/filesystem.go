// Package video lays out captured snapshots and screencasts on disk.
package video

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
)

const (
	SuffixSnapshot = "_snapshot"
	SuffixVideo    = "_screencast"

	// FileTimeLayout defines the format of filenames, always in UTC so names
	// have a fixed width. See https://golang.org/src/time/format.go.
	FileTimeLayout = "20060102-150405.000Z"
)

var ErrNotFound = errors.New("capture not found")

type Kind string

const (
	KindSnapshot Kind = "snapshot"
	KindVideo    Kind = "video"
)

// Record is one captured file.
type Record struct {
	// ID is the file name without its extension.
	ID   string
	Kind Kind
	Time time.Time
	Path string
	Size int64
}

// Listener is told whenever the set of records changes.
type Listener interface {
	FilesystemUpdated()
}

type FilesystemOptions struct {
	BasePath string
	// Extensions pick the output formats, e.g. ".png" and ".avi".
	SnapshotExt string
	VideoExt    string
	// MaxSize, if non-zero, bounds the total size of captures. The oldest are
	// deleted to stay under it.
	MaxSize int64
}

type Filesystem struct {
	opts FilesystemOptions

	Listeners []Listener

	l       sync.Mutex
	records []*Record
	// Screencasts still being written, never collected.
	active map[string]bool
}

func NewFilesystem(opts FilesystemOptions) (*Filesystem, error) {
	if opts.BasePath == "" {
		return nil, errors.New("no base path for captures")
	}
	if opts.SnapshotExt == "" {
		opts.SnapshotExt = ".png"
	}
	if opts.VideoExt == "" {
		opts.VideoExt = ".avi"
	}
	if err := os.MkdirAll(opts.BasePath, 0755); err != nil {
		return nil, err
	}
	f := &Filesystem{opts: opts, active: make(map[string]bool)}
	if err := f.Refresh(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Filesystem) BasePath() string {
	return f.opts.BasePath
}

func (f *Filesystem) path(t time.Time, suffix, ext string) string {
	return filepath.Join(f.opts.BasePath, t.UTC().Format(FileTimeLayout)+suffix+ext)
}

// NewSnapshotPath names a snapshot taken at t.
func (f *Filesystem) NewSnapshotPath(t time.Time) string {
	return f.path(t, SuffixSnapshot, f.opts.SnapshotExt)
}

// NewVideoPath names a screencast started at t.
func (f *Filesystem) NewVideoPath(t time.Time) string {
	return f.path(t, SuffixVideo, f.opts.VideoExt)
}

// ParseName recognizes a capture file name, returning false for anything
// else.
func ParseName(name string) (*Record, bool) {
	if len(name) < len(FileTimeLayout) {
		return nil, false
	}
	t, err := time.Parse(FileTimeLayout, name[:len(FileTimeLayout)])
	if err != nil {
		return nil, false
	}
	ext := filepath.Ext(name)
	rest := strings.TrimSuffix(name[len(FileTimeLayout):], ext)
	r := &Record{
		ID:   strings.TrimSuffix(name, ext),
		Time: t,
	}
	switch rest {
	case SuffixSnapshot:
		r.Kind = KindSnapshot
	case SuffixVideo:
		r.Kind = KindVideo
	default:
		return nil, false
	}
	return r, true
}

// Refresh rescans the directory and enforces MaxSize.
func (f *Filesystem) Refresh() error {
	entries, err := os.ReadDir(f.opts.BasePath)
	if err != nil {
		return err
	}

	var records []*Record
	var total int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		r, ok := ParseName(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Deleted since listing.
			continue
		}
		r.Path = filepath.Join(f.opts.BasePath, e.Name())
		r.Size = info.Size()
		total += r.Size
		records = append(records, r)
	}
	// Newest first.
	sort.Slice(records, func(i, j int) bool {
		return records[i].Time.After(records[j].Time)
	})

	f.l.Lock()
	active := make(map[string]bool, len(f.active))
	for p := range f.active {
		active[p] = true
	}
	f.l.Unlock()

	// Collect from the oldest end.
	keep := make([]*Record, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if f.opts.MaxSize <= 0 || total <= f.opts.MaxSize || active[r.Path] {
			keep = append(keep, r)
			continue
		}
		if err := os.Remove(r.Path); err != nil && !os.IsNotExist(err) {
			log.WithField("path", r.Path).Errorf("Failed to collect old capture: %v", err)
			keep = append(keep, r)
			continue
		}
		log.WithFields(log.Fields{
			"path": r.Path,
			"size": humanize.Bytes(uint64(r.Size)),
		}).Info("Collected old capture")
		total -= r.Size
	}
	// keep is oldest first; restore newest first.
	records = make([]*Record, len(keep))
	for i, r := range keep {
		records[len(keep)-1-i] = r
	}

	f.l.Lock()
	f.records = records
	f.l.Unlock()
	return nil
}

func (f *Filesystem) notify() {
	for _, l := range f.Listeners {
		l.FilesystemUpdated()
	}
}

// Records returns the captures, newest first.
func (f *Filesystem) Records() []*Record {
	f.l.Lock()
	defer f.l.Unlock()
	return append([]*Record(nil), f.records...)
}

// TotalSize is the combined size of all captures.
func (f *Filesystem) TotalSize() int64 {
	f.l.Lock()
	defer f.l.Unlock()
	var sz int64
	for _, r := range f.records {
		sz += r.Size
	}
	return sz
}

func (f *Filesystem) Record(id string) *Record {
	f.l.Lock()
	defer f.l.Unlock()
	for _, r := range f.records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Delete removes a capture by ID.
func (f *Filesystem) Delete(id string) error {
	r := f.Record(id)
	if r == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err := os.Remove(r.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	log.WithField("path", r.Path).Info("Capture deleted")
	return f.update()
}

func (f *Filesystem) update() error {
	err := f.Refresh()
	f.notify()
	return err
}

// The Filesystem listens to the session so new captures show up at once.

func (f *Filesystem) SnapshotWritten(path string) {
	if err := f.update(); err != nil {
		log.Errorf("Failed to refresh captures: %v", err)
	}
}

func (f *Filesystem) VideoStarted(path string, fps float64) {
	f.l.Lock()
	f.active[filepath.Clean(path)] = true
	f.l.Unlock()
}

func (f *Filesystem) VideoStopped(path string, frames int) {
	f.l.Lock()
	delete(f.active, filepath.Clean(path))
	f.l.Unlock()
	if err := f.update(); err != nil {
		log.Errorf("Failed to refresh captures: %v", err)
	}
}
