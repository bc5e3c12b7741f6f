package serve

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"cameo/video"
)

// FileServer serves the capture named by ?id=.
type FileServer struct {
	FS *video.Filesystem
}

func (s *FileServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	rec := s.FS.Record(id)
	if rec == nil {
		http.Error(w, fmt.Sprintf("No capture found for id %q", id), http.StatusNotFound)
		return
	}

	f, err := os.Open(rec.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	name := filepath.Base(rec.Path)
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
	// ServeContent handles range requests, so videos can be seeked.
	http.ServeContent(w, r, name, info.ModTime(), f)
}
