package serve

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"cameo/video"
)

// DeleteServer removes the capture named by the id form value. POST only.
type DeleteServer struct {
	FS *video.Filesystem
}

func (s *DeleteServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := r.Form.Get("id")
	err := s.FS.Delete(id)
	switch {
	case errors.Is(err, video.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case err != nil:
		log.WithField("id", id).Errorf("Failed to delete capture: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
