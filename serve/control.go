package serve

import (
	"net/http"
)

type Command int

const (
	CommandSnapshot Command = iota
	CommandToggleVideo
)

// ControlServer turns POST /control?action=snapshot|video into commands for
// the capture loop, which drains Commands between cycles.
type ControlServer struct {
	Commands chan Command
}

func NewControlServer() *ControlServer {
	return &ControlServer{
		Commands: make(chan Command, 8),
	}
}

func (s *ControlServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}
	var c Command
	switch r.URL.Query().Get("action") {
	case "snapshot":
		c = CommandSnapshot
	case "video":
		c = CommandToggleVideo
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}
	select {
	case s.Commands <- c:
		w.WriteHeader(http.StatusAccepted)
	default:
		http.Error(w, "too many pending commands", http.StatusServiceUnavailable)
	}
}
