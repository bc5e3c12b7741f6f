package serve

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"cameo/video"
	"cameo/video/session"
)

const (
	// Time allowed to write message to the client
	writeWait  = 10 * time.Second
	pingPeriod = 10 * time.Second
)

// Event is pushed to websocket clients.
type Event struct {
	Type string
	// Name is the capture file, for video events.
	Name   string `json:",omitempty"`
	FPS    float64 `json:",omitempty"`
	Frames int     `json:",omitempty"`
}

// MetaUpdater pushes an "update" event whenever captures change, and video
// start/stop events as they happen.
type MetaUpdater struct {
	upgrader websocket.Upgrader
	cs       map[chan []byte]bool
	addc     chan chan []byte
	delc     chan chan []byte
	countc   chan chan int
	events   chan []byte
	done     chan struct{}
}

var (
	_ video.Listener   = (*MetaUpdater)(nil)
	_ session.Listener = (*MetaUpdater)(nil)
)

func NewMetaUpdater() *MetaUpdater {
	m := &MetaUpdater{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		cs:     make(map[chan []byte]bool),
		addc:   make(chan chan []byte),
		delc:   make(chan chan []byte),
		countc: make(chan chan int),
		events: make(chan []byte),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-m.done:
				for c := range m.cs {
					close(c)
				}
				return
			case c := <-m.addc:
				m.cs[c] = true
			case c := <-m.delc:
				delete(m.cs, c)
			case r := <-m.countc:
				r <- len(m.cs)
			case b := <-m.events:
				for c := range m.cs {
					select {
					case c <- b:
					default:
						// Slow client; it will catch up on the next event.
					}
				}
			}
		}
	}()
	return m
}

func (m *MetaUpdater) publish(e Event) {
	b, err := json.Marshal(e)
	if err != nil {
		log.Errorf("Failed to encode event: %v", err)
		return
	}
	select {
	case m.events <- b:
	case <-m.done:
	}
}

func (m *MetaUpdater) FilesystemUpdated() {
	m.publish(Event{Type: "update"})
}

func (m *MetaUpdater) SnapshotWritten(path string) {}

func (m *MetaUpdater) VideoStarted(path string, fps float64) {
	m.publish(Event{Type: "video_started", Name: filepath.Base(path), FPS: fps})
}

func (m *MetaUpdater) VideoStopped(path string, frames int) {
	m.publish(Event{Type: "video_stopped", Name: filepath.Base(path), Frames: frames})
}

// Clients is the number of connected sockets.
func (m *MetaUpdater) Clients() int {
	r := make(chan int)
	select {
	case m.countc <- r:
		return <-r
	case <-m.done:
		return 0
	}
}

// Close disconnects every client.
func (m *MetaUpdater) Close() {
	close(m.done)
}

func (m *MetaUpdater) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			log.WithField("addr", r.RemoteAddr).Errorf("Websocket handshake failed for update stream: %v", err)
		}
		return
	}
	go m.serve(ws)
}

func (m *MetaUpdater) serve(ws *websocket.Conn) {
	clog := log.WithField("addr", ws.RemoteAddr())
	clog.Info("Connected to events update socket")
	defer func() {
		ws.Close()
		clog.Info("Disconnected from events update socket")
	}()
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	c := make(chan []byte, 4)
	select {
	case m.addc <- c:
	case <-m.done:
		return
	}
	defer func() {
		select {
		case m.delc <- c:
		case <-m.done:
		}
	}()

	// Incoming messages are ignored, but reading processes control frames.
	go func() {
		for {
			if _, _, err := ws.NextReader(); err != nil {
				ws.Close()
				return
			}
		}
	}()

	for {
		select {
		case b, ok := <-c:
			if !ok {
				return
			}
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-pingTicker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}
