package sink

import (
	"fmt"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"

	"cameo/video/frame"
	"cameo/video/session"
)

// Motion JPEG over multipart HTTP, as understood by browsers in an <img> tag.

const boundaryWord = "CAMEOBOUNDARY"
const headerf = "\r\n" +
	"--" + boundaryWord + "\r\n" +
	"Content-Type: image/jpeg\r\n" +
	"Content-Length: %d\r\n" +
	"X-Timestamp: %d.%06d\r\n" +
	"\r\n"

// MJPEGServer serves named preview streams at ?name=<stream>.
type MJPEGServer struct {
	encode EncodeFunc

	lock    sync.Mutex
	streams map[string]*MJPEGStream
}

// NewMJPEGServer creates a server whose streams compress frames with encode.
func NewMJPEGServer(encode EncodeFunc) *MJPEGServer {
	return &MJPEGServer{
		encode:  encode,
		streams: make(map[string]*MJPEGStream),
	}
}

// NewStream registers a stream. Names must be unique.
func (s *MJPEGServer) NewStream(name string) *MJPEGStream {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.streams[name]; ok {
		log.Panicf("A stream named %q already exists", name)
	}
	ms := &MJPEGStream{
		name:    name,
		encode:  s.encode,
		clients: make(map[chan []byte]bool),
		parent:  s,
	}
	s.streams[name] = ms
	return ms
}

func (s *MJPEGServer) stream(name string) *MJPEGStream {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.streams[name]
}

// Names lists the registered streams.
func (s *MJPEGServer) Names() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	var names []string
	for n := range s.streams {
		names = append(names, n)
	}
	return names
}

func (s *MJPEGServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}
	stream := s.stream(name)
	if stream == nil {
		http.Error(w, "unknown stream", http.StatusNotFound)
		return
	}

	l := log.WithFields(log.Fields{"addr": r.RemoteAddr, "stream": name})
	l.Info("MJPEG client connected")
	w.Header().Set("Content-Type", "multipart/x-mixed-replace;boundary="+boundaryWord)

	c := make(chan []byte, 1)
	stream.add(c)
	defer stream.remove(c)

	// Send headers now; the first frame may be a while.
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}
	for {
		select {
		case <-r.Context().Done():
			l.Info("MJPEG client disconnected")
			return
		case b, ok := <-c:
			if !ok {
				return
			}
			if _, err := w.Write(b); err != nil {
				l.Infof("MJPEG client dropped: %v", err)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// MJPEGStream is a session.Previewer that publishes frames to connected
// clients. Frames are only encoded while someone is watching.
type MJPEGStream struct {
	name   string
	encode EncodeFunc
	parent *MJPEGServer

	lock    sync.Mutex
	clients map[chan []byte]bool
	closed  bool
}

var _ session.Previewer = (*MJPEGStream)(nil)

func (s *MJPEGStream) add(c chan []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		close(c)
		return
	}
	s.clients[c] = true
}

func (s *MJPEGStream) remove(c chan []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.clients, c)
}

// Watchers is the number of connected clients.
func (s *MJPEGStream) Watchers() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.clients)
}

func (s *MJPEGStream) Show(f *frame.Frame) {
	if s.Watchers() == 0 {
		return
	}
	jpeg, err := s.encode(".jpg", f)
	if err != nil {
		log.WithField("stream", s.name).Errorf("Error encoding MJPEG frame: %v", err)
		return
	}
	header := fmt.Sprintf(headerf, len(jpeg), f.Time.Unix(), f.Time.Nanosecond()/1000)
	// Each client gets the same read-only buffer.
	part := make([]byte, 0, len(header)+len(jpeg))
	part = append(part, header...)
	part = append(part, jpeg...)

	s.lock.Lock()
	defer s.lock.Unlock()
	for c := range s.clients {
		select {
		case c <- part:
		default:
			// Skip clients not ready for the next frame.
		}
	}
}

// Close unregisters the stream and disconnects its clients.
func (s *MJPEGStream) Close() {
	s.parent.lock.Lock()
	delete(s.parent.streams, s.name)
	s.parent.lock.Unlock()

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for c := range s.clients {
		close(c)
		delete(s.clients, c)
	}
}
