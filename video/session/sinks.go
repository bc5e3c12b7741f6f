package session

// DefaultEncoding is the four-character codec used when none is given.
const DefaultEncoding = "I420"

// Sinks holds pending output requests. It has no behavior of its own; the
// Session consumes the requests when a cycle exits.
type Sinks struct {
	imagePath     string
	videoPath     string
	videoEncoding string
}

// RequestSnapshot asks for the next exited frame to be written to path. A
// second request before then replaces the first.
func (s *Sinks) RequestSnapshot(path string) {
	s.imagePath = path
}

// BeginVideo starts writing exited frames to path with the given
// four-character encoding.
func (s *Sinks) BeginVideo(path, encoding string) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	s.videoPath = path
	s.videoEncoding = encoding
}

// EndVideo clears the video request.
func (s *Sinks) EndVideo() {
	s.videoPath = ""
	s.videoEncoding = ""
}

func (s *Sinks) IsSnapshotPending() bool {
	return s.imagePath != ""
}

func (s *Sinks) IsVideoActive() bool {
	return s.videoPath != ""
}

func (s *Sinks) SnapshotPath() string {
	return s.imagePath
}

func (s *Sinks) VideoPath() string {
	return s.videoPath
}

func (s *Sinks) VideoEncoding() string {
	return s.videoEncoding
}

// takeSnapshot returns and clears the pending snapshot path.
func (s *Sinks) takeSnapshot() string {
	p := s.imagePath
	s.imagePath = ""
	return p
}
