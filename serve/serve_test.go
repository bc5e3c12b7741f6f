package serve

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cameo/video"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newFS(t *testing.T) *video.Filesystem {
	t.Helper()
	fs, err := video.NewFilesystem(video.FilesystemOptions{BasePath: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(fs.NewSnapshotPath(t0), []byte("png data"), 0644))
	require.NoError(t, os.WriteFile(fs.NewVideoPath(t0.Add(time.Minute)), make([]byte, 2048), 0644))
	require.NoError(t, fs.Refresh())
	return fs
}

func TestMetaServer(t *testing.T) {
	s := &MetaServer{FS: newFS(t)}

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest("GET", "/captures", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp MetaResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.ItemsCount)
	assert.Equal(t, video.KindVideo, resp.Items[0].Kind)
	assert.Equal(t, "2.0 kB", resp.Items[0].SizeHuman)
	assert.Equal(t, int64(2048+8), resp.ItemsTotalSize)
	assert.Equal(t, t0.Unix(), resp.OldestTimestamp)

	w = httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest("GET", "/captures?kind=snapshot", nil))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.ItemsCount)
	assert.Equal(t, video.KindSnapshot, resp.Items[0].Kind)

	w = httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest("GET", "/captures?kind=thumb", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetaServerEmpty(t *testing.T) {
	fs, err := video.NewFilesystem(video.FilesystemOptions{BasePath: t.TempDir()})
	require.NoError(t, err)
	w := httptest.NewRecorder()
	(&MetaServer{FS: fs}).ServeHTTP(w, httptest.NewRequest("GET", "/captures", nil))
	assert.JSONEq(t, `{"Items":[],"ItemsTotalSize":0,"ItemsCount":0,"OldestTimestamp":0}`, w.Body.String())
}

func TestFileServer(t *testing.T) {
	fs := newFS(t)
	s := &FileServer{FS: fs}
	snap := fs.Records()[1]

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest("GET", "/capture?id="+snap.ID+"&download=1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png data", w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	w = httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest("GET", "/capture?id=nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteServer(t *testing.T) {
	fs := newFS(t)
	s := &DeleteServer{FS: fs}
	id := fs.Records()[0].ID

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest("GET", "/delete?id="+id, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest("POST", "/delete?id="+id, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, fs.Records(), 1)

	w = httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest("POST", "/delete?id="+id, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestControlServer(t *testing.T) {
	s := NewControlServer()
	for _, tc := range []struct {
		method, url string
		code        int
	}{
		{"GET", "/control?action=snapshot", http.StatusMethodNotAllowed},
		{"POST", "/control?action=dance", http.StatusBadRequest},
		{"POST", "/control?action=snapshot", http.StatusAccepted},
		{"POST", "/control?action=video", http.StatusAccepted},
	} {
		w := httptest.NewRecorder()
		s.ServeHTTP(w, httptest.NewRequest(tc.method, tc.url, nil))
		assert.Equal(t, tc.code, w.Code, tc.url)
	}
	assert.Equal(t, CommandSnapshot, <-s.Commands)
	assert.Equal(t, CommandToggleVideo, <-s.Commands)

	for i := 0; i < cap(s.Commands); i++ {
		s.Commands <- CommandSnapshot
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest("POST", "/control?action=snapshot", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetaUpdater(t *testing.T) {
	m := NewMetaUpdater()
	srv := httptest.NewServer(m)
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer ws.Close()
	require.Eventually(t, func() bool { return m.Clients() == 1 }, time.Second, time.Millisecond)

	read := func() Event {
		ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		var e Event
		require.NoError(t, ws.ReadJSON(&e))
		return e
	}

	m.FilesystemUpdated()
	assert.Equal(t, Event{Type: "update"}, read())

	m.VideoStarted("/captures/a_screencast.avi", 12.5)
	assert.Equal(t, Event{Type: "video_started", Name: "a_screencast.avi", FPS: 12.5}, read())

	m.VideoStopped("/captures/a_screencast.avi", 40)
	assert.Equal(t, Event{Type: "video_stopped", Name: "a_screencast.avi", Frames: 40}, read())

	m.Close()
	assert.Equal(t, 0, m.Clients())
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = ws.ReadMessage()
	assert.Error(t, err)
}
