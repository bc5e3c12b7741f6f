package serve

import (
	"encoding/json"
	"net/http"

	"github.com/dustin/go-humanize"

	"cameo/video"
)

type MetaEntry struct {
	ID        string
	Kind      video.Kind
	Timestamp int64
	Size      int64
	SizeHuman string
}

type MetaResponse struct {
	Items []*MetaEntry

	ItemsTotalSize  int64
	ItemsCount      int
	OldestTimestamp int64
}

func toMetaEntry(r *video.Record) *MetaEntry {
	return &MetaEntry{
		ID:        r.ID,
		Kind:      r.Kind,
		Timestamp: r.Time.Unix(),
		Size:      r.Size,
		SizeHuman: humanize.Bytes(uint64(r.Size)),
	}
}

// MetaServer lists captures as JSON, newest first. ?kind=snapshot or
// ?kind=video narrows the list.
type MetaServer struct {
	FS *video.Filesystem
}

func (s *MetaServer) BuildResponse(kind video.Kind) *MetaResponse {
	resp := &MetaResponse{Items: []*MetaEntry{}}
	for _, r := range s.FS.Records() {
		if kind != "" && r.Kind != kind {
			continue
		}
		resp.Items = append(resp.Items, toMetaEntry(r))
		resp.ItemsTotalSize += r.Size
		resp.OldestTimestamp = r.Time.Unix()
	}
	resp.ItemsCount = len(resp.Items)
	return resp
}

func (s *MetaServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	kind := video.Kind(r.URL.Query().Get("kind"))
	switch kind {
	case "", video.KindSnapshot, video.KindVideo:
	default:
		http.Error(w, "unknown kind", http.StatusBadRequest)
		return
	}
	js, err := json.Marshal(s.BuildResponse(kind))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(js)
}
