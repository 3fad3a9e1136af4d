package state

import (
	"context"
	"testing"
	"time"

	"github.com/Paintersrp/snyft/internal/autosave"
	"github.com/Paintersrp/snyft/internal/logging"
	"github.com/Paintersrp/snyft/internal/overlay"
)

type recordingStore struct {
	body     string
	tags     []string
	segs     []overlay.Segment
	segSaves int
}

func (r *recordingStore) UpdateNote(_ context.Context, _, body string, _ time.Time) error {
	r.body = body
	return nil
}

func (r *recordingStore) SetTags(_ context.Context, _ string, tags []string) error {
	r.tags = tags
	return nil
}

func (r *recordingStore) SaveSegments(_ context.Context, _ string, segs []overlay.Segment) error {
	r.segs = segs
	r.segSaves++
	return nil
}

func TestNoteSaverStoresCommittedSegments(t *testing.T) {
	tests := []struct {
		name     string
		version  autosave.Version
		segSaves int
		segs     int
	}{
		{
			name: "coded",
			version: autosave.Version{
				NoteID:   "n1",
				Body:     "hello #field",
				Segments: []overlay.Segment{{ID: "s1", NoteID: "n1", CodeID: "theme", Start: 0, End: 5}},
				Coded:    true,
			},
			segSaves: 1,
			segs:     1,
		},
		{
			name:     "coded without segments",
			version:  autosave.Version{NoteID: "n1", Body: "hello #field", Coded: true},
			segSaves: 1,
		},
		{
			name:    "not loaded",
			version: autosave.Version{NoteID: "n1", Body: "hello #field"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &recordingStore{}
			saver := &noteSaver{store: st, logger: logging.Discard()}
			if err := saver.SaveVersion(context.Background(), tt.version); err != nil {
				t.Fatalf("SaveVersion: %v", err)
			}
			if st.body != tt.version.Body || len(st.tags) != 1 || st.tags[0] != "field" {
				t.Fatalf("stored body %q tags %v", st.body, st.tags)
			}
			if st.segSaves != tt.segSaves || len(st.segs) != tt.segs {
				t.Fatalf("segment saves %d with %+v", st.segSaves, st.segs)
			}
		})
	}
}
