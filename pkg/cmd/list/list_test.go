package list

import (
	"testing"
	"time"

	"github.com/Paintersrp/snyft/internal/store"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)

func TestParseSince(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		"days":     {input: "7d", want: now.AddDate(0, 0, -7)},
		"duration": {input: "36h", want: now.Add(-36 * time.Hour)},
		"date":     {input: "2024-03-01", want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)},
		"long":     {input: "March 2, 2024", want: time.Date(2024, 3, 2, 0, 0, 0, 0, time.Local)},
		"garbage":  {input: "whenever", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := parseSince(tc.input, now)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSince returned error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("parseSince(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	notes := []store.Note{
		{ID: "a", ModifiedAt: now.Add(-time.Hour), Tags: []string{"fieldwork", "pilot"}},
		{ID: "b", ModifiedAt: now.AddDate(0, 0, -3), Tags: []string{"fieldwork"}},
		{ID: "c", ModifiedAt: now.AddDate(0, 0, -30)},
	}

	tests := map[string]struct {
		opts options
		want []string
	}{
		"all":         {opts: options{}, want: []string{"a", "b", "c"}},
		"since":       {opts: options{since: "7d"}, want: []string{"a", "b"}},
		"tag":         {opts: options{tags: []string{"#FieldWork"}}, want: []string{"a", "b"}},
		"every tag":   {opts: options{tags: []string{"fieldwork", "pilot"}}, want: []string{"a"}},
		"limit":       {opts: options{limit: 1}, want: []string{"a"}},
		"since + tag": {opts: options{since: "2h", tags: []string{"fieldwork"}}, want: []string{"a"}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := filter(notes, tc.opts, now)
			if err != nil {
				t.Fatalf("filter returned error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("filter = %d notes, want %v", len(got), tc.want)
			}
			for i, n := range got {
				if n.ID != tc.want[i] {
					t.Fatalf("position %d = %s, want %s", i, n.ID, tc.want[i])
				}
			}
		})
	}
}
