package parser

import (
	"reflect"
	"testing"
)

func TestParseCollectsTitleTagsAndLinks(t *testing.T) {
	body := `---
title: Interview 3
tags:
  - research
---
# Ignored heading

Talked about #onboarding and #Research again, see [[Interview 2]].
` + "`#notatag`" + `

tags:
- pain/point
- onboarding
`

	meta := Parse(body)
	if meta.Title != "Interview 3" {
		t.Fatalf("Title = %q, want front matter title", meta.Title)
	}
	want := []string{"research", "onboarding", "pain/point"}
	if !reflect.DeepEqual(meta.Tags, want) {
		t.Fatalf("Tags = %#v, want %#v", meta.Tags, want)
	}
	if !reflect.DeepEqual(meta.Links, []string{"Interview 2"}) {
		t.Fatalf("Links = %#v", meta.Links)
	}
}

func TestParseTitleFallbacks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "h1", body: "intro line\n\n# Real Title\n", want: "Real Title"},
		{name: "first line", body: "\n\n## Sub heading\nmore", want: "Sub heading"},
		{name: "empty", body: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.body).Title; got != tt.want {
				t.Fatalf("Title = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLinks(t *testing.T) {
	got := Links("[[a]] [[b|alias]] [[a]] [[ ]]")
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("Links = %#v", got)
	}
	if !HasNoteLinks([]byte("see [[x]]")) || HasNoteLinks([]byte("no links")) {
		t.Fatalf("HasNoteLinks mismatch")
	}
}
