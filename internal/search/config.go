package search

import (
	"strings"
	"time"
)

// Config describes index behavior.
type Config struct {
	// EnableBody controls whether the index searches note bodies in addition to
	// titles, tags and links.
	EnableBody bool
	// Fuzzy enables a fuzzy title match when no note contains the term.
	Fuzzy bool
}

// Document is the searchable form of a note.
type Document struct {
	ID         string
	Title      string
	Body       string
	Tags       []string
	ModifiedAt time.Time
}

// Query represents a search request against the index.
type Query struct {
	// Term is the free-text query to evaluate against indexed content.
	Term string
	// Tags enumerates tag names that must be present on the note. All tags must
	// be satisfied for a document to match.
	Tags []string
}

// ParseQuery splits user input into free text and #tag filters. Tags are
// matched lowercased.
func ParseQuery(input string) Query {
	var (
		terms []string
		tags  []string
	)
	for _, field := range strings.Fields(input) {
		if strings.HasPrefix(field, "#") && len(field) > 1 {
			tags = append(tags, strings.ToLower(field[1:]))
			continue
		}
		terms = append(terms, field)
	}
	return Query{Term: strings.Join(terms, " "), Tags: tags}
}

// Result captures a document match from the index.
type Result struct {
	ID        string
	Title     string
	Snippet   string
	MatchFrom string
	Score     int
}
