package notes

import (
	"fmt"
	"strings"
	"time"

	"github.com/Paintersrp/snyft/internal/codebook"
	"github.com/Paintersrp/snyft/internal/store"
)

type ListItem struct {
	id           string
	title        string
	body         string
	tags         []string
	lastModified time.Time
	highlights   *highlightStore
}

func newListItem(n store.Note, highlights *highlightStore) ListItem {
	return ListItem{
		id:           n.ID,
		title:        n.Title,
		body:         n.Body,
		tags:         n.Tags,
		lastModified: n.ModifiedAt,
		highlights:   highlights,
	}
}

func (i ListItem) Title() string {
	if i.title == "" {
		return i.id
	}
	return i.title
}

// Description shows the matched snippet while a search is active, and the
// modification time with the tags otherwise.
func (i ListItem) Description() string {
	if snippet := i.highlightSnippet(); snippet != "" {
		return snippet
	}

	description := i.lastModified.Local().Format("2006-01-02 15:04")
	if len(i.tags) == 0 {
		description += " · No tags"
	} else {
		description += " · " + strings.Join(i.tags, ", ")
	}
	return description
}

func (i ListItem) FilterValue() string {
	str := strings.Join(i.tags, " ")
	parts := []string{i.Title(), "[" + str + "]"}
	if snippet := i.highlightSnippet(); snippet != "" {
		parts = append(parts, snippet)
	}
	return strings.Join(parts, " ")
}

func (i ListItem) ID() string {
	return i.id
}

func (i ListItem) highlightSnippet() string {
	if i.highlights == nil {
		return ""
	}
	if res, ok := i.highlights.lookup(i.id); ok {
		if res.Snippet != "" {
			return res.Snippet
		}
		return res.MatchFrom
	}
	return ""
}

// codeItem is one entry of the code picker.
type codeItem struct {
	code codebook.Code
}

func (i codeItem) Title() string {
	if i.code.Shortcut != 0 {
		return fmt.Sprintf("%c  %s", i.code.Shortcut, i.code.Name)
	}
	return "   " + i.code.Name
}

func (i codeItem) Description() string {
	return i.code.Description
}

func (i codeItem) FilterValue() string {
	return i.code.Name
}
