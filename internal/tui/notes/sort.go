package notes

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
)

type sortField int

const (
	sortByTitle sortField = iota
	sortByModifiedAt
)

type sortOrder int

const (
	ascending sortOrder = iota
	descending
)

func (f sortField) String() string {
	if f == sortByTitle {
		return "title"
	}
	return "modified"
}

func (o sortOrder) String() string {
	if o == ascending {
		return "asc"
	}
	return "desc"
}

func sortItems(items []ListItem, field sortField, order sortOrder) []list.Item {
	sortedItems := make([]ListItem, len(items))
	copy(sortedItems, items)

	sort.SliceStable(sortedItems, func(i, j int) bool {
		a, b := sortedItems[i], sortedItems[j]
		if order == descending {
			a, b = b, a
		}
		switch field {
		case sortByTitle:
			if c := strings.Compare(strings.ToLower(a.Title()), strings.ToLower(b.Title())); c != 0 {
				return c < 0
			}
		case sortByModifiedAt:
			if !a.lastModified.Equal(b.lastModified) {
				return a.lastModified.Before(b.lastModified)
			}
		}
		return a.id < b.id
	})

	return castToListItems(sortedItems)
}

func castToListItems(items []ListItem) []list.Item {
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = item
	}
	return listItems
}
