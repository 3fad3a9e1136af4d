package notes

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
)

func newItemDelegate(keys *listKeyMap) list.DefaultDelegate {
	d := list.NewDefaultDelegate()

	d.Styles.SelectedTitle = selectedItemStyle
	d.Styles.SelectedDesc = selectedItemStyle

	shortHelp := []key.Binding{keys.openNote, keys.rename, keys.remove}
	longHelp := [][]key.Binding{{keys.openNote, keys.create, keys.rename, keys.remove}}

	d.ShortHelpFunc = func() []key.Binding {
		return shortHelp
	}

	d.FullHelpFunc = func() [][]key.Binding {
		return longHelp
	}
	return d
}

func newCodeDelegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = selectedItemStyle
	d.Styles.SelectedDesc = selectedItemStyle
	return d
}

func removeItemByID(m *list.Model, id string) {
	if id == "" {
		return
	}

	items := m.Items()
	for idx, item := range items {
		li, ok := item.(ListItem)
		if !ok {
			continue
		}
		if li.id == id {
			m.RemoveItem(idx)
			return
		}
	}
}
