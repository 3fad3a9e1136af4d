package notes

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Paintersrp/snyft/internal/editor"
)

type listKeyMap struct {
	openNote         key.Binding
	focusSearch      key.Binding
	create           key.Binding
	rename           key.Binding
	remove           key.Binding
	togglePreview    key.Binding
	toggleHelpMenu   key.Binding
	sortByTitle      key.Binding
	sortByModifiedAt key.Binding
	sortAscending    key.Binding
	sortDescending   key.Binding
	submitAltView    key.Binding
	exitAltView      key.Binding
	focusEditor      key.Binding
	quit             key.Binding
}

func newListKeyMap() *listKeyMap {
	return &listKeyMap{
		openNote: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "open"),
		),
		focusSearch: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		create: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new note"),
		),
		rename: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "rename"),
		),
		remove: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "delete"),
		),
		togglePreview: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "preview"),
		),
		toggleHelpMenu: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		sortByTitle: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "sort by title"),
		),
		sortByModifiedAt: key.NewBinding(
			key.WithKeys("f3"),
			key.WithHelp("f3", "sort by modified"),
		),
		sortAscending: key.NewBinding(
			key.WithKeys("f5"),
			key.WithHelp("f5", "ascending sort"),
		),
		sortDescending: key.NewBinding(
			key.WithKeys("f6"),
			key.WithHelp("f6", "descending sort"),
		),
		submitAltView: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "submit"),
		),
		exitAltView: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		focusEditor: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "editor"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+q", "ctrl+c"),
			key.WithHelp("ctrl+q", "quit"),
		),
	}
}

func (m listKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{m.openNote, m.focusSearch, m.create, m.togglePreview, m.quit}
}

func (m listKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.openNote, m.focusSearch, m.focusEditor, m.togglePreview},
		{m.create, m.rename, m.remove},
		{m.sortByTitle, m.sortByModifiedAt, m.sortAscending, m.sortDescending},
		{m.toggleHelpMenu, m.quit},
	}
}

type editorKeyMap struct {
	back      key.Binding
	copy      key.Binding
	cut       key.Binding
	paste     key.Binding
	selectAll key.Binding
	delWord   key.Binding
	delLine   key.Binding
	highlight key.Binding
	picker    key.Binding
	uncode    key.Binding
	memo      key.Binding
	save      key.Binding
	preview   key.Binding
	quit      key.Binding
}

func newEditorKeyMap() *editorKeyMap {
	return &editorKeyMap{
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "notes"),
		),
		copy: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "copy"),
		),
		cut: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "cut"),
		),
		paste: key.NewBinding(
			key.WithKeys("ctrl+v"),
			key.WithHelp("ctrl+v", "paste"),
		),
		selectAll: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "select all"),
		),
		delWord: key.NewBinding(
			key.WithKeys("alt+backspace", "ctrl+w"),
			key.WithHelp("alt+⌫", "delete word"),
		),
		delLine: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "delete to line start"),
		),
		highlight: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "highlight mode"),
		),
		picker: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("ctrl+k", "pick code"),
		),
		uncode: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "remove code"),
		),
		memo: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "memo"),
		),
		save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save/retry"),
		),
		preview: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "preview"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+q"),
			key.WithHelp("ctrl+q", "quit"),
		),
	}
}

func (m editorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{m.back, m.highlight, m.picker, m.save, m.quit}
}

func (m editorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.back, m.save, m.preview, m.quit},
		{m.copy, m.cut, m.paste, m.selectAll},
		{m.delWord, m.delLine},
		{m.highlight, m.picker, m.uncode, m.memo},
	}
}

type motion struct {
	dir    editor.Direction
	extend bool
}

// motions maps cursor keys onto editor motions. Alt variants of the left
// and right arrows move by word as well.
var motions = map[tea.KeyType]motion{
	tea.KeyLeft:           {editor.Left, false},
	tea.KeyRight:          {editor.Right, false},
	tea.KeyUp:             {editor.Up, false},
	tea.KeyDown:           {editor.Down, false},
	tea.KeyShiftLeft:      {editor.Left, true},
	tea.KeyShiftRight:     {editor.Right, true},
	tea.KeyShiftUp:        {editor.Up, true},
	tea.KeyShiftDown:      {editor.Down, true},
	tea.KeyCtrlLeft:       {editor.WordLeft, false},
	tea.KeyCtrlRight:      {editor.WordRight, false},
	tea.KeyCtrlShiftLeft:  {editor.WordLeft, true},
	tea.KeyCtrlShiftRight: {editor.WordRight, true},
	tea.KeyHome:           {editor.LineStart, false},
	tea.KeyEnd:            {editor.LineEnd, false},
	tea.KeyShiftHome:      {editor.LineStart, true},
	tea.KeyShiftEnd:       {editor.LineEnd, true},
	tea.KeyCtrlHome:       {editor.DocStart, false},
	tea.KeyCtrlEnd:        {editor.DocEnd, false},
	tea.KeyCtrlShiftHome:  {editor.DocStart, true},
	tea.KeyCtrlShiftEnd:   {editor.DocEnd, true},
	tea.KeyPgUp:           {editor.PageUp, false},
	tea.KeyPgDown:         {editor.PageDown, false},
}

func motionFor(msg tea.KeyMsg) (motion, bool) {
	mv, ok := motions[msg.Type]
	if !ok {
		return motion{}, false
	}
	if msg.Alt {
		switch mv.dir {
		case editor.Left:
			mv.dir = editor.WordLeft
		case editor.Right:
			mv.dir = editor.WordRight
		}
	}
	return mv, true
}

// blockDirs maps the shifted arrows, pressed with alt, onto block
// selection steps.
var blockDirs = map[tea.KeyType]editor.Direction{
	tea.KeyShiftLeft:  editor.Left,
	tea.KeyShiftRight: editor.Right,
	tea.KeyShiftUp:    editor.Up,
	tea.KeyShiftDown:  editor.Down,
}

func blockDirFor(msg tea.KeyMsg) (editor.Direction, bool) {
	if !msg.Alt {
		return 0, false
	}
	dir, ok := blockDirs[msg.Type]
	return dir, ok
}
