// Package notes is the interactive note browser and coding editor.
package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Paintersrp/snyft/internal/autosave"
	"github.com/Paintersrp/snyft/internal/codebook"
	"github.com/Paintersrp/snyft/internal/editor"
	"github.com/Paintersrp/snyft/internal/overlay"
	"github.com/Paintersrp/snyft/internal/search"
	"github.com/Paintersrp/snyft/internal/state"
)

type focus int

const (
	focusList focus = iota
	focusSearch
	focusEditor
	focusPrompt
	focusPicker
)

type promptKind int

const (
	promptNone promptKind = iota
	promptCreate
	promptRename
	promptMemo
	promptDelete
)

const flushTimeout = 3 * time.Second

type storageErrMsg struct {
	err *autosave.StorageError
}

type flushedMsg struct {
	noteID string
	err    error
}

type NoteListModel struct {
	state      *state.State
	list       list.Model
	picker     list.Model
	search     textinput.Model
	input      textinput.Model
	help       help.Model
	keys       *listKeyMap
	editorKeys *editorKeyMap
	session    *editorSession
	highlights *highlightStore

	focus        focus
	returnFocus  focus
	prompt       promptKind
	promptTarget string
	showPreview  bool
	quitArmed    bool
	dragging     bool
	dragBlock    bool
	status       string
	statusErr    bool
	background   string
	degraded     bool
	sortField    sortField
	sortOrder    sortOrder
	width        int
	height       int
}

// NewNoteListModel builds the browser over s. A non-empty query starts with
// the search box filled in. opts are passed to the editor.
func NewNoteListModel(s *state.State, query string, opts ...editor.Option) (*NoteListModel, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("notes: state is not initialised")
	}
	cfg := s.Config

	edOpts := []editor.Option{
		editor.WithTabWidth(cfg.Editor.TabWidth),
		editor.WithViewport(editor.NewViewport(0, 0, cfg.Editor.Padding)),
		editor.WithLogger(s.Logger),
		editor.WithClipboard(editor.DefaultClipboard()),
	}
	ed := editor.New(s.Overlay, s.Autosave, append(edOpts, opts...)...)

	lkeys := newListKeyMap()
	l := list.New(nil, newItemDelegate(lkeys), 0, 0)
	l.Title = "Notes"
	l.Styles.Title = titleStyle
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	picker := list.New(codeItems(s.Codebook), newCodeDelegate(), 0, 0)
	picker.Title = "Apply code"
	picker.Styles.Title = titleStyle
	picker.SetShowHelp(false)
	picker.DisableQuitKeybindings()

	searchInput := textinput.New()
	searchInput.Prompt = "/ "
	searchInput.Placeholder = "search notes, #tag to filter"
	searchInput.SetValue(query)

	input := textinput.New()
	input.Cursor.Style = cursorStyle
	input.PromptStyle = focusedStyle

	m := &NoteListModel{
		state:      s,
		list:       l,
		picker:     picker,
		search:     searchInput,
		input:      input,
		help:       help.New(),
		keys:       lkeys,
		editorKeys: newEditorKeyMap(),
		session:    newEditorSession(ed),
		highlights: newHighlightStore(),
		focus:      focusList,
		sortField:  sortByModifiedAt,
		sortOrder:  descending,
	}
	m.refreshItems()
	return m, nil
}

func (m *NoteListModel) Init() tea.Cmd {
	return tea.Batch(
		waitForStorageError(m.state.Autosave.Errors()),
		sampleStatus(m.state),
	)
}

func (m *NoteListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case storageErrMsg:
		m.setError(fmt.Errorf("save failed (ctrl+s retries): %w", msg.err))
		return m, waitForStorageError(m.state.Autosave.Errors())

	case heartbeatMsg:
		m.background = msg.status.String()
		return m, nextHeartbeat(m.state)

	case flushedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else if m.session.noteID() == msg.noteID && m.focus == focusEditor {
			m.setStatus("Saved")
		}
		return m, m.refreshItems()

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		if !m.isQuitKey(msg) {
			m.quitArmed = false
		}
		switch m.focus {
		case focusSearch:
			return m.handleSearchKey(msg)
		case focusEditor:
			return m.handleEditorKey(msg)
		case focusPrompt:
			return m.handlePromptKey(msg)
		case focusPicker:
			return m.handlePickerKey(msg)
		default:
			return m.handleListKey(msg)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *NoteListModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()

	case key.Matches(msg, m.keys.focusSearch):
		m.focus = focusSearch
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.openNote):
		if item, ok := m.list.SelectedItem().(ListItem); ok {
			m.switchTo(item.id)
		}
		return m, nil

	case key.Matches(msg, m.keys.focusEditor):
		if m.session.isOpen() {
			m.focus = focusEditor
		}
		return m, nil

	case key.Matches(msg, m.keys.create):
		return m, m.openPrompt(promptCreate, "", "", m.state.NewNoteTitle())

	case key.Matches(msg, m.keys.rename):
		if item, ok := m.list.SelectedItem().(ListItem); ok {
			return m, m.openPrompt(promptRename, item.id, item.title, "")
		}
		return m, nil

	case key.Matches(msg, m.keys.remove):
		if item, ok := m.list.SelectedItem().(ListItem); ok {
			return m, m.openPrompt(promptDelete, item.id, "", "")
		}
		return m, nil

	case key.Matches(msg, m.keys.togglePreview):
		m.showPreview = !m.showPreview
		return m, nil

	case key.Matches(msg, m.keys.toggleHelpMenu):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil

	case key.Matches(msg, m.keys.sortByTitle):
		m.sortField = sortByTitle
		return m, m.refreshItems()

	case key.Matches(msg, m.keys.sortByModifiedAt):
		m.sortField = sortByModifiedAt
		return m, m.refreshItems()

	case key.Matches(msg, m.keys.sortAscending):
		m.sortOrder = ascending
		return m, m.refreshItems()

	case key.Matches(msg, m.keys.sortDescending):
		m.sortOrder = descending
		return m, m.refreshItems()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *NoteListModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, m.quit()
	}
	switch msg.Type {
	case tea.KeyEsc:
		m.search.SetValue("")
		m.search.Blur()
		m.focus = focusList
		return m, m.refreshItems()
	case tea.KeyEnter, tea.KeyDown:
		m.search.Blur()
		m.focus = focusList
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		return m, tea.Batch(cmd, m.refreshItems())
	}
	return m, cmd
}

func (m *NoteListModel) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ed := m.session.ed
	if key.Matches(msg, m.editorKeys.quit) {
		return m, m.quit()
	}
	if m.session.highlighting {
		return m, m.handleHighlightKey(msg)
	}

	var err error
	switch {
	case key.Matches(msg, m.editorKeys.back):
		m.focus = focusList
		return m, m.flushCmd(ed.NoteID())
	case key.Matches(msg, m.editorKeys.copy):
		err = ed.Copy()
	case key.Matches(msg, m.editorKeys.cut):
		err = ed.Cut()
	case key.Matches(msg, m.editorKeys.paste):
		err = ed.Paste()
	case key.Matches(msg, m.editorKeys.selectAll):
		ed.SelectAll()
	case key.Matches(msg, m.editorKeys.delWord):
		err = ed.DeleteWordBackward()
	case key.Matches(msg, m.editorKeys.delLine):
		err = ed.DeleteToLineStart()
	case key.Matches(msg, m.editorKeys.highlight):
		m.session.highlighting = true
		m.setStatus("Highlight: select text, then press a code shortcut or ↵ to pick")
	case key.Matches(msg, m.editorKeys.picker):
		m.openPicker()
	case key.Matches(msg, m.editorKeys.uncode):
		if seg, ok := m.session.innermostSegment(); ok {
			err = ed.RemoveSegment(seg.ID)
			if err == nil {
				m.setStatus("Removed " + codeName(m.state.Codebook, seg.CodeID))
			}
		}
	case key.Matches(msg, m.editorKeys.memo):
		if seg, ok := m.session.innermostSegment(); ok {
			return m, m.openPrompt(promptMemo, seg.ID, seg.Memo, "memo")
		}
	case key.Matches(msg, m.editorKeys.save):
		m.state.Autosave.Retry(ed.NoteID())
		return m, m.flushCmd(ed.NoteID())
	case key.Matches(msg, m.editorKeys.preview):
		m.showPreview = !m.showPreview
	default:
		err = m.applyEditKey(msg)
	}
	if err != nil {
		m.setError(err)
	}
	return m, nil
}

func (m *NoteListModel) isQuitKey(msg tea.KeyMsg) bool {
	if m.focus == focusEditor {
		return key.Matches(msg, m.editorKeys.quit)
	}
	return key.Matches(msg, m.keys.quit)
}

// applyEditKey routes motion and text keys to the editor.
func (m *NoteListModel) applyEditKey(msg tea.KeyMsg) error {
	ed := m.session.ed
	if dir, ok := blockDirFor(msg); ok {
		ed.ExtendBlock(dir)
		return nil
	}
	if mv, ok := motionFor(msg); ok {
		ed.Move(mv.dir, mv.extend)
		return nil
	}
	switch msg.Type {
	case tea.KeyBackspace:
		return ed.Backspace()
	case tea.KeyDelete:
		return ed.DeleteForward()
	case tea.KeyEnter:
		return ed.Newline()
	case tea.KeyTab:
		return ed.Tab()
	case tea.KeySpace:
		return ed.InsertText(" ")
	case tea.KeyRunes:
		return ed.InsertText(string(msg.Runes))
	}
	return nil
}

// handleMouse places the cursor on a click in the editor pane and extends
// the selection while the button is held. With alt held the drag draws a
// block selection. The wheel moves the cursor a line at a time.
func (m *NoteListModel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if !m.session.isOpen() || m.showPreview || (m.focus != focusList && m.focus != focusEditor) {
		return nil
	}
	ed := m.session.ed
	x, y := m.editorCell(msg.X, msg.Y)
	v := ed.Viewport()

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		if m.focus == focusEditor {
			ed.Move(editor.Up, false)
		}
	case msg.Button == tea.MouseButtonWheelDown:
		if m.focus == focusEditor {
			ed.Move(editor.Down, false)
		}
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if x < 0 || y < 0 || x >= v.Width || y >= v.Height {
			return nil
		}
		m.focus = focusEditor
		m.dragging, m.dragBlock = true, msg.Alt
		if msg.Alt {
			ed.ClearBlock()
			ed.BlockTo(x, y)
		} else {
			ed.MoveTo(ed.PositionAt(x, y), msg.Shift)
		}
	case msg.Action == tea.MouseActionMotion && m.dragging:
		x, y = clamp(x, 0, v.Width-1), clamp(y, 0, v.Height-1)
		if m.dragBlock {
			ed.BlockTo(x, y)
		} else {
			ed.MoveTo(ed.PositionAt(x, y), true)
		}
	case msg.Action == tea.MouseActionRelease:
		m.dragging = false
	}
	return nil
}

// editorCell converts a terminal cell to a cell of the editor viewport. The
// pane sits right of the list, past its margin and border, under the header.
func (m *NoteListModel) editorCell(x, y int) (int, int) {
	listWidth, _, _ := m.layout()
	left := appStyle.GetPaddingLeft() + listWidth + listStyle.GetHorizontalFrameSize() +
		editorStyle.GetHorizontalFrameSize()
	top := appStyle.GetPaddingTop() + 1
	return x - left, y - top
}

func (m *NoteListModel) handleHighlightKey(msg tea.KeyMsg) tea.Cmd {
	ed := m.session.ed
	switch msg.Type {
	case tea.KeyEsc:
		m.session.highlighting = false
		m.setStatus("")
		return nil
	case tea.KeyEnter:
		m.openPicker()
		return nil
	case tea.KeyRunes:
		if len(msg.Runes) != 1 {
			return nil
		}
		code, ok := m.state.Codebook.ByShortcut(msg.Runes[0])
		if !ok {
			m.setError(fmt.Errorf("no code bound to %q", msg.Runes[0]))
			return nil
		}
		m.applyCode(code)
		return nil
	}
	if mv, ok := motionFor(msg); ok {
		ed.Move(mv.dir, mv.extend)
	}
	return nil
}

func (m *NoteListModel) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.picker.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	switch msg.Type {
	case tea.KeyEsc:
		m.focus = focusEditor
		return m, nil
	case tea.KeyEnter:
		m.focus = focusEditor
		if item, ok := m.picker.SelectedItem().(codeItem); ok {
			m.applyCode(item.code)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m *NoteListModel) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt == promptDelete {
		switch strings.ToLower(msg.String()) {
		case "y":
			m.deleteNote(m.promptTarget)
			m.closePrompt()
			return m, m.refreshItems()
		case "n", "esc":
			m.closePrompt()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.exitAltView):
		m.closePrompt()
		return m, nil
	case key.Matches(msg, m.keys.submitAltView):
		return m, m.submitPrompt()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *NoteListModel) submitPrompt() tea.Cmd {
	ctx := context.Background()
	value := m.input.Value()
	target := m.promptTarget

	switch m.prompt {
	case promptCreate:
		n, err := m.state.CreateNote(ctx, value, "")
		m.closePrompt()
		if err != nil {
			m.setError(err)
			return nil
		}
		cmd := m.refreshItems()
		m.switchTo(n.ID)
		return cmd

	case promptRename:
		if err := m.state.RenameNote(ctx, target, value); err != nil {
			m.setError(err)
			return nil
		}
		if m.session.noteID() == target {
			m.session.note.Title = strings.TrimSpace(value)
		}
		m.closePrompt()
		return m.refreshItems()

	case promptMemo:
		err := m.session.ed.SetMemo(target, value)
		m.closePrompt()
		if err != nil {
			m.setError(err)
		}
	}
	return nil
}

func (m *NoteListModel) openPrompt(kind promptKind, target, value, placeholder string) tea.Cmd {
	m.returnFocus = m.focus
	m.focus = focusPrompt
	m.prompt = kind
	m.promptTarget = target
	m.input.SetValue(value)
	m.input.Placeholder = placeholder
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *NoteListModel) closePrompt() {
	m.input.Blur()
	m.input.SetValue("")
	m.prompt = promptNone
	m.promptTarget = ""
	m.focus = m.returnFocus
	if m.focus == focusEditor && !m.session.isOpen() {
		m.focus = focusList
	}
}

func (m *NoteListModel) openPicker() {
	m.picker.SetItems(codeItems(m.state.Codebook))
	m.picker.ResetFilter()
	m.focus = focusPicker
}

func (m *NoteListModel) applyCode(code codebook.Code) {
	if _, err := m.session.ed.ApplyCode(code.ID, ""); err != nil {
		if errors.Is(err, overlay.ErrEmptySelection) {
			m.setError(errors.New("select text before applying a code"))
			return
		}
		m.setError(err)
		return
	}
	m.setStatus("Coded as " + code.Name)
}

// switchTo opens note id in the editor. The open note is flushed first and
// stays open when its pending save fails.
func (m *NoteListModel) switchTo(id string) {
	if m.session.noteID() == id {
		m.focus = focusEditor
		return
	}
	if current := m.session.noteID(); current != "" {
		if err := m.flushNow(current); err != nil {
			m.setError(fmt.Errorf("cannot switch notes: %w", err))
			return
		}
	}

	n, segs, err := m.state.OpenNote(context.Background(), id)
	if err != nil {
		m.setError(err)
		return
	}
	m.session.open(n, segs)
	m.resize()
	m.focus = focusEditor
	m.setStatus("")
}

func (m *NoteListModel) deleteNote(id string) {
	if m.session.noteID() == id {
		m.session.close()
	}
	if err := m.state.DeleteNote(context.Background(), id); err != nil {
		m.setError(err)
		return
	}
	removeItemByID(&m.list, id)
	m.setStatus("Deleted note")
}

// quit flushes the open note before leaving. When that fails the first
// request only reports it; a second one quits anyway.
func (m *NoteListModel) quit() tea.Cmd {
	if id := m.session.noteID(); id != "" && !m.quitArmed {
		if err := m.flushNow(id); err != nil {
			m.quitArmed = true
			m.setError(fmt.Errorf("unsaved changes (quit again to discard): %w", err))
			return nil
		}
	}
	return tea.Quit
}

func (m *NoteListModel) flushNow(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	return m.state.Flush(ctx, id)
}

func (m *NoteListModel) flushCmd(id string) tea.Cmd {
	if id == "" {
		return nil
	}
	s := m.state
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		return flushedMsg{noteID: id, err: s.Flush(ctx, id)}
	}
}

// refreshItems reloads the list. With search input the items follow the
// ranked results; otherwise every note is listed in the chosen order.
func (m *NoteListModel) refreshItems() tea.Cmd {
	ctx := context.Background()
	notes, err := m.state.Store.ListNotes(ctx)
	if err != nil {
		m.setError(err)
		return nil
	}

	text := strings.TrimSpace(m.search.Value())
	if text == "" {
		m.highlights.clear()
		m.degraded = false
		items := make([]ListItem, 0, len(notes))
		for _, n := range notes {
			items = append(items, newListItem(n, m.highlights))
		}
		m.list.Title = fmt.Sprintf("Notes (%s %s)", m.sortField, m.sortOrder)
		return m.setListItems(sortItems(items, m.sortField, m.sortOrder))
	}

	results, degraded, err := m.state.SearchNotes(ctx, search.ParseQuery(text))
	if err != nil {
		m.setError(err)
		return nil
	}
	m.degraded = degraded
	m.highlights.setAll(results)

	byID := make(map[string]int, len(notes))
	for i, n := range notes {
		byID[n.ID] = i
	}
	items := make([]ListItem, 0, len(results))
	for _, r := range results {
		if i, ok := byID[r.ID]; ok {
			items = append(items, newListItem(notes[i], m.highlights))
		}
	}
	m.list.Title = fmt.Sprintf("Search: %d results", len(items))
	if degraded {
		m.list.Title += " (index rebuilding)"
	}
	return m.setListItems(castToListItems(items))
}

func (m *NoteListModel) setListItems(items []list.Item) tea.Cmd {
	cmd := m.list.SetItems(items)
	if idx := m.list.Index(); idx >= len(items) && len(items) > 0 {
		m.list.Select(len(items) - 1)
	}
	return cmd
}

func (m *NoteListModel) setStatus(msg string) {
	m.status = msg
	m.statusErr = false
}

func (m *NoteListModel) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
	m.state.Logger.Warn("tui error", "error", err)
}

// layout returns the list width, the right pane width, and the pane height.
func (m *NoteListModel) layout() (listWidth, paneWidth, paneHeight int) {
	h, v := appStyle.GetFrameSize()
	width := m.width - h
	height := m.height - v - 1 - lipgloss.Height(m.helpView())
	listWidth = width / 3
	paneWidth = width - listWidth - 2
	return listWidth, paneWidth, height
}

func (m *NoteListModel) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	listWidth, paneWidth, paneHeight := m.layout()
	m.list.SetSize(listWidth, paneHeight-1)
	m.picker.SetSize(paneWidth-1, paneHeight)
	m.search.Width = listWidth - 3
	m.input.Width = paneWidth - 6

	m.session.setSize(paneWidth-1, paneHeight-1)
	if n := m.state.Config.Editor.PageSize; n > 0 {
		m.session.ed.Cursor().SetPageSize(n)
	}
}

func (m *NoteListModel) View() string {
	listWidth, paneWidth, paneHeight := m.layout()

	left := lipgloss.JoinVertical(lipgloss.Left, m.search.View(), m.list.View())
	left = listStyle.Width(listWidth).Render(left)

	var right string
	switch {
	case m.focus == focusPrompt:
		right = m.promptView(paneWidth)
	case m.focus == focusPicker:
		right = m.picker.View()
	case m.showPreview:
		right = m.previewView(paneWidth-1, paneHeight)
	default:
		right = lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(m.session.viewHeader()),
			m.session.render(m.state.Codebook, m.focus == focusEditor),
		)
	}
	paneStyle := editorStyle
	if m.focus == focusEditor {
		paneStyle = editorFocusedStyle
	}
	right = paneStyle.Width(paneWidth).Height(paneHeight).MaxHeight(paneHeight).Render(right)

	layout := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		m.statusView(),
		m.helpView(),
	)
	return padFrame(appStyle.Render(layout), m.width, m.height)
}

func (m *NoteListModel) promptView(width int) string {
	var title string
	switch m.prompt {
	case promptCreate:
		title = "New note title"
	case promptRename:
		title = "Rename note"
	case promptMemo:
		title = "Segment memo"
	case promptDelete:
		return textPromptStyle.Width(width - 4).Render(
			titleStyle.Render("Delete note?") + "\n\n" + helpStyle.Render("y to delete, n to keep"),
		)
	}
	return textPromptStyle.Width(width - 4).Render(
		fmt.Sprintf("%s\n\n%s", titleStyle.Render(title), m.input.View()),
	)
}

// previewView renders the note in focus: the live buffer while editing, the
// selected list item otherwise.
func (m *NoteListModel) previewView(width, height int) string {
	var (
		id      string
		version int64
		body    string
	)
	if m.focus == focusEditor && m.session.isOpen() {
		id = m.session.noteID()
		version = int64(m.session.ed.Buffer().Version())
		body = m.session.ed.Text()
		id += "@live"
	} else if item, ok := m.list.SelectedItem().(ListItem); ok {
		id, version, body = item.id, item.lastModified.UnixNano(), item.body
	} else {
		return titleStyle.Render("Preview")
	}

	rendered := m.state.Preview.Render(id, version, body, width)
	snapshot, err := m.state.Index.AcquireSnapshot()
	if err != nil {
		snapshot = nil
	}
	links := previewSummaryStyle.Render(
		formatPreviewContext(buildPreviewContext(strings.TrimSuffix(id, "@live"), snapshot)),
	)
	return clipLines(
		lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Preview"), links, rendered),
		height,
	)
}

func (m *NoteListModel) statusView() string {
	parts := []string{}
	if m.status != "" {
		if m.statusErr {
			parts = append(parts, statusErrorStyle.Render(m.status))
		} else {
			parts = append(parts, statusStyle(m.status))
		}
	}
	if m.focus == focusEditor && m.session.isOpen() {
		if summary := m.session.cursorSummary(m.state.Codebook); summary != "" {
			parts = append(parts, statusStyle(summary))
		}
	}
	if m.background != "" {
		parts = append(parts, statusBannerStyle.Render(m.background))
	}
	return strings.Join(parts, "  ")
}

func (m *NoteListModel) helpView() string {
	var content string
	if m.focus == focusEditor {
		content = m.help.View(m.editorKeys)
	} else {
		content = m.help.View(m.keys)
	}
	h, _ := appStyle.GetFrameSize()
	return renderHelpWithinWidth(m.width-h, content)
}

func codeItems(book *codebook.Book) []list.Item {
	if book == nil {
		return nil
	}
	codes := book.All()
	items := make([]list.Item, 0, len(codes))
	for _, c := range codes {
		items = append(items, codeItem{code: c})
	}
	return items
}

func waitForStorageError(ch <-chan *autosave.StorageError) tea.Cmd {
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return nil
		}
		return storageErrMsg{err: err}
	}
}

// Run starts the full-screen browser and blocks until it exits. A non-empty
// noteID opens that note in the editor.
func Run(s *state.State, query, noteID string) error {
	m, err := NewNoteListModel(s, query)
	if err != nil {
		return err
	}
	if noteID != "" {
		m.switchTo(noteID)
		if m.statusErr {
			return errors.New(m.status)
		}
	}

	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
