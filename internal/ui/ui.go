package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/imanmossavat/litstage/internal/api"
	"github.com/imanmossavat/litstage/internal/library"
	"github.com/imanmossavat/litstage/internal/match"
	"github.com/imanmossavat/litstage/internal/session"
	"github.com/imanmossavat/litstage/internal/staging"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	StagingListView ViewState = iota
	EditRowView
	MatchReviewView
	CreateLibraryView
	ResultView
)

// Program is the slice of [tea.Program] the recovery navigator needs.
type Program interface {
	Send(tea.Msg)
}

// RecoveryNavigator implements [session.Navigator] by injecting a message
// into the running program, so the checkpoint jump happens on the UI loop.
type RecoveryNavigator struct {
	program Program
}

func NewRecoveryNavigator(p Program) *RecoveryNavigator {
	return &RecoveryNavigator{program: p}
}

func (n *RecoveryNavigator) NavigateToCheckpoint(useCase session.UseCase) {
	n.program.Send(sessionRecoveredMsg{useCase: useCase})
}

// ModelOpts contains the dependencies for creating a [Model].
type ModelOpts struct {
	Context   context.Context
	Backend   staging.Backend
	Matcher   match.Backend
	Libraries *library.Service
	Registry  *session.Registry
	Logger    *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	backend   staging.Backend
	matcher   match.Backend
	libraries *library.Service
	registry  *session.Registry
	logger    *log.Logger

	engine *staging.Engine
	review *match.Review

	width  int
	height int

	rowList   list.Model
	listReady bool

	searching bool
	search    textinput.Model

	editIdx   int
	editInput textinput.Model

	createStep  int
	createInput textinput.Model
	libName     string
	libPath     string

	matchCursor int

	status string
	result *api.Library
	err    error
	help   help.Model
	keys   keyMap
}

// rowItem wraps [staging.Row] to implement list.Item.
type rowItem struct {
	row staging.Row
}

func (i rowItem) FilterValue() string { return i.row.Title }

func (i rowItem) Title() string {
	mark := "[ ]"
	if i.row.Selected {
		mark = "[x]"
	}
	title := i.row.Title
	if title == "" {
		title = "(untitled)"
	}
	if i.row.Retraction == staging.RetractionRetracted {
		title += " " + styles.err.Render("RETRACTED")
	}
	return fmt.Sprintf("%s %s", mark, title)
}

func (i rowItem) Description() string {
	parts := []string{}
	if i.row.Authors != "" {
		parts = append(parts, i.row.Authors)
	}
	if y := i.row.YearString(); y != "" {
		parts = append(parts, y)
	}
	if i.row.Venue != "" {
		parts = append(parts, i.row.Venue)
	}
	parts = append(parts, string(i.row.Source))
	return strings.Join(parts, " • ")
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(opts ModelOpts) *Model {
	m := &Model{
		ctx:       opts.Context,
		view:      StagingListView,
		backend:   opts.Backend,
		matcher:   opts.Matcher,
		libraries: opts.Libraries,
		registry:  opts.Registry,
		logger:    opts.Logger,
		help:      help.New(),
		keys:      newKeyMap(),
	}
	m.search = textinput.New()
	m.search.Placeholder = "search title, authors, venue..."
	m.rebind()
	return m
}

// rebind points the engine and review flow at the registry's current session.
// Called at construction and again after a recovery replaced the session.
func (m *Model) rebind() {
	s := m.registry.Get()
	if s == nil {
		return
	}
	m.engine = staging.NewEngine(m.backend, s.ID, m.logger)
	m.review = match.NewReview(m.matcher, s.ID, m.logger)
}

// Init initializes the TUI by fetching the first staging snapshot.
func (m *Model) Init() tea.Cmd {
	return m.fetchSnapshot()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.listReady {
			m.rowList.SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case StagingListView:
			return m.handleStagingKeys(msg)
		case EditRowView:
			return m.handleEditKeys(msg)
		case MatchReviewView:
			return m.handleMatchReviewKeys(msg)
		case CreateLibraryView:
			return m.handleCreateKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case snapshotMsg:
		if msg.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("fetch failed: %v", msg.err))
			return m, nil
		}
		m.applySnapshot(msg.snap)
		return m, nil

	case matchRanMsg:
		if msg.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("match failed: %v", msg.err))
			return m, nil
		}
		m.matchCursor = 0
		m.view = MatchReviewView
		m.status = ""
		return m, nil

	case rematchDoneMsg:
		if msg.err != nil {
			m.status = styles.warn.Render(fmt.Sprintf("rematch: %v", msg.err))
			return m, nil
		}
		if msg.resp.Matched {
			m.status = styles.ok.Render("row rematched")
		} else {
			m.status = styles.warn.Render("still unmatched: " + msg.resp.Reason)
		}
		return m, nil

	case confirmDoneMsg:
		if msg.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("confirm failed: %v", msg.err))
			return m, nil
		}
		m.status = styles.ok.Render(fmt.Sprintf("confirmed %d matches", msg.count))
		m.view = CreateLibraryView
		m.createStep = 0
		m.createInput = textinput.New()
		m.createInput.Placeholder = "library name"
		m.createInput.Focus()
		return m, nil

	case libraryCreatedMsg:
		m.result = msg.lib
		m.err = msg.err
		m.view = ResultView
		return m, nil

	case sweepDoneMsg:
		if msg.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("retraction sweep failed: %v", msg.err))
			return m, nil
		}
		m.status = fmt.Sprintf("checked %d rows, %d retracted", msg.resp.Checked, msg.resp.Retracted)
		return m, m.fetchSnapshot()

	case sessionRecoveredMsg:
		m.rebind()
		m.view = StagingListView
		m.status = styles.warn.Render("session expired; a fresh one was started")
		return m, m.fetchSnapshot()
	}

	if m.listReady && m.view == StagingListView {
		var cmd tea.Cmd
		m.rowList, cmd = m.rowList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.engine == nil {
		return styles.err.Render("No active session. Start one with: litstage session start\n\nPress q to quit")
	}

	switch m.view {
	case StagingListView:
		return m.renderStagingList()
	case EditRowView:
		return m.renderEdit()
	case MatchReviewView:
		return m.renderMatchReview()
	case CreateLibraryView:
		return m.renderCreate()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) applySnapshot(snap *staging.Snapshot) {
	items := make([]list.Item, len(snap.Rows))
	for i, row := range snap.Rows {
		items[i] = rowItem{row: row}
	}

	idx := 0
	if m.listReady {
		idx = m.rowList.Index()
	}
	m.rowList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.rowList.Title = fmt.Sprintf("Staged Rows (%d selected of %d)", snap.Stats.Selected, snap.TotalRows)
	m.rowList.SetFilteringEnabled(false)
	m.rowList.SetSize(m.width-4, m.height-10)
	if idx < len(items) {
		m.rowList.Select(idx)
	}
	m.listReady = true
}

func (m *Model) selectedRow() (staging.Row, bool) {
	if !m.listReady {
		return staging.Row{}, false
	}
	item, ok := m.rowList.SelectedItem().(rowItem)
	if !ok {
		return staging.Row{}, false
	}
	return item.row, true
}

func (m *Model) handleStagingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.String() {
		case "enter":
			m.searching = false
			query := m.search.Value()
			return m, m.do(func() (*staging.Snapshot, error) {
				return m.engine.SetQuery(m.ctx, query)
			})
		case "esc":
			m.searching = false
			m.search.SetValue("")
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.search):
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.clear):
		m.search.SetValue("")
		return m, m.do(func() (*staging.Snapshot, error) {
			return m.engine.ResetFilters(m.ctx)
		})
	case key.Matches(msg, m.keys.toggle):
		row, ok := m.selectedRow()
		if !ok {
			return m, nil
		}
		return m, m.do(func() (*staging.Snapshot, error) {
			return m.engine.ToggleSelection(m.ctx, row.StagingID)
		})
	case key.Matches(msg, m.keys.all):
		return m, m.do(func() (*staging.Snapshot, error) {
			return m.engine.SelectVisible(m.ctx, true)
		})
	case key.Matches(msg, m.keys.remove):
		row, ok := m.selectedRow()
		if !ok {
			return m, nil
		}
		return m, m.do(func() (*staging.Snapshot, error) {
			return m.engine.RemoveRow(m.ctx, row.StagingID)
		})
	case key.Matches(msg, m.keys.edit):
		row, ok := m.selectedRow()
		if !ok {
			return m, nil
		}
		if err := m.engine.StartEditing(row.StagingID); err != nil {
			m.status = styles.err.Render(err.Error())
			return m, nil
		}
		m.view = EditRowView
		m.editIdx = 0
		m.focusEditField()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.next):
		page := m.engine.Page().Number + 1
		return m, m.do(func() (*staging.Snapshot, error) {
			return m.engine.SetPage(m.ctx, page)
		})
	case key.Matches(msg, m.keys.prev):
		page := m.engine.Page().Number - 1
		return m, m.do(func() (*staging.Snapshot, error) {
			return m.engine.SetPage(m.ctx, page)
		})
	case key.Matches(msg, m.keys.sweep):
		return m, func() tea.Msg {
			resp, _, err := m.engine.CheckRetractions(m.ctx, nil)
			return sweepDoneMsg{resp: resp, err: err}
		}
	case key.Matches(msg, m.keys.match):
		return m, func() tea.Msg {
			return matchRanMsg{err: m.review.Run(m.ctx)}
		}
	}

	var cmd tea.Cmd
	m.rowList, cmd = m.rowList.Update(msg)
	return m, cmd
}

func (m *Model) focusEditField() {
	col := staging.EditableColumns[m.editIdx]
	m.editInput = textinput.New()
	m.editInput.Placeholder = string(col)
	if ed := m.engine.Editing(); ed != nil {
		m.editInput.SetValue(ed.Value(col))
	}
	m.editInput.Focus()
}

// stashEditField writes the visible input back into the working copy.
func (m *Model) stashEditField() {
	col := staging.EditableColumns[m.editIdx]
	if err := m.engine.UpdateEditingValue(col, m.editInput.Value()); err != nil {
		m.status = styles.err.Render(err.Error())
	}
}

func (m *Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.engine.CancelEditing()
		m.view = StagingListView
		return m, nil
	case "tab", "down":
		m.stashEditField()
		m.editIdx = (m.editIdx + 1) % len(staging.EditableColumns)
		m.focusEditField()
		return m, textinput.Blink
	case "shift+tab", "up":
		m.stashEditField()
		m.editIdx = (m.editIdx - 1 + len(staging.EditableColumns)) % len(staging.EditableColumns)
		m.focusEditField()
		return m, textinput.Blink
	case "enter":
		m.stashEditField()
		return m, func() tea.Msg {
			snap, err := m.engine.CommitEditing(m.ctx)
			if err != nil {
				// Commit failed: edit stays open, error is shown in place.
				return snapshotMsg{snap: m.engine.Snapshot(), err: nil}
			}
			return snapshotMsg{snap: snap, err: nil}
		}
	}

	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return m, cmd
}

func (m *Model) handleMatchReviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	matched := m.review.Matched()
	unmatched := m.review.Unmatched()
	total := len(matched) + len(unmatched)

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = StagingListView
		return m, m.fetchSnapshot()
	case key.Matches(msg, m.keys.down):
		if m.matchCursor < total-1 {
			m.matchCursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.up):
		if m.matchCursor > 0 {
			m.matchCursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		if m.matchCursor < len(matched) {
			row := matched[m.matchCursor]
			if err := m.review.SetConfirm(row.Row.StagingID, !row.Confirm); err != nil {
				m.status = styles.err.Render(err.Error())
			}
		}
		return m, nil
	case key.Matches(msg, m.keys.match):
		// Re-submit an unmatched row after its metadata was edited.
		if m.matchCursor >= len(matched) {
			idx := m.matchCursor - len(matched)
			if idx < len(unmatched) {
				id := unmatched[idx].Row.StagingID
				return m, func() tea.Msg {
					resp, err := m.review.EditAndRematch(m.ctx, id, nil)
					return rematchDoneMsg{resp: resp, err: err}
				}
			}
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		return m, func() tea.Msg {
			count, err := m.review.Confirm(m.ctx)
			return confirmDoneMsg{count: count, err: err}
		}
	}
	return m, nil
}

func (m *Model) handleCreateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = MatchReviewView
		return m, nil
	case "enter":
		value := m.createInput.Value()
		switch m.createStep {
		case 0:
			m.libName = value
			m.createStep = 1
			m.createInput = textinput.New()
			m.createInput.Placeholder = "library path (e.g. reviews/2026-survey)"
			m.createInput.Focus()
			return m, textinput.Blink
		case 1:
			m.libPath = value
			sessionID := m.engine.SessionID()
			name, path := m.libName, m.libPath
			return m, func() tea.Msg {
				lib, err := m.libraries.Create(m.ctx, sessionID, name, path, "")
				return libraryCreatedMsg{lib: lib, err: err}
			}
		}
	}

	var cmd tea.Cmd
	m.createInput, cmd = m.createInput.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = StagingListView
		m.result = nil
		m.err = nil
		m.status = ""
		return m, m.fetchSnapshot()
	}
	return m, nil
}

// do wraps an engine operation into a command producing a snapshotMsg.
func (m *Model) do(op func() (*staging.Snapshot, error)) tea.Cmd {
	return func() tea.Msg {
		snap, err := op()
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m *Model) fetchSnapshot() tea.Cmd {
	if m.engine == nil {
		return nil
	}
	return m.do(func() (*staging.Snapshot, error) {
		return m.engine.Fetch(m.ctx)
	})
}

func (m *Model) renderStagingList() string {
	var b strings.Builder

	if m.searching {
		b.WriteString("Search: " + m.search.View() + "\n\n")
	}

	snap := m.engine.Snapshot()
	switch {
	case snap == nil:
		b.WriteString("Loading staged rows...\n")
	case snap.Classify() == staging.EmptyNoRowsStaged:
		b.WriteString(styles.warn.Render("Nothing staged yet.") +
			"\n\nImport rows first:\n  litstage import ids <doi>...\n  litstage import collection <id>\n  litstage import doc <file>\n")
	case snap.Classify() == staging.EmptyNoFilterMatch:
		b.WriteString(styles.warn.Render("No rows match the current filters.") +
			"\n\nPress f to clear filters.\n")
	default:
		b.WriteString(m.rowList.View())
		b.WriteString(fmt.Sprintf("\npage %d • %d filtered", m.engine.Page().Number, snap.TotalFiltered))
	}

	if m.status != "" {
		b.WriteString("\n" + m.status)
	}

	helpKeys := []key.Binding{m.keys.toggle, m.keys.edit, m.keys.search, m.keys.match, m.keys.quit}
	b.WriteString("\n\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderEdit() string {
	ed := m.engine.Editing()
	if ed == nil {
		return "no edit in progress"
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("Edit Row "+ed.StagingID) + "\n\n")
	for i, col := range staging.EditableColumns {
		cursor := "  "
		value := ed.Value(col)
		if i == m.editIdx {
			cursor = "> "
			value = m.editInput.View()
		}
		b.WriteString(fmt.Sprintf("%s%-11s %s\n", cursor, col, value))
	}
	if ed.Err != "" {
		b.WriteString("\n" + styles.err.Render(ed.Err))
	}
	b.WriteString("\n" + styles.help.Render("tab: next field • enter: save • esc: cancel"))
	return b.String()
}

func (m *Model) renderMatchReview() string {
	matched := m.review.Matched()
	unmatched := m.review.Unmatched()

	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("Match Review — %d matched, %d unmatched", len(matched), len(unmatched))) + "\n\n")

	for i, mr := range matched {
		cursor := "  "
		if i == m.matchCursor {
			cursor = "> "
		}
		mark := "[ ]"
		if mr.Confirm {
			mark = "[x]"
		}
		title := ""
		if mr.Row.Title != nil {
			title = *mr.Row.Title
		}
		b.WriteString(fmt.Sprintf("%s%s %s -> %s (%s, %.2f)\n", cursor, mark, title, mr.Record.Title, mr.Method, mr.Score))
	}

	if len(unmatched) > 0 {
		b.WriteString("\n" + styles.warn.Render("Unmatched") + "\n")
		for i, ur := range unmatched {
			cursor := "  "
			if i+len(matched) == m.matchCursor {
				cursor = "> "
			}
			title := ur.Row.StagingID
			if ur.Row.Title != nil && *ur.Row.Title != "" {
				title = *ur.Row.Title
			}
			b.WriteString(fmt.Sprintf("%s%s: %s\n", cursor, title, ur.Reason))
		}
	}

	if m.status != "" {
		b.WriteString("\n" + m.status)
	}
	b.WriteString("\n" + styles.help.Render("space: toggle confirm • m: rematch row • enter: confirm all • esc: back"))
	return b.String()
}

func (m *Model) renderCreate() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Create Library") + "\n\n")
	switch m.createStep {
	case 0:
		b.WriteString("Name: " + m.createInput.View())
	case 1:
		b.WriteString("Name: " + m.libName + "\n")
		b.WriteString("Path: " + m.createInput.View())
	}
	b.WriteString("\n\n" + styles.help.Render("enter: continue • esc: back"))
	return b.String()
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Library commit failed: %v\n\nPress r to go back, q to quit", m.err))
	}
	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to go back, q to quit")
	}

	title := styles.ok.Render("✓ Library Created")
	info := fmt.Sprintf("\nName: %s\nPath: %s\nPapers: %d\nID: %s\n",
		m.result.Name, m.result.Path, m.result.PaperCount, m.result.LibraryID)

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView(helpKeys))
}
