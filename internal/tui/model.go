// Package tui is the terminal front end: a bubbletea program showing the
// scope directory, a preview of the selected file and the tagging and
// transport controls.
package tui

import (
	"fmt"
	"path/filepath"
	"time"

	"mediatagger/internal/browse"
	"mediatagger/internal/errors"
	"mediatagger/internal/log"
	"mediatagger/internal/session"
	"mediatagger/internal/tui/components"
	"mediatagger/internal/tui/messages"
	"mediatagger/internal/tui/views"
	"mediatagger/pkg/types"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// tickInterval is the playback progress poll period
const tickInterval = 100 * time.Millisecond

// Model is the bubbletea model bound to a session
type Model struct {
	session *session.Session
	browser *browse.Browser
	pane    *components.ViewerPane

	list   *components.FileList
	status *components.StatusBar
	keys   types.KeyMap
	help   help.Model

	mode     types.Mode
	width    int
	height   int
	quitting bool
}

// New creates the model and lists the session's scope directory. pane must
// be the Display the session's viewer was built with, and browser the
// session's MarkSink.
func New(s *session.Session, browser *browse.Browser, pane *components.ViewerPane) (*Model, error) {
	m := &Model{
		session: s,
		browser: browser,
		pane:    pane,
		list:    components.NewFileList(),
		status:  components.NewStatusBar(),
		keys:    types.DefaultKeyMap(),
		help:    help.New(),
		mode:    types.Normal,
	}
	if err := browser.SetRoot(s.Scope()); err != nil {
		return nil, err
	}
	m.syncList()
	return m, nil
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return messages.TickMsg(t)
	})
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.list.SetSize(m.listWidth(), max(msg.Height-12, 5))
		return m, nil

	case messages.TickMsg:
		if err := m.session.Viewer().Poll(); err != nil {
			log.LogWithError(err).Debug("Progress poll failed")
		}
		return m, tickCmd()

	case messages.TagsChangedMsg:
		m.syncList()
		m.status.SetText("Tags changed on disk, reloaded")
		return m, nil

	case messages.ExtractCompleteMsg:
		m.status.SetLoading(false)
		failed := len(msg.Report.Failed())
		if failed > 0 {
			m.status.SetError(fmt.Errorf("extracted %d files to %s, %d failed", msg.Report.Copied(), msg.Report.Destination, failed))
		} else {
			m.status.SetSuccess(fmt.Sprintf("Extracted %d files to %s", msg.Report.Copied(), msg.Report.Destination))
		}
		return m, nil

	case messages.RemoveCompleteMsg:
		m.status.SetLoading(false)
		if msg.Removed {
			m.status.SetSuccess("Removed extracted files")
		} else {
			m.status.SetText("Nothing to remove")
		}
		return m, nil

	case messages.ErrorMsg:
		m.status.SetLoading(false)
		m.status.SetError(msg.Err)
		return m, nil

	case tea.KeyMsg:
		if m.mode == types.Confirm {
			return m.handleConfirmKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	return m, m.status.Update(msg)
}

func (m *Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if action, ok := m.keys.Action(msg); ok {
		m.perform(action)
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		if m.list.MoveCursor(-1) {
			m.selectCurrent()
		}
	case key.Matches(msg, m.keys.Down):
		if m.list.MoveCursor(1) {
			m.selectCurrent()
		}
	case key.Matches(msg, m.keys.GotoTop):
		if m.list.SetCursor(0) {
			m.selectCurrent()
		}
	case key.Matches(msg, m.keys.GotoLast):
		if m.list.SetCursor(len(m.list.Entries()) - 1) {
			m.selectCurrent()
		}
	case key.Matches(msg, m.keys.Open):
		m.open()
	case key.Matches(msg, m.keys.GoBack):
		m.changeDir(filepath.Dir(m.browser.Root()))
	case key.Matches(msg, m.keys.ShowAll):
		showAll, err := m.browser.ToggleShowAll()
		if err != nil {
			m.status.SetError(err)
		} else if showAll {
			m.status.SetText("Showing all files")
		} else {
			m.status.SetText("Showing media files")
		}
		m.syncList()
	case key.Matches(msg, m.keys.Extract):
		m.status.SetText("Extracting…")
		return m, tea.Batch(m.status.SetLoading(true), m.extractCmd())
	case key.Matches(msg, m.keys.RemoveExtracted):
		m.mode = types.Confirm
		m.status.SetText("Remove the extracted copy of " + filepath.Base(m.session.Scope()) + "?")
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.mode = types.Normal
		m.status.SetText("Removing…")
		return m, tea.Batch(m.status.SetLoading(true), m.removeCmd())
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Quit):
		m.mode = types.Normal
		m.status.SetText("Cancelled")
	}
	return m, nil
}

func (m *Model) perform(action types.Action) {
	if action == types.ToggleBest {
		best, err := m.session.ToggleBest()
		if err != nil {
			m.status.SetError(err)
			return
		}
		m.syncList()
		if best {
			m.status.SetSuccess("Tagged best")
		} else {
			m.status.SetText("Tag cleared")
		}
		return
	}

	if err := m.session.Perform(action); err != nil {
		m.status.SetError(err)
	}
}

func (m *Model) selectCurrent() {
	entry := m.list.Current()
	if entry == nil {
		return
	}
	if _, err := m.session.Select(entry.Path); err != nil {
		if errors.IsMediaDecode(err) {
			m.status.SetError(fmt.Errorf("cannot preview %s", entry.Name))
			return
		}
		m.status.SetError(err)
		return
	}
	m.status.SetText("")
}

func (m *Model) open() {
	entry := m.list.Current()
	if entry == nil {
		return
	}
	if entry.IsDir {
		m.changeDir(entry.Path)
		return
	}
	m.selectCurrent()
}

func (m *Model) changeDir(dir string) {
	if dir == m.browser.Root() {
		return
	}
	if err := m.session.Navigate(dir); err != nil {
		m.status.SetError(err)
		return
	}
	if err := m.browser.SetRoot(dir); err != nil {
		m.status.SetError(err)
		return
	}
	m.syncList()
	m.list.SetCursor(0)
	m.status.SetText("")
}

// syncList copies the browser's rows, including fresh check marks.
func (m *Model) syncList() {
	m.list.SetCurrentDir(m.browser.Root())
	m.list.SetEntries(m.browser.Entries())
}

func (m *Model) extractCmd() tea.Cmd {
	return func() tea.Msg {
		report, err := m.session.Extract()
		if err != nil {
			return messages.ErrorMsg{Err: err}
		}
		return messages.ExtractCompleteMsg{Report: report}
	}
}

func (m *Model) removeCmd() tea.Cmd {
	return func() tea.Msg {
		removed, err := m.session.RemoveExtracted()
		if err != nil {
			return messages.ErrorMsg{Err: err}
		}
		return messages.RemoveCompleteMsg{Removed: removed}
	}
}

func (m *Model) listWidth() int {
	if m.width >= 100 {
		return m.width / 2
	}
	return max(m.width-4, 20)
}

// View implements tea.Model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	return views.RenderMainView(m, m.list.View())
}

// Entries returns the listed rows
func (m *Model) Entries() []browse.Entry { return m.list.Entries() }

// Cursor returns the current row index
func (m *Model) Cursor() int { return m.list.Cursor() }

// CurrentDir returns the listed directory
func (m *Model) CurrentDir() string { return m.browser.Root() }

// Mode returns the input mode
func (m *Model) Mode() types.Mode { return m.mode }

// Width returns the terminal width
func (m *Model) Width() int { return m.width }

// Height returns the terminal height
func (m *Model) Height() int { return m.height }

// PaneView renders the viewer pane
func (m *Model) PaneView() string { return m.pane.View() }

// StatusView renders the status line
func (m *Model) StatusView() string { return m.status.View() }

// StatusText returns the status message
func (m *Model) StatusText() string { return m.status.Text() }

// HelpView renders the key help
func (m *Model) HelpView() string { return m.help.View(m.keys) }

// Run starts the program. notify receives a function the caller can use to
// tell the program the tag store changed on disk.
func Run(m *Model, notify func(func())) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	if notify != nil {
		notify(func() { p.Send(messages.TagsChangedMsg{}) })
	}
	_, err := p.Run()
	return err
}
