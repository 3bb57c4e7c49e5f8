package components

import (
	"mediatagger/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type statusLevel int

const (
	levelInfo statusLevel = iota
	levelSuccess
	levelFailure
)

// StatusBar is the one-line message under the listing. A spinner runs in
// front of the message while an extraction or removal is in flight.
type StatusBar struct {
	message string
	level   statusLevel
	busy    bool
	spin    spinner.Model
}

func NewStatusBar() *StatusBar {
	spin := spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(styles.Theme.Help))
	return &StatusBar{spin: spin}
}

// SetLoading starts or stops the spinner; starting returns its first tick.
func (s *StatusBar) SetLoading(busy bool) tea.Cmd {
	s.busy = busy
	if !busy {
		return nil
	}
	return s.spin.Tick
}

func (s *StatusBar) Loading() bool { return s.busy }

func (s *StatusBar) SetText(text string) { s.show(text, levelInfo) }

func (s *StatusBar) SetSuccess(text string) { s.show(text, levelSuccess) }

func (s *StatusBar) SetError(err error) { s.show("Error: "+err.Error(), levelFailure) }

func (s *StatusBar) show(text string, level statusLevel) {
	s.message, s.level = text, level
}

// Text returns the message without styling
func (s *StatusBar) Text() string { return s.message }

// Update forwards spinner ticks; other messages are ignored.
func (s *StatusBar) Update(msg tea.Msg) tea.Cmd {
	if !s.busy {
		return nil
	}
	var cmd tea.Cmd
	s.spin, cmd = s.spin.Update(msg)
	return cmd
}

func (s *StatusBar) View() string {
	line := s.message
	if s.busy {
		line = s.spin.View() + " " + line
	}
	if line == "" {
		return ""
	}

	switch s.level {
	case levelSuccess:
		return styles.Theme.Success.Render(line)
	case levelFailure:
		return styles.Theme.Error.Render(line)
	default:
		return styles.Theme.Help.Render(line)
	}
}
