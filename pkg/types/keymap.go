package types

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines the terminal keybindings. The digit keys follow the
// numeric keypad layout of the desktop shortcuts.
type KeyMap struct {
	// General
	Help key.Binding
	Quit key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding // Enter a directory or show a file
	GoBack   key.Binding // Parent directory
	ShowAll  key.Binding // Toggle the name filters
	GotoTop  key.Binding
	GotoLast key.Binding

	// Controls
	ToggleBest    key.Binding
	SeekBackward  key.Binding
	PlayPause     key.Binding
	SeekForward   key.Binding
	ReloadCurrent key.Binding
	VolumeUp      key.Binding
	VolumeDown    key.Binding
	CycleSpeed    key.Binding

	// Extraction
	Extract         key.Binding
	RemoveExtracted key.Binding

	// Confirmation prompts
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap returns the standard bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Up:       key.NewBinding(key.WithKeys("up", "k", "4"), key.WithHelp("↑/4", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j", "6"), key.WithHelp("↓/6", "down")),
		Open:     key.NewBinding(key.WithKeys("enter", "right", "l"), key.WithHelp("enter", "open")),
		GoBack:   key.NewBinding(key.WithKeys("backspace", "left", "h"), key.WithHelp("←", "parent")),
		ShowAll:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "show all")),
		GotoTop:  key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		GotoLast: key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),

		ToggleBest:    key.NewBinding(key.WithKeys("5", " "), key.WithHelp("5", "best")),
		SeekBackward:  key.NewBinding(key.WithKeys("7"), key.WithHelp("7", "back 1s")),
		PlayPause:     key.NewBinding(key.WithKeys("8"), key.WithHelp("8", "play/pause")),
		SeekForward:   key.NewBinding(key.WithKeys("9"), key.WithHelp("9", "fwd 1s")),
		ReloadCurrent: key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reload")),
		VolumeUp:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "vol up")),
		VolumeDown:    key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "vol down")),
		CycleSpeed:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "speed")),

		Extract:         key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "extract")),
		RemoveExtracted: key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "remove extracted")),

		Confirm: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
		Cancel:  key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),
	}
}

// Action returns the control bound to msg, if any
func (k KeyMap) Action(msg tea.KeyMsg) (Action, bool) {
	bindings := []struct {
		binding key.Binding
		action  Action
	}{
		{k.ToggleBest, ToggleBest},
		{k.SeekBackward, SeekBackward},
		{k.PlayPause, PlayPause},
		{k.SeekForward, SeekForward},
		{k.ReloadCurrent, ReloadCurrent},
		{k.VolumeUp, VolumeUp},
		{k.VolumeDown, VolumeDown},
		{k.CycleSpeed, CycleSpeed},
	}
	for _, b := range bindings {
		if key.Matches(msg, b.binding) {
			return b.action, true
		}
	}
	return "", false
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.ToggleBest, k.PlayPause, k.Extract, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.GoBack, k.ShowAll, k.GotoTop, k.GotoLast},
		{k.ToggleBest, k.SeekBackward, k.PlayPause, k.SeekForward, k.ReloadCurrent},
		{k.VolumeUp, k.VolumeDown, k.CycleSpeed, k.Extract, k.RemoveExtracted},
		{k.Help, k.Quit},
	}
}
