package types

// Mode represents the current input mode of the TUI
type Mode int

const (
	// Normal is the default mode for browsing and controls
	Normal Mode = iota
	// Confirm waits for a yes/no answer before a destructive operation
	Confirm
)

// String returns the mode name shown in the status bar
func (m Mode) String() string {
	switch m {
	case Confirm:
		return "CONFIRM"
	default:
		return "NORMAL"
	}
}
