package types

import "fmt"

// Action is a user-facing control, independent of the key or button bound
// to it
type Action string

const (
	// ToggleBest tags or untags the selected file
	ToggleBest Action = "toggle_best"
	// SeekBackward moves playback back by the seek step
	SeekBackward Action = "seek_backward"
	// PlayPause toggles playback
	PlayPause Action = "play_pause"
	// SeekForward moves playback forward by the seek step
	SeekForward Action = "seek_forward"
	// ReloadCurrent shows the selected file again
	ReloadCurrent Action = "reload_current"
	// VolumeUp raises the volume by the volume step
	VolumeUp Action = "volume_up"
	// VolumeDown lowers the volume by the volume step
	VolumeDown Action = "volume_down"
	// CycleSpeed advances the playback rate 1x -> 2x -> 4x
	CycleSpeed Action = "cycle_speed"
)

// Actions lists every action in display order
var Actions = []Action{
	ToggleBest, SeekBackward, PlayPause, SeekForward,
	ReloadCurrent, VolumeUp, VolumeDown, CycleSpeed,
}

// ParseAction returns the Action named s
func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// OperationType names an operation recorded in the journal
type OperationType string

const (
	// TagOperation records a file tagged best
	TagOperation OperationType = "tag"
	// UntagOperation records a tag cleared
	UntagOperation OperationType = "untag"
	// ExtractOperation records an extraction pass
	ExtractOperation OperationType = "extract"
	// RemoveExtractedOperation records a destination tree removed
	RemoveExtractedOperation OperationType = "remove_extracted"
)
