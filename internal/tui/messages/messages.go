package messages

import (
	"time"

	"mediatagger/pkg/types"
)

// ErrorMsg carries a failure from a background command
type ErrorMsg struct {
	Err error
}

// TickMsg drives the playback progress poll
type TickMsg time.Time

// ExtractCompleteMsg reports a finished extraction
type ExtractCompleteMsg struct {
	Report *types.ExtractReport
}

// RemoveCompleteMsg reports a finished removal of the extracted tree
type RemoveCompleteMsg struct {
	Removed bool
}

// TagsChangedMsg is sent when the tag store changed on disk; the check
// marks have already been updated and the view only needs a redraw.
type TagsChangedMsg struct{}
