package common

import (
	"mediatagger/internal/browse"
	"mediatagger/pkg/types"
)

// ModelReader defines the interface that views use to read model state
type ModelReader interface {
	Entries() []browse.Entry
	Cursor() int
	CurrentDir() string
	Mode() types.Mode
	Width() int
	Height() int
	PaneView() string
	StatusView() string
	HelpView() string
}
