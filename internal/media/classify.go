// Package media classifies files by extension and prepares still images and
// captions for display.
package media

import (
	"strings"
)

// Kind is the viewer a file is shown in
type Kind int

const (
	// Unsupported files are shown as a fixed placeholder
	Unsupported Kind = iota
	// Image files are decoded and fitted into the viewport
	Image
	// Video files are handed to the player
	Video
)

// String returns the lowercase kind name
func (k Kind) String() string {
	switch k {
	case Image:
		return "image"
	case Video:
		return "video"
	default:
		return "unsupported"
	}
}

// Extensions are matched case-sensitively, so "a.MP4" is Unsupported.
var (
	ImageExtensions = []string{"jpg", "jpeg", "png", "gif", "bmp", "tiff", "tif", "svg"}
	VideoExtensions = []string{"mp4", "avi", "mov", "wmv", "flv", "mpeg", "mpg", "mkv", "webm", "3gp", "m4v", "ogv", "vob", "ts"}

	// BrowseOnlyExtensions are listed by the browser but never previewed
	BrowseOnlyExtensions = []string{"pdf"}
)

// Classify returns the viewer kind for path, based only on its suffix.
func Classify(path string) Kind {
	if hasSuffix(path, ImageExtensions) {
		return Image
	}
	if hasSuffix(path, VideoExtensions) {
		return Video
	}
	return Unsupported
}

func hasSuffix(path string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(path, "."+ext) {
			return true
		}
	}
	return false
}

// DefaultNameFilters returns the browser's glob filters: every image and
// video extension plus the browse-only ones.
func DefaultNameFilters() []string {
	var filters []string
	for _, group := range [][]string{ImageExtensions, VideoExtensions, BrowseOnlyExtensions} {
		for _, ext := range group {
			filters = append(filters, "*."+ext)
		}
	}
	return filters
}
