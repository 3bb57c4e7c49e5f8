package media

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

var registerMakerNotes sync.Once

// Describe returns the one-line caption shown under the viewer: the file's
// base name followed by whatever details can be read cheaply. Images add
// their EXIF capture date and camera model when present; unsupported files
// add their sniffed MIME type. Read failures just shorten the caption.
func Describe(path string) string {
	parts := []string{filepath.Base(path)}

	switch Classify(path) {
	case Image:
		parts = append(parts, exifDetails(path)...)
	case Unsupported:
		if mime, err := mimetype.DetectFile(path); err == nil {
			parts = append(parts, mime.String())
		}
	}

	return strings.Join(parts, " | ")
}

func exifDetails(path string) []string {
	registerMakerNotes.Do(func() {
		exif.RegisterParsers(mknote.All...)
	})

	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	x, err := exif.Decode(file)
	if err != nil {
		return nil
	}

	var details []string
	if dt, err := x.DateTime(); err == nil {
		details = append(details, dt.Format("2006-01-02 15:04"))
	}
	if model, err := x.Get(exif.Model); err == nil {
		if s, err := model.StringVal(); err == nil && s != "" {
			details = append(details, strings.TrimSpace(s))
		}
	}
	return details
}
