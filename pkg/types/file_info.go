package types

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// FileInfo describes one file as the classify and status commands report it
type FileInfo struct {
	Path        string `json:"path"`
	Kind        string `json:"kind"`
	ContentType string `json:"type,omitempty"`
	Size        int64  `json:"size"`
	Tagged      bool   `json:"tagged"`
	DateSaved   string `json:"date_saved,omitempty"`
}

// Name returns the base name of the file
func (f *FileInfo) Name() string {
	return filepath.Base(f.Path)
}

// ToJSON converts FileInfo to JSON string
func (f *FileInfo) ToJSON() string {
	jsonBytes, _ := json.Marshal(f)
	return string(jsonBytes)
}

// String returns a human-readable representation
func (f *FileInfo) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("File: %s\n", f.Path))
	sb.WriteString(fmt.Sprintf("Kind: %s\n", f.Kind))
	if f.ContentType != "" {
		sb.WriteString(fmt.Sprintf("Type: %s\n", f.ContentType))
	}
	sb.WriteString(fmt.Sprintf("Size: %d bytes\n", f.Size))
	if f.Tagged {
		sb.WriteString(fmt.Sprintf("Best: yes (saved %s)\n", f.DateSaved))
	} else {
		sb.WriteString("Best: no\n")
	}
	return sb.String()
}
