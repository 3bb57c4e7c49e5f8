package components

import (
	"fmt"
	"io"
	"strings"

	"mediatagger/internal/browse"
	"mediatagger/internal/tui/styles"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	defaultListWidth  = 60
	defaultListHeight = 20
)

type item struct {
	entry browse.Entry
}

func (i item) FilterValue() string { return i.entry.Name }

// rowDelegate renders one listing row: check mark, name, size, age.
type rowDelegate struct{}

func (rowDelegate) Height() int                             { return 1 }
func (rowDelegate) Spacing() int                            { return 0 }
func (rowDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (rowDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	it, ok := listItem.(item)
	if !ok {
		return
	}
	fmt.Fprint(w, RenderRow(it.entry, index == m.Index(), m.Width()))
}

// RenderRow formats a single entry. Exposed for the views' tests.
func RenderRow(e browse.Entry, current bool, width int) string {
	mark := "[ ]"
	if e.Checked {
		mark = styles.Theme.Checked.Render("[x]")
	}

	name := e.Name
	style := styles.Theme.Unselected
	if e.IsDir {
		name += "/"
		style = styles.Theme.Directory
	}
	if current {
		style = styles.Theme.Selected
	}

	details := ""
	if !e.IsDir {
		details = fmt.Sprintf("%9s  %s", e.HumanSize(), e.Age())
	}

	nameWidth := width - len(details) - 8
	if nameWidth < 12 {
		nameWidth = 12
	}
	if r := []rune(name); len(r) > nameWidth {
		name = string(r[:nameWidth-1]) + "…"
	}
	name += strings.Repeat(" ", nameWidth-len([]rune(name)))

	cursor := " "
	if current {
		cursor = ">"
	}
	return fmt.Sprintf("%s %s %s %s", cursor, mark, style.Render(name), styles.Theme.Help.Render(details))
}

// FileList is the scrolling directory listing
type FileList struct {
	list       list.Model
	entries    []browse.Entry
	currentDir string
}

// NewFileList creates an empty listing
func NewFileList() *FileList {
	l := list.New([]list.Item{}, rowDelegate{}, defaultListWidth, defaultListHeight)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return &FileList{list: l}
}

// SetEntries replaces the rows, keeping the cursor on the same path when it
// is still listed.
func (fl *FileList) SetEntries(entries []browse.Entry) {
	current := ""
	if e := fl.Current(); e != nil {
		current = e.Path
	}

	fl.entries = entries
	items := make([]list.Item, len(entries))
	cursor := 0
	for i, e := range entries {
		items[i] = item{entry: e}
		if e.Path == current {
			cursor = i
		}
	}
	fl.list.SetItems(items)
	fl.list.Select(cursor)
}

// SetCurrentDir sets the directory shown in the header
func (fl *FileList) SetCurrentDir(dir string) {
	fl.currentDir = dir
}

// CurrentDir returns the directory shown in the header
func (fl *FileList) CurrentDir() string {
	return fl.currentDir
}

// SetSize sets the list dimensions
func (fl *FileList) SetSize(width, height int) {
	fl.list.SetSize(width, height)
}

// Entries returns the listed rows
func (fl *FileList) Entries() []browse.Entry {
	return fl.entries
}

// Cursor returns the index of the current row
func (fl *FileList) Cursor() int {
	return fl.list.Index()
}

// Current returns the entry under the cursor, or nil for an empty list
func (fl *FileList) Current() *browse.Entry {
	i := fl.list.Index()
	if i < 0 || i >= len(fl.entries) {
		return nil
	}
	return &fl.entries[i]
}

// MoveCursor moves the cursor by delta rows, clamped to the list. It
// reports whether the cursor moved.
func (fl *FileList) MoveCursor(delta int) bool {
	return fl.SetCursor(fl.list.Index() + delta)
}

// SetCursor places the cursor on row pos, clamped to the list
func (fl *FileList) SetCursor(pos int) bool {
	if len(fl.entries) == 0 {
		return false
	}
	if pos < 0 {
		pos = 0
	}
	if pos >= len(fl.entries) {
		pos = len(fl.entries) - 1
	}
	if pos == fl.list.Index() {
		return false
	}
	fl.list.Select(pos)
	return true
}

// View renders the listing
func (fl *FileList) View() string {
	var s strings.Builder
	s.WriteString(styles.Theme.Help.Render("Directory: "+fl.currentDir) + "\n\n")
	if len(fl.entries) == 0 {
		s.WriteString("No media files found\n")
		return s.String()
	}
	s.WriteString(fl.list.View())
	return s.String()
}
