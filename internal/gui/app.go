//go:build !nogui

// Package gui is the desktop front end built on fyne: a directory table on
// the left, the media viewer on the right and the tagging and extraction
// controls around them.
package gui

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"mediatagger/internal/browse"
	"mediatagger/internal/errors"
	"mediatagger/internal/log"
	"mediatagger/internal/session"
	"mediatagger/internal/settings"
	"mediatagger/pkg/types"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	appID        = "io.github.mediatagger"
	pollInterval = 100 * time.Millisecond
)

var columnTitles = []string{"Name", "Size", "Type", "Modified"}

// runeActions maps the keypad layout onto controls
var runeActions = map[rune]types.Action{
	'5': types.ToggleBest,
	' ': types.ToggleBest,
	'7': types.SeekBackward,
	'8': types.PlayPause,
	'9': types.SeekForward,
	'0': types.ReloadCurrent,
	'+': types.VolumeUp,
	'=': types.VolumeUp,
	'-': types.VolumeDown,
	's': types.CycleSpeed,
}

// App is the desktop application window bound to one session
type App struct {
	fyneApp    fyne.App
	mainWindow fyne.Window
	session    *session.Session
	browser    *browse.Browser
	display    *Display

	mu       sync.Mutex
	entries  []browse.Entry
	selected int
	widths   []int

	table      *widget.Table
	pathLabel  *widget.Label
	bestCheck  *widget.Check
	showAll    *widget.Check
	statusText *widget.Label

	stopPoll chan struct{}
	pollOnce sync.Once
}

// NewApp builds the main window. display must be the viewer.Display the
// session's viewer was created with, and browser the session's MarkSink.
// A nil fyneApp creates the default application.
func NewApp(fyneApp fyne.App, s *session.Session, browser *browse.Browser, display *Display) (*App, error) {
	if fyneApp == nil {
		fyneApp = app.NewWithID(appID)
	}

	a := &App{
		fyneApp:  fyneApp,
		session:  s,
		browser:  browser,
		display:  display,
		selected: -1,
		widths:   append([]int(nil), s.Preferences().ColumnWidths...),
		stopPoll: make(chan struct{}),
	}
	if len(a.widths) != len(columnTitles) {
		a.widths = append([]int(nil), settings.Defaults().ColumnWidths...)
	}

	display.Bind(s.Viewer(), a.perform)

	if err := browser.SetRoot(s.Scope()); err != nil {
		return nil, err
	}

	a.mainWindow = fyneApp.NewWindow("Media Tagger")
	a.setupMainWindow()
	a.refreshListing()
	return a, nil
}

func (a *App) setupMainWindow() {
	a.pathLabel = widget.NewLabel("")
	a.pathLabel.Truncation = fyne.TextTruncateEllipsis
	a.statusText = widget.NewLabel("")

	a.table = widget.NewTable(
		func() (int, int) {
			a.mu.Lock()
			defer a.mu.Unlock()
			return len(a.entries), len(columnTitles)
		},
		func() fyne.CanvasObject {
			label := widget.NewLabel("")
			label.Truncation = fyne.TextTruncateEllipsis
			return label
		},
		func(id widget.TableCellID, cell fyne.CanvasObject) {
			cell.(*widget.Label).SetText(a.cellText(id))
		},
	)
	a.table.ShowHeaderRow = true
	a.table.CreateHeader = func() fyne.CanvasObject {
		return widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	}
	a.table.UpdateHeader = func(id widget.TableCellID, cell fyne.CanvasObject) {
		if id.Col >= 0 && id.Col < len(columnTitles) {
			cell.(*widget.Label).SetText(columnTitles[id.Col])
		}
	}
	for col, width := range a.widths {
		// zero leaves the column at its template width
		if width > 0 {
			a.table.SetColumnWidth(col, float32(width))
		}
	}
	a.table.OnSelected = func(id widget.TableCellID) {
		a.selectRow(id.Row)
	}

	up := widget.NewButtonWithIcon("", theme.MoveUpIcon(), func() {
		a.changeDir(filepath.Dir(a.browser.Root()))
	})
	browseButton := widget.NewButtonWithIcon("Browse", theme.FolderOpenIcon(), a.showFolderDialog)
	a.showAll = widget.NewCheck("Show all files", a.setShowAll)

	a.bestCheck = widget.NewCheck("Best", func(checked bool) {
		a.setBest(checked)
	})
	a.bestCheck.Disable()
	extractButton := widget.NewButtonWithIcon("Extract best", theme.DocumentSaveIcon(), a.extract)
	removeButton := widget.NewButtonWithIcon("Remove extracted", theme.DeleteIcon(), a.confirmRemove)

	toolbar := container.NewBorder(nil, nil, container.NewHBox(up, browseButton), a.showAll, a.pathLabel)
	tagBar := container.NewHBox(a.bestCheck, layout.NewSpacer(), extractButton, removeButton)
	right := container.NewBorder(nil, tagBar, nil, nil, a.display.Content())

	split := container.NewHSplit(a.table, right)
	split.Offset = 0.45

	a.mainWindow.SetContent(container.NewBorder(toolbar, a.statusText, nil, nil, split))

	geom := a.session.Preferences().Geometry()
	a.mainWindow.Resize(fyne.NewSize(float32(geom.Width), float32(geom.Height)))

	a.mainWindow.Canvas().SetOnTypedRune(a.handleRune)
	a.mainWindow.Canvas().SetOnTypedKey(a.handleKey)
	a.mainWindow.SetCloseIntercept(func() {
		a.shutdown()
		a.mainWindow.Close()
	})
}

// Run shows the window, starts progress polling and blocks until the
// window is closed.
func (a *App) Run() {
	go a.poll()
	a.mainWindow.ShowAndRun()
	a.pollOnce.Do(func() { close(a.stopPoll) })
}

func (a *App) poll() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-a.stopPoll:
			return
		case <-ticker.C:
			if err := a.session.Viewer().Poll(); err != nil {
				log.LogWithError(err).Debug("Progress poll failed")
			}
		}
	}
}

// TagsChanged redraws the check marks after the store changed on disk
func (a *App) TagsChanged() {
	a.refreshListing()
	a.setStatus("Tags changed on disk, reloaded")
}

func (a *App) cellText(id widget.TableCellID) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id.Row < 0 || id.Row >= len(a.entries) {
		return ""
	}
	e := a.entries[id.Row]
	switch id.Col {
	case 0:
		name := e.Name
		if e.IsDir {
			name += "/"
		}
		if e.Checked {
			return "✓ " + name
		}
		return "   " + name
	case 1:
		return e.HumanSize()
	case 2:
		if e.IsDir {
			return "folder"
		}
		return e.Kind.String()
	case 3:
		return e.Age()
	}
	return ""
}

func (a *App) refreshListing() {
	entries := a.browser.Entries()
	a.mu.Lock()
	a.entries = entries
	a.mu.Unlock()

	a.pathLabel.SetText(a.browser.Root())
	a.table.Refresh()
	a.syncBestCheck()
}

func (a *App) entry(row int) (browse.Entry, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if row < 0 || row >= len(a.entries) {
		return browse.Entry{}, false
	}
	return a.entries[row], true
}

func (a *App) selectRow(row int) {
	e, ok := a.entry(row)
	if !ok {
		return
	}
	if e.IsDir {
		a.changeDir(e.Path)
		return
	}

	a.mu.Lock()
	a.selected = row
	a.mu.Unlock()

	if _, err := a.session.Select(e.Path); err != nil {
		if errors.IsMediaDecode(err) {
			a.setStatus(fmt.Sprintf("Cannot preview %s", e.Name))
		} else {
			a.showError(err)
		}
	} else {
		a.setStatus("")
	}
	a.syncBestCheck()
}

func (a *App) moveSelection(delta int) {
	a.mu.Lock()
	row := a.selected + delta
	count := len(a.entries)
	a.mu.Unlock()
	if row < 0 || row >= count {
		return
	}
	a.table.Select(widget.TableCellID{Row: row, Col: 0})
	a.selectRow(row)
}

func (a *App) handleRune(r rune) {
	switch r {
	case '4':
		a.moveSelection(-1)
		return
	case '6':
		a.moveSelection(1)
		return
	}
	if action, ok := runeActions[r]; ok {
		a.perform(action)
	}
}

func (a *App) handleKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyUp:
		a.moveSelection(-1)
	case fyne.KeyDown:
		a.moveSelection(1)
	case fyne.KeyBackspace:
		a.changeDir(filepath.Dir(a.browser.Root()))
	}
}

func (a *App) perform(action types.Action) {
	if action == types.ToggleBest {
		best, err := a.session.ToggleBest()
		if err != nil {
			a.showError(err)
			return
		}
		a.afterTagChange(best)
		return
	}
	if err := a.session.Perform(action); err != nil {
		a.showError(err)
	}
}

func (a *App) setBest(best bool) {
	path := a.session.Selected()
	if path == "" || a.session.IsTagged(path) == best {
		return
	}
	got, err := a.session.SetBest(path, best)
	if err != nil {
		a.showError(err)
		return
	}
	a.afterTagChange(got)
}

func (a *App) afterTagChange(best bool) {
	a.refreshListing()
	if best {
		a.setStatus("Tagged best")
	} else {
		a.setStatus("Tag cleared")
	}
}

func (a *App) syncBestCheck() {
	if a.session.Selected() == "" {
		a.bestCheck.Disable()
		a.bestCheck.SetChecked(false)
		return
	}
	a.bestCheck.Enable()
	// SetChecked fires OnChanged; setBest ignores a value that already matches.
	a.bestCheck.SetChecked(a.session.SelectedTagged())
}

func (a *App) changeDir(dir string) {
	if dir == a.browser.Root() {
		return
	}
	if err := a.session.Navigate(dir); err != nil {
		a.showError(err)
		return
	}
	if err := a.browser.SetRoot(dir); err != nil {
		a.showError(err)
		return
	}
	a.mu.Lock()
	a.selected = -1
	a.mu.Unlock()
	a.table.UnselectAll()
	a.refreshListing()
	a.setStatus("")
}

func (a *App) setShowAll(showAll bool) {
	if a.browser.ShowAll() == showAll {
		return
	}
	if _, err := a.browser.ToggleShowAll(); err != nil {
		a.showError(err)
	}
	a.refreshListing()
}

func (a *App) showFolderDialog() {
	d := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			a.showError(err)
			return
		}
		if uri == nil {
			return
		}
		a.changeDir(uri.Path())
	}, a.mainWindow)
	if lister, err := storage.ListerForURI(storage.NewFileURI(a.browser.Root())); err == nil {
		d.SetLocation(lister)
	}
	d.Show()
}

func (a *App) extract() {
	a.setStatus("Extracting…")
	go func() {
		report, err := a.session.Extract()
		if err != nil {
			a.showError(err)
			return
		}
		if failed := report.Failed(); len(failed) > 0 {
			a.setStatus(fmt.Sprintf("Extracted %d files to %s, %d failed", report.Copied(), report.Destination, len(failed)))
			return
		}
		a.setStatus(fmt.Sprintf("Extracted %d files to %s", report.Copied(), report.Destination))
	}()
}

func (a *App) confirmRemove() {
	msg := fmt.Sprintf("Remove the extracted copy of %s?", filepath.Base(a.session.Scope()))
	dialog.ShowConfirm("Remove extracted", msg, func(ok bool) {
		if ok {
			a.removeExtracted()
		}
	}, a.mainWindow)
}

func (a *App) removeExtracted() {
	removed, err := a.session.RemoveExtracted()
	if err != nil {
		a.showError(err)
		return
	}
	if removed {
		a.setStatus("Removed extracted files")
	} else {
		a.setStatus("Nothing to remove")
	}
}

// shutdown stores the window size and column widths and closes the session.
func (a *App) shutdown() {
	a.pollOnce.Do(func() { close(a.stopPoll) })

	size := a.mainWindow.Canvas().Size()
	geom := a.session.Preferences().Geometry()
	if size.Width > 0 && size.Height > 0 {
		geom.Width, geom.Height = int(size.Width), int(size.Height)
	}
	a.session.MoveWindow(geom)

	if err := a.session.ResizeColumns(a.widths); err != nil {
		log.LogWithError(err).Warn("Failed to save column widths")
	}
	if err := a.session.Close(); err != nil {
		log.LogWithError(err).Error("Failed to save settings")
	}
}

func (a *App) setStatus(text string) {
	a.statusText.SetText(text)
}

func (a *App) showError(err error) {
	log.LogWithError(err).Warn("Operation failed")
	a.setStatus("Error: " + err.Error())
}

// StatusText returns the status line
func (a *App) StatusText() string {
	return a.statusText.Text
}
