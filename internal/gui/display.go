//go:build !nogui

package gui

import (
	"image"

	"mediatagger/internal/log"
	"mediatagger/internal/viewer"
	"mediatagger/pkg/types"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Fallback image area used before the window has been laid out
const (
	defaultViewWidth  = 800
	defaultViewHeight = 600
)

// Controls receives user input from the transport widgets
type Controls interface {
	OnVolumeControl(volume int) error
	OnSeekControl(posMs int64) error
}

// Display is the fyne rendition of the media viewer. Images are drawn on a
// canvas; videos play in the external player window while the transport
// bar here shows and controls their state.
type Display struct {
	image       *canvas.Image
	placeholder *widget.Label
	videoNote   *widget.Label
	caption     *widget.Label
	stack       *fyne.Container

	playButton  *widget.Button
	speedButton *widget.Button
	position    *widget.Slider
	volume      *widget.Slider
	timeLabel   *widget.Label
	transport   *fyne.Container

	content  *fyne.Container
	controls Controls
	onAction func(types.Action)
}

// NewDisplay builds the viewer widgets. Bind must be called before the
// transport controls are used.
func NewDisplay() *Display {
	d := &Display{
		image:       canvas.NewImageFromImage(nil),
		placeholder: widget.NewLabel("No preview available"),
		videoNote:   widget.NewLabel("Playing in the video window"),
		caption:     widget.NewLabel(""),
		timeLabel:   widget.NewLabel(viewer.FormatTime(0, 0)),
		position:    widget.NewSlider(0, 1),
		volume:      widget.NewSlider(viewer.MinVolume, viewer.MaxVolume),
	}
	d.image.FillMode = canvas.ImageFillContain
	d.image.ScaleMode = canvas.ImageScaleSmooth
	d.placeholder.Alignment = fyne.TextAlignCenter
	d.videoNote.Alignment = fyne.TextAlignCenter
	d.caption.Truncation = fyne.TextTruncateEllipsis

	d.playButton = widget.NewButtonWithIcon("", theme.MediaPauseIcon(), func() { d.action(types.PlayPause) })
	d.speedButton = widget.NewButton(viewer.SpeedLabel(1), func() { d.action(types.CycleSpeed) })
	back := widget.NewButtonWithIcon("", theme.MediaFastRewindIcon(), func() { d.action(types.SeekBackward) })
	fwd := widget.NewButtonWithIcon("", theme.MediaFastForwardIcon(), func() { d.action(types.SeekForward) })

	d.position.OnChanged = func(v float64) {
		if d.controls == nil {
			return
		}
		if err := d.controls.OnSeekControl(int64(v)); err != nil {
			log.LogWithError(err).Debug("Seek control ignored")
		}
	}
	d.volume.Step = 1
	d.volume.OnChanged = func(v float64) {
		if d.controls == nil {
			return
		}
		if err := d.controls.OnVolumeControl(int(v)); err != nil {
			log.LogWithError(err).Debug("Volume control ignored")
		}
	}

	volumeBox := container.NewGridWrap(fyne.NewSize(120, d.volume.MinSize().Height), d.volume)
	d.transport = container.NewBorder(nil, nil,
		container.NewHBox(back, d.playButton, fwd, d.speedButton),
		container.NewHBox(d.timeLabel, widget.NewIcon(theme.VolumeUpIcon()), volumeBox),
		d.position,
	)
	d.transport.Hide()
	d.videoNote.Hide()
	d.image.Hide()

	d.stack = container.NewStack(d.image, d.placeholder, d.videoNote)
	d.content = container.NewBorder(nil, container.NewVBox(d.caption, d.transport), nil, nil, d.stack)
	return d
}

// Bind connects the transport widgets to the viewer and the session's
// action handler.
func (d *Display) Bind(controls Controls, onAction func(types.Action)) {
	d.controls = controls
	d.onAction = onAction
}

func (d *Display) action(a types.Action) {
	if d.onAction != nil {
		d.onAction(a)
	}
}

// Content returns the viewer's root container
func (d *Display) Content() fyne.CanvasObject {
	return d.content
}

// ShowImage implements viewer.Display
func (d *Display) ShowImage(img image.Image, caption string) {
	d.image.Image = img
	d.image.Show()
	d.image.Refresh()
	d.placeholder.Hide()
	d.videoNote.Hide()
	d.caption.SetText(caption)
}

// ShowPlaceholder implements viewer.Display
func (d *Display) ShowPlaceholder(caption string) {
	d.image.Image = nil
	d.image.Hide()
	d.videoNote.Hide()
	d.placeholder.Show()
	d.caption.SetText(caption)
}

// AttachVideo implements viewer.Display
func (d *Display) AttachVideo() {
	d.image.Hide()
	d.placeholder.Hide()
	d.videoNote.Show()
	d.transport.Show()
}

// DetachVideo implements viewer.Display
func (d *Display) DetachVideo() {
	d.videoNote.Hide()
	d.transport.Hide()
}

// SetPlaying implements viewer.Display
func (d *Display) SetPlaying(playing bool) {
	if playing {
		d.playButton.SetIcon(theme.MediaPauseIcon())
	} else {
		d.playButton.SetIcon(theme.MediaPlayIcon())
	}
}

// SetSpeedLabel implements viewer.Display
func (d *Display) SetSpeedLabel(label string) {
	d.speedButton.SetText(label)
}

// SetTimeLabel implements viewer.Display
func (d *Display) SetTimeLabel(label string) {
	d.timeLabel.SetText(label)
}

// SetPosition implements viewer.Display
func (d *Display) SetPosition(posMs, durMs int64) {
	upper := float64(durMs)
	if upper <= 0 {
		upper = 1
	}
	d.position.Max = upper
	d.position.SetValue(float64(posMs))
}

// SetVolume implements viewer.Display
func (d *Display) SetVolume(volume int) {
	d.volume.SetValue(float64(volume))
}

// Viewport implements viewer.Display
func (d *Display) Viewport() (int, int) {
	size := d.stack.Size()
	if size.Width < 1 || size.Height < 1 {
		return defaultViewWidth, defaultViewHeight
	}
	return int(size.Width), int(size.Height)
}
