package components

import (
	"fmt"
	"image"
	"strings"

	"mediatagger/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Preview size in terminal cells. Each cell shows two pixel rows.
const (
	previewCols = 48
	previewRows = 16
)

// ViewerPane is the terminal rendition of the media viewer. It implements
// viewer.Display: images become a half-block colour preview, videos a
// transport line describing the external player.
type ViewerPane struct {
	caption     string
	preview     string
	placeholder bool
	video       bool
	playing     bool
	speed       string
	timeLabel   string
	posMs       int64
	durMs       int64
	volume      int
}

// NewViewerPane creates an empty pane
func NewViewerPane() *ViewerPane {
	return &ViewerPane{placeholder: true, speed: "1x", timeLabel: "--:-- / --:--"}
}

// ShowImage renders img as the preview
func (p *ViewerPane) ShowImage(img image.Image, caption string) {
	p.caption = caption
	p.preview = halfBlocks(img)
	p.placeholder = false
}

// ShowPlaceholder shows the "no preview" state
func (p *ViewerPane) ShowPlaceholder(caption string) {
	p.caption = caption
	p.preview = ""
	p.placeholder = true
}

// AttachVideo switches the pane to the transport view
func (p *ViewerPane) AttachVideo() {
	p.video = true
	p.placeholder = false
	p.preview = ""
}

// DetachVideo leaves the transport view
func (p *ViewerPane) DetachVideo() {
	p.video = false
}

// SetPlaying updates the play/pause indicator
func (p *ViewerPane) SetPlaying(playing bool) { p.playing = playing }

// SetSpeedLabel updates the rate indicator
func (p *ViewerPane) SetSpeedLabel(label string) { p.speed = label }

// SetTimeLabel updates the position text
func (p *ViewerPane) SetTimeLabel(label string) { p.timeLabel = label }

// SetPosition updates the progress bar
func (p *ViewerPane) SetPosition(posMs, durMs int64) {
	p.posMs, p.durMs = posMs, durMs
}

// SetVolume updates the volume indicator
func (p *ViewerPane) SetVolume(volume int) { p.volume = volume }

// Viewport returns the preview size in pixels
func (p *ViewerPane) Viewport() (int, int) {
	return previewCols, previewRows * 2
}

// Caption returns the caption line
func (p *ViewerPane) Caption() string { return p.caption }

// IsVideo reports whether the transport view is attached
func (p *ViewerPane) IsVideo() bool { return p.video }

// IsPlaceholder reports whether the placeholder is shown
func (p *ViewerPane) IsPlaceholder() bool { return p.placeholder }

// View renders the pane
func (p *ViewerPane) View() string {
	var s strings.Builder
	switch {
	case p.video:
		state := "⏸ paused"
		if p.playing {
			state = "▶ playing"
		}
		s.WriteString(fmt.Sprintf("%s  %s  vol %d%%\n", state, p.speed, p.volume))
		s.WriteString(progressBar(p.posMs, p.durMs, previewCols) + "\n")
		s.WriteString(p.timeLabel + "\n")
	case p.placeholder:
		s.WriteString(styles.Theme.Help.Render("No preview available") + "\n")
	default:
		s.WriteString(p.preview)
	}
	if p.caption != "" {
		s.WriteString(styles.Theme.Help.Render(p.caption))
	}
	return styles.Theme.Pane.Render(s.String())
}

func progressBar(pos, dur int64, width int) string {
	filled := 0
	if dur > 0 {
		filled = int(pos * int64(width) / dur)
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}

// halfBlocks draws img with "▀" cells, the top pixel as foreground and the
// bottom pixel as background.
func halfBlocks(img image.Image) string {
	b := img.Bounds()
	var s strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			style := lipgloss.NewStyle().Foreground(hex(img.At(x, y)))
			if y+1 < b.Max.Y {
				style = style.Background(hex(img.At(x, y+1)))
			}
			s.WriteString(style.Render("▀"))
		}
		s.WriteString("\n")
	}
	return s.String()
}

func hex(c interface{ RGBA() (r, g, b, a uint32) }) lipgloss.Color {
	r, g, b, _ := c.RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
}
