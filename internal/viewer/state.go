// Package viewer decides which viewer (image, video or placeholder) shows
// the selected file and owns the video transport state.
//
// State is a plain value. Every transition takes the current State and
// returns the next one, so callers never share mutable viewer fields.
package viewer

import (
	"fmt"

	"mediatagger/internal/errors"
	"mediatagger/internal/media"
)

// Volume bounds, in percent
const (
	MinVolume = 0
	MaxVolume = 100
)

// hourMs is the duration above which time labels include hours.
const hourMs = 3600 * 1000

// Rates cycles in this order
var Rates = []int{1, 2, 4}

// State is the viewer state for one session
type State struct {
	Kind       media.Kind
	Path       string
	Playing    bool
	Rate       int
	Volume     int
	LastVolume int // restored when the next video loads
	PositionMs int64
	DurationMs int64
}

// Initial returns the state before any selection: the placeholder is shown
// and the given volume is remembered for the first video.
func Initial(volume int) State {
	v := clampVolume(volume)
	return State{Kind: media.Unsupported, Rate: 1, Volume: v, LastVolume: v}
}

// NextRate returns the rate after rate in the 1, 2, 4 cycle. Any other rate
// is an invalid state.
func NextRate(rate int) (int, error) {
	for i, r := range Rates {
		if r == rate {
			return Rates[(i+1)%len(Rates)], nil
		}
	}
	return 0, errors.NewKind(errors.InvalidOperation, "invalid playback rate %d", rate)
}

// SpeedLabel renders a rate for the speed control, e.g. "2x"
func SpeedLabel(rate int) string {
	return fmt.Sprintf("%dx", rate)
}

func (s State) requireVideo(op string) error {
	if s.Kind != media.Video {
		return errors.NewKind(errors.InvalidOperation, "%s is only valid while a video is shown (current: %s)", op, s.Kind)
	}
	return nil
}

// Image returns the state after showing a still image at path
func (s State) Image(path string) State {
	return s.still(media.Image, path)
}

// Placeholder returns the state after showing the placeholder for path
func (s State) Placeholder(path string) State {
	return s.still(media.Unsupported, path)
}

func (s State) still(kind media.Kind, path string) State {
	return State{Kind: kind, Path: path, Rate: 1, Volume: s.Volume, LastVolume: s.LastVolume}
}

// Video returns the state after loading the video at path: playback starts
// at rate 1 with the last used volume.
func (s State) Video(path string) State {
	return State{
		Kind:       media.Video,
		Path:       path,
		Playing:    true,
		Rate:       1,
		Volume:     s.LastVolume,
		LastVolume: s.LastVolume,
	}
}

// TogglePlay switches between playing and paused
func (s State) TogglePlay() (State, error) {
	if err := s.requireVideo("play/pause"); err != nil {
		return s, err
	}
	s.Playing = !s.Playing
	return s, nil
}

// CycleSpeed advances the playback rate 1 -> 2 -> 4 -> 1
func (s State) CycleSpeed() (State, error) {
	if err := s.requireVideo("cycle speed"); err != nil {
		return s, err
	}
	rate, err := NextRate(s.Rate)
	if err != nil {
		return s, err
	}
	s.Rate = rate
	return s, nil
}

// SeekRelative moves the position by deltaMs, clamped to [0, duration]
func (s State) SeekRelative(deltaMs int64) (State, error) {
	if err := s.requireVideo("seek"); err != nil {
		return s, err
	}
	s.PositionMs = s.clampPosition(s.PositionMs + deltaMs)
	return s, nil
}

// SetPosition moves to an absolute position, clamped to [0, duration]
func (s State) SetPosition(posMs int64) (State, error) {
	if err := s.requireVideo("seek"); err != nil {
		return s, err
	}
	s.PositionMs = s.clampPosition(posMs)
	return s, nil
}

// AdjustVolume changes the volume by delta percent, clamped to [0, 100]
func (s State) AdjustVolume(delta int) (State, error) {
	if err := s.requireVideo("volume"); err != nil {
		return s, err
	}
	return s.SetVolume(s.Volume + delta)
}

// SetVolume sets the volume, clamped to [0, 100], and remembers it for the
// next video.
func (s State) SetVolume(volume int) (State, error) {
	if err := s.requireVideo("volume"); err != nil {
		return s, err
	}
	s.Volume = clampVolume(volume)
	s.LastVolume = s.Volume
	return s, nil
}

// WithProgress applies a position/duration notification from the player.
// Applying the same notification twice yields the same state.
func (s State) WithProgress(posMs, durMs int64) State {
	if s.Kind != media.Video {
		return s
	}
	if durMs < 0 {
		durMs = 0
	}
	s.DurationMs = durMs
	s.PositionMs = s.clampPosition(posMs)
	return s
}

// TimeLabel renders the position and duration for the time label
func (s State) TimeLabel() string {
	return FormatTime(s.PositionMs, s.DurationMs)
}

func (s State) clampPosition(posMs int64) int64 {
	if posMs < 0 {
		return 0
	}
	if posMs > s.DurationMs {
		return s.DurationMs
	}
	return posMs
}

func clampVolume(v int) int {
	if v < MinVolume {
		return MinVolume
	}
	if v > MaxVolume {
		return MaxVolume
	}
	return v
}

// FormatTime renders "position / duration". Both halves use hh:mm:ss when
// the duration exceeds one hour and mm:ss otherwise. Before a duration is
// known the label is "--:-- / --:--".
func FormatTime(posMs, durMs int64) string {
	if durMs <= 0 {
		return "--:-- / --:--"
	}
	long := durMs > hourMs
	return clock(posMs, long) + " / " + clock(durMs, long)
}

func clock(ms int64, long bool) string {
	if ms < 0 {
		ms = 0
	}
	secs := ms / 1000
	if long {
		return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
