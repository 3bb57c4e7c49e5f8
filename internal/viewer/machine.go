package viewer

import (
	"image"
	"sync"
	"sync/atomic"

	"mediatagger/internal/errors"
	"mediatagger/internal/log"
	"mediatagger/internal/media"
)

// Player plays video files. Positions are in milliseconds, volume in
// percent.
type Player interface {
	Load(path string) error
	Play() error
	Pause() error
	Stop() error
	SetRate(rate int) error
	Seek(posMs int64) error
	SetVolume(volume int) error
}

// ProgressSource is implemented by players that can report the current
// position and duration on request.
type ProgressSource interface {
	Progress() (posMs, durMs int64, err error)
}

// Display is the surface the machine renders to. SetVolume and SetPosition
// may call back into OnVolumeControl or OnSeekControl synchronously; those
// calls are ignored while the machine is setting that same control.
type Display interface {
	ShowImage(img image.Image, caption string)
	ShowPlaceholder(caption string)
	AttachVideo()
	DetachVideo()
	SetPlaying(playing bool)
	SetSpeedLabel(label string)
	SetTimeLabel(label string)
	SetPosition(posMs, durMs int64)
	SetVolume(volume int)
	Viewport() (width, height int)
}

// ImageLoader decodes path and fits it within width x height
type ImageLoader func(path string, width, height int) (image.Image, error)

// Machine drives a Player and a Display from viewer State transitions.
//
// Methods may be called from any goroutine, but the echo guard on the
// volume and position controls is machine-wide: a user event for a control
// that arrives while another goroutine is setting that control is dropped.
// In practice this only affects a seek drag racing a progress Poll, where
// the next user event wins again. Front ends that need every event should
// call Poll from their UI loop, as the terminal front end does.
type Machine struct {
	mu        sync.Mutex
	state     State
	player    Player
	display   Display
	loadImage ImageLoader
	describe  func(path string) string
	logger    log.Logging

	// set while the machine pushes a value into that display control
	settingVolume   atomic.Bool
	settingPosition atomic.Bool
}

// Option configures a Machine
type Option func(*Machine)

// WithInitialVolume sets the volume used for the first video
func WithInitialVolume(volume int) Option {
	return func(m *Machine) { m.state = Initial(volume) }
}

// WithImageLoader replaces media.LoadImage
func WithImageLoader(loader ImageLoader) Option {
	return func(m *Machine) { m.loadImage = loader }
}

// WithCaptions replaces media.Describe for image and placeholder captions
func WithCaptions(describe func(path string) string) Option {
	return func(m *Machine) { m.describe = describe }
}

// WithLogger sets the machine's logger
func WithLogger(logger log.Logging) Option {
	return func(m *Machine) { m.logger = logger }
}

// NewMachine creates a machine in the Unsupported state
func NewMachine(player Player, display Display, opts ...Option) *Machine {
	m := &Machine{
		state:     Initial(MaxVolume),
		player:    player,
		display:   display,
		loadImage: media.LoadImage,
		describe:  media.Describe,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current viewer state
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Select shows path in the viewer matching its kind. When an image cannot
// be decoded or a video cannot be loaded the placeholder is shown, the
// machine ends in Unsupported and a MediaError is returned.
func (m *Machine) Select(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectLocked(path)
}

// Reload selects the current path again, restarting a video from the start.
func (m *Machine) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Path == "" {
		return nil
	}
	return m.selectLocked(m.state.Path)
}

func (m *Machine) selectLocked(path string) error {
	logger := m.logger.With(log.F("path", path))

	switch media.Classify(path) {
	case media.Image:
		m.leaveVideo()
		width, height := m.display.Viewport()
		img, err := m.loadImage(path, width, height)
		if err != nil {
			logger.WithError(err).Warn("Image failed to render, showing placeholder")
			m.showPlaceholder(path)
			return asMediaError(path, err)
		}
		m.display.ShowImage(img, m.describe(path))
		m.state = m.state.Image(path)
		logger.Debug("Showing image")
		return nil

	case media.Video:
		return m.enterVideo(path)

	default:
		m.leaveVideo()
		m.showPlaceholder(path)
		logger.Debug("Showing placeholder")
		return nil
	}
}

func (m *Machine) enterVideo(path string) error {
	if m.state.Kind != media.Video {
		m.display.AttachVideo()
	}
	next := m.state.Video(path)

	if err := m.player.SetVolume(next.Volume); err != nil {
		m.logger.WithError(err).Warn("Could not restore volume")
	}
	if err := m.player.Load(path); err != nil {
		return m.videoFailed(path, err)
	}
	if err := m.player.SetRate(next.Rate); err != nil {
		m.logger.WithError(err).Warn("Could not reset playback rate")
	}
	if err := m.player.Play(); err != nil {
		return m.videoFailed(path, err)
	}

	m.state = next
	m.showVolume(next.Volume)
	m.display.SetSpeedLabel(SpeedLabel(next.Rate))
	m.display.SetPlaying(true)
	m.showPosition(0, 0)
	m.display.SetTimeLabel(next.TimeLabel())
	m.logger.With(log.F("path", path), log.F("volume", next.Volume)).Debug("Playing video")
	return nil
}

func (m *Machine) videoFailed(path string, err error) error {
	m.logger.With(log.F("path", path)).WithError(err).Warn("Video failed to load, showing placeholder")
	if stopErr := m.player.Stop(); stopErr != nil {
		m.logger.WithError(stopErr).Debug("Stop after failed load")
	}
	m.display.DetachVideo()
	m.display.ShowPlaceholder(m.describe(path))
	m.state = m.state.Placeholder(path)
	return asMediaError(path, err)
}

// leaveVideo stops playback and detaches the video surface so audio does
// not continue under a still view.
func (m *Machine) leaveVideo() {
	if m.state.Kind != media.Video {
		return
	}
	if err := m.player.Stop(); err != nil {
		m.logger.WithError(err).Warn("Could not stop playback")
	}
	m.display.DetachVideo()
}

func (m *Machine) showPlaceholder(path string) {
	m.display.ShowPlaceholder(m.describe(path))
	m.state = m.state.Placeholder(path)
}

// PlayPause toggles playback. Outside Video it returns an InvalidOperation
// error and changes nothing.
func (m *Machine) PlayPause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.state.TogglePlay()
	if err != nil {
		return err
	}
	if next.Playing {
		err = m.player.Play()
	} else {
		err = m.player.Pause()
	}
	if err != nil {
		return errors.Wrap(err, "toggling playback")
	}

	m.state = next
	m.display.SetPlaying(next.Playing)
	return nil
}

// CycleSpeed advances the playback rate 1 -> 2 -> 4 -> 1
func (m *Machine) CycleSpeed() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.state.CycleSpeed()
	if err != nil {
		return err
	}
	if err := m.player.SetRate(next.Rate); err != nil {
		return errors.Wrap(err, "setting playback rate")
	}

	m.state = next
	m.display.SetSpeedLabel(SpeedLabel(next.Rate))
	return nil
}

// SeekRelative moves playback by deltaMs, clamped to the video bounds
func (m *Machine) SeekRelative(deltaMs int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.state.SeekRelative(deltaMs)
	if err != nil {
		return err
	}
	return m.seekTo(next)
}

func (m *Machine) seekTo(next State) error {
	if err := m.player.Seek(next.PositionMs); err != nil {
		return errors.Wrap(err, "seeking")
	}
	m.state = next
	m.showPosition(next.PositionMs, next.DurationMs)
	m.display.SetTimeLabel(next.TimeLabel())
	return nil
}

// AdjustVolume changes the volume by delta percent, clamped to [0, 100]
func (m *Machine) AdjustVolume(delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.state.AdjustVolume(delta)
	if err != nil {
		return err
	}
	if err := m.player.SetVolume(next.Volume); err != nil {
		return errors.Wrap(err, "setting volume")
	}

	m.state = next
	m.showVolume(next.Volume)
	return nil
}

// OnVolumeControl handles the user moving the volume control. Calls made
// while the machine itself is setting the control are ignored.
func (m *Machine) OnVolumeControl(volume int) error {
	if m.settingVolume.Load() {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.state.SetVolume(volume)
	if err != nil {
		return err
	}
	if err := m.player.SetVolume(next.Volume); err != nil {
		return errors.Wrap(err, "setting volume")
	}
	m.state = next
	return nil
}

// OnSeekControl handles the user moving the position control. Calls made
// while the machine itself is setting the control are ignored.
func (m *Machine) OnSeekControl(posMs int64) error {
	if m.settingPosition.Load() {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.state.SetPosition(posMs)
	if err != nil {
		return err
	}
	return m.seekTo(next)
}

// OnPlayerProgress applies a periodic position/duration notification.
// Repeated notifications with the same values do not touch the display.
func (m *Machine) OnPlayerProgress(posMs, durMs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.state.WithProgress(posMs, durMs)
	if next == m.state {
		return
	}
	m.state = next
	m.showPosition(next.PositionMs, next.DurationMs)
	m.display.SetTimeLabel(next.TimeLabel())
}

// Poll asks the player for its progress and applies it. It does nothing
// unless a video is shown and the player implements ProgressSource.
func (m *Machine) Poll() error {
	source, ok := m.player.(ProgressSource)
	if !ok || m.State().Kind != media.Video {
		return nil
	}
	pos, dur, err := source.Progress()
	if err != nil {
		return err
	}
	m.OnPlayerProgress(pos, dur)
	return nil
}

// Stop halts any playing video. Used when the session closes.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Kind == media.Video {
		if err := m.player.Stop(); err != nil {
			m.logger.WithError(err).Warn("Could not stop playback")
		}
		m.state.Playing = false
	}
}

func (m *Machine) showVolume(volume int) {
	m.settingVolume.Store(true)
	defer m.settingVolume.Store(false)
	m.display.SetVolume(volume)
}

func (m *Machine) showPosition(posMs, durMs int64) {
	m.settingPosition.Store(true)
	defer m.settingPosition.Store(false)
	m.display.SetPosition(posMs, durMs)
}

func asMediaError(path string, err error) error {
	if errors.IsMediaDecode(err) {
		return err
	}
	return errors.NewMediaError("cannot render media", path, err)
}
