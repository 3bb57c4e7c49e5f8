package viewer_test

import (
	"fmt"
	"image"
	"testing"
	"time"

	"mediatagger/internal/errors"
	"mediatagger/internal/media"
	"mediatagger/internal/viewer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlayer struct {
	calls    []string
	loadErr  error
	pos, dur int64
}

func (p *fakePlayer) record(format string, args ...interface{}) error {
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
	return nil
}

func (p *fakePlayer) Load(path string) error {
	p.record("load %s", path)
	return p.loadErr
}
func (p *fakePlayer) Play() error           { return p.record("play") }
func (p *fakePlayer) Pause() error          { return p.record("pause") }
func (p *fakePlayer) Stop() error           { return p.record("stop") }
func (p *fakePlayer) SetRate(r int) error   { return p.record("rate %d", r) }
func (p *fakePlayer) Seek(ms int64) error   { return p.record("seek %d", ms) }
func (p *fakePlayer) SetVolume(v int) error { return p.record("volume %d", v) }
func (p *fakePlayer) Progress() (int64, int64, error) {
	return p.pos, p.dur, nil
}

// fakeDisplay behaves like a toolkit whose control setters fire their own
// change handlers.
type fakeDisplay struct {
	machine     *viewer.Machine
	calls       []string
	attached    bool
	volume      int
	speed       string
	timeLabel   string
	playing     bool
	placeholder bool
	caption     string
	onPosition  func()
}

func (d *fakeDisplay) ShowImage(img image.Image, caption string) {
	d.calls = append(d.calls, "image")
	d.placeholder = false
	d.caption = caption
}
func (d *fakeDisplay) ShowPlaceholder(caption string) {
	d.calls = append(d.calls, "placeholder")
	d.placeholder = true
	d.caption = caption
}
func (d *fakeDisplay) AttachVideo() {
	d.calls = append(d.calls, "attach")
	d.attached = true
}
func (d *fakeDisplay) DetachVideo() {
	d.calls = append(d.calls, "detach")
	d.attached = false
}
func (d *fakeDisplay) SetPlaying(p bool)          { d.playing = p }
func (d *fakeDisplay) SetSpeedLabel(label string) { d.speed = label }
func (d *fakeDisplay) SetTimeLabel(label string)  { d.timeLabel = label }
func (d *fakeDisplay) SetPosition(pos, dur int64) {
	if d.onPosition != nil {
		d.onPosition()
	}
	if d.machine != nil {
		_ = d.machine.OnSeekControl(pos)
	}
}
func (d *fakeDisplay) SetVolume(v int) {
	d.volume = v
	if d.machine != nil {
		// a toolkit slider echoes the value back, possibly rounded
		_ = d.machine.OnVolumeControl(v - 1)
	}
}
func (d *fakeDisplay) Viewport() (int, int) { return 640, 480 }

func okImage(path string, w, h int) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, w, h)), nil
}

func newMachine(t *testing.T, opts ...viewer.Option) (*viewer.Machine, *fakePlayer, *fakeDisplay) {
	t.Helper()
	player := &fakePlayer{}
	display := &fakeDisplay{}
	base := []viewer.Option{
		viewer.WithImageLoader(okImage),
		viewer.WithCaptions(func(path string) string { return "caption:" + path }),
	}
	m := viewer.NewMachine(player, display, append(base, opts...)...)
	display.machine = m
	return m, player, display
}

func TestSelectImage(t *testing.T) {
	m, player, display := newMachine(t)

	require.NoError(t, m.Select("/a/cat.jpg"))
	assert.Equal(t, media.Image, m.State().Kind)
	assert.Equal(t, []string{"image"}, display.calls)
	assert.Equal(t, "caption:/a/cat.jpg", display.caption)
	assert.Empty(t, player.calls, "no playback work for an image")
}

func TestSelectVideoFromImage(t *testing.T) {
	m, player, display := newMachine(t, viewer.WithInitialVolume(60))

	require.NoError(t, m.Select("/a/cat.jpg"))
	require.NoError(t, m.Select("/a/clip.mp4"))

	s := m.State()
	assert.Equal(t, media.Video, s.Kind)
	assert.True(t, s.Playing)
	assert.Equal(t, 1, s.Rate)
	assert.Equal(t, 60, s.Volume)
	assert.True(t, display.attached)
	assert.Equal(t, "1x", display.speed)
	assert.Equal(t, "--:-- / --:--", display.timeLabel)
	assert.Equal(t, []string{"volume 60", "load /a/clip.mp4", "rate 1", "play"}, player.calls)

	// the display echoed 59; the guard kept the machine at 60
	assert.Equal(t, 60, display.volume)
	assert.Equal(t, 60, m.State().Volume)
}

func TestVideoToVideoKeepsSurface(t *testing.T) {
	m, _, display := newMachine(t)

	require.NoError(t, m.Select("/a/one.mp4"))
	require.NoError(t, m.Select("/a/two.mkv"))
	assert.Equal(t, []string{"attach"}, display.calls)
}

func TestImageAfterVideoStopsPlayback(t *testing.T) {
	m, player, display := newMachine(t)

	require.NoError(t, m.Select("/a/clip.mp4"))
	player.calls = nil
	display.calls = nil

	require.NoError(t, m.Select("/a/cat.png"))
	assert.Equal(t, []string{"stop"}, player.calls)
	assert.Equal(t, []string{"detach", "image"}, display.calls)
	assert.Equal(t, media.Image, m.State().Kind)
}

func TestUnsupportedAfterVideo(t *testing.T) {
	m, player, display := newMachine(t)

	require.NoError(t, m.Select("/a/clip.webm"))
	player.calls = nil
	display.calls = nil

	require.NoError(t, m.Select("/a/manual.pdf"))
	assert.Equal(t, []string{"stop"}, player.calls)
	assert.Equal(t, []string{"detach", "placeholder"}, display.calls)
	assert.Equal(t, media.Unsupported, m.State().Kind)
}

func TestDecodeFailureFallsBackToPlaceholder(t *testing.T) {
	broken := func(path string, w, h int) (image.Image, error) {
		return nil, fmt.Errorf("truncated")
	}
	m, _, display := newMachine(t, viewer.WithImageLoader(broken))

	err := m.Select("/a/bad.jpg")
	require.Error(t, err)
	assert.True(t, errors.IsMediaDecode(err))
	assert.Equal(t, media.Unsupported, m.State().Kind)
	assert.Equal(t, "/a/bad.jpg", m.State().Path)
	assert.True(t, display.placeholder)

	// the session goes on
	require.NoError(t, m.Select("/a/good.png"))
	assert.Equal(t, media.Image, m.State().Kind)
}

func TestVideoLoadFailureFallsBackToPlaceholder(t *testing.T) {
	m, player, display := newMachine(t)
	player.loadErr = fmt.Errorf("mpv not found")

	err := m.Select("/a/clip.mov")
	require.Error(t, err)
	assert.True(t, errors.IsMediaDecode(err))
	assert.Equal(t, media.Unsupported, m.State().Kind)
	assert.False(t, display.attached)
	assert.True(t, display.placeholder)
	assert.Contains(t, player.calls, "stop")
}

func TestTransportOutsideVideo(t *testing.T) {
	m, player, _ := newMachine(t)
	require.NoError(t, m.Select("/a/cat.jpg"))

	assert.True(t, errors.IsInvalidOperation(m.PlayPause()))
	assert.True(t, errors.IsInvalidOperation(m.CycleSpeed()))
	assert.True(t, errors.IsInvalidOperation(m.SeekRelative(1000)))
	assert.True(t, errors.IsInvalidOperation(m.AdjustVolume(5)))
	assert.Empty(t, player.calls)
}

func TestTransportInVideo(t *testing.T) {
	m, player, display := newMachine(t)
	require.NoError(t, m.Select("/a/clip.mp4"))
	m.OnPlayerProgress(2000, 10_000)
	player.calls = nil

	require.NoError(t, m.PlayPause())
	assert.False(t, m.State().Playing)
	assert.False(t, display.playing)

	require.NoError(t, m.CycleSpeed())
	assert.Equal(t, "2x", display.speed)

	require.NoError(t, m.SeekRelative(-5000))
	assert.Equal(t, int64(0), m.State().PositionMs)
	assert.Equal(t, "00:00 / 00:10", display.timeLabel)

	require.NoError(t, m.AdjustVolume(5))
	assert.Equal(t, 100, m.State().Volume)
	require.NoError(t, m.AdjustVolume(-5))
	assert.Equal(t, 95, m.State().Volume)

	assert.Equal(t, []string{"pause", "rate 2", "seek 0", "volume 100", "volume 95"}, player.calls)
}

func TestUserControlsReachPlayer(t *testing.T) {
	m, player, _ := newMachine(t)
	require.NoError(t, m.Select("/a/clip.mp4"))
	m.OnPlayerProgress(0, 30_000)
	player.calls = nil

	require.NoError(t, m.OnVolumeControl(42))
	require.NoError(t, m.OnSeekControl(12_000))
	assert.Equal(t, []string{"volume 42", "seek 12000"}, player.calls)
	assert.Equal(t, 42, m.State().LastVolume)
	assert.Equal(t, int64(12_000), m.State().PositionMs)
}

func TestProgressDoesNotFeedBack(t *testing.T) {
	m, player, display := newMachine(t)
	require.NoError(t, m.Select("/a/clip.mp4"))
	player.calls = nil

	m.OnPlayerProgress(1500, 90_000)
	m.OnPlayerProgress(1500, 90_000)
	assert.Empty(t, player.calls, "progress updates must not seek the player")
	assert.Equal(t, "00:01 / 01:30", display.timeLabel)

	player.pos, player.dur = 3000, 90_000
	require.NoError(t, m.Poll())
	assert.Equal(t, int64(3000), m.State().PositionMs)
	assert.Empty(t, player.calls)
}

func TestVolumeControlDuringProgressUpdate(t *testing.T) {
	m, player, display := newMachine(t)
	require.NoError(t, m.Select("/a/clip.mp4"))
	player.calls = nil

	done := make(chan error, 1)
	display.onPosition = func() {
		display.onPosition = nil
		// the user moves the volume slider while progress is being shown
		go func() { done <- m.OnVolumeControl(42) }()
		time.Sleep(50 * time.Millisecond)
	}
	m.OnPlayerProgress(1500, 90_000)

	require.NoError(t, <-done)
	assert.Equal(t, []string{"volume 42"}, player.calls)
	assert.Equal(t, 42, m.State().LastVolume)
	assert.Equal(t, int64(1500), m.State().PositionMs)
}

func TestReload(t *testing.T) {
	m, player, _ := newMachine(t)
	require.NoError(t, m.Reload(), "nothing selected yet")

	require.NoError(t, m.Select("/a/clip.mp4"))
	require.NoError(t, m.CycleSpeed())
	player.calls = nil

	require.NoError(t, m.Reload())
	assert.Equal(t, 1, m.State().Rate)
	assert.Contains(t, player.calls, "load /a/clip.mp4")
}

func TestStop(t *testing.T) {
	m, player, _ := newMachine(t)
	require.NoError(t, m.Select("/a/clip.mp4"))
	player.calls = nil

	m.Stop()
	assert.Equal(t, []string{"stop"}, player.calls)
	assert.False(t, m.State().Playing)
}
