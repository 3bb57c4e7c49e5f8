// Package player plays video files in an external mpv process, controlled
// over mpv's JSON IPC socket.
package player

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"mediatagger/internal/errors"
	"mediatagger/internal/log"

	"github.com/google/uuid"
)

const (
	dialTimeout    = 5 * time.Second
	commandTimeout = 2 * time.Second
	loadTimeout    = 10 * time.Second
	quitTimeout    = 3 * time.Second
)

// MPV implements viewer.Player and viewer.ProgressSource. The mpv process is
// started on the first Load and reused for later files.
type MPV struct {
	binary string
	args   []string
	logger log.Logging

	mu     sync.Mutex
	cmd    *exec.Cmd
	socket string
	conn   net.Conn
	reader *bufio.Reader
	nextID int64
	volume int

	loadTimeout time.Duration
	quitTimeout time.Duration
}

// NewMPV creates a player that runs binary with the extra args
func NewMPV(binary string, args []string, logger log.Logging) *MPV {
	if logger == nil {
		logger = log.Default()
	}
	return &MPV{
		binary:      binary,
		args:        args,
		logger:      logger,
		volume:      100,
		loadTimeout: loadTimeout,
		quitTimeout: quitTimeout,
	}
}

// newConnected wraps an already open IPC connection; used in tests.
func newConnected(conn net.Conn) *MPV {
	p := NewMPV("mpv", nil, nil)
	p.attach(conn)
	return p
}

func (p *MPV) attach(conn net.Conn) {
	p.conn = conn
	p.reader = bufio.NewReader(conn)
}

type request struct {
	Command   []interface{} `json:"command"`
	RequestID int64         `json:"request_id"`
}

type response struct {
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	RequestID *int64          `json:"request_id"`
	Event     string          `json:"event"`
	Reason    string          `json:"reason"`
	FileError string          `json:"file_error"`
}

// commandError is a failure reported by mpv itself
type commandError struct {
	command string
	reason  string
}

func (e *commandError) Error() string {
	return fmt.Sprintf("mpv %s: %s", e.command, e.reason)
}

// errPropertyUnavailable is mpv's answer for time-pos/duration while idle
const errPropertyUnavailable = "property unavailable"

func (p *MPV) start(ctx context.Context) error {
	if p.conn != nil {
		return nil
	}

	binary, err := exec.LookPath(p.binary)
	if err != nil {
		return errors.NewFileError("mpv executable not found", p.binary, errors.FileNotFound, err)
	}

	p.socket = filepath.Join(os.TempDir(), "mediatagger-mpv-"+uuid.NewString()+".sock")
	args := append([]string{
		"--idle=yes",
		"--force-window=yes",
		"--keep-open=yes",
		"--input-ipc-server=" + p.socket,
	}, p.args...)

	cmd := exec.Command(binary, args...)
	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "starting mpv")
	}
	p.cmd = cmd
	p.logger.With(log.F("pid", cmd.Process.Pid), log.F("socket", p.socket)).Info("Started mpv")

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, err := dialSocket(dialCtx, p.socket)
	if err != nil {
		p.kill()
		return errors.Wrap(err, "connecting to mpv")
	}
	p.attach(conn)
	return nil
}

// dialSocket retries until mpv has created its socket
func dialSocket(ctx context.Context, socket string) (net.Conn, error) {
	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "unix", socket)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// command sends one IPC command and waits for its reply, skipping any
// events mpv emits in between.
func (p *MPV) command(args ...interface{}) (json.RawMessage, error) {
	return p.exchange(nil, args...)
}

// exchange is command with events passed to observe instead of dropped
func (p *MPV) exchange(observe func(response), args ...interface{}) (json.RawMessage, error) {
	if p.conn == nil {
		return nil, errors.NewKind(errors.InvalidOperation, "mpv is not running")
	}

	p.nextID++
	id := p.nextID
	line, err := json.Marshal(request{Command: args, RequestID: id})
	if err != nil {
		return nil, err
	}

	if err := p.conn.SetDeadline(time.Now().Add(commandTimeout)); err != nil {
		return nil, err
	}
	defer p.conn.SetDeadline(time.Time{})

	if _, err := p.conn.Write(append(line, '\n')); err != nil {
		return nil, errors.Wrapf(err, "sending %v to mpv", args[0])
	}

	for {
		raw, err := p.reader.ReadBytes('\n')
		if err != nil {
			return nil, errors.Wrapf(err, "reading mpv reply to %v", args[0])
		}
		var resp response
		if err := json.Unmarshal(raw, &resp); err != nil {
			p.logger.With(log.F("line", string(raw))).Debug("Skipping unparseable mpv line")
			continue
		}
		if resp.Event != "" {
			if observe != nil {
				observe(resp)
			}
			continue
		}
		if resp.RequestID == nil || *resp.RequestID != id {
			continue
		}
		if resp.Error != "success" {
			return nil, &commandError{command: fmt.Sprint(args[0]), reason: resp.Error}
		}
		return resp.Data, nil
	}
}

func (p *MPV) setProperty(name string, value interface{}) error {
	_, err := p.command("set_property", name, value)
	return err
}

// Load starts mpv if needed and replaces the current file with path. mpv
// acknowledges loadfile before opening the file, so Load then waits for
// the file to be loaded and fails when mpv cannot play it.
func (p *MPV) Load(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.start(context.Background()); err != nil {
		return err
	}
	if err := p.setProperty("volume", p.volume); err != nil {
		return err
	}
	w := &loadWatch{path: path}
	if _, err := p.exchange(w.observe, "loadfile", path, "replace"); err != nil {
		return err
	}
	return p.awaitLoad(w)
}

// loadWatch follows the events of one loadfile. An end-file seen before
// start-file belongs to the previous file.
type loadWatch struct {
	path    string
	started bool
	done    bool
	err     error
}

func (w *loadWatch) observe(ev response) {
	switch ev.Event {
	case "start-file":
		w.started = true
	case "file-loaded":
		w.done = true
	case "end-file":
		if !w.started || ev.Reason != "error" {
			return
		}
		reason := ev.FileError
		if reason == "" {
			reason = "loading failed"
		}
		w.done = true
		w.err = errors.NewMediaError("mpv cannot play file", w.path,
			&commandError{command: "loadfile", reason: reason})
	}
}

func (p *MPV) awaitLoad(w *loadWatch) error {
	if w.done {
		return w.err
	}
	if err := p.conn.SetDeadline(time.Now().Add(p.loadTimeout)); err != nil {
		return err
	}
	defer p.conn.SetDeadline(time.Time{})

	for !w.done {
		raw, err := p.reader.ReadBytes('\n')
		if err != nil {
			return errors.NewMediaError("mpv did not load file", w.path, err)
		}
		var resp response
		if err := json.Unmarshal(raw, &resp); err != nil || resp.Event == "" {
			continue
		}
		w.observe(resp)
	}
	return w.err
}

// Play resumes playback
func (p *MPV) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setProperty("pause", false)
}

// Pause pauses playback
func (p *MPV) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setProperty("pause", true)
}

// Stop unloads the current file. It is a no-op before mpv has started.
func (p *MPV) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	_, err := p.command("stop")
	return err
}

// SetRate sets the playback speed multiplier
func (p *MPV) SetRate(rate int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setProperty("speed", rate)
}

// Seek jumps to an absolute position in milliseconds
func (p *MPV) Seek(posMs int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.command("seek", float64(posMs)/1000, "absolute")
	return err
}

// SetVolume sets the volume in percent. Before mpv has started the value
// is kept and applied on the next Load.
func (p *MPV) SetVolume(volume int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
	if p.conn == nil {
		return nil
	}
	return p.setProperty("volume", volume)
}

// Progress returns the playback position and duration in milliseconds.
// Both are zero while nothing is loaded.
func (p *MPV) Progress() (int64, int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return 0, 0, nil
	}

	pos, err := p.seconds("time-pos")
	if err != nil {
		return 0, 0, err
	}
	dur, err := p.seconds("duration")
	if err != nil {
		return 0, 0, err
	}
	return pos, dur, nil
}

func (p *MPV) seconds(property string) (int64, error) {
	data, err := p.command("get_property", property)
	if err != nil {
		if isUnavailable(err) {
			return 0, nil
		}
		return 0, err
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return 0, nil
	}
	return int64(secs * 1000), nil
}

func isUnavailable(err error) bool {
	var cmdErr *commandError
	return errors.As(err, &cmdErr) && cmdErr.reason == errPropertyUnavailable
}

// Close quits mpv and removes its socket
func (p *MPV) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		if _, err := p.command("quit"); err != nil {
			p.logger.WithError(err).Debug("mpv quit")
		}
		p.conn.Close()
		p.conn = nil
	}
	if p.cmd != nil {
		p.reap()
	}
	if p.socket != "" {
		os.Remove(p.socket)
		p.socket = ""
	}
	return nil
}

// reap waits for mpv to exit after quit and kills it once quitTimeout has
// passed.
func (p *MPV) reap() {
	exited := make(chan error, 1)
	go func() { exited <- p.cmd.Wait() }()

	select {
	case err := <-exited:
		if err != nil {
			p.logger.WithError(err).Debug("mpv exited")
		}
	case <-time.After(p.quitTimeout):
		p.logger.With(log.F("pid", p.cmd.Process.Pid)).Warn("mpv did not quit, killing it")
		p.cmd.Process.Kill()
		<-exited
	}
	p.cmd = nil
}

func (p *MPV) kill() {
	if p.cmd != nil && p.cmd.Process != nil {
		p.cmd.Process.Kill()
		p.cmd.Wait()
	}
	p.cmd = nil
}
