package main

import (
	"time"

	"mediatagger/internal/browse"
	"mediatagger/internal/config"
	"mediatagger/internal/extract"
	"mediatagger/internal/journal"
	"mediatagger/internal/log"
	"mediatagger/internal/player"
	"mediatagger/internal/session"
	"mediatagger/internal/settings"
	"mediatagger/internal/tags"
	"mediatagger/internal/viewer"
	"mediatagger/internal/watch"
)

// env is what every command needs: the tag store, the extractor and the
// optional journal.
type env struct {
	cfg       *config.Config
	tags      *tags.Store
	journal   *journal.Journal
	extractor *extract.Extractor
	logger    log.Logging
}

func openEnv(cfg *config.Config) (*env, error) {
	logger := log.Default()
	e := &env{
		cfg:    cfg,
		tags:   tags.NewStore(cfg.Store.Tags, tags.WithLogger(logger)),
		logger: logger,
	}
	if _, err := e.tags.Init(); err != nil {
		return nil, err
	}
	e.extractor = extract.New(e.tags, cfg.Extract.Suffix, logger)

	if cfg.Store.JournalEnabled {
		j, err := journal.Open(cfg.Store.Journal, logger)
		if err != nil {
			return nil, err
		}
		e.journal = j
	}
	return e, nil
}

func (e *env) record(entry *journal.Entry) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Record(entry); err != nil {
		e.logger.WithError(err).Warn("Could not record journal entry")
	}
}

func (e *env) Close() error {
	if e.journal != nil {
		return e.journal.Close()
	}
	return nil
}

// interactive adds the viewer, the browser listing, the session and the
// tag store reloader used by the tui and gui commands.
type interactive struct {
	*env
	player   *player.MPV
	browser  *browse.Browser
	session  *session.Session
	reloader *watch.Reloader
}

func openInteractive(cfg *config.Config, display viewer.Display) (*interactive, error) {
	e, err := openEnv(cfg)
	if err != nil {
		return nil, err
	}
	it := &interactive{env: e}

	it.browser, err = browse.New(cfg.Browser.NameFilters,
		browse.WithBasenameMarks(cfg.Browser.CheckMarks == config.CheckMarksBasename),
		browse.WithShowAll(cfg.Browser.ShowAll),
		browse.WithLogger(e.logger),
	)
	if err != nil {
		e.Close()
		return nil, err
	}

	it.player = player.NewMPV(cfg.Viewer.MPVPath, cfg.Viewer.MPVArgs, e.logger)
	machine := viewer.NewMachine(it.player, display,
		viewer.WithInitialVolume(cfg.Viewer.InitialVolume),
		viewer.WithLogger(e.logger),
	)

	opts := session.Options{
		Tags:       e.tags,
		Settings:   settings.NewStore(cfg.Store.Settings, e.logger),
		Viewer:     machine,
		Extractor:  e.extractor,
		Marks:      it.browser,
		SeekStepMs: cfg.Viewer.SeekStepMs,
		VolumeStep: cfg.Viewer.VolumeStep,
		Logger:     e.logger,
	}
	if e.journal != nil {
		opts.Journal = e.journal
	}
	it.session = session.New(opts)
	if err := it.session.Open(); err != nil {
		it.player.Close()
		e.Close()
		return nil, err
	}
	return it, nil
}

// watchTags starts reloading the tag store when another process edits it.
// notify runs after each reload that changed the check marks.
func (it *interactive) watchTags(notify func()) error {
	if !it.cfg.Watch.Enabled {
		return nil
	}
	debounce := time.Duration(it.cfg.Watch.DebounceMs) * time.Millisecond
	reloader, err := watch.NewReloader(it.session.ExternalChange, debounce, it.tags.Path())
	if err != nil {
		return err
	}
	it.reloader = reloader
	it.reloader.SetCallback(func(changed bool, err error) {
		if err == nil && changed && notify != nil {
			notify()
		}
	})
	return it.reloader.Start()
}

// Close stops the reloader and the player. The session must already be
// closed by the front end so the window state is saved.
func (it *interactive) Close() error {
	if it.reloader != nil {
		it.reloader.Stop()
	}
	if err := it.player.Close(); err != nil {
		it.logger.WithError(err).Debug("Player shutdown")
	}
	return it.env.Close()
}
