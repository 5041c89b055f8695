package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/blackwell-systems/rewind/internal/config"
	"github.com/blackwell-systems/rewind/internal/metrics"
	"github.com/blackwell-systems/rewind/internal/store"
)

const (
	DefaultInterval = 30 * time.Second

	// Hooks write in bursts; writes inside this window share one pass.
	settleDelay = 250 * time.Millisecond
)

// Options configures a Watcher.
type Options struct {
	Paths    Paths
	Aliases  config.Aliases
	Interval time.Duration
	Logger   zerolog.Logger
}

// Watcher ingests the usage log into the store. A pass runs on start, after
// writes to the log reported by fsnotify, on every interval tick and once
// more on stop.
type Watcher struct {
	store   *store.Store
	paths   Paths
	aliases config.Aliases
	logger  zerolog.Logger

	interval time.Duration
	fs       *fsnotify.Watcher
	stopCh   chan struct{}
	wg       sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// New creates a new Watcher instance.
func New(st *store.Store, opts Options) (*Watcher, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if opts.Paths.Log == "" || opts.Paths.Offset == "" {
		return nil, fmt.Errorf("usage log and offset paths are required")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Watcher{
		store:    st,
		paths:    opts.Paths,
		aliases:  opts.Aliases,
		logger:   opts.Logger.With().Str("component", "watcher").Logger(),
		interval: opts.Interval,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start processes what is already in the log and begins watching it.
// If fsnotify is unavailable the watcher falls back to the ticker alone.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return fmt.Errorf("watcher already started")
	}
	w.started = true

	if err := os.MkdirAll(filepath.Dir(w.paths.Log), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	w.pass("startup")

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn().Err(err).Msg("fsnotify unavailable, polling only")
	} else if err := fw.Add(filepath.Dir(w.paths.Log)); err != nil {
		w.logger.Warn().Err(err).Msg("cannot watch data directory, polling only")
		fw.Close()
	} else {
		w.fs = fw
	}

	w.wg.Add(1)
	go w.run()

	w.logger.Info().
		Str("log", w.paths.Log).
		Dur("interval", w.interval).
		Bool("fsnotify", w.fs != nil).
		Msg("watching usage log")
	return nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var (
		fsEvents <-chan fsnotify.Event
		fsErrors <-chan error
		settle   <-chan time.Time
	)
	if w.fs != nil {
		fsEvents = w.fs.Events
		fsErrors = w.fs.Errors
	}

	for {
		select {
		case <-ticker.C:
			w.pass("tick")
		case ev, ok := <-fsEvents:
			if !ok {
				fsEvents = nil
				continue
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.paths.Log) {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				if settle == nil {
					settle = time.After(settleDelay)
				}
			}
		case <-settle:
			settle = nil
			w.pass("fsnotify")
		case err, ok := <-fsErrors:
			if !ok {
				fsErrors = nil
				continue
			}
			w.logger.Warn().Err(err).Msg("fsnotify error")
		case <-w.stopCh:
			w.pass("flush")
			return
		}
	}
}

// pass drains the usage log and records the outcome.
func (w *Watcher) pass(trigger string) {
	started := time.Now()
	res, err := DrainUsageLog(w.store, w.paths, w.aliases, w.logger)
	metrics.ObservePass(trigger, res.Ingested, res.Malformed, time.Since(started), err)

	if err != nil {
		w.logger.Error().Err(err).Str("trigger", trigger).Msg("usage log ingest failed")
		return
	}
	if res.Ingested > 0 || res.Malformed > 0 {
		w.logger.Debug().
			Str("trigger", trigger).
			Int("ingested", res.Ingested).
			Int("malformed", res.Malformed).
			Int64("offset", res.Offset).
			Msg("usage log ingested")
	}
}

// Stop halts the watcher and flushes any remaining log entries.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started || w.stopped {
		return nil
	}
	w.stopped = true

	close(w.stopCh)
	w.wg.Wait()

	if w.fs != nil {
		return w.fs.Close()
	}
	return nil
}
