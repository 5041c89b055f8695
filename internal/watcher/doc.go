// Package watcher ingests app usage into the rewind database.
//
// Window-manager or launcher hooks run cmd/rewind-hook, which appends one
// line per focus change to ~/.rewind/usage.log. The Watcher reads that log
// from a saved byte offset and batch-inserts the events, so the day's
// timeline can be rebuilt at any time.
//
//   - Passes run on startup, on fsnotify writes, on a ticker and on stop
//   - Crash-safe offset tracking (temp file + rename)
//   - One SQLite transaction per pass
//   - Daemon mode with PID file and systemd readiness notifications
//
// Example usage:
//
//	w, err := watcher.New(st, watcher.Options{
//		Paths:  watcher.Paths{Log: cfg.UsageLogPath(), Offset: cfg.OffsetPath()},
//		Logger: logger,
//	})
//	if err != nil {
//		return err
//	}
//	if err := w.Start(); err != nil {
//		return err
//	}
//	defer w.Stop()
package watcher
