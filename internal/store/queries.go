package store

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"time"

	"github.com/blackwell-systems/rewind/internal/timeline"
)

// Usage event operations

// InsertEvent records a single usage event.
func (s *Store) InsertEvent(ev timeline.RawEvent) error {
	_, err := s.db.Exec(
		`INSERT INTO usage_events (package, kind, timestamp_ms) VALUES (?, ?, ?)`,
		ev.Package, string(ev.Kind), ev.Timestamp.UnixMilli(),
	)
	if err != nil {
		return wrapErr(err, "failed to insert usage event for %s", ev.Package)
	}
	return nil
}

// InsertEvents records events in a single transaction.
func (s *Store) InsertEvents(events []timeline.RawEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO usage_events (package, kind, timestamp_ms) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return wrapErr(err, "failed to prepare insert")
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.Exec(ev.Package, string(ev.Kind), ev.Timestamp.UnixMilli()); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("failed to insert usage event for %s: %w", ev.Package, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit usage events: %w", err)
	}
	return nil
}

// EventIterator streams usage events from an open query. It must be closed.
type EventIterator struct {
	rows *sql.Rows
	err  error
}

// QueryEvents returns the events recorded in [start, end], oldest first.
// Events sharing a timestamp keep their insertion order.
func (s *Store) QueryEvents(ctx context.Context, start, end time.Time) (*EventIterator, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT package, kind, timestamp_ms
		FROM usage_events
		WHERE timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms, id
	`, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, wrapErr(err, "failed to query usage events")
	}
	return &EventIterator{rows: rows}, nil
}

// All yields the remaining events. Scan failures stop the sequence and are
// reported by Err.
func (it *EventIterator) All() iter.Seq[timeline.RawEvent] {
	return func(yield func(timeline.RawEvent) bool) {
		for it.rows.Next() {
			var (
				ev   timeline.RawEvent
				kind string
				ms   int64
			)
			if err := it.rows.Scan(&ev.Package, &kind, &ms); err != nil {
				it.err = fmt.Errorf("failed to scan usage event row: %w", err)
				return
			}
			ev.Kind = timeline.ParseKind(kind)
			ev.Timestamp = time.UnixMilli(ms)
			if !yield(ev) {
				return
			}
		}
		if err := it.rows.Err(); err != nil {
			it.err = fmt.Errorf("error iterating usage events: %w", err)
		}
	}
}

// Err returns the first error hit while iterating.
func (it *EventIterator) Err() error {
	return it.err
}

// Close releases the underlying rows.
func (it *EventIterator) Close() error {
	return it.rows.Close()
}

// GetEventCount returns the total number of usage events recorded.
func (s *Store) GetEventCount() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM usage_events").Scan(&count); err != nil {
		return 0, wrapErr(err, "failed to get event count")
	}
	return count, nil
}

// GetLastEventTime returns the timestamp of the newest usage event.
// Returns zero time if no events exist.
func (s *Store) GetLastEventTime() (time.Time, error) {
	var ms sql.NullInt64
	if err := s.db.QueryRow("SELECT MAX(timestamp_ms) FROM usage_events").Scan(&ms); err != nil {
		return time.Time{}, wrapErr(err, "failed to get last event time")
	}
	if !ms.Valid {
		return time.Time{}, nil
	}
	return time.UnixMilli(ms.Int64), nil
}

// App directory operations

// SaveDirectory replaces the stored directory with the apps of one scan.
func (s *Store) SaveDirectory(scanID string, apps []*timeline.InstalledApp) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM apps`); err != nil {
		tx.Rollback() //nolint:errcheck
		return wrapErr(err, "failed to clear apps")
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO apps (package, label, icon, color, flags, scan_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("failed to prepare app insert: %w", err)
	}
	defer stmt.Close()

	for _, app := range apps {
		if _, err := stmt.Exec(app.Package, app.Label, app.Icon, int64(app.Color), int64(app.Flags), scanID); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("failed to insert app %s: %w", app.Package, err)
		}
	}

	now := time.Now().Format(time.RFC3339)
	for key, value := range map[string]string{metaLastScanID: scanID, metaLastScanAt: now} {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("failed to record scan metadata: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit directory: %w", err)
	}
	return nil
}

// ListApps returns all stored apps ordered by label.
func (s *Store) ListApps() ([]*timeline.InstalledApp, error) {
	rows, err := s.db.Query(`
		SELECT package, label, icon, color, flags, scan_id
		FROM apps
		ORDER BY label COLLATE NOCASE, package
	`)
	if err != nil {
		return nil, wrapErr(err, "failed to list apps")
	}
	defer rows.Close()

	var apps []*timeline.InstalledApp
	for rows.Next() {
		var (
			app   timeline.InstalledApp
			icon  sql.NullString
			color int64
			flags int64
		)
		if err := rows.Scan(&app.Package, &app.Label, &icon, &color, &flags, &app.ScanID); err != nil {
			return nil, fmt.Errorf("failed to scan app row: %w", err)
		}
		app.Icon = icon.String
		app.Color = uint32(color)
		app.Flags = uint32(flags)
		apps = append(apps, &app)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating apps: %w", err)
	}
	return apps, nil
}

// LoadDirectory returns the stored directory keyed by package.
func (s *Store) LoadDirectory(ctx context.Context) (timeline.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	apps, err := s.ListApps()
	if err != nil {
		return nil, err
	}
	dir := make(timeline.Directory, len(apps))
	for _, app := range apps {
		dir[app.Package] = app
	}
	return dir, nil
}

// GetLastScan returns information about the most recent directory build, or
// nil if no scan has been stored.
func (s *Store) GetLastScan() (*ScanInfo, error) {
	var id, at string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaLastScanID).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(err, "failed to get last scan")
	}
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaLastScanAt).Scan(&at); err != nil {
		return nil, fmt.Errorf("failed to get last scan time: %w", err)
	}

	info := &ScanInfo{ID: id}
	if info.At, err = time.Parse(time.RFC3339, at); err != nil {
		return nil, fmt.Errorf("failed to parse last scan time: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM apps`).Scan(&info.AppCount); err != nil {
		return nil, fmt.Errorf("failed to count apps: %w", err)
	}
	return info, nil
}
