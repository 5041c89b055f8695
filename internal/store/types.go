package store

import "time"

// ScanInfo describes the most recent directory build persisted in the store.
type ScanInfo struct {
	ID       string
	At       time.Time
	AppCount int
}

// Meta keys.
const (
	metaLastScanID = "last_scan_id"
	metaLastScanAt = "last_scan_at"
)
