package store

const schema = `
CREATE TABLE IF NOT EXISTS apps (
    package TEXT PRIMARY KEY,
    label TEXT NOT NULL,
    icon TEXT,
    color INTEGER NOT NULL,
    flags INTEGER NOT NULL DEFAULT 0,
    scan_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS usage_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    package TEXT NOT NULL,
    kind TEXT NOT NULL,
    timestamp_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_timestamp ON usage_events(timestamp_ms);
CREATE INDEX IF NOT EXISTS idx_usage_package ON usage_events(package);
`
