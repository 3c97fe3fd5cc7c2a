package store

// Schema creates the shell tables. All timestamps are unix milliseconds.
const Schema = `
CREATE TABLE IF NOT EXISTS pages (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL,
	html       TEXT,
	language   TEXT,
	cached_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);

CREATE TABLE IF NOT EXISTS history (
	id          TEXT PRIMARY KEY,
	url         TEXT NOT NULL UNIQUE,
	title       TEXT NOT NULL,
	visited_at  INTEGER NOT NULL,
	visit_count INTEGER DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_history_visited_at ON history(visited_at DESC);

CREATE TABLE IF NOT EXISTS bookmarks (
	id          TEXT PRIMARY KEY,
	url         TEXT NOT NULL UNIQUE,
	title       TEXT NOT NULL,
	folder      TEXT,
	tags        TEXT,
	description TEXT,
	created_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS downloads (
	id             TEXT PRIMARY KEY,
	url            TEXT NOT NULL,
	filename       TEXT,
	path           TEXT,
	status         TEXT NOT NULL,
	progress       REAL DEFAULT 0,
	received_bytes INTEGER DEFAULT 0,
	total_bytes    INTEGER,
	created_at     INTEGER NOT NULL,
	completed_at   INTEGER,
	error          TEXT
);

CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY DEFAULT 'current',
	active_tab_id TEXT,
	tabs_json     TEXT NOT NULL,
	saved_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`
