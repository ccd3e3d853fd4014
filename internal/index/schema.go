package index

const schema = `
-- File metadata table, keyed by content hash
CREATE TABLE IF NOT EXISTS files (
	hash        TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	path        TEXT UNIQUE,
	uploaded_at INTEGER NOT NULL,
	tags        TEXT NOT NULL DEFAULT '[]',
	notes       TEXT,
	transcript  TEXT
);

-- Tag membership relation: one row per (tag, file) pair. This is the
-- source of truth for "does file X carry tag T".
CREATE TABLE IF NOT EXISTS tag_files (
	tag_name  TEXT NOT NULL,
	file_hash TEXT NOT NULL,
	UNIQUE (tag_name, file_hash)
);

-- Reverse view: all tags of a given file
CREATE INDEX IF NOT EXISTS idx_tag_files_by_hash ON tag_files(file_hash, tag_name);

-- Tags that have ever been used. Rows are created lazily on a tag's
-- first use and never dropped, so a tag that currently has zero
-- members stays distinguishable from one that was never used.
CREATE TABLE IF NOT EXISTS tag_registry (
	tag_name   TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);

-- Usage counters. Maintained independently of the membership
-- relation and allowed to drift; SyncTagCount recomputes on demand.
CREATE TABLE IF NOT EXISTS tag_stats (
	tag_name     TEXT PRIMARY KEY,
	upload_count INTEGER NOT NULL
);
`
