// microboard/database/schema.go
package database

const schema = `
CREATE TABLE IF NOT EXISTS boards (
	id TEXT PRIMARY KEY, name TEXT NOT NULL, description TEXT DEFAULT '',
	type TEXT NOT NULL DEFAULT 'board',
	threads_per_page INTEGER DEFAULT 10,
	posts_per_preview INTEGER DEFAULT 4,
	threads_per_catalog_page INTEGER DEFAULT 50,
	anonymous TEXT DEFAULT 'Anonymous',
	nofile_ok BOOLEAN DEFAULT 1,
	max_kb INTEGER DEFAULT 4096,
	truncate_len INTEGER DEFAULT 1000,
	created DATETIME
);
CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	board_id TEXT NOT NULL,
	post_id INTEGER NOT NULL,
	parent_id INTEGER NOT NULL DEFAULT 0,
	ip BLOB,
	timestamp DATETIME NOT NULL,
	bumped DATETIME NOT NULL,
	role INTEGER NOT NULL DEFAULT 0,
	name TEXT DEFAULT '', tripcode TEXT DEFAULT '', email TEXT DEFAULT '',
	nameblock TEXT DEFAULT '',
	subject TEXT DEFAULT '',
	message TEXT DEFAULT '',
	message_rendered TEXT DEFAULT '',
	message_truncated BOOLEAN DEFAULT 0,
	password TEXT DEFAULT '',
	file TEXT DEFAULT '', file_hex TEXT DEFAULT '', file_original TEXT DEFAULT '',
	file_size INTEGER DEFAULT 0, file_size_formatted TEXT DEFAULT '',
	image_width INTEGER DEFAULT 0, image_height INTEGER DEFAULT 0,
	thumb TEXT DEFAULT '', thumb_width INTEGER DEFAULT 0, thumb_height INTEGER DEFAULT 0,
	country TEXT DEFAULT '',
	spoiler BOOLEAN DEFAULT 0,
	stickied BOOLEAN DEFAULT 0,
	moderated BOOLEAN DEFAULT 1,
	locked BOOLEAN DEFAULT 0,
	deleted BOOLEAN DEFAULT 0,
	UNIQUE (board_id, post_id),
	FOREIGN KEY (board_id) REFERENCES boards(id)
);
-- Per-session thread visibility overlay. The composite primary key is what
-- makes duplicate hide submissions impossible.
CREATE TABLE IF NOT EXISTS hides (
	session_id TEXT NOT NULL,
	board_id TEXT NOT NULL,
	post_id INTEGER NOT NULL,
	PRIMARY KEY (session_id, board_id, post_id)
);
CREATE TABLE IF NOT EXISTS reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ip BLOB,
	timestamp DATETIME NOT NULL,
	board_id TEXT NOT NULL,
	post_id INTEGER NOT NULL,
	type TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	role INTEGER NOT NULL,
	lastactive DATETIME
);
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME NOT NULL
);

-- --- INDEXES ---
-- Board/thread listings filter on (board, parent, deleted) and sort on bumped.
CREATE INDEX IF NOT EXISTS idx_posts_board_parent ON posts(board_id, parent_id, deleted, bumped DESC);
CREATE INDEX IF NOT EXISTS idx_posts_parent ON posts(parent_id, deleted, bumped DESC);
CREATE INDEX IF NOT EXISTS idx_posts_file_hex ON posts(file_hex);
CREATE INDEX IF NOT EXISTS idx_hides_session ON hides(session_id, board_id);
CREATE INDEX IF NOT EXISTS idx_reports_post ON reports(board_id, post_id);
`
