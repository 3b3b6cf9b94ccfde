package database

import "context"

// migrations holds numbered, idempotent schema statements applied in order
// (spec §4.5: "if schema is absent, install V1; otherwise apply any pending
// upgrades"), mirroring the teacher's migration-at-New() pattern.
var migrations = []string{
	// V1
	`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`,

	`CREATE TABLE IF NOT EXISTS sources (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0,
		config TEXT,
		last_error TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS folders (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL REFERENCES sources(id),
		parent_id TEXT,
		title TEXT NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS feeds (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL REFERENCES sources(id),
		folder_id TEXT,
		url TEXT NOT NULL,
		guid TEXT,
		title TEXT,
		subtitle TEXT,
		link TEXT,
		description TEXT,
		language TEXT,
		copyright TEXT,
		icon_url TEXT,
		icon_hash TEXT,
		icon_last_fetched DATETIME,
		last_checked DATETIME,
		last_refresh_error TEXT,
		refresh_interval INTEGER,
		sort_order INTEGER NOT NULL DEFAULT 0,
		etag TEXT,
		last_modified DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feeds_folder_id ON feeds(folder_id)`,

	`CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		feed_id TEXT NOT NULL REFERENCES feeds(id),
		is_read INTEGER NOT NULL DEFAULT 0,
		title TEXT,
		link TEXT,
		content TEXT,
		author TEXT,
		comments_url TEXT,
		guid TEXT NOT NULL,
		date_published DATETIME,
		thumbnail TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_feed_id ON posts(feed_id)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_date_published ON posts(date_published)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_posts_feed_guid ON posts(feed_id, guid)`,

	`CREATE TABLE IF NOT EXISTS post_enclosures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id TEXT NOT NULL REFERENCES posts(id),
		url TEXT NOT NULL,
		size INTEGER,
		mime TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_post_enclosures_post_id ON post_enclosures(post_id)`,

	`CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		feed_id TEXT NOT NULL REFERENCES feeds(id),
		title TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_feed_title ON categories(feed_id, title)`,

	`CREATE TABLE IF NOT EXISTS post_categories (
		post_id TEXT NOT NULL REFERENCES posts(id),
		category_id TEXT NOT NULL REFERENCES categories(id),
		PRIMARY KEY (post_id, category_id)
	)`,

	`CREATE TABLE IF NOT EXISTS flags (
		post_id TEXT NOT NULL REFERENCES posts(id),
		color TEXT NOT NULL,
		PRIMARY KEY (post_id, color)
	)`,

	`CREATE TABLE IF NOT EXISTS scriptfolders (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL REFERENCES sources(id),
		title TEXT NOT NULL,
		show_total INTEGER NOT NULL DEFAULT 0,
		show_unread INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS scriptfolder_posts (
		scriptfolder_id TEXT NOT NULL REFERENCES scriptfolders(id),
		post_id TEXT NOT NULL REFERENCES posts(id),
		PRIMARY KEY (scriptfolder_id, post_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scriptfolder_posts_post_id ON scriptfolder_posts(post_id)`,

	`CREATE TABLE IF NOT EXISTS scripts (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL REFERENCES sources(id),
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		is_enabled INTEGER NOT NULL DEFAULT 1,
		run_on_events TEXT,
		run_on_feed_ids TEXT,
		body TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS logs (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		feed_id TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON logs(timestamp)`,
}

// installOrUpgrade applies every migration statement; each is idempotent
// (CREATE ... IF NOT EXISTS), so re-running on an up-to-date schema is a
// no-op, matching the teacher's "apply pending upgrades" pattern. V1
// creates a schema_version table, but no version row is written or read:
// with a single baseline version there is nothing to compare against.
func (r *Repository) installOrUpgrade(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range migrations {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}
