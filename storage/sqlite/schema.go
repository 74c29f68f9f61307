package sqlite

import "database/sql"

const schemaVersion = 1

// initSchema creates the corpus tables when absent. It is idempotent, so
// every worker connection can run it on open.
func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schema_version (
            version INTEGER NOT NULL
        );`,
		// Article text lives in FTS5 so the engine indexes it for MATCH
		// queries; size and last_modified ride along unindexed.
		`CREATE VIRTUAL TABLE IF NOT EXISTS articles USING fts5(
            title,
            content,
            size UNINDEXED,
            last_modified UNINDEXED
        );`,
		`CREATE TABLE IF NOT EXISTS categories (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL UNIQUE
        );`,
		`CREATE TABLE IF NOT EXISTS article_categories (
            article_id INTEGER NOT NULL,
            category_id INTEGER NOT NULL,
            PRIMARY KEY (article_id, category_id),
            FOREIGN KEY (category_id) REFERENCES categories(id)
        );`,
		// hash is the deduplication key: the same content digest maps to one
		// row no matter how many filenames or captions reference it.
		`CREATE TABLE IF NOT EXISTS images (
            id INTEGER PRIMARY KEY,
            filename TEXT NOT NULL,
            path TEXT NOT NULL,
            size INTEGER NOT NULL DEFAULT 0,
            mime_type TEXT NOT NULL,
            hash TEXT NOT NULL UNIQUE,
            caption TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS article_images (
            article_id INTEGER NOT NULL,
            image_id INTEGER NOT NULL,
            PRIMARY KEY (article_id, image_id),
            FOREIGN KEY (image_id) REFERENCES images(id)
        );`,
		// to_title is not a foreign key: redirect targets may dangle.
		`CREATE TABLE IF NOT EXISTS redirects (
            from_title TEXT PRIMARY KEY,
            to_title TEXT NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_categories_name ON categories(name);`,
		`CREATE INDEX IF NOT EXISTS idx_images_filename ON images(filename);`,
		`CREATE INDEX IF NOT EXISTS idx_redirects_to ON redirects(to_title);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(1) FROM schema_version`).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		_, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, schemaVersion)
		return err
	}
	return nil
}
