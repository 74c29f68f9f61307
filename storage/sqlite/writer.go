package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/wikidex/core"
	"github.com/poiesic/wikidex/storage"
)

// Writer persists articles through one store connection.
//
// The category and image caches are owned exclusively by this writer and are
// only valid for its own transactions; sharing a writer (and hence its
// caches) across concurrent transactions is unsafe. Ownership, not a lock,
// enforces that invariant: every worker constructs its own writer.
type Writer struct {
	store         *Store
	categoryCache map[string]int64 // category name -> id
	imageCache    map[string]int64 // content hash -> id
	logger        *slog.Logger
}

var _ storage.CorpusWriter = (*Writer)(nil)

// NewWriter creates a writer over the given store connection. The writer
// assumes exclusive use of the connection for the duration of its batches.
func NewWriter(store *Store) *Writer {
	return &Writer{
		store:         store,
		categoryCache: make(map[string]int64),
		imageCache:    make(map[string]int64),
		logger:        store.logger.With("component", "corpus-writer"),
	}
}

// WriteBatch persists the articles within a single transaction: header rows,
// redirect rows and all relation links commit together or not at all. On any
// error the transaction rolls back and the dedup caches are discarded, since
// they may hold ids from the rolled-back inserts.
func (w *Writer) WriteBatch(ctx context.Context, articles []*core.Article) error {
	tx, err := w.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	for _, article := range articles {
		if err := core.ValidateArticle(article); err != nil {
			w.resetCaches()
			return err
		}
		if err := w.writeArticle(ctx, tx, article); err != nil {
			w.resetCaches()
			return fmt.Errorf("writing article %q: %w", article.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		w.resetCaches()
		return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	return nil
}

// Close closes the underlying store connection.
func (w *Writer) Close() error {
	return w.store.Close()
}

func (w *Writer) resetCaches() {
	w.categoryCache = make(map[string]int64)
	w.imageCache = make(map[string]int64)
}

func (w *Writer) writeArticle(ctx context.Context, tx *sql.Tx, article *core.Article) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO articles (title, content, size, last_modified) VALUES (?, ?, ?, ?)`,
		article.Title, article.Content, article.Size,
		article.LastModified.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return err
	}
	articleID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	// A redirect carries only its header and target row; relation
	// processing never runs for it.
	if article.IsRedirect() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO redirects (from_title, to_title) VALUES (?, ?)`,
			article.Title, article.RedirectTo,
		)
		return err
	}

	for category := range article.Categories {
		categoryID, err := w.categoryID(ctx, tx, category)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO article_categories (article_id, category_id) VALUES (?, ?)`,
			articleID, categoryID,
		); err != nil {
			return err
		}
	}

	for _, img := range article.Images {
		imageID, err := w.imageID(ctx, tx, img)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO article_images (article_id, image_id) VALUES (?, ?)`,
			articleID, imageID,
		); err != nil {
			return err
		}
	}

	return nil
}

// categoryID resolves a category name to its row id, creating the row when
// absent. The insert-then-select pairing makes concurrent get-or-create
// races benign: a losing insert is a no-op and the select reads the winner.
func (w *Writer) categoryID(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	if id, ok := w.categoryCache[name]; ok {
		return id, nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO categories (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name,
	); err != nil {
		return 0, err
	}

	var id int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM categories WHERE name = ?`, name,
	).Scan(&id); err != nil {
		return 0, err
	}

	w.categoryCache[name] = id
	return id, nil
}

// imageID resolves an image to its row id by content hash, creating the row
// when absent. Images with the same hash collapse to one row regardless of
// filename or caption.
func (w *Writer) imageID(ctx context.Context, tx *sql.Tx, img core.Image) (int64, error) {
	if id, ok := w.imageCache[img.Hash]; ok {
		return id, nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO images (filename, path, size, mime_type, hash, caption)
         VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(hash) DO NOTHING`,
		img.Filename, img.Path, img.Size, img.MIMEType, img.Hash, img.Caption,
	); err != nil {
		return 0, err
	}

	var id int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM images WHERE hash = ?`, img.Hash,
	).Scan(&id); err != nil {
		return 0, err
	}

	w.imageCache[img.Hash] = id
	return id, nil
}
