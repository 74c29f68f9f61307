package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/wikidex/core"
	"github.com/poiesic/wikidex/storage"
)

// maxRedirectDepth bounds redirect chain resolution so that a cycle in the
// corpus cannot hang a lookup.
const maxRedirectDepth = 16

// Reader answers read-only queries over the corpus.
type Reader struct {
	store  *Store
	logger *slog.Logger
}

var _ storage.CorpusReader = (*Reader)(nil)

// NewReader creates a reader over the given store connection.
func NewReader(store *Store) *Reader {
	return &Reader{
		store:  store,
		logger: store.logger.With("component", "corpus-reader"),
	}
}

// GetArticle retrieves an article by title. Redirects are followed to the
// final target; its categories and images are loaded. Returns
// storage.ErrNotFound when the title does not resolve to an article.
func (r *Reader) GetArticle(ctx context.Context, title string) (*core.Article, error) {
	resolved := title
	for depth := 0; depth < maxRedirectDepth; depth++ {
		target, err := r.GetRedirect(ctx, resolved)
		if errors.Is(err, storage.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		r.logger.Debug("following redirect", "from", resolved, "to", target)
		resolved = target
	}

	article, err := r.readHeader(ctx, resolved)
	if err != nil {
		return nil, err
	}
	if err := r.loadRelations(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// GetRedirect returns the redirect target recorded for a title, or
// storage.ErrNotFound when the title is not a redirect source.
func (r *Reader) GetRedirect(ctx context.Context, title string) (string, error) {
	var target string
	err := r.store.db.QueryRowContext(ctx,
		`SELECT to_title FROM redirects WHERE from_title = ?`, title,
	).Scan(&target)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: no redirect for %q", storage.ErrNotFound, title)
	}
	if err != nil {
		return "", err
	}
	return target, nil
}

// SearchArticles runs an FTS5 MATCH query over titles and content and
// returns up to limit articles in the engine's relevance order, relations
// loaded.
func (r *Reader) SearchArticles(ctx context.Context, query string, limit int) ([]*core.Article, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT title, content, size, last_modified
         FROM articles WHERE articles MATCH ? ORDER BY rank LIMIT ?`,
		query, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*core.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, article)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, article := range results {
		if err := r.loadRelations(ctx, article); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// ListCategories returns all category names in lexical order.
func (r *Reader) ListCategories(ctx context.Context) ([]string, error) {
	return r.queryStrings(ctx, `SELECT name FROM categories ORDER BY name`)
}

// ArticlesInCategory returns the titles filed under a category, in title
// order.
func (r *Reader) ArticlesInCategory(ctx context.Context, category string) ([]string, error) {
	return r.queryStrings(ctx,
		`SELECT a.title
         FROM articles a
         JOIN article_categories ac ON ac.article_id = a.rowid
         JOIN categories c ON c.id = ac.category_id
         WHERE c.name = ?
         ORDER BY a.title`,
		category,
	)
}

// CountArticles returns the number of persisted article rows, redirects
// included.
func (r *Reader) CountArticles(ctx context.Context) (int, error) {
	var count int
	err := r.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count)
	return count, err
}

func (r *Reader) readHeader(ctx context.Context, title string) (*core.Article, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT title, content, size, last_modified FROM articles WHERE title = ?`, title,
	)
	article, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: article %q", storage.ErrNotFound, title)
	}
	if err != nil {
		return nil, err
	}
	return article, nil
}

func (r *Reader) loadRelations(ctx context.Context, article *core.Article) error {
	categories, err := r.queryStrings(ctx,
		`SELECT c.name FROM categories c
         JOIN article_categories ac ON c.id = ac.category_id
         WHERE ac.article_id = (SELECT rowid FROM articles WHERE title = ?)`,
		article.Title,
	)
	if err != nil {
		return err
	}
	for _, name := range categories {
		article.AddCategory(name)
	}

	rows, err := r.store.db.QueryContext(ctx,
		`SELECT i.filename, i.path, i.size, i.mime_type, i.hash, COALESCE(i.caption, '')
         FROM images i
         JOIN article_images ai ON i.id = ai.image_id
         WHERE ai.article_id = (SELECT rowid FROM articles WHERE title = ?)`,
		article.Title,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var img core.Image
		if err := rows.Scan(&img.Filename, &img.Path, &img.Size, &img.MIMEType, &img.Hash, &img.Caption); err != nil {
			return err
		}
		article.AddImage(img)
	}
	return rows.Err()
}

func (r *Reader) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(s scanner) (*core.Article, error) {
	var (
		article  core.Article
		modified string
	)
	if err := s.Scan(&article.Title, &article.Content, &article.Size, &modified); err != nil {
		return nil, err
	}
	if ts, err := time.Parse(time.RFC3339, modified); err == nil {
		article.LastModified = ts
	}
	article.Categories = make(map[string]struct{})
	return &article, nil
}
