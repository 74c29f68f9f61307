package storage

import (
	"context"

	"github.com/poiesic/wikidex/core"
)

// CorpusWriter persists parsed articles. A writer owns one store connection;
// sharing a writer across goroutines is unsafe.
type CorpusWriter interface {
	// WriteBatch persists the given articles within one transaction. Either
	// every article's rows commit or none do. A record that fails validation
	// aborts the batch with the validation error.
	WriteBatch(ctx context.Context, articles []*core.Article) error

	// Close closes the writer's connection.
	Close() error
}

// CorpusReader answers queries over the persisted corpus.
type CorpusReader interface {
	// GetArticle retrieves an article by title, following redirect chains.
	// Returns ErrNotFound when neither the title nor a redirect target exists.
	GetArticle(ctx context.Context, title string) (*core.Article, error)

	// GetRedirect returns the redirect target for a title, or ErrNotFound
	// when the title is not a redirect.
	GetRedirect(ctx context.Context, title string) (string, error)

	// SearchArticles runs a full-text query over titles and content,
	// returning up to limit articles in relevance order.
	SearchArticles(ctx context.Context, query string, limit int) ([]*core.Article, error)

	// ListCategories returns all category names in lexical order.
	ListCategories(ctx context.Context) ([]string, error)

	// ArticlesInCategory returns the titles filed under a category.
	ArticlesInCategory(ctx context.Context, category string) ([]string, error)

	// CountArticles returns the number of persisted articles.
	CountArticles(ctx context.Context) (int, error)
}

// Match is one vector similarity hit.
type Match struct {
	Key   string
	Score float32
}

// VectorStore persists key to vector pairs and answers nearest-neighbor
// queries. The vector dimension is fixed per store instance; operations on
// vectors of any other dimension fail with ErrDimensionMismatch.
type VectorStore interface {
	// Put upserts a vector under the given key. The write is committed
	// before Put returns.
	Put(ctx context.Context, key string, vector []float32) error

	// Get returns the stored vector, or ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]float32, error)

	// FindSimilar scores every stored vector against the query by cosine
	// similarity within one read transaction and returns the top k matches
	// in descending score order. Ties are left in store iteration order.
	FindSimilar(ctx context.Context, query []float32, k int) ([]Match, error)

	// Close closes the store.
	Close() error
}
