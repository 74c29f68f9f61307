package search

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/wikidex/ai"
	"github.com/poiesic/wikidex/core"
	"github.com/poiesic/wikidex/storage"
)

// embedBatchSize bounds how many article bodies go to the embedder per call.
const embedBatchSize = 32

// Result pairs an article with its similarity score for the query.
type Result struct {
	Article *core.Article
	Score   float32
}

// Searcher embeds queries and ranks corpus articles by vector similarity.
// It also exposes the corpus store's own text search for exact-term lookups.
type Searcher struct {
	reader   storage.CorpusReader
	vectors  storage.VectorStore
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "searcher")
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	reader storage.CorpusReader,
	vectors storage.VectorStore,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if reader == nil {
		return nil, ErrReaderRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		reader:   reader,
		vectors:  vectors,
		embedder: embedder,
		logger:   slog.Default().With("component", "searcher"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// IndexAll embeds every non-redirect article and stores its vector keyed by
// title, returning the number of articles indexed. Redirects carry no
// content of their own and are skipped.
func (s *Searcher) IndexAll(ctx context.Context, articles []*core.Article) (int, error) {
	pending := make([]*core.Article, 0, len(articles))
	for _, article := range articles {
		if article.IsRedirect() || article.Content == "" {
			continue
		}
		pending = append(pending, article)
	}

	s.logger.Info("indexing articles", "total", len(articles), "indexable", len(pending))

	indexed := 0
	for start := 0; start < len(pending); start += embedBatchSize {
		end := min(start+embedBatchSize, len(pending))
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for i, article := range batch {
			texts[i] = article.Content
		}

		vectors, err := s.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return indexed, err
		}
		if len(vectors) != len(batch) {
			return indexed, errors.New("embedder returned a different number of vectors than texts")
		}

		for i, article := range batch {
			if err := s.vectors.Put(ctx, article.Title, vectors[i]); err != nil {
				return indexed, err
			}
			indexed++
		}
	}

	s.logger.Info("indexing complete", "indexed", indexed)
	return indexed, nil
}

// Search embeds the query and returns up to k articles ranked by cosine
// similarity. Index entries whose article no longer resolves in the corpus
// are dropped from the results.
func (s *Searcher) Search(ctx context.Context, query string, k int) ([]*Result, error) {
	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}

	matches, err := s.vectors.FindSimilar(ctx, vector, k)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(matches))
	for _, match := range matches {
		article, err := s.reader.GetArticle(ctx, match.Key)
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("indexed article missing from corpus", "title", match.Key)
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, &Result{Article: article, Score: match.Score})
	}

	return results, nil
}

// Lexical runs the corpus store's full-text search instead of the vector
// index, for exact-term queries.
func (s *Searcher) Lexical(ctx context.Context, query string, k int) ([]*core.Article, error) {
	return s.reader.SearchArticles(ctx, query, k)
}
