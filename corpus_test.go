package wikidex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/wikidex/ai/mock"
	"github.com/poiesic/wikidex/core"
	"github.com/poiesic/wikidex/ingest"
)

func openTestCorpus(t *testing.T) *Corpus {
	t.Helper()
	dir := t.TempDir()
	corpus, err := OpenCorpus(
		filepath.Join(dir, "corpus.db"),
		filepath.Join(dir, "vectors"),
		WithEmbedder(mock.NewEmbedder()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { corpus.Close() })
	return corpus
}

func TestOpenCorpus(t *testing.T) {
	t.Run("create new corpus", func(t *testing.T) {
		corpus := openTestCorpus(t)
		assert.NotNil(t, corpus.Reader())
		assert.NotNil(t, corpus.Vectors())
	})

	t.Run("error with invalid vector path", func(t *testing.T) {
		dir := t.TempDir()
		notADir := filepath.Join(dir, "not_a_dir")
		require.NoError(t, os.WriteFile(notADir, []byte("x"), 0644))

		corpus, err := OpenCorpus(filepath.Join(dir, "corpus.db"), notADir,
			WithEmbedder(mock.NewEmbedder()))
		assert.Error(t, err)
		assert.Nil(t, corpus)
	})
}

func TestCorpusImportAndSearch(t *testing.T) {
	corpus := openTestCorpus(t)
	ctx := context.Background()

	articles := make([]*core.Article, 0, 10)
	for _, title := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"} {
		a := core.NewArticle(title)
		a.Content = "article body for " + title
		a.UpdateSize()
		articles = append(articles, a)
	}

	coord, err := corpus.NewCoordinator(ingest.WithWorkers(2), ingest.WithSubBatchSize(3))
	require.NoError(t, err)
	defer coord.Release()

	imported, err := coord.ImportAll(ctx, articles)
	require.NoError(t, err)
	assert.Equal(t, 10, imported)

	count, err := corpus.Reader().CountArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, count)

	searcher, err := corpus.NewSearcher()
	require.NoError(t, err)

	indexed, err := searcher.IndexAll(ctx, articles)
	require.NoError(t, err)
	assert.Equal(t, 10, indexed)

	results, err := searcher.Search(ctx, "article body for A", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "A", results[0].Article.Title)
	assert.LessOrEqual(t, len(results), 3)
}

func TestCorpusParallelImportUnderContention(t *testing.T) {
	// Enough articles and workers that write transactions genuinely collide
	// on the database lock; every worker count must still import every
	// record.
	const total = 137
	ctx := context.Background()

	for _, workers := range []int{1, 4, total} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			corpus := openTestCorpus(t)

			articles := make([]*core.Article, 0, total)
			for i := 0; i < total; i++ {
				a := core.NewArticle(fmt.Sprintf("Article %d", i))
				a.Content = "body text under contention"
				a.AddCategory("Shared")
				a.UpdateSize()
				articles = append(articles, a)
			}

			coord, err := corpus.NewCoordinator(
				ingest.WithWorkers(workers),
				ingest.WithSubBatchSize(10),
			)
			require.NoError(t, err)
			defer coord.Release()

			imported, err := coord.ImportAll(ctx, articles)
			require.NoError(t, err)
			assert.Equal(t, total, imported)

			count, err := corpus.Reader().CountArticles(ctx)
			require.NoError(t, err)
			assert.Equal(t, total, count)

			// Cross-worker get-or-create still collapses the shared
			// category to one row.
			names, err := corpus.Reader().ListCategories(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"Shared"}, names)
		})
	}
}

func TestCorpusClose(t *testing.T) {
	dir := t.TempDir()
	corpus, err := OpenCorpus(
		filepath.Join(dir, "corpus.db"),
		filepath.Join(dir, "vectors"),
		WithEmbedder(mock.NewEmbedder()),
	)
	require.NoError(t, err)

	assert.NoError(t, corpus.Close())
}
