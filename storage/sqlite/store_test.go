package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/poiesic/wikidex/core"
	"github.com/poiesic/wikidex/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "corpus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testArticle(title, content string) *core.Article {
	article := core.NewArticle(title)
	article.Content = content
	article.UpdateSize()
	return article
}

func TestWriteAndReadArticle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	article := testArticle("Test Article", "This is a test article.")
	article.AddCategory("Test Category")

	writer := NewWriter(store)
	require.NoError(t, writer.WriteBatch(ctx, []*core.Article{article}))

	reader := NewReader(store)
	got, err := reader.GetArticle(ctx, "Test Article")
	require.NoError(t, err)

	assert.Equal(t, "Test Article", got.Title)
	assert.Equal(t, "This is a test article.", got.Content)
	assert.Equal(t, article.Size, got.Size)
	assert.Contains(t, got.Categories, "Test Category")
}

func TestGetArticleNotFound(t *testing.T) {
	store := openTestStore(t)
	reader := NewReader(store)

	_, err := reader.GetArticle(context.Background(), "No Such Page")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRedirectFollowed(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	target := testArticle("Target Article", "This is the target article.")
	redirect := testArticle("Redirect Source", "")
	redirect.RedirectTo = "Target Article"

	writer := NewWriter(store)
	require.NoError(t, writer.WriteBatch(ctx, []*core.Article{target, redirect}))

	reader := NewReader(store)
	got, err := reader.GetArticle(ctx, "Redirect Source")
	require.NoError(t, err)

	assert.Equal(t, "Target Article", got.Title)
	assert.Equal(t, "This is the target article.", got.Content)

	to, err := reader.GetRedirect(ctx, "Redirect Source")
	require.NoError(t, err)
	assert.Equal(t, "Target Article", to)

	_, err = reader.GetRedirect(ctx, "Target Article")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRedirectChain(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	final := testArticle("Final", "the end")
	middle := testArticle("Middle", "")
	middle.RedirectTo = "Final"
	first := testArticle("First", "")
	first.RedirectTo = "Middle"

	writer := NewWriter(store)
	require.NoError(t, writer.WriteBatch(ctx, []*core.Article{final, middle, first}))

	got, err := NewReader(store).GetArticle(ctx, "First")
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
}

func TestRedirectCycleDoesNotHang(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	a := testArticle("A", "")
	a.RedirectTo = "B"
	b := testArticle("B", "")
	b.RedirectTo = "A"

	writer := NewWriter(store)
	require.NoError(t, writer.WriteBatch(ctx, []*core.Article{a, b}))

	// Resolution stops at the depth bound and returns whatever row the
	// chain landed on.
	got, err := NewReader(store).GetArticle(ctx, "A")
	require.NoError(t, err)
	assert.Contains(t, []string{"A", "B"}, got.Title)
}

func TestCategoryGetOrCreateIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	var articles []*core.Article
	for i := 0; i < 5; i++ {
		article := testArticle(fmt.Sprintf("Article %d", i), "content")
		article.AddCategory("Shared")
		articles = append(articles, article)
	}

	writer := NewWriter(store)
	require.NoError(t, writer.WriteBatch(ctx, articles))

	var count int
	require.NoError(t, store.db.QueryRow(
		`SELECT COUNT(*) FROM categories WHERE name = 'Shared'`).Scan(&count))
	assert.Equal(t, 1, count)

	titles, err := NewReader(store).ArticlesInCategory(ctx, "Shared")
	require.NoError(t, err)
	assert.Len(t, titles, 5)
}

func TestCategoryGetOrCreateAcrossWriters(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// Independent writers have independent caches; the uniqueness
	// constraint still collapses the category to one row.
	first := testArticle("One", "x")
	first.AddCategory("Shared")
	require.NoError(t, NewWriter(store).WriteBatch(ctx, []*core.Article{first}))

	second := testArticle("Two", "y")
	second.AddCategory("Shared")
	require.NoError(t, NewWriter(store).WriteBatch(ctx, []*core.Article{second}))

	var count int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestImageDedupByHash(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	shared := core.Image{Filename: "a.jpg", Path: "/images/a.jpg", MIMEType: "image/jpeg", Hash: "deadbeef", Caption: "first"}
	renamed := core.Image{Filename: "b.jpg", Path: "/images/b.jpg", MIMEType: "image/jpeg", Hash: "deadbeef", Caption: "second"}

	one := testArticle("One", "x")
	one.AddImage(shared)
	two := testArticle("Two", "y")
	two.AddImage(renamed)

	writer := NewWriter(store)
	require.NoError(t, writer.WriteBatch(ctx, []*core.Article{one, two}))

	var count int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM images`).Scan(&count))
	assert.Equal(t, 1, count)

	got, err := NewReader(store).GetArticle(ctx, "Two")
	require.NoError(t, err)
	require.Len(t, got.Images, 1)
	assert.Equal(t, "deadbeef", got.Images[0].Hash)
}

func TestRedirectCarriesNoRelations(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	redirect := testArticle("Alias", "")
	redirect.RedirectTo = "Elsewhere"

	writer := NewWriter(store)
	require.NoError(t, writer.WriteBatch(ctx, []*core.Article{redirect}))

	var links int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM article_categories`).Scan(&links))
	assert.Zero(t, links)
}

func TestValidationErrorAbortsBatch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	good := testArticle("Good", "fine")
	bad := testArticle("", "no title")

	err := NewWriter(store).WriteBatch(ctx, []*core.Article{good, bad})
	assert.ErrorIs(t, err, core.ErrInvalidArticle)

	// The whole batch rolled back, including the valid article.
	count, countErr := NewReader(store).CountArticles(ctx)
	require.NoError(t, countErr)
	assert.Zero(t, count)
}

func TestSearchArticles(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	astronomy := testArticle("Astronomy", "The study of celestial objects and phenomena.")
	astronomy.AddCategory("Science")
	biology := testArticle("Biology", "The study of living organisms.")

	writer := NewWriter(store)
	require.NoError(t, writer.WriteBatch(ctx, []*core.Article{astronomy, biology}))

	results, err := NewReader(store).SearchArticles(ctx, "celestial", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Astronomy", results[0].Title)
	assert.Contains(t, results[0].Categories, "Science")

	none, err := NewReader(store).SearchArticles(ctx, "nonexistentterm", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListCategories(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	article := testArticle("Page", "text")
	article.AddCategory("Zoology")
	article.AddCategory("Astronomy")

	require.NoError(t, NewWriter(store).WriteBatch(ctx, []*core.Article{article}))

	names, err := NewReader(store).ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Astronomy", "Zoology"}, names)
}
