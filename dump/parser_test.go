package dump

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/wikidex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseAll(t *testing.T, input string) []*core.Article {
	t.Helper()
	var articles []*core.Article
	parser := NewParser(strings.NewReader(input))
	count, err := parser.ParseArticles(context.Background(), func(a *core.Article) error {
		articles = append(articles, a)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, len(articles), count)
	return articles
}

func TestParseSimpleArticle(t *testing.T) {
	input := `
	<mediawiki timestamp="2024-03-11T00:00:00Z">
		<siteinfo>
			<sitename>Wikipedia</sitename>
			<generator>MediaWiki 1.41.0</generator>
			<lang>en</lang>
		</siteinfo>
		<page>
			<title>Test Article</title>
			<text>This is a test article content.
			[[Category:Test Category]]
			[[File:Test.jpg|thumb|Test image]]</text>
		</page>
	</mediawiki>`

	parser := NewParser(strings.NewReader(input))
	var articles []*core.Article
	count, err := parser.ParseArticles(context.Background(), func(a *core.Article) error {
		articles = append(articles, a)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, count)

	article := articles[0]
	assert.Equal(t, "Test Article", article.Title)
	assert.Contains(t, article.Content, "This is a test article content.")
	assert.Contains(t, article.Categories, "Test Category")
	require.Len(t, article.Images, 1)
	assert.Equal(t, "Test.jpg", article.Images[0].Filename)
	assert.Equal(t, "Test image", article.Images[0].Caption)
	assert.Equal(t, len(article.Content), article.Size)

	info := parser.Info()
	assert.Equal(t, "MediaWiki 1.41.0", info.Generator)
	assert.Equal(t, "en", info.Lang)
	assert.Equal(t, 2024, info.DumpDate.Year())
	assert.Equal(t, 1, info.ArticleCount)
}

func TestParseGenericDocumentElements(t *testing.T) {
	articles := parseAll(t, `<root><doc><title>A</title><text>[[Category:X]] hello</text></doc></root>`)
	require.Len(t, articles, 1)

	article := articles[0]
	assert.Equal(t, "A", article.Title)
	assert.Contains(t, article.Content, "hello")
	assert.Contains(t, article.Categories, "X")
}

func TestParseRedirectMarker(t *testing.T) {
	articles := parseAll(t, `
	<mediawiki>
		<page>
			<title>Redirect Test</title>
			<redirect title="Target Article"/>
			<text>#REDIRECT [[Target Article]] [[Category:Never]]</text>
		</page>
	</mediawiki>`)
	require.Len(t, articles, 1)

	article := articles[0]
	assert.True(t, article.IsRedirect())
	assert.Equal(t, "Target Article", article.RedirectTo)
	// Redirects stop before relation extraction.
	assert.Empty(t, article.Categories)
	assert.Empty(t, article.Images)
}

func TestParseRedirectFromBody(t *testing.T) {
	articles := parseAll(t, `
	<mediawiki>
		<page>
			<title>Old Name</title>
			<text>#REDIRECT [[New Name]]</text>
		</page>
	</mediawiki>`)
	require.Len(t, articles, 1)
	assert.Equal(t, "New Name", articles[0].RedirectTo)
}

func TestParseMultipleArticles(t *testing.T) {
	articles := parseAll(t, `
	<mediawiki>
		<page><title>First</title><text>one</text></page>
		<page><title>Second</title><text>two</text></page>
		<page><title>Third</title><text>three</text></page>
	</mediawiki>`)
	require.Len(t, articles, 3)
	assert.Equal(t, "Second", articles[1].Title)
}

func TestParseTruncatedDump(t *testing.T) {
	input := `<root><doc><title>A</title><text>dangling`
	parser := NewParser(strings.NewReader(input))

	invoked := false
	count, err := parser.ParseArticles(context.Background(), func(a *core.Article) error {
		invoked = true
		return nil
	})
	assert.ErrorIs(t, err, ErrTruncatedDump)
	assert.Zero(t, count)
	assert.False(t, invoked, "handler must never see a partial document")
}

func TestParseTruncatedAfterCompleteDocument(t *testing.T) {
	input := `<root><doc><title>A</title><text>done</text></doc><doc><title>B</title>`
	parser := NewParser(strings.NewReader(input))

	var seen []string
	count, err := parser.ParseArticles(context.Background(), func(a *core.Article) error {
		seen = append(seen, a.Title)
		return nil
	})
	assert.ErrorIs(t, err, ErrTruncatedDump)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"A"}, seen)
}

func TestParseMalformedDump(t *testing.T) {
	parser := NewParser(strings.NewReader(`<root></wrong>`))
	_, err := parser.ParseArticles(context.Background(), func(a *core.Article) error { return nil })
	assert.ErrorIs(t, err, ErrMalformedDump)
}

func TestParseHandlerErrorPropagates(t *testing.T) {
	boom := errors.New("writer exploded")
	parser := NewParser(strings.NewReader(`<root><doc><title>A</title><text>x</text></doc></root>`))
	_, err := parser.ParseArticles(context.Background(), func(a *core.Article) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestParseContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	parser := NewParser(strings.NewReader(`<root><doc><title>A</title><text>x</text></doc></root>`))
	_, err := parser.ParseArticles(ctx, func(a *core.Article) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
