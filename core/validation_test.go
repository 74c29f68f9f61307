package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateArticle(t *testing.T) {
	article := NewArticle("Paris")
	article.Content = "Paris is the capital of France."
	article.UpdateSize()

	require.NoError(t, ValidateArticle(article))
}

func TestValidateArticleNil(t *testing.T) {
	err := ValidateArticle(nil)
	assert.ErrorIs(t, err, ErrInvalidArticle)
}

func TestValidateArticleEmptyTitle(t *testing.T) {
	article := NewArticle("")
	err := ValidateArticle(article)
	assert.ErrorIs(t, err, ErrInvalidArticle)
	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestValidateArticleTitleTooLong(t *testing.T) {
	article := NewArticle(strings.Repeat("x", MaxTitleLength+1))
	err := ValidateArticle(article)
	assert.ErrorIs(t, err, ErrTitleTooLong)
}

func TestValidateArticleRedirectWithRelations(t *testing.T) {
	article := NewArticle("The City of Light")
	article.RedirectTo = "Paris"
	article.AddCategory("Cities")

	err := ValidateArticle(article)
	assert.ErrorIs(t, err, ErrRedirectWithRelations)

	// A clean redirect is valid.
	clean := NewArticle("The City of Light")
	clean.RedirectTo = "Paris"
	assert.NoError(t, ValidateArticle(clean))
}
