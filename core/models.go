package core

import (
	"encoding/hex"
	"mime"
	"path/filepath"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// HashContent generates a deterministic hex digest from raw bytes using BLAKE2b.
// Identical content always produces identical digests, so the digest can serve
// as a deduplication key.
func HashContent(data []byte) string {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Article is one parsed document from a wiki dump.
// It is produced once by the dump parser and immutable afterwards.
type Article struct {
	Title        string
	Content      string // cleaned body text, wikitext markup removed
	Size         int    // size of the cleaned content in bytes
	LastModified time.Time
	RedirectTo   string              // target title; empty when the article is not a redirect
	Categories   map[string]struct{} // set of category names, order-irrelevant
	Images       []Image             // ordered list of image references
}

// NewArticle creates an article with the given title and an empty relation set.
func NewArticle(title string) *Article {
	return &Article{
		Title:        title,
		LastModified: time.Now().UTC(),
		Categories:   make(map[string]struct{}),
	}
}

// IsRedirect reports whether the article aliases another title.
func (a *Article) IsRedirect() bool {
	return a.RedirectTo != ""
}

// AddCategory adds a category name to the article's category set.
func (a *Article) AddCategory(name string) {
	if a.Categories == nil {
		a.Categories = make(map[string]struct{})
	}
	a.Categories[name] = struct{}{}
}

// AddImage appends an image reference to the article.
func (a *Article) AddImage(img Image) {
	a.Images = append(a.Images, img)
}

// UpdateSize recomputes Size from the current content.
func (a *Article) UpdateSize() {
	a.Size = len(a.Content)
}

// Image is a reference to an image found in an article body.
type Image struct {
	Filename string
	Path     string
	Size     int64
	MIMEType string
	Hash     string // content digest, the deduplication key across articles
	Caption  string
}

// NewImage creates an image reference for a dump filename.
// The path and MIME type are derived from the filename. The hash is a digest
// of the filename standing in for the content digest until the image bytes
// are actually fetched by an image pipeline.
func NewImage(filename string) Image {
	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		mimeType = "image/unknown"
	}
	return Image{
		Filename: filename,
		Path:     "/images/" + filename,
		MIMEType: mimeType,
		Hash:     HashContent([]byte(filename)),
	}
}

// WithCaption returns a copy of the image with the caption set.
func (i Image) WithCaption(caption string) Image {
	i.Caption = caption
	return i
}

// DumpInfo describes the dump file itself, read from its siteinfo preamble.
type DumpInfo struct {
	Generator    string
	Lang         string
	DumpDate     time.Time
	ArticleCount int
}
