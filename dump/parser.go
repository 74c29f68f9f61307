package dump

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/wikidex/core"
	"github.com/poiesic/wikidex/wikitext"
)

// progressLogInterval controls how often the parser logs throughput.
const progressLogInterval = 1000

// Handler receives one completed article at a time. Returning a non-nil
// error aborts the parse and propagates the error to the caller unchanged.
type Handler func(article *core.Article) error

// documentElements are the element names recognized as one article each.
var documentElements = map[string]bool{
	"page": true,
	"doc":  true,
}

// Parser reads a wiki dump from a byte stream and emits articles.
// A Parser is single-threaded and consumes its reader exactly once.
type Parser struct {
	decoder *xml.Decoder
	logger  *slog.Logger
	info    core.DumpInfo
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewParser creates a parser over the given stream.
func NewParser(r io.Reader, opts ...Option) *Parser {
	p := &Parser{
		decoder: xml.NewDecoder(r),
		logger:  slog.Default().With("component", "dump-parser"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Info returns dump metadata collected while parsing: the siteinfo preamble
// fields, the root element's timestamp attribute and the article count so
// far. Fields the dump does not carry stay zero.
func (p *Parser) Info() core.DumpInfo {
	return p.info
}

// ParseArticles drains the stream, invoking handler for every completed
// document, and returns the number of articles emitted.
//
// A structurally invalid stream aborts the whole parse with ErrMalformedDump;
// end of input while a document is open aborts with ErrTruncatedDump. In both
// cases no article is emitted for the offending document. Field-level
// validity is not checked here; callers validate each record and decide
// whether to skip or abort.
func (p *Parser) ParseArticles(ctx context.Context, handler Handler) (int, error) {
	var (
		count      int
		rootSeen   bool
		inDoc      bool
		inTitle    bool
		inText     bool
		inSiteinfo bool
		siteField  string
		article    *core.Article
		title      strings.Builder
		body       strings.Builder
	)

	for {
		token, err := p.decoder.Token()
		if err == io.EOF {
			if inDoc {
				return count, fmt.Errorf("%w: %q has no closing element", ErrTruncatedDump, article.Title)
			}
			break
		}
		if err != nil {
			if inDoc {
				return count, fmt.Errorf("%w: %v", ErrTruncatedDump, err)
			}
			return count, fmt.Errorf("%w: %v", ErrMalformedDump, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			name := t.Name.Local
			switch {
			case !rootSeen:
				rootSeen = true
				for _, attr := range t.Attr {
					if attr.Name.Local == "timestamp" {
						if ts, err := time.Parse(time.RFC3339, attr.Value); err == nil {
							p.info.DumpDate = ts
						}
					}
				}
			case documentElements[name]:
				if err := ctx.Err(); err != nil {
					return count, err
				}
				inDoc = true
				article = core.NewArticle("")
				title.Reset()
				body.Reset()
			case name == "title" && inDoc:
				inTitle = true
			case name == "text" && inDoc:
				inText = true
			case name == "redirect" && inDoc:
				// Self-closing marker; the target rides in an attribute and
				// is set independently of any #REDIRECT directive in the body.
				for _, attr := range t.Attr {
					if attr.Name.Local == "title" {
						article.RedirectTo = attr.Value
					}
				}
			case name == "siteinfo":
				inSiteinfo = true
			case inSiteinfo:
				siteField = name
			}

		case xml.EndElement:
			name := t.Name.Local
			switch {
			case documentElements[name] && inDoc:
				p.finish(article, body.String())
				if err := handler(article); err != nil {
					return count, err
				}
				count++
				if count%progressLogInterval == 0 {
					p.logger.Info("processed articles", "count", count)
				}
				inDoc = false
				article = nil
			case name == "title" && inDoc:
				article.Title = strings.TrimSpace(title.String())
				inTitle = false
			case name == "text" && inDoc:
				inText = false
			case name == "siteinfo":
				inSiteinfo = false
				siteField = ""
			case inSiteinfo && name == siteField:
				siteField = ""
			}

		case xml.CharData:
			switch {
			case inTitle:
				title.Write(t)
			case inText:
				body.Write(t)
			case inSiteinfo:
				switch siteField {
				case "generator":
					p.info.Generator = string(t)
				case "lang":
					p.info.Lang = string(t)
				}
			}
		}
	}

	p.info.ArticleCount = count
	p.logger.Info("finished parsing dump", "articles", count)
	return count, nil
}

// finish derives the article's final fields from its raw body text.
// Redirects stop before relation extraction, so they never carry categories
// or images.
func (p *Parser) finish(article *core.Article, rawBody string) {
	if article.RedirectTo == "" {
		article.RedirectTo = wikitext.ExtractRedirectTarget(rawBody)
	}

	if !article.IsRedirect() {
		for _, category := range wikitext.ExtractCategories(rawBody) {
			article.AddCategory(category)
		}
		for _, img := range wikitext.ExtractImages(rawBody) {
			article.AddImage(img)
		}
	}

	article.Content = wikitext.Clean(rawBody)
	article.UpdateSize()
}
