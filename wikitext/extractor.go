package wikitext

import (
	"regexp"
	"strings"

	"github.com/poiesic/wikidex/core"
)

var (
	redirectRE     = regexp.MustCompile(`#REDIRECT\s*\[\[([^\]]+)\]\]`)
	categoryRE     = regexp.MustCompile(`\[\[Category:([^\]]+)\]\]`)
	imageRE        = regexp.MustCompile(`\[\[(?:File|Image):([^\]|]+)(?:\|([^\]]+))?\]\]`)
	internalLinkRE = regexp.MustCompile(`\[\[([^\]|]+)(?:\|([^\]]+))?\]\]`)
	externalLinkRE = regexp.MustCompile(`\[([^\s\]]+)(?:\s+([^\]]+))?\]`)
	htmlTagRE      = regexp.MustCompile(`<[^>]+>`)
	templateRE     = regexp.MustCompile(`\{\{[^}]+\}\}`)
	blankLinesRE   = regexp.MustCompile(`\n{3,}`)
)

// Clean strips wiki markup from text: templates, link markup, HTML tags and
// run-on blank lines. The result is trimmed.
func Clean(text string) string {
	cleaned := StripTemplates(text)
	cleaned = ResolveLinks(cleaned)
	cleaned = StripTags(cleaned)
	cleaned = CollapseBlankLines(cleaned)
	return strings.TrimSpace(cleaned)
}

// StripTemplates removes {{...}} template invocations in a single
// non-recursive pass. Nested templates are not balanced: the pass removes up
// to the first closing braces, leaving the outer remainder behind.
func StripTemplates(text string) string {
	return templateRE.ReplaceAllString(text, "")
}

// ResolveLinks replaces internal [[target|display]] and external
// [url display] link markup with the display text, falling back to the
// target or URL when no display text is given.
func ResolveLinks(text string) string {
	resolved := internalLinkRE.ReplaceAllStringFunc(text, func(match string) string {
		caps := internalLinkRE.FindStringSubmatch(match)
		if caps[2] != "" {
			return caps[2]
		}
		return caps[1]
	})
	return externalLinkRE.ReplaceAllStringFunc(resolved, func(match string) string {
		caps := externalLinkRE.FindStringSubmatch(match)
		if caps[2] != "" {
			return caps[2]
		}
		return caps[1]
	})
}

// StripTags removes angle-bracket tags but keeps their inner text, so
// tag-wrapped content like references leaks through into the cleaned body.
func StripTags(text string) string {
	return htmlTagRE.ReplaceAllString(text, "")
}

// CollapseBlankLines normalizes three or more consecutive newlines down to a
// single blank line.
func CollapseBlankLines(text string) string {
	return blankLinesRE.ReplaceAllString(text, "\n\n")
}

// ExtractRedirectTarget returns the target of a #REDIRECT [[...]] directive,
// or the empty string when the text is not a redirect.
func ExtractRedirectTarget(text string) string {
	caps := redirectRE.FindStringSubmatch(text)
	if caps == nil {
		return ""
	}
	return strings.TrimSpace(caps[1])
}

// ExtractCategories returns the category names referenced by [[Category:...]]
// markup, trimmed, in order of appearance. Duplicates are preserved; callers
// holding a set collapse them.
func ExtractCategories(text string) []string {
	var categories []string
	for _, caps := range categoryRE.FindAllStringSubmatch(text, -1) {
		categories = append(categories, strings.TrimSpace(caps[1]))
	}
	return categories
}

// ExtractImages returns image references from [[File:...]] and [[Image:...]]
// markup, in order of appearance. The caption is the last pipe-separated
// segment after the filename; rendering options like "thumb" are discarded.
func ExtractImages(text string) []core.Image {
	var images []core.Image
	for _, caps := range imageRE.FindAllStringSubmatch(text, -1) {
		img := core.NewImage(strings.TrimSpace(caps[1]))
		if caps[2] != "" {
			segments := strings.Split(caps[2], "|")
			caption := strings.TrimSpace(segments[len(segments)-1])
			img = img.WithCaption(caption)
		}
		images = append(images, img)
	}
	return images
}
