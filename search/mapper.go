package search

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// namespaceNames is the canonical MediaWiki namespace table.
var namespaceNames = map[int]string{
	0:  "Main",
	1:  "Talk",
	2:  "User",
	3:  "User talk",
	4:  "Wiki",
	5:  "Wiki talk",
	6:  "File",
	7:  "File talk",
	8:  "MediaWiki",
	9:  "MediaWiki talk",
	10: "Template",
	11: "Template talk",
	12: "Help",
	13: "Help talk",
	14: "Category",
	15: "Category talk",
}

// NamespaceName resolves a namespace ID to its display name, falling back to
// "Namespace {id}" for IDs outside the canonical table.
func NamespaceName(id int) string {
	if name, ok := namespaceNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Namespace %d", id)
}

// StripHTML removes tags and decodes the fixed entity set search snippets
// carry. &amp; is decoded last among the ampersand-involving entities so
// that "&amp;quot;" yields the literal text "&quot;" rather than `"`.
func StripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&amp;", "&")
	return s
}

// articleURL builds the canonical article URL: the article-path prefix plus
// the title with spaces replaced by underscores.
func articleURL(articleBase, title string) string {
	return articleBase + strings.ReplaceAll(title, " ", "_")
}

// mapHit converts one raw API hit into a Result. Pure: it touches no state
// beyond its arguments. index is the position within the current page;
// offset is the page's start within the full ordering.
func mapHit(hit rawHit, index, offset int, articleBase string) Result {
	r := Result{
		ID:            strconv.FormatInt(hit.PageID, 10),
		Title:         hit.Title,
		URL:           articleURL(articleBase, hit.Title),
		NamespaceID:   hit.NS,
		NamespaceName: NamespaceName(hit.NS),
		Rank:          offset + index + 1,
		Size:          hit.Size,
		WordCount:     hit.WordCount,
	}
	if hit.Snippet != "" {
		desc := StripHTML(hit.Snippet)
		r.Description = &desc
	}
	if hit.Timestamp != "" {
		ts := hit.Timestamp
		r.LastModified = &ts
	}
	return r
}
