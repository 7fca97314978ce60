package feed

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Class markers identifying the homepage sections. The source template is
// semi-stable; matching is substring-based so cosmetic class additions
// (e.g. "recent-updates large") keep working.
const (
	markerRecent        = "recent-updates"
	markerTile          = "tile"
	markerBottomContent = "bottom-content"
	markerNews          = "wikinews"
	markerOnThisDay     = "onthisday"
	markerPopular       = "popular"
)

// maxRecentTiles bounds the recent-updates section to its first tiles.
const maxRecentTiles = 5

// defaultOnThisDayTitle is used when the section carries no heading.
const defaultOnThisDayTitle = "On this day..."

// --- section extractors ---

// extractRecentUpdates pulls up to maxRecentTiles tile blocks out of the
// recent-updates container. Per tile: the title is the first heading inside
// the bottom-content anchor, the snippet is the LAST paragraph's text (the
// final paragraph in each tile holds the summary), and URLs are resolved to
// absolute. Tiles with an empty or placeholder title are discarded.
func extractRecentUpdates(doc *html.Node, base *url.URL) []UpdateItem {
	container := findByClass(doc, markerRecent)
	if container == nil {
		return nil
	}

	var items []UpdateItem
	for _, tile := range findAllByClass(container, markerTile) {
		if len(items) >= maxRecentTiles {
			break
		}

		title, href := tileTitleAndHref(tile)
		if href == "" || isPlaceholderTitle(title) {
			continue
		}

		snippet := ""
		if paragraphs := findAllTag(tile, atom.P); len(paragraphs) > 0 {
			snippet = collectText(paragraphs[len(paragraphs)-1])
		}

		imageURL := ""
		if img := findFirstTag(tile, atom.Img); img != nil {
			imageURL = resolveRef(base, attrVal(img, "src"))
		}

		items = append(items, UpdateItem{
			Title:      title,
			Snippet:    snippet,
			ImageURL:   imageURL,
			ArticleURL: resolveRef(base, href),
		})
	}
	return items
}

// tileTitleAndHref reads the tile's bottom-content anchor. The source
// template nests a heading inside the anchor; the HTML5 parser may instead
// hoist the heading and reconstruct the anchor inside it, so both shapes
// are accepted. The href comes from the first marker anchor that carries one.
func tileTitleAndHref(tile *html.Node) (title, href string) {
	for _, a := range findAllAnchorsByClass(tile, markerBottomContent) {
		if href == "" {
			href = strings.TrimSpace(attrVal(a, "href"))
		}
		if title == "" {
			if h := findFirstHeading(a); h != nil {
				title = collectText(h)
			} else if insideHeading(a) {
				title = collectText(a)
			}
		}
		if title != "" && href != "" {
			break
		}
	}
	return title, href
}

// insideHeading reports whether n has an h1..h6 ancestor.
func insideHeading(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		switch p.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			return true
		}
	}
	return false
}

// rawAnnouncement is a dt/dd pair before sanitization.
type rawAnnouncement struct {
	date string
	html string
}

// extractAnnouncements pairs dt/dd sequences in the wikinews container, in
// document order. The dd content is kept as an HTML fragment: announcements
// carry inline markup and links for rich-text rendering.
func extractAnnouncements(doc *html.Node) []rawAnnouncement {
	container := findByClass(doc, markerNews)
	if container == nil {
		return nil
	}

	var out []rawAnnouncement
	pendingDate := ""
	haveDate := false
	walk(container, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.DataAtom {
		case atom.Dt:
			pendingDate = collectText(n)
			haveDate = true
			return false
		case atom.Dd:
			if haveDate {
				out = append(out, rawAnnouncement{date: pendingDate, html: innerHTML(n)})
				haveDate = false
			}
			return false
		}
		return true
	})
	return out
}

// extractOnThisDay reads the onthisday container: heading (with a default
// when absent) plus one HTML fragment per list entry. A section without any
// list entries is treated as absent and yields empty results.
func extractOnThisDay(doc *html.Node) (title string, events []string) {
	container := findByClass(doc, markerOnThisDay)
	if container == nil {
		return "", nil
	}

	items := findAllTag(container, atom.Li)
	if len(items) == 0 {
		return "", nil
	}

	title = defaultOnThisDayTitle
	if h := findFirstHeading(container); h != nil {
		if t := collectText(h); t != "" {
			title = t
		}
	}
	for _, li := range items {
		events = append(events, innerHTML(li))
	}
	return title, events
}

// extractPopularPages collects every anchor in the popular container as a
// (title, absolute URL) pair, titles stripped of markup.
func extractPopularPages(doc *html.Node, base *url.URL) []PopularPage {
	container := findByClass(doc, markerPopular)
	if container == nil {
		return nil
	}

	var pages []PopularPage
	for _, a := range findAllTag(container, atom.A) {
		title := collectText(a)
		href := resolveRef(base, attrVal(a, "href"))
		if title == "" || href == "" {
			continue
		}
		pages = append(pages, PopularPage{Title: title, PageURL: href})
	}
	return pages
}

func isPlaceholderTitle(title string) bool {
	switch strings.Trim(title, ". ") {
	case "", "untitled", "Untitled":
		return true
	}
	return false
}

// --- DOM helpers ---

// walk visits n and its subtree depth-first in document order. The callback
// returns false to skip a node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// hasClassMarker reports whether the node's class attribute contains marker
// as a substring.
func hasClassMarker(n *html.Node, marker string) bool {
	return n.Type == html.ElementNode && strings.Contains(attrVal(n, "class"), marker)
}

// findByClass returns the first element in document order whose class
// attribute contains marker.
func findByClass(root *html.Node, marker string) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if hasClassMarker(n, marker) {
			found = n
			return false
		}
		return true
	})
	return found
}

// findAllByClass returns all elements whose class attribute contains marker,
// skipping nested matches inside an already matched element.
func findAllByClass(root *html.Node, marker string) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) bool {
		if n != root && hasClassMarker(n, marker) {
			out = append(out, n)
			return false
		}
		return true
	})
	return out
}

// findAllAnchorsByClass returns all <a> elements whose class contains marker.
func findAllAnchorsByClass(root *html.Node, marker string) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) bool {
		if n.DataAtom == atom.A && hasClassMarker(n, marker) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// findFirstTag returns the first element with the given atom, or nil.
func findFirstTag(root *html.Node, a atom.Atom) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && n.DataAtom == a {
			found = n
			return false
		}
		return true
	})
	return found
}

// findAllTag returns all elements with the given atom, in document order.
func findAllTag(root *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == a {
			out = append(out, n)
		}
		return true
	})
	return out
}

// findFirstHeading returns the first h1..h6 element, or nil.
func findFirstHeading(root *html.Node) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type != html.ElementNode {
			return true
		}
		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			found = n
			return false
		}
		return true
	})
	return found
}

// collectText concatenates the text nodes under n with normalized whitespace.
func collectText(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
			sb.WriteByte(' ')
		}
		return true
	})
	return strings.Join(strings.Fields(sb.String()), " ")
}

// innerHTML renders the children of n as an HTML fragment.
func innerHTML(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		html.Render(&sb, c)
	}
	return strings.TrimSpace(sb.String())
}

// attrVal returns the value of the named attribute, or "".
func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// resolveRef resolves href against base, returning "" for unparsable input.
func resolveRef(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
