package feed

// UpdateItem is one tile from the homepage's recent-updates section.
// ArticleURL and ImageURL are always absolute: root-relative paths are
// resolved against the wiki's base origin at construction time.
type UpdateItem struct {
	Title      string `json:"title"`
	Snippet    string `json:"snippet"`
	ImageURL   string `json:"image_url"`
	ArticleURL string `json:"article_url"`
}

// AnnouncementItem is one dated news entry. HTML is a sanitized fragment
// preserving inline markup and links for rich-text rendering; Markdown is
// the same content rendered for consumers without an HTML renderer.
type AnnouncementItem struct {
	Date     string `json:"date"`
	HTML     string `json:"html"`
	Markdown string `json:"markdown"`
}

// OnThisDay is the homepage's anniversary section. Events are sanitized
// HTML fragments, one per list entry.
type OnThisDay struct {
	Title  string   `json:"title"`
	Events []string `json:"events"`
}

// PopularPage is one entry from the popular-pages section.
type PopularPage struct {
	Title   string `json:"title"`
	PageURL string `json:"page_url"`
}

// Feed is the structured wiki homepage. Each section is independently
// optional: a missing or malformed section yields an empty list (or nil for
// OnThisDay), never an error. A fetch fully replaces any previous feed.
type Feed struct {
	RecentUpdates []UpdateItem       `json:"recent_updates"`
	Announcements []AnnouncementItem `json:"announcements"`
	OnThisDay     *OnThisDay         `json:"on_this_day"`
	PopularPages  []PopularPage      `json:"popular_pages"`
}
