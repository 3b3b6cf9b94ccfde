package feedparser

import (
	"encoding/json"
	"strings"
)

const (
	jsonFeedVersion1  = "https://jsonfeed.org/version/1"
	jsonFeedVersion11 = "https://jsonfeed.org/version/1.1"
)

type jsonFeedAuthor struct {
	Name string `json:"name"`
}

type jsonFeedItem struct {
	ID            string           `json:"id"`
	URL           string           `json:"url"`
	Title         string           `json:"title"`
	ContentHTML   string           `json:"content_html"`
	ContentText   string           `json:"content_text"`
	Image         string           `json:"image"`
	DatePublished string           `json:"date_published"`
	DateModified  string           `json:"date_modified"`
	Author        *jsonFeedAuthor  `json:"author"`
	Authors       []jsonFeedAuthor `json:"authors"`
	Tags          []string         `json:"tags"`
}

type jsonFeedDocument struct {
	Version     string           `json:"version"`
	Title       string           `json:"title"`
	HomePageURL string           `json:"home_page_url"`
	FeedURL     string           `json:"feed_url"`
	Description string           `json:"description"`
	Language    string           `json:"language"`
	Icon        string           `json:"icon"`
	Favicon     string           `json:"favicon"`
	Authors     []jsonFeedAuthor `json:"authors"`
	Items       []jsonFeedItem   `json:"items"`
}

type jsonFeedParser struct {
	doc jsonFeedDocument
}

func parseJSON(body []byte) (Parser, error) {
	var doc jsonFeedDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	if doc.Version != jsonFeedVersion1 && doc.Version != jsonFeedVersion11 {
		return nil, ErrUnknownFeedType
	}
	return &jsonFeedParser{doc: doc}, nil
}

func (p *jsonFeedParser) Type() Type          { return TypeJSON }
func (p *jsonFeedParser) GUID() string        { return p.doc.FeedURL }
func (p *jsonFeedParser) Title() string       { return p.doc.Title }
func (p *jsonFeedParser) Subtitle() string    { return "" }
func (p *jsonFeedParser) Link() string        { return p.doc.HomePageURL }
func (p *jsonFeedParser) Description() string { return p.doc.Description }
func (p *jsonFeedParser) Language() string    { return p.doc.Language }
func (p *jsonFeedParser) Copyright() string   { return "" }
func (p *jsonFeedParser) IconURL() string {
	if p.doc.Icon != "" {
		return p.doc.Icon
	}
	return p.doc.Favicon
}

func (p *jsonFeedParser) Items() []Item {
	items := make([]Item, 0, len(p.doc.Items))
	for _, it := range p.doc.Items {
		if it.ID == "" {
			// spec: "id (required, else skip)"
			continue
		}
		content := it.ContentHTML
		if content == "" && it.ContentText != "" {
			// Some producers smuggle HTML into content_text against spec;
			// escape and wrap so it renders as literal text (spec §4.2,
			// scenario 5 in spec §8).
			escaped := strings.NewReplacer("<", "&lt;", ">", "&gt;").Replace(it.ContentText)
			escaped = strings.ReplaceAll(escaped, "\n", "<br />")
			content = `<pre style="white-space:pre-wrap;">` + escaped + `</pre>`
		}

		author := ""
		if len(it.Authors) > 0 {
			author = it.Authors[0].Name
		} else if it.Author != nil {
			author = it.Author.Name
		} else if len(p.doc.Authors) > 0 {
			author = p.doc.Authors[0].Name
		}

		dateStr := it.DateModified
		if dateStr == "" {
			dateStr = it.DatePublished
		}

		items = append(items, Item{
			Title:         it.Title,
			Link:          it.URL,
			Content:       content,
			Author:        author,
			GUID:          it.ID,
			DatePublished: normalizeUTC(parseISO8601(dateStr)),
			Thumbnail:     it.Image,
			Categories:    it.Tags,
		})
	}
	return items
}
