package server

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/gofrs/uuid"

	"github.com/zapfr/engine/internal/entity"
	"github.com/zapfr/engine/internal/opml"
)

type opmlImportRequestBody struct {
	SourceID string `json:"sourceId"`
	OPML     string `json:"opml"`
}

type opmlImportResponseBody struct {
	FeedsCreated int `json:"feedsCreated"`
}

// importOPML parses the submitted OPML document and subscribes every feed it
// names under the given source (spec §4.11 "OPML import").
func (h *Handler) importOPML(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "import-opml")
	defer span.Finish()
	var body opmlImportRequestBody
	if !decodeBody(w, r, &body) {
		return
	}
	sourceID, err := uuid.FromString(body.SourceID)
	if err != nil {
		ErrInvalidRequest(err).Render(w, r)
		return
	}
	subs, err := opml.Parse([]byte(body.OPML))
	if err != nil {
		ErrInvalidRequest(err).Render(w, r)
		return
	}

	created := 0
	for _, sub := range subs {
		feed := &entity.Feed{SourceID: sourceID, URL: sub.XMLURL, Title: sub.Title, Link: sub.HTMLURL}
		if err := h.backends.Feeds.Subscribe(ctx, feed); err != nil {
			renderErr(w, r, err)
			return
		}
		created++
	}
	render.JSON(w, r, opmlImportResponseBody{FeedsCreated: created})
}

// Canned documents for the /debug/feeds endpoints: one known-good document
// per wire format, served with its native mime so clients can exercise each
// parser end to end.
var dummyFeeds = map[string]struct {
	mime string
	body string
}{
	"rss20": {
		mime: "application/rss+xml",
		body: `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel>
    <title>Dummy RSS 2.0</title>
    <link>https://example.com</link>
    <description>A dummy RSS 2.0 feed</description>
    <language>en</language>
    <item>
      <title>First post</title>
      <link>https://example.com/1</link>
      <guid>https://example.com/1</guid>
      <description>Hello from RSS 2.0</description>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
      <category>dummy</category>
    </item>
  </channel>
</rss>`,
	},
	"atom10": {
		mime: "application/atom+xml",
		body: `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Dummy Atom 1.0</title>
  <subtitle>A dummy Atom feed</subtitle>
  <link rel="alternate" href="https://example.com"/>
  <entry>
    <title>First entry</title>
    <link rel="alternate" href="https://example.com/1"/>
    <id>tag:example.com,2006:1</id>
    <updated>2006-01-02T15:04:05Z</updated>
    <summary>Hello from Atom</summary>
    <author><name>dummy</name></author>
  </entry>
</feed>`,
	},
	"json11": {
		mime: "application/feed+json",
		body: `{
  "version": "https://jsonfeed.org/version/1.1",
  "title": "Dummy JSON Feed 1.1",
  "home_page_url": "https://example.com",
  "feed_url": "https://example.com/feed.json",
  "items": [
    {
      "id": "1",
      "url": "https://example.com/1",
      "title": "First item",
      "content_html": "<p>Hello from JSON Feed</p>",
      "date_published": "2006-01-02T15:04:05Z"
    }
  ]
}`,
	},
}

// dummyFeed serves one canned wire document per format, with the format's
// native mime type rather than application/json.
func (h *Handler) dummyFeed(w http.ResponseWriter, r *http.Request) {
	span, _ := h.setupTracingSpan(r, "dummy-feed")
	defer span.Finish()
	doc, ok := dummyFeeds[chi.URLParam(r, "format")]
	if !ok {
		ErrNotFound.Render(w, r)
		return
	}
	w.Header().Set("Content-Type", doc.mime)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc.body)) //nolint:errcheck
}
