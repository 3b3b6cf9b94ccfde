// Package opml implements the C11 "OPML import" operation of spec §4.11:
// parse an OPML document and return the flat list of feed subscriptions it
// names, regardless of nesting depth.
//
// Grounded on internal/feedparser's direct encoding/xml usage (no outside
// OPML library appears anywhere in the retrieved corpus, so this follows
// the teacher's own preference for hand-rolled encoding/xml structs).
package opml

import (
	"encoding/xml"
	"fmt"
)

// Subscription is one <outline> leaf naming an RSS/Atom feed.
type Subscription struct {
	Title   string
	XMLURL  string
	HTMLURL string
}

type opmlDoc struct {
	XMLName xml.Name    `xml:"opml"`
	Body    opmlBody    `xml:"body"`
}

type opmlBody struct {
	Outlines []opmlOutline `xml:"outline"`
}

type opmlOutline struct {
	Title    string        `xml:"title,attr"`
	Text     string        `xml:"text,attr"`
	XMLURL   string        `xml:"xmlUrl,attr"`
	HTMLURL  string        `xml:"htmlUrl,attr"`
	Outlines []opmlOutline `xml:"outline"`
}

// Parse decodes raw as OPML and returns every feed-bearing outline,
// descending into folder outlines (those without an xmlUrl) recursively.
func Parse(raw []byte) ([]Subscription, error) {
	var doc opmlDoc
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("opml: %w", err)
	}
	var out []Subscription
	collect(doc.Body.Outlines, &out)
	return out, nil
}

func collect(outlines []opmlOutline, out *[]Subscription) {
	for _, o := range outlines {
		if o.XMLURL != "" {
			title := o.Title
			if title == "" {
				title = o.Text
			}
			*out = append(*out, Subscription{Title: title, XMLURL: o.XMLURL, HTMLURL: o.HTMLURL})
			continue
		}
		collect(o.Outlines, out)
	}
}
