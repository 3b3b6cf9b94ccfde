package feedparser

import (
	"encoding/xml"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"
)

type atomDocument struct {
	XMLName  xml.Name    `xml:"feed"`
	Title    string      `xml:"title"`
	Subtitle string      `xml:"subtitle"`
	Rights   string      `xml:"rights"`
	Links    []atomLink  `xml:"link"`
	Entries  []atomEntry `xml:"entry"`
}

type atomLink struct {
	Rel    string `xml:"rel,attr"`
	Href   string `xml:"href,attr"`
	Type   string `xml:"type,attr"`
	Length string `xml:"length,attr"`
}

type atomEntry struct {
	Title      string         `xml:"title"`
	Links      []atomLink     `xml:"link"`
	Summary    string         `xml:"summary"`
	Content    *atomContent   `xml:"content"`
	Author     atomAuthor     `xml:"author"`
	ID         string         `xml:"id"`
	Updated    string         `xml:"updated"`
	Categories []atomCategory `xml:"category"`
	Enclosures []atomEnclosure `xml:"enclosure"`
	MediaGroup *mediaGroup    `xml:"http://search.yahoo.com/mrss/ group"`
}

type atomContent struct {
	Src     string `xml:"src,attr"`
	Type    string `xml:"type,attr"`
	Content string `xml:",innerxml"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

type atomEnclosure struct {
	URL    string `xml:"url,attr"`
	Href   string `xml:"href,attr"`
	Length string `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

type mediaGroup struct {
	Thumbnail   mediaThumbnail `xml:"http://search.yahoo.com/mrss/ thumbnail"`
	Description string         `xml:"http://search.yahoo.com/mrss/ description"`
}

type mediaThumbnail struct {
	URL string `xml:"url,attr"`
}

type atomParser struct {
	doc atomDocument
}

func parseAtom(body []byte) (Parser, error) {
	var doc atomDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return &atomParser{doc: doc}, nil
}

func atomLinkByRel(links []atomLink, rel string) string {
	for _, l := range links {
		if l.Rel == rel || (rel == "alternate" && l.Rel == "") {
			return l.Href
		}
	}
	return ""
}

func (p *atomParser) Type() Type          { return TypeAtom }
func (p *atomParser) GUID() string        { return atomLinkByRel(p.doc.Links, "self") }
func (p *atomParser) Title() string       { return p.doc.Title }
func (p *atomParser) Subtitle() string    { return p.doc.Subtitle }
func (p *atomParser) Link() string        { return atomLinkByRel(p.doc.Links, "alternate") }
func (p *atomParser) Description() string { return p.doc.Subtitle }
func (p *atomParser) Language() string    { return "" }
func (p *atomParser) Copyright() string   { return p.doc.Rights }
func (p *atomParser) IconURL() string     { return "" }

func (p *atomParser) Items() []Item {
	items := make([]Item, 0, len(p.doc.Entries))
	for _, e := range p.doc.Entries {
		link := atomLinkByRel(e.Links, "alternate")
		guid := e.ID

		// reddit.com fixup: link empty but guid starts with t3_ => synthesize
		// link from host + postId (spec §4.2 Atom "site-specific fixup").
		if link == "" && strings.HasPrefix(guid, "t3_") {
			if host := redditHostHint(e); host != "" {
				link = fmt.Sprintf("%s/%s", host, strings.TrimPrefix(guid, "t3_"))
			}
		}

		content := atomContentText(e.Content)
		if content == "" {
			content = e.Summary
		}
		if content == "" && e.MediaGroup != nil {
			content = mediaGroupSnippet(e.MediaGroup)
		}

		var enclosures []Enclosure
		for _, l := range e.Links {
			if l.Rel == "enclosure" && l.Href != "" {
				size, _ := strconv.ParseInt(l.Length, 10, 64)
				enclosures = append(enclosures, Enclosure{URL: l.Href, Size: size, Mime: l.Type})
			}
		}
		for _, enc := range e.Enclosures {
			u := enc.URL
			if u == "" {
				u = enc.Href
			}
			if u == "" {
				continue
			}
			size, _ := strconv.ParseInt(enc.Length, 10, 64)
			enclosures = append(enclosures, Enclosure{URL: u, Size: size, Mime: enc.Type})
		}

		var categories []string
		for _, c := range e.Categories {
			if c.Term != "" {
				categories = append(categories, c.Term)
			}
		}

		var thumbnail string
		if e.MediaGroup != nil {
			thumbnail = e.MediaGroup.Thumbnail.URL
		}

		items = append(items, Item{
			Title:         e.Title,
			Link:          link,
			Content:       content,
			Author:        e.Author.Name,
			GUID:          guid,
			DatePublished: normalizeUTC(parseISO8601(e.Updated)),
			Thumbnail:     thumbnail,
			Enclosures:    enclosures,
			Categories:    categories,
		})
	}
	return items
}

// atomContentText renders an Atom <content> element per spec: if it lacks a
// src attribute, use it (wrapped in <pre> for type=text, as innerXML
// otherwise); else defer to <summary> (handled by the caller).
func atomContentText(c *atomContent) string {
	if c == nil || c.Src != "" {
		return ""
	}
	if c.Type == "text" {
		return "<pre>" + html.EscapeString(strings.TrimSpace(c.Content)) + "</pre>"
	}
	return strings.TrimSpace(c.Content)
}

// mediaGroupSnippet assembles a minimal HTML snippet from Media RSS
// thumbnail+description when <content>/<summary> are both empty.
func mediaGroupSnippet(mg *mediaGroup) string {
	if mg.Thumbnail.URL == "" && mg.Description == "" {
		return ""
	}
	var b strings.Builder
	if mg.Thumbnail.URL != "" {
		fmt.Fprintf(&b, `<a href="%s"><img src="%s"/></a>`, mg.Thumbnail.URL, mg.Thumbnail.URL)
	}
	if mg.Description != "" {
		b.WriteString(mg.Description)
	}
	return b.String()
}

// redditHostHint recovers a https://www.reddit.com-style host from whatever
// alternate link information the entry does carry, falling back to the
// canonical reddit host.
func redditHostHint(e atomEntry) string {
	for _, l := range e.Links {
		if l.Href != "" {
			if u, err := url.Parse(l.Href); err == nil && strings.HasSuffix(u.Host, "reddit.com") {
				return u.Scheme + "://" + u.Host
			}
		}
	}
	return "https://www.reddit.com"
}
