package feedparser

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"
)

type rss2Document struct {
	XMLName xml.Name     `xml:"rss"`
	Channel rss2Channel  `xml:"channel"`
}

type rss2Channel struct {
	Title       string      `xml:"title"`
	Link        string      `xml:"link"`
	Description string      `xml:"description"`
	Language    string      `xml:"language"`
	Copyright   string      `xml:"copyright"`
	Image       rss2Image   `xml:"image"`
	Items       []rss2Item  `xml:"item"`
}

type rss2Image struct {
	URL string `xml:"url"`
}

type rss2Item struct {
	Title            string          `xml:"title"`
	Link             string          `xml:"link"`
	Description      string          `xml:"description"`
	ContentEncoded   string          `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
	Author           string          `xml:"author"`
	DCCreator        string          `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Comments         string          `xml:"comments"`
	GUID             rss2GUID        `xml:"guid"`
	PubDate          string          `xml:"pubDate"`
	Enclosures       []rss2Enclosure `xml:"enclosure"`
	Categories       []string        `xml:"category"`
}

type rss2GUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink string `xml:"isPermaLink,attr"`
}

type rss2Enclosure struct {
	URL    string `xml:"url,attr"`
	Length string `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

type rss2Parser struct {
	doc rss2Document
}

func parseRSS2(body []byte) (Parser, error) {
	var doc rss2Document
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return &rss2Parser{doc: doc}, nil
}

func (p *rss2Parser) Type() Type        { return TypeRSS }
func (p *rss2Parser) GUID() string      { return p.doc.Channel.Link }
func (p *rss2Parser) Title() string     { return p.doc.Channel.Title }
func (p *rss2Parser) Subtitle() string  { return "" }
func (p *rss2Parser) Link() string      { return p.doc.Channel.Link }
func (p *rss2Parser) Description() string { return p.doc.Channel.Description }
func (p *rss2Parser) Language() string  { return p.doc.Channel.Language }
func (p *rss2Parser) Copyright() string { return p.doc.Channel.Copyright }
func (p *rss2Parser) IconURL() string   { return p.doc.Channel.Image.URL }

func (p *rss2Parser) Items() []Item {
	items := make([]Item, 0, len(p.doc.Channel.Items))
	for _, it := range p.doc.Channel.Items {
		content := it.ContentEncoded
		if content == "" {
			content = it.Description
		}
		author := it.Author
		if it.DCCreator != "" {
			author = it.DCCreator
		}

		guid := it.GUID.Value
		link := it.Link
		if guid == "" {
			guid = synthesizeGUID(it.Link, it.Title, it.Description)
		} else if link == "" && it.GUID.IsPermaLink != "false" {
			// isPermaLink defaults to true: the guid is a usable URL.
			link = guid
		}

		var enclosures []Enclosure
		for _, enc := range it.Enclosures {
			if enc.URL == "" {
				continue
			}
			size, _ := strconv.ParseInt(enc.Length, 10, 64)
			enclosures = append(enclosures, Enclosure{
				URL:  enc.URL,
				Size: size,
				Mime: enc.Type,
			})
		}

		items = append(items, Item{
			Title:         it.Title,
			Link:          link,
			Content:       content,
			Author:        author,
			CommentsURL:   it.Comments,
			GUID:          guid,
			DatePublished: normalizeUTC(parseRFC822(it.PubDate)),
			Enclosures:    enclosures,
			Categories:    it.Categories,
		})
	}
	return items
}

// parseRFC822 parses RSS2's pubDate, which is RFC822/RFC1123-ish with
// whatever timezone the publisher used; we normalize to UTC.
func parseRFC822(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	layouts := []string{
		time.RFC1123Z,
		time.RFC1123,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 MST",
		time.RFC822Z,
		time.RFC822,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
