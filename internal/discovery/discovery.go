// Package discovery implements feed discovery from an arbitrary URL or page
// (spec §4.3): YouTube channel heuristic, direct-feed sniffing, and
// <link rel=alternate> scraping with a regex fallback for invalid HTML.
//
// Grounded on Saul-Punybz-folio-pr/internal/scraper/scraper.go's
// colly.Collector + OnHTML-callback idiom, which maps directly onto the
// spec's "SAX-parse, collect matching elements" procedure.
package discovery

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/gocolly/colly/v2"

	"github.com/zapfr/engine/internal/feedparser"
)

// Candidate is one discovered feed.
type Candidate struct {
	Title string
	URL   string
	Type  feedparser.Type
}

var feedMimeTypes = map[string]feedparser.Type{
	"application/rss+xml":  feedparser.TypeRSS,
	"application/atom+xml": feedparser.TypeAtom,
	"application/json":     feedparser.TypeJSON,
	"application/feed+json": feedparser.TypeJSON,
}

var canonicalYouTubeChannel = regexp.MustCompile(`/channel/([A-Za-z0-9_-]+)`)

// linkTagRegexp recovers <link ...> tags from a body whose HTML was too
// broken for a DOM walk (spec §4.3 step 6).
var linkTagRegexp = regexp.MustCompile(`(?is)<link\b[^>]*>`)
var linkAttrRegexp = regexp.MustCompile(`(?i)(\w[\w-]*)\s*=\s*"([^"]*)"|(\w[\w-]*)\s*=\s*'([^']*)'`)

// Discover normalizes rawURL, fetches it, and returns candidate feeds.
// First match wins among: YouTube channel heuristic, direct-feed body,
// <link rel=alternate> scraping (spec §4.3).
func Discover(rawURL string) ([]Candidate, error) {
	normalized := normalizeURL(rawURL)

	var (
		body       string
		title      string
		links      []linkTag
		fetchErr   error
	)

	c := colly.NewCollector(colly.UserAgent("ZapFeedReader/1"))
	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})
	c.OnHTML("title", func(e *colly.HTMLElement) {
		if title == "" {
			title = strings.TrimSpace(e.Text)
		}
	})
	c.OnHTML("link", func(e *colly.HTMLElement) {
		links = append(links, linkTag{
			Rel:   e.Attr("rel"),
			Href:  e.Attr("href"),
			Type:  e.Attr("type"),
			Title: e.Attr("title"),
		})
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})
	if err := c.Visit(normalized); err != nil {
		return nil, err
	}
	if fetchErr != nil {
		return nil, fetchErr
	}

	// YouTube heuristic (spec §4.3 step 3).
	if u, err := url.Parse(normalized); err == nil && strings.HasSuffix(u.Host, "youtube.com") {
		if cand, ok := youTubeCandidate(links, title); ok {
			return []Candidate{cand}, nil
		}
	}

	// Direct feed (spec §4.3 step 4).
	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, "<") || strings.HasPrefix(trimmed, "{") {
		if p, err := feedparser.Parse([]byte(trimmed)); err == nil && p != nil {
			feedTitle := p.Title()
			if feedTitle == "" {
				feedTitle = title
			}
			return []Candidate{{Title: feedTitle, URL: normalized, Type: p.Type()}}, nil
		}
	}

	// <link rel=alternate> scraping (spec §4.3 step 5).
	candidates := alternateCandidates(links, normalized)
	if len(candidates) > 0 {
		return candidates, nil
	}

	// SAX-walk found nothing (e.g. malformed markup): regex fallback on the
	// raw body, re-attempting the alternate-link scrape (spec §4.3 step 6).
	if len(links) == 0 && body != "" {
		regexLinks := regexExtractLinks(body)
		return alternateCandidates(regexLinks, normalized), nil
	}

	return nil, nil
}

type linkTag struct {
	Rel, Href, Type, Title string
}

func youTubeCandidate(links []linkTag, title string) (Candidate, bool) {
	for _, l := range links {
		if l.Rel != "canonical" {
			continue
		}
		m := canonicalYouTubeChannel.FindStringSubmatch(l.Href)
		if m == nil {
			continue
		}
		channelID := m[1]
		return Candidate{
			Title: title,
			URL:   fmt.Sprintf("https://www.youtube.com/feeds/videos.xml?channel_id=%s", channelID),
			Type:  feedparser.TypeAtom,
		}, true
	}
	return Candidate{}, false
}

func alternateCandidates(links []linkTag, baseURL string) []Candidate {
	base, _ := url.Parse(baseURL)
	var out []Candidate
	for _, l := range links {
		if l.Rel != "alternate" {
			continue
		}
		t, ok := feedMimeTypes[strings.ToLower(l.Type)]
		if !ok {
			continue
		}
		resolved := l.Href
		if base != nil {
			if u, err := base.Parse(l.Href); err == nil {
				resolved = u.String()
			}
		}
		out = append(out, Candidate{Title: l.Title, URL: resolved, Type: t})
	}
	return out
}

func regexExtractLinks(body string) []linkTag {
	var out []linkTag
	for _, tag := range linkTagRegexp.FindAllString(body, -1) {
		attrs := map[string]string{}
		for _, m := range linkAttrRegexp.FindAllStringSubmatch(tag, -1) {
			if m[1] != "" {
				attrs[strings.ToLower(m[1])] = m[2]
			} else if m[3] != "" {
				attrs[strings.ToLower(m[3])] = m[4]
			}
		}
		out = append(out, linkTag{Rel: attrs["rel"], Href: attrs["href"], Type: attrs["type"], Title: attrs["title"]})
	}
	return out
}

// normalizeURL prepends https:// when rawURL has no scheme (spec §4.3 step 1).
func normalizeURL(rawURL string) string {
	if !strings.Contains(rawURL, "://") {
		return "https://" + rawURL
	}
	return rawURL
}
