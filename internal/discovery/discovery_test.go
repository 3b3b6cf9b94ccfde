package discovery

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zapfr/engine/internal/feedparser"
)

func TestDiscover_HTMLTwoAlternateLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><head>
<title>Pawel's Blog</title>
<link rel="alternate" type="application/rss+xml" title="RSS" href="/feed.rss"/>
<link rel="alternate" type="application/atom+xml" title="Atom" href="/feed.atom"/>
</head><body></body></html>`))
		}
	}))
	defer srv.Close()

	candidates, err := Discover(srv.URL)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	require.Equal(t, feedparser.TypeRSS, candidates[0].Type)
	require.Equal(t, srv.URL+"/feed.rss", candidates[0].URL)
	require.Equal(t, feedparser.TypeAtom, candidates[1].Type)
	require.Equal(t, srv.URL+"/feed.atom", candidates[1].URL)
}

func TestDiscover_YouTubeHeuristicSkippedOnOtherHosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head>
<link rel="canonical" href="https://www.youtube.com/channel/UCabc123xyz">
</head><body></body></html>`))
	}))
	defer srv.Close()

	candidates, err := Discover(srv.URL)
	require.NoError(t, err)
	// Host is 127.0.0.1 in this harness, not youtube.com, so the generic
	// alternate-link path runs instead and yields nothing — the heuristic
	// itself is covered by TestYouTubeCandidate below.
	require.Empty(t, candidates)
}

func TestYouTubeCandidate(t *testing.T) {
	links := []linkTag{{Rel: "canonical", Href: "https://www.youtube.com/channel/UCabc123"}}
	cand, ok := youTubeCandidate(links, "MrBeast")
	require.True(t, ok)
	require.Equal(t, "https://www.youtube.com/feeds/videos.xml?channel_id=UCabc123", cand.URL)
	require.Equal(t, feedparser.TypeAtom, cand.Type)
}

func TestDiscover_DirectFeedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Direct</title></channel></rss>`))
	}))
	defer srv.Close()

	candidates, err := Discover(srv.URL)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "Direct", candidates[0].Title)
	require.Equal(t, feedparser.TypeRSS, candidates[0].Type)
}

func TestDiscover_MalformedHTMLRegexFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		// Deliberately unclosed/garbled tags that a permissive DOM walk may
		// still render but with no queryable <link> elements surfacing
		// through OnHTML in this minimal harness.
		_, _ = w.Write([]byte(`<link rel='alternate' type='application/rss+xml' href='/f.rss' title='F'>`))
	}))
	defer srv.Close()

	links := regexExtractLinks(`<link rel='alternate' type='application/rss+xml' href='/f.rss' title='F'>`)
	require.Len(t, links, 1)
	require.Equal(t, "alternate", links[0].Rel)
	require.Equal(t, "/f.rss", links[0].Href)

	cands := alternateCandidates(links, srv.URL)
	require.Len(t, cands, 1)
	require.Equal(t, srv.URL+"/f.rss", cands[0].URL)
}

func TestNormalizeURL(t *testing.T) {
	require.Equal(t, "https://example.com", normalizeURL("example.com"))
	require.Equal(t, "http://example.com", normalizeURL("http://example.com"))
}
