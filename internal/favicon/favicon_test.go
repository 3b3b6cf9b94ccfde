package favicon

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFind_LinkRelIcon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><link rel="shortcut icon" href="/static/icon.png"></head></html>`))
	}))
	defer srv.Close()

	got, err := Find(srv.URL)
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/static/icon.png", got)
}

func TestFind_FallsBackToFaviconIco(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>no icon here</title></head></html>`))
	}))
	defer srv.Close()

	got, err := Find(srv.URL)
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/favicon.ico", got)
}

func TestYouTubeAvatar(t *testing.T) {
	body := `<script>var ytInitialData = {"metadata":{"channelMetadataRenderer":{"avatar":{"thumbnails":[{"url":"https://yt3.example.com/avatar.jpg"}]}}}};</script>`
	require.Equal(t, "https://yt3.example.com/avatar.jpg", youTubeAvatar(body))
}

func TestRegexIcon(t *testing.T) {
	body := `<link rel='icon' href='/favicon-32.png' type='image/png'>`
	require.Equal(t, "/favicon-32.png", regexIcon(body))
}
