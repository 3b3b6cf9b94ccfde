package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
)

func TestRequest_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "ZapFeedReader/1", r.Header.Get("User-Agent"))
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := New("1", nil)
	body, _, err := c.Request(srv.URL, http.MethodGet, nil, nil, false, uuid.Nil, nil)
	require.NoError(t, err)
	require.Equal(t, "hello", body)
}

func TestRequest_NotModifiedReturnsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	c := New("1", nil)
	body, _, err := c.Request(srv.URL, http.MethodGet, nil, nil, false, uuid.Nil, &ConditionalGetInfo{ETag: `"abc"`})
	require.NoError(t, err)
	require.Empty(t, body)
}

func TestRequest_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New("1", nil)
	_, _, err := c.Request(srv.URL, http.MethodGet, nil, nil, false, uuid.Nil, nil)
	require.Error(t, err)
	var herr *Error
	require.ErrorAs(t, err, &herr)
	require.Equal(t, KindHTTPStatus, herr.Kind)
	require.Equal(t, 500, herr.StatusCode)
}

func TestRequest_AuthRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New("1", nil)
	_, _, err := c.Request(srv.URL, http.MethodGet, nil, nil, false, uuid.Nil, nil)
	require.Error(t, err)
	var herr *Error
	require.ErrorAs(t, err, &herr)
	require.Equal(t, KindAuthRequired, herr.Kind)
}

func TestRequest_AuthRetrySucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		login, pass, ok := r.BasicAuth()
		if !ok || login != "u" || pass != "p" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("authed"))
	}))
	defer srv.Close()

	c := New("1", nil)
	body, _, err := c.Request(srv.URL, http.MethodGet, &Credentials{Login: "u", Password: "p"}, nil, false, uuid.Nil, nil)
	require.NoError(t, err)
	require.Equal(t, "authed", body)
}

func TestRequest_UnknownScheme(t *testing.T) {
	c := New("1", nil)
	_, _, err := c.Request("ftp://example.com", http.MethodGet, nil, nil, false, uuid.Nil, nil)
	require.Error(t, err)
	var herr *Error
	require.ErrorAs(t, err, &herr)
	require.Equal(t, KindUnknownScheme, herr.Kind)
}
