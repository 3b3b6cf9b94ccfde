package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zapfr/engine/apiclient"
	"github.com/zapfr/engine/internal/database"
	"github.com/zapfr/engine/internal/entity"
)

func TestFeedBackend_GetRoundTrips(t *testing.T) {
	feedID := mustUUID(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/feeds/"+feedID.String(), r.URL.Path)
		_ = json.NewEncoder(w).Encode(entity.Feed{ID: feedID, Title: "remote feed"})
	}))
	defer srv.Close()

	client, err := apiclient.New(srv.URL, "", "")
	require.NoError(t, err)
	backend := &FeedBackend{Client: client}

	feed, err := backend.Get(context.Background(), feedID)
	require.NoError(t, err)
	require.Equal(t, "remote feed", feed.Title)
}

func TestPostBackend_ListRoundTrips(t *testing.T) {
	feedID := mustUUID(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/posts", r.URL.Path)
		require.Equal(t, "true", r.URL.Query().Get("unreadOnly"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total": 1,
			"posts": []entity.Post{{FeedID: feedID, Title: "hello"}},
		})
	}))
	defer srv.Close()

	client, err := apiclient.New(srv.URL, "", "")
	require.NoError(t, err)
	backend := &PostBackend{Client: client}

	total, posts, err := backend.List(context.Background(), &database.PostFilter{ShowOnlyUnread: true})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, posts, 1)
	require.Equal(t, "hello", posts[0].Title)
}

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV4()
	require.NoError(t, err)
	return id
}
