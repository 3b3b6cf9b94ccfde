package refresh

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofrs/uuid"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/stretchr/testify/require"

	"github.com/zapfr/engine/internal/database"
	"github.com/zapfr/engine/internal/entity"
	"github.com/zapfr/engine/internal/httpclient"
	"github.com/zapfr/engine/internal/script"
)

const sampleRSS = `<?xml version="1.0"?>
<rss version="2.0"><channel>
	<title>Example Feed</title>
	<link>https://example.com</link>
	<item>
		<title>First post</title>
		<link>https://example.com/1</link>
		<guid>post-1</guid>
	</item>
</channel></rss>`

func newTestRepo(t *testing.T) *database.Repository {
	t.Helper()
	repo, err := database.New(&database.Config{Path: "file::memory:?cache=shared"}, opentracing.NoopTracer{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRefreshFeed_InsertsNewPosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	repo := newTestRepo(t)
	ctx := context.Background()

	source := &entity.Source{ID: newUUID(t), Type: entity.SourceLocal, Title: "local"}
	require.NoError(t, repo.CreateSource(ctx, source))
	feed := &entity.Feed{ID: newUUID(t), SourceID: source.ID, URL: srv.URL}
	require.NoError(t, repo.CreateFeed(ctx, feed))

	pipeline := New(repo, httpclient.New("1", nil), script.New(), nil)
	result, err := pipeline.RefreshFeed(ctx, feed.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.NewPosts)

	posts, err := repo.ListPostsByFeed(ctx, feed.ID)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "First post", posts[0].Title)

	updated, err := repo.GetFeed(ctx, feed.ID)
	require.NoError(t, err)
	require.Equal(t, "Example Feed", updated.Title)
	require.False(t, updated.LastChecked.IsZero())
}

func TestRefreshFeed_ScriptMutatesTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	repo := newTestRepo(t)
	ctx := context.Background()

	source := &entity.Source{ID: newUUID(t), Type: entity.SourceLocal, Title: "local"}
	require.NoError(t, repo.CreateSource(ctx, source))
	feed := &entity.Feed{ID: newUUID(t), SourceID: source.ID, URL: srv.URL}
	require.NoError(t, repo.CreateFeed(ctx, feed))

	s := &entity.Script{
		ID:          newUUID(t),
		SourceID:    source.ID,
		Type:        entity.ScriptTypeLua,
		Title:       "shout",
		IsEnabled:   true,
		RunOnEvents: []entity.ScriptEvent{entity.ScriptEventNewPost},
		Body:        `post.title = post.title .. "!!!"`,
	}
	require.NoError(t, repo.CreateScript(ctx, s))

	pipeline := New(repo, httpclient.New("1", nil), script.New(), nil)
	_, err := pipeline.RefreshFeed(ctx, feed.ID)
	require.NoError(t, err)

	posts, err := repo.ListPostsByFeed(ctx, feed.ID)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "First post!!!", posts[0].Title)
}

func TestRefreshFeed_FailurePersistsErrorLog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	repo := newTestRepo(t)
	ctx := context.Background()

	source := &entity.Source{ID: newUUID(t), Type: entity.SourceLocal, Title: "local"}
	require.NoError(t, repo.CreateSource(ctx, source))
	feed := &entity.Feed{ID: newUUID(t), SourceID: source.ID, URL: srv.URL}
	require.NoError(t, repo.CreateFeed(ctx, feed))

	pipeline := New(repo, httpclient.New("1", nil), script.New(), nil)
	_, err := pipeline.RefreshFeed(ctx, feed.ID)
	require.Error(t, err)

	updated, err := repo.GetFeed(ctx, feed.ID)
	require.NoError(t, err)
	require.NotEmpty(t, updated.LastRefreshError)

	_, logs, err := repo.ListLogs(ctx, &database.LogFilter{FeedIDs: []string{feed.ID.String()}})
	require.NoError(t, err)
	var sawError bool
	for _, l := range logs {
		if l.Level == entity.LogError {
			sawError = true
		}
	}
	require.True(t, sawError)
}

func newUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV4()
	require.NoError(t, err)
	return id
}
