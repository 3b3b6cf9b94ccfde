package backend

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/stretchr/testify/require"

	"github.com/zapfr/engine/internal/database"
	"github.com/zapfr/engine/internal/entity"
)

func newRepo(t *testing.T) *database.Repository {
	t.Helper()
	repo, err := database.New(&database.Config{Path: "file::memory:?cache=shared"}, opentracing.NoopTracer{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestLocalFeedBackend_SubscribeAndMove(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	feeds := &LocalFeedBackend{Repo: repo}
	folders := &LocalFolderBackend{Repo: repo}
	sources := &LocalSourceBackend{Repo: repo}

	source := &entity.Source{Type: entity.SourceLocal, Title: "local"}
	require.NoError(t, sources.Create(ctx, source))

	folder := &entity.Folder{SourceID: source.ID, Title: "news"}
	require.NoError(t, folders.Create(ctx, folder))

	feed := &entity.Feed{SourceID: source.ID, URL: "https://example.com/feed"}
	require.NoError(t, feeds.Subscribe(ctx, feed))
	require.NotEqual(t, uuid.Nil, feed.ID)

	require.NoError(t, feeds.Move(ctx, feed.ID, folder.ID, 3))
	moved, err := feeds.Get(ctx, feed.ID)
	require.NoError(t, err)
	require.Equal(t, folder.ID, moved.FolderID)
	require.Equal(t, 3, moved.SortOrder)
}

func TestLocalScriptFolderBackend_AssignAndMarkRead(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	sources := &LocalSourceBackend{Repo: repo}
	feeds := &LocalFeedBackend{Repo: repo}
	scriptFolders := &LocalScriptFolderBackend{Repo: repo}

	source := &entity.Source{Type: entity.SourceLocal, Title: "local"}
	require.NoError(t, sources.Create(ctx, source))
	feed := &entity.Feed{SourceID: source.ID, URL: "https://example.com/feed"}
	require.NoError(t, feeds.Subscribe(ctx, feed))

	post := &entity.Post{FeedID: feed.ID, GUID: "g1", Title: "hello"}
	_, _, err := repo.UpsertPost(ctx, post)
	require.NoError(t, err)

	sf := &entity.ScriptFolder{SourceID: source.ID, Title: "bucket"}
	require.NoError(t, scriptFolders.Create(ctx, sf))
	require.NoError(t, scriptFolders.AssignPost(ctx, sf.ID, post.ID, true))

	affected, err := scriptFolders.MarkAsRead(ctx, sf.ID, ^uint64(0))
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{feed.ID}, affected)
}
