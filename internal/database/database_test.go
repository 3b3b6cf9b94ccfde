package database

import (
	"context"
	"testing"
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/stretchr/testify/require"

	"github.com/gofrs/uuid"

	"github.com/zapfr/engine/internal/entity"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(&Config{Path: "file::memory:?cache=shared"}, opentracing.NoopTracer{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func newID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV4()
	require.NoError(t, err)
	return id
}

func TestUpsertPost_SameGUIDUpdatesInPlace(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	source := &entity.Source{ID: newID(t), Type: entity.SourceLocal, Title: "local"}
	require.NoError(t, repo.CreateSource(ctx, source))

	feed := &entity.Feed{ID: newID(t), SourceID: source.ID, URL: "https://example.com/feed"}
	require.NoError(t, repo.CreateFeed(ctx, feed))

	post := &entity.Post{FeedID: feed.ID, GUID: "abc", Title: "first"}
	inserted, changed, err := repo.UpsertPost(ctx, post)
	require.NoError(t, err)
	require.True(t, inserted)
	require.True(t, changed)

	post2 := &entity.Post{FeedID: feed.ID, GUID: "abc", Title: "second"}
	inserted, changed, err = repo.UpsertPost(ctx, post2)
	require.NoError(t, err)
	require.False(t, inserted)
	require.True(t, changed)

	same := &entity.Post{FeedID: feed.ID, GUID: "abc", Title: "second"}
	inserted, changed, err = repo.UpsertPost(ctx, same)
	require.NoError(t, err)
	require.False(t, inserted)
	require.False(t, changed)

	posts, err := repo.ListPostsByFeed(ctx, feed.ID)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "second", posts[0].Title)
}

func TestDeleteFolder_CascadesToPosts(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	source := &entity.Source{ID: newID(t), Type: entity.SourceLocal, Title: "local"}
	require.NoError(t, repo.CreateSource(ctx, source))

	folder := &entity.Folder{ID: newID(t), SourceID: source.ID, Title: "tech"}
	require.NoError(t, repo.CreateFolder(ctx, folder))

	feed := &entity.Feed{ID: newID(t), SourceID: source.ID, FolderID: folder.ID, URL: "https://example.com/feed"}
	require.NoError(t, repo.CreateFeed(ctx, feed))

	post := &entity.Post{FeedID: feed.ID, GUID: "x", Title: "t", Categories: []string{"news"}}
	_, _, err := repo.UpsertPost(ctx, post)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteFolder(ctx, folder.ID))

	_, err = repo.GetFeed(ctx, feed.ID)
	require.Error(t, err)

	var count int
	require.NoError(t, repo.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts WHERE feed_id=?", feed.ID.String()).Scan(&count))
	require.Equal(t, 0, count)
}

func TestMarkAsRead_OnlyAffectsMatchingFeeds(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	source := &entity.Source{ID: newID(t), Type: entity.SourceLocal, Title: "local"}
	require.NoError(t, repo.CreateSource(ctx, source))
	feed := &entity.Feed{ID: newID(t), SourceID: source.ID, URL: "https://example.com/feed"}
	require.NoError(t, repo.CreateFeed(ctx, feed))

	for i := 0; i < 3; i++ {
		p := &entity.Post{FeedID: feed.ID, GUID: string(rune('a' + i)), DatePublished: time.Now()}
		_, _, err := repo.UpsertPost(ctx, p)
		require.NoError(t, err)
	}

	feedIDs, err := repo.MarkAsRead(ctx, &PostFilter{FeedIDs: []string{feed.ID.String()}}, 1<<63, true)
	require.NoError(t, err)
	require.Len(t, feedIDs, 1)
	require.Equal(t, feed.ID, feedIDs[0])

	posts, err := repo.ListPostsByFeed(ctx, feed.ID)
	require.NoError(t, err)
	for _, p := range posts {
		require.True(t, p.IsRead)
	}
}

func TestUpdateFolder_RejectsCyclicMove(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	source := &entity.Source{ID: newID(t), Type: entity.SourceLocal, Title: "local"}
	require.NoError(t, repo.CreateSource(ctx, source))

	parent := &entity.Folder{ID: newID(t), SourceID: source.ID, Title: "parent"}
	require.NoError(t, repo.CreateFolder(ctx, parent))
	child := &entity.Folder{ID: newID(t), SourceID: source.ID, ParentID: parent.ID, Title: "child"}
	require.NoError(t, repo.CreateFolder(ctx, child))

	parent.ParentID = child.ID
	err := repo.UpdateFolder(ctx, parent)
	require.Error(t, err)

	parent.ParentID = parent.ID
	require.Error(t, repo.UpdateFolder(ctx, parent))
}

func TestScriptFolder_PostMembershipAndMarkRead(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	source := &entity.Source{ID: newID(t), Type: entity.SourceLocal, Title: "local"}
	require.NoError(t, repo.CreateSource(ctx, source))
	feed := &entity.Feed{ID: newID(t), SourceID: source.ID, URL: "https://example.com/feed"}
	require.NoError(t, repo.CreateFeed(ctx, feed))

	assigned := &entity.Post{FeedID: feed.ID, GUID: "in"}
	outside := &entity.Post{FeedID: feed.ID, GUID: "out"}
	_, _, err := repo.UpsertPost(ctx, assigned)
	require.NoError(t, err)
	_, _, err = repo.UpsertPost(ctx, outside)
	require.NoError(t, err)

	sf := &entity.ScriptFolder{ID: newID(t), SourceID: source.ID, Title: "bucket"}
	require.NoError(t, repo.CreateScriptFolder(ctx, sf))
	require.NoError(t, repo.AssignPostToScriptFolder(ctx, sf.ID, assigned.ID, true))

	total, page, err := repo.ListPosts(ctx, &PostFilter{ScriptFolderID: sf.ID.String()})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, page, 1)
	require.Equal(t, assigned.ID, page[0].ID)

	feedIDs, err := repo.MarkScriptFolderRead(ctx, sf.ID, ^uint64(0))
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{feed.ID}, feedIDs)

	left, err := repo.GetPost(ctx, outside.ID)
	require.NoError(t, err)
	require.False(t, left.IsRead)

	require.NoError(t, repo.AssignPostToScriptFolder(ctx, sf.ID, assigned.ID, false))
	total, _, err = repo.ListPosts(ctx, &PostFilter{ScriptFolderID: sf.ID.String()})
	require.NoError(t, err)
	require.Equal(t, 0, total)
}

func TestMarkAsRead_RespectsMaxPostSeq(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	source := &entity.Source{ID: newID(t), Type: entity.SourceLocal, Title: "local"}
	require.NoError(t, repo.CreateSource(ctx, source))
	feed := &entity.Feed{ID: newID(t), SourceID: source.ID, URL: "https://example.com/feed"}
	require.NoError(t, repo.CreateFeed(ctx, feed))

	older := &entity.Post{FeedID: feed.ID, GUID: "older"}
	newer := &entity.Post{FeedID: feed.ID, GUID: "newer"}
	_, _, err := repo.UpsertPost(ctx, older)
	require.NoError(t, err)
	_, _, err = repo.UpsertPost(ctx, newer)
	require.NoError(t, err)
	require.NotZero(t, older.Seq)
	require.Greater(t, newer.Seq, older.Seq)

	_, err = repo.MarkAsRead(ctx, &PostFilter{FeedIDs: []string{feed.ID.String()}}, older.Seq, true)
	require.NoError(t, err)

	got, err := repo.GetPost(ctx, older.ID)
	require.NoError(t, err)
	require.True(t, got.IsRead)
	got, err = repo.GetPost(ctx, newer.ID)
	require.NoError(t, err)
	require.False(t, got.IsRead)
}

func TestListLogs_ScopedToFeed(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	source := &entity.Source{ID: newID(t), Type: entity.SourceLocal, Title: "local"}
	require.NoError(t, repo.CreateSource(ctx, source))
	feedA := &entity.Feed{ID: newID(t), SourceID: source.ID, URL: "https://example.com/a"}
	feedB := &entity.Feed{ID: newID(t), SourceID: source.ID, URL: "https://example.com/b"}
	require.NoError(t, repo.CreateFeed(ctx, feedA))
	require.NoError(t, repo.CreateFeed(ctx, feedB))

	require.NoError(t, repo.CreateLog(ctx, &entity.Log{Timestamp: time.Now(), Level: entity.LogError, Message: "a failed", FeedID: feedA.ID}))
	require.NoError(t, repo.CreateLog(ctx, &entity.Log{Timestamp: time.Now(), Level: entity.LogError, Message: "b failed", FeedID: feedB.ID}))

	total, logs, err := repo.ListLogs(ctx, &LogFilter{FeedIDs: []string{feedA.ID.String()}})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, logs, 1)
	require.Equal(t, "a failed", logs[0].Message)

	total, _, err = repo.ListLogs(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 2, total)

	require.NoError(t, repo.ClearLogs(ctx, []string{feedA.ID.String()}))
	total, logs, err = repo.ListLogs(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "b failed", logs[0].Message)
}

func TestDeleteSource_RejectsLocal(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	source := &entity.Source{ID: newID(t), Type: entity.SourceLocal, Title: "local"}
	require.NoError(t, repo.CreateSource(ctx, source))

	err := repo.DeleteSource(ctx, source.ID)
	require.Error(t, err)
}
