package autorefresh

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/stretchr/testify/require"

	"github.com/zapfr/engine/internal/agent"
	"github.com/zapfr/engine/internal/database"
	"github.com/zapfr/engine/internal/entity"
	"github.com/zapfr/engine/internal/httpclient"
	"github.com/zapfr/engine/internal/refresh"
	"github.com/zapfr/engine/internal/script"
)

func TestLoopTickEnqueuesDueFeeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<rss version="2.0"><channel><title>T</title></channel></rss>`))
	}))
	defer srv.Close()

	repo, err := database.New(&database.Config{Path: "file::memory:?cache=shared"}, opentracing.NoopTracer{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	ctx := context.Background()
	source := &entity.Source{ID: newUUID(t), Type: entity.SourceLocal, Title: "local"}
	require.NoError(t, repo.CreateSource(ctx, source))
	feed := &entity.Feed{ID: newUUID(t), SourceID: source.ID, URL: srv.URL}
	require.NoError(t, repo.CreateFeed(ctx, feed))

	pipeline := refresh.New(repo, httpclient.New("1", nil), script.New(), nil)
	a := agent.New(1, nil)
	a.Start(context.Background())
	defer a.Stop()

	loop := New(Config{DefaultInterval: time.Minute}, repo, pipeline, a, nil)
	loop.tick(ctx)

	// The tick enqueues the refresh job, which then runs asynchronously; enqueue a sentinel
	// job behind it on the same single-worker pool and wait on that instead.
	done := make(chan struct{}, 1)
	a.Enqueue(&agent.Job{
		Run: func(ctx context.Context) (any, error) { return nil, nil },
		OnComplete: func(result any, err error) {
			done <- struct{}{}
		},
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick's jobs to drain")
	}

	refreshed, err := repo.GetFeed(ctx, feed.ID)
	require.NoError(t, err)
	require.False(t, refreshed.LastChecked.IsZero())
}

func newUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV4()
	require.NoError(t, err)
	return id
}
