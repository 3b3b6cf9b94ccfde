package server

import (
	"context"
	"net/http"

	"github.com/go-chi/render"
	"github.com/gofrs/uuid"
	"github.com/opentracing/opentracing-go/ext"

	"github.com/zapfr/engine/internal/agent"
	"github.com/zapfr/engine/internal/entity"
	"github.com/zapfr/engine/internal/validate"
)

func (h *Handler) getFeed(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "get-feed")
	defer span.Finish()
	id, ok := uuidParam(w, r, "feed_id")
	if !ok {
		return
	}
	f, err := h.backends.Feeds.Get(ctx, id)
	if err != nil {
		ext.HTTPStatusCode.Set(span, http.StatusInternalServerError)
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, f)
}

func (h *Handler) listFeedsByFolder(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "list-feeds-by-folder")
	defer span.Finish()
	folderID, ok := uuidParam(w, r, "folder_id")
	if !ok {
		return
	}
	feeds, err := h.backends.Feeds.ListByFolder(ctx, folderID)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, feeds)
}

func (h *Handler) listFeedsBySource(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "list-feeds-by-source")
	defer span.Finish()
	sourceID, ok := uuidParam(w, r, "source_id")
	if !ok {
		return
	}
	feeds, err := h.backends.Feeds.ListBySource(ctx, sourceID)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, feeds)
}

func (h *Handler) subscribeFeed(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "subscribe-feed")
	defer span.Finish()
	var f entity.Feed
	if !decodeBody(w, r, &f) {
		return
	}
	if err := validate.Feed(&f); err != nil {
		renderErr(w, r, err)
		return
	}
	if err := h.backends.Feeds.Subscribe(ctx, &f); err != nil {
		renderErr(w, r, err)
		return
	}
	ext.HTTPStatusCode.Set(span, http.StatusCreated)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, &f)
}

func (h *Handler) updateFeed(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "update-feed")
	defer span.Finish()
	id, ok := uuidParam(w, r, "feed_id")
	if !ok {
		return
	}
	var f entity.Feed
	if !decodeBody(w, r, &f) {
		return
	}
	f.ID = id
	if err := validate.Feed(&f); err != nil {
		renderErr(w, r, err)
		return
	}
	if err := h.backends.Feeds.Update(ctx, &f); err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, &f)
}

func (h *Handler) deleteFeed(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "delete-feed")
	defer span.Finish()
	id, ok := uuidParam(w, r, "feed_id")
	if !ok {
		return
	}
	if err := h.backends.Feeds.Delete(ctx, id); err != nil {
		renderErr(w, r, err)
		return
	}
	render.NoContent(w, r)
}

type moveFeedRequestBody struct {
	FolderID  string `json:"folderId"`
	SortOrder int    `json:"sortOrder"`
}

func (h *Handler) moveFeed(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "move-feed")
	defer span.Finish()
	id, ok := uuidParam(w, r, "feed_id")
	if !ok {
		return
	}
	var body moveFeedRequestBody
	if !decodeBody(w, r, &body) {
		return
	}
	folderID := uuid.FromStringOrNil(body.FolderID)
	if err := h.backends.Feeds.Move(ctx, id, folderID, body.SortOrder); err != nil {
		renderErr(w, r, err)
		return
	}
	render.NoContent(w, r)
}

type refreshFeedResponseBody struct {
	Success     bool   `json:"success"`
	UnreadCount int    `json:"unreadCount"`
	Error       string `json:"error,omitempty"`
}

// refreshFeed runs an immediate refresh through the job agent (C9) so it
// serializes with any in-flight refresh of the same feed, waits for the
// job's completion callback, and reports the feed's new unread count.
func (h *Handler) refreshFeed(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "refresh-feed")
	defer span.Finish()
	id, ok := uuidParam(w, r, "feed_id")
	if !ok {
		return
	}
	done := make(chan error, 1)
	h.jobAgent.Enqueue(&agent.Job{
		Kind:        "refresh-feed",
		ResourceKey: "feed:" + id.String(),
		Run: func(jobCtx context.Context) (any, error) {
			return h.pipeline.RefreshFeed(jobCtx, id)
		},
		OnComplete: func(result any, err error) {
			done <- err
		},
	})

	resp := refreshFeedResponseBody{Success: true}
	if err := <-done; err != nil {
		h.logger.Error("manual refresh failed for feed ", id.String(), ": ", err)
		resp.Success = false
		resp.Error = err.Error()
	}
	if counts, err := h.backends.Stats.UnreadCounts(ctx); err == nil {
		resp.UnreadCount = counts[id]
	}
	render.JSON(w, r, resp)
}

type markReadRequestBody struct {
	MaxPostID uint64 `json:"maxPostId"`
}

func (h *Handler) markFeedRead(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "mark-feed-read")
	defer span.Finish()
	id, ok := uuidParam(w, r, "feed_id")
	if !ok {
		return
	}
	var body markReadRequestBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := h.backends.Feeds.MarkAsRead(ctx, id, body.MaxPostID); err != nil {
		renderErr(w, r, err)
		return
	}
	render.NoContent(w, r)
}
