package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/render"
	"github.com/gofrs/uuid"

	"github.com/zapfr/engine/internal/database"
)

type logListResponseBody struct {
	Total int `json:"total"`
	Logs  any `json:"logs"`
}

// logScopeFromQuery resolves the listing/clearing scope to a feed-id set:
// explicit feedId params, a folderId (all feeds in the folder), or a
// sourceId (all feeds of the source). No scope params means everything.
// A scope that resolves to zero feeds yields a never-matching sentinel so
// it cannot silently widen to the whole table.
func (h *Handler) logScopeFromQuery(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	q := r.URL.Query()
	feedIDs := q["feedId"]
	scoped := len(feedIDs) > 0

	if raw := q.Get("folderId"); raw != "" {
		scoped = true
		folderID, err := uuid.FromString(raw)
		if err != nil {
			ErrInvalidRequest(err).Render(w, r)
			return nil, false
		}
		feeds, err := h.backends.Feeds.ListByFolder(r.Context(), folderID)
		if err != nil {
			renderErr(w, r, err)
			return nil, false
		}
		for _, f := range feeds {
			feedIDs = append(feedIDs, f.ID.String())
		}
	}
	if raw := q.Get("sourceId"); raw != "" {
		scoped = true
		sourceID, err := uuid.FromString(raw)
		if err != nil {
			ErrInvalidRequest(err).Render(w, r)
			return nil, false
		}
		feeds, err := h.backends.Feeds.ListBySource(r.Context(), sourceID)
		if err != nil {
			renderErr(w, r, err)
			return nil, false
		}
		for _, f := range feeds {
			feedIDs = append(feedIDs, f.ID.String())
		}
	}
	if scoped && len(feedIDs) == 0 {
		feedIDs = []string{uuid.Nil.String()}
	}
	return feedIDs, true
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "list-logs")
	defer span.Finish()
	feedIDs, ok := h.logScopeFromQuery(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("perPage"))
	if perPage <= 0 {
		perPage = 100
	}
	total, logs, err := h.backends.Logs.List(ctx, &database.LogFilter{FeedIDs: feedIDs, Page: page, PerPage: perPage})
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, logListResponseBody{Total: total, Logs: logs})
}

func (h *Handler) clearLogs(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "clear-logs")
	defer span.Finish()
	feedIDs, ok := h.logScopeFromQuery(w, r)
	if !ok {
		return
	}
	if err := h.backends.Logs.Clear(ctx, feedIDs); err != nil {
		renderErr(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func (h *Handler) unreadCounts(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "unread-counts")
	defer span.Finish()
	counts, err := h.backends.Stats.UnreadCounts(ctx)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	out := make(map[string]int, len(counts))
	for id, n := range counts {
		out[id.String()] = n
	}
	render.JSON(w, r, out)
}

func (h *Handler) usedFlagColors(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "used-flag-colors")
	defer span.Finish()
	colors, err := h.backends.Stats.UsedFlagColors(ctx)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, colors)
}
