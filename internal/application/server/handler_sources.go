package server

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/opentracing/opentracing-go/ext"

	"github.com/zapfr/engine/internal/database"
	"github.com/zapfr/engine/internal/entity"
	"github.com/zapfr/engine/internal/validate"
)

func (h *Handler) getSource(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "get-source")
	defer span.Finish()
	id, ok := uuidParam(w, r, "source_id")
	if !ok {
		return
	}
	s, err := h.backends.Sources.Get(ctx, id)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, s)
}

func (h *Handler) listSources(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "list-sources")
	defer span.Finish()
	sources, err := h.backends.Sources.List(ctx)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, sources)
}

func (h *Handler) createSource(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "create-source")
	defer span.Finish()
	var s entity.Source
	if !decodeBody(w, r, &s) {
		return
	}
	if err := validate.Source(&s); err != nil {
		renderErr(w, r, err)
		return
	}
	if err := h.backends.Sources.Create(ctx, &s); err != nil {
		renderErr(w, r, err)
		return
	}
	ext.HTTPStatusCode.Set(span, http.StatusCreated)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, &s)
}

func (h *Handler) updateSource(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "update-source")
	defer span.Finish()
	id, ok := uuidParam(w, r, "source_id")
	if !ok {
		return
	}
	var s entity.Source
	if !decodeBody(w, r, &s) {
		return
	}
	s.ID = id
	if err := validate.Source(&s); err != nil {
		renderErr(w, r, err)
		return
	}
	if err := h.backends.Sources.Update(ctx, &s); err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, &s)
}

func (h *Handler) deleteSource(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "delete-source")
	defer span.Finish()
	id, ok := uuidParam(w, r, "source_id")
	if !ok {
		return
	}
	if err := h.backends.Sources.Delete(ctx, id); err != nil {
		renderErr(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func (h *Handler) markSourceRead(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "mark-source-read")
	defer span.Finish()
	id, ok := uuidParam(w, r, "source_id")
	if !ok {
		return
	}
	var body markReadRequestBody
	if !decodeBody(w, r, &body) {
		return
	}
	feeds, err := h.backends.Feeds.ListBySource(ctx, id)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	if len(feeds) == 0 {
		render.NoContent(w, r)
		return
	}
	filter := &database.PostFilter{}
	for _, feed := range feeds {
		filter.FeedIDs = append(filter.FeedIDs, feed.ID.String())
	}
	if _, err := h.backends.Posts.MarkAsRead(ctx, filter, body.MaxPostID, true); err != nil {
		renderErr(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func (h *Handler) listScriptsBySource(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "list-scripts-by-source")
	defer span.Finish()
	sourceID, ok := uuidParam(w, r, "source_id")
	if !ok {
		return
	}
	scripts, err := h.backends.Scripts.ListBySource(ctx, sourceID)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, scripts)
}

func (h *Handler) listScriptFoldersBySource(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "list-scriptfolders-by-source")
	defer span.Finish()
	sourceID, ok := uuidParam(w, r, "source_id")
	if !ok {
		return
	}
	scriptFolders, err := h.backends.ScriptFolders.ListBySource(ctx, sourceID)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, scriptFolders)
}

// sourceStatusResponseBody is the C11 source-status response: connectivity
// state derived from the source's own LastError bookkeeping.
type sourceStatusResponseBody struct {
	SourceID  string `json:"sourceId"`
	Reachable bool   `json:"reachable"`
	LastError string `json:"lastError,omitempty"`
}

func (h *Handler) sourceStatus(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "source-status")
	defer span.Finish()
	id, ok := uuidParam(w, r, "source_id")
	if !ok {
		return
	}
	s, err := h.backends.Sources.Get(ctx, id)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, sourceStatusResponseBody{
		SourceID:  s.ID.String(),
		Reachable: s.LastError == "",
		LastError: s.LastError,
	})
}
