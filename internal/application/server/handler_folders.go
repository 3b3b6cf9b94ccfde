package server

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/gofrs/uuid"
	"github.com/opentracing/opentracing-go/ext"

	"github.com/zapfr/engine/internal/entity"
	"github.com/zapfr/engine/internal/validate"
)

func (h *Handler) getFolder(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "get-folder")
	defer span.Finish()
	id, ok := uuidParam(w, r, "folder_id")
	if !ok {
		return
	}
	f, err := h.backends.Folders.Get(ctx, id)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, f)
}

func (h *Handler) listFoldersBySource(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "list-folders-by-source")
	defer span.Finish()
	sourceID, ok := uuidParam(w, r, "source_id")
	if !ok {
		return
	}
	folders, err := h.backends.Folders.ListBySource(ctx, sourceID)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, folders)
}

func (h *Handler) createFolder(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "create-folder")
	defer span.Finish()
	var f entity.Folder
	if !decodeBody(w, r, &f) {
		return
	}
	if err := validate.Folder(&f); err != nil {
		renderErr(w, r, err)
		return
	}
	if err := h.backends.Folders.Create(ctx, &f); err != nil {
		renderErr(w, r, err)
		return
	}
	ext.HTTPStatusCode.Set(span, http.StatusCreated)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, &f)
}

func (h *Handler) updateFolder(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "update-folder")
	defer span.Finish()
	id, ok := uuidParam(w, r, "folder_id")
	if !ok {
		return
	}
	var f entity.Folder
	if !decodeBody(w, r, &f) {
		return
	}
	f.ID = id
	if err := validate.Folder(&f); err != nil {
		renderErr(w, r, err)
		return
	}
	if err := h.backends.Folders.Update(ctx, &f); err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, &f)
}

func (h *Handler) deleteFolder(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "delete-folder")
	defer span.Finish()
	id, ok := uuidParam(w, r, "folder_id")
	if !ok {
		return
	}
	if err := h.backends.Folders.Delete(ctx, id); err != nil {
		renderErr(w, r, err)
		return
	}
	render.NoContent(w, r)
}

type sortFolderRequestBody struct {
	FeedIDs []string `json:"feedIds"`
}

func (h *Handler) sortFolder(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "sort-folder")
	defer span.Finish()
	id, ok := uuidParam(w, r, "folder_id")
	if !ok {
		return
	}
	var body sortFolderRequestBody
	if !decodeBody(w, r, &body) {
		return
	}
	feedIDs := make([]uuid.UUID, 0, len(body.FeedIDs))
	for _, s := range body.FeedIDs {
		fid, err := uuid.FromString(s)
		if err != nil {
			ErrInvalidRequest(err).Render(w, r)
			return
		}
		feedIDs = append(feedIDs, fid)
	}
	if err := h.backends.Folders.Sort(ctx, id, feedIDs); err != nil {
		renderErr(w, r, err)
		return
	}
	render.NoContent(w, r)
}
