package server

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/gofrs/uuid"
	"github.com/opentracing/opentracing-go/ext"

	"github.com/zapfr/engine/internal/entity"
	"github.com/zapfr/engine/internal/validate"
)

func (h *Handler) getScriptFolder(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "get-scriptfolder")
	defer span.Finish()
	id, ok := uuidParam(w, r, "scriptfolder_id")
	if !ok {
		return
	}
	sf, err := h.backends.ScriptFolders.Get(ctx, id)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, sf)
}

func (h *Handler) createScriptFolder(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "create-scriptfolder")
	defer span.Finish()
	var sf entity.ScriptFolder
	if !decodeBody(w, r, &sf) {
		return
	}
	if err := validate.ScriptFolder(&sf); err != nil {
		renderErr(w, r, err)
		return
	}
	if err := h.backends.ScriptFolders.Create(ctx, &sf); err != nil {
		renderErr(w, r, err)
		return
	}
	ext.HTTPStatusCode.Set(span, http.StatusCreated)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, &sf)
}

func (h *Handler) updateScriptFolder(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "update-scriptfolder")
	defer span.Finish()
	id, ok := uuidParam(w, r, "scriptfolder_id")
	if !ok {
		return
	}
	var sf entity.ScriptFolder
	if !decodeBody(w, r, &sf) {
		return
	}
	sf.ID = id
	if err := validate.ScriptFolder(&sf); err != nil {
		renderErr(w, r, err)
		return
	}
	if err := h.backends.ScriptFolders.Update(ctx, &sf); err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, &sf)
}

func (h *Handler) deleteScriptFolder(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "delete-scriptfolder")
	defer span.Finish()
	id, ok := uuidParam(w, r, "scriptfolder_id")
	if !ok {
		return
	}
	if err := h.backends.ScriptFolders.Delete(ctx, id); err != nil {
		renderErr(w, r, err)
		return
	}
	render.NoContent(w, r)
}

type assignPostsRequestBody struct {
	PostIDs []string `json:"postIds"`
	Assign  bool     `json:"assign"`
}

// assignPostsToScriptFolder adds or removes post memberships in bulk
// (spec §4.11 /scriptfolder/{id}/assign-posts).
func (h *Handler) assignPostsToScriptFolder(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "assign-posts-to-scriptfolder")
	defer span.Finish()
	id, ok := uuidParam(w, r, "scriptfolder_id")
	if !ok {
		return
	}
	var body assignPostsRequestBody
	if !decodeBody(w, r, &body) {
		return
	}
	for _, raw := range body.PostIDs {
		postID, err := uuid.FromString(raw)
		if err != nil {
			ErrInvalidRequest(err).Render(w, r)
			return
		}
		if err := h.backends.ScriptFolders.AssignPost(ctx, id, postID, body.Assign); err != nil {
			renderErr(w, r, err)
			return
		}
	}
	render.NoContent(w, r)
}

func (h *Handler) markScriptFolderRead(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "mark-scriptfolder-read")
	defer span.Finish()
	id, ok := uuidParam(w, r, "scriptfolder_id")
	if !ok {
		return
	}
	var body markReadRequestBody
	if !decodeBody(w, r, &body) {
		return
	}
	affected, err := h.backends.ScriptFolders.MarkAsRead(ctx, id, body.MaxPostID)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	out := make([]string, len(affected))
	for i, fid := range affected {
		out[i] = fid.String()
	}
	render.JSON(w, r, markPostsReadResponseBody{AffectedFeedIDs: out})
}
