package server

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/opentracing/opentracing-go/ext"

	"github.com/zapfr/engine/internal/entity"
	"github.com/zapfr/engine/internal/validate"
)

func (h *Handler) getScript(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "get-script")
	defer span.Finish()
	id, ok := uuidParam(w, r, "script_id")
	if !ok {
		return
	}
	s, err := h.backends.Scripts.Get(ctx, id)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, s)
}

func (h *Handler) createScript(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "create-script")
	defer span.Finish()
	var s entity.Script
	if !decodeBody(w, r, &s) {
		return
	}
	if err := validate.Script(&s); err != nil {
		renderErr(w, r, err)
		return
	}
	if err := h.backends.Scripts.Create(ctx, &s); err != nil {
		renderErr(w, r, err)
		return
	}
	ext.HTTPStatusCode.Set(span, http.StatusCreated)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, &s)
}

func (h *Handler) updateScript(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "update-script")
	defer span.Finish()
	id, ok := uuidParam(w, r, "script_id")
	if !ok {
		return
	}
	var s entity.Script
	if !decodeBody(w, r, &s) {
		return
	}
	s.ID = id
	if err := validate.Script(&s); err != nil {
		renderErr(w, r, err)
		return
	}
	if err := h.backends.Scripts.Update(ctx, &s); err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, &s)
}

func (h *Handler) deleteScript(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "delete-script")
	defer span.Finish()
	id, ok := uuidParam(w, r, "script_id")
	if !ok {
		return
	}
	if err := h.backends.Scripts.Delete(ctx, id); err != nil {
		renderErr(w, r, err)
		return
	}
	render.NoContent(w, r)
}
