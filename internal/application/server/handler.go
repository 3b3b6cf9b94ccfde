package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/gofrs/uuid"

	"github.com/zapfr/engine/internal/agent"
	"github.com/zapfr/engine/internal/apperror"
	"github.com/zapfr/engine/internal/refresh"
)

// Handler provides http handlers for every C11 operation, dispatching to
// the backend set selected for the request (spec §4.6 Local/Remote
// strategy happens one layer below, in how Backends was built).
type Handler struct {
	logger     Logger
	tracer     opentracing.Tracer
	backends   Backends
	pipeline   *refresh.Pipeline
	jobAgent   *agent.Agent
	apiVersion string
}

// NewHandler creates the http handler.
func NewHandler(logger Logger, tracer opentracing.Tracer, backends Backends, pipeline *refresh.Pipeline, jobAgent *agent.Agent, apiVersion string) *Handler {
	return &Handler{
		logger:     logger,
		tracer:     tracer,
		backends:   backends,
		pipeline:   pipeline,
		jobAgent:   jobAgent,
		apiVersion: apiVersion,
	}
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("."))
}

// AboutResponseBody is the C11 About response.
type AboutResponseBody struct {
	APIVersion string `json:"apiVersion"`
	Engine     string `json:"engine"`
}

func (h *Handler) about(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, AboutResponseBody{APIVersion: h.apiVersion, Engine: "zapfr"})
}

func (h *Handler) setupTracingSpan(r *http.Request, name string) (opentracing.Span, context.Context) {
	spanContext, _ := h.tracer.Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(r.Header))
	span := h.tracer.StartSpan(name, ext.RPCServerOption(spanContext))
	ctx := opentracing.ContextWithSpan(r.Context(), span)
	ext.Component.Set(span, "httpServer-chi")
	ext.HTTPMethod.Set(span, r.Method)
	ext.HTTPUrl.Set(span, r.URL.String())
	return span, ctx
}

// uuidParam extracts and parses a chi URL param as a UUID, rendering
// ErrInvalidRequest and returning ok=false on failure.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(chi.URLParam(r, name))
	if err != nil {
		ErrInvalidRequest(err).Render(w, r)
		return uuid.Nil, false
	}
	return id, true
}

// decodeBody JSON-decodes the request body into dst, rendering
// ErrInvalidRequest and returning ok=false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		ErrInvalidRequest(err).Render(w, r)
		return false
	}
	return true
}

// renderErr maps a backend/database error to the right ErrResponse by kind.
func renderErr(w http.ResponseWriter, r *http.Request, err error) {
	if apperror.Is(err, apperror.KindNotFound) {
		ErrNotFound.Render(w, r)
		return
	}
	if apperror.Is(err, apperror.KindConstraintViolation) {
		ErrInvalidRequest(err).Render(w, r)
		return
	}
	ErrInternal(err).Render(w, r)
}
