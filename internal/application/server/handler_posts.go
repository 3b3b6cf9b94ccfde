package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/zapfr/engine/internal/database"
	"github.com/zapfr/engine/internal/entity"
)

var errInvalidFlagColor = errors.New("unknown flag color")

// postFilterFromQuery builds a database.PostFilter from the listing query
// string, mirroring the filter composition rules of spec §4.6.
func postFilterFromQuery(r *http.Request) *database.PostFilter {
	q := r.URL.Query()
	f := &database.PostFilter{
		FeedIDs:        q["feedId"],
		ScriptFolderID: q.Get("scriptFolderId"),
		ShowOnlyUnread: q.Get("unreadOnly") == "true",
		SearchFilter:   q.Get("search"),
		FlagColor:      entity.FlagColor(q.Get("flagColor")),
		CategoryTitle:  q.Get("category"),
	}
	if p, err := strconv.Atoi(q.Get("page")); err == nil {
		f.Page = p
	}
	if pp, err := strconv.Atoi(q.Get("perPage")); err == nil {
		f.PerPage = pp
	}
	return f
}

type postListResponseBody struct {
	Total int            `json:"total"`
	Posts []*entity.Post `json:"posts"`
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "list-posts")
	defer span.Finish()
	filter := postFilterFromQuery(r)
	total, posts, err := h.backends.Posts.List(ctx, filter)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, postListResponseBody{Total: total, Posts: posts})
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "get-post")
	defer span.Finish()
	id, ok := uuidParam(w, r, "post_id")
	if !ok {
		return
	}
	p, err := h.backends.Posts.Get(ctx, id)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	render.JSON(w, r, p)
}

type markPostsReadRequestBody struct {
	FeedIDs   []string `json:"feedIds,omitempty"`
	MaxPostID uint64   `json:"maxPostId"`
	IsRead    bool     `json:"isRead"`
}

type markPostsReadResponseBody struct {
	AffectedFeedIDs []string `json:"affectedFeedIds"`
}

// markPostsRead is the bulk read endpoint (spec §4.11): it marks every
// post matching the supplied feed scope, bounded by maxPostId, as read (or
// unread).
func (h *Handler) markPostsRead(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "mark-posts-read")
	defer span.Finish()
	var body markPostsReadRequestBody
	if !decodeBody(w, r, &body) {
		return
	}
	filter := &database.PostFilter{FeedIDs: body.FeedIDs}
	affected, err := h.backends.Posts.MarkAsRead(ctx, filter, body.MaxPostID, body.IsRead)
	if err != nil {
		renderErr(w, r, err)
		return
	}
	out := make([]string, len(affected))
	for i, id := range affected {
		out[i] = id.String()
	}
	render.JSON(w, r, markPostsReadResponseBody{AffectedFeedIDs: out})
}

type setFlagRequestBody struct {
	Color entity.FlagColor `json:"color"`
	On    bool             `json:"on"`
}

func (h *Handler) setPostFlag(w http.ResponseWriter, r *http.Request) {
	span, ctx := h.setupTracingSpan(r, "set-post-flag")
	defer span.Finish()
	id, ok := uuidParam(w, r, "post_id")
	if !ok {
		return
	}
	var body setFlagRequestBody
	if !decodeBody(w, r, &body) {
		return
	}
	if !body.Color.Valid() {
		ErrInvalidRequest(errInvalidFlagColor).Render(w, r)
		return
	}
	if err := h.backends.Posts.SetFlag(ctx, id, body.Color, body.On); err != nil {
		renderErr(w, r, err)
		return
	}
	render.NoContent(w, r)
}
