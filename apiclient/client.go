// Package apiclient is the typed HTTP client for the C11 remote API (spec
// §4.11), used by internal/backend/remote to let a Source of type "remote"
// delegate every domain operation to another zapfrd instance.
//
// Grounded on the teacher's apiclient/client.go: one typed method per
// endpoint, a shared ErrResponseBody decode path on non-2xx, gofrs/uuid path
// parameters. Generalized from the teacher's single /feeds CRUD resource to
// the full endpoint table.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gofrs/uuid"

	"github.com/zapfr/engine/internal/application/server"
	"github.com/zapfr/engine/internal/database"
	"github.com/zapfr/engine/internal/entity"
)

// Client is the typed RPC surface for a remote zapfrd instance.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	login      string
	password   string
}

// New creates a remote API client rooted at baseURL.
func New(baseURL, login, password string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: time.Minute},
		login:      login,
		password:   password,
	}, nil
}

func (c *Client) resolve(pathFmt string, args ...any) *url.URL {
	rel := &url.URL{Path: fmt.Sprintf(pathFmt, args...)}
	return c.baseURL.ResolveReference(rel)
}

// do performs method against u, marshalling reqBody (if non-nil) as the
// request body and decoding the response into out (if non-nil). A non-2xx
// status decodes server.ErrResponseBody, matching the teacher's client.
func (c *Client) do(ctx context.Context, method string, u *url.URL, reqBody, out any) error {
	var body bytes.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = *bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), &body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.login != "" {
		req.SetBasicAuth(c.login, c.password)
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusBadRequest {
		var errRes server.ErrResponseBody
		if jerr := json.NewDecoder(res.Body).Decode(&errRes); jerr == nil && errRes.ErrorText != "" {
			return errors.New(errRes.ErrorText)
		}
		return fmt.Errorf("unknown error, status code: %d", res.StatusCode)
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// AboutInfo is the C11 "About" response (engine name and API version).
type AboutInfo struct {
	APIVersion string `json:"apiVersion"`
	Engine     string `json:"engine"`
}

func (c *Client) About(ctx context.Context) (AboutInfo, error) {
	var out AboutInfo
	err := c.do(ctx, http.MethodGet, c.resolve("/about"), nil, &out)
	return out, err
}

// --- Feeds ---

func (c *Client) GetFeed(ctx context.Context, id uuid.UUID) (*entity.Feed, error) {
	var out entity.Feed
	if err := c.do(ctx, http.MethodGet, c.resolve("/feeds/%s", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListFeedsBySource(ctx context.Context, sourceID uuid.UUID) ([]*entity.Feed, error) {
	var out []*entity.Feed
	err := c.do(ctx, http.MethodGet, c.resolve("/sources/%s/feeds", sourceID), nil, &out)
	return out, err
}

func (c *Client) ListFeedsByFolder(ctx context.Context, folderID uuid.UUID) ([]*entity.Feed, error) {
	var out []*entity.Feed
	err := c.do(ctx, http.MethodGet, c.resolve("/folders/%s/feeds", folderID), nil, &out)
	return out, err
}

func (c *Client) SubscribeFeed(ctx context.Context, f *entity.Feed) error {
	return c.do(ctx, http.MethodPost, c.resolve("/feeds"), f, f)
}

func (c *Client) UpdateFeed(ctx context.Context, f *entity.Feed) error {
	return c.do(ctx, http.MethodPut, c.resolve("/feeds/%s", f.ID), f, nil)
}

type moveFeedRequest struct {
	FolderID  uuid.UUID `json:"folderId"`
	SortOrder int       `json:"sortOrder"`
}

func (c *Client) MoveFeed(ctx context.Context, id, folderID uuid.UUID, sortOrder int) error {
	return c.do(ctx, http.MethodPost, c.resolve("/feeds/%s/move", id), moveFeedRequest{FolderID: folderID, SortOrder: sortOrder}, nil)
}

func (c *Client) DeleteFeed(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, c.resolve("/feeds/%s", id), nil, nil)
}

// RefreshResult reports the outcome of a remote refresh, including the
// feed's unread count as recomputed by the peer's pipeline.
type RefreshResult struct {
	Success     bool   `json:"success"`
	UnreadCount int    `json:"unreadCount"`
	Error       string `json:"error,omitempty"`
}

func (c *Client) RefreshFeed(ctx context.Context, id uuid.UUID) (RefreshResult, error) {
	var out RefreshResult
	err := c.do(ctx, http.MethodPost, c.resolve("/feeds/%s/refresh", id), nil, &out)
	return out, err
}

type markReadRequest struct {
	MaxPostID uint64 `json:"maxPostId"`
}

func (c *Client) MarkFeedRead(ctx context.Context, id uuid.UUID, maxPostID uint64) error {
	return c.do(ctx, http.MethodPost, c.resolve("/feeds/%s/read", id), markReadRequest{MaxPostID: maxPostID}, nil)
}

// --- Folders ---

func (c *Client) GetFolder(ctx context.Context, id uuid.UUID) (*entity.Folder, error) {
	var out entity.Folder
	if err := c.do(ctx, http.MethodGet, c.resolve("/folders/%s", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListFoldersBySource(ctx context.Context, sourceID uuid.UUID) ([]*entity.Folder, error) {
	var out []*entity.Folder
	err := c.do(ctx, http.MethodGet, c.resolve("/sources/%s/folders", sourceID), nil, &out)
	return out, err
}

func (c *Client) CreateFolder(ctx context.Context, f *entity.Folder) error {
	return c.do(ctx, http.MethodPost, c.resolve("/folders"), f, f)
}

func (c *Client) UpdateFolder(ctx context.Context, f *entity.Folder) error {
	return c.do(ctx, http.MethodPut, c.resolve("/folders/%s", f.ID), f, nil)
}

func (c *Client) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, c.resolve("/folders/%s", id), nil, nil)
}

type sortFolderRequest struct {
	FeedIDs []uuid.UUID `json:"feedIds"`
}

func (c *Client) SortFolder(ctx context.Context, id uuid.UUID, feedIDs []uuid.UUID) error {
	return c.do(ctx, http.MethodPost, c.resolve("/folders/%s/sort", id), sortFolderRequest{FeedIDs: feedIDs}, nil)
}

// --- Posts ---

// postFilterQuery serializes a database.PostFilter as URL query parameters.
func postFilterQuery(f *database.PostFilter) url.Values {
	q := url.Values{}
	for _, id := range f.FeedIDs {
		q.Add("feedId", id)
	}
	if f.ScriptFolderID != "" {
		q.Set("scriptFolderId", f.ScriptFolderID)
	}
	if f.ShowOnlyUnread {
		q.Set("unreadOnly", "true")
	}
	if f.SearchFilter != "" {
		q.Set("search", f.SearchFilter)
	}
	if f.FlagColor.IsFilter() {
		q.Set("flagColor", string(f.FlagColor))
	}
	if f.CategoryTitle != "" {
		q.Set("category", f.CategoryTitle)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage > 0 {
		q.Set("perPage", strconv.Itoa(f.PerPage))
	}
	return q
}

type postListResponse struct {
	Total int            `json:"total"`
	Posts []*entity.Post `json:"posts"`
}

func (c *Client) ListPosts(ctx context.Context, filter *database.PostFilter) (int, []*entity.Post, error) {
	u := c.resolve("/posts")
	u.RawQuery = postFilterQuery(filter).Encode()
	var out postListResponse
	if err := c.do(ctx, http.MethodGet, u, nil, &out); err != nil {
		return 0, nil, err
	}
	return out.Total, out.Posts, nil
}

func (c *Client) GetPost(ctx context.Context, id uuid.UUID) (*entity.Post, error) {
	var out entity.Post
	if err := c.do(ctx, http.MethodGet, c.resolve("/posts/%s", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type markPostsReadRequest struct {
	FeedIDs   []string `json:"feedIds,omitempty"`
	MaxPostID uint64   `json:"maxPostId"`
	IsRead    bool     `json:"isRead"`
}

type markPostsReadResponse struct {
	AffectedFeedIDs []uuid.UUID `json:"affectedFeedIds"`
}

func (c *Client) MarkPostsRead(ctx context.Context, filter *database.PostFilter, maxPostID uint64, isRead bool) ([]uuid.UUID, error) {
	var out markPostsReadResponse
	req := markPostsReadRequest{FeedIDs: filter.FeedIDs, MaxPostID: maxPostID, IsRead: isRead}
	if err := c.do(ctx, http.MethodPost, c.resolve("/posts/read"), req, &out); err != nil {
		return nil, err
	}
	return out.AffectedFeedIDs, nil
}

type setFlagRequest struct {
	Color entity.FlagColor `json:"color"`
	On    bool             `json:"on"`
}

func (c *Client) SetPostFlag(ctx context.Context, id uuid.UUID, color entity.FlagColor, on bool) error {
	return c.do(ctx, http.MethodPost, c.resolve("/posts/%s/flags", id), setFlagRequest{Color: color, On: on}, nil)
}

// --- Sources ---

func (c *Client) GetSource(ctx context.Context, id uuid.UUID) (*entity.Source, error) {
	var out entity.Source
	if err := c.do(ctx, http.MethodGet, c.resolve("/sources/%s", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListSources(ctx context.Context) ([]*entity.Source, error) {
	var out []*entity.Source
	err := c.do(ctx, http.MethodGet, c.resolve("/sources"), nil, &out)
	return out, err
}

func (c *Client) CreateSource(ctx context.Context, s *entity.Source) error {
	return c.do(ctx, http.MethodPost, c.resolve("/sources"), s, s)
}

func (c *Client) UpdateSource(ctx context.Context, s *entity.Source) error {
	return c.do(ctx, http.MethodPut, c.resolve("/sources/%s", s.ID), s, nil)
}

func (c *Client) DeleteSource(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, c.resolve("/sources/%s", id), nil, nil)
}

func (c *Client) MarkSourceRead(ctx context.Context, id uuid.UUID, maxPostID uint64) error {
	return c.do(ctx, http.MethodPost, c.resolve("/sources/%s/read", id), markReadRequest{MaxPostID: maxPostID}, nil)
}

// SourceStatus is the C11 source-status response: last refresh outcome and
// connectivity state for a remote/local source.
type SourceStatus struct {
	SourceID  uuid.UUID `json:"sourceId"`
	Reachable bool      `json:"reachable"`
	LastError string    `json:"lastError,omitempty"`
}

func (c *Client) SourceStatusOf(ctx context.Context, id uuid.UUID) (SourceStatus, error) {
	var out SourceStatus
	err := c.do(ctx, http.MethodGet, c.resolve("/sources/%s/status", id), nil, &out)
	return out, err
}

// --- ScriptFolders ---

func (c *Client) GetScriptFolder(ctx context.Context, id uuid.UUID) (*entity.ScriptFolder, error) {
	var out entity.ScriptFolder
	if err := c.do(ctx, http.MethodGet, c.resolve("/scriptfolders/%s", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListScriptFoldersBySource(ctx context.Context, sourceID uuid.UUID) ([]*entity.ScriptFolder, error) {
	var out []*entity.ScriptFolder
	err := c.do(ctx, http.MethodGet, c.resolve("/sources/%s/scriptfolders", sourceID), nil, &out)
	return out, err
}

func (c *Client) CreateScriptFolder(ctx context.Context, sf *entity.ScriptFolder) error {
	return c.do(ctx, http.MethodPost, c.resolve("/scriptfolders"), sf, sf)
}

func (c *Client) UpdateScriptFolder(ctx context.Context, sf *entity.ScriptFolder) error {
	return c.do(ctx, http.MethodPut, c.resolve("/scriptfolders/%s", sf.ID), sf, nil)
}

func (c *Client) DeleteScriptFolder(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, c.resolve("/scriptfolders/%s", id), nil, nil)
}

type assignPostsRequest struct {
	PostIDs []uuid.UUID `json:"postIds"`
	Assign  bool        `json:"assign"`
}

func (c *Client) AssignPostsToScriptFolder(ctx context.Context, scriptFolderID uuid.UUID, postIDs []uuid.UUID, assign bool) error {
	return c.do(ctx, http.MethodPost, c.resolve("/scriptfolders/%s/assign", scriptFolderID), assignPostsRequest{PostIDs: postIDs, Assign: assign}, nil)
}

func (c *Client) MarkScriptFolderRead(ctx context.Context, scriptFolderID uuid.UUID, maxPostID uint64) ([]uuid.UUID, error) {
	var out markPostsReadResponse
	if err := c.do(ctx, http.MethodPost, c.resolve("/scriptfolders/%s/read", scriptFolderID), markReadRequest{MaxPostID: maxPostID}, &out); err != nil {
		return nil, err
	}
	return out.AffectedFeedIDs, nil
}

// --- Scripts ---

func (c *Client) GetScript(ctx context.Context, id uuid.UUID) (*entity.Script, error) {
	var out entity.Script
	if err := c.do(ctx, http.MethodGet, c.resolve("/scripts/%s", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListScriptsBySource(ctx context.Context, sourceID uuid.UUID) ([]*entity.Script, error) {
	var out []*entity.Script
	err := c.do(ctx, http.MethodGet, c.resolve("/sources/%s/scripts", sourceID), nil, &out)
	return out, err
}

func (c *Client) CreateScript(ctx context.Context, s *entity.Script) error {
	return c.do(ctx, http.MethodPost, c.resolve("/scripts"), s, s)
}

func (c *Client) UpdateScript(ctx context.Context, s *entity.Script) error {
	return c.do(ctx, http.MethodPut, c.resolve("/scripts/%s", s.ID), s, nil)
}

func (c *Client) DeleteScript(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, c.resolve("/scripts/%s", id), nil, nil)
}

// --- Stats & logs ---

func (c *Client) UnreadCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	var raw map[string]int
	if err := c.do(ctx, http.MethodGet, c.resolve("/stats/unread"), nil, &raw); err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(raw))
	for k, v := range raw {
		id, err := uuid.FromString(k)
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}

func (c *Client) UsedFlagColors(ctx context.Context) ([]entity.FlagColor, error) {
	var out []entity.FlagColor
	err := c.do(ctx, http.MethodGet, c.resolve("/stats/flagcolors"), nil, &out)
	return out, err
}

type logListResponse struct {
	Total int           `json:"total"`
	Logs  []*entity.Log `json:"logs"`
}

func logQuery(feedIDs []string) url.Values {
	q := url.Values{}
	for _, id := range feedIDs {
		q.Add("feedId", id)
	}
	return q
}

func (c *Client) ListLogs(ctx context.Context, filter *database.LogFilter) (int, []*entity.Log, error) {
	u := c.resolve("/logs")
	q := url.Values{}
	if filter != nil {
		q = logQuery(filter.FeedIDs)
		if filter.Page > 0 {
			q.Set("page", strconv.Itoa(filter.Page))
		}
		if filter.PerPage > 0 {
			q.Set("perPage", strconv.Itoa(filter.PerPage))
		}
	}
	u.RawQuery = q.Encode()
	var out logListResponse
	if err := c.do(ctx, http.MethodGet, u, nil, &out); err != nil {
		return 0, nil, err
	}
	return out.Total, out.Logs, nil
}

func (c *Client) ClearLogs(ctx context.Context, feedIDs []string) error {
	u := c.resolve("/logs")
	u.RawQuery = logQuery(feedIDs).Encode()
	return c.do(ctx, http.MethodDelete, u, nil, nil)
}

// --- OPML import & debug dummy feeds ---

type opmlImportRequest struct {
	SourceID uuid.UUID `json:"sourceId"`
	OPML     string    `json:"opml"`
}

// OPMLImportResult reports how many feeds an OPML import subscribed.
type OPMLImportResult struct {
	FeedsCreated int `json:"feedsCreated"`
}

func (c *Client) ImportOPML(ctx context.Context, sourceID uuid.UUID, opml string) (OPMLImportResult, error) {
	var out OPMLImportResult
	err := c.do(ctx, http.MethodPost, c.resolve("/opml"), opmlImportRequest{SourceID: sourceID, OPML: opml}, &out)
	return out, err
}

// DummyFeedFormat selects one of the debug dummy-feed endpoints, each of which
// serves a known-good document in one wire format (RSS 2.0, Atom 1.0 or
// JSON Feed 1.1).
type DummyFeedFormat string

const (
	DummyFeedRSS20  DummyFeedFormat = "rss20"
	DummyFeedAtom10 DummyFeedFormat = "atom10"
	DummyFeedJSON11 DummyFeedFormat = "json11"
)

func (c *Client) DummyFeed(ctx context.Context, format DummyFeedFormat) (string, error) {
	u := c.resolve("/debug/feeds/%s", format)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unknown error, status code: %d", res.StatusCode)
	}
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(res.Body); err != nil {
		return "", err
	}
	return buf.String(), nil
}
