// Package remote realises the C6 backend interfaces (internal/backend) over
// apiclient, the C11 HTTP API, for a Source whose Type is "remote" (spec
// §4.6/§4.11 DESIGN NOTES: "selected by the owning Source's Type").
//
// Grounded on the teacher's apiclient/client.go consumer shape; these types
// are pure delegation, mirroring internal/backend's Local* counterparts
// method-for-method so either can sit behind the same interface.
package remote

import (
	"context"

	"github.com/gofrs/uuid"

	"github.com/zapfr/engine/apiclient"
	"github.com/zapfr/engine/internal/database"
	"github.com/zapfr/engine/internal/entity"
)

// FeedBackend realises backend.FeedBackend against a remote zapfrd instance.
type FeedBackend struct{ Client *apiclient.Client }

func (b *FeedBackend) Get(ctx context.Context, id uuid.UUID) (*entity.Feed, error) {
	return b.Client.GetFeed(ctx, id)
}
func (b *FeedBackend) ListByFolder(ctx context.Context, folderID uuid.UUID) ([]*entity.Feed, error) {
	return b.Client.ListFeedsByFolder(ctx, folderID)
}
func (b *FeedBackend) ListBySource(ctx context.Context, sourceID uuid.UUID) ([]*entity.Feed, error) {
	return b.Client.ListFeedsBySource(ctx, sourceID)
}
func (b *FeedBackend) Subscribe(ctx context.Context, f *entity.Feed) error {
	return b.Client.SubscribeFeed(ctx, f)
}
func (b *FeedBackend) Update(ctx context.Context, f *entity.Feed) error {
	return b.Client.UpdateFeed(ctx, f)
}
func (b *FeedBackend) Move(ctx context.Context, id, parentFolderID uuid.UUID, sortOrder int) error {
	return b.Client.MoveFeed(ctx, id, parentFolderID, sortOrder)
}
func (b *FeedBackend) Delete(ctx context.Context, id uuid.UUID) error {
	return b.Client.DeleteFeed(ctx, id)
}
func (b *FeedBackend) MarkAsRead(ctx context.Context, id uuid.UUID, maxPostID uint64) error {
	return b.Client.MarkFeedRead(ctx, id, maxPostID)
}

// FolderBackend realises backend.FolderBackend against a remote zapfrd instance.
type FolderBackend struct{ Client *apiclient.Client }

func (b *FolderBackend) Get(ctx context.Context, id uuid.UUID) (*entity.Folder, error) {
	return b.Client.GetFolder(ctx, id)
}
func (b *FolderBackend) ListBySource(ctx context.Context, sourceID uuid.UUID) ([]*entity.Folder, error) {
	return b.Client.ListFoldersBySource(ctx, sourceID)
}
func (b *FolderBackend) Create(ctx context.Context, f *entity.Folder) error {
	return b.Client.CreateFolder(ctx, f)
}
func (b *FolderBackend) Update(ctx context.Context, f *entity.Folder) error {
	return b.Client.UpdateFolder(ctx, f)
}
func (b *FolderBackend) Delete(ctx context.Context, id uuid.UUID) error {
	return b.Client.DeleteFolder(ctx, id)
}
func (b *FolderBackend) Sort(ctx context.Context, id uuid.UUID, feedIDs []uuid.UUID) error {
	return b.Client.SortFolder(ctx, id, feedIDs)
}

// PostBackend realises backend.PostBackend against a remote zapfrd instance.
type PostBackend struct{ Client *apiclient.Client }

func (b *PostBackend) Get(ctx context.Context, id uuid.UUID) (*entity.Post, error) {
	return b.Client.GetPost(ctx, id)
}
func (b *PostBackend) List(ctx context.Context, filter *database.PostFilter) (int, []*entity.Post, error) {
	return b.Client.ListPosts(ctx, filter)
}
func (b *PostBackend) MarkAsRead(ctx context.Context, filter *database.PostFilter, maxPostID uint64, isRead bool) ([]uuid.UUID, error) {
	return b.Client.MarkPostsRead(ctx, filter, maxPostID, isRead)
}
func (b *PostBackend) SetFlag(ctx context.Context, id uuid.UUID, color entity.FlagColor, on bool) error {
	return b.Client.SetPostFlag(ctx, id, color, on)
}

// SourceBackend realises backend.SourceBackend against a remote zapfrd instance.
type SourceBackend struct{ Client *apiclient.Client }

func (b *SourceBackend) Get(ctx context.Context, id uuid.UUID) (*entity.Source, error) {
	return b.Client.GetSource(ctx, id)
}
func (b *SourceBackend) List(ctx context.Context) ([]*entity.Source, error) {
	return b.Client.ListSources(ctx)
}
func (b *SourceBackend) Create(ctx context.Context, s *entity.Source) error {
	return b.Client.CreateSource(ctx, s)
}
func (b *SourceBackend) Update(ctx context.Context, s *entity.Source) error {
	return b.Client.UpdateSource(ctx, s)
}
func (b *SourceBackend) Delete(ctx context.Context, id uuid.UUID) error {
	return b.Client.DeleteSource(ctx, id)
}

// ScriptBackend realises backend.ScriptBackend against a remote zapfrd instance.
type ScriptBackend struct{ Client *apiclient.Client }

func (b *ScriptBackend) Get(ctx context.Context, id uuid.UUID) (*entity.Script, error) {
	return b.Client.GetScript(ctx, id)
}
func (b *ScriptBackend) ListBySource(ctx context.Context, sourceID uuid.UUID) ([]*entity.Script, error) {
	return b.Client.ListScriptsBySource(ctx, sourceID)
}
func (b *ScriptBackend) Create(ctx context.Context, s *entity.Script) error {
	return b.Client.CreateScript(ctx, s)
}
func (b *ScriptBackend) Update(ctx context.Context, s *entity.Script) error {
	return b.Client.UpdateScript(ctx, s)
}
func (b *ScriptBackend) Delete(ctx context.Context, id uuid.UUID) error {
	return b.Client.DeleteScript(ctx, id)
}

// ScriptFolderBackend realises backend.ScriptFolderBackend against a remote zapfrd instance.
type ScriptFolderBackend struct{ Client *apiclient.Client }

func (b *ScriptFolderBackend) Get(ctx context.Context, id uuid.UUID) (*entity.ScriptFolder, error) {
	return b.Client.GetScriptFolder(ctx, id)
}
func (b *ScriptFolderBackend) ListBySource(ctx context.Context, sourceID uuid.UUID) ([]*entity.ScriptFolder, error) {
	return b.Client.ListScriptFoldersBySource(ctx, sourceID)
}
func (b *ScriptFolderBackend) Create(ctx context.Context, sf *entity.ScriptFolder) error {
	return b.Client.CreateScriptFolder(ctx, sf)
}
func (b *ScriptFolderBackend) Update(ctx context.Context, sf *entity.ScriptFolder) error {
	return b.Client.UpdateScriptFolder(ctx, sf)
}
func (b *ScriptFolderBackend) Delete(ctx context.Context, id uuid.UUID) error {
	return b.Client.DeleteScriptFolder(ctx, id)
}
func (b *ScriptFolderBackend) AssignPost(ctx context.Context, scriptFolderID, postID uuid.UUID, assign bool) error {
	return b.Client.AssignPostsToScriptFolder(ctx, scriptFolderID, []uuid.UUID{postID}, assign)
}
func (b *ScriptFolderBackend) MarkAsRead(ctx context.Context, scriptFolderID uuid.UUID, maxPostID uint64) ([]uuid.UUID, error) {
	return b.Client.MarkScriptFolderRead(ctx, scriptFolderID, maxPostID)
}

// StatsBackend realises backend.StatsBackend against a remote zapfrd instance.
type StatsBackend struct{ Client *apiclient.Client }

func (b *StatsBackend) UnreadCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	return b.Client.UnreadCounts(ctx)
}
func (b *StatsBackend) UsedFlagColors(ctx context.Context) ([]entity.FlagColor, error) {
	return b.Client.UsedFlagColors(ctx)
}

// LogBackend realises backend.LogBackend against a remote zapfrd instance.
type LogBackend struct{ Client *apiclient.Client }

func (b *LogBackend) List(ctx context.Context, filter *database.LogFilter) (int, []*entity.Log, error) {
	return b.Client.ListLogs(ctx, filter)
}
func (b *LogBackend) Clear(ctx context.Context, feedIDs []string) error {
	return b.Client.ClearLogs(ctx, feedIDs)
}
