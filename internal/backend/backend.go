// Package backend implements the C6 domain-entity strategy of spec §4.6:
// one interface per entity kind, with a Local realisation (this package,
// wrapping internal/database) and a Remote realisation
// (internal/backend/remote, wrapping apiclient) selected by the owning
// Source's Type.
//
// Grounded on DESIGN NOTES §9's "single entity + backend strategy instead
// of class hierarchies" requirement; the Local implementations are thin
// pass-throughs onto *database.Repository, matching the teacher's
// repository-as-single-source-of-truth shape.
package backend

import (
	"context"

	"github.com/gofrs/uuid"

	"github.com/zapfr/engine/internal/database"
	"github.com/zapfr/engine/internal/entity"
)

// FeedBackend is the C6 Feed contract, realised locally or remotely.
type FeedBackend interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.Feed, error)
	ListByFolder(ctx context.Context, folderID uuid.UUID) ([]*entity.Feed, error)
	ListBySource(ctx context.Context, sourceID uuid.UUID) ([]*entity.Feed, error)
	Subscribe(ctx context.Context, f *entity.Feed) error
	Update(ctx context.Context, f *entity.Feed) error
	Move(ctx context.Context, id, parentFolderID uuid.UUID, sortOrder int) error
	Delete(ctx context.Context, id uuid.UUID) error
	MarkAsRead(ctx context.Context, id uuid.UUID, maxPostID uint64) error
}

// FolderBackend is the C6 Folder contract.
type FolderBackend interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.Folder, error)
	ListBySource(ctx context.Context, sourceID uuid.UUID) ([]*entity.Folder, error)
	Create(ctx context.Context, f *entity.Folder) error
	Update(ctx context.Context, f *entity.Folder) error
	Delete(ctx context.Context, id uuid.UUID) error
	Sort(ctx context.Context, id uuid.UUID, feedIDs []uuid.UUID) error
}

// PostBackend is the C6 Post contract, including the shared filter
// composition of spec §4.6.
type PostBackend interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.Post, error)
	List(ctx context.Context, filter *database.PostFilter) (total int, posts []*entity.Post, err error)
	MarkAsRead(ctx context.Context, filter *database.PostFilter, maxPostID uint64, isRead bool) (affectedFeedIDs []uuid.UUID, err error)
	SetFlag(ctx context.Context, id uuid.UUID, color entity.FlagColor, on bool) error
}

// SourceBackend is the C6 Source contract.
type SourceBackend interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.Source, error)
	List(ctx context.Context) ([]*entity.Source, error)
	Create(ctx context.Context, s *entity.Source) error
	Update(ctx context.Context, s *entity.Source) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ScriptBackend is the C6 Script contract.
type ScriptBackend interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.Script, error)
	ListBySource(ctx context.Context, sourceID uuid.UUID) ([]*entity.Script, error)
	Create(ctx context.Context, s *entity.Script) error
	Update(ctx context.Context, s *entity.Script) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ScriptFolderBackend is the C6 ScriptFolder contract.
type ScriptFolderBackend interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.ScriptFolder, error)
	ListBySource(ctx context.Context, sourceID uuid.UUID) ([]*entity.ScriptFolder, error)
	Create(ctx context.Context, sf *entity.ScriptFolder) error
	Update(ctx context.Context, sf *entity.ScriptFolder) error
	Delete(ctx context.Context, id uuid.UUID) error
	AssignPost(ctx context.Context, scriptFolderID, postID uuid.UUID, assign bool) error
	MarkAsRead(ctx context.Context, scriptFolderID uuid.UUID, maxPostID uint64) (affectedFeedIDs []uuid.UUID, err error)
}

// StatsBackend serves the C11 unread-counts and used-flag-colors endpoints.
type StatsBackend interface {
	UnreadCounts(ctx context.Context) (map[uuid.UUID]int, error)
	UsedFlagColors(ctx context.Context) ([]entity.FlagColor, error)
}

// LogBackend serves the C11 logs endpoints. Both operations take a feed
// scope; an empty feedIDs means the whole source.
type LogBackend interface {
	List(ctx context.Context, filter *database.LogFilter) (total int, logs []*entity.Log, err error)
	Clear(ctx context.Context, feedIDs []string) error
}

// LocalFeedBackend realises FeedBackend directly on the embedded store.
type LocalFeedBackend struct{ Repo *database.Repository }

func (b *LocalFeedBackend) Get(ctx context.Context, id uuid.UUID) (*entity.Feed, error) {
	return b.Repo.GetFeed(ctx, id)
}
func (b *LocalFeedBackend) ListByFolder(ctx context.Context, folderID uuid.UUID) ([]*entity.Feed, error) {
	return b.Repo.ListFeedsByFolder(ctx, folderID)
}
func (b *LocalFeedBackend) ListBySource(ctx context.Context, sourceID uuid.UUID) ([]*entity.Feed, error) {
	return b.Repo.ListFeedsBySource(ctx, sourceID)
}
func (b *LocalFeedBackend) Subscribe(ctx context.Context, f *entity.Feed) error {
	if f.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		f.ID = id
	}
	return b.Repo.CreateFeed(ctx, f)
}
func (b *LocalFeedBackend) Update(ctx context.Context, f *entity.Feed) error {
	return b.Repo.UpdateFeed(ctx, f)
}
func (b *LocalFeedBackend) Move(ctx context.Context, id, parentFolderID uuid.UUID, sortOrder int) error {
	f, err := b.Repo.GetFeed(ctx, id)
	if err != nil {
		return err
	}
	f.FolderID, f.SortOrder = parentFolderID, sortOrder
	return b.Repo.UpdateFeed(ctx, f)
}
func (b *LocalFeedBackend) Delete(ctx context.Context, id uuid.UUID) error {
	return b.Repo.DeleteFeed(ctx, id)
}
func (b *LocalFeedBackend) MarkAsRead(ctx context.Context, id uuid.UUID, maxPostID uint64) error {
	_, err := b.Repo.MarkAsRead(ctx, &database.PostFilter{FeedIDs: []string{id.String()}}, maxPostID, true)
	return err
}

// LocalFolderBackend realises FolderBackend directly on the embedded store.
type LocalFolderBackend struct{ Repo *database.Repository }

func (b *LocalFolderBackend) Get(ctx context.Context, id uuid.UUID) (*entity.Folder, error) {
	return b.Repo.GetFolder(ctx, id)
}
func (b *LocalFolderBackend) ListBySource(ctx context.Context, sourceID uuid.UUID) ([]*entity.Folder, error) {
	return b.Repo.ListFolders(ctx, sourceID)
}
func (b *LocalFolderBackend) Create(ctx context.Context, f *entity.Folder) error {
	if f.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		f.ID = id
	}
	return b.Repo.CreateFolder(ctx, f)
}
func (b *LocalFolderBackend) Update(ctx context.Context, f *entity.Folder) error {
	return b.Repo.UpdateFolder(ctx, f)
}
func (b *LocalFolderBackend) Delete(ctx context.Context, id uuid.UUID) error {
	return b.Repo.DeleteFolder(ctx, id)
}
func (b *LocalFolderBackend) Sort(ctx context.Context, _ uuid.UUID, feedIDs []uuid.UUID) error {
	return b.Repo.SortFolder(ctx, feedIDs)
}

// LocalPostBackend realises PostBackend directly on the embedded store.
type LocalPostBackend struct{ Repo *database.Repository }

func (b *LocalPostBackend) Get(ctx context.Context, id uuid.UUID) (*entity.Post, error) {
	return b.Repo.GetPost(ctx, id)
}
func (b *LocalPostBackend) List(ctx context.Context, filter *database.PostFilter) (int, []*entity.Post, error) {
	return b.Repo.ListPosts(ctx, filter)
}
func (b *LocalPostBackend) MarkAsRead(ctx context.Context, filter *database.PostFilter, maxPostID uint64, isRead bool) ([]uuid.UUID, error) {
	return b.Repo.MarkAsRead(ctx, filter, maxPostID, isRead)
}
func (b *LocalPostBackend) SetFlag(ctx context.Context, id uuid.UUID, color entity.FlagColor, on bool) error {
	return b.Repo.SetFlag(ctx, id, color, on)
}

// LocalSourceBackend realises SourceBackend directly on the embedded store.
type LocalSourceBackend struct{ Repo *database.Repository }

func (b *LocalSourceBackend) Get(ctx context.Context, id uuid.UUID) (*entity.Source, error) {
	return b.Repo.GetSource(ctx, id)
}
func (b *LocalSourceBackend) List(ctx context.Context) ([]*entity.Source, error) {
	return b.Repo.ListSources(ctx)
}
func (b *LocalSourceBackend) Create(ctx context.Context, s *entity.Source) error {
	if s.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		s.ID = id
	}
	return b.Repo.CreateSource(ctx, s)
}
func (b *LocalSourceBackend) Update(ctx context.Context, s *entity.Source) error {
	return b.Repo.UpdateSource(ctx, s)
}
func (b *LocalSourceBackend) Delete(ctx context.Context, id uuid.UUID) error {
	return b.Repo.DeleteSource(ctx, id)
}

// LocalScriptBackend realises ScriptBackend directly on the embedded store.
type LocalScriptBackend struct{ Repo *database.Repository }

func (b *LocalScriptBackend) Get(ctx context.Context, id uuid.UUID) (*entity.Script, error) {
	return b.Repo.GetScript(ctx, id)
}
func (b *LocalScriptBackend) ListBySource(ctx context.Context, sourceID uuid.UUID) ([]*entity.Script, error) {
	return b.Repo.ListScripts(ctx, sourceID)
}
func (b *LocalScriptBackend) Create(ctx context.Context, s *entity.Script) error {
	if s.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		s.ID = id
	}
	return b.Repo.CreateScript(ctx, s)
}
func (b *LocalScriptBackend) Update(ctx context.Context, s *entity.Script) error {
	return b.Repo.UpdateScript(ctx, s)
}
func (b *LocalScriptBackend) Delete(ctx context.Context, id uuid.UUID) error {
	return b.Repo.DeleteScript(ctx, id)
}

// LocalScriptFolderBackend realises ScriptFolderBackend directly on the
// embedded store.
type LocalScriptFolderBackend struct{ Repo *database.Repository }

func (b *LocalScriptFolderBackend) Get(ctx context.Context, id uuid.UUID) (*entity.ScriptFolder, error) {
	return b.Repo.GetScriptFolder(ctx, id)
}
func (b *LocalScriptFolderBackend) ListBySource(ctx context.Context, sourceID uuid.UUID) ([]*entity.ScriptFolder, error) {
	return b.Repo.ListScriptFolders(ctx, sourceID)
}
func (b *LocalScriptFolderBackend) Create(ctx context.Context, sf *entity.ScriptFolder) error {
	if sf.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		sf.ID = id
	}
	return b.Repo.CreateScriptFolder(ctx, sf)
}
func (b *LocalScriptFolderBackend) Update(ctx context.Context, sf *entity.ScriptFolder) error {
	return b.Repo.UpdateScriptFolder(ctx, sf)
}
func (b *LocalScriptFolderBackend) Delete(ctx context.Context, id uuid.UUID) error {
	return b.Repo.DeleteScriptFolder(ctx, id)
}
func (b *LocalScriptFolderBackend) AssignPost(ctx context.Context, scriptFolderID, postID uuid.UUID, assign bool) error {
	return b.Repo.AssignPostToScriptFolder(ctx, scriptFolderID, postID, assign)
}
func (b *LocalScriptFolderBackend) MarkAsRead(ctx context.Context, scriptFolderID uuid.UUID, maxPostID uint64) ([]uuid.UUID, error) {
	return b.Repo.MarkScriptFolderRead(ctx, scriptFolderID, maxPostID)
}

// LocalStatsBackend realises StatsBackend directly on the embedded store.
type LocalStatsBackend struct{ Repo *database.Repository }

func (b *LocalStatsBackend) UnreadCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	return b.Repo.UnreadCounts(ctx)
}
func (b *LocalStatsBackend) UsedFlagColors(ctx context.Context) ([]entity.FlagColor, error) {
	return b.Repo.UsedFlagColors(ctx)
}

// LocalLogBackend realises LogBackend directly on the embedded store.
type LocalLogBackend struct{ Repo *database.Repository }

func (b *LocalLogBackend) List(ctx context.Context, filter *database.LogFilter) (int, []*entity.Log, error) {
	return b.Repo.ListLogs(ctx, filter)
}
func (b *LocalLogBackend) Clear(ctx context.Context, feedIDs []string) error {
	return b.Repo.ClearLogs(ctx, feedIDs)
}
