package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gofrs/uuid"

	"github.com/zapfr/engine/internal/apperror"
	"github.com/zapfr/engine/internal/entity"
)

func (r *Repository) CreateScriptFolder(ctx context.Context, sf *entity.ScriptFolder) error {
	query := "INSERT INTO scriptfolders (id, source_id, title, show_total, show_unread) VALUES (?,?,?,?,?)"
	span, ctx := r.setupTracingSpan(ctx, "create-scriptfolder", query)
	defer span.Finish()

	_, err := r.db.ExecContext(ctx, query, sf.ID.String(), sf.SourceID.String(), sf.Title, boolToInt(sf.ShowTotal), boolToInt(sf.ShowUnread))
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.CreateScriptFolder", err)
	}
	return nil
}

func (r *Repository) UpdateScriptFolder(ctx context.Context, sf *entity.ScriptFolder) error {
	query := "UPDATE scriptfolders SET title=?, show_total=?, show_unread=? WHERE id=?"
	span, ctx := r.setupTracingSpan(ctx, "update-scriptfolder", query)
	defer span.Finish()

	res, err := r.db.ExecContext(ctx, query, sf.Title, boolToInt(sf.ShowTotal), boolToInt(sf.ShowUnread), sf.ID.String())
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.UpdateScriptFolder", err)
	}
	return requireOneRowAffected(res, "database.UpdateScriptFolder", sf.ID.String())
}

func (r *Repository) DeleteScriptFolder(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM scriptfolder_posts WHERE scriptfolder_id=?", id.String()); err != nil {
		return apperror.New(apperror.KindUnknown, "database.DeleteScriptFolder", err)
	}
	query := "DELETE FROM scriptfolders WHERE id=?"
	span, ctx := r.setupTracingSpan(ctx, "delete-scriptfolder", query)
	defer span.Finish()
	res, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.DeleteScriptFolder", err)
	}
	return requireOneRowAffected(res, "database.DeleteScriptFolder", id.String())
}

func (r *Repository) GetScriptFolder(ctx context.Context, id uuid.UUID) (*entity.ScriptFolder, error) {
	query := "SELECT id, source_id, title, show_total, show_unread FROM scriptfolders WHERE id=?"
	span, ctx := r.setupTracingSpan(ctx, "get-scriptfolder", query)
	defer span.Finish()

	row := r.db.QueryRowContext(ctx, query, id.String())
	sf, err := scanScriptFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("database.GetScriptFolder", err)
	}
	if err != nil {
		r.logErr(span, err)
		return nil, apperror.New(apperror.KindUnknown, "database.GetScriptFolder", err)
	}
	return sf, nil
}

func (r *Repository) ListScriptFolders(ctx context.Context, sourceID uuid.UUID) ([]*entity.ScriptFolder, error) {
	query := "SELECT id, source_id, title, show_total, show_unread FROM scriptfolders WHERE source_id=?"
	span, ctx := r.setupTracingSpan(ctx, "list-scriptfolders", query)
	defer span.Finish()

	rows, err := r.db.QueryContext(ctx, query, sourceID.String())
	if err != nil {
		r.logErr(span, err)
		return nil, apperror.New(apperror.KindUnknown, "database.ListScriptFolders", err)
	}
	defer rows.Close()

	var out []*entity.ScriptFolder
	for rows.Next() {
		sf, err := scanScriptFolder(rows)
		if err != nil {
			return nil, apperror.New(apperror.KindUnknown, "database.ListScriptFolders", err)
		}
		out = append(out, sf)
	}
	return out, rows.Err()
}

// AssignPostToScriptFolder adds or removes one post's membership row,
// depending on assign. Idempotent in both directions.
func (r *Repository) AssignPostToScriptFolder(ctx context.Context, scriptFolderID, postID uuid.UUID, assign bool) error {
	if assign {
		_, err := r.db.ExecContext(ctx, "INSERT OR IGNORE INTO scriptfolder_posts (scriptfolder_id, post_id) VALUES (?,?)",
			scriptFolderID.String(), postID.String())
		if err != nil {
			return apperror.New(apperror.KindUnknown, "database.AssignPostToScriptFolder", err)
		}
		return nil
	}
	_, err := r.db.ExecContext(ctx, "DELETE FROM scriptfolder_posts WHERE scriptfolder_id=? AND post_id=?",
		scriptFolderID.String(), postID.String())
	if err != nil {
		return apperror.New(apperror.KindUnknown, "database.AssignPostToScriptFolder", err)
	}
	return nil
}

// listScriptFolderMemberships returns the script folders postID is assigned to.
func (r *Repository) listScriptFolderMemberships(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT scriptfolder_id FROM scriptfolder_posts WHERE post_id=?", postID.String())
	if err != nil {
		return nil, apperror.New(apperror.KindUnknown, "database.listScriptFolderMemberships", err)
	}
	defer rows.Close()
	var out []uuid.UUID
	for rows.Next() {
		var idStr string
		if err := rows.Scan(&idStr); err != nil {
			return nil, apperror.New(apperror.KindUnknown, "database.listScriptFolderMemberships", err)
		}
		id, err := uuid.FromString(idStr)
		if err != nil {
			return nil, apperror.New(apperror.KindUnknown, "database.listScriptFolderMemberships", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// reconcileScriptFolderMemberships diffs the stored membership set against
// want and applies the minimal inserts/deletes, mirroring reconcileFlags.
func (r *Repository) reconcileScriptFolderMemberships(ctx context.Context, postID uuid.UUID, want []uuid.UUID) error {
	current, err := r.listScriptFolderMemberships(ctx, postID)
	if err != nil {
		return err
	}
	wantSet := map[uuid.UUID]bool{}
	for _, id := range want {
		wantSet[id] = true
	}
	currentSet := map[uuid.UUID]bool{}
	for _, id := range current {
		currentSet[id] = true
	}
	for id := range wantSet {
		if !currentSet[id] {
			if err := r.AssignPostToScriptFolder(ctx, id, postID, true); err != nil {
				return err
			}
		}
	}
	for id := range currentSet {
		if !wantSet[id] {
			if err := r.AssignPostToScriptFolder(ctx, id, postID, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// MarkScriptFolderRead marks as read every assigned post with id<=maxPostID,
// returning the feed IDs that owned at least one flipped row (spec §8:
// "ScriptFolder.markAsRead(M) returns exactly the set of feed IDs that owned
// at least one flipped row").
func (r *Repository) MarkScriptFolderRead(ctx context.Context, scriptFolderID uuid.UUID, maxPostID uint64) ([]uuid.UUID, error) {
	return r.MarkAsRead(ctx, &PostFilter{ScriptFolderID: scriptFolderID.String()}, maxPostID, true)
}

func scanScriptFolder(sc rowScanner) (*entity.ScriptFolder, error) {
	var (
		sf                entity.ScriptFolder
		idStr, srcStr     string
		showTotal, showUnread int
	)
	if err := sc.Scan(&idStr, &srcStr, &sf.Title, &showTotal, &showUnread); err != nil {
		return nil, err
	}
	id, err := uuid.FromString(idStr)
	if err != nil {
		return nil, err
	}
	src, err := uuid.FromString(srcStr)
	if err != nil {
		return nil, err
	}
	sf.ID, sf.SourceID = id, src
	sf.ShowTotal, sf.ShowUnread = showTotal != 0, showUnread != 0
	return &sf, nil
}
