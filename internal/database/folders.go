package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gofrs/uuid"

	"github.com/zapfr/engine/internal/apperror"
	"github.com/zapfr/engine/internal/entity"
)

func (r *Repository) CreateFolder(ctx context.Context, f *entity.Folder) error {
	query := "INSERT INTO folders (id, source_id, parent_id, title, sort_order) VALUES (?, ?, ?, ?, ?)"
	span, ctx := r.setupTracingSpan(ctx, "create-folder", query)
	defer span.Finish()

	_, err := r.db.ExecContext(ctx, query, f.ID.String(), f.SourceID.String(), nullableUUID(f.ParentID), f.Title, f.SortOrder)
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.CreateFolder", err)
	}
	return nil
}

func (r *Repository) UpdateFolder(ctx context.Context, f *entity.Folder) error {
	if err := r.checkFolderCycle(ctx, f.ID, f.ParentID); err != nil {
		return err
	}
	query := "UPDATE folders SET parent_id=?, title=?, sort_order=? WHERE id=?"
	span, ctx := r.setupTracingSpan(ctx, "update-folder", query)
	defer span.Finish()

	res, err := r.db.ExecContext(ctx, query, nullableUUID(f.ParentID), f.Title, f.SortOrder, f.ID.String())
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.UpdateFolder", err)
	}
	return requireOneRowAffected(res, "database.UpdateFolder", f.ID.String())
}

func (r *Repository) GetFolder(ctx context.Context, id uuid.UUID) (*entity.Folder, error) {
	query := "SELECT id, source_id, COALESCE(parent_id,''), title, sort_order FROM folders WHERE id=?"
	span, ctx := r.setupTracingSpan(ctx, "get-folder", query)
	defer span.Finish()

	row := r.db.QueryRowContext(ctx, query, id.String())
	f, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("database.GetFolder", err)
	}
	if err != nil {
		r.logErr(span, err)
		return nil, apperror.New(apperror.KindUnknown, "database.GetFolder", err)
	}
	return f, nil
}

func (r *Repository) ListFolders(ctx context.Context, sourceID uuid.UUID) ([]*entity.Folder, error) {
	query := "SELECT id, source_id, COALESCE(parent_id,''), title, sort_order FROM folders WHERE source_id=? ORDER BY sort_order"
	span, ctx := r.setupTracingSpan(ctx, "list-folders", query)
	defer span.Finish()

	rows, err := r.db.QueryContext(ctx, query, sourceID.String())
	if err != nil {
		r.logErr(span, err)
		return nil, apperror.New(apperror.KindUnknown, "database.ListFolders", err)
	}
	defer rows.Close()

	var out []*entity.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, apperror.New(apperror.KindUnknown, "database.ListFolders", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// checkFolderCycle rejects a reparent of folderID under newParentID when the
// new parent is the folder itself or one of its descendants (spec §3: "no
// cycles").
func (r *Repository) checkFolderCycle(ctx context.Context, folderID, newParentID uuid.UUID) error {
	for cursor := newParentID; cursor != uuid.Nil; {
		if cursor == folderID {
			return apperror.ConstraintViolation("database.UpdateFolder", errors.New("cyclic folder move"))
		}
		parent, err := r.GetFolder(ctx, cursor)
		if err != nil {
			if apperror.Is(err, apperror.KindNotFound) {
				return nil
			}
			return err
		}
		cursor = parent.ParentID
	}
	return nil
}

// childFolders returns the immediate children of parentID within sourceID.
func (r *Repository) childFolders(ctx context.Context, sourceID, parentID uuid.UUID) ([]*entity.Folder, error) {
	all, err := r.ListFolders(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	var children []*entity.Folder
	for _, f := range all {
		if f.ParentID == parentID {
			children = append(children, f)
		}
	}
	return children, nil
}

// DeleteFolder recursively deletes a folder and every descendant folder,
// their feeds, and those feeds' posts/enclosures/categories/flags/
// script-folder assignments (spec §3 Folder invariant).
func (r *Repository) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	folder, err := r.GetFolder(ctx, id)
	if err != nil {
		return err
	}

	children, err := r.childFolders(ctx, folder.SourceID, id)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := r.DeleteFolder(ctx, child.ID); err != nil {
			return err
		}
	}

	feeds, err := r.ListFeedsByFolder(ctx, id)
	if err != nil {
		return err
	}
	for _, feed := range feeds {
		if err := r.DeleteFeed(ctx, feed.ID); err != nil {
			return err
		}
	}

	query := "DELETE FROM folders WHERE id=?"
	span, ctx := r.setupTracingSpan(ctx, "delete-folder", query)
	defer span.Finish()
	res, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.DeleteFolder", err)
	}
	return requireOneRowAffected(res, "database.DeleteFolder", id.String())
}

func scanFolder(sc rowScanner) (*entity.Folder, error) {
	var (
		f                    entity.Folder
		idStr, srcStr, pStr  string
	)
	if err := sc.Scan(&idStr, &srcStr, &pStr, &f.Title, &f.SortOrder); err != nil {
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
	f.ID, f.SourceID = id, src
	if pStr != "" {
		p, err := uuid.FromString(pStr)
		if err != nil {
			return nil, err
		}
		f.ParentID = p
	}
	return &f, nil
}

func nullableUUID(id uuid.UUID) sql.NullString {
	if id == uuid.Nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}
