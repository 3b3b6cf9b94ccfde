package database

import (
	"context"

	"github.com/gofrs/uuid"

	"github.com/zapfr/engine/internal/apperror"
	"github.com/zapfr/engine/internal/entity"
)

// ApplyScriptMutations persists the fields a script engine run may have
// changed on p: title/link/content/author/thumbnail/isRead, its category
// set, its flag set, and its script-folder assignments (spec §4.8 — scripts
// run after the item is committed, and their edits are saved back over it).
func (r *Repository) ApplyScriptMutations(ctx context.Context, p *entity.Post) error {
	query := `UPDATE posts SET title=?, link=?, content=?, author=?, thumbnail=?, is_read=? WHERE id=?`
	span, ctx := r.setupTracingSpan(ctx, "apply-script-mutations", query)
	defer span.Finish()

	_, err := r.db.ExecContext(ctx, query, p.Title, p.Link, p.Content, p.Author, p.Thumbnail, boolToInt(p.IsRead), p.ID.String())
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.ApplyScriptMutations", err)
	}

	if err := r.replaceCategories(ctx, p.FeedID, p.ID, p.Categories); err != nil {
		return err
	}
	if err := r.reconcileFlags(ctx, p.ID, p.Flags); err != nil {
		return err
	}
	return r.reconcileScriptFolderMemberships(ctx, p.ID, p.ScriptFolders)
}

// reconcileFlags diffs the stored flag set against want and applies the
// minimal set of inserts/deletes to match.
func (r *Repository) reconcileFlags(ctx context.Context, postID uuid.UUID, want []entity.FlagColor) error {
	current, err := r.listFlags(ctx, postID)
	if err != nil {
		return err
	}

	wantSet := map[entity.FlagColor]bool{}
	for _, c := range want {
		wantSet[c] = true
	}
	currentSet := map[entity.FlagColor]bool{}
	for _, c := range current {
		currentSet[c] = true
	}

	for c := range wantSet {
		if !currentSet[c] {
			if err := r.SetFlag(ctx, postID, c, true); err != nil {
				return err
			}
		}
	}
	for c := range currentSet {
		if !wantSet[c] {
			if err := r.SetFlag(ctx, postID, c, false); err != nil {
				return err
			}
		}
	}
	return nil
}
