package database

import (
	"context"

	"github.com/gofrs/uuid"

	"github.com/zapfr/engine/internal/apperror"
	"github.com/zapfr/engine/internal/entity"
)

// UnreadCounts returns the unread post count per feed, for the C11 "unread
// counts" endpoint (spec §4.11) that the client polls to badge folders/feeds.
func (r *Repository) UnreadCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	query := "SELECT feed_id, COUNT(*) FROM posts WHERE is_read = 0 GROUP BY feed_id"
	span, ctx := r.setupTracingSpan(ctx, "unread-counts", query)
	defer span.Finish()

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logErr(span, err)
		return nil, apperror.New(apperror.KindUnknown, "database.UnreadCounts", err)
	}
	defer rows.Close()

	out := map[uuid.UUID]int{}
	for rows.Next() {
		var idStr string
		var count int
		if err := rows.Scan(&idStr, &count); err != nil {
			return nil, apperror.New(apperror.KindUnknown, "database.UnreadCounts", err)
		}
		id, err := uuid.FromString(idStr)
		if err != nil {
			return nil, apperror.New(apperror.KindUnknown, "database.UnreadCounts", err)
		}
		out[id] = count
	}
	return out, rows.Err()
}

// UsedFlagColors returns the distinct flag colors currently applied to at
// least one post, for the C11 "used flag colors" endpoint (spec §4.11):
// clients only show filter chips for colors actually in use.
func (r *Repository) UsedFlagColors(ctx context.Context) ([]entity.FlagColor, error) {
	query := "SELECT DISTINCT color FROM flags"
	span, ctx := r.setupTracingSpan(ctx, "used-flag-colors", query)
	defer span.Finish()

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logErr(span, err)
		return nil, apperror.New(apperror.KindUnknown, "database.UsedFlagColors", err)
	}
	defer rows.Close()

	var out []entity.FlagColor
	for rows.Next() {
		var color string
		if err := rows.Scan(&color); err != nil {
			return nil, apperror.New(apperror.KindUnknown, "database.UsedFlagColors", err)
		}
		out = append(out, entity.FlagColor(color))
	}
	return out, rows.Err()
}
