package database

import (
	"context"
	"strings"

	"github.com/gofrs/uuid"

	"github.com/zapfr/engine/internal/apperror"
	"github.com/zapfr/engine/internal/entity"
)

func (r *Repository) CreateLog(ctx context.Context, l *entity.Log) error {
	query := "INSERT INTO logs (id, timestamp, level, message, feed_id) VALUES (?,?,?,?,?)"
	span, ctx := r.setupTracingSpan(ctx, "create-log", query)
	defer span.Finish()

	id := mustNewUUID()
	_, err := r.db.ExecContext(ctx, query, id.String(), l.Timestamp, string(l.Level), l.Message, nullableUUID(l.FeedID))
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.CreateLog", err)
	}
	l.ID = id
	return nil
}

// LogFilter scopes log listing/clearing to a set of owning feeds, mirroring
// PostFilter's clause composition. An empty FeedIDs means source scope:
// every stored row, including rows with no feed at all.
type LogFilter struct {
	FeedIDs []string
	Page    int
	PerPage int
}

func (f *LogFilter) whereClause() (string, []any) {
	if f == nil || len(f.FeedIDs) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(f.FeedIDs))
	args := make([]any, len(f.FeedIDs))
	for i, id := range f.FeedIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	return "feed_id IN (" + strings.Join(placeholders, ",") + ")", args
}

// ListLogs returns (totalCountMatchingFilter, pageOfLogs), newest first.
func (r *Repository) ListLogs(ctx context.Context, filter *LogFilter) (int, []*entity.Log, error) {
	where, args := filter.whereClause()
	countQuery := "SELECT COUNT(*) FROM logs"
	listQuery := "SELECT id, timestamp, level, message, COALESCE(feed_id,'') FROM logs"
	if where != "" {
		countQuery += " WHERE " + where
		listQuery += " WHERE " + where
	}
	listQuery += " ORDER BY timestamp DESC LIMIT ? OFFSET ?"

	span, ctx := r.setupTracingSpan(ctx, "list-logs", listQuery)
	defer span.Finish()

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logErr(span, err)
		return 0, nil, apperror.New(apperror.KindUnknown, "database.ListLogs", err)
	}

	page, perPage := 1, 100
	if filter != nil {
		if filter.Page > 1 {
			page = filter.Page
		}
		if filter.PerPage > 0 {
			perPage = filter.PerPage
		}
	}
	rows, err := r.db.QueryContext(ctx, listQuery, append(append([]any{}, args...), perPage, (page-1)*perPage)...)
	if err != nil {
		r.logErr(span, err)
		return 0, nil, apperror.New(apperror.KindUnknown, "database.ListLogs", err)
	}
	defer rows.Close()

	var out []*entity.Log
	for rows.Next() {
		var (
			l                     entity.Log
			idStr, feedStr, level string
		)
		if err := rows.Scan(&idStr, &l.Timestamp, &level, &l.Message, &feedStr); err != nil {
			return 0, nil, apperror.New(apperror.KindUnknown, "database.ListLogs", err)
		}
		id, err := uuid.FromString(idStr)
		if err != nil {
			return 0, nil, apperror.New(apperror.KindUnknown, "database.ListLogs", err)
		}
		l.ID, l.Level = id, entity.LogLevel(level)
		if feedStr != "" {
			fid, err := uuid.FromString(feedStr)
			if err != nil {
				return 0, nil, apperror.New(apperror.KindUnknown, "database.ListLogs", err)
			}
			l.FeedID = fid
		}
		out = append(out, &l)
	}
	return total, out, rows.Err()
}

// ClearLogs deletes the log rows owned by feedIDs; an empty list clears
// everything (the C11 "clear source logs" scope).
func (r *Repository) ClearLogs(ctx context.Context, feedIDs []string) error {
	filter := &LogFilter{FeedIDs: feedIDs}
	where, args := filter.whereClause()
	query := "DELETE FROM logs"
	if where != "" {
		query += " WHERE " + where
	}
	span, ctx := r.setupTracingSpan(ctx, "clear-logs", query)
	defer span.Finish()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.ClearLogs", err)
	}
	return nil
}
