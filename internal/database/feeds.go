package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gofrs/uuid"

	"github.com/zapfr/engine/internal/apperror"
	"github.com/zapfr/engine/internal/entity"
)

func (r *Repository) CreateFeed(ctx context.Context, f *entity.Feed) error {
	query := `INSERT INTO feeds (id, source_id, folder_id, url, guid, title, subtitle, link, description,
		language, copyright, icon_url, sort_order) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`
	span, ctx := r.setupTracingSpan(ctx, "create-feed", query)
	defer span.Finish()

	_, err := r.db.ExecContext(ctx, query, f.ID.String(), f.SourceID.String(), nullableUUID(f.FolderID), f.URL, f.GUID,
		f.Title, f.Subtitle, f.Link, f.Description, f.Language, f.Copyright, f.IconURL, f.SortOrder)
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.CreateFeed", err)
	}
	return nil
}

// UpdateFeedMetadata persists the feed-level fields the refresh pipeline
// copies down from a parsed document, plus bookkeeping columns.
func (r *Repository) UpdateFeedMetadata(ctx context.Context, f *entity.Feed) error {
	query := `UPDATE feeds SET title=?, subtitle=?, link=?, description=?, language=?, copyright=?,
		icon_url=?, icon_hash=?, icon_last_fetched=?, last_checked=?, last_refresh_error=? WHERE id=?`
	span, ctx := r.setupTracingSpan(ctx, "update-feed-metadata", query)
	defer span.Finish()

	res, err := r.db.ExecContext(ctx, query, f.Title, f.Subtitle, f.Link, f.Description, f.Language, f.Copyright,
		f.IconURL, f.IconHash, nullableTime(f.IconLastFetched), nullableTime(f.LastChecked), f.LastRefreshError, f.ID.String())
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.UpdateFeedMetadata", err)
	}
	return requireOneRowAffected(res, "database.UpdateFeedMetadata", f.ID.String())
}

func (r *Repository) UpdateFeed(ctx context.Context, f *entity.Feed) error {
	query := "UPDATE feeds SET folder_id=?, url=?, title=?, refresh_interval=?, sort_order=? WHERE id=?"
	span, ctx := r.setupTracingSpan(ctx, "update-feed", query)
	defer span.Finish()

	res, err := r.db.ExecContext(ctx, query, nullableUUID(f.FolderID), f.URL, f.Title, f.RefreshInterval, f.SortOrder, f.ID.String())
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.UpdateFeed", err)
	}
	return requireOneRowAffected(res, "database.UpdateFeed", f.ID.String())
}

// DeleteFeed cascades to posts, enclosures, categories, flags and
// script-folder assignments referencing this feed (spec §3 Feed lifecycle).
func (r *Repository) DeleteFeed(ctx context.Context, id uuid.UUID) error {
	posts, err := r.ListPostsByFeed(ctx, id)
	if err != nil {
		return err
	}
	for _, p := range posts {
		if err := r.deletePostRows(ctx, p.ID); err != nil {
			return err
		}
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE feed_id=?", id.String()); err != nil {
		return apperror.New(apperror.KindUnknown, "database.DeleteFeed", err)
	}

	query := "DELETE FROM feeds WHERE id=?"
	span, ctx := r.setupTracingSpan(ctx, "delete-feed", query)
	defer span.Finish()
	res, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.DeleteFeed", err)
	}
	return requireOneRowAffected(res, "database.DeleteFeed", id.String())
}

func (r *Repository) GetFeed(ctx context.Context, id uuid.UUID) (*entity.Feed, error) {
	query := feedSelectColumns + " FROM feeds WHERE id=?"
	span, ctx := r.setupTracingSpan(ctx, "get-feed", query)
	defer span.Finish()

	row := r.db.QueryRowContext(ctx, query, id.String())
	f, err := scanFeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("database.GetFeed", err)
	}
	if err != nil {
		r.logErr(span, err)
		return nil, apperror.New(apperror.KindUnknown, "database.GetFeed", err)
	}
	return f, nil
}

func (r *Repository) ListFeedsByFolder(ctx context.Context, folderID uuid.UUID) ([]*entity.Feed, error) {
	query := feedSelectColumns + " FROM feeds WHERE folder_id=? ORDER BY sort_order"
	return r.listFeeds(ctx, "list-feeds-by-folder", query, folderID.String())
}

func (r *Repository) ListFeedsBySource(ctx context.Context, sourceID uuid.UUID) ([]*entity.Feed, error) {
	query := feedSelectColumns + " FROM feeds WHERE source_id=? ORDER BY sort_order"
	return r.listFeeds(ctx, "list-feeds-by-source", query, sourceID.String())
}

// ListDueFeeds returns feeds whose lastChecked+interval has elapsed, for the
// auto-refresh loop (spec §4.10/C10).
func (r *Repository) ListDueFeeds(ctx context.Context, now time.Time, defaultInterval time.Duration) ([]*entity.Feed, error) {
	all, err := r.listFeeds(ctx, "list-due-feeds", feedSelectColumns+" FROM feeds")
	if err != nil {
		return nil, err
	}
	var due []*entity.Feed
	for _, f := range all {
		if f.LastChecked.IsZero() {
			due = append(due, f)
			continue
		}
		if now.Sub(f.LastChecked) >= f.EffectiveInterval(defaultInterval) {
			due = append(due, f)
		}
	}
	return due, nil
}

func (r *Repository) listFeeds(ctx context.Context, spanName, query string, args ...any) ([]*entity.Feed, error) {
	span, ctx := r.setupTracingSpan(ctx, spanName, query)
	defer span.Finish()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logErr(span, err)
		return nil, apperror.New(apperror.KindUnknown, "database."+spanName, err)
	}
	defer rows.Close()

	var out []*entity.Feed
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, apperror.New(apperror.KindUnknown, "database."+spanName, err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// SortFolder reassigns feed sort_order to match the order of feedIDs
// (C11 "Sort folder" endpoint, spec §4.11).
func (r *Repository) SortFolder(ctx context.Context, feedIDs []uuid.UUID) error {
	query := "UPDATE feeds SET sort_order=? WHERE id=?"
	span, ctx := r.setupTracingSpan(ctx, "sort-folder", query)
	defer span.Finish()

	// steps of 10, so a later insert can slot between two siblings without
	// a full resort
	for i, id := range feedIDs {
		if _, err := r.db.ExecContext(ctx, query, (i+1)*10, id.String()); err != nil {
			r.logErr(span, err)
			return apperror.New(apperror.KindUnknown, "database.SortFolder", err)
		}
	}
	return nil
}

// SaveFeedConditionalInfo persists the HTTP validators the refresh pipeline
// captured from the last response (spec §4.7/C1).
func (r *Repository) SaveFeedConditionalInfo(ctx context.Context, id uuid.UUID, etag string, lastModified time.Time) error {
	query := "UPDATE feeds SET etag=?, last_modified=? WHERE id=?"
	span, ctx := r.setupTracingSpan(ctx, "save-feed-conditional-info", query)
	defer span.Finish()

	_, err := r.db.ExecContext(ctx, query, etag, nullableTime(lastModified), id.String())
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.SaveFeedConditionalInfo", err)
	}
	return nil
}

const feedSelectColumns = `SELECT id, source_id, COALESCE(folder_id,''), url, COALESCE(guid,''), COALESCE(title,''),
	COALESCE(subtitle,''), COALESCE(link,''), COALESCE(description,''), COALESCE(language,''), COALESCE(copyright,''),
	COALESCE(icon_url,''), COALESCE(icon_hash,''), icon_last_fetched, last_checked, COALESCE(last_refresh_error,''),
	refresh_interval, sort_order, COALESCE(etag,''), last_modified`

func scanFeed(sc rowScanner) (*entity.Feed, error) {
	var (
		f                          entity.Feed
		idStr, srcStr, folderStr   string
		iconLastFetched, lastChecked, lastModified sql.NullTime
		refreshInterval            sql.NullInt64
	)
	if err := sc.Scan(&idStr, &srcStr, &folderStr, &f.URL, &f.GUID, &f.Title, &f.Subtitle, &f.Link, &f.Description,
		&f.Language, &f.Copyright, &f.IconURL, &f.IconHash, &iconLastFetched, &lastChecked, &f.LastRefreshError,
		&refreshInterval, &f.SortOrder, &f.ETag, &lastModified); err != nil {
		return nil, err
	}
	if lastModified.Valid {
		f.LastModified = lastModified.Time
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
	if folderStr != "" {
		fid, err := uuid.FromString(folderStr)
		if err != nil {
			return nil, err
		}
		f.FolderID = fid
	}
	if iconLastFetched.Valid {
		f.IconLastFetched = iconLastFetched.Time
	}
	if lastChecked.Valid {
		f.LastChecked = lastChecked.Time
	}
	if refreshInterval.Valid {
		v := int(refreshInterval.Int64)
		f.RefreshInterval = &v
	}
	return &f, nil
}

func nullableTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
