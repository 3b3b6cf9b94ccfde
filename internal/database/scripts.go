package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/gofrs/uuid"

	"github.com/zapfr/engine/internal/apperror"
	"github.com/zapfr/engine/internal/entity"
)

func (r *Repository) CreateScript(ctx context.Context, s *entity.Script) error {
	events, feedIDs, err := marshalScript(s)
	if err != nil {
		return apperror.New(apperror.KindUnknown, "database.CreateScript", err)
	}
	query := `INSERT INTO scripts (id, source_id, type, title, is_enabled, run_on_events, run_on_feed_ids, body)
		VALUES (?,?,?,?,?,?,?,?)`
	span, ctx := r.setupTracingSpan(ctx, "create-script", query)
	defer span.Finish()

	_, err = r.db.ExecContext(ctx, query, s.ID.String(), s.SourceID.String(), string(s.Type), s.Title,
		boolToInt(s.IsEnabled), events, feedIDs, s.Body)
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.CreateScript", err)
	}
	return nil
}

func (r *Repository) UpdateScript(ctx context.Context, s *entity.Script) error {
	events, feedIDs, err := marshalScript(s)
	if err != nil {
		return apperror.New(apperror.KindUnknown, "database.UpdateScript", err)
	}
	query := `UPDATE scripts SET title=?, is_enabled=?, run_on_events=?, run_on_feed_ids=?, body=? WHERE id=?`
	span, ctx := r.setupTracingSpan(ctx, "update-script", query)
	defer span.Finish()

	res, err := r.db.ExecContext(ctx, query, s.Title, boolToInt(s.IsEnabled), events, feedIDs, s.Body, s.ID.String())
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.UpdateScript", err)
	}
	return requireOneRowAffected(res, "database.UpdateScript", s.ID.String())
}

func (r *Repository) DeleteScript(ctx context.Context, id uuid.UUID) error {
	query := "DELETE FROM scripts WHERE id=?"
	span, ctx := r.setupTracingSpan(ctx, "delete-script", query)
	defer span.Finish()
	res, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.DeleteScript", err)
	}
	return requireOneRowAffected(res, "database.DeleteScript", id.String())
}

func (r *Repository) GetScript(ctx context.Context, id uuid.UUID) (*entity.Script, error) {
	query := "SELECT id, source_id, type, title, is_enabled, COALESCE(run_on_events,''), COALESCE(run_on_feed_ids,''), COALESCE(body,'') FROM scripts WHERE id=?"
	span, ctx := r.setupTracingSpan(ctx, "get-script", query)
	defer span.Finish()

	row := r.db.QueryRowContext(ctx, query, id.String())
	s, err := scanScript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("database.GetScript", err)
	}
	if err != nil {
		r.logErr(span, err)
		return nil, apperror.New(apperror.KindUnknown, "database.GetScript", err)
	}
	return s, nil
}

func (r *Repository) ListScripts(ctx context.Context, sourceID uuid.UUID) ([]*entity.Script, error) {
	query := "SELECT id, source_id, type, title, is_enabled, COALESCE(run_on_events,''), COALESCE(run_on_feed_ids,''), COALESCE(body,'') FROM scripts WHERE source_id=?"
	span, ctx := r.setupTracingSpan(ctx, "list-scripts", query)
	defer span.Finish()

	rows, err := r.db.QueryContext(ctx, query, sourceID.String())
	if err != nil {
		r.logErr(span, err)
		return nil, apperror.New(apperror.KindUnknown, "database.ListScripts", err)
	}
	defer rows.Close()

	var out []*entity.Script
	for rows.Next() {
		s, err := scanScript(rows)
		if err != nil {
			return nil, apperror.New(apperror.KindUnknown, "database.ListScripts", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func marshalScript(s *entity.Script) (events, feedIDs string, err error) {
	ev, err := json.Marshal(s.RunOnEvents)
	if err != nil {
		return "", "", err
	}
	ids := make([]string, len(s.RunOnFeedIDs))
	for i, id := range s.RunOnFeedIDs {
		ids[i] = id.String()
	}
	fids, err := json.Marshal(ids)
	if err != nil {
		return "", "", err
	}
	return string(ev), string(fids), nil
}

func scanScript(sc rowScanner) (*entity.Script, error) {
	var (
		s                      entity.Script
		idStr, srcStr          string
		scriptType             string
		isEnabled              int
		eventsRaw, feedIDsRaw  string
	)
	if err := sc.Scan(&idStr, &srcStr, &scriptType, &s.Title, &isEnabled, &eventsRaw, &feedIDsRaw, &s.Body); err != nil {
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
	s.ID, s.SourceID, s.Type, s.IsEnabled = id, src, entity.ScriptType(scriptType), isEnabled != 0

	if eventsRaw != "" {
		var events []entity.ScriptEvent
		if err := json.Unmarshal([]byte(eventsRaw), &events); err != nil {
			return nil, err
		}
		s.RunOnEvents = events
	}
	if feedIDsRaw != "" {
		var ids []string
		if err := json.Unmarshal([]byte(feedIDsRaw), &ids); err != nil {
			return nil, err
		}
		for _, idStr := range ids {
			fid, err := uuid.FromString(idStr)
			if err != nil {
				return nil, err
			}
			s.RunOnFeedIDs = append(s.RunOnFeedIDs, fid)
		}
	}
	return &s, nil
}
