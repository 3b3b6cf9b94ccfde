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

func (r *Repository) CreateSource(ctx context.Context, s *entity.Source) error {
	query := "INSERT INTO sources (id, type, title, sort_order, config, last_error) VALUES (?, ?, ?, ?, ?, ?)"
	span, ctx := r.setupTracingSpan(ctx, "create-source", query)
	defer span.Finish()

	cfg, err := marshalSourceConfig(s.Config)
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.CreateSource", err)
	}
	_, err = r.db.ExecContext(ctx, query, s.ID.String(), s.Type, s.Title, s.SortOrder, cfg, s.LastError)
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.CreateSource", err)
	}
	return nil
}

func (r *Repository) UpdateSource(ctx context.Context, s *entity.Source) error {
	query := "UPDATE sources SET type=?, title=?, sort_order=?, config=?, last_error=? WHERE id=?"
	span, ctx := r.setupTracingSpan(ctx, "update-source", query)
	defer span.Finish()

	cfg, err := marshalSourceConfig(s.Config)
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.UpdateSource", err)
	}
	res, err := r.db.ExecContext(ctx, query, s.Type, s.Title, s.SortOrder, cfg, s.LastError, s.ID.String())
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.UpdateSource", err)
	}
	return requireOneRowAffected(res, "database.UpdateSource", s.ID.String())
}

// DeleteSource removes a source and everything it owns. The local source
// cannot be deleted (spec §3 Source invariant, §7 ConstraintViolation).
func (r *Repository) DeleteSource(ctx context.Context, id uuid.UUID) error {
	query := "DELETE FROM sources WHERE id=? AND type != 'local'"
	span, ctx := r.setupTracingSpan(ctx, "delete-source", query)
	defer span.Finish()

	src, err := r.GetSource(ctx, id)
	if err != nil {
		return err
	}
	if src.IsLocal() {
		return apperror.ConstraintViolation("database.DeleteSource", errors.New("cannot delete the local source"))
	}

	if err := r.cascadeDeleteSourceChildren(ctx, id); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		r.logErr(span, err)
		return apperror.New(apperror.KindUnknown, "database.DeleteSource", err)
	}
	return requireOneRowAffected(res, "database.DeleteSource", id.String())
}

// EnsureLocalSource returns the store's single local source (spec §3:
// "exactly one local source exists per store"), creating it on first run.
func (r *Repository) EnsureLocalSource(ctx context.Context, title string) (*entity.Source, error) {
	query := "SELECT id FROM sources WHERE type='local' LIMIT 1"
	span, ctx := r.setupTracingSpan(ctx, "ensure-local-source", query)
	defer span.Finish()

	var idStr string
	err := r.db.QueryRowContext(ctx, query).Scan(&idStr)
	if err == nil {
		id, err := uuid.FromString(idStr)
		if err != nil {
			return nil, apperror.New(apperror.KindUnknown, "database.EnsureLocalSource", err)
		}
		return r.GetSource(ctx, id)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		r.logErr(span, err)
		return nil, apperror.New(apperror.KindUnknown, "database.EnsureLocalSource", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, apperror.New(apperror.KindUnknown, "database.EnsureLocalSource", err)
	}
	s := &entity.Source{ID: id, Type: entity.SourceLocal, Title: title}
	if err := r.CreateSource(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repository) cascadeDeleteSourceChildren(ctx context.Context, sourceID uuid.UUID) error {
	folders, err := r.ListFolders(ctx, sourceID)
	if err != nil {
		return err
	}
	for _, f := range folders {
		if f.ParentID != uuid.Nil {
			continue // deleted recursively with its root ancestor
		}
		if err := r.DeleteFolder(ctx, f.ID); err != nil {
			return err
		}
	}
	// Feeds living at the source root, outside any folder.
	feeds, err := r.ListFeedsBySource(ctx, sourceID)
	if err != nil {
		return err
	}
	for _, feed := range feeds {
		if err := r.DeleteFeed(ctx, feed.ID); err != nil {
			return err
		}
	}
	scriptFolders, err := r.ListScriptFolders(ctx, sourceID)
	if err != nil {
		return err
	}
	for _, sf := range scriptFolders {
		if err := r.DeleteScriptFolder(ctx, sf.ID); err != nil {
			return err
		}
	}
	scripts, err := r.ListScripts(ctx, sourceID)
	if err != nil {
		return err
	}
	for _, sc := range scripts {
		if err := r.DeleteScript(ctx, sc.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) GetSource(ctx context.Context, id uuid.UUID) (*entity.Source, error) {
	query := "SELECT id, type, title, sort_order, config, COALESCE(last_error,'') FROM sources WHERE id=?"
	span, ctx := r.setupTracingSpan(ctx, "get-source", query)
	defer span.Finish()

	row := r.db.QueryRowContext(ctx, query, id.String())
	s, cfg, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("database.GetSource", err)
	}
	if err != nil {
		r.logErr(span, err)
		return nil, apperror.New(apperror.KindUnknown, "database.GetSource", err)
	}
	if err := unmarshalSourceConfig(cfg, s); err != nil {
		return nil, apperror.New(apperror.KindParse, "database.GetSource", err)
	}
	return s, nil
}

func (r *Repository) ListSources(ctx context.Context) ([]*entity.Source, error) {
	query := "SELECT id, type, title, sort_order, config, COALESCE(last_error,'') FROM sources ORDER BY sort_order"
	span, ctx := r.setupTracingSpan(ctx, "list-sources", query)
	defer span.Finish()

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logErr(span, err)
		return nil, apperror.New(apperror.KindUnknown, "database.ListSources", err)
	}
	defer rows.Close()

	var out []*entity.Source
	for rows.Next() {
		s, cfg, err := scanSourceRows(rows)
		if err != nil {
			return nil, apperror.New(apperror.KindUnknown, "database.ListSources", err)
		}
		if err := unmarshalSourceConfig(cfg, s); err != nil {
			return nil, apperror.New(apperror.KindParse, "database.ListSources", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row *sql.Row) (*entity.Source, string, error) {
	return scanSourceGeneric(row)
}

func scanSourceRows(rows *sql.Rows) (*entity.Source, string, error) {
	return scanSourceGeneric(rows)
}

func scanSourceGeneric(sc rowScanner) (*entity.Source, string, error) {
	var (
		s      entity.Source
		idStr  string
		cfg    sql.NullString
	)
	if err := sc.Scan(&idStr, &s.Type, &s.Title, &s.SortOrder, &cfg, &s.LastError); err != nil {
		return nil, "", err
	}
	id, err := uuid.FromString(idStr)
	if err != nil {
		return nil, "", err
	}
	s.ID = id
	return &s, cfg.String, nil
}

func marshalSourceConfig(cfg *entity.RemoteSourceConfig) (string, error) {
	if cfg == nil {
		return "", nil
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalSourceConfig(raw string, s *entity.Source) error {
	if raw == "" {
		return nil
	}
	var cfg entity.RemoteSourceConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return err
	}
	s.Config = &cfg
	return nil
}

func requireOneRowAffected(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.New(apperror.KindUnknown, op, err)
	}
	if n != 1 {
		return apperror.NotFound(op, errors.New("no row affected for id "+id))
	}
	return nil
}
