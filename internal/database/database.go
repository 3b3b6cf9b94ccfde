// Package database implements the embedded storage layer (spec §4.5): a
// single shared modernc.org/sqlite connection, schema install/upgrade, and
// parameterized query helpers shared across every entity kind.
//
// Grounded on internal/repository/postgresql/postgresql.go's Repository
// shape (Config tagged for viper, tracing span wrapped around every query,
// Healthcheck) with the storage engine swapped for an embeddable one — see
// DESIGN.md for why jackc/pgx was dropped.
package database

import (
	"context"
	"database/sql"
	"fmt"

	opentracing "github.com/opentracing/opentracing-go"
	otLog "github.com/opentracing/opentracing-go/log"
	_ "modernc.org/sqlite"

	"github.com/zapfr/engine/internal/apperror"
)

// Config defines database configuration, usable for Viper.
type Config struct {
	Path string `mapstructure:"path"`
}

// Repository wraps the single shared sqlite connection.
type Repository struct {
	db     *sql.DB
	tracer opentracing.Tracer
}

// New opens (creating if absent) the sqlite file at cfg.Path and installs or
// upgrades the schema.
func New(cfg *Config, tracer opentracing.Tracer) (*Repository, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, apperror.New(apperror.KindSchema, "database.New", err)
	}
	// A single shared connection: sqlite serializes writers regardless, and
	// the spec models one connection per process (spec §4.5).
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(context.Background(), "PRAGMA busy_timeout = 5000"); err != nil {
		return nil, apperror.New(apperror.KindSchema, "database.New", err)
	}

	r := &Repository{db: db, tracer: tracer}
	if err := r.installOrUpgrade(context.Background()); err != nil {
		return nil, apperror.New(apperror.KindSchema, "database.New", err)
	}
	return r, nil
}

// Close releases the underlying connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Healthcheck verifies the schema is reachable.
func (r *Repository) Healthcheck(ctx context.Context) error {
	var exists bool
	row := r.db.QueryRowContext(ctx, "select exists (select 1 from sources limit 1)")
	if err := row.Scan(&exists); err != nil {
		return fmt.Errorf("failure checking access to 'sources' table: %w", err)
	}
	return nil
}

func (r *Repository) setupTracingSpan(ctx context.Context, name, query string) (opentracing.Span, context.Context) {
	span, ctx := opentracing.StartSpanFromContextWithTracer(ctx, r.tracer, name)
	span.SetTag("component", "repository")
	span.SetTag("db.type", "sql")
	span.SetTag("db.query", query)
	return span, ctx
}

func (r *Repository) logErr(span opentracing.Span, err error) {
	span.LogFields(otLog.Error(err))
}
