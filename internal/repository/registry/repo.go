// Package registry keeps the authoritative record of uploaded documents and
// the per-session conversation log in Postgres.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/kailas-cloud/curriqa/internal/domain"
)

// Repo implements the document registry and chat log on top of bun.
type Repo struct {
	db *bun.DB
}

// Connect opens a Postgres connection pool for the given DSN. Debug enables
// per-query logging through bundebug.
func Connect(dsn string, debug bool) *Repo {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return New(db)
}

// New wraps an existing bun handle. Used by tests.
func New(db *bun.DB) *Repo {
	return &Repo{db: db}
}

// Init creates the registry tables when they do not exist yet.
func (r *Repo) Init(ctx context.Context) error {
	models := []any{(*documentRow)(nil), (*chatLogRow)(nil)}
	for _, m := range models {
		if _, err := r.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// Ping verifies the database connection.
func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the connection pool.
func (r *Repo) Close() error {
	return r.db.Close()
}

// InsertDocument records a new upload and returns it with the assigned id.
func (r *Repo) InsertDocument(ctx context.Context, filename string) (domain.Document, error) {
	row := &documentRow{
		Filename:        filename,
		UploadTimestamp: time.Now().UTC(),
	}
	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return domain.Document{}, fmt.Errorf("insert document: %w", err)
	}
	return row.toDomain(), nil
}

// DeleteDocument removes a registry entry. Unknown ids map to
// domain.ErrDocumentNotFound so callers can treat repeats as no-ops.
func (r *Repo) DeleteDocument(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().Model((*documentRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete document %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document %d: rows affected: %w", id, err)
	}
	if affected == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// ListDocuments returns all registry entries, most recent upload first.
func (r *Repo) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	var rows []documentRow
	err := r.db.NewSelect().Model(&rows).Order("upload_timestamp DESC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs := make([]domain.Document, len(rows))
	for i, row := range rows {
		docs[i] = row.toDomain()
	}
	return docs, nil
}

// InsertTurn appends one question/answer pair to the session log.
func (r *Repo) InsertTurn(ctx context.Context, turn domain.Turn) error {
	row := turnToRow(turn)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert chat turn: %w", err)
	}
	return nil
}

// History returns the turns of a session in chronological order.
func (r *Repo) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	var rows []chatLogRow
	err := r.db.NewSelect().
		Model(&rows).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history for session %s: %w", sessionID, err)
	}
	turns := make([]domain.Turn, len(rows))
	for i, row := range rows {
		turns[i] = row.toDomain()
	}
	return turns, nil
}
