package pgstore

import (
	"context"

	"github.com/markramm/pyrite/pkg/backend"
)

// migrations are applied in order, each exactly once, tracked in
// schema_migrations. New migrations are appended; existing entries are
// never edited in place (spec.md §11 supplemented feature: schema-version
// migrations, absent from the distilled spec but present in the original
// Python backend's migration scripts).
var migrations = []struct {
	version int
	stmt    string
}{
	{1, `ALTER TABLE entry ADD COLUMN IF NOT EXISTS schema_note text NOT NULL DEFAULT ''`},
}

func (s *Store) runMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (version int PRIMARY KEY, applied_at timestamptz NOT NULL DEFAULT now())`); err != nil {
		return &backend.ErrStorage{Op: "migrate.ensure_table", Err: err}
	}

	for _, m := range migrations {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version=$1)`, m.version).Scan(&exists); err != nil {
			return &backend.ErrStorage{Op: "migrate.check", Err: err}
		}
		if exists {
			continue
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return &backend.ErrStorage{Op: "migrate.begin", Err: err}
		}
		if _, err := tx.ExecContext(ctx, m.stmt); err != nil {
			tx.Rollback()
			return &backend.ErrStorage{Op: "migrate.apply", Err: err}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version); err != nil {
			tx.Rollback()
			return &backend.ErrStorage{Op: "migrate.record", Err: err}
		}
		if err := tx.Commit(); err != nil {
			return &backend.ErrStorage{Op: "migrate.commit", Err: err}
		}
	}
	return nil
}
