package sqlitestore

import (
	"context"

	"github.com/markramm/pyrite/pkg/backend"
)

var migrations = []struct {
	version int
	stmt    string
}{
	{1, `ALTER TABLE entry ADD COLUMN schema_note TEXT NOT NULL DEFAULT ''`},
}

// runMigrations applies pending migrations in order. schema_migrations is
// created by schemaSQL itself so this always has somewhere to record
// progress, even against a brand-new database.
func (s *Store) runMigrations(ctx context.Context) error {
	for _, m := range migrations {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err != nil {
			return &backend.ErrStorage{Op: "migrate.check", Err: err}
		}
		if exists > 0 {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return &backend.ErrStorage{Op: "migrate.begin", Err: err}
		}
		// ALTER TABLE ADD COLUMN is idempotent-unsafe in SQLite (no IF NOT
		// EXISTS); guarded by the schema_migrations row check above instead.
		if _, err := tx.ExecContext(ctx, m.stmt); err != nil {
			tx.Rollback()
			return &backend.ErrStorage{Op: "migrate.apply", Err: err}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`, m.version, nowString()); err != nil {
			tx.Rollback()
			return &backend.ErrStorage{Op: "migrate.record", Err: err}
		}
		if err := tx.Commit(); err != nil {
			return &backend.ErrStorage{Op: "migrate.commit", Err: err}
		}
	}
	return nil
}
