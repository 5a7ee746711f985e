// Package pgstore implements Pyrite's Server Relational Backend (C6,
// spec.md §4.6): a Postgres store with a trigger-maintained weighted
// tsvector column for lexical search and an in-row pgvector column for
// cosine-similarity KNN. Grounded on the Postgres CRUD and pgvector idiom
// of store-core's pkg/entity/postgres_registry.go and
// pkg/vectorstore/pgvector_store.go.
package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver, used for the pooled scan connection
	_ "github.com/lib/pq"              // registers the "postgres" driver, used for the primary connection

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
	"github.com/ternarybob/arbor"
)

// Store implements backend.Backend against Postgres with pgvector
// installed. It owns two pooled connections: db (driver "postgres", via
// lib/pq) for the transactional CRUD/search path, and scanDB (driver
// "pgx", via jackc/pgx/v5's stdlib adapter) reserved for the Index
// Manager's read-only embedding-coverage scans, so a long full-table scan
// never contends with the pool used by interactive queries.
type Store struct {
	db        *sql.DB
	scanDB    *sql.DB
	dimension int
	logger    arbor.ILogger
}

// Config configures a new Store.
type Config struct {
	DSN       string
	Dimension int
	Logger    arbor.ILogger
}

// New opens both connections, ensures the schema exists, and returns a
// ready Store. ensure_schema is idempotent (spec.md §4.6): it is safe to
// call New against an already-initialized database on every process
// startup.
func New(cfg Config) (*Store, error) {
	if cfg.Dimension <= 0 {
		cfg.Dimension = model.DefaultEmbeddingDimension
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxLifetime(30 * time.Minute)

	scanDB, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		db.Close()
		return nil, &backend.ErrStorage{Op: "open_scan_pool", Err: err}
	}
	scanDB.SetMaxOpenConns(2)

	s := &Store{db: db, scanDB: scanDB, dimension: cfg.Dimension, logger: cfg.Logger}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		scanDB.Close()
		return nil, err
	}
	if err := s.runMigrations(context.Background()); err != nil {
		db.Close()
		scanDB.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS kb (
  name         text PRIMARY KEY,
  kb_type      text NOT NULL DEFAULT '',
  path         text NOT NULL DEFAULT '',
  repo_url     text NOT NULL DEFAULT '',
  read_only    boolean NOT NULL DEFAULT false,
  last_indexed timestamptz
);

CREATE TABLE IF NOT EXISTS entry (
  id           text NOT NULL,
  kb_name      text NOT NULL REFERENCES kb(name) ON DELETE CASCADE,
  entry_type   text NOT NULL DEFAULT 'generic',
  title        text NOT NULL,
  body         text NOT NULL DEFAULT '',
  summary      text NOT NULL DEFAULT '',
  file_path    text NOT NULL DEFAULT '',
  date         date,
  importance   int NOT NULL DEFAULT 0,
  status       text NOT NULL DEFAULT '',
  location     text NOT NULL DEFAULT '',
  metadata     jsonb NOT NULL DEFAULT '{}',
  embedding    vector(%d),
  search_tsv   tsvector,
  created_at   timestamptz NOT NULL DEFAULT now(),
  updated_at   timestamptz NOT NULL DEFAULT now(),
  indexed_at   timestamptz NOT NULL DEFAULT now(),
  created_by   text NOT NULL DEFAULT '',
  modified_by  text NOT NULL DEFAULT '',
  PRIMARY KEY (id, kb_name)
);
CREATE INDEX IF NOT EXISTS entry_search_tsv_idx ON entry USING gin (search_tsv);
CREATE INDEX IF NOT EXISTS entry_embedding_idx ON entry USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
CREATE INDEX IF NOT EXISTS entry_file_path_idx ON entry (kb_name, file_path);
CREATE INDEX IF NOT EXISTS entry_date_idx ON entry (kb_name, date);

CREATE OR REPLACE FUNCTION entry_tsv_update() RETURNS trigger AS $$
BEGIN
  NEW.search_tsv :=
    setweight(to_tsvector('english', coalesce(NEW.title, '')), 'A') ||
    setweight(to_tsvector('english', coalesce(NEW.summary, '')), 'B') ||
    setweight(to_tsvector('english', coalesce(NEW.body, '')), 'C');
  RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS entry_tsv_trigger ON entry;
CREATE TRIGGER entry_tsv_trigger BEFORE INSERT OR UPDATE OF title, summary, body
  ON entry FOR EACH ROW EXECUTE FUNCTION entry_tsv_update();

CREATE TABLE IF NOT EXISTS tag (
  name text PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS entry_tag (
  entry_id text NOT NULL,
  kb_name  text NOT NULL,
  tag_name text NOT NULL REFERENCES tag(name),
  PRIMARY KEY (entry_id, kb_name, tag_name),
  FOREIGN KEY (entry_id, kb_name) REFERENCES entry(id, kb_name) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS entry_tag_tag_idx ON entry_tag (tag_name);

CREATE TABLE IF NOT EXISTS link (
  source_id        text NOT NULL,
  source_kb        text NOT NULL,
  target_id        text NOT NULL,
  target_kb        text NOT NULL,
  relation         text NOT NULL,
  inverse_relation text NOT NULL,
  note             text NOT NULL DEFAULT '',
  FOREIGN KEY (source_id, source_kb) REFERENCES entry(id, kb_name) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS link_source_idx ON link (source_id, source_kb);
CREATE INDEX IF NOT EXISTS link_target_idx ON link (target_id, target_kb);

CREATE TABLE IF NOT EXISTS entry_ref (
  source_id   text NOT NULL,
  source_kb   text NOT NULL,
  target_id   text NOT NULL,
  target_kb   text NOT NULL,
  field_name  text NOT NULL,
  target_type text NOT NULL DEFAULT '',
  FOREIGN KEY (source_id, source_kb) REFERENCES entry(id, kb_name) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS entry_ref_source_idx ON entry_ref (source_id, source_kb);
CREATE INDEX IF NOT EXISTS entry_ref_target_idx ON entry_ref (target_id, target_kb);

CREATE TABLE IF NOT EXISTS source (
  entry_id text NOT NULL,
  kb_name  text NOT NULL,
  title    text NOT NULL DEFAULT '',
  url      text NOT NULL DEFAULT '',
  outlet   text NOT NULL DEFAULT '',
  date     text NOT NULL DEFAULT '',
  verified boolean NOT NULL DEFAULT false,
  FOREIGN KEY (entry_id, kb_name) REFERENCES entry(id, kb_name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS block (
  entry_id  text NOT NULL,
  kb_name   text NOT NULL,
  block_id  text NOT NULL,
  heading   text NOT NULL DEFAULT '',
  content   text NOT NULL DEFAULT '',
  position  int NOT NULL,
  block_type text NOT NULL,
  FOREIGN KEY (entry_id, kb_name) REFERENCES entry(id, kb_name) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS block_entry_idx ON block (entry_id, kb_name, position);
`, s.dimension)

	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return &backend.ErrStorage{Op: "ensure_schema", Err: err}
	}
	return nil
}

func (s *Store) Close() error {
	err1 := s.db.Close()
	err2 := s.scanDB.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func (s *Store) RegisterKB(ctx context.Context, kb model.KB) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO kb (name, kb_type, path, repo_url, read_only, last_indexed)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (name) DO UPDATE SET
  kb_type=EXCLUDED.kb_type, path=EXCLUDED.path, repo_url=EXCLUDED.repo_url, read_only=EXCLUDED.read_only`,
		kb.Name, kb.KBType, kb.Path, kb.RepoURL, kb.ReadOnly, nullTime(kb.LastIndexed))
	if err != nil {
		return &backend.ErrStorage{Op: "register_kb", Err: err}
	}
	return nil
}

func (s *Store) UnregisterKB(ctx context.Context, kbName string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kb WHERE name = $1`, kbName)
	if err != nil {
		return &backend.ErrStorage{Op: "unregister_kb", Err: err}
	}
	return nil
}

func (s *Store) GetKB(ctx context.Context, kbName string) (*model.KB, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT k.name, k.kb_type, k.path, k.repo_url, k.read_only, k.last_indexed,
       (SELECT count(*) FROM entry e WHERE e.kb_name = k.name)
FROM kb k WHERE k.name = $1`, kbName)
	var kb model.KB
	var lastIndexed sql.NullTime
	if err := row.Scan(&kb.Name, &kb.KBType, &kb.Path, &kb.RepoURL, &kb.ReadOnly, &lastIndexed, &kb.EntryCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &backend.ErrStorage{Op: "get_kb", Err: err}
	}
	if lastIndexed.Valid {
		kb.LastIndexed = lastIndexed.Time
	}
	return &kb, nil
}

func (s *Store) ListKBs(ctx context.Context) ([]model.KB, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT k.name, k.kb_type, k.path, k.repo_url, k.read_only, k.last_indexed,
       (SELECT count(*) FROM entry e WHERE e.kb_name = k.name)
FROM kb k ORDER BY k.name`)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "list_kbs", Err: err}
	}
	defer rows.Close()

	var out []model.KB
	for rows.Next() {
		var kb model.KB
		var lastIndexed sql.NullTime
		if err := rows.Scan(&kb.Name, &kb.KBType, &kb.Path, &kb.RepoURL, &kb.ReadOnly, &lastIndexed, &kb.EntryCount); err != nil {
			return nil, &backend.ErrStorage{Op: "list_kbs", Err: err}
		}
		if lastIndexed.Valid {
			kb.LastIndexed = lastIndexed.Time
		}
		out = append(out, kb)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
