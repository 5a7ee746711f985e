// Package sqlitestore implements Pyrite's Relational+FTS Backend (C5,
// spec.md §4.5): the embedded reference implementation, backed by
// modernc.org/sqlite (pure Go, no cgo) with an FTS5 virtual table kept in
// sync via row-level triggers and a binary-packed float32 vector column
// for KNN. Grounded on the FTS5 content-table/trigger pattern of
// ternarybob-quaero's internal/storage/sqlite/schema.go.
package sqlitestore

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
	"github.com/ternarybob/arbor"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kb (
  name         TEXT PRIMARY KEY,
  kb_type      TEXT NOT NULL DEFAULT '',
  path         TEXT NOT NULL DEFAULT '',
  repo_url     TEXT NOT NULL DEFAULT '',
  read_only    INTEGER NOT NULL DEFAULT 0,
  last_indexed TEXT
);

CREATE TABLE IF NOT EXISTS entry (
  rowid        INTEGER PRIMARY KEY AUTOINCREMENT,
  id           TEXT NOT NULL,
  kb_name      TEXT NOT NULL,
  entry_type   TEXT NOT NULL DEFAULT 'generic',
  title        TEXT NOT NULL,
  body         TEXT NOT NULL DEFAULT '',
  summary      TEXT NOT NULL DEFAULT '',
  file_path    TEXT NOT NULL DEFAULT '',
  date         TEXT,
  importance   INTEGER NOT NULL DEFAULT 0,
  status       TEXT NOT NULL DEFAULT '',
  location     TEXT NOT NULL DEFAULT '',
  metadata     TEXT NOT NULL DEFAULT '{}',
  embedding    BLOB,
  created_at   TEXT NOT NULL,
  updated_at   TEXT NOT NULL,
  indexed_at   TEXT NOT NULL,
  created_by   TEXT NOT NULL DEFAULT '',
  modified_by  TEXT NOT NULL DEFAULT '',
  UNIQUE (id, kb_name)
);
CREATE INDEX IF NOT EXISTS idx_entry_kb ON entry(kb_name);
CREATE INDEX IF NOT EXISTS idx_entry_file_path ON entry(kb_name, file_path);
CREATE INDEX IF NOT EXISTS idx_entry_date ON entry(kb_name, date);

CREATE VIRTUAL TABLE IF NOT EXISTS entry_fts USING fts5(
  title, body, summary, location,
  content=entry, content_rowid=rowid, tokenize='porter'
);

CREATE TRIGGER IF NOT EXISTS entry_fts_insert AFTER INSERT ON entry BEGIN
  INSERT INTO entry_fts(rowid, title, body, summary, location)
  VALUES (new.rowid, new.title, new.body, new.summary, new.location);
END;

CREATE TRIGGER IF NOT EXISTS entry_fts_update AFTER UPDATE ON entry BEGIN
  UPDATE entry_fts SET title = new.title, body = new.body, summary = new.summary, location = new.location
  WHERE rowid = new.rowid;
END;

CREATE TRIGGER IF NOT EXISTS entry_fts_delete AFTER DELETE ON entry BEGIN
  DELETE FROM entry_fts WHERE rowid = old.rowid;
END;

CREATE TABLE IF NOT EXISTS tag (
  name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS entry_tag (
  entry_id TEXT NOT NULL,
  kb_name  TEXT NOT NULL,
  tag_name TEXT NOT NULL,
  PRIMARY KEY (entry_id, kb_name, tag_name)
);
CREATE INDEX IF NOT EXISTS idx_entry_tag_tag ON entry_tag(tag_name);

CREATE TABLE IF NOT EXISTS link (
  source_id        TEXT NOT NULL,
  source_kb        TEXT NOT NULL,
  target_id        TEXT NOT NULL,
  target_kb        TEXT NOT NULL,
  relation         TEXT NOT NULL,
  inverse_relation TEXT NOT NULL,
  note             TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_link_source ON link(source_id, source_kb);
CREATE INDEX IF NOT EXISTS idx_link_target ON link(target_id, target_kb);

CREATE TABLE IF NOT EXISTS entry_ref (
  source_id   TEXT NOT NULL,
  source_kb   TEXT NOT NULL,
  target_id   TEXT NOT NULL,
  target_kb   TEXT NOT NULL,
  field_name  TEXT NOT NULL,
  target_type TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_entry_ref_source ON entry_ref(source_id, source_kb);
CREATE INDEX IF NOT EXISTS idx_entry_ref_target ON entry_ref(target_id, target_kb);

CREATE TABLE IF NOT EXISTS source (
  entry_id TEXT NOT NULL,
  kb_name  TEXT NOT NULL,
  title    TEXT NOT NULL DEFAULT '',
  url      TEXT NOT NULL DEFAULT '',
  outlet   TEXT NOT NULL DEFAULT '',
  date     TEXT NOT NULL DEFAULT '',
  verified INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_source_entry ON source(entry_id, kb_name);

CREATE TABLE IF NOT EXISTS block (
  entry_id   TEXT NOT NULL,
  kb_name    TEXT NOT NULL,
  block_id   TEXT NOT NULL,
  heading    TEXT NOT NULL DEFAULT '',
  content    TEXT NOT NULL DEFAULT '',
  position   INTEGER NOT NULL,
  block_type TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_block_entry ON block(entry_id, kb_name, position);

CREATE TABLE IF NOT EXISTS schema_migrations (
  version    INTEGER PRIMARY KEY,
  applied_at TEXT NOT NULL
);
`

// Store implements backend.Backend against an embedded SQLite database.
// One Store owns one *sql.DB; two Store instances must never share a DSN
// opened concurrently for write (spec.md §5).
type Store struct {
	db     *sql.DB
	logger arbor.ILogger
}

// Config configures a new Store.
type Config struct {
	// Path is the sqlite file path, or ":memory:" for an ephemeral store.
	Path   string
	Logger arbor.ILogger
}

func New(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "open", Err: err}
	}
	// SQLite serializes writers; a single connection avoids
	// "database is locked" errors under concurrent access.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: cfg.Logger}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, &backend.ErrStorage{Op: "pragma_foreign_keys", Err: err}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, &backend.ErrStorage{Op: "init_schema", Err: err}
	}
	if err := s.runMigrations(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) RegisterKB(ctx context.Context, kb model.KB) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO kb (name, kb_type, path, repo_url, read_only, last_indexed) VALUES (?,?,?,?,?,?)
ON CONFLICT(name) DO UPDATE SET kb_type=excluded.kb_type, path=excluded.path, repo_url=excluded.repo_url, read_only=excluded.read_only`,
		kb.Name, kb.KBType, kb.Path, kb.RepoURL, boolToInt(kb.ReadOnly), timeOrNull(kb.LastIndexed))
	if err != nil {
		return &backend.ErrStorage{Op: "register_kb", Err: err}
	}
	return nil
}

func (s *Store) UnregisterKB(ctx context.Context, kbName string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kb WHERE name = ?`, kbName); err != nil {
		return &backend.ErrStorage{Op: "unregister_kb", Err: err}
	}
	return nil
}

func (s *Store) GetKB(ctx context.Context, kbName string) (*model.KB, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT k.name, k.kb_type, k.path, k.repo_url, k.read_only, k.last_indexed,
       (SELECT count(*) FROM entry e WHERE e.kb_name = k.name)
FROM kb k WHERE k.name = ?`, kbName)
	kb, err := scanKB(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &backend.ErrStorage{Op: "get_kb", Err: err}
	}
	return kb, nil
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
		kb, err := scanKB(rows)
		if err != nil {
			return nil, &backend.ErrStorage{Op: "list_kbs", Err: err}
		}
		out = append(out, *kb)
	}
	return out, rows.Err()
}

func scanKB(row scannable) (*model.KB, error) {
	var kb model.KB
	var lastIndexed sql.NullString
	var readOnly int
	if err := row.Scan(&kb.Name, &kb.KBType, &kb.Path, &kb.RepoURL, &readOnly, &lastIndexed, &kb.EntryCount); err != nil {
		return nil, err
	}
	kb.ReadOnly = readOnly != 0
	if lastIndexed.Valid {
		kb.LastIndexed, _ = time.Parse(time.RFC3339, lastIndexed.String)
	}
	return &kb, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func timeOrNull(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func nowString() string { return time.Now().UTC().Format(time.RFC3339) }

func parseTimeOrZero(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
