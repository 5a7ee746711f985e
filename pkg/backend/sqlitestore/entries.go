package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

func (s *Store) UpsertEntry(ctx context.Context, entry *model.Entry) error {
	if entry.ID == "" || entry.KBName == "" {
		return &backend.ErrInvalidEntry{Reason: "id and kb_name are required"}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &backend.ErrStorage{Op: "upsert_entry.begin", Err: err}
	}
	defer tx.Rollback()

	var priorCreatedAt, priorCreatedBy sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT created_at, created_by FROM entry WHERE id=? AND kb_name=?`,
		entry.ID, entry.KBName).Scan(&priorCreatedAt, &priorCreatedBy)
	if err != nil && err != sql.ErrNoRows {
		return &backend.ErrStorage{Op: "upsert_entry.lookup", Err: err}
	}
	now := time.Now().UTC()
	createdAt := now.Format(time.RFC3339)
	if !entry.CreatedAt.IsZero() {
		createdAt = entry.CreatedAt.UTC().Format(time.RFC3339)
	}
	if priorCreatedAt.Valid {
		createdAt = priorCreatedAt.String
	}
	if priorCreatedBy.Valid && entry.CreatedBy == "" {
		entry.CreatedBy = priorCreatedBy.String
	}

	metaBytes, err := json.Marshal(entry.Metadata)
	if err != nil {
		return &backend.ErrStorage{Op: "upsert_entry.marshal_metadata", Err: err}
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO entry (id, kb_name, entry_type, title, body, summary, file_path, date, importance, status, location, metadata, created_at, updated_at, indexed_at, created_by, modified_by)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(id, kb_name) DO UPDATE SET
  entry_type=excluded.entry_type, title=excluded.title, body=excluded.body, summary=excluded.summary,
  file_path=excluded.file_path, date=excluded.date, importance=excluded.importance, status=excluded.status,
  location=excluded.location, metadata=excluded.metadata, updated_at=excluded.updated_at, indexed_at=excluded.indexed_at,
  modified_by=excluded.modified_by`,
		entry.ID, entry.KBName, entry.EntryType, entry.Title, entry.Body, entry.Summary, entry.FilePath,
		nullIfEmpty(entry.Date), entry.Importance, entry.Status, entry.Location, string(metaBytes),
		createdAt, now.Format(time.RFC3339), now.Format(time.RFC3339), entry.CreatedBy, entry.ModifiedBy)
	if err != nil {
		return &backend.ErrStorage{Op: "upsert_entry.entry", Err: err}
	}
	entry.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	entry.UpdatedAt = now
	entry.IndexedAt = now

	if err := replaceTags(ctx, tx, entry); err != nil {
		return err
	}
	if err := replaceLinks(ctx, tx, entry); err != nil {
		return err
	}
	if err := replaceRefs(ctx, tx, entry); err != nil {
		return err
	}
	if err := replaceSources(ctx, tx, entry); err != nil {
		return err
	}
	if err := replaceBlocks(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit()
}

func replaceTags(ctx context.Context, tx *sql.Tx, entry *model.Entry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tag WHERE entry_id=? AND kb_name=?`, entry.ID, entry.KBName); err != nil {
		return &backend.ErrStorage{Op: "upsert_entry.delete_tags", Err: err}
	}
	for _, tag := range model.NormalizeTags(entry.Tags) {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO tag (name) VALUES (?)`, tag); err != nil {
			return &backend.ErrStorage{Op: "upsert_entry.insert_tag", Err: err}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO entry_tag (entry_id, kb_name, tag_name) VALUES (?,?,?)`, entry.ID, entry.KBName, tag); err != nil {
			return &backend.ErrStorage{Op: "upsert_entry.insert_entry_tag", Err: err}
		}
	}
	return nil
}

func replaceLinks(ctx context.Context, tx *sql.Tx, entry *model.Entry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM link WHERE source_id=? AND source_kb=?`, entry.ID, entry.KBName); err != nil {
		return &backend.ErrStorage{Op: "upsert_entry.delete_links", Err: err}
	}
	for _, l := range entry.Links {
		if _, err := tx.ExecContext(ctx, `INSERT INTO link (source_id, source_kb, target_id, target_kb, relation, inverse_relation, note) VALUES (?,?,?,?,?,?,?)`,
			l.SourceID, l.SourceKB, l.TargetID, l.TargetKB, l.Relation, l.InverseRelation, l.Note); err != nil {
			return &backend.ErrStorage{Op: "upsert_entry.insert_link", Err: err}
		}
	}
	return nil
}

func replaceRefs(ctx context.Context, tx *sql.Tx, entry *model.Entry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_ref WHERE source_id=? AND source_kb=?`, entry.ID, entry.KBName); err != nil {
		return &backend.ErrStorage{Op: "upsert_entry.delete_refs", Err: err}
	}
	for _, r := range entry.Refs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO entry_ref (source_id, source_kb, target_id, target_kb, field_name, target_type) VALUES (?,?,?,?,?,?)`,
			r.SourceID, r.SourceKB, r.TargetID, r.TargetKB, r.FieldName, r.TargetType); err != nil {
			return &backend.ErrStorage{Op: "upsert_entry.insert_ref", Err: err}
		}
	}
	return nil
}

func replaceSources(ctx context.Context, tx *sql.Tx, entry *model.Entry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM source WHERE entry_id=? AND kb_name=?`, entry.ID, entry.KBName); err != nil {
		return &backend.ErrStorage{Op: "upsert_entry.delete_sources", Err: err}
	}
	for _, src := range entry.Sources {
		if _, err := tx.ExecContext(ctx, `INSERT INTO source (entry_id, kb_name, title, url, outlet, date, verified) VALUES (?,?,?,?,?,?,?)`,
			entry.ID, entry.KBName, src.Title, src.URL, src.Outlet, src.Date, boolToInt(src.Verified)); err != nil {
			return &backend.ErrStorage{Op: "upsert_entry.insert_source", Err: err}
		}
	}
	return nil
}

func replaceBlocks(ctx context.Context, tx *sql.Tx, entry *model.Entry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM block WHERE entry_id=? AND kb_name=?`, entry.ID, entry.KBName); err != nil {
		return &backend.ErrStorage{Op: "upsert_entry.delete_blocks", Err: err}
	}
	for _, b := range entry.Blocks {
		if _, err := tx.ExecContext(ctx, `INSERT INTO block (entry_id, kb_name, block_id, heading, content, position, block_type) VALUES (?,?,?,?,?,?,?)`,
			entry.ID, entry.KBName, b.BlockID, b.Heading, b.Content, b.Position, string(b.Type)); err != nil {
			return &backend.ErrStorage{Op: "upsert_entry.insert_block", Err: err}
		}
	}
	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, id, kbName string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, &backend.ErrStorage{Op: "delete_entry.begin", Err: err}
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM entry_tag WHERE entry_id=? AND kb_name=?`,
		`DELETE FROM link WHERE source_id=? AND source_kb=?`,
		`DELETE FROM entry_ref WHERE source_id=? AND source_kb=?`,
		`DELETE FROM source WHERE entry_id=? AND kb_name=?`,
		`DELETE FROM block WHERE entry_id=? AND kb_name=?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id, kbName); err != nil {
			return false, &backend.ErrStorage{Op: "delete_entry.cascade", Err: err}
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM entry WHERE id=? AND kb_name=?`, id, kbName)
	if err != nil {
		return false, &backend.ErrStorage{Op: "delete_entry", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &backend.ErrStorage{Op: "delete_entry.rows_affected", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return false, &backend.ErrStorage{Op: "delete_entry.commit", Err: err}
	}
	return n > 0, nil
}

func (s *Store) GetEntry(ctx context.Context, id, kbName string) (*model.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, kb_name, entry_type, title, body, summary, file_path, date, importance, status, location,
       metadata, created_at, updated_at, indexed_at, created_by, modified_by
FROM entry WHERE id=? AND kb_name=?`, id, kbName)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &backend.ErrStorage{Op: "get_entry", Err: err}
	}
	if entry.Tags, err = s.loadTags(ctx, id, kbName); err != nil {
		return nil, err
	}
	if entry.Sources, err = s.loadSources(ctx, id, kbName); err != nil {
		return nil, err
	}
	if entry.Links, err = s.GetOutlinks(ctx, id, kbName); err != nil {
		return nil, err
	}
	return entry, nil
}

func scanEntry(row scannable) (*model.Entry, error) {
	var e model.Entry
	var date, createdBy, modifiedBy sql.NullString
	var createdAt, updatedAt, indexedAt string
	var metaText string
	if err := row.Scan(&e.ID, &e.KBName, &e.EntryType, &e.Title, &e.Body, &e.Summary, &e.FilePath,
		&date, &e.Importance, &e.Status, &e.Location, &metaText, &createdAt, &updatedAt, &indexedAt,
		&createdBy, &modifiedBy); err != nil {
		return nil, err
	}
	e.Date = date.String
	e.CreatedBy = createdBy.String
	e.ModifiedBy = modifiedBy.String
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	e.IndexedAt, _ = time.Parse(time.RFC3339, indexedAt)
	e.Metadata = map[string]any{}
	if metaText != "" {
		_ = json.Unmarshal([]byte(metaText), &e.Metadata)
	}
	return &e, nil
}

func (s *Store) loadTags(ctx context.Context, id, kbName string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tag_name FROM entry_tag WHERE entry_id=? AND kb_name=? ORDER BY tag_name`, id, kbName)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "load_tags", Err: err}
	}
	defer rows.Close()
	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, &backend.ErrStorage{Op: "load_tags", Err: err}
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *Store) loadSources(ctx context.Context, id, kbName string) ([]model.Source, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title, url, outlet, date, verified FROM source WHERE entry_id=? AND kb_name=?`, id, kbName)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "load_sources", Err: err}
	}
	defer rows.Close()
	var out []model.Source
	for rows.Next() {
		var src model.Source
		var verified int
		if err := rows.Scan(&src.Title, &src.URL, &src.Outlet, &src.Date, &verified); err != nil {
			return nil, &backend.ErrStorage{Op: "load_sources", Err: err}
		}
		src.Verified = verified != 0
		out = append(out, src)
	}
	return out, rows.Err()
}

func (s *Store) GetOutlinks(ctx context.Context, id, kbName string) ([]model.Link, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT source_id, source_kb, target_id, target_kb, relation, inverse_relation, note
FROM link WHERE source_id=? AND source_kb=?`, id, kbName)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "get_outlinks", Err: err}
	}
	defer rows.Close()
	return scanLinks(rows)
}

func (s *Store) GetBacklinks(ctx context.Context, id, kbName string) ([]model.Link, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT source_id, source_kb, target_id, target_kb, inverse_relation, relation, note
FROM link WHERE target_id=? AND target_kb=?`, id, kbName)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "get_backlinks", Err: err}
	}
	defer rows.Close()
	return scanLinks(rows)
}

func scanLinks(rows rowScanner) ([]model.Link, error) {
	var out []model.Link
	for rows.Next() {
		var l model.Link
		if err := rows.Scan(&l.SourceID, &l.SourceKB, &l.TargetID, &l.TargetKB, &l.Relation, &l.InverseRelation, &l.Note); err != nil {
			return nil, &backend.ErrStorage{Op: "scan_links", Err: err}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) ListEntries(ctx context.Context, filter backend.ListFilter) ([]model.Entry, error) {
	where, args := listWhere(filter)
	orderCol := sortColumn(filter.Sort)
	orderDir := "ASC"
	if filter.Order == backend.OrderDesc {
		orderDir = "DESC"
	}
	limit, offset := paginate(filter.Limit, filter.Offset)
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
SELECT id, kb_name, entry_type, title, body, summary, file_path, date, importance, status, location,
       metadata, created_at, updated_at, indexed_at, created_by, modified_by
FROM entry %s ORDER BY %s %s, id ASC LIMIT ? OFFSET ?`, where, orderCol, orderDir)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "list_entries", Err: err}
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) CountEntries(ctx context.Context, filter backend.ListFilter) (int, error) {
	where, args := listWhere(filter)
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT count(*) FROM entry %s`, where), args...)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, &backend.ErrStorage{Op: "count_entries", Err: err}
	}
	return n, nil
}

func listWhere(filter backend.ListFilter) (string, []any) {
	var clauses []string
	var args []any
	if filter.KBName != "" {
		clauses = append(clauses, "kb_name = ?")
		args = append(args, filter.KBName)
	}
	if filter.Type != "" {
		clauses = append(clauses, "entry_type = ?")
		args = append(args, filter.Type)
	}
	if filter.Tag != "" {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM entry_tag et WHERE et.entry_id=entry.id AND et.kb_name=entry.kb_name AND et.tag_name=?)")
		args = append(args, filter.Tag)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func sortColumn(sort backend.SortField) string {
	switch sort {
	case backend.SortTitle:
		return "title"
	case backend.SortCreatedAt:
		return "created_at"
	case backend.SortEntryType:
		return "entry_type"
	default:
		return "updated_at"
	}
}

func paginate(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func unmarshalMeta(text string) map[string]any {
	meta := map[string]any{}
	if text != "" {
		_ = json.Unmarshal([]byte(text), &meta)
	}
	return meta
}

func scanEntries(rows rowScanner) ([]model.Entry, error) {
	var out []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, &backend.ErrStorage{Op: "scan_entries", Err: err}
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
