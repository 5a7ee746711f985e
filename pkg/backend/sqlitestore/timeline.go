package sqlitestore

import (
	"context"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

func (s *Store) GetTimeline(ctx context.Context, filter backend.TimelineFilter) ([]model.Entry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, kb_name, entry_type, title, body, summary, file_path, date, importance, status, location,
       metadata, created_at, updated_at, indexed_at, created_by, modified_by
FROM entry
WHERE kb_name = ? AND date IS NOT NULL
  AND (? = '' OR date >= ?)
  AND (? = '' OR date <= ?)
  AND importance >= ?
ORDER BY date ASC
LIMIT ?`, filter.KBName, filter.DateFrom, filter.DateFrom, filter.DateTo, filter.DateTo, filter.MinImportance, limit)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "get_timeline", Err: err}
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) GetRefsFrom(ctx context.Context, id, kbName, fieldName string) ([]model.EntryRef, error) {
	query := `SELECT source_id, source_kb, target_id, target_kb, field_name, target_type FROM entry_ref WHERE source_id=? AND source_kb=?`
	args := []any{id, kbName}
	if fieldName != "" {
		query += " AND field_name = ?"
		args = append(args, fieldName)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "get_refs_from", Err: err}
	}
	defer rows.Close()
	return scanRefs(rows)
}

func (s *Store) GetRefsTo(ctx context.Context, id, kbName string) ([]model.EntryRef, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT source_id, source_kb, target_id, target_kb, field_name, target_type
FROM entry_ref WHERE target_id=? AND target_kb=?`, id, kbName)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "get_refs_to", Err: err}
	}
	defer rows.Close()
	return scanRefs(rows)
}

func scanRefs(rows rowScanner) ([]model.EntryRef, error) {
	var out []model.EntryRef
	for rows.Next() {
		var r model.EntryRef
		if err := rows.Scan(&r.SourceID, &r.SourceKB, &r.TargetID, &r.TargetKB, &r.FieldName, &r.TargetType); err != nil {
			return nil, &backend.ErrStorage{Op: "scan_refs", Err: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListEntriesInFolder(ctx context.Context, filter backend.FolderFilter) ([]model.Entry, error) {
	l, o := paginate(filter.Limit, filter.Offset)
	rows, err := s.db.QueryContext(ctx, `
SELECT id, kb_name, entry_type, title, body, summary, file_path, date, importance, status, location,
       metadata, created_at, updated_at, indexed_at, created_by, modified_by
FROM entry
WHERE kb_name = ? AND file_path LIKE ? AND entry_type <> 'collection'
ORDER BY file_path ASC LIMIT ? OFFSET ?`, filter.KBName, filter.Folder+"/%", l, o)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "list_entries_in_folder", Err: err}
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) CountEntriesInFolder(ctx context.Context, filter backend.FolderFilter) (int, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT count(*) FROM entry
WHERE kb_name = ? AND file_path LIKE ? AND entry_type <> 'collection'`, filter.KBName, filter.Folder+"/%")
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, &backend.ErrStorage{Op: "count_entries_in_folder", Err: err}
	}
	return n, nil
}
