package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

// Search runs FTS5 MATCH against entry_fts, ranked by the engine's native
// bm25 relevance (lower is better; entry_fts.rank already reflects this
// ordering), ties broken by date DESC, title ASC. Tag filtering is
// conjunctive (spec.md §4.4).
func (s *Store) Search(ctx context.Context, filter backend.SearchFilter) ([]backend.SearchResult, error) {
	clauses := []string{"entry_fts MATCH ?"}
	args := []any{filter.Query}

	if filter.KBName != "" {
		clauses = append(clauses, "e.kb_name = ?")
		args = append(args, filter.KBName)
	}
	if filter.Type != "" {
		clauses = append(clauses, "e.entry_type = ?")
		args = append(args, filter.Type)
	}
	for _, tag := range filter.Tags {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM entry_tag et WHERE et.entry_id=e.id AND et.kb_name=e.kb_name AND et.tag_name=?)")
		args = append(args, tag)
	}
	if filter.DateFrom != "" {
		clauses = append(clauses, "e.date >= ?")
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		clauses = append(clauses, "e.date <= ?")
		args = append(args, filter.DateTo)
	}

	limit, offset := paginate(filter.Limit, filter.Offset)
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
SELECT e.id, e.kb_name, e.entry_type, e.title, e.body, e.summary, e.file_path, e.date, e.importance,
       e.status, e.location, e.metadata, e.created_at, e.updated_at, e.indexed_at, e.created_by, e.modified_by,
       entry_fts.rank, snippet(entry_fts, 1, '<mark>', '</mark>', '...', 12)
FROM entry_fts
JOIN entry e ON e.rowid = entry_fts.rowid
WHERE %s
ORDER BY entry_fts.rank, e.date DESC, e.title ASC
LIMIT ? OFFSET ?`, strings.Join(clauses, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "search", Err: err}
	}
	defer rows.Close()

	var out []backend.SearchResult
	for rows.Next() {
		e, rank, snippet, err := scanSearchRow(rows)
		if err != nil {
			return nil, &backend.ErrStorage{Op: "search", Err: err}
		}
		// bm25 is ascending (lower = better); invert so Score follows the
		// higher-is-better convention used by the other two backends.
		out = append(out, backend.SearchResult{Entry: *e, Snippet: snippet, Score: -rank})
	}
	return out, rows.Err()
}

func scanSearchRow(rows rowScanner) (*model.Entry, float64, string, error) {
	var e model.Entry
	var date, createdBy, modifiedBy sql.NullString
	var metaText string
	var createdAt, updatedAt, indexedAt string
	var rank float64
	var snippet string
	if err := rows.Scan(&e.ID, &e.KBName, &e.EntryType, &e.Title, &e.Body, &e.Summary, &e.FilePath,
		&date, &e.Importance, &e.Status, &e.Location, &metaText, &createdAt, &updatedAt, &indexedAt,
		&createdBy, &modifiedBy, &rank, &snippet); err != nil {
		return nil, 0, "", err
	}
	e.Date = date.String
	e.CreatedBy = createdBy.String
	e.ModifiedBy = modifiedBy.String
	e.CreatedAt = parseTimeOrZero(createdAt)
	e.UpdatedAt = parseTimeOrZero(updatedAt)
	e.IndexedAt = parseTimeOrZero(indexedAt)
	e.Metadata = unmarshalMeta(metaText)
	return &e, rank, snippet, nil
}

func (s *Store) SearchByTag(ctx context.Context, kbName, tag string, limit, offset int) ([]model.Entry, error) {
	return s.ListEntries(ctx, backend.ListFilter{KBName: kbName, Tag: tag, Limit: limit, Offset: offset, Sort: backend.SortUpdatedAt, Order: backend.OrderDesc})
}

func (s *Store) SearchByDateRange(ctx context.Context, kbName, from, to string, limit, offset int) ([]model.Entry, error) {
	l, o := paginate(limit, offset)
	rows, err := s.db.QueryContext(ctx, `
SELECT id, kb_name, entry_type, title, body, summary, file_path, date, importance, status, location,
       metadata, created_at, updated_at, indexed_at, created_by, modified_by
FROM entry
WHERE kb_name=? AND date IS NOT NULL AND date >= ? AND date <= ?
ORDER BY date ASC LIMIT ? OFFSET ?`, kbName, from, to, l, o)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "search_by_date_range", Err: err}
	}
	defer rows.Close()
	return scanEntries(rows)
}

// SearchByTagPrefix matches tag and any child tag/* beneath it.
func (s *Store) SearchByTagPrefix(ctx context.Context, kbName, prefix string, limit, offset int) ([]model.Entry, error) {
	l, o := paginate(limit, offset)
	rows, err := s.db.QueryContext(ctx, `
SELECT DISTINCT e.id, e.kb_name, e.entry_type, e.title, e.body, e.summary, e.file_path, e.date, e.importance,
       e.status, e.location, e.metadata, e.created_at, e.updated_at, e.indexed_at, e.created_by, e.modified_by
FROM entry e
JOIN entry_tag et ON et.entry_id = e.id AND et.kb_name = e.kb_name
WHERE e.kb_name = ? AND (et.tag_name = ? OR et.tag_name LIKE ?)
ORDER BY e.title ASC LIMIT ? OFFSET ?`, kbName, prefix, prefix+"/%", l, o)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "search_by_tag_prefix", Err: err}
	}
	defer rows.Close()
	return scanEntries(rows)
}
