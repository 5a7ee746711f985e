package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

// Search runs a lexical full-text search against the trigger-maintained
// search_tsv column, ranked by ts_rank_cd with ties broken by date DESC,
// title ASC. Tag filtering is conjunctive (spec.md §4.4).
func (s *Store) Search(ctx context.Context, filter backend.SearchFilter) ([]backend.SearchResult, error) {
	var clauses []string
	args := []any{filter.Query}
	clauses = append(clauses, "search_tsv @@ plainto_tsquery('english', $1)")
	idx := 2

	if filter.KBName != "" {
		clauses = append(clauses, fmt.Sprintf("kb_name = $%d", idx))
		args = append(args, filter.KBName)
		idx++
	}
	if filter.Type != "" {
		clauses = append(clauses, fmt.Sprintf("entry_type = $%d", idx))
		args = append(args, filter.Type)
		idx++
	}
	for _, tag := range filter.Tags {
		clauses = append(clauses, fmt.Sprintf("EXISTS (SELECT 1 FROM entry_tag et WHERE et.entry_id=entry.id AND et.kb_name=entry.kb_name AND et.tag_name=$%d)", idx))
		args = append(args, tag)
		idx++
	}
	if filter.DateFrom != "" {
		clauses = append(clauses, fmt.Sprintf("date >= $%d", idx))
		args = append(args, filter.DateFrom)
		idx++
	}
	if filter.DateTo != "" {
		clauses = append(clauses, fmt.Sprintf("date <= $%d", idx))
		args = append(args, filter.DateTo)
		idx++
	}

	limit, offset := paginate(filter.Limit, filter.Offset)
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
SELECT id, kb_name, entry_type, title, body, summary, file_path, date, importance, status, location,
       metadata, created_at, updated_at, indexed_at, created_by, modified_by,
       ts_rank_cd(search_tsv, plainto_tsquery('english', $1)) AS rank,
       ts_headline('english', body, plainto_tsquery('english', $1), 'StartSel=<mark>,StopSel=</mark>,MaxFragments=1,MinWords=5,MaxWords=25') AS snippet
FROM entry
WHERE %s
ORDER BY rank DESC, date DESC NULLS LAST, title ASC
LIMIT $%d OFFSET $%d`, strings.Join(clauses, " AND "), len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "search", Err: err}
	}
	defer rows.Close()

	var out []backend.SearchResult
	for rows.Next() {
		var e model.Entry
		var date sql.NullTime
		var createdBy, modifiedBy sqlNullString
		var metaBytes []byte
		var rank float64
		var snippet string
		if err := rows.Scan(&e.ID, &e.KBName, &e.EntryType, &e.Title, &e.Body, &e.Summary, &e.FilePath,
			&date, &e.Importance, &e.Status, &e.Location, &metaBytes, &e.CreatedAt, &e.UpdatedAt, &e.IndexedAt,
			&createdBy, &modifiedBy, &rank, &snippet); err != nil {
			return nil, &backend.ErrStorage{Op: "search", Err: err}
		}
		if date.Valid {
			e.Date = date.Time.Format("2006-01-02")
		}
		e.CreatedBy = createdBy.String
		e.ModifiedBy = modifiedBy.String
		e.Metadata = unmarshalMeta(metaBytes)
		out = append(out, backend.SearchResult{Entry: e, Snippet: snippet, Score: rank})
	}
	return out, rows.Err()
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
WHERE kb_name=$1 AND date IS NOT NULL AND date >= $2 AND date <= $3
ORDER BY date ASC LIMIT $4 OFFSET $5`, kbName, from, to, l, o)
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
WHERE e.kb_name = $1 AND (et.tag_name = $2 OR et.tag_name LIKE $3)
ORDER BY e.title ASC LIMIT $4 OFFSET $5`, kbName, prefix, prefix+"/%", l, o)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "search_by_tag_prefix", Err: err}
	}
	defer rows.Close()
	return scanEntries(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
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
