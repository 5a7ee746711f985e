package sqlitestore

import (
	"context"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

func (s *Store) GetGraphData(ctx context.Context, filter backend.GraphFilter) (backend.GraphData, error) {
	return backend.BFS(ctx, s, filter)
}

func (s *Store) GetMostLinked(ctx context.Context, kbName string, limit int) ([]backend.LinkCount, error) {
	l, _ := paginate(limit, 0)
	rows, err := s.db.QueryContext(ctx, `
SELECT e.id, e.kb_name, e.title, count(l.rowid) AS degree
FROM entry e
LEFT JOIN link l ON (l.source_id = e.id AND l.source_kb = e.kb_name) OR (l.target_id = e.id AND l.target_kb = e.kb_name)
WHERE e.kb_name = ?
GROUP BY e.id, e.kb_name, e.title
ORDER BY degree DESC, e.title ASC
LIMIT ?`, kbName, l)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "get_most_linked", Err: err}
	}
	defer rows.Close()

	var out []backend.LinkCount
	for rows.Next() {
		var lc backend.LinkCount
		if err := rows.Scan(&lc.ID, &lc.KBName, &lc.Title, &lc.Count); err != nil {
			return nil, &backend.ErrStorage{Op: "get_most_linked", Err: err}
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}

func (s *Store) GetOrphans(ctx context.Context, kbName string, limit, offset int) ([]model.Entry, error) {
	l, o := paginate(limit, offset)
	rows, err := s.db.QueryContext(ctx, `
SELECT id, kb_name, entry_type, title, body, summary, file_path, date, importance, status, location,
       metadata, created_at, updated_at, indexed_at, created_by, modified_by
FROM entry e
WHERE kb_name = ?
  AND NOT EXISTS (SELECT 1 FROM link l WHERE (l.source_id=e.id AND l.source_kb=e.kb_name) OR (l.target_id=e.id AND l.target_kb=e.kb_name))
ORDER BY title ASC LIMIT ? OFFSET ?`, kbName, l, o)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "get_orphans", Err: err}
	}
	defer rows.Close()
	return scanEntries(rows)
}
