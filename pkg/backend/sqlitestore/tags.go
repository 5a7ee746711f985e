package sqlitestore

import (
	"context"

	"github.com/markramm/pyrite/pkg/backend"
)

func (s *Store) GetAllTags(ctx context.Context, kbName string) ([]backend.TagCount, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT tag_name, count(*) FROM entry_tag
WHERE kb_name = ?
GROUP BY tag_name
ORDER BY count(*) DESC, tag_name ASC`, kbName)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "get_all_tags", Err: err}
	}
	defer rows.Close()
	return scanTagCounts(rows)
}

func (s *Store) GetTagsAsDicts(ctx context.Context, kbName, prefix string) ([]backend.TagCount, error) {
	if prefix == "" {
		return s.GetAllTags(ctx, kbName)
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT tag_name, count(*) FROM entry_tag
WHERE kb_name = ? AND (tag_name = ? OR tag_name LIKE ?)
GROUP BY tag_name
ORDER BY count(*) DESC, tag_name ASC`, kbName, prefix, prefix+"/%")
	if err != nil {
		return nil, &backend.ErrStorage{Op: "get_tags_as_dicts", Err: err}
	}
	defer rows.Close()
	return scanTagCounts(rows)
}

func scanTagCounts(rows rowScanner) ([]backend.TagCount, error) {
	var out []backend.TagCount
	for rows.Next() {
		var tc backend.TagCount
		if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
			return nil, &backend.ErrStorage{Op: "scan_tag_counts", Err: err}
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}
