package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

// toVectorLiteral formats a []float32 as a pgvector literal, grounded on
// store-core's pkg/vectorstore/pgvector_store.go.
func toVectorLiteral(vec model.Embedding) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (s *Store) UpsertEmbedding(ctx context.Context, id, kbName string, vec model.Embedding) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE entry SET embedding = $1 WHERE id=$2 AND kb_name=$3`,
		toVectorLiteral(vec), id, kbName)
	if err != nil {
		return false, &backend.ErrStorage{Op: "upsert_embedding", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &backend.ErrStorage{Op: "upsert_embedding.rows_affected", Err: err}
	}
	return n > 0, nil
}

func (s *Store) SearchSemantic(ctx context.Context, filter backend.SemanticFilter) ([]backend.SemanticResult, error) {
	lit := toVectorLiteral(filter.Vector)
	clauses := []string{"embedding IS NOT NULL"}
	args := []any{}
	idx := 1
	if filter.KBName != "" {
		clauses = append(clauses, fmt.Sprintf("kb_name = $%d", idx))
		args = append(args, filter.KBName)
		idx++
	}
	limit, _ := paginate(filter.Limit, 0)
	args = append(args, limit)

	query := fmt.Sprintf(`
SELECT id, kb_name, entry_type, title, body, summary, file_path, date, importance, status, location,
       metadata, created_at, updated_at, indexed_at, created_by, modified_by,
       embedding <=> '%s' AS distance
FROM entry
WHERE %s
ORDER BY embedding <=> '%s'
LIMIT $%d`, lit, strings.Join(clauses, " AND "), lit, idx)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "search_semantic", Err: err}
	}
	defer rows.Close()

	var out []backend.SemanticResult
	for rows.Next() {
		var e model.Entry
		var date sql.NullTime
		var createdBy, modifiedBy sqlNullString
		var metaBytes []byte
		var distance float64
		if err := rows.Scan(&e.ID, &e.KBName, &e.EntryType, &e.Title, &e.Body, &e.Summary, &e.FilePath,
			&date, &e.Importance, &e.Status, &e.Location, &metaBytes, &e.CreatedAt, &e.UpdatedAt, &e.IndexedAt,
			&createdBy, &modifiedBy, &distance); err != nil {
			return nil, &backend.ErrStorage{Op: "search_semantic", Err: err}
		}
		if filter.MaxDistance > 0 && distance > filter.MaxDistance {
			continue
		}
		if date.Valid {
			e.Date = date.Time.Format("2006-01-02")
		}
		e.CreatedBy = createdBy.String
		e.ModifiedBy = modifiedBy.String
		e.Metadata = unmarshalMeta(metaBytes)
		out = append(out, backend.SemanticResult{Entry: e, Distance: distance})
	}
	return out, rows.Err()
}

func (s *Store) HasEmbeddings(ctx context.Context, kbName string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM entry WHERE kb_name=$1 AND embedding IS NOT NULL)`, kbName)
	var has bool
	if err := row.Scan(&has); err != nil {
		return false, &backend.ErrStorage{Op: "has_embeddings", Err: err}
	}
	return has, nil
}

// EmbeddingStats runs against the dedicated scan pool (pgx/v5 stdlib) so a
// full-table coverage scan never contends with the interactive connection
// pool used by Search/GetEntry.
func (s *Store) EmbeddingStats(ctx context.Context, kbName string) (backend.EmbeddingStats, error) {
	row := s.scanDB.QueryRowContext(ctx, `
SELECT count(*), count(embedding) FROM entry WHERE kb_name=$1`, kbName)
	var total, withVector int
	if err := row.Scan(&total, &withVector); err != nil {
		return backend.EmbeddingStats{}, &backend.ErrStorage{Op: "embedding_stats", Err: err}
	}
	stats := backend.EmbeddingStats{TotalEntries: total, EntriesWithVector: withVector}
	if total > 0 {
		stats.Coverage = float64(withVector) / float64(total)
	}
	return stats, nil
}

func (s *Store) DeleteEmbedding(ctx context.Context, id, kbName string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE entry SET embedding = NULL WHERE id=$1 AND kb_name=$2`, id, kbName)
	if err != nil {
		return &backend.ErrStorage{Op: "delete_embedding", Err: err}
	}
	return nil
}
