package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"
	"sort"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

// packEmbedding encodes a vector as little-endian float32 bytes, the
// "external vector index (binary packed float32[D])" format spec.md §4.5
// describes for the embedded backend.
func packEmbedding(vec model.Embedding) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func unpackEmbedding(b []byte) model.Embedding {
	vec := make(model.Embedding, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec
}

func cosineDistance(a, b model.Embedding) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return math.Inf(1)
	}
	similarity := dot / (math.Sqrt(magA) * math.Sqrt(magB))
	return 1 - similarity
}

func (s *Store) UpsertEmbedding(ctx context.Context, id, kbName string, vec model.Embedding) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE entry SET embedding = ? WHERE id=? AND kb_name=?`, packEmbedding(vec), id, kbName)
	if err != nil {
		return false, &backend.ErrStorage{Op: "upsert_embedding", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &backend.ErrStorage{Op: "upsert_embedding.rows_affected", Err: err}
	}
	return n > 0, nil
}

// SearchSemantic performs a brute-force KNN scan: the embedded backend
// keeps embeddings as opaque blobs with no native vector index, so every
// candidate row's distance is computed in Go and the result sorted and
// truncated here.
func (s *Store) SearchSemantic(ctx context.Context, filter backend.SemanticFilter) ([]backend.SemanticResult, error) {
	query := `
SELECT id, kb_name, entry_type, title, body, summary, file_path, date, importance, status, location,
       metadata, created_at, updated_at, indexed_at, created_by, modified_by, embedding
FROM entry WHERE embedding IS NOT NULL`
	args := []any{}
	if filter.KBName != "" {
		query += " AND kb_name = ?"
		args = append(args, filter.KBName)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &backend.ErrStorage{Op: "search_semantic", Err: err}
	}
	defer rows.Close()

	var candidates []backend.SemanticResult
	for rows.Next() {
		var blob []byte
		e, err := scanEntryWithEmbedding(rows, &blob)
		if err != nil {
			return nil, &backend.ErrStorage{Op: "search_semantic", Err: err}
		}
		distance := cosineDistance(filter.Vector, unpackEmbedding(blob))
		if filter.MaxDistance > 0 && distance > filter.MaxDistance {
			continue
		}
		candidates = append(candidates, backend.SemanticResult{Entry: *e, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, &backend.ErrStorage{Op: "search_semantic", Err: err}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Distance < candidates[j].Distance })
	limit, _ := paginate(filter.Limit, 0)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func scanEntryWithEmbedding(rows rowScanner, blob *[]byte) (*model.Entry, error) {
	e := &model.Entry{}
	var date sql.NullString
	var createdBy, modifiedBy string
	var createdAt, updatedAt, indexedAt, metaText string
	if err := rows.Scan(&e.ID, &e.KBName, &e.EntryType, &e.Title, &e.Body, &e.Summary, &e.FilePath,
		&date, &e.Importance, &e.Status, &e.Location, &metaText, &createdAt, &updatedAt, &indexedAt,
		&createdBy, &modifiedBy, blob); err != nil {
		return nil, err
	}
	e.Date = date.String
	e.CreatedBy = createdBy
	e.ModifiedBy = modifiedBy
	e.CreatedAt = parseTimeOrZero(createdAt)
	e.UpdatedAt = parseTimeOrZero(updatedAt)
	e.IndexedAt = parseTimeOrZero(indexedAt)
	e.Metadata = unmarshalMeta(metaText)
	return e, nil
}

func (s *Store) HasEmbeddings(ctx context.Context, kbName string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM entry WHERE kb_name=? AND embedding IS NOT NULL)`, kbName)
	var has int
	if err := row.Scan(&has); err != nil {
		return false, &backend.ErrStorage{Op: "has_embeddings", Err: err}
	}
	return has != 0, nil
}

func (s *Store) EmbeddingStats(ctx context.Context, kbName string) (backend.EmbeddingStats, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT count(*), count(embedding) FROM entry WHERE kb_name = ?`, kbName)
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
	_, err := s.db.ExecContext(ctx, `UPDATE entry SET embedding = NULL WHERE id=? AND kb_name=?`, id, kbName)
	if err != nil {
		return &backend.ErrStorage{Op: "delete_embedding", Err: err}
	}
	return nil
}
