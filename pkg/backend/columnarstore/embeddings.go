package columnarstore

import (
	"context"
	"encoding/binary"
	"math"
	"sort"

	"github.com/timshannon/badgerhold/v4"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

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
	return 1 - dot/(math.Sqrt(magA)*math.Sqrt(magB))
}

func isZeroVector(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func (s *Store) UpsertEmbedding(ctx context.Context, id, kbName string, vec model.Embedding) (bool, error) {
	key := docKey(id, kbName)
	var d doc
	if err := s.db.Get(key, &d); err != nil {
		if err == badgerhold.ErrNotFound {
			return false, nil
		}
		return false, &backend.ErrStorage{Op: "upsert_embedding.get", Err: err}
	}
	d.Embedding = packEmbedding(vec)
	if err := s.db.Update(key, &d); err != nil {
		return false, &backend.ErrStorage{Op: "upsert_embedding", Err: err}
	}
	return true, nil
}

func (s *Store) SearchSemantic(ctx context.Context, filter backend.SemanticFilter) ([]backend.SemanticResult, error) {
	query := listQuery(backend.ListFilter{KBName: filter.KBName})
	var docs []doc
	if err := s.db.Find(&docs, query); err != nil {
		return nil, &backend.ErrStorage{Op: "search_semantic", Err: err}
	}

	var candidates []backend.SemanticResult
	for _, d := range docs {
		if len(d.Embedding) == 0 {
			continue
		}
		distance := cosineDistance(filter.Vector, unpackEmbedding(d.Embedding))
		if filter.MaxDistance > 0 && distance > filter.MaxDistance {
			continue
		}
		candidates = append(candidates, backend.SemanticResult{Entry: docToEntry(d), Distance: distance})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Distance < candidates[j].Distance })
	limit, _ := paginate(filter.Limit, 0)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// HasEmbeddings cannot rely on nil-ness alone: DeleteEmbedding overwrites
// the column with a same-length all-zero vector rather than clearing it
// (badgerhold has no per-field null), so a present-but-all-zero vector
// must be treated as "no embedding" too (doc.go).
func (s *Store) HasEmbeddings(ctx context.Context, kbName string) (bool, error) {
	var docs []doc
	if err := s.db.Find(&docs, badgerhold.Where("KBName").Eq(kbName)); err != nil {
		return false, &backend.ErrStorage{Op: "has_embeddings", Err: err}
	}
	for _, d := range docs {
		if len(d.Embedding) > 0 && !isZeroVector(d.Embedding) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) EmbeddingStats(ctx context.Context, kbName string) (backend.EmbeddingStats, error) {
	var docs []doc
	if err := s.db.Find(&docs, badgerhold.Where("KBName").Eq(kbName)); err != nil {
		return backend.EmbeddingStats{}, &backend.ErrStorage{Op: "embedding_stats", Err: err}
	}
	stats := backend.EmbeddingStats{TotalEntries: len(docs)}
	for _, d := range docs {
		if len(d.Embedding) > 0 && !isZeroVector(d.Embedding) {
			stats.EntriesWithVector++
		}
	}
	if stats.TotalEntries > 0 {
		stats.Coverage = float64(stats.EntriesWithVector) / float64(stats.TotalEntries)
	}
	return stats, nil
}

// DeleteEmbedding cannot null the Embedding field without a dedicated
// migration path, so it overwrites it with a same-length zero vector;
// HasEmbeddings and EmbeddingStats both know to treat that as absent.
func (s *Store) DeleteEmbedding(ctx context.Context, id, kbName string) error {
	key := docKey(id, kbName)
	var d doc
	if err := s.db.Get(key, &d); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return &backend.ErrStorage{Op: "delete_embedding.get", Err: err}
	}
	for i := range d.Embedding {
		d.Embedding[i] = 0
	}
	if err := s.db.Update(key, &d); err != nil {
		return &backend.ErrStorage{Op: "delete_embedding", Err: err}
	}
	return nil
}
