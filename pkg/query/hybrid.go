// Package query implements the operations that sit above the Backend
// contract and are therefore shared by every backend implementation for
// free: hybrid search (spec.md §4.9), graph BFS, wanted pages, and folder
// enumeration. Hybrid search's Reciprocal Rank Fusion is grounded on
// store-core's pkg/hybridsearch/search.go rrfFusion, simplified to the
// unweighted two-list fusion spec.md §4.9 specifies.
package query

import (
	"context"
	"sort"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

// rrfK is the Reciprocal Rank Fusion smoothing constant spec.md §4.9 fixes
// at 60 for both the lexical and semantic rank lists.
const rrfK = 60

// HybridResult pairs a fused entry with its contributing lexical and
// semantic ranks (0 when absent from that list) and the fused score.
type HybridResult struct {
	Entry    model.Entry
	Score    float64
	LexRank  int
	SemRank  int
}

// HybridSearch runs lexical and semantic search independently, each
// capped at k, and fuses them by Reciprocal Rank Fusion: an entry's score
// is 1/(60+lexRank) + 1/(60+semRank), with a missing rank contributing 0.
// The top limit results by fused score are returned.
func HybridSearch(ctx context.Context, b backend.Backend, kbName, text string, vector model.Embedding, k, limit int) ([]HybridResult, error) {
	if k <= 0 {
		k = 50
	}
	if limit <= 0 {
		limit = 20
	}

	lexical, err := b.Search(ctx, backend.SearchFilter{Query: text, KBName: kbName, Limit: k})
	if err != nil {
		return nil, err
	}
	var semantic []backend.SemanticResult
	if len(vector) > 0 {
		semantic, err = b.SearchSemantic(ctx, backend.SemanticFilter{Vector: vector, KBName: kbName, Limit: k})
		if err != nil {
			return nil, err
		}
	}

	fused := make(map[model.EntryKey]*HybridResult)
	for i, r := range lexical {
		rank := i + 1
		key := r.Entry.Key()
		fused[key] = &HybridResult{Entry: r.Entry, LexRank: rank, Score: 1.0 / float64(rrfK+rank)}
	}
	for i, r := range semantic {
		rank := i + 1
		key := r.Entry.Key()
		if existing, ok := fused[key]; ok {
			existing.SemRank = rank
			existing.Score += 1.0 / float64(rrfK+rank)
		} else {
			fused[key] = &HybridResult{Entry: r.Entry, SemRank: rank, Score: 1.0 / float64(rrfK+rank)}
		}
	}

	out := make([]HybridResult, 0, len(fused))
	for _, r := range fused {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Entry.ID < out[j].Entry.ID
	})
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
