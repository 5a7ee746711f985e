package columnarstore

import (
	"context"
	"strings"

	"github.com/timshannon/badgerhold/v4"

	"github.com/markramm/pyrite/pkg/backend"
)

// GetAllTags has no tag junction table to group by, so it iterates the
// denormalized Tags column of every document and aggregates in Go.
func (s *Store) GetAllTags(ctx context.Context, kbName string) ([]backend.TagCount, error) {
	var docs []doc
	if err := s.db.Find(&docs, badgerhold.Where("KBName").Eq(kbName)); err != nil {
		return nil, &backend.ErrStorage{Op: "get_all_tags", Err: err}
	}
	counts := make(map[string]int)
	for _, d := range docs {
		for _, t := range d.Tags {
			counts[t]++
		}
	}
	return tagCountsOf(counts), nil
}

func (s *Store) GetTagsAsDicts(ctx context.Context, kbName, prefix string) ([]backend.TagCount, error) {
	if prefix == "" {
		return s.GetAllTags(ctx, kbName)
	}
	var docs []doc
	if err := s.db.Find(&docs, badgerhold.Where("KBName").Eq(kbName)); err != nil {
		return nil, &backend.ErrStorage{Op: "get_tags_as_dicts", Err: err}
	}
	counts := make(map[string]int)
	for _, d := range docs {
		for _, t := range d.Tags {
			if t == prefix || strings.HasPrefix(t, prefix+"/") {
				counts[t]++
			}
		}
	}
	return tagCountsOf(counts), nil
}

func tagCountsOf(counts map[string]int) []backend.TagCount {
	out := make([]backend.TagCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, backend.TagCount{Name: name, Count: n})
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && tagCountLess(out[j], out[j-1]); j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func tagCountLess(a, b backend.TagCount) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	return a.Name < b.Name
}
