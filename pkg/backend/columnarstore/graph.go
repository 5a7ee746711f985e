package columnarstore

import (
	"context"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

func (s *Store) GetGraphData(ctx context.Context, filter backend.GraphFilter) (backend.GraphData, error) {
	return backend.BFS(ctx, s, filter)
}

// GetMostLinked has no edge table to aggregate over, so it scans every
// document in the KB and counts both its outgoing links and the
// incoming links it appears as a target in, the same full-scan
// tradeoff GetBacklinks documents.
func (s *Store) GetMostLinked(ctx context.Context, kbName string, limit int) ([]backend.LinkCount, error) {
	var docs []doc
	if err := s.db.Find(&docs, listQuery(backend.ListFilter{KBName: kbName})); err != nil {
		return nil, &backend.ErrStorage{Op: "get_most_linked", Err: err}
	}
	degree := make(map[string]int, len(docs))
	title := make(map[string]string, len(docs))
	for _, d := range docs {
		degree[d.ID] += len(d.Links)
		title[d.ID] = d.Title
	}
	for _, d := range docs {
		for _, l := range d.Links {
			if l.TargetKB == kbName {
				degree[l.TargetID]++
			}
		}
	}

	out := make([]backend.LinkCount, 0, len(degree))
	for id, n := range degree {
		out = append(out, backend.LinkCount{ID: id, KBName: kbName, Title: title[id], Count: n})
	}
	sortLinkCounts(out)
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func sortLinkCounts(out []backend.LinkCount) {
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && linkCountLess(out[j], out[j-1]); j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
}

func linkCountLess(a, b backend.LinkCount) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	return a.Title < b.Title
}

func (s *Store) GetOrphans(ctx context.Context, kbName string, limit, offset int) ([]model.Entry, error) {
	var docs []doc
	if err := s.db.Find(&docs, listQuery(backend.ListFilter{KBName: kbName})); err != nil {
		return nil, &backend.ErrStorage{Op: "get_orphans", Err: err}
	}
	linked := make(map[string]bool, len(docs))
	for _, d := range docs {
		for _, l := range d.Links {
			linked[l.SourceID] = true
			if l.TargetKB == kbName {
				linked[l.TargetID] = true
			}
		}
	}
	orphans := docs[:0]
	for _, d := range docs {
		if !linked[d.ID] {
			orphans = append(orphans, d)
		}
	}
	sortDocs(orphans, backend.SortTitle, backend.OrderAsc)
	orphans = paginateDocs(orphans, limit, offset)
	return docsToEntries(orphans), nil
}
