package query

import (
	"context"
	"sort"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

// WantedPages finds outgoing links whose target has no corresponding
// entry, grouped by (target_id, target_kb) with a reference count and the
// distinct list of referencing entries (spec.md §4.9, extended per
// original_source/pyrite/services/kb_service.py to also report
// referenced_by).
func WantedPages(ctx context.Context, b backend.Backend, kbName string, limit int) ([]backend.WantedPage, error) {
	entries, err := listAll(ctx, b, kbName)
	if err != nil {
		return nil, err
	}

	type key struct{ id, kb string }
	refs := make(map[key][]string)
	refCount := make(map[key]int)
	missing := make(map[key]bool) // whether target is known to not exist
	resolved := make(map[key]bool)

	for _, e := range entries {
		links, err := b.GetOutlinks(ctx, e.ID, e.KBName)
		if err != nil {
			return nil, err
		}
		for _, l := range links {
			k := key{l.TargetID, l.TargetKB}
			if !resolved[k] {
				target, err := b.GetEntry(ctx, l.TargetID, l.TargetKB)
				if err != nil {
					return nil, err
				}
				missing[k] = target == nil
				resolved[k] = true
			}
			if missing[k] {
				refCount[k]++
				if r := refs[k]; len(r) == 0 || r[len(r)-1] != e.ID {
					refs[k] = append(refs[k], e.ID)
				}
			}
		}
	}

	out := make([]backend.WantedPage, 0, len(refs))
	for k, referrers := range refs {
		out = append(out, backend.WantedPage{
			TargetID:     k.id,
			TargetKB:     k.kb,
			RefCount:     refCount[k],
			ReferencedBy: referrers,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RefCount != out[j].RefCount {
			return out[i].RefCount > out[j].RefCount
		}
		return out[i].TargetID < out[j].TargetID
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// listAll pages through ListEntries since backend.Backend interprets a
// zero Limit as the default page size, not "unlimited".
func listAll(ctx context.Context, b backend.Backend, kbName string) ([]model.Entry, error) {
	const pageSize = 200
	var out []model.Entry
	offset := 0
	for {
		page, err := b.ListEntries(ctx, backend.ListFilter{KBName: kbName, Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < pageSize {
			return out, nil
		}
		offset += pageSize
	}
}
