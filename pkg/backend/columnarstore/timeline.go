package columnarstore

import (
	"context"
	"strings"

	"github.com/timshannon/badgerhold/v4"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

func (s *Store) GetTimeline(ctx context.Context, filter backend.TimelineFilter) ([]model.Entry, error) {
	var docs []doc
	if err := s.db.Find(&docs, badgerhold.Where("KBName").Eq(filter.KBName)); err != nil {
		return nil, &backend.ErrStorage{Op: "get_timeline", Err: err}
	}
	filtered := docs[:0]
	for _, d := range docs {
		if d.Date == "" || d.Importance < filter.MinImportance {
			continue
		}
		if filter.DateFrom != "" && d.Date < filter.DateFrom {
			continue
		}
		if filter.DateTo != "" && d.Date > filter.DateTo {
			continue
		}
		filtered = append(filtered, d)
	}
	sortByDate(filtered)
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit < len(filtered) {
		filtered = filtered[:limit]
	}
	return docsToEntries(filtered), nil
}

func (s *Store) GetRefsFrom(ctx context.Context, id, kbName, fieldName string) ([]model.EntryRef, error) {
	var d doc
	if err := s.db.Get(docKey(id, kbName), &d); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, &backend.ErrStorage{Op: "get_refs_from", Err: err}
	}
	if fieldName == "" {
		return d.Refs, nil
	}
	out := d.Refs[:0]
	for _, r := range d.Refs {
		if r.FieldName == fieldName {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetRefsTo has no reverse index for entry_ref, so it scans every
// document's Refs looking for ones that target (id, kbName).
func (s *Store) GetRefsTo(ctx context.Context, id, kbName string) ([]model.EntryRef, error) {
	var docs []doc
	if err := s.db.Find(&docs, nil); err != nil {
		return nil, &backend.ErrStorage{Op: "get_refs_to", Err: err}
	}
	var out []model.EntryRef
	for _, d := range docs {
		for _, r := range d.Refs {
			if r.TargetID == id && r.TargetKB == kbName {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (s *Store) ListEntriesInFolder(ctx context.Context, filter backend.FolderFilter) ([]model.Entry, error) {
	var docs []doc
	if err := s.db.Find(&docs, badgerhold.Where("KBName").Eq(filter.KBName)); err != nil {
		return nil, &backend.ErrStorage{Op: "list_entries_in_folder", Err: err}
	}
	filtered := docs[:0]
	prefix := filter.Folder + "/"
	for _, d := range docs {
		if d.EntryType == "collection" {
			continue
		}
		if strings.HasPrefix(d.FilePath, prefix) {
			filtered = append(filtered, d)
		}
	}
	sortByFilePath(filtered)
	filtered = paginateDocs(filtered, filter.Limit, filter.Offset)
	return docsToEntries(filtered), nil
}

func sortByFilePath(docs []doc) {
	for i := 1; i < len(docs); i++ {
		for j := i; j > 0 && docs[j-1].FilePath > docs[j].FilePath; j-- {
			docs[j-1], docs[j] = docs[j], docs[j-1]
		}
	}
}

func (s *Store) CountEntriesInFolder(ctx context.Context, filter backend.FolderFilter) (int, error) {
	var docs []doc
	if err := s.db.Find(&docs, badgerhold.Where("KBName").Eq(filter.KBName)); err != nil {
		return 0, &backend.ErrStorage{Op: "count_entries_in_folder", Err: err}
	}
	prefix := filter.Folder + "/"
	n := 0
	for _, d := range docs {
		if d.EntryType != "collection" && strings.HasPrefix(d.FilePath, prefix) {
			n++
		}
	}
	return n, nil
}
