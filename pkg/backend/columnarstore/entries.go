package columnarstore

import (
	"context"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

func (s *Store) UpsertEntry(ctx context.Context, entry *model.Entry) error {
	if entry.ID == "" || entry.KBName == "" {
		return &backend.ErrInvalidEntry{Reason: "id and kb_name are required"}
	}

	key := docKey(entry.ID, entry.KBName)
	var prior doc
	if err := s.db.Get(key, &prior); err == nil {
		entry.CreatedAt = timeOrZero(prior.CreatedAtUnix)
		if entry.CreatedBy == "" {
			entry.CreatedBy = prior.CreatedBy
		}
	} else if err != badgerhold.ErrNotFound {
		return &backend.ErrStorage{Op: "upsert_entry.lookup", Err: err}
	}

	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	entry.IndexedAt = now

	d := entryToDoc(entry)
	if err := s.db.Upsert(key, &d); err != nil {
		return &backend.ErrStorage{Op: "upsert_entry", Err: err}
	}
	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, id, kbName string) (bool, error) {
	key := docKey(id, kbName)
	if err := s.db.Delete(key, &doc{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return false, nil
		}
		return false, &backend.ErrStorage{Op: "delete_entry", Err: err}
	}
	return true, nil
}

func (s *Store) GetEntry(ctx context.Context, id, kbName string) (*model.Entry, error) {
	var d doc
	if err := s.db.Get(docKey(id, kbName), &d); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, &backend.ErrStorage{Op: "get_entry", Err: err}
	}
	e := docToEntry(d)
	return &e, nil
}

func (s *Store) GetOutlinks(ctx context.Context, id, kbName string) ([]model.Link, error) {
	var d doc
	if err := s.db.Get(docKey(id, kbName), &d); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, &backend.ErrStorage{Op: "get_outlinks", Err: err}
	}
	return d.Links, nil
}

// GetBacklinks has no dedicated edge table to index against: it scans
// every document and inspects its outgoing Links, the same
// "slow for large datasets" tradeoff ternarybob-quaero's badger
// FullTextSearch documents for regex scans.
func (s *Store) GetBacklinks(ctx context.Context, id, kbName string) ([]model.Link, error) {
	var docs []doc
	if err := s.db.Find(&docs, nil); err != nil {
		return nil, &backend.ErrStorage{Op: "get_backlinks", Err: err}
	}
	var out []model.Link
	for _, d := range docs {
		for _, l := range d.Links {
			if l.TargetID == id && l.TargetKB == kbName {
				out = append(out, model.Link{
					SourceID: l.SourceID, SourceKB: l.SourceKB,
					TargetID: l.TargetID, TargetKB: l.TargetKB,
					Relation: l.InverseRelation, InverseRelation: l.Relation,
					Note: l.Note,
				})
			}
		}
	}
	return out, nil
}

func (s *Store) ListEntries(ctx context.Context, filter backend.ListFilter) ([]model.Entry, error) {
	query := listQuery(filter)
	var docs []doc
	if err := s.db.Find(&docs, query); err != nil {
		return nil, &backend.ErrStorage{Op: "list_entries", Err: err}
	}
	docs = applyTagFilter(docs, tagsOf(filter.Tag))
	sortDocs(docs, filter.Sort, filter.Order)
	docs = paginateDocs(docs, filter.Limit, filter.Offset)
	return docsToEntries(docs), nil
}

func (s *Store) CountEntries(ctx context.Context, filter backend.ListFilter) (int, error) {
	query := listQuery(filter)
	var docs []doc
	if err := s.db.Find(&docs, query); err != nil {
		return 0, &backend.ErrStorage{Op: "count_entries", Err: err}
	}
	docs = applyTagFilter(docs, tagsOf(filter.Tag))
	return len(docs), nil
}

func tagsOf(tag string) []string {
	if tag == "" {
		return nil
	}
	return []string{tag}
}

func listQuery(filter backend.ListFilter) *badgerhold.Query {
	var query *badgerhold.Query
	if filter.KBName != "" {
		query = badgerhold.Where("KBName").Eq(filter.KBName)
	}
	if filter.Type != "" {
		if query == nil {
			query = badgerhold.Where("EntryType").Eq(filter.Type)
		} else {
			query = query.And("EntryType").Eq(filter.Type)
		}
	}
	return query
}

// applyTagFilter filters docs whose Tags contain every tag in required
// (AND logic), since badgerhold has no array-contains operator.
func applyTagFilter(docs []doc, required []string) []doc {
	if len(required) == 0 {
		return docs
	}
	filtered := make([]doc, 0, len(docs))
	for _, d := range docs {
		if hasAllTags(d.Tags, required) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

func hasAllTags(have, required []string) bool {
	set := make(map[string]bool, len(have))
	for _, t := range have {
		set[t] = true
	}
	for _, t := range required {
		if !set[t] {
			return false
		}
	}
	return true
}

func sortDocs(docs []doc, sortField backend.SortField, order backend.SortOrder) {
	less := func(i, j int) bool {
		switch sortField {
		case backend.SortTitle:
			return docs[i].Title < docs[j].Title
		case backend.SortCreatedAt:
			return docs[i].CreatedAtUnix < docs[j].CreatedAtUnix
		case backend.SortEntryType:
			return docs[i].EntryType < docs[j].EntryType
		default:
			return docs[i].UpdatedAtUnix < docs[j].UpdatedAtUnix
		}
	}
	if order == backend.OrderDesc {
		base := less
		less = func(i, j int) bool { return base(j, i) }
	}
	sort.Slice(docs, less)
}

func paginateDocs(docs []doc, limit, offset int) []doc {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(docs) {
		return nil
	}
	docs = docs[offset:]
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}

func docsToEntries(docs []doc) []model.Entry {
	out := make([]model.Entry, 0, len(docs))
	for _, d := range docs {
		out = append(out, docToEntry(d))
	}
	return out
}

func entryToDoc(e *model.Entry) doc {
	return doc{
		Key: docKey(e.ID, e.KBName), ID: e.ID, KBName: e.KBName, EntryType: e.EntryType,
		Title: e.Title, Body: e.Body, Summary: e.Summary, FilePath: e.FilePath, Date: e.Date,
		Importance: e.Importance, Status: e.Status, Location: e.Location, Metadata: e.Metadata,
		Tags: model.NormalizeTags(e.Tags), Links: e.Links, Refs: e.Refs, Sources: e.Sources, Blocks: e.Blocks,
		CreatedAtUnix: e.CreatedAt.Unix(), UpdatedAtUnix: e.UpdatedAt.Unix(), IndexedAtUnix: e.IndexedAt.Unix(),
		CreatedBy: e.CreatedBy, ModifiedBy: e.ModifiedBy, FTSDirty: true,
	}
}

func docToEntry(d doc) model.Entry {
	meta := d.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return model.Entry{
		ID: d.ID, KBName: d.KBName, EntryType: d.EntryType, Title: d.Title, Body: d.Body, Summary: d.Summary,
		FilePath: d.FilePath, Date: d.Date, Importance: d.Importance, Status: d.Status, Location: d.Location,
		Metadata: meta, Tags: d.Tags, Links: d.Links, Refs: d.Refs, Sources: d.Sources, Blocks: d.Blocks,
		CreatedAt: timeOrZero(d.CreatedAtUnix), UpdatedAt: timeOrZero(d.UpdatedAtUnix), IndexedAt: timeOrZero(d.IndexedAtUnix),
		CreatedBy: d.CreatedBy, ModifiedBy: d.ModifiedBy,
	}
}
