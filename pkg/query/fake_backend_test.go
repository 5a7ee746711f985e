package query

import (
	"context"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

// fakeBackend is a minimal in-memory backend.Backend for exercising the
// service-level operations in this package without a real store.
type fakeBackend struct {
	entries map[model.EntryKey]*model.Entry
	links   map[model.EntryKey][]model.Link
	lexical map[string][]backend.SearchResult
	vector  map[string][]backend.SemanticResult
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		entries: map[model.EntryKey]*model.Entry{},
		links:   map[model.EntryKey][]model.Link{},
		lexical: map[string][]backend.SearchResult{},
		vector:  map[string][]backend.SemanticResult{},
	}
}

func (f *fakeBackend) put(e model.Entry) { f.entries[e.Key()] = &e }

func (f *fakeBackend) UpsertEntry(ctx context.Context, e *model.Entry) error { f.put(*e); return nil }
func (f *fakeBackend) DeleteEntry(ctx context.Context, id, kbName string) (bool, error) {
	return false, nil
}
func (f *fakeBackend) GetEntry(ctx context.Context, id, kbName string) (*model.Entry, error) {
	e, ok := f.entries[model.EntryKey{ID: id, KBName: kbName}]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}
func (f *fakeBackend) ListEntries(ctx context.Context, filter backend.ListFilter) ([]model.Entry, error) {
	var out []model.Entry
	for _, e := range f.entries {
		if filter.KBName != "" && e.KBName != filter.KBName {
			continue
		}
		out = append(out, *e)
	}
	if filter.Offset < len(out) {
		out = out[filter.Offset:]
	} else {
		out = nil
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}
func (f *fakeBackend) CountEntries(ctx context.Context, filter backend.ListFilter) (int, error) {
	n := 0
	for _, e := range f.entries {
		if filter.KBName == "" || e.KBName == filter.KBName {
			n++
		}
	}
	return n, nil
}
func (f *fakeBackend) Search(ctx context.Context, filter backend.SearchFilter) ([]backend.SearchResult, error) {
	res := f.lexical[filter.Query]
	if filter.Limit > 0 && filter.Limit < len(res) {
		res = res[:filter.Limit]
	}
	return res, nil
}
func (f *fakeBackend) SearchByTag(ctx context.Context, kbName, tag string, limit, offset int) ([]model.Entry, error) {
	return nil, nil
}
func (f *fakeBackend) SearchByDateRange(ctx context.Context, kbName, from, to string, limit, offset int) ([]model.Entry, error) {
	return nil, nil
}
func (f *fakeBackend) SearchByTagPrefix(ctx context.Context, kbName, prefix string, limit, offset int) ([]model.Entry, error) {
	return nil, nil
}
func (f *fakeBackend) UpsertEmbedding(ctx context.Context, id, kbName string, vec model.Embedding) (bool, error) {
	return true, nil
}
func (f *fakeBackend) SearchSemantic(ctx context.Context, filter backend.SemanticFilter) ([]backend.SemanticResult, error) {
	res := f.vector["q"]
	if filter.Limit > 0 && filter.Limit < len(res) {
		res = res[:filter.Limit]
	}
	return res, nil
}
func (f *fakeBackend) HasEmbeddings(ctx context.Context, kbName string) (bool, error) { return false, nil }
func (f *fakeBackend) EmbeddingStats(ctx context.Context, kbName string) (backend.EmbeddingStats, error) {
	return backend.EmbeddingStats{}, nil
}
func (f *fakeBackend) DeleteEmbedding(ctx context.Context, id, kbName string) error { return nil }
func (f *fakeBackend) GetBacklinks(ctx context.Context, id, kbName string) ([]model.Link, error) {
	return nil, nil
}
func (f *fakeBackend) GetOutlinks(ctx context.Context, id, kbName string) ([]model.Link, error) {
	return f.links[model.EntryKey{ID: id, KBName: kbName}], nil
}
func (f *fakeBackend) GetGraphData(ctx context.Context, filter backend.GraphFilter) (backend.GraphData, error) {
	return backend.BFS(ctx, f, filter)
}
func (f *fakeBackend) GetMostLinked(ctx context.Context, kbName string, limit int) ([]backend.LinkCount, error) {
	return nil, nil
}
func (f *fakeBackend) GetOrphans(ctx context.Context, kbName string, limit, offset int) ([]model.Entry, error) {
	return nil, nil
}
func (f *fakeBackend) GetAllTags(ctx context.Context, kbName string) ([]backend.TagCount, error) {
	return nil, nil
}
func (f *fakeBackend) GetTagsAsDicts(ctx context.Context, kbName, prefix string) ([]backend.TagCount, error) {
	return nil, nil
}
func (f *fakeBackend) GetTimeline(ctx context.Context, filter backend.TimelineFilter) ([]model.Entry, error) {
	return nil, nil
}
func (f *fakeBackend) GetRefsFrom(ctx context.Context, id, kbName, fieldName string) ([]model.EntryRef, error) {
	return nil, nil
}
func (f *fakeBackend) GetRefsTo(ctx context.Context, id, kbName string) ([]model.EntryRef, error) {
	return nil, nil
}
func (f *fakeBackend) ListEntriesInFolder(ctx context.Context, filter backend.FolderFilter) ([]model.Entry, error) {
	var out []model.Entry
	for _, e := range f.entries {
		if e.KBName == filter.KBName && e.EntryType != "collection" && len(e.FilePath) > len(filter.Folder) && e.FilePath[:len(filter.Folder)+1] == filter.Folder+"/" {
			out = append(out, *e)
		}
	}
	return out, nil
}
func (f *fakeBackend) CountEntriesInFolder(ctx context.Context, filter backend.FolderFilter) (int, error) {
	entries, _ := f.ListEntriesInFolder(ctx, filter)
	return len(entries), nil
}
func (f *fakeBackend) RegisterKB(ctx context.Context, kb model.KB) error     { return nil }
func (f *fakeBackend) UnregisterKB(ctx context.Context, kbName string) error { return nil }
func (f *fakeBackend) GetKB(ctx context.Context, kbName string) (*model.KB, error) {
	return nil, nil
}
func (f *fakeBackend) ListKBs(ctx context.Context) ([]model.KB, error) { return nil, nil }
func (f *fakeBackend) Close() error                                    { return nil }
