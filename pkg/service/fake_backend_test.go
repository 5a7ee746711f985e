package service

import (
	"context"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

// fakeBackend is a minimal in-memory backend.Backend used to exercise the
// Service facade without a real storage driver.
type fakeBackend struct {
	entries map[model.EntryKey]*model.Entry
	kbs     map[string]model.KB
	tags    []backend.TagCount
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		entries: map[model.EntryKey]*model.Entry{},
		kbs:     map[string]model.KB{},
	}
}

func (f *fakeBackend) UpsertEntry(ctx context.Context, e *model.Entry) error {
	cp := *e
	f.entries[e.Key()] = &cp
	return nil
}
func (f *fakeBackend) DeleteEntry(ctx context.Context, id, kbName string) (bool, error) {
	key := model.EntryKey{ID: id, KBName: kbName}
	if _, ok := f.entries[key]; !ok {
		return false, nil
	}
	delete(f.entries, key)
	return true, nil
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
	return out, nil
}
func (f *fakeBackend) CountEntries(ctx context.Context, filter backend.ListFilter) (int, error) {
	entries, _ := f.ListEntries(ctx, filter)
	return len(entries), nil
}
func (f *fakeBackend) Search(ctx context.Context, filter backend.SearchFilter) ([]backend.SearchResult, error) {
	return nil, nil
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
	return nil, nil
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
	return nil, nil
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
	return f.tags, nil
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
	return nil, nil
}
func (f *fakeBackend) CountEntriesInFolder(ctx context.Context, filter backend.FolderFilter) (int, error) {
	return 0, nil
}
func (f *fakeBackend) RegisterKB(ctx context.Context, kb model.KB) error {
	f.kbs[kb.Name] = kb
	return nil
}
func (f *fakeBackend) UnregisterKB(ctx context.Context, kbName string) error {
	delete(f.kbs, kbName)
	return nil
}
func (f *fakeBackend) GetKB(ctx context.Context, kbName string) (*model.KB, error) {
	kb, ok := f.kbs[kbName]
	if !ok {
		return nil, nil
	}
	return &kb, nil
}
func (f *fakeBackend) ListKBs(ctx context.Context) ([]model.KB, error) {
	var out []model.KB
	for _, kb := range f.kbs {
		out = append(out, kb)
	}
	return out, nil
}
func (f *fakeBackend) Close() error { return nil }
