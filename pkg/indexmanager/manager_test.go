package indexmanager

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

// fakeBackend is a minimal in-memory backend.Backend used to exercise
// indexmanager's hook lifecycle and reindex/sync logic without a real
// storage driver.
type fakeBackend struct {
	entries map[model.EntryKey]*model.Entry
	embeds  map[model.EntryKey]model.Embedding
	kbs     map[string]model.KB
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		entries: map[model.EntryKey]*model.Entry{},
		embeds:  map[model.EntryKey]model.Embedding{},
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
	delete(f.embeds, key)
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
		if filter.KBName != "" && e.KBName != filter.KBName {
			continue
		}
		n++
	}
	return n, nil
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
	key := model.EntryKey{ID: id, KBName: kbName}
	if _, ok := f.entries[key]; !ok {
		return false, nil
	}
	f.embeds[key] = vec
	return true, nil
}
func (f *fakeBackend) SearchSemantic(ctx context.Context, filter backend.SemanticFilter) ([]backend.SemanticResult, error) {
	return nil, nil
}
func (f *fakeBackend) HasEmbeddings(ctx context.Context, kbName string) (bool, error) {
	for key := range f.embeds {
		if key.KBName == kbName {
			return true, nil
		}
	}
	return false, nil
}
func (f *fakeBackend) EmbeddingStats(ctx context.Context, kbName string) (backend.EmbeddingStats, error) {
	total, withVec := 0, 0
	for key := range f.entries {
		if key.KBName != kbName {
			continue
		}
		total++
		if _, ok := f.embeds[key]; ok {
			withVec++
		}
	}
	stats := backend.EmbeddingStats{TotalEntries: total, EntriesWithVector: withVec}
	if total > 0 {
		stats.Coverage = float64(withVec) / float64(total)
	}
	return stats, nil
}
func (f *fakeBackend) DeleteEmbedding(ctx context.Context, id, kbName string) error {
	delete(f.embeds, model.EntryKey{ID: id, KBName: kbName})
	return nil
}

func (f *fakeBackend) GetBacklinks(ctx context.Context, id, kbName string) ([]model.Link, error) {
	return nil, nil
}
func (f *fakeBackend) GetOutlinks(ctx context.Context, id, kbName string) ([]model.Link, error) {
	return nil, nil
}
func (f *fakeBackend) GetGraphData(ctx context.Context, filter backend.GraphFilter) (backend.GraphData, error) {
	return backend.GraphData{}, nil
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

type fakeEmbedder struct{ calls int }

func (e *fakeEmbedder) Embed(ctx context.Context, text string) (model.Embedding, error) {
	e.calls++
	return model.Embedding{0.1, 0.2, 0.3}, nil
}

func TestSave_RunsHooksAndAutoEmbed(t *testing.T) {
	b := newFakeBackend()
	require.NoError(t, b.RegisterKB(context.Background(), model.KB{Name: "kb1"}))

	var beforeCalled, afterCalled bool
	hooks := &Hooks{}
	hooks.OnBeforeSave(func(e *model.Entry) error { beforeCalled = true; return nil })
	hooks.OnAfterSave(func(e *model.Entry) { afterCalled = true })

	embedder := &fakeEmbedder{}
	m := New(b, hooks, embedder, nil)

	entry, err := model.NewEntry("kb1", "e1", "note", "Title")
	require.NoError(t, err)
	entry.Body = "# H\nSome body text ^mark1"

	require.NoError(t, m.Save(context.Background(), entry))
	require.True(t, beforeCalled)
	require.True(t, afterCalled)
	require.Equal(t, 1, embedder.calls)
	require.NotEmpty(t, entry.Blocks)

	stored, err := b.GetEntry(context.Background(), "e1", "kb1")
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestSave_BeforeSaveAbort(t *testing.T) {
	b := newFakeBackend()
	hooks := &Hooks{}
	hooks.OnBeforeSave(func(e *model.Entry) error { return errAbort{} })
	m := New(b, hooks, nil, nil)

	entry, err := model.NewEntry("kb1", "e1", "note", "Title")
	require.NoError(t, err)

	err = m.Save(context.Background(), entry)
	require.Error(t, err)
	var pluginErr *backend.ErrPlugin
	require.ErrorAs(t, err, &pluginErr)
	require.Equal(t, "before_save", pluginErr.Hook)
}

type errAbort struct{}

func (errAbort) Error() string { return "abort" }

func TestFullReindex_And_Sync(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.md"), []byte("---\ntitle: One\n---\nbody one\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.md"), []byte("---\ntitle: Two\n---\nbody two\n"), 0o644))

	b := newFakeBackend()
	require.NoError(t, b.RegisterKB(context.Background(), model.KB{Name: "kb1"}))
	m := New(b, nil, nil, nil)

	stats, err := m.FullReindex(context.Background(), "kb1", dir)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Added)

	kb, err := b.GetKB(context.Background(), "kb1")
	require.NoError(t, err)
	require.False(t, kb.LastIndexed.IsZero())

	require.NoError(t, os.Remove(filepath.Join(dir, "two.md")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "three.md"), []byte("---\ntitle: Three\n---\nbody three\n"), 0o644))

	for _, e := range b.entries {
		e.IndexedAt = time.Now().Add(-time.Hour)
	}

	syncStats, err := m.Sync(context.Background(), "kb1", dir)
	require.NoError(t, err)
	require.Equal(t, 1, syncStats.Added)
	require.Equal(t, 1, syncStats.Removed)

	_, err = b.GetEntry(context.Background(), "two", "kb1")
	require.NoError(t, err)
}
