package backend_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/backend/columnarstore"
	"github.com/markramm/pyrite/pkg/backend/pgstore"
	"github.com/markramm/pyrite/pkg/backend/sqlitestore"
	"github.com/markramm/pyrite/pkg/model"
)

// conformanceTarget names one backend under test plus how to construct a
// fresh, empty instance of it.
type conformanceTarget struct {
	name string
	open func(t *testing.T) backend.Backend
}

func conformanceTargets(t *testing.T) []conformanceTarget {
	targets := []conformanceTarget{
		{name: "sqlite", open: func(t *testing.T) backend.Backend {
			store, err := sqlitestore.New(sqlitestore.Config{Path: ":memory:"})
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		}},
		{name: "columnar", open: func(t *testing.T) backend.Backend {
			store, err := columnarstore.New(columnarstore.Config{Dir: t.TempDir()})
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		}},
	}
	if dsn := os.Getenv("PYRITE_TEST_POSTGRES_DSN"); dsn != "" {
		targets = append(targets, conformanceTarget{name: "postgres", open: func(t *testing.T) backend.Backend {
			store, err := pgstore.New(pgstore.Config{DSN: dsn})
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		}})
	} else {
		t.Log("skipping postgres conformance target: PYRITE_TEST_POSTGRES_DSN not set")
	}
	return targets
}

func seedKB(t *testing.T, ctx context.Context, b backend.Backend, name string) {
	t.Helper()
	require.NoError(t, b.RegisterKB(ctx, model.KB{Name: name, Path: "/kb/" + name}))
}

func newEntry(kb, id, entryType, title string) *model.Entry {
	e, err := model.NewEntry(kb, id, entryType, title)
	if err != nil {
		panic(err)
	}
	return e
}

// TestConformance_UpsertRoundTrip covers property P1: upserting an entry
// and reading it back returns the same identity and content.
func TestConformance_UpsertRoundTrip(t *testing.T) {
	for _, tgt := range conformanceTargets(t) {
		t.Run(tgt.name, func(t *testing.T) {
			ctx := context.Background()
			b := tgt.open(t)
			seedKB(t, ctx, b, "kb1")

			e := newEntry("kb1", "note-1", "note", "First Note")
			e.Body = "hello world"
			e.Tags = []string{"project/alpha", "standalone"}
			require.NoError(t, b.UpsertEntry(ctx, e))

			got, err := b.GetEntry(ctx, "note-1", "kb1")
			require.NoError(t, err)
			require.NotNil(t, got)
			require.Equal(t, "First Note", got.Title)
			require.Equal(t, "hello world", got.Body)
			require.ElementsMatch(t, []string{"project/alpha", "standalone"}, got.Tags)
		})
	}
}

// TestConformance_UpsertReplacesSubEntities covers property P2: a second
// upsert wholesale-replaces owned sub-entities rather than merging them.
func TestConformance_UpsertReplacesSubEntities(t *testing.T) {
	for _, tgt := range conformanceTargets(t) {
		t.Run(tgt.name, func(t *testing.T) {
			ctx := context.Background()
			b := tgt.open(t)
			seedKB(t, ctx, b, "kb1")

			e := newEntry("kb1", "note-1", "note", "v1")
			e.Tags = []string{"a", "b"}
			require.NoError(t, b.UpsertEntry(ctx, e))

			e2 := newEntry("kb1", "note-1", "note", "v2")
			e2.Tags = []string{"c"}
			require.NoError(t, b.UpsertEntry(ctx, e2))

			got, err := b.GetEntry(ctx, "note-1", "kb1")
			require.NoError(t, err)
			require.Equal(t, []string{"c"}, got.Tags)
		})
	}
}

// TestConformance_UpsertPreservesCreatedAt covers property P3: CreatedAt
// survives a second upsert of the same (id, kb_name).
func TestConformance_UpsertPreservesCreatedAt(t *testing.T) {
	for _, tgt := range conformanceTargets(t) {
		t.Run(tgt.name, func(t *testing.T) {
			ctx := context.Background()
			b := tgt.open(t)
			seedKB(t, ctx, b, "kb1")

			e := newEntry("kb1", "note-1", "note", "v1")
			e.CreatedAt = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
			require.NoError(t, b.UpsertEntry(ctx, e))

			e2 := newEntry("kb1", "note-1", "note", "v2")
			e2.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			require.NoError(t, b.UpsertEntry(ctx, e2))

			got, err := b.GetEntry(ctx, "note-1", "kb1")
			require.NoError(t, err)
			require.True(t, got.CreatedAt.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
		})
	}
}

// TestConformance_DeleteCascades covers property P4: deleting an entry
// also removes its tags, so a subsequent tag search excludes it.
func TestConformance_DeleteCascades(t *testing.T) {
	for _, tgt := range conformanceTargets(t) {
		t.Run(tgt.name, func(t *testing.T) {
			ctx := context.Background()
			b := tgt.open(t)
			seedKB(t, ctx, b, "kb1")

			e := newEntry("kb1", "note-1", "note", "v1")
			e.Tags = []string{"x"}
			require.NoError(t, b.UpsertEntry(ctx, e))

			ok, err := b.DeleteEntry(ctx, "note-1", "kb1")
			require.NoError(t, err)
			require.True(t, ok)

			got, err := b.GetEntry(ctx, "note-1", "kb1")
			require.NoError(t, err)
			require.Nil(t, got)

			entries, err := b.SearchByTag(ctx, "kb1", "x", 10, 0)
			require.NoError(t, err)
			require.Empty(t, entries)
		})
	}
}

// TestConformance_DeleteMissingIsFalse covers property P5.
func TestConformance_DeleteMissingIsFalse(t *testing.T) {
	for _, tgt := range conformanceTargets(t) {
		t.Run(tgt.name, func(t *testing.T) {
			ctx := context.Background()
			b := tgt.open(t)
			seedKB(t, ctx, b, "kb1")

			ok, err := b.DeleteEntry(ctx, "missing", "kb1")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

// TestConformance_SearchFindsBodyMatch covers property P6: lexical search
// matches entries on body text, not just title.
func TestConformance_SearchFindsBodyMatch(t *testing.T) {
	for _, tgt := range conformanceTargets(t) {
		t.Run(tgt.name, func(t *testing.T) {
			ctx := context.Background()
			b := tgt.open(t)
			seedKB(t, ctx, b, "kb1")

			e := newEntry("kb1", "note-1", "note", "Untitled")
			e.Body = "the quick brown fox jumps over the lazy dog"
			require.NoError(t, b.UpsertEntry(ctx, e))

			results, err := b.Search(ctx, backend.SearchFilter{Query: "fox", KBName: "kb1", Limit: 10})
			require.NoError(t, err)
			require.Len(t, results, 1)
			require.Equal(t, "note-1", results[0].Entry.ID)
			require.Contains(t, results[0].Snippet, "<mark>")
		})
	}
}

// TestConformance_SemanticKNNOrdersByDistance covers property P7.
func TestConformance_SemanticKNNOrdersByDistance(t *testing.T) {
	for _, tgt := range conformanceTargets(t) {
		t.Run(tgt.name, func(t *testing.T) {
			ctx := context.Background()
			b := tgt.open(t)
			seedKB(t, ctx, b, "kb1")

			near := newEntry("kb1", "near", "note", "near")
			far := newEntry("kb1", "far", "note", "far")
			require.NoError(t, b.UpsertEntry(ctx, near))
			require.NoError(t, b.UpsertEntry(ctx, far))

			dim := model.DefaultEmbeddingDimension
			nearVec := make(model.Embedding, dim)
			farVec := make(model.Embedding, dim)
			queryVec := make(model.Embedding, dim)
			for i := range nearVec {
				nearVec[i] = 1
				farVec[i] = -1
				queryVec[i] = 1
			}
			ok, err := b.UpsertEmbedding(ctx, "near", "kb1", nearVec)
			require.NoError(t, err)
			require.True(t, ok)
			ok, err = b.UpsertEmbedding(ctx, "far", "kb1", farVec)
			require.NoError(t, err)
			require.True(t, ok)

			results, err := b.SearchSemantic(ctx, backend.SemanticFilter{KBName: "kb1", Vector: queryVec, Limit: 10})
			require.NoError(t, err)
			require.Len(t, results, 2)
			require.Equal(t, "near", results[0].Entry.ID)
			require.True(t, results[0].Distance < results[1].Distance)
		})
	}
}

// TestConformance_BacklinksUseInverseRelation covers property P8: a link's
// inverse_relation drives the backlink view from the target side.
func TestConformance_BacklinksUseInverseRelation(t *testing.T) {
	for _, tgt := range conformanceTargets(t) {
		t.Run(tgt.name, func(t *testing.T) {
			ctx := context.Background()
			b := tgt.open(t)
			seedKB(t, ctx, b, "kb1")

			parent := newEntry("kb1", "parent", "note", "Parent")
			parent.Links = []model.Link{{
				SourceID: "parent", SourceKB: "kb1",
				TargetID: "child", TargetKB: "kb1",
				Relation: "parent_of", InverseRelation: "child_of",
			}}
			child := newEntry("kb1", "child", "note", "Child")
			require.NoError(t, b.UpsertEntry(ctx, child))
			require.NoError(t, b.UpsertEntry(ctx, parent))

			backlinks, err := b.GetBacklinks(ctx, "child", "kb1")
			require.NoError(t, err)
			require.Len(t, backlinks, 1)
			require.Equal(t, "parent", backlinks[0].SourceID)
			require.Equal(t, "child_of", backlinks[0].Relation)
		})
	}
}

// TestConformance_OrphansExcludeLinkedEntries covers property P9.
func TestConformance_OrphansExcludeLinkedEntries(t *testing.T) {
	for _, tgt := range conformanceTargets(t) {
		t.Run(tgt.name, func(t *testing.T) {
			ctx := context.Background()
			b := tgt.open(t)
			seedKB(t, ctx, b, "kb1")

			linked := newEntry("kb1", "linked", "note", "Linked")
			linked.Links = []model.Link{{SourceID: "linked", SourceKB: "kb1", TargetID: "target", TargetKB: "kb1", Relation: "related_to"}}
			target := newEntry("kb1", "target", "note", "Target")
			alone := newEntry("kb1", "alone", "note", "Alone")
			require.NoError(t, b.UpsertEntry(ctx, target))
			require.NoError(t, b.UpsertEntry(ctx, linked))
			require.NoError(t, b.UpsertEntry(ctx, alone))

			orphans, err := b.GetOrphans(ctx, "kb1", 10, 0)
			require.NoError(t, err)
			ids := make([]string, len(orphans))
			for i, e := range orphans {
				ids[i] = e.ID
			}
			require.Contains(t, ids, "alone")
			require.NotContains(t, ids, "linked")
			require.NotContains(t, ids, "target")
		})
	}
}

// TestConformance_TagPrefixMatchesChildren covers property P10.
func TestConformance_TagPrefixMatchesChildren(t *testing.T) {
	for _, tgt := range conformanceTargets(t) {
		t.Run(tgt.name, func(t *testing.T) {
			ctx := context.Background()
			b := tgt.open(t)
			seedKB(t, ctx, b, "kb1")

			e1 := newEntry("kb1", "a", "note", "A")
			e1.Tags = []string{"project"}
			e2 := newEntry("kb1", "b", "note", "B")
			e2.Tags = []string{"project/alpha"}
			e3 := newEntry("kb1", "c", "note", "C")
			e3.Tags = []string{"other"}
			require.NoError(t, b.UpsertEntry(ctx, e1))
			require.NoError(t, b.UpsertEntry(ctx, e2))
			require.NoError(t, b.UpsertEntry(ctx, e3))

			matches, err := b.SearchByTagPrefix(ctx, "kb1", "project", 10, 0)
			require.NoError(t, err)
			ids := make([]string, len(matches))
			for i, e := range matches {
				ids[i] = e.ID
			}
			require.ElementsMatch(t, []string{"a", "b"}, ids)
		})
	}
}

// TestConformance_KBIsolation ensures entries in one KB are invisible from
// another, the single-backend-multi-KB architecture's core guarantee.
func TestConformance_KBIsolation(t *testing.T) {
	for _, tgt := range conformanceTargets(t) {
		t.Run(tgt.name, func(t *testing.T) {
			ctx := context.Background()
			b := tgt.open(t)
			seedKB(t, ctx, b, "kb1")
			seedKB(t, ctx, b, "kb2")

			require.NoError(t, b.UpsertEntry(ctx, newEntry("kb1", "shared-id", "note", "In KB1")))

			got, err := b.GetEntry(ctx, "shared-id", "kb2")
			require.NoError(t, err)
			require.Nil(t, got)

			count, err := b.CountEntries(ctx, backend.ListFilter{KBName: "kb2"})
			require.NoError(t, err)
			require.Equal(t, 0, count)
		})
	}
}

// TestConformance_EndToEnd_TimelineStatsUnregister upserts a dated event,
// checks that it appears in the timeline and that embedding stats report
// one entry with no vectors, then unregisters the KB and checks that GetKB
// returns nil.
func TestConformance_EndToEnd_TimelineStatsUnregister(t *testing.T) {
	for _, tgt := range conformanceTargets(t) {
		t.Run(tgt.name, func(t *testing.T) {
			ctx := context.Background()
			b := tgt.open(t)
			seedKB(t, ctx, b, "kb1")

			e := newEntry("kb1", "note-1", "event", "Launch")
			e.Date = "2026-01-15"
			e.Importance = 8
			require.NoError(t, b.UpsertEntry(ctx, e))

			timeline, err := b.GetTimeline(ctx, backend.TimelineFilter{KBName: "kb1", Limit: 10})
			require.NoError(t, err)
			require.Len(t, timeline, 1)

			stats, err := b.EmbeddingStats(ctx, "kb1")
			require.NoError(t, err)
			require.Equal(t, 1, stats.TotalEntries)
			require.Equal(t, 0, stats.EntriesWithVector)

			require.NoError(t, b.UnregisterKB(ctx, "kb1"))
			kb, err := b.GetKB(ctx, "kb1")
			require.NoError(t, err)
			require.Nil(t, kb)
		})
	}
}
