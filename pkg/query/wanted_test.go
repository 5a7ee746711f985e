package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markramm/pyrite/pkg/model"
)

func TestWantedPages_GroupsByTarget(t *testing.T) {
	b := newFakeBackend()
	source1 := model.Entry{ID: "s1", KBName: "kb1"}
	source2 := model.Entry{ID: "s2", KBName: "kb1"}
	real := model.Entry{ID: "real", KBName: "kb1"}
	b.put(source1)
	b.put(source2)
	b.put(real)

	b.links[model.EntryKey{ID: "s1", KBName: "kb1"}] = []model.Link{
		{SourceID: "s1", SourceKB: "kb1", TargetID: "missing", TargetKB: "kb1", Relation: "mentions"},
		{SourceID: "s1", SourceKB: "kb1", TargetID: "real", TargetKB: "kb1", Relation: "mentions"},
	}
	b.links[model.EntryKey{ID: "s2", KBName: "kb1"}] = []model.Link{
		{SourceID: "s2", SourceKB: "kb1", TargetID: "missing", TargetKB: "kb1", Relation: "mentions"},
	}

	pages, err := WantedPages(context.Background(), b, "kb1", 10)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Equal(t, "missing", pages[0].TargetID)
	require.Equal(t, 2, pages[0].RefCount)
	require.ElementsMatch(t, []string{"s1", "s2"}, pages[0].ReferencedBy)
}
