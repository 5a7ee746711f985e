package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

func TestHybridSearch_FusesRanks(t *testing.T) {
	b := newFakeBackend()
	a := model.Entry{ID: "a", KBName: "kb1"}
	bb := model.Entry{ID: "b", KBName: "kb1"}
	c := model.Entry{ID: "c", KBName: "kb1"}
	b.put(a)
	b.put(bb)
	b.put(c)

	b.lexical["hello"] = []backend.SearchResult{{Entry: a}, {Entry: bb}}
	b.vector["q"] = []backend.SemanticResult{{Entry: bb}, {Entry: c}}

	out, err := HybridSearch(context.Background(), b, "kb1", "hello", model.Embedding{0.1}, 10, 10)
	require.NoError(t, err)
	require.Len(t, out, 3)

	// b appears in both lists (rank 2 lexical, rank 1 semantic) so it
	// should score highest.
	require.Equal(t, "b", out[0].Entry.ID)
	require.Equal(t, 2, out[0].LexRank)
	require.Equal(t, 1, out[0].SemRank)
}

func TestHybridSearch_NoVectorSkipsSemantic(t *testing.T) {
	b := newFakeBackend()
	a := model.Entry{ID: "a", KBName: "kb1"}
	b.put(a)
	b.lexical["x"] = []backend.SearchResult{{Entry: a}}

	out, err := HybridSearch(context.Background(), b, "kb1", "x", nil, 10, 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, 0, out[0].SemRank)
}
