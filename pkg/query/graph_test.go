package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

func TestGraph_AppliesDefaults(t *testing.T) {
	b := newFakeBackend()
	center := model.Entry{ID: "center", KBName: "kb1", Title: "Center"}
	leaf := model.Entry{ID: "leaf", KBName: "kb1", Title: "Leaf"}
	b.put(center)
	b.put(leaf)
	b.links[center.Key()] = []model.Link{{SourceID: "center", SourceKB: "kb1", TargetID: "leaf", TargetKB: "kb1", Relation: "mentions"}}

	data, err := Graph(context.Background(), b, backend.GraphFilter{CenterID: "center", CenterKB: "kb1"})
	require.NoError(t, err)
	require.Len(t, data.Nodes, 2)
	require.Len(t, data.Edges, 1)
}
