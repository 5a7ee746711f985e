package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/indexmanager"
	"github.com/markramm/pyrite/pkg/model"
	"github.com/markramm/pyrite/pkg/relations"
)

func newTestService(t *testing.T) (*Service, *fakeBackend) {
	t.Helper()
	b := newFakeBackend()
	require.NoError(t, b.RegisterKB(context.Background(), model.KB{Name: "kb1"}))
	idx := indexmanager.New(b, &indexmanager.Hooks{}, nil, nil)
	reg := relations.NewRegistry()
	reg.Freeze()
	return New(b, idx, reg), b
}

func TestCreateEntry_RejectsDuplicate(t *testing.T) {
	s, _ := newTestService(t)
	entry, err := model.NewEntry("kb1", "e1", "note", "Title")
	require.NoError(t, err)

	require.NoError(t, s.CreateEntry(context.Background(), entry))

	dup, err := model.NewEntry("kb1", "e1", "note", "Title Again")
	require.NoError(t, err)
	err = s.CreateEntry(context.Background(), dup)
	require.Error(t, err)
	var verr *backend.ErrValidation
	require.ErrorAs(t, err, &verr)
}

func TestUpdateEntry_RejectsReadOnlyKB(t *testing.T) {
	s, b := newTestService(t)
	require.NoError(t, b.RegisterKB(context.Background(), model.KB{Name: "ro", ReadOnly: true}))

	entry, err := model.NewEntry("ro", "e1", "note", "Title")
	require.NoError(t, err)

	err = s.UpdateEntry(context.Background(), entry)
	require.Error(t, err)
	var roErr *backend.ErrKBReadOnly
	require.ErrorAs(t, err, &roErr)
}

func TestGetEntry_NotFound(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.GetEntry(context.Background(), "missing", "kb1")
	require.Error(t, err)
	var nfErr *backend.ErrEntryNotFound
	require.ErrorAs(t, err, &nfErr)
}

func TestAddLink_ComputesInverseAndDedupes(t *testing.T) {
	s, _ := newTestService(t)
	entry, err := model.NewEntry("kb1", "e1", "note", "Title")
	require.NoError(t, err)
	require.NoError(t, s.CreateEntry(context.Background(), entry))

	link := model.Link{TargetID: "e2", TargetKB: "kb1", Relation: "parent_of"}
	require.NoError(t, s.AddLink(context.Background(), "e1", "kb1", link))

	got, err := s.GetEntry(context.Background(), "e1", "kb1")
	require.NoError(t, err)
	require.Len(t, got.Links, 1)
	require.Equal(t, "child_of", got.Links[0].InverseRelation)

	// Re-adding the same (target, relation) pair is a no-op.
	require.NoError(t, s.AddLink(context.Background(), "e1", "kb1", link))
	got, err = s.GetEntry(context.Background(), "e1", "kb1")
	require.NoError(t, err)
	require.Len(t, got.Links, 1)
}

func TestGetTagTree_RollsUpCounts(t *testing.T) {
	s, b := newTestService(t)
	b.tags = []backend.TagCount{
		{Name: "project", Count: 3},
		{Name: "project/alpha", Count: 2},
		{Name: "project/beta", Count: 1},
		{Name: "standalone", Count: 5},
	}

	tree, err := s.GetTagTree(context.Background(), "kb1")
	require.NoError(t, err)
	require.Len(t, tree, 2)

	var project, standalone *TagNode
	for _, n := range tree {
		switch n.FullPath {
		case "project":
			project = n
		case "standalone":
			standalone = n
		}
	}
	require.NotNil(t, project)
	require.NotNil(t, standalone)
	require.Equal(t, 6, project.Count) // 3 own + 2 + 1 from children
	require.Len(t, project.Children, 2)
	require.Equal(t, 5, standalone.Count)
}
