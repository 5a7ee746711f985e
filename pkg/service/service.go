// Package service implements the Service facade of spec.md §6: the single
// surface cmd/pyrite (CLI), cmd/pyrite-server (REST), and cmd/pyrite-mcp
// (MCP) call into. It composes a backend.Backend, an indexmanager.Manager,
// and the pkg/query operations that sit above the backend contract.
package service

import (
	"context"
	"sort"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/indexmanager"
	"github.com/markramm/pyrite/pkg/model"
	"github.com/markramm/pyrite/pkg/query"
	"github.com/markramm/pyrite/pkg/relations"
)

// Service is the facade described in spec.md §6.
type Service struct {
	Backend   backend.Backend
	Index     *indexmanager.Manager
	Relations *relations.Registry
}

// New constructs a Service over an already-open Backend and Manager. The
// Manager is expected to wrap the same Backend. A nil Registry falls back
// to a fresh default one.
func New(b backend.Backend, idx *indexmanager.Manager, reg *relations.Registry) *Service {
	if reg == nil {
		reg = relations.NewRegistry()
		reg.Freeze()
	}
	return &Service{Backend: b, Index: idx, Relations: reg}
}

// --- KB management ---

func (s *Service) ListKBs(ctx context.Context) ([]model.KB, error) { return s.Backend.ListKBs(ctx) }

func (s *Service) GetKB(ctx context.Context, kbName string) (*model.KB, error) {
	return s.Backend.GetKB(ctx, kbName)
}

func (s *Service) RegisterKB(ctx context.Context, kb model.KB) error {
	return s.Backend.RegisterKB(ctx, kb)
}

func (s *Service) UnregisterKB(ctx context.Context, kbName string) error {
	return s.Backend.UnregisterKB(ctx, kbName)
}

// --- Entry CRUD ---

// CreateEntry rejects an id that already exists in kbName, then delegates
// to UpdateEntry's hook-and-persist path.
func (s *Service) CreateEntry(ctx context.Context, entry *model.Entry) error {
	existing, err := s.Backend.GetEntry(ctx, entry.ID, entry.KBName)
	if err != nil {
		return err
	}
	if existing != nil {
		return &backend.ErrValidation{Issues: []backend.FieldIssue{{Field: "id", Reason: "entry already exists"}}}
	}
	return s.UpdateEntry(ctx, entry)
}

// UpdateEntry upserts entry through the hook lifecycle, respecting a
// read-only KB.
func (s *Service) UpdateEntry(ctx context.Context, entry *model.Entry) error {
	kb, err := s.Backend.GetKB(ctx, entry.KBName)
	if err != nil {
		return err
	}
	if kb == nil {
		return &backend.ErrKBNotFound{KBName: entry.KBName}
	}
	if kb.ReadOnly {
		return &backend.ErrKBReadOnly{KBName: entry.KBName}
	}
	if err := validateMetadata(entry.Metadata); err != nil {
		return err
	}
	return s.Index.Save(ctx, entry)
}

// validateMetadata rejects frontmatter metadata that does not round-trip
// through a JSON-object struct, the same shape boundary the REST and MCP
// surfaces serialize entries across.
func validateMetadata(metadata map[string]any) error {
	if len(metadata) == 0 {
		return nil
	}
	if _, err := structpb.NewStruct(metadata); err != nil {
		return &backend.ErrValidation{Issues: []backend.FieldIssue{{Field: "metadata", Reason: err.Error()}}}
	}
	return nil
}

func (s *Service) DeleteEntry(ctx context.Context, id, kbName string) (bool, error) {
	kb, err := s.Backend.GetKB(ctx, kbName)
	if err != nil {
		return false, err
	}
	if kb == nil {
		return false, &backend.ErrKBNotFound{KBName: kbName}
	}
	if kb.ReadOnly {
		return false, &backend.ErrKBReadOnly{KBName: kbName}
	}
	return s.Index.Delete(ctx, id, kbName)
}

func (s *Service) GetEntry(ctx context.Context, id, kbName string) (*model.Entry, error) {
	entry, err := s.Backend.GetEntry(ctx, id, kbName)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, &backend.ErrEntryNotFound{ID: id, KBName: kbName}
	}
	return entry, nil
}

func (s *Service) ListEntries(ctx context.Context, filter backend.ListFilter) ([]model.Entry, error) {
	return s.Backend.ListEntries(ctx, filter)
}

func (s *Service) CountEntries(ctx context.Context, filter backend.ListFilter) (int, error) {
	return s.Backend.CountEntries(ctx, filter)
}

// --- Search ---

func (s *Service) Search(ctx context.Context, filter backend.SearchFilter) ([]backend.SearchResult, error) {
	return s.Backend.Search(ctx, filter)
}

func (s *Service) SearchSemantic(ctx context.Context, filter backend.SemanticFilter) ([]backend.SemanticResult, error) {
	return s.Backend.SearchSemantic(ctx, filter)
}

// SearchHybrid fuses lexical and semantic search via Reciprocal Rank
// Fusion (spec.md §4.9), implemented once in pkg/query above the backend
// contract.
func (s *Service) SearchHybrid(ctx context.Context, kbName, text string, vector model.Embedding, k, limit int) ([]query.HybridResult, error) {
	return query.HybridSearch(ctx, s.Backend, kbName, text, vector, k, limit)
}

func (s *Service) SearchByTagPrefix(ctx context.Context, kbName, prefix string, limit, offset int) ([]model.Entry, error) {
	return s.Backend.SearchByTagPrefix(ctx, kbName, prefix, limit, offset)
}

// --- Timeline / tags ---

func (s *Service) GetTimeline(ctx context.Context, filter backend.TimelineFilter) ([]model.Entry, error) {
	return s.Backend.GetTimeline(ctx, filter)
}

func (s *Service) GetTags(ctx context.Context, kbName string) ([]backend.TagCount, error) {
	return s.Backend.GetAllTags(ctx, kbName)
}

// TagNode is one level of the hierarchy get_tag_tree builds out of the
// flat forward-slash-delimited tag namespace (model.Tag).
type TagNode struct {
	Name     string
	FullPath string
	Count    int
	Children []*TagNode
}

// GetTagTree groups the KB's flat tag counts into a forward-slash
// hierarchy, rolling child counts up into their ancestors so a parent
// node reports the total of everything beneath it.
func (s *Service) GetTagTree(ctx context.Context, kbName string) ([]*TagNode, error) {
	flat, err := s.Backend.GetAllTags(ctx, kbName)
	if err != nil {
		return nil, err
	}

	roots := map[string]*TagNode{}
	var order []string
	index := map[string]*TagNode{}

	ensure := func(path string) *TagNode {
		if n, ok := index[path]; ok {
			return n
		}
		parts := strings.Split(path, "/")
		n := &TagNode{Name: parts[len(parts)-1], FullPath: path}
		index[path] = n
		if len(parts) == 1 {
			roots[path] = n
			order = append(order, path)
		} else {
			parentPath := strings.Join(parts[:len(parts)-1], "/")
			parent := ensure(parentPath)
			parent.Children = append(parent.Children, n)
		}
		return n
	}

	for _, tc := range flat {
		n := ensure(tc.Name)
		n.Count += tc.Count
		for parent := parentOf(index, tc.Name); parent != nil; parent = parentOf(index, parent.FullPath) {
			parent.Count += tc.Count
		}
	}

	out := make([]*TagNode, 0, len(order))
	for _, path := range order {
		out = append(out, roots[path])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func parentOf(index map[string]*TagNode, path string) *TagNode {
	i := strings.LastIndex(path, "/")
	if i == -1 {
		return nil
	}
	return index[path[:i]]
}

// --- Graph ---

func (s *Service) GetBacklinks(ctx context.Context, id, kbName string) ([]model.Link, error) {
	return s.Backend.GetBacklinks(ctx, id, kbName)
}

func (s *Service) GetOutlinks(ctx context.Context, id, kbName string) ([]model.Link, error) {
	return s.Backend.GetOutlinks(ctx, id, kbName)
}

func (s *Service) GetGraph(ctx context.Context, filter backend.GraphFilter) (backend.GraphData, error) {
	return query.Graph(ctx, s.Backend, filter)
}

func (s *Service) GetWantedPages(ctx context.Context, kbName string, limit int) ([]backend.WantedPage, error) {
	return query.WantedPages(ctx, s.Backend, kbName, limit)
}

// AddLink appends a link to an entry's owned link set and re-persists the
// entry through the same hook-and-blocks path as any other mutation, so
// the sub-entity replace stays atomic (spec.md §5 ordering guarantee). The
// link's inverse relation is looked up from the Relation Registry at
// creation time rather than recomputed on every save. A link already
// present for the (target, relation) pair is a no-op.
func (s *Service) AddLink(ctx context.Context, sourceID, sourceKB string, link model.Link) error {
	entry, err := s.GetEntry(ctx, sourceID, sourceKB)
	if err != nil {
		return err
	}
	for _, existing := range entry.Links {
		if existing.TargetID == link.TargetID && existing.TargetKB == link.TargetKB && existing.Relation == link.Relation {
			return nil
		}
	}
	link.SourceID = sourceID
	link.SourceKB = sourceKB
	link.InverseRelation = s.Relations.Inverse(link.Relation)
	entry.Links = append(entry.Links, link)
	return s.UpdateEntry(ctx, entry)
}

func (s *Service) GetRefsFrom(ctx context.Context, id, kbName, fieldName string) ([]model.EntryRef, error) {
	return s.Backend.GetRefsFrom(ctx, id, kbName, fieldName)
}

func (s *Service) GetRefsTo(ctx context.Context, id, kbName string) ([]model.EntryRef, error) {
	return s.Backend.GetRefsTo(ctx, id, kbName)
}

func (s *Service) ListEntriesInFolder(ctx context.Context, filter backend.FolderFilter) ([]model.Entry, int, error) {
	return query.Folder(ctx, s.Backend, filter)
}

// --- Index management ---

func (s *Service) SyncIndex(ctx context.Context, kbName, root string) (indexmanager.IndexStats, error) {
	return s.Index.Sync(ctx, kbName, root)
}

func (s *Service) ReindexKB(ctx context.Context, kbName, root string) (indexmanager.IndexStats, error) {
	return s.Index.FullReindex(ctx, kbName, root)
}

func (s *Service) GetIndexStats(ctx context.Context, kbName string) (backend.EmbeddingStats, error) {
	return s.Backend.EmbeddingStats(ctx, kbName)
}
