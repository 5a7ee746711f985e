package backend

import (
	"context"

	"github.com/markramm/pyrite/pkg/model"
)

// Backend is the Search Backend Interface (spec.md §4.4). Every
// implementation (sqlitestore, pgstore, columnarstore) must satisfy it with
// precisely the semantics documented per method below. Context is threaded
// through every method per spec.md §5's cancellation/soft-deadline
// requirement; implementations that cannot honor cancellation mid-query
// must still check ctx before starting I/O.
type Backend interface {
	// UpsertEntry atomically replaces the entry keyed by (ID, KBName) and
	// all of its owned sub-entities (tags, links, refs, sources, blocks).
	// Previously owned sub-entities are replaced wholesale, never merged.
	// CreatedAt/CreatedBy are preserved from the prior version if one
	// exists.
	UpsertEntry(ctx context.Context, entry *model.Entry) error

	// DeleteEntry cascade-deletes the entry and its owned sub-entities,
	// reporting whether a row was actually removed.
	DeleteEntry(ctx context.Context, id, kbName string) (bool, error)

	// GetEntry returns the entry with its tags, sources, and outgoing
	// links eagerly loaded, or nil if no such entry exists.
	GetEntry(ctx context.Context, id, kbName string) (*model.Entry, error)

	ListEntries(ctx context.Context, filter ListFilter) ([]model.Entry, error)
	CountEntries(ctx context.Context, filter ListFilter) (int, error)

	Search(ctx context.Context, filter SearchFilter) ([]SearchResult, error)
	SearchByTag(ctx context.Context, kbName, tag string, limit, offset int) ([]model.Entry, error)
	SearchByDateRange(ctx context.Context, kbName, from, to string, limit, offset int) ([]model.Entry, error)
	// SearchByTagPrefix matches tag and any child tag/* under it.
	SearchByTagPrefix(ctx context.Context, kbName, prefix string, limit, offset int) ([]model.Entry, error)

	// UpsertEmbedding attaches a vector to an existing entry, returning
	// false if no such entry exists.
	UpsertEmbedding(ctx context.Context, id, kbName string, vec model.Embedding) (bool, error)
	// SearchSemantic runs a KNN search by cosine distance, excluding any
	// result whose distance exceeds maxDistance.
	SearchSemantic(ctx context.Context, filter SemanticFilter) ([]SemanticResult, error)
	HasEmbeddings(ctx context.Context, kbName string) (bool, error)
	EmbeddingStats(ctx context.Context, kbName string) (EmbeddingStats, error)
	DeleteEmbedding(ctx context.Context, id, kbName string) error

	// GetBacklinks looks up edges using the precomputed inverse_relation;
	// GetOutlinks returns the entry's own stored links.
	GetBacklinks(ctx context.Context, id, kbName string) ([]model.Link, error)
	GetOutlinks(ctx context.Context, id, kbName string) ([]model.Link, error)

	GetGraphData(ctx context.Context, filter GraphFilter) (GraphData, error)
	GetMostLinked(ctx context.Context, kbName string, limit int) ([]LinkCount, error)
	GetOrphans(ctx context.Context, kbName string, limit, offset int) ([]model.Entry, error)

	GetAllTags(ctx context.Context, kbName string) ([]TagCount, error)
	GetTagsAsDicts(ctx context.Context, kbName, prefix string) ([]TagCount, error)

	GetTimeline(ctx context.Context, filter TimelineFilter) ([]model.Entry, error)

	GetRefsFrom(ctx context.Context, id, kbName, fieldName string) ([]model.EntryRef, error)
	GetRefsTo(ctx context.Context, id, kbName string) ([]model.EntryRef, error)

	ListEntriesInFolder(ctx context.Context, filter FolderFilter) ([]model.Entry, error)
	CountEntriesInFolder(ctx context.Context, filter FolderFilter) (int, error)

	// RegisterKB and UnregisterKB manage the backend's KB catalog.
	RegisterKB(ctx context.Context, kb model.KB) error
	UnregisterKB(ctx context.Context, kbName string) error
	GetKB(ctx context.Context, kbName string) (*model.KB, error)
	ListKBs(ctx context.Context) ([]model.KB, error)

	// Close releases the underlying store connection. A Backend instance
	// owns its connection exclusively; two instances must not share one.
	Close() error
}
