package backend

import "github.com/markramm/pyrite/pkg/model"

// SortField enumerates the columns list_entries may sort on.
type SortField string

const (
	SortTitle     SortField = "title"
	SortUpdatedAt SortField = "updated_at"
	SortCreatedAt SortField = "created_at"
	SortEntryType SortField = "entry_type"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ListFilter selects and paginates entries for list_entries/count_entries.
type ListFilter struct {
	KBName string
	Type   string
	Tag    string

	Sort  SortField
	Order SortOrder

	Limit  int
	Offset int
}

// SearchFilter parameterizes a lexical full-text search.
type SearchFilter struct {
	Query string

	KBName   string
	Type     string
	Tags     []string // conjunctive: entry must carry every tag
	DateFrom string   // YYYY-MM-DD, inclusive
	DateTo   string   // YYYY-MM-DD, inclusive

	Limit  int
	Offset int
}

// SearchResult pairs a matched entry with a relevance snippet.
type SearchResult struct {
	Entry   model.Entry
	Snippet string
	Score   float64
}

// SemanticFilter parameterizes a KNN search over stored embeddings.
type SemanticFilter struct {
	Vector model.Embedding

	KBName      string
	Limit       int
	MaxDistance float64
}

// SemanticResult pairs a matched entry with its cosine distance from the
// query vector.
type SemanticResult struct {
	Entry    model.Entry
	Distance float64
}

// EmbeddingStats reports embedding coverage for a KB.
type EmbeddingStats struct {
	TotalEntries      int
	EntriesWithVector int
	Coverage          float64 // EntriesWithVector / TotalEntries, 0 when TotalEntries == 0
}

// TagCount is one aggregated row from get_all_tags / get_tags_as_dicts.
type TagCount struct {
	Name  string
	Count int
}

// TimelineFilter parameterizes get_timeline.
type TimelineFilter struct {
	KBName        string
	DateFrom      string
	DateTo        string
	MinImportance int
	Limit         int
}

// GraphFilter parameterizes get_graph_data. Depth is clamped to [1,3] by
// the shared BFS helper that every backend calls; pkg/query only fills in
// defaults.
type GraphFilter struct {
	CenterID   string
	CenterKB   string
	Depth      int
	KBName     string
	Type       string
	Limit      int
}

// GraphNode is one node in a traversed subgraph, annotated with its hop
// distance from the traversal center and its local link count within the
// returned subgraph (not its global degree).
type GraphNode struct {
	ID        string
	KBName    string
	Title     string
	EntryType string
	Hops      int
	LinkCount int
}

// GraphEdge is one deduplicated edge in a traversed subgraph.
type GraphEdge struct {
	SourceID string
	SourceKB string
	TargetID string
	TargetKB string
	Relation string
}

// GraphData is the result of a bounded BFS traversal.
type GraphData struct {
	Nodes []GraphNode
	Edges []GraphEdge
}

// LinkCount pairs an entry key with its aggregate link degree, used by
// get_most_linked.
type LinkCount struct {
	ID     string
	KBName string
	Title  string
	Count  int
}

// WantedPage is an outgoing-link target with no corresponding entry.
type WantedPage struct {
	TargetID     string
	TargetKB     string
	RefCount     int
	ReferencedBy []string
}

// FolderFilter parameterizes list_entries_in_folder / count_entries_in_folder.
type FolderFilter struct {
	KBName string
	Folder string
	Limit  int
	Offset int
}
