// Package columnarstore implements Pyrite's Columnar Vector Backend (C7,
// spec.md §4.7): a single badgerhold document table per record kind, tags
// denormalized as an inline array, and FTS built lazily over a
// concatenated text column. Grounded on ternarybob-quaero's
// internal/storage/badger/document_storage.go.
package columnarstore

import "github.com/markramm/pyrite/pkg/model"

// doc is the columnar row for one entry. Key is the badgerhold primary
// key; KBName/EntryType/Date/FilePath carry secondary indexes so the
// common list/filter paths avoid a full scan.
type doc struct {
	Key       string `badgerholdKey:"Key"`
	ID        string
	KBName    string `badgerholdIndex:"KBName"`
	EntryType string `badgerholdIndex:"EntryType"`

	Title   string
	Body    string
	Summary string

	FilePath   string `badgerholdIndex:"FilePath"`
	Date       string `badgerholdIndex:"Date"`
	Importance int
	Status     string
	Location   string

	Metadata map[string]any

	// Tags is denormalized: no junction table. Membership queries use an
	// array-contains predicate applied in Go (spec.md §4.7).
	Tags []string

	// Embedding holds packed float32 bytes, or nil when no vector has
	// ever been attached. A deletion that cannot null the column instead
	// overwrites it with a same-length all-zero vector; HasEmbeddings
	// must therefore scan rows and check for non-zero content rather
	// than trusting nil-ness alone (documented imprecision, spec.md §4.7).
	Embedding []byte

	// FTSText is Title, Summary, Body and Location joined by newlines,
	// with no field weighting. Upsert sets FTSDirty; Search rebuilds the
	// text in memory for every dirty document it scans and does not write
	// it back, so the rebuild repeats on every query.
	FTSText  string
	FTSDirty bool

	Links   []model.Link
	Refs    []model.EntryRef
	Sources []model.Source
	Blocks  []model.Block

	CreatedAtUnix  int64
	UpdatedAtUnix  int64
	IndexedAtUnix  int64
	CreatedBy      string
	ModifiedBy     string
}

// kbDoc is the columnar row for one registered knowledge base.
type kbDoc struct {
	Name            string `badgerholdKey:"Name"`
	KBType          string
	Path            string
	RepoURL         string
	ReadOnly        bool
	LastIndexedUnix int64
	EntryCount      int
}

func docKey(id, kbName string) string { return kbName + "|" + id }
