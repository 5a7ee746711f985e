// Package model defines Pyrite's canonical in-memory records: entries and
// the sub-entities they own (tags, links, refs, sources, blocks) plus the
// knowledge-base records that group them.
package model

import (
	"fmt"
	"regexp"
	"time"
)

var slugPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Entry is the canonical record for one indexed document. Identity is the
// pair (ID, KBName); the two together are globally unique.
type Entry struct {
	ID        string
	KBName    string
	EntryType string

	Title   string
	Body    string
	Summary string

	FilePath   string
	Date       string // YYYY-MM-DD, optional
	Importance int    // 1-10, 0 means unset
	Status     string
	Location   string

	CreatedAt time.Time
	UpdatedAt time.Time
	IndexedAt time.Time
	CreatedBy string
	ModifiedBy string

	// Metadata is the open-ended extension point: unknown frontmatter
	// keys and custom entry-type fields that are not promoted to the
	// columns above flow here verbatim. The core never validates its
	// shape.
	Metadata map[string]any

	Tags    []string
	Sources []Source
	Links   []Link
	Refs    []EntryRef

	// Blocks and derived data are populated by the Block Extractor and
	// the Index Manager respectively; they are not set by callers
	// constructing a new Entry.
	Blocks []Block
}

// ID pairs (ID, KBName) for use as a map key or log field.
type EntryKey struct {
	ID     string
	KBName string
}

func (e Entry) Key() EntryKey { return EntryKey{ID: e.ID, KBName: e.KBName} }

// NewEntry validates and constructs an Entry. Construction fails with
// InvalidEntry when id or title is empty, or when id is not a URL-safe
// slug. It takes no date; SetDate validates one separately.
func NewEntry(kbName, id, entryType, title string) (*Entry, error) {
	if id == "" {
		return nil, &InvalidEntryError{Field: "id", Reason: "must not be empty"}
	}
	if title == "" {
		return nil, &InvalidEntryError{Field: "title", Reason: "must not be empty"}
	}
	if !slugPattern.MatchString(id) {
		return nil, &InvalidEntryError{Field: "id", Reason: "must be a URL-safe slug"}
	}
	if entryType == "" {
		entryType = "generic"
	}
	now := time.Now().UTC()
	return &Entry{
		ID:        id,
		KBName:    kbName,
		EntryType: entryType,
		Title:     title,
		Metadata:  map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SetDate validates and sets the entry's date field. Events and other
// date-bearing entry types call this instead of writing Date directly so
// construction-time validation (spec §4.1) is uniformly enforced.
func (e *Entry) SetDate(date string) error {
	if date == "" {
		e.Date = ""
		return nil
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return &InvalidEntryError{Field: "date", Reason: fmt.Sprintf("malformed date %q: %v", date, err)}
	}
	e.Date = date
	return nil
}

// FieldProjector is implemented by entry-type-specific constructors that
// need to promote a subset of their fields into the typed columns the
// Search Backend indexes natively (date, importance, status, location).
// Everything a projector does not claim stays in Metadata, opaque to the
// core. This is the generalization of spec.md §9's "promote to typed
// columns or leave in metadata" directive: one extension point instead of
// one Go type per original entry subclass.
type FieldProjector interface {
	ProjectFields(e *Entry)
}

// Tag is a global, forward-slash-delimited hierarchical string
// (e.g. "science/physics"). Tags are deduplicated by name on an entry.
type Tag = string

// NormalizeTags removes duplicate and empty tag names, preserving order of
// first occurrence.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
