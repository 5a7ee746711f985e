package columnarstore

import (
	"context"
	"regexp"
	"strings"

	"github.com/timshannon/badgerhold/v4"

	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

// Search has no FTS5 engine to delegate to: it rebuilds each dirty
// document's FTSText in memory (the rebuilt text is not saved), then
// matches query against it as a literal, case-insensitive substring
// (the query is regex-quoted). Grounded on ternarybob-quaero's badger
// FullTextSearch, explicitly documented there as slow for large
// datasets — the same tradeoff applies here.
func (s *Store) Search(ctx context.Context, filter backend.SearchFilter) ([]backend.SearchResult, error) {
	escaped := regexp.QuoteMeta(filter.Query)
	re, err := regexp.Compile("(?i)" + escaped)
	if err != nil {
		return nil, &backend.ErrValidation{Issues: []backend.FieldIssue{{Field: "query", Reason: "invalid search text"}}}
	}

	query := listQuery(backend.ListFilter{KBName: filter.KBName, Type: filter.Type})
	var docs []doc
	if err := s.db.Find(&docs, query); err != nil {
		return nil, &backend.ErrStorage{Op: "search", Err: err}
	}
	docs = applyTagFilter(docs, filter.Tags)

	var out []backend.SearchResult
	for i := range docs {
		d := &docs[i]
		if filter.DateFrom != "" && d.Date < filter.DateFrom {
			continue
		}
		if filter.DateTo != "" && d.Date > filter.DateTo {
			continue
		}
		if d.FTSDirty || d.FTSText == "" {
			rebuildFTSText(d)
		}
		loc := re.FindStringIndex(d.FTSText)
		if loc == nil {
			continue
		}
		out = append(out, backend.SearchResult{Entry: docToEntry(*d), Snippet: snippetAround(d.FTSText, loc), Score: 1})
	}

	limit, offset := paginate(filter.Limit, filter.Offset)
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func rebuildFTSText(d *doc) {
	d.FTSText = strings.Join([]string{d.Title, d.Summary, d.Body, d.Location}, "\n")
	d.FTSDirty = false
}

func snippetAround(text string, loc []int) string {
	const radius = 80
	start := loc[0] - radius
	if start < 0 {
		start = 0
	}
	end := loc[1] + radius
	if end > len(text) {
		end = len(text)
	}
	marked := text[start:loc[0]] + "<mark>" + text[loc[0]:loc[1]] + "</mark>" + text[loc[1]:end]
	return strings.TrimSpace(marked)
}

func paginate(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *Store) SearchByTag(ctx context.Context, kbName, tag string, limit, offset int) ([]model.Entry, error) {
	return s.ListEntries(ctx, backend.ListFilter{KBName: kbName, Tag: tag, Limit: limit, Offset: offset, Sort: backend.SortUpdatedAt, Order: backend.OrderDesc})
}

func (s *Store) SearchByDateRange(ctx context.Context, kbName, from, to string, limit, offset int) ([]model.Entry, error) {
	var docs []doc
	if err := s.db.Find(&docs, badgerhold.Where("KBName").Eq(kbName)); err != nil {
		return nil, &backend.ErrStorage{Op: "search_by_date_range", Err: err}
	}
	filtered := docs[:0]
	for _, d := range docs {
		if d.Date == "" {
			continue
		}
		if d.Date < from || d.Date > to {
			continue
		}
		filtered = append(filtered, d)
	}
	sortByDate(filtered)
	filtered = paginateDocs(filtered, limit, offset)
	return docsToEntries(filtered), nil
}

func sortByDate(docs []doc) {
	for i := 1; i < len(docs); i++ {
		for j := i; j > 0 && docs[j-1].Date > docs[j].Date; j-- {
			docs[j-1], docs[j] = docs[j], docs[j-1]
		}
	}
}

// SearchByTagPrefix matches tag and any child tag/* beneath it.
func (s *Store) SearchByTagPrefix(ctx context.Context, kbName, prefix string, limit, offset int) ([]model.Entry, error) {
	var docs []doc
	if err := s.db.Find(&docs, badgerhold.Where("KBName").Eq(kbName)); err != nil {
		return nil, &backend.ErrStorage{Op: "search_by_tag_prefix", Err: err}
	}
	filtered := docs[:0]
	for _, d := range docs {
		if hasTagOrChild(d.Tags, prefix) {
			filtered = append(filtered, d)
		}
	}
	sortDocs(filtered, backend.SortTitle, backend.OrderAsc)
	filtered = paginateDocs(filtered, limit, offset)
	return docsToEntries(filtered), nil
}

func hasTagOrChild(tags []string, prefix string) bool {
	for _, t := range tags {
		if t == prefix || strings.HasPrefix(t, prefix+"/") {
			return true
		}
	}
	return false
}
