package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/markramm/pyrite/internal/app"
	"github.com/markramm/pyrite/pkg/backend"
	"github.com/markramm/pyrite/pkg/model"
)

type server struct {
	app *app.App
}

// searchHit is the wire shape spec.md §6 names for a search result.
type searchHit struct {
	ID         string `json:"id"`
	KBName     string `json:"kb_name"`
	EntryType  string `json:"entry_type"`
	Title      string `json:"title"`
	Summary    string `json:"summary"`
	Date       string `json:"date,omitempty"`
	Importance int    `json:"importance,omitempty"`
	Snippet    string `json:"snippet"`
	Rank       float64 `json:"rank"`
}

func toSearchHit(r backend.SearchResult) searchHit {
	return searchHit{
		ID: r.Entry.ID, KBName: r.Entry.KBName, EntryType: r.Entry.EntryType,
		Title: r.Entry.Title, Summary: r.Entry.Summary, Date: r.Entry.Date,
		Importance: r.Entry.Importance, Snippet: r.Snippet, Rank: r.Score,
	}
}

func (s *server) handleKBs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		kbs, err := s.app.Service.ListKBs(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, kbs)
	case http.MethodPost:
		var kb model.KB
		if err := json.NewDecoder(r.Body).Decode(&kb); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		if err := s.app.Service.RegisterKB(r.Context(), kb); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, kb)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *server) handleKBByName(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/kbs/")
	switch r.Method {
	case http.MethodGet:
		kb, err := s.app.Service.GetKB(r.Context(), name)
		if err != nil {
			writeError(w, err)
			return
		}
		if kb == nil {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, kb)
	case http.MethodDelete:
		if err := s.app.Service.UnregisterKB(r.Context(), name); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// entryImport is the wire shape spec.md §6 names for creating/updating an
// entry from outside the filesystem-sync path.
type entryImport struct {
	ID         string         `json:"id"`
	KBName     string         `json:"kb_name"`
	EntryType  string         `json:"entry_type"`
	Title      string         `json:"title"`
	Body       string         `json:"body"`
	Summary    string         `json:"summary"`
	Date       string         `json:"date"`
	Importance int            `json:"importance"`
	Tags       []string       `json:"tags"`
	Metadata   map[string]any `json:"metadata"`
}

func (s *server) handleEntries(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var in entryImport
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	entry, err := model.NewEntry(in.KBName, in.ID, in.EntryType, in.Title)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	entry.Body = in.Body
	entry.Summary = in.Summary
	entry.Date = in.Date
	entry.Importance = in.Importance
	entry.Tags = in.Tags
	entry.Metadata = in.Metadata

	if err := s.app.Service.CreateEntry(r.Context(), entry); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *server) handleEntryByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/entries/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		http.Error(w, "expected /api/entries/{kb}/{id}", http.StatusBadRequest)
		return
	}
	kbName, id := parts[0], parts[1]

	switch r.Method {
	case http.MethodGet:
		entry, err := s.app.Service.GetEntry(r.Context(), id, kbName)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	case http.MethodDelete:
		ok, err := s.app.Service.DeleteEntry(r.Context(), id, kbName)
		if err != nil {
			writeError(w, err)
			return
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	results, err := s.app.Service.Search(r.Context(), backend.SearchFilter{
		Query:  q.Get("q"),
		KBName: q.Get("kb"),
		Type:   q.Get("type"),
		Limit:  atoiDefault(q.Get("limit"), 20),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	hits := make([]searchHit, len(results))
	for i, r := range results {
		hits[i] = toSearchHit(r)
	}
	writeJSON(w, http.StatusOK, hits)
}

func (s *server) handleSearchSemantic(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		KBName string           `json:"kb_name"`
		Vector model.Embedding  `json:"vector"`
		Limit  int              `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	results, err := s.app.Service.SearchSemantic(r.Context(), backend.SemanticFilter{
		KBName: req.KBName, Vector: req.Vector, Limit: req.Limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *server) handleSearchHybrid(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		KBName string          `json:"kb_name"`
		Query  string          `json:"query"`
		Vector model.Embedding `json:"vector"`
		K      int             `json:"k"`
		Limit  int             `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	results, err := s.app.Service.SearchHybrid(r.Context(), req.KBName, req.Query, req.Vector, req.K, req.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// graphResult is the wire shape spec.md §6 names for get_graph.
type graphResult struct {
	Nodes []graphNode `json:"nodes"`
	Edges []graphEdge `json:"edges"`
}

type graphNode struct {
	ID        string `json:"id"`
	KBName    string `json:"kb_name"`
	Title     string `json:"title"`
	EntryType string `json:"entry_type"`
	LinkCount int    `json:"link_count"`
}

type graphEdge struct {
	SourceID string `json:"source_id"`
	SourceKB string `json:"source_kb"`
	TargetID string `json:"target_id"`
	TargetKB string `json:"target_kb"`
	Relation string `json:"relation"`
}

func (s *server) handleGraph(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	data, err := s.app.Service.GetGraph(r.Context(), backend.GraphFilter{
		CenterID: q.Get("id"),
		CenterKB: q.Get("kb"),
		Depth:    atoiDefault(q.Get("depth"), 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	out := graphResult{}
	for _, n := range data.Nodes {
		out.Nodes = append(out.Nodes, graphNode{ID: n.ID, KBName: n.KBName, Title: n.Title, EntryType: n.EntryType, LinkCount: n.LinkCount})
	}
	for _, e := range data.Edges {
		out.Edges = append(out.Edges, graphEdge{SourceID: e.SourceID, SourceKB: e.SourceKB, TargetID: e.TargetID, TargetKB: e.TargetKB, Relation: e.Relation})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleWantedPages(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	pages, err := s.app.Service.GetWantedPages(r.Context(), q.Get("kb"), atoiDefault(q.Get("limit"), 50))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

func (s *server) handleTags(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	if q.Get("tree") == "true" {
		tree, err := s.app.Service.GetTagTree(r.Context(), q.Get("kb"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tree)
		return
	}
	tags, err := s.app.Service.GetTags(r.Context(), q.Get("kb"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	entries, err := s.app.Service.GetTimeline(r.Context(), backend.TimelineFilter{
		KBName:       q.Get("kb"),
		MinImportance: atoiDefault(q.Get("min_importance"), 0),
		Limit:        atoiDefault(q.Get("limit"), 50),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *server) handleSync(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct{ KBName, Root string }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	stats, err := s.app.Service.SyncIndex(r.Context(), req.KBName, req.Root)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct{ KBName, Root string }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	stats, err := s.app.Service.ReindexKB(r.Context(), req.KBName, req.Root)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
