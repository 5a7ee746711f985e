package main

import "net/http"

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/kbs", s.handleKBs)
	mux.HandleFunc("/api/kbs/", s.handleKBByName)

	mux.HandleFunc("/api/entries", s.handleEntries)
	mux.HandleFunc("/api/entries/", s.handleEntryByID)

	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/search/semantic", s.handleSearchSemantic)
	mux.HandleFunc("/api/search/hybrid", s.handleSearchHybrid)

	mux.HandleFunc("/api/graph", s.handleGraph)
	mux.HandleFunc("/api/wanted-pages", s.handleWantedPages)
	mux.HandleFunc("/api/tags", s.handleTags)
	mux.HandleFunc("/api/timeline", s.handleTimeline)

	mux.HandleFunc("/api/sync", s.handleSync)
	mux.HandleFunc("/api/reindex", s.handleReindex)

	return mux
}
