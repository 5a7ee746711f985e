package main

import (
	"encoding/json"
	"net/http"

	"github.com/markramm/pyrite/pkg/backend"
)

// requireMethod validates the request verb, writing 405 and returning
// false when it doesn't match.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps pkg/backend's typed errors onto HTTP status codes
// (spec.md §7's error taxonomy).
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch err.(type) {
	case *backend.ErrKBNotFound, *backend.ErrEntryNotFound:
		status = http.StatusNotFound
	case *backend.ErrKBReadOnly, *backend.ErrValidation:
		status = http.StatusBadRequest
	case *backend.ErrPlugin:
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
