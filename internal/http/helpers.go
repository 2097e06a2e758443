package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"insight/internal/core"
)

// windowFromQuery parses the "window" query parameter. A missing value means
// the whole history.
func windowFromQuery(r *http.Request) (core.TimeWindow, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("window"))
	return core.ParseWindow(raw)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// emptyIfNil keeps JSON list fields as [] instead of null.
func emptyIfNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
