package shared

import (
	"net/http"
	"strconv"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// ListWindow carries limit/offset extracted from a listing request.
type ListWindow struct {
	Limit  int
	Offset int
}

// ParseListWindow reads limit/offset query parameters, clamping them to safe
// bounds. Missing or malformed values fall back to the defaults.
func ParseListWindow(r *http.Request) ListWindow {
	w := ListWindow{Limit: defaultLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			w.Limit = v
		}
	}
	if w.Limit > maxLimit {
		w.Limit = maxLimit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			w.Offset = v
		}
	}
	return w
}
