package models

import "strings"

// NormalizeQuery trims raw user input. ok is false when nothing is left, in which
// case the caller must not issue any request.
func NormalizeQuery(raw string) (query string, ok bool) {
	query = strings.TrimSpace(raw)
	return query, query != ""
}

// NormalizeServerQuery lowercases and trims a query received by the backend.
func NormalizeServerQuery(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
