package middleware

import (
	"encoding/json"
	"net/http"
)

// writeDetail writes an API error body in the same {"detail": ...} shape
// the handlers use.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
