// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON API of the blog. Handlers decode
// requests, call blog.Service and map its errors onto HTTP statuses.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"myblog/internal/blog"
	"myblog/internal/middleware"
	"myblog/internal/models"
)

// maxJSONBody caps the size of JSON request bodies (1 MB).
const maxJSONBody = 1 << 20

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

// writeDetail writes a {"detail": ...} error body.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps a service error onto its HTTP status. Unknown errors
// are logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, blog.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, blog.ErrInvalidReference), errors.Is(err, blog.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, blog.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, blog.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, blog.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeDetail(w, status, "Internal Server Error")
		return
	}
	writeDetail(w, status, blog.Detail(err))
}

// decodeJSON reads a JSON body into dst, answering 400 on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// pathID parses the named chi URL parameter as a UUID, answering 400 if
// it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

// actor returns the authenticated caller, or nil.
func actor(r *http.Request) *models.Actor {
	return middleware.ActorFromCtx(r.Context())
}
