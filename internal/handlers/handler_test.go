// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// The service runs against go-sqlmock so no database is needed.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"myblog/internal/blog"
	"myblog/internal/middleware"
	"myblog/internal/models"
)

// newMockService returns a blog.Service backed by go-sqlmock.
func newMockService(t *testing.T) (*blog.Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return blog.NewService(db), mock
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withActor attaches an authenticated actor to a request.
func withActor(r *http.Request, actor *models.Actor) *http.Request {
	return r.WithContext(middleware.WithActor(r.Context(), actor))
}

// detail decodes the {"detail": ...} body of an error response.
func detail(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body.Detail
}
