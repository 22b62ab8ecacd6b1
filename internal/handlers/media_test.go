// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myblog/internal/models"
)

var mediaColumns = []string{"id", "filename", "original_name", "content_type", "size_bytes", "s3_key", "thumb_s3_key", "uploader_id", "created_at"}

// fakeObjects records object store calls in memory.
type fakeObjects struct {
	mu        sync.Mutex
	uploads   map[string]string // key -> content type
	deletes   []string
	uploadErr error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{uploads: map[string]string{}}
}

func (f *fakeObjects) Upload(_ context.Context, key, contentType string, body io.Reader, _ int64) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	if _, err := io.ReadAll(body); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[key] = contentType
	return nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, key)
	return nil
}

func (f *fakeObjects) FileURL(key string) string {
	return "https://cdn.example.com/" + key
}

// pngBytes encodes a blank PNG of the given size.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// uploadRequest builds a multipart request carrying data in the "file" field.
func uploadRequest(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestMediaUploadWithoutStorage(t *testing.T) {
	h := NewMedia(nil, nil, 1<<20)
	rr := httptest.NewRecorder()
	h.Upload(rr, uploadRequest(t, "a.png", pngBytes(t, 10, 10)))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestMediaUploadRejectsUnsupportedType(t *testing.T) {
	objects := newFakeObjects()
	h := NewMedia(nil, objects, 1<<20)

	r := withActor(uploadRequest(t, "notes.png", []byte("just some text, not an image")),
		&models.Actor{ID: uuid.New(), Role: models.RoleUser})
	rr := httptest.NewRecorder()
	h.Upload(rr, r)

	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
	assert.Empty(t, objects.uploads, "nothing may be stored")
}

func TestMediaUploadRejectsLargeFile(t *testing.T) {
	objects := newFakeObjects()
	h := NewMedia(nil, objects, 100)

	r := withActor(uploadRequest(t, "big.png", bytes.Repeat([]byte{0x89}, 101)),
		&models.Actor{ID: uuid.New(), Role: models.RoleUser})
	rr := httptest.NewRecorder()
	h.Upload(rr, r)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Empty(t, objects.uploads)
}

func TestMediaUploadMissingFile(t *testing.T) {
	h := NewMedia(nil, newFakeObjects(), 1<<20)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())
	r := httptest.NewRequest(http.MethodPost, "/api/v1/media/upload", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	rr := httptest.NewRecorder()
	h.Upload(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMediaUploadStoresOriginalAndThumbnail(t *testing.T) {
	svc, mock := newMockService(t)
	objects := newFakeObjects()
	h := NewMedia(svc, objects, 1<<20)
	h.now = func() time.Time { return time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC) }

	uploader := uuid.New()
	mock.ExpectQuery(`INSERT INTO media`).WillReturnRows(
		sqlmock.NewRows(mediaColumns).AddRow(
			uuid.NewString(), "x.png", "holiday.png", "image/png", 100,
			"media/2026/10/x.png", "media/2026/10/x_thumb.jpg", uploader.String(), time.Now(),
		))

	r := withActor(uploadRequest(t, "holiday.png", pngBytes(t, 800, 600)), &models.Actor{ID: uploader, Role: models.RoleUser})
	rr := httptest.NewRecorder()
	h.Upload(rr, r)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Len(t, objects.uploads, 2, "original and thumbnail")

	var types []string
	for _, ct := range objects.uploads {
		types = append(types, ct)
	}
	assert.ElementsMatch(t, []string{"image/png", "image/jpeg"}, types)

	var got models.Media
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, "https://cdn.example.com/media/2026/10/x.png", got.URL)
	assert.Equal(t, "https://cdn.example.com/media/2026/10/x_thumb.jpg", got.ThumbURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMediaUploadDBFailureRemovesObjects(t *testing.T) {
	svc, mock := newMockService(t)
	objects := newFakeObjects()
	h := NewMedia(svc, objects, 1<<20)

	mock.ExpectQuery(`INSERT INTO media`).WillReturnError(errors.New("connection reset"))

	r := withActor(uploadRequest(t, "small.png", pngBytes(t, 50, 50)), &models.Actor{ID: uuid.New(), Role: models.RoleUser})
	rr := httptest.NewRecorder()
	h.Upload(rr, r)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Len(t, objects.uploads, 1, "small image gets no thumbnail")
	for key := range objects.uploads {
		assert.Equal(t, []string{key}, objects.deletes)
	}
}

func TestMediaDeleteRemovesObjects(t *testing.T) {
	svc, mock := newMockService(t)
	objects := newFakeObjects()
	h := NewMedia(svc, objects, 1<<20)

	id, owner := uuid.New(), uuid.New()
	row := func() *sqlmock.Rows {
		return sqlmock.NewRows(mediaColumns).AddRow(
			id.String(), "x.png", "x.png", "image/png", 10,
			"media/2026/10/x.png", "media/2026/10/x_thumb.jpg", owner.String(), time.Now(),
		)
	}
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM media WHERE id = \$1`).WithArgs(id).WillReturnRows(row())
	mock.ExpectQuery(`DELETE FROM media WHERE id = \$1`).WithArgs(id).WillReturnRows(row())
	mock.ExpectCommit()

	r := withChiURLParam(httptest.NewRequest(http.MethodDelete, "/", nil), "id", id.String())
	r = withActor(r, &models.Actor{ID: owner, Role: models.RoleUser})
	rr := httptest.NewRecorder()
	h.Delete(rr, r)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []string{"media/2026/10/x.png", "media/2026/10/x_thumb.jpg"}, objects.deletes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMediaDeleteForbiddenKeepsObjects(t *testing.T) {
	svc, mock := newMockService(t)
	objects := newFakeObjects()
	h := NewMedia(svc, objects, 1<<20)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM media WHERE id = \$1`).WithArgs(id).WillReturnRows(
		sqlmock.NewRows(mediaColumns).AddRow(
			id.String(), "x.png", "x.png", "image/png", 10, "media/x.png", nil, uuid.NewString(), time.Now(),
		))
	mock.ExpectRollback()

	r := withChiURLParam(httptest.NewRequest(http.MethodDelete, "/", nil), "id", id.String())
	r = withActor(r, &models.Actor{ID: uuid.New(), Role: models.RoleAuthor})
	rr := httptest.NewRecorder()
	h.Delete(rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Empty(t, objects.deletes)
}
