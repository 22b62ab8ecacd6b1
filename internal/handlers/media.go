// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"myblog/internal/blog"
	"myblog/internal/models"
	"myblog/internal/storage"
)

// ObjectStore is the bucket media bytes are kept in.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	FileURL(key string) string
}

// Media groups the media library handlers.
type Media struct {
	svc       *blog.Service
	objects   ObjectStore
	maxUpload int64
	now       func() time.Time
}

// NewMedia creates a new Media handler group. objects may be nil, in
// which case uploads answer 503.
func NewMedia(svc *blog.Service, objects ObjectStore, maxUpload int64) *Media {
	return &Media{
		svc:       svc,
		objects:   objects,
		maxUpload: maxUpload,
		now:       time.Now,
	}
}

// withURLs fills the virtual URL fields from the object store.
func (m *Media) withURLs(item *models.Media) {
	if m.objects == nil {
		return
	}
	item.URL = m.objects.FileURL(item.S3Key)
	if item.ThumbS3Key != nil {
		item.ThumbURL = m.objects.FileURL(*item.ThumbS3Key)
	}
}

// Upload handles a multipart upload in the "file" field.
func (m *Media) Upload(w http.ResponseWriter, r *http.Request) {
	if m.objects == nil {
		writeDetail(w, http.StatusServiceUnavailable, "Object storage is not configured")
		return
	}

	if r.ContentLength > m.maxUpload+1024 {
		writeDetail(w, http.StatusRequestEntityTooLarge, m.tooLarge())
		return
	}

	// Limit request body to maxUpload + some overhead for multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, m.maxUpload+1024)
	if err := r.ParseMultipartForm(m.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeDetail(w, http.StatusRequestEntityTooLarge, m.tooLarge())
			return
		}
		writeDetail(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Size > m.maxUpload {
		writeDetail(w, http.StatusRequestEntityTooLarge, m.tooLarge())
		return
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	// Detect content type by sniffing; the declared type is not trusted.
	contentType := http.DetectContentType(fileBytes)
	if !storage.Allowed(contentType) {
		writeDetail(w, http.StatusUnsupportedMediaType,
			"Unsupported file type. Allowed types: image/jpeg, image/png, image/gif, image/webp")
		return
	}

	now := m.now()
	fileID := uuid.New()
	ext := storage.Extension(contentType)
	key := storage.ObjectKey(now, fileID, ext)

	ctx := r.Context()
	if err := m.objects.Upload(ctx, key, contentType, bytes.NewReader(fileBytes), int64(len(fileBytes))); err != nil {
		slog.Error("s3 upload failed", "error", err, "key", key)
		writeDetail(w, http.StatusBadGateway, "Failed to upload file")
		return
	}

	var thumbKey *string
	if storage.Thumbable(contentType) {
		thumb, err := storage.Thumbnail(bytes.NewReader(fileBytes), storage.ThumbMaxWidth)
		if err != nil {
			slog.Warn("thumbnail generation failed", "error", err, "key", key)
		} else if thumb != nil {
			tk := storage.ThumbKey(now, fileID)
			if err := m.objects.Upload(ctx, tk, "image/jpeg", bytes.NewReader(thumb), int64(len(thumb))); err != nil {
				slog.Warn("thumbnail upload failed", "error", err, "key", tk)
			} else {
				thumbKey = &tk
			}
		}
	}

	created, err := m.svc.RecordMedia(ctx, actor(r), &models.Media{
		Filename:     fileID.String() + ext,
		OriginalName: filepath.Base(header.Filename),
		ContentType:  contentType,
		SizeBytes:    int64(len(fileBytes)),
		S3Key:        key,
		ThumbS3Key:   thumbKey,
	})
	if err != nil {
		// Don't leave orphaned objects behind.
		m.removeObjects(ctx, key, thumbKey)
		writeError(w, r, err)
		return
	}

	m.withURLs(created)
	writeJSON(w, http.StatusCreated, created)
}

// List returns one page of the media library. Query: page, size.
func (m *Media) List(w http.ResponseWriter, r *http.Request) {
	page, size, msg := parsePagination(r, defaultMediaPageSize)
	if msg != "" {
		writeDetail(w, http.StatusBadRequest, msg)
		return
	}
	result, err := m.svc.ListMedia(r.Context(), page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for i := range result.Items {
		m.withURLs(&result.Items[i])
	}
	writeJSON(w, http.StatusOK, result)
}

// Get returns a single media record.
func (m *Media) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	item, err := m.svc.GetMedia(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	m.withURLs(item)
	writeJSON(w, http.StatusOK, item)
}

// Delete removes a media record and its stored objects. Object removal
// is best-effort once the row is gone.
func (m *Media) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	deleted, err := m.svc.DeleteMedia(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	m.removeObjects(r.Context(), deleted.S3Key, deleted.ThumbS3Key)
	w.WriteHeader(http.StatusNoContent)
}

func (m *Media) removeObjects(ctx context.Context, key string, thumbKey *string) {
	if m.objects == nil {
		return
	}
	if err := m.objects.Delete(ctx, key); err != nil {
		slog.Warn("s3 original delete failed", "error", err, "key", key)
	}
	if thumbKey != nil {
		if err := m.objects.Delete(ctx, *thumbKey); err != nil {
			slog.Warn("s3 thumbnail delete failed", "error", err, "key", *thumbKey)
		}
	}
}

func (m *Media) tooLarge() string {
	return fmt.Sprintf("File size exceeds maximum allowed size of %d bytes", m.maxUpload)
}
