// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Media is an uploaded attachment. Metadata lives in PostgreSQL; the bytes
// live in the object storage bucket under S3Key.
type Media struct {
	ID           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"mimetype"`
	SizeBytes    int64     `json:"size"`
	S3Key        string    `json:"-"`
	ThumbS3Key   *string   `json:"-"`
	UploaderID   uuid.UUID `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`

	// Virtual fields resolved against the storage client.
	URL      string `json:"url,omitempty"`
	ThumbURL string `json:"thumb_url,omitempty"`
}

// IsImage returns true if the media item is an image type.
func (m *Media) IsImage() bool {
	return strings.HasPrefix(m.ContentType, "image/")
}

// MediaPage is one page of a media listing.
type MediaPage struct {
	Items []Media `json:"items"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Size  int     `json:"size"`
	Pages int     `json:"pages"`
}
