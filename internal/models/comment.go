// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a remark on a post. AuthorID is nil for anonymous comments
// and for comments whose author account was deleted.
type Comment struct {
	ID        uuid.UUID  `json:"id"`
	PostID    uuid.UUID  `json:"post_id"`
	AuthorID  *uuid.UUID `json:"user_id"`
	Body      string     `json:"content"`
	ParentID  *uuid.UUID `json:"parent_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsRoot returns true if the comment has no parent.
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}

// CommentNode is a comment with its materialized replies.
type CommentNode struct {
	Comment
	Replies []*CommentNode `json:"replies"`
}
