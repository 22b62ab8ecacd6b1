// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"myblog/internal/models"
)

// PostStore handles post rows. Category and tag links live in
// AssociationStore.
type PostStore struct {
	db DBTX
}

// NewPostStore creates a new PostStore with the given database handle.
func NewPostStore(db DBTX) *PostStore {
	return &PostStore{db: db}
}

const postColumns = `id, title, slug, content, excerpt, status, author_id,
	cover_image, view_count, created_at, updated_at`

func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.Status, &p.AuthorID,
		&p.CoverImage, &p.ViewCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByID retrieves a post by its UUID. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// Exists reports whether a post with the given ID exists.
func (s *PostStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("post exists: %w", err)
	}
	return exists, nil
}

// SlugTaken reports whether slug is used by a post other than exclude.
func (s *PostStore) SlugTaken(ctx context.Context, slug string, exclude *uuid.UUID) (bool, error) {
	var taken bool
	var err error
	if exclude == nil {
		err = s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1)`, slug).Scan(&taken)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)`, slug, *exclude).Scan(&taken)
	}
	if err != nil {
		return false, fmt.Errorf("post slug taken: %w", err)
	}
	return taken, nil
}

// Create inserts a new post and returns it with the generated ID.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO posts (title, slug, content, excerpt, status, author_id, cover_image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+postColumns,
		p.Title, p.Slug, p.Content, p.Excerpt, p.Status, p.AuthorID, p.CoverImage,
	)
	created, err := scanPost(row)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", classify(err))
	}
	return created, nil
}

// Update writes the editable fields of p and returns the stored row.
func (s *PostStore) Update(ctx context.Context, p *models.Post) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE posts SET
			title = $1, slug = $2, content = $3, excerpt = $4, status = $5,
			cover_image = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING `+postColumns,
		p.Title, p.Slug, p.Content, p.Excerpt, p.Status, p.CoverImage, p.ID,
	)
	updated, err := scanPost(row)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", classify(err))
	}
	return updated, nil
}

// IncrementViews atomically bumps view_count and returns the updated post,
// or nil if the post does not exist.
func (s *PostStore) IncrementViews(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE posts SET view_count = view_count + 1 WHERE id = $1
		RETURNING `+postColumns, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("increment post views: %w", err)
	}
	return p, nil
}

// FindIDBySlug returns the ID of the post with the given slug, or nil.
func (s *PostStore) FindIDBySlug(ctx context.Context, slug string) (*uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `SELECT id FROM posts WHERE slug = $1`, slug).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post id by slug: %w", err)
	}
	return &id, nil
}

// Delete removes a post and, through ON DELETE CASCADE, its comments and
// taxonomy links. Returns false if no post had that ID.
func (s *PostStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	return n > 0, nil
}

// List returns posts with the given status, newest first.
func (s *PostStore) List(ctx context.Context, status models.PostStatus, limit, offset int) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var items []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// Count returns the number of posts with the given status.
func (s *PostStore) Count(ctx context.Context, status models.PostStatus) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}
