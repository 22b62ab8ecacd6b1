package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"myblog/internal/models"
)

// TagStore manages tags in the database.
type TagStore struct {
	db DBTX
}

// NewTagStore returns a new TagStore.
func NewTagStore(db DBTX) *TagStore {
	return &TagStore{db: db}
}

const tagColumns = `id, name, slug`

func scanTag(scanner interface{ Scan(...any) error }) (*models.Tag, error) {
	var t models.Tag
	if err := scanner.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns all tags ordered by name.
func (s *TagStore) List(ctx context.Context) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+tagColumns+` FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	items := []models.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// FindByID retrieves a tag by ID. Returns nil if not found.
func (s *TagStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = $1`, id)
	t, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag by id: %w", err)
	}
	return t, nil
}

// FindExisting returns the subset of ids that name existing tags.
func (s *TagStore) FindExisting(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM tags WHERE id IN (`+placeholders(1, len(ids))+`)`, uuidArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("find existing tags: %w", err)
	}
	found, err := scanIDs(rows)
	if err != nil {
		return nil, fmt.Errorf("scan tag ids: %w", err)
	}
	return found, nil
}

// Taken reports whether name or slug is used by a tag other than exclude.
func (s *TagStore) Taken(ctx context.Context, name, slug string, exclude *uuid.UUID) (bool, error) {
	var taken bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM tags
			WHERE (name = $1 OR slug = $2) AND ($3::uuid IS NULL OR id <> $3::uuid)
		)`, name, slug, exclude).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("tag taken: %w", err)
	}
	return taken, nil
}

// Create inserts a new tag and returns it.
func (s *TagStore) Create(ctx context.Context, t *models.Tag) (*models.Tag, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO tags (name, slug) VALUES ($1, $2)
		RETURNING `+tagColumns, t.Name, t.Slug)
	result, err := scanTag(row)
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", classify(err))
	}
	return result, nil
}

// Update renames a tag and returns the stored row, or nil if it does not
// exist.
func (s *TagStore) Update(ctx context.Context, t *models.Tag) (*models.Tag, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE tags SET name = $1, slug = $2 WHERE id = $3
		RETURNING `+tagColumns, t.Name, t.Slug, t.ID)
	result, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update tag: %w", classify(err))
	}
	return result, nil
}

// Delete removes a tag by ID. Returns false if no tag had that ID.
func (s *TagStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete tag: %w", err)
	}
	return n > 0, nil
}

// ListByPosts returns the tags linked to each of the given posts, ordered
// by name.
func (s *TagStore) ListByPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]models.Tag, error) {
	out := make(map[uuid.UUID][]models.Tag, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT pt.post_id, t.id, t.name, t.slug
		FROM post_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id IN (`+placeholders(1, len(postIDs))+`)
		ORDER BY t.name`, uuidArgs(postIDs)...)
	if err != nil {
		return nil, fmt.Errorf("list tags by posts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID uuid.UUID
		var t models.Tag
		if err := rows.Scan(&postID, &t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("scan post tag: %w", err)
		}
		out[postID] = append(out[postID], t)
	}
	return out, rows.Err()
}
