package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// AssociationStore manages one post join table. Rows are pure
// (post_id, other_id) pairs with a composite primary key.
type AssociationStore struct {
	db     DBTX
	table  string
	column string
}

// NewPostCategoryStore returns the store for post_categories.
func NewPostCategoryStore(db DBTX) *AssociationStore {
	return &AssociationStore{db: db, table: "post_categories", column: "category_id"}
}

// NewPostTagStore returns the store for post_tags.
func NewPostTagStore(db DBTX) *AssociationStore {
	return &AssociationStore{db: db, table: "post_tags", column: "tag_id"}
}

// IDs returns the ids currently linked to postID.
func (s *AssociationStore) IDs(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+s.column+` FROM `+s.table+` WHERE post_id = $1`, postID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table, err)
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.table, err)
	}
	return ids, nil
}

// Add links ids to postID. Pairs that already exist are left alone.
func (s *AssociationStore) Add(ctx context.Context, postID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, postID)
	args = append(args, uuidArgs(ids)...)

	query := `INSERT INTO ` + s.table + ` (post_id, ` + s.column + `)
		SELECT $1, v.id FROM (VALUES ` + valueRows(2, len(ids)) + `) AS v(id)
		ON CONFLICT DO NOTHING`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("add %s: %w", s.table, classify(err))
	}
	return nil
}

// Remove unlinks ids from postID.
func (s *AssociationStore) Remove(ctx context.Context, postID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, postID)
	args = append(args, uuidArgs(ids)...)

	query := `DELETE FROM ` + s.table + ` WHERE post_id = $1 AND ` +
		s.column + ` IN (` + placeholders(2, len(ids)) + `)`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("remove %s: %w", s.table, err)
	}
	return nil
}

// valueRows returns "($start::uuid), ($start+1::uuid), ..." for a VALUES
// list of n single-column rows.
func valueRows(start, n int) string {
	out := make([]byte, 0, n*12)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ", "...)
		}
		out = append(out, '(')
		out = append(out, placeholders(start+i, 1)...)
		out = append(out, "::uuid)"...)
	}
	return string(out)
}
