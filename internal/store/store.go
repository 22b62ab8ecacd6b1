// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access methods for all MyBlog entities.
// Each store struct wraps a DBTX (a pool or a transaction) and exposes
// typed query methods. Find* methods return (nil, nil) when no row matches.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the query surface shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Constraint violations reported by PostgreSQL, classified so callers can
// branch with errors.Is without importing the driver.
var (
	ErrUniqueViolation     = errors.New("unique violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
)

const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
)

// classify wraps constraint errors with the matching sentinel. Other
// errors are returned unchanged.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case sqlStateUniqueViolation:
		return fmt.Errorf("%w (%s): %w", ErrUniqueViolation, pgErr.ConstraintName, err)
	case sqlStateForeignKeyViolation:
		return fmt.Errorf("%w (%s): %w", ErrForeignKeyViolation, pgErr.ConstraintName, err)
	}
	return err
}

// ConstraintName returns the name of the violated constraint, or "" if err
// is not a PostgreSQL constraint error.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// Stores groups every store bound to the same DBTX.
type Stores struct {
	Users          *UserStore
	Posts          *PostStore
	Categories     *CategoryStore
	Tags           *TagStore
	PostCategories *AssociationStore
	PostTags       *AssociationStore
	Comments       *CommentStore
	Media          *MediaStore
}

// NewStores binds a full set of stores to q.
func NewStores(q DBTX) *Stores {
	return &Stores{
		Users:          NewUserStore(q),
		Posts:          NewPostStore(q),
		Categories:     NewCategoryStore(q),
		Tags:           NewTagStore(q),
		PostCategories: NewPostCategoryStore(q),
		PostTags:       NewPostTagStore(q),
		Comments:       NewCommentStore(q),
		Media:          NewMediaStore(q),
	}
}

// UnitOfWork hands out stores bound either to the pool or to a single
// transaction.
type UnitOfWork struct {
	db   *sql.DB
	pool *Stores
}

// NewUnitOfWork creates a UnitOfWork over the given pool.
func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db, pool: NewStores(db)}
}

// Stores returns stores that run each statement in its own implicit
// transaction. Use for reads and single-statement writes.
func (u *UnitOfWork) Stores() *Stores {
	return u.pool
}

// Do runs fn inside one READ COMMITTED transaction. The transaction is
// committed if fn returns nil and rolled back otherwise; fn's error is
// returned as-is.
func (u *UnitOfWork) Do(ctx context.Context, fn func(s *Stores) error) error {
	tx, err := u.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(NewStores(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", classify(err))
	}
	return nil
}

// placeholders returns "$start, $start+1, ..." for n parameters.
func placeholders(start, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(start + i))
	}
	return b.String()
}

// uuidArgs converts ids to query arguments.
func uuidArgs(ids []uuid.UUID) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// scanIDs collects a single UUID column from rows.
func scanIDs(rows *sql.Rows) ([]uuid.UUID, error) {
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
