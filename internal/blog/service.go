// Package blog implements the posting rules of MyBlog: comment trees,
// post lifecycle with category and tag sets, and taxonomy management.
// Every mutating method runs as one unit of work on a single transaction.
package blog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"myblog/internal/models"
	"myblog/internal/store"
)

// DeletePolicy controls what happens when a comment with replies is
// deleted.
type DeletePolicy string

const (
	// DeleteRestrict refuses to delete a comment that has replies.
	DeleteRestrict DeletePolicy = "restrict"
	// DeleteCascade removes the comment together with its whole subtree.
	DeleteCascade DeletePolicy = "cascade"
)

// ParseDeletePolicy converts a configuration value into a DeletePolicy.
// An empty string selects DeleteRestrict.
func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch DeletePolicy(s) {
	case "", DeleteRestrict:
		return DeleteRestrict, nil
	case DeleteCascade:
		return DeleteCascade, nil
	}
	return "", fmt.Errorf("unknown comment delete policy %q", s)
}

// TreeCache stores materialized comment trees per post. Implementations
// must tolerate their own failures; a miss is always safe.
//
// Get reports, on a miss, the generation the caller must pass to Set. Set
// stores the tree only if no Invalidate happened in between.
type TreeCache interface {
	Get(ctx context.Context, postID uuid.UUID) (tree []*models.CommentNode, gen int64, ok bool)
	Set(ctx context.Context, postID uuid.UUID, gen int64, tree []*models.CommentNode)
	Invalidate(ctx context.Context, postID uuid.UUID)
}

type noCache struct{}

func (noCache) Get(context.Context, uuid.UUID) ([]*models.CommentNode, int64, bool) { return nil, -1, false }
func (noCache) Set(context.Context, uuid.UUID, int64, []*models.CommentNode)        {}
func (noCache) Invalidate(context.Context, uuid.UUID)                               {}

// Service carries the blog's business rules.
type Service struct {
	uow          *store.UnitOfWork
	cache        TreeCache
	deletePolicy DeletePolicy
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTreeCache enables caching of comment trees.
func WithTreeCache(c TreeCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithDeletePolicy selects how comments with replies are deleted.
func WithDeletePolicy(p DeletePolicy) Option {
	return func(s *Service) { s.deletePolicy = p }
}

// WithClock overrides the time source used for timestamps and slug
// suffixes.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service over the given connection pool.
func NewService(db *sql.DB, opts ...Option) *Service {
	s := &Service{
		uow:          store.NewUnitOfWork(db),
		cache:        noCache{},
		deletePolicy: DeleteRestrict,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	slog.Debug("blog service ready", "comment_delete_policy", s.deletePolicy)
	return s
}

// Stores exposes the pool-bound stores for plain reads outside the
// service rules, such as session lookups and media listings.
func (s *Service) Stores() *store.Stores {
	return s.uow.Stores()
}
