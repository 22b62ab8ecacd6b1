package blog

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"myblog/internal/models"
	"myblog/internal/store"
)

// MaxCommentLength is the longest accepted comment body, in characters.
const MaxCommentLength = 10000

// CreateCommentInput holds the fields of a new comment.
type CreateCommentInput struct {
	PostID   uuid.UUID  `json:"post_id"`
	ParentID *uuid.UUID `json:"parent_id"`
	Body     string     `json:"content"`
}

// CreateComment adds a comment to a post. A nil actor creates an
// anonymous comment.
func (s *Service) CreateComment(ctx context.Context, actor *models.Actor, in CreateCommentInput) (*models.Comment, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, newError(ErrValidation, "Comment content must not be empty")
	}
	if utf8.RuneCountInString(body) > MaxCommentLength {
		return nil, newError(ErrValidation, "Comment content must be at most %d characters", MaxCommentLength)
	}

	var created *models.Comment
	err := s.uow.Do(ctx, func(st *store.Stores) error {
		if err := requirePost(ctx, st, in.PostID); err != nil {
			return err
		}
		if in.ParentID != nil {
			parent, err := st.Comments.FindByID(ctx, *in.ParentID)
			if err != nil {
				return err
			}
			if parent == nil || parent.PostID != in.PostID {
				return newError(ErrInvalidReference, "Parent comment not found on this post")
			}
		}

		c := &models.Comment{
			PostID:    in.PostID,
			ParentID:  in.ParentID,
			Body:      body,
			CreatedAt: s.now(),
		}
		if actor != nil {
			id := actor.ID
			c.AuthorID = &id
		}

		var err error
		created, err = st.Comments.Create(ctx, c)
		if errors.Is(err, store.ErrForeignKeyViolation) {
			if store.ConstraintName(err) == "comments_post_id_fkey" {
				return newError(ErrNotFound, "Post not found")
			}
			return newError(ErrInvalidReference, "Parent comment not found on this post")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, in.PostID)
	return created, nil
}

// ListCommentTree returns the root comments of a post with their nested
// replies. An unknown post yields an empty list.
func (s *Service) ListCommentTree(ctx context.Context, postID uuid.UUID) ([]*models.CommentNode, error) {
	tree, gen, ok := s.cache.Get(ctx, postID)
	if ok {
		return tree, nil
	}

	comments, err := s.uow.Stores().Comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	tree = BuildTree(comments)
	s.cache.Set(ctx, postID, gen, tree)
	return tree, nil
}

// DeleteComment removes a comment on behalf of its author or an admin.
// Replies are handled according to the configured DeletePolicy.
func (s *Service) DeleteComment(ctx context.Context, actor *models.Actor, id uuid.UUID) error {
	var postID uuid.UUID
	err := s.uow.Do(ctx, func(st *store.Stores) error {
		c, err := st.Comments.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return newError(ErrNotFound, "Comment not found")
		}
		if !actor.CanModify(c.AuthorID) {
			return newError(ErrForbidden, "Not authorized to delete this comment")
		}
		postID = c.PostID

		if s.deletePolicy == DeleteCascade {
			_, err := st.Comments.DeleteSubtree(ctx, id)
			return err
		}
		err = st.Comments.Delete(ctx, id)
		if errors.Is(err, store.ErrForeignKeyViolation) {
			return newError(ErrConflict, "Comment has replies and cannot be deleted")
		}
		return err
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, postID)
	return nil
}
