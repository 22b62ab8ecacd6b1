package blog

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"myblog/internal/store"
)

// existsFunc returns the subset of ids that refer to existing rows.
type existsFunc func(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)

// dedupe returns ids without repeats, keeping first occurrences in order.
func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// diff returns the ids to add and remove to turn current into desired.
func diff(current, desired []uuid.UUID) (add, remove []uuid.UUID) {
	have := make(map[uuid.UUID]bool, len(current))
	for _, id := range current {
		have[id] = true
	}
	want := make(map[uuid.UUID]bool, len(desired))
	for _, id := range desired {
		want[id] = true
		if !have[id] {
			add = append(add, id)
		}
	}
	for _, id := range current {
		if !want[id] {
			remove = append(remove, id)
		}
	}
	return add, remove
}

// replaceSet makes the post's links in link equal exactly desired.
// Unknown ids fail the call with ErrInvalidReference before anything is
// written; the caller's transaction discards any partial effect.
func replaceSet(ctx context.Context, link *store.AssociationStore, exists existsFunc, noun string, postID uuid.UUID, desired []uuid.UUID) error {
	desired = dedupe(desired)

	found, err := exists(ctx, desired)
	if err != nil {
		return err
	}
	if len(found) != len(desired) {
		known := make(map[uuid.UUID]bool, len(found))
		for _, id := range found {
			known[id] = true
		}
		for _, id := range desired {
			if !known[id] {
				return newError(ErrInvalidReference, "%s %s does not exist", noun, id)
			}
		}
	}

	current, err := link.IDs(ctx, postID)
	if err != nil {
		return err
	}
	add, remove := diff(current, desired)
	if err := link.Remove(ctx, postID, remove); err != nil {
		return err
	}
	if err := link.Add(ctx, postID, add); err != nil {
		if errors.Is(err, store.ErrForeignKeyViolation) {
			return newError(ErrInvalidReference, "%s was deleted concurrently", noun)
		}
		return err
	}
	return nil
}

func setCategories(ctx context.Context, s *store.Stores, postID uuid.UUID, ids []uuid.UUID) error {
	return replaceSet(ctx, s.PostCategories, s.Categories.FindExisting, "category", postID, ids)
}

func setTags(ctx context.Context, s *store.Stores, postID uuid.UUID, ids []uuid.UUID) error {
	return replaceSet(ctx, s.PostTags, s.Tags.FindExisting, "tag", postID, ids)
}

// SetCategories replaces the category set of a post in its own
// transaction.
func (s *Service) SetCategories(ctx context.Context, postID uuid.UUID, ids []uuid.UUID) error {
	return s.uow.Do(ctx, func(st *store.Stores) error {
		if err := requirePost(ctx, st, postID); err != nil {
			return err
		}
		return setCategories(ctx, st, postID, ids)
	})
}

// SetTags replaces the tag set of a post in its own transaction.
func (s *Service) SetTags(ctx context.Context, postID uuid.UUID, ids []uuid.UUID) error {
	return s.uow.Do(ctx, func(st *store.Stores) error {
		if err := requirePost(ctx, st, postID); err != nil {
			return err
		}
		return setTags(ctx, st, postID, ids)
	})
}

func requirePost(ctx context.Context, st *store.Stores, postID uuid.UUID) error {
	ok, err := st.Posts.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !ok {
		return newError(ErrNotFound, "Post not found")
	}
	return nil
}
