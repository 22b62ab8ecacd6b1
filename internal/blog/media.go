package blog

import (
	"context"

	"github.com/google/uuid"

	"myblog/internal/models"
	"myblog/internal/store"
)

// RecordMedia stores the metadata row of an uploaded file on behalf of
// actor, who becomes its uploader.
func (s *Service) RecordMedia(ctx context.Context, actor *models.Actor, m *models.Media) (*models.Media, error) {
	if actor == nil {
		return nil, newError(ErrUnauthenticated, "Not authenticated")
	}
	m.UploaderID = actor.ID
	return s.uow.Stores().Media.Create(ctx, m)
}

// ListMedia returns one page of media, newest first.
func (s *Service) ListMedia(ctx context.Context, page, size int) (*models.MediaPage, error) {
	if page < 1 {
		return nil, newError(ErrValidation, "page must be at least 1")
	}
	if size < 1 || size > MaxPageSize {
		return nil, newError(ErrValidation, "size must be between 1 and %d", MaxPageSize)
	}

	st := s.uow.Stores()
	total, err := st.Media.Count(ctx)
	if err != nil {
		return nil, err
	}
	items, err := st.Media.List(ctx, size, (page-1)*size)
	if err != nil {
		return nil, err
	}

	return &models.MediaPage{
		Items: items,
		Total: total,
		Page:  page,
		Size:  size,
		Pages: (total + size - 1) / size,
	}, nil
}

// GetMedia returns a single media record.
func (s *Service) GetMedia(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	m, err := s.uow.Stores().Media.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, newError(ErrNotFound, "Media not found")
	}
	return m, nil
}

// DeleteMedia removes a media record on behalf of its uploader or an
// admin and returns the deleted row so the caller can remove the stored
// objects.
func (s *Service) DeleteMedia(ctx context.Context, actor *models.Actor, id uuid.UUID) (*models.Media, error) {
	var deleted *models.Media
	err := s.uow.Do(ctx, func(st *store.Stores) error {
		m, err := st.Media.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return newError(ErrNotFound, "Media not found")
		}
		if !actor.CanModify(&m.UploaderID) {
			return newError(ErrForbidden, "Not authorized to delete this media")
		}

		deleted, err = st.Media.Delete(ctx, id)
		if err != nil {
			return err
		}
		if deleted == nil {
			return newError(ErrNotFound, "Media not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
