package blog

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"myblog/internal/models"
	"myblog/internal/slug"
	"myblog/internal/store"
)

// MaxTaxonomyNameLength bounds category and tag names and their slugs.
const MaxTaxonomyNameLength = 50

// CategoryInput holds the editable fields of a category.
type CategoryInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// TagInput holds the editable fields of a tag.
type TagInput struct {
	Name string `json:"name"`
}

// taxonomyName validates a category or tag name and derives its slug.
func taxonomyName(noun, name string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", newError(ErrValidation, "%s name must not be empty", noun)
	}
	if utf8.RuneCountInString(name) > MaxTaxonomyNameLength {
		return "", "", newError(ErrValidation, "%s name must be at most %d characters", noun, MaxTaxonomyNameLength)
	}
	sl := slug.Generate(name)
	if sl == "" {
		return "", "", newError(ErrValidation, "%s name must contain letters or digits", noun)
	}
	if len(sl) > MaxTaxonomyNameLength {
		return "", "", newError(ErrValidation, "%s slug %q is too long", noun, sl)
	}
	return name, sl, nil
}

func taxonomyConflict(noun string, err error) error {
	if errors.Is(err, store.ErrUniqueViolation) {
		return newError(ErrConflict, "%s with this name already exists", noun)
	}
	return err
}

func canEditTaxonomy(actor *models.Actor) error {
	if !actor.HasRole(models.RoleAuthor, models.RoleAdmin) {
		return newError(ErrForbidden, "Only authors can manage categories and tags")
	}
	return nil
}

func canDeleteTaxonomy(actor *models.Actor) error {
	if !actor.HasRole(models.RoleAdmin) {
		return newError(ErrForbidden, "Only admins can delete categories and tags")
	}
	return nil
}

// ListCategories returns all categories ordered by name.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.uow.Stores().Categories.List(ctx)
}

// GetCategory returns one category.
func (s *Service) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := s.uow.Stores().Categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, newError(ErrNotFound, "Category not found")
	}
	return c, nil
}

// CreateCategory adds a category. A name or slug already in use fails
// with ErrConflict.
func (s *Service) CreateCategory(ctx context.Context, actor *models.Actor, in CategoryInput) (*models.Category, error) {
	if err := canEditTaxonomy(actor); err != nil {
		return nil, err
	}
	name, sl, err := taxonomyName("Category", in.Name)
	if err != nil {
		return nil, err
	}

	var created *models.Category
	err = s.uow.Do(ctx, func(st *store.Stores) error {
		taken, err := st.Categories.Taken(ctx, name, sl, nil)
		if err != nil {
			return err
		}
		if taken {
			return newError(ErrConflict, "Category with this name already exists")
		}
		created, err = st.Categories.Create(ctx, &models.Category{Name: name, Slug: sl, Description: in.Description})
		return taxonomyConflict("Category", err)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateCategory renames a category and replaces its description.
func (s *Service) UpdateCategory(ctx context.Context, actor *models.Actor, id uuid.UUID, in CategoryInput) (*models.Category, error) {
	if err := canEditTaxonomy(actor); err != nil {
		return nil, err
	}
	name, sl, err := taxonomyName("Category", in.Name)
	if err != nil {
		return nil, err
	}

	var updated *models.Category
	err = s.uow.Do(ctx, func(st *store.Stores) error {
		taken, err := st.Categories.Taken(ctx, name, sl, &id)
		if err != nil {
			return err
		}
		if taken {
			return newError(ErrConflict, "Category with this name already exists")
		}
		updated, err = st.Categories.Update(ctx, &models.Category{ID: id, Name: name, Slug: sl, Description: in.Description})
		if err != nil {
			return taxonomyConflict("Category", err)
		}
		if updated == nil {
			return newError(ErrNotFound, "Category not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteCategory removes a category and unlinks it from every post.
func (s *Service) DeleteCategory(ctx context.Context, actor *models.Actor, id uuid.UUID) error {
	if err := canDeleteTaxonomy(actor); err != nil {
		return err
	}
	ok, err := s.uow.Stores().Categories.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return newError(ErrNotFound, "Category not found")
	}
	return nil
}

// ListTags returns all tags ordered by name.
func (s *Service) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.uow.Stores().Tags.List(ctx)
}

// GetTag returns one tag.
func (s *Service) GetTag(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	t, err := s.uow.Stores().Tags.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, newError(ErrNotFound, "Tag not found")
	}
	return t, nil
}

// CreateTag adds a tag. A name or slug already in use fails with
// ErrConflict.
func (s *Service) CreateTag(ctx context.Context, actor *models.Actor, in TagInput) (*models.Tag, error) {
	if err := canEditTaxonomy(actor); err != nil {
		return nil, err
	}
	name, sl, err := taxonomyName("Tag", in.Name)
	if err != nil {
		return nil, err
	}

	var created *models.Tag
	err = s.uow.Do(ctx, func(st *store.Stores) error {
		taken, err := st.Tags.Taken(ctx, name, sl, nil)
		if err != nil {
			return err
		}
		if taken {
			return newError(ErrConflict, "Tag with this name already exists")
		}
		created, err = st.Tags.Create(ctx, &models.Tag{Name: name, Slug: sl})
		return taxonomyConflict("Tag", err)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateTag renames a tag.
func (s *Service) UpdateTag(ctx context.Context, actor *models.Actor, id uuid.UUID, in TagInput) (*models.Tag, error) {
	if err := canEditTaxonomy(actor); err != nil {
		return nil, err
	}
	name, sl, err := taxonomyName("Tag", in.Name)
	if err != nil {
		return nil, err
	}

	var updated *models.Tag
	err = s.uow.Do(ctx, func(st *store.Stores) error {
		taken, err := st.Tags.Taken(ctx, name, sl, &id)
		if err != nil {
			return err
		}
		if taken {
			return newError(ErrConflict, "Tag with this name already exists")
		}
		updated, err = st.Tags.Update(ctx, &models.Tag{ID: id, Name: name, Slug: sl})
		if err != nil {
			return taxonomyConflict("Tag", err)
		}
		if updated == nil {
			return newError(ErrNotFound, "Tag not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTag removes a tag and unlinks it from every post.
func (s *Service) DeleteTag(ctx context.Context, actor *models.Actor, id uuid.UUID) error {
	if err := canDeleteTaxonomy(actor); err != nil {
		return err
	}
	ok, err := s.uow.Stores().Tags.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return newError(ErrNotFound, "Tag not found")
	}
	return nil
}
