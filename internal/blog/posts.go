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

// MaxTitleLength is the longest accepted post title, in characters.
const MaxTitleLength = 255

// MaxPageSize caps the size parameter of post listings.
const MaxPageSize = 100

// CreatePostInput holds the fields of a new post. Omitted category and tag
// lists create the post without links.
type CreatePostInput struct {
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Excerpt     *string           `json:"excerpt"`
	Status      models.PostStatus `json:"status"`
	CoverImage  *string           `json:"cover_image"`
	CategoryIDs []uuid.UUID       `json:"category_ids"`
	TagIDs      []uuid.UUID       `json:"tag_ids"`
}

// UpdatePostInput holds a partial post update. Nil fields are left as
// they are; a non-nil empty CategoryIDs or TagIDs clears that set.
type UpdatePostInput struct {
	Title       *string            `json:"title"`
	Content     *string            `json:"content"`
	Excerpt     *string            `json:"excerpt"`
	Status      *models.PostStatus `json:"status"`
	CoverImage  *string            `json:"cover_image"`
	CategoryIDs []uuid.UUID        `json:"category_ids"`
	TagIDs      []uuid.UUID        `json:"tag_ids"`
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", newError(ErrValidation, "Title must not be empty")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", newError(ErrValidation, "Title must be at most %d characters", MaxTitleLength)
	}
	return title, nil
}

// postSlug derives a free slug for title. A taken slug gets a timestamp
// suffix; if that is taken as well the call fails with ErrConflict.
func (s *Service) postSlug(ctx context.Context, st *store.Stores, title string, self *uuid.UUID) (string, error) {
	base := slug.Generate(title)
	if base == "" {
		return "", newError(ErrValidation, "Title must contain letters or digits")
	}

	taken, err := st.Posts.SlugTaken(ctx, base, self)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}

	candidate := slug.WithTimestamp(base, s.now())
	taken, err = st.Posts.SlugTaken(ctx, candidate, self)
	if err != nil {
		return "", err
	}
	if taken {
		return "", newError(ErrConflict, "A post with slug %q already exists", candidate)
	}
	return candidate, nil
}

// loadTaxonomy fills the Categories and Tags of each post.
func loadTaxonomy(ctx context.Context, st *store.Stores, posts []*models.Post) error {
	ids := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	cats, err := st.Categories.ListByPosts(ctx, ids)
	if err != nil {
		return err
	}
	tags, err := st.Tags.ListByPosts(ctx, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		p.Categories = cats[p.ID]
		if p.Categories == nil {
			p.Categories = []models.Category{}
		}
		p.Tags = tags[p.ID]
		if p.Tags == nil {
			p.Tags = []models.Tag{}
		}
	}
	return nil
}

func slugConflict(err error) error {
	if errors.Is(err, store.ErrUniqueViolation) {
		return newError(ErrConflict, "A post with this slug already exists")
	}
	return err
}

// CreatePost creates a post owned by actor together with its category and
// tag sets. Unknown category or tag ids fail the whole call.
func (s *Service) CreatePost(ctx context.Context, actor *models.Actor, in CreatePostInput) (*models.Post, error) {
	if !actor.HasRole(models.RoleAuthor, models.RoleAdmin) {
		return nil, newError(ErrForbidden, "Only authors can create posts")
	}
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = models.PostStatusDraft
	}
	if !in.Status.Valid() {
		return nil, newError(ErrValidation, "Unknown post status %q", in.Status)
	}

	var post *models.Post
	err = s.uow.Do(ctx, func(st *store.Stores) error {
		sl, err := s.postSlug(ctx, st, title, nil)
		if err != nil {
			return err
		}
		post, err = st.Posts.Create(ctx, &models.Post{
			Title:      title,
			Slug:       sl,
			Content:    in.Content,
			Excerpt:    in.Excerpt,
			Status:     in.Status,
			AuthorID:   actor.ID,
			CoverImage: in.CoverImage,
		})
		if err != nil {
			return slugConflict(err)
		}
		if err := setCategories(ctx, st, post.ID, in.CategoryIDs); err != nil {
			return err
		}
		if err := setTags(ctx, st, post.ID, in.TagIDs); err != nil {
			return err
		}
		return loadTaxonomy(ctx, st, []*models.Post{post})
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// UpdatePost applies a partial update on behalf of the post's author or an
// admin. The post fields and both sets change together or not at all.
func (s *Service) UpdatePost(ctx context.Context, actor *models.Actor, id uuid.UUID, in UpdatePostInput) (*models.Post, error) {
	var post *models.Post
	err := s.uow.Do(ctx, func(st *store.Stores) error {
		p, err := st.Posts.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return newError(ErrNotFound, "Post not found")
		}
		if !actor.HasRole(models.RoleAuthor, models.RoleAdmin) || !actor.CanModify(&p.AuthorID) {
			return newError(ErrForbidden, "Not authorized to update this post")
		}

		if in.Title != nil {
			title, err := validateTitle(*in.Title)
			if err != nil {
				return err
			}
			if title != p.Title {
				p.Title = title
				if p.Slug, err = s.postSlug(ctx, st, title, &p.ID); err != nil {
					return err
				}
			}
		}
		if in.Content != nil {
			p.Content = *in.Content
		}
		if in.Excerpt != nil {
			p.Excerpt = in.Excerpt
		}
		if in.Status != nil {
			if !in.Status.Valid() {
				return newError(ErrValidation, "Unknown post status %q", *in.Status)
			}
			p.Status = *in.Status
		}
		if in.CoverImage != nil {
			p.CoverImage = in.CoverImage
		}

		post, err = st.Posts.Update(ctx, p)
		if err != nil {
			return slugConflict(err)
		}
		if in.CategoryIDs != nil {
			if err := setCategories(ctx, st, id, in.CategoryIDs); err != nil {
				return err
			}
		}
		if in.TagIDs != nil {
			if err := setTags(ctx, st, id, in.TagIDs); err != nil {
				return err
			}
		}
		return loadTaxonomy(ctx, st, []*models.Post{post})
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes a post with its comments and links.
func (s *Service) DeletePost(ctx context.Context, actor *models.Actor, id uuid.UUID) error {
	err := s.uow.Do(ctx, func(st *store.Stores) error {
		p, err := st.Posts.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return newError(ErrNotFound, "Post not found")
		}
		if !actor.HasRole(models.RoleAuthor, models.RoleAdmin) || !actor.CanModify(&p.AuthorID) {
			return newError(ErrForbidden, "Not authorized to delete this post")
		}
		_, err = st.Posts.Delete(ctx, id)
		return err
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, id)
	return nil
}

// GetPost returns a post and counts the read. Drafts are visible only to
// their author and admins.
func (s *Service) GetPost(ctx context.Context, actor *models.Actor, id uuid.UUID) (*models.Post, error) {
	st := s.uow.Stores()
	p, err := st.Posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || (!p.IsPublished() && !actor.CanModify(&p.AuthorID)) {
		return nil, newError(ErrNotFound, "Post not found")
	}

	p, err = st.Posts.IncrementViews(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, newError(ErrNotFound, "Post not found")
	}
	if err := loadTaxonomy(ctx, st, []*models.Post{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPostBySlug is GetPost keyed by slug.
func (s *Service) GetPostBySlug(ctx context.Context, actor *models.Actor, sl string) (*models.Post, error) {
	id, err := s.uow.Stores().Posts.FindIDBySlug(ctx, sl)
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, newError(ErrNotFound, "Post not found")
	}
	return s.GetPost(ctx, actor, *id)
}

// ListPosts returns one page of posts with the given status, newest
// first. Published is the default; listing drafts needs the author or
// admin role.
func (s *Service) ListPosts(ctx context.Context, actor *models.Actor, status models.PostStatus, page, size int) (*models.PostPage, error) {
	if status == "" {
		status = models.PostStatusPublished
	}
	if !status.Valid() {
		return nil, newError(ErrValidation, "Unknown post status %q", status)
	}
	if status == models.PostStatusDraft && !actor.HasRole(models.RoleAuthor, models.RoleAdmin) {
		return nil, newError(ErrForbidden, "Not authorized to list drafts")
	}
	if page < 1 {
		return nil, newError(ErrValidation, "page must be at least 1")
	}
	if size < 1 || size > MaxPageSize {
		return nil, newError(ErrValidation, "size must be between 1 and %d", MaxPageSize)
	}

	st := s.uow.Stores()
	total, err := st.Posts.Count(ctx, status)
	if err != nil {
		return nil, err
	}
	items, err := st.Posts.List(ctx, status, size, (page-1)*size)
	if err != nil {
		return nil, err
	}

	ptrs := make([]*models.Post, len(items))
	for i := range items {
		ptrs[i] = &items[i]
	}
	if err := loadTaxonomy(ctx, st, ptrs); err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Post{}
	}

	return &models.PostPage{
		Items: items,
		Total: total,
		Page:  page,
		Size:  size,
		Pages: (total + size - 1) / size,
	}, nil
}
