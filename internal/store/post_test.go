package store

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"myblog/internal/models"
)

func TestPostStoreCreateAndFind(t *testing.T) {
	db := testDB(t)
	author := testUser(t, db, models.RoleAuthor)
	p := testPost(t, db, author)

	got, err := NewPostStore(db).FindByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got == nil || got.Slug != p.Slug || got.ViewCount != 0 {
		t.Fatalf("unexpected post: %+v", got)
	}

	id, err := NewPostStore(db).FindIDBySlug(context.Background(), p.Slug)
	if err != nil || id == nil || *id != p.ID {
		t.Fatalf("FindIDBySlug: %v, %v", err, id)
	}
}

func TestPostStoreSlugTaken(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	ctx := context.Background()
	p := testPost(t, db, testUser(t, db, models.RoleAuthor))

	taken, err := s.SlugTaken(ctx, p.Slug, nil)
	if err != nil || !taken {
		t.Fatalf("SlugTaken: %v, %v", err, taken)
	}
	taken, err = s.SlugTaken(ctx, p.Slug, &p.ID)
	if err != nil || taken {
		t.Fatalf("SlugTaken excluding self: %v, %v", err, taken)
	}
}

func TestPostStoreUpdate(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	p := testPost(t, db, testUser(t, db, models.RoleAuthor))

	p.Title = "Renamed"
	p.Status = models.PostStatusPublished
	updated, err := s.Update(context.Background(), p)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Renamed" || !updated.IsPublished() {
		t.Errorf("unexpected post: %+v", updated)
	}
}

func TestPostStoreIncrementViewsConcurrent(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	p := testPost(t, db, testUser(t, db, models.RoleAuthor))

	const n = 20
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.IncrementViews(context.Background(), p.ID); err != nil {
				t.Errorf("IncrementViews: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.FindByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.ViewCount != n {
		t.Errorf("view_count: got %d, want %d", got.ViewCount, n)
	}

	missing, err := s.IncrementViews(context.Background(), uuid.New())
	if err != nil || missing != nil {
		t.Errorf("IncrementViews unknown post: %v, %v", err, missing)
	}
}

func TestPostStoreDeleteCascades(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	author := testUser(t, db, models.RoleAuthor)
	p := testPost(t, db, author)

	root, err := NewCommentStore(db).Create(ctx, &models.Comment{PostID: p.ID, Body: "root", CreatedAt: p.CreatedAt})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if _, err := NewCommentStore(db).Create(ctx, &models.Comment{PostID: p.ID, Body: "reply", ParentID: &root.ID, CreatedAt: p.CreatedAt}); err != nil {
		t.Fatalf("create reply: %v", err)
	}

	ok, err := NewPostStore(db).Delete(ctx, p.ID)
	if err != nil || !ok {
		t.Fatalf("Delete: %v, %v", err, ok)
	}
	comments, err := NewCommentStore(db).ListByPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListByPost: %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("expected comments to cascade, got %d", len(comments))
	}

	ok, err = NewPostStore(db).Delete(ctx, p.ID)
	if err != nil || ok {
		t.Errorf("second Delete: %v, %v", err, ok)
	}
}
