package blog

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"myblog/internal/database"
	"myblog/internal/models"
	"myblog/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB connects to the test database and applies migrations, skipping
// the test when PostgreSQL is unreachable.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := "postgres://" + envOr("POSTGRES_USER", "myblog") + ":" + envOr("POSTGRES_PASSWORD", "changeme") +
		"@" + envOr("POSTGRES_HOST", "localhost") + ":" + envOr("POSTGRES_PORT", "5432") +
		"/" + envOr("POSTGRES_DB", "myblog") + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

type fixture struct {
	db     *sql.DB
	svc    *Service
	author *models.Actor
	reader *models.Actor
	admin  *models.Actor
}

func (f *fixture) user(t *testing.T, role models.Role) *models.Actor {
	t.Helper()
	name := "bt-" + uuid.NewString()[:8]
	u, err := store.NewUserStore(f.db).Create(context.Background(), name, name+"@blog-test.local", "password", role)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() {
		f.db.Exec("DELETE FROM posts WHERE author_id = $1", u.ID)
		f.db.Exec("DELETE FROM users WHERE id = $1", u.ID)
	})
	return &models.Actor{ID: u.ID, Role: u.Role}
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	f := &fixture{db: testDB(t)}
	f.svc = NewService(f.db, opts...)
	f.author = f.user(t, models.RoleAuthor)
	f.reader = f.user(t, models.RoleUser)
	f.admin = f.user(t, models.RoleAdmin)
	return f
}

func (f *fixture) post(t *testing.T, in CreatePostInput) *models.Post {
	t.Helper()
	if in.Title == "" {
		in.Title = "Post " + uuid.NewString()
	}
	p, err := f.svc.CreatePost(context.Background(), f.author, in)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return p
}

func (f *fixture) category(t *testing.T) *models.Category {
	t.Helper()
	c, err := f.svc.CreateCategory(context.Background(), f.author, CategoryInput{Name: "c " + uuid.NewString()[:8]})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	t.Cleanup(func() { f.db.Exec("DELETE FROM categories WHERE id = $1", c.ID) })
	return c
}

func (f *fixture) categoryIDs(t *testing.T, postID uuid.UUID) map[uuid.UUID]bool {
	t.Helper()
	ids, err := store.NewPostCategoryStore(f.db).IDs(context.Background(), postID)
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}
	out := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if out[id] {
			t.Fatalf("duplicate association %s", id)
		}
		out[id] = true
	}
	return out
}

func TestCommentTreeRoundTrip(t *testing.T) {
	base := time.Now().Truncate(time.Second)
	tick := base
	f := newFixture(t, WithClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}))
	ctx := context.Background()
	p := f.post(t, CreatePostInput{})

	c1, err := f.svc.CreateComment(ctx, f.reader, CreateCommentInput{PostID: p.ID, Body: "first"})
	if err != nil {
		t.Fatalf("create c1: %v", err)
	}
	c2, err := f.svc.CreateComment(ctx, nil, CreateCommentInput{PostID: p.ID, Body: "second"})
	if err != nil {
		t.Fatalf("create c2: %v", err)
	}
	c3, err := f.svc.CreateComment(ctx, f.author, CreateCommentInput{PostID: p.ID, ParentID: &c1.ID, Body: "reply"})
	if err != nil {
		t.Fatalf("create c3: %v", err)
	}

	tree, err := f.svc.ListCommentTree(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListCommentTree: %v", err)
	}
	if len(tree) != 2 || tree[0].ID != c2.ID || tree[1].ID != c1.ID {
		t.Fatalf("roots: got %v, want [c2 c1]", ids(tree))
	}
	if len(tree[1].Replies) != 1 || tree[1].Replies[0].ID != c3.ID {
		t.Fatalf("c1 replies: got %v, want [c3]", ids(tree[1].Replies))
	}
	if c2.AuthorID != nil {
		t.Error("anonymous comment should have no author")
	}
}

func TestCreateCommentErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1 := f.post(t, CreatePostInput{})
	p2 := f.post(t, CreatePostInput{})

	other, err := f.svc.CreateComment(ctx, f.reader, CreateCommentInput{PostID: p2.ID, Body: "on p2"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.svc.CreateComment(ctx, f.reader, CreateCommentInput{PostID: p1.ID, ParentID: &other.ID, Body: "cross"})
	if !errors.Is(err, ErrInvalidReference) {
		t.Errorf("cross-post parent: got %v, want ErrInvalidReference", err)
	}
	missing := uuid.New()
	_, err = f.svc.CreateComment(ctx, f.reader, CreateCommentInput{PostID: p1.ID, ParentID: &missing, Body: "x"})
	if !errors.Is(err, ErrInvalidReference) {
		t.Errorf("missing parent: got %v, want ErrInvalidReference", err)
	}
	_, err = f.svc.CreateComment(ctx, f.reader, CreateCommentInput{PostID: uuid.New(), Body: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing post: got %v, want ErrNotFound", err)
	}
}

func TestSetCategoriesReplaceAndAtomicity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.category(t), f.category(t)
	p := f.post(t, CreatePostInput{})

	for i := range 2 {
		if err := f.svc.SetCategories(ctx, p.ID, []uuid.UUID{a.ID, b.ID, a.ID}); err != nil {
			t.Fatalf("SetCategories #%d: %v", i, err)
		}
		got := f.categoryIDs(t, p.ID)
		if len(got) != 2 || !got[a.ID] || !got[b.ID] {
			t.Fatalf("after call #%d: got %v", i, got)
		}
	}

	err := f.svc.SetCategories(ctx, p.ID, []uuid.UUID{a.ID, uuid.New()})
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("got %v, want ErrInvalidReference", err)
	}
	if got := f.categoryIDs(t, p.ID); len(got) != 2 || !got[a.ID] || !got[b.ID] {
		t.Errorf("set changed after failed call: %v", got)
	}
}

func TestUpdatePostIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.category(t)
	p := f.post(t, CreatePostInput{CategoryIDs: []uuid.UUID{a.ID}})

	title := "Should not stick " + uuid.NewString()
	_, err := f.svc.UpdatePost(ctx, f.author, p.ID, UpdatePostInput{
		Title:       &title,
		CategoryIDs: []uuid.UUID{},
		TagIDs:      []uuid.UUID{uuid.New()},
	})
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("got %v, want ErrInvalidReference", err)
	}

	got, err := store.NewPostStore(f.db).FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Title != p.Title || got.Slug != p.Slug {
		t.Errorf("post fields changed: %+v", got)
	}
	if ids := f.categoryIDs(t, p.ID); !ids[a.ID] {
		t.Error("category set changed after failed update")
	}
}

func TestUpdatePostNilLeavesSetsAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.category(t)
	p := f.post(t, CreatePostInput{CategoryIDs: []uuid.UUID{a.ID}})

	content := "edited"
	updated, err := f.svc.UpdatePost(ctx, f.author, p.ID, UpdatePostInput{Content: &content})
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	if len(updated.Categories) != 1 || updated.Categories[0].ID != a.ID {
		t.Errorf("categories: got %+v", updated.Categories)
	}

	updated, err = f.svc.UpdatePost(ctx, f.author, p.ID, UpdatePostInput{CategoryIDs: []uuid.UUID{}})
	if err != nil {
		t.Fatalf("UpdatePost clear: %v", err)
	}
	if len(updated.Categories) != 0 {
		t.Errorf("expected cleared categories, got %+v", updated.Categories)
	}
}

func TestPostOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.post(t, CreatePostInput{})
	otherAuthor := f.user(t, models.RoleAuthor)

	title := "Hijacked"
	if _, err := f.svc.UpdatePost(ctx, otherAuthor, p.ID, UpdatePostInput{Title: &title}); !errors.Is(err, ErrForbidden) {
		t.Errorf("update by other author: got %v, want ErrForbidden", err)
	}
	if err := f.svc.DeletePost(ctx, otherAuthor, p.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("delete by other author: got %v, want ErrForbidden", err)
	}
	if _, err := f.svc.UpdatePost(ctx, f.admin, p.ID, UpdatePostInput{Title: &title}); err != nil {
		t.Errorf("update by admin: %v", err)
	}
	if err := f.svc.DeletePost(ctx, f.author, p.ID); err != nil {
		t.Errorf("delete by owner: %v", err)
	}
	if err := f.svc.DeletePost(ctx, f.author, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestDeleteCommentAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.post(t, CreatePostInput{})
	c, err := f.svc.CreateComment(ctx, f.reader, CreateCommentInput{PostID: p.ID, Body: "mine"})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	if err := f.svc.DeleteComment(ctx, f.author, c.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("got %v, want ErrForbidden", err)
	}
	still, err := store.NewCommentStore(f.db).FindByID(ctx, c.ID)
	if err != nil || still == nil {
		t.Fatalf("comment should persist: %v, %v", err, still)
	}

	if err := f.svc.DeleteComment(ctx, f.reader, c.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := f.svc.DeleteComment(ctx, f.reader, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestDeleteCommentPolicies(t *testing.T) {
	for _, policy := range []DeletePolicy{DeleteRestrict, DeleteCascade} {
		t.Run(string(policy), func(t *testing.T) {
			f := newFixture(t, WithDeletePolicy(policy))
			ctx := context.Background()
			p := f.post(t, CreatePostInput{})
			root, _ := f.svc.CreateComment(ctx, f.reader, CreateCommentInput{PostID: p.ID, Body: "root"})
			child, _ := f.svc.CreateComment(ctx, f.reader, CreateCommentInput{PostID: p.ID, ParentID: &root.ID, Body: "child"})
			if _, err := f.svc.CreateComment(ctx, f.reader, CreateCommentInput{PostID: p.ID, ParentID: &child.ID, Body: "grandchild"}); err != nil {
				t.Fatalf("create grandchild: %v", err)
			}

			err := f.svc.DeleteComment(ctx, f.admin, root.ID)
			tree, _ := f.svc.ListCommentTree(ctx, p.ID)

			switch policy {
			case DeleteRestrict:
				if !errors.Is(err, ErrConflict) {
					t.Fatalf("got %v, want ErrConflict", err)
				}
				if len(tree) != 1 {
					t.Errorf("tree should be intact, got %d roots", len(tree))
				}
			case DeleteCascade:
				if err != nil {
					t.Fatalf("DeleteComment: %v", err)
				}
				if len(tree) != 0 {
					t.Errorf("subtree should be gone, got %d roots", len(tree))
				}
			}
		})
	}
}

func TestSlugRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	name := "Tech News " + uuid.NewString()[:8]
	c, err := f.svc.CreateCategory(ctx, f.author, CategoryInput{Name: name})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	t.Cleanup(func() { f.db.Exec("DELETE FROM categories WHERE id = $1", c.ID) })
	if _, err := f.svc.CreateCategory(ctx, f.author, CategoryInput{Name: name}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate category: got %v, want ErrConflict", err)
	}

	title := "Hello World " + uuid.NewString()[:8]
	first := f.post(t, CreatePostInput{Title: title})
	second := f.post(t, CreatePostInput{Title: title})
	if first.Slug == second.Slug {
		t.Fatalf("slugs collide: %q", first.Slug)
	}
	if len(second.Slug) <= len(first.Slug) || second.Slug[:len(first.Slug)] != first.Slug {
		t.Errorf("second slug %q should extend %q", second.Slug, first.Slug)
	}
}

func TestGetPostCountsViewsConcurrently(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.post(t, CreatePostInput{Status: models.PostStatusPublished})

	const n = 25
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.GetPost(ctx, nil, p.ID); err != nil {
				t.Errorf("GetPost: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := f.svc.GetPostBySlug(ctx, nil, p.Slug)
	if err != nil {
		t.Fatalf("GetPostBySlug: %v", err)
	}
	if got.ViewCount != n+1 {
		t.Errorf("view_count: got %d, want %d", got.ViewCount, n+1)
	}
}

func TestDraftsHiddenFromReaders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.post(t, CreatePostInput{})

	if _, err := f.svc.GetPost(ctx, f.reader, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("reader: got %v, want ErrNotFound", err)
	}
	if _, err := f.svc.GetPost(ctx, f.author, p.ID); err != nil {
		t.Errorf("owner: %v", err)
	}
}

func TestListPostsPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for range 3 {
		f.post(t, CreatePostInput{Status: models.PostStatusPublished})
	}

	page, err := f.svc.ListPosts(ctx, nil, "", 1, 2)
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(page.Items) != 2 || page.Total < 3 || page.Pages < 2 {
		t.Errorf("unexpected page: items=%d total=%d pages=%d", len(page.Items), page.Total, page.Pages)
	}
	for _, p := range page.Items {
		if p.Categories == nil || p.Tags == nil {
			t.Error("taxonomy lists should be loaded")
		}
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	name := "rg-" + uuid.NewString()[:8]
	in := RegisterInput{Username: name, Email: name + "@blog-test.local", Password: "long-enough"}

	u, err := f.svc.Register(ctx, in)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	t.Cleanup(func() { f.db.Exec("DELETE FROM users WHERE id = $1", u.ID) })
	if u.Role != models.RoleUser {
		t.Errorf("role: got %q", u.Role)
	}
	if _, err := f.svc.Register(ctx, in); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate: got %v, want ErrConflict", err)
	}
	if _, err := f.svc.Login(ctx, name, "wrong"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("bad password: got %v", err)
	}
	if _, err := f.svc.Login(ctx, name, "long-enough"); err != nil {
		t.Errorf("Login: %v", err)
	}

	if _, err := f.svc.SetUserRole(ctx, f.author, u.ID, models.RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-admin role change: got %v", err)
	}
	promoted, err := f.svc.SetUserRole(ctx, f.admin, u.ID, models.RoleAuthor)
	if err != nil || promoted.Role != models.RoleAuthor {
		t.Errorf("SetUserRole: %v, %+v", err, promoted)
	}
}
