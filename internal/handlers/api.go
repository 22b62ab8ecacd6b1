package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"myblog/internal/blog"
	"myblog/internal/markdown"
	"myblog/internal/models"
)

// API groups the post, comment, taxonomy and user handlers.
type API struct {
	svc *blog.Service
}

// NewAPI creates a new API handler group.
func NewAPI(svc *blog.Service) *API {
	return &API{svc: svc}
}

// postView is a post as returned to clients, with rendered content.
type postView struct {
	*models.Post
	ContentHTML string `json:"content_html"`
}

// postPageView is a page of rendered posts.
type postPageView struct {
	Items []postView `json:"items"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Size  int        `json:"size"`
	Pages int        `json:"pages"`
}

func renderPost(p *models.Post) (postView, error) {
	html, err := markdown.ToHTML(p.Content)
	if err != nil {
		return postView{}, err
	}
	return postView{Post: p, ContentHTML: html}, nil
}

// writePost renders p and writes it with the given status.
func writePost(w http.ResponseWriter, r *http.Request, status int, p *models.Post) {
	view, err := renderPost(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, view)
}

// ListPosts returns one page of posts. Query: page, size, status.
func (a *API) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, size, msg := parsePagination(r, defaultPostPageSize)
	if msg != "" {
		writeDetail(w, http.StatusBadRequest, msg)
		return
	}
	status := models.PostStatus(r.URL.Query().Get("status"))

	result, err := a.svc.ListPosts(r.Context(), actor(r), status, page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view := postPageView{
		Items: make([]postView, 0, len(result.Items)),
		Total: result.Total,
		Page:  result.Page,
		Size:  result.Size,
		Pages: result.Pages,
	}
	for i := range result.Items {
		pv, err := renderPost(&result.Items[i])
		if err != nil {
			writeError(w, r, err)
			return
		}
		view.Items = append(view.Items, pv)
	}
	writeJSON(w, http.StatusOK, view)
}

// GetPost returns a post by id and counts the view.
func (a *API) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := a.svc.GetPost(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePost(w, r, http.StatusOK, p)
}

// GetPostBySlug returns a post by slug and counts the view.
func (a *API) GetPostBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := a.svc.GetPostBySlug(r.Context(), actor(r), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePost(w, r, http.StatusOK, p)
}

// CreatePost creates a post owned by the caller.
func (a *API) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in blog.CreatePostInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := a.svc.CreatePost(r.Context(), actor(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePost(w, r, http.StatusCreated, p)
}

// UpdatePost applies a partial update. Omitted fields are left unchanged.
func (a *API) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in blog.UpdatePostInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := a.svc.UpdatePost(r.Context(), actor(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePost(w, r, http.StatusOK, p)
}

// DeletePost removes a post with its comments and associations.
func (a *API) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.svc.DeletePost(r.Context(), actor(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
