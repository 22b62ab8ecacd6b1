package handlers

import (
	"net/http"

	"myblog/internal/blog"
)

// ListCategories returns all categories ordered by name.
func (a *API) ListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := a.svc.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GetCategory returns a single category.
func (a *API) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := a.svc.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateCategory adds a category. Its slug is derived from the name.
func (a *API) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in blog.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := a.svc.CreateCategory(r.Context(), actor(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCategory renames a category and replaces its description.
func (a *API) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in blog.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := a.svc.UpdateCategory(r.Context(), actor(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCategory removes a category and its post links.
func (a *API) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.svc.DeleteCategory(r.Context(), actor(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTags returns all tags ordered by name.
func (a *API) ListTags(w http.ResponseWriter, r *http.Request) {
	items, err := a.svc.ListTags(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GetTag returns a single tag.
func (a *API) GetTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := a.svc.GetTag(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// CreateTag adds a tag.
func (a *API) CreateTag(w http.ResponseWriter, r *http.Request) {
	var in blog.TagInput
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := a.svc.CreateTag(r.Context(), actor(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// UpdateTag renames a tag.
func (a *API) UpdateTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in blog.TagInput
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := a.svc.UpdateTag(r.Context(), actor(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTag removes a tag and its post links.
func (a *API) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.svc.DeleteTag(r.Context(), actor(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
