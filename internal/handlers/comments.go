package handlers

import (
	"net/http"

	"myblog/internal/blog"
)

// ListComments returns the comment tree of a post: roots newest first,
// replies oldest first at every level.
func (a *API) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}
	tree, err := a.svc.ListCommentTree(r.Context(), postID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// CreateComment adds a comment or reply authored by the caller.
func (a *API) CreateComment(w http.ResponseWriter, r *http.Request) {
	var in blog.CreateCommentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := a.svc.CreateComment(r.Context(), actor(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// DeleteComment removes a comment on behalf of its author or an admin.
func (a *API) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := a.svc.DeleteComment(r.Context(), actor(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
