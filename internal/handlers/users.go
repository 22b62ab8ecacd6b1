package handlers

import (
	"net/http"

	"myblog/internal/models"
)

// setRoleRequest is the body of PUT /users/{id}/role.
type setRoleRequest struct {
	Role models.Role `json:"role"`
}

// SetUserRole changes the role of an account. Admin only.
func (a *API) SetUserRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in setRoleRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := a.svc.SetUserRole(r.Context(), actor(r), id, in.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
