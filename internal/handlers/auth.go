package handlers

import (
	"log/slog"
	"net/http"

	"myblog/internal/blog"
	"myblog/internal/models"
	"myblog/internal/session"
)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	svc      *blog.Service
	sessions *session.Store
}

// NewAuth creates a new Auth handler group.
func NewAuth(svc *blog.Service, sessions *session.Store) *Auth {
	return &Auth{
		svc:      svc,
		sessions: sessions,
	}
}

// loginResponse is the body returned by a successful login.
type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

// Register creates a new account with the user role.
func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var in blog.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := a.svc.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusCreated, user)
}

// Login checks credentials and opens a session. The token is returned in
// the body for API clients and set as a cookie for browsers.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if msg := validateLogin(in); msg != "" {
		writeDetail(w, http.StatusBadRequest, msg)
		return
	}

	user, err := a.svc.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, r, err)
		return
	}

	token, err := a.sessions.Create(r.Context(), w, &session.Data{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}

// Logout destroys the current session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated account.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	caller := actor(r)
	if caller == nil {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := a.svc.GetUser(r.Context(), caller.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
