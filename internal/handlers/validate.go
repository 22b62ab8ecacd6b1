package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"myblog/internal/blog"
)

// Pagination defaults.
const (
	defaultPostPageSize  = 10
	defaultMediaPageSize = 20
)

// parsePagination reads the page and size query parameters and returns
// the first error found.
func parsePagination(r *http.Request, defaultSize int) (page, size int, msg string) {
	page, size = 1, defaultSize
	q := r.URL.Query()

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, "page must be a positive integer"
		}
		page = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > blog.MaxPageSize {
			return 0, 0, fmt.Sprintf("size must be between 1 and %d", blog.MaxPageSize)
		}
		size = n
	}
	return page, size, ""
}

// loginRequest is the body of POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// validateLogin checks login inputs and returns the first error found.
func validateLogin(in loginRequest) string {
	if strings.TrimSpace(in.Username) == "" {
		return "Username is required."
	}
	if in.Password == "" {
		return "Password is required."
	}
	return ""
}
