package blog

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"myblog/internal/models"
	"myblog/internal/store"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// RegisterInput holds the fields of a new account.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func validateRegistration(in RegisterInput) (RegisterInput, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if n := utf8.RuneCountInString(in.Username); n < 3 || n > 50 {
		return in, newError(ErrValidation, "Username must be between 3 and 50 characters")
	}
	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Address != in.Email {
		return in, newError(ErrValidation, "Email address is not valid")
	}
	if len(in.Password) < MinPasswordLength {
		return in, newError(ErrValidation, "Password must be at least %d characters", MinPasswordLength)
	}
	return in, nil
}

// Register creates an account with the user role.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in, err := validateRegistration(in)
	if err != nil {
		return nil, err
	}

	var created *models.User
	err = s.uow.Do(ctx, func(st *store.Stores) error {
		existing, err := st.Users.FindByUsername(ctx, in.Username)
		if err != nil {
			return err
		}
		if existing != nil {
			return newError(ErrConflict, "Username already registered")
		}
		existing, err = st.Users.FindByEmail(ctx, in.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return newError(ErrConflict, "Email already registered")
		}

		created, err = st.Users.Create(ctx, in.Username, in.Email, in.Password, models.RoleUser)
		if errors.Is(err, store.ErrUniqueViolation) {
			return newError(ErrConflict, "Username or email already registered")
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Login checks credentials and returns the matching user.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.uow.Stores().Users.Authenticate(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, newError(ErrUnauthenticated, "Incorrect username or password")
	}
	return u, nil
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.uow.Stores().Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, newError(ErrNotFound, "User not found")
	}
	return u, nil
}

// SetUserRole changes a user's role. Only admins may do this.
func (s *Service) SetUserRole(ctx context.Context, actor *models.Actor, id uuid.UUID, role models.Role) (*models.User, error) {
	if !actor.HasRole(models.RoleAdmin) {
		return nil, newError(ErrForbidden, "Only admins can change roles")
	}
	if !role.Valid() {
		return nil, newError(ErrValidation, "Unknown role %q", role)
	}
	u, err := s.uow.Stores().Users.SetRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, newError(ErrNotFound, "User not found")
	}
	return u, nil
}
