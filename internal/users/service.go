package users

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/crustline/crustline/internal/auth"
	"github.com/crustline/crustline/internal/shared"
)

// RepositoryPort defines data access methods for user profiles.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (*User, error)
	Update(ctx context.Context, id int64, params UpdateParams) (*User, error)
}

// UpdateRequest is a partial profile update. Nil fields are left unchanged.
type UpdateRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Service handles user profile business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Get returns the profile for the given user id.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// Update applies a partial profile update, rehashing the password when it changes.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*User, error) {
	var params UpdateParams
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, shared.Validationf("name must not be empty")
		}
		params.Name = &name
	}
	if req.Email != nil {
		email := auth.CanonicalEmail(*req.Email)
		if email == "" {
			return nil, shared.Validationf("email must not be empty")
		}
		params.Email = &email
	}
	if req.Password != nil {
		if *req.Password == "" {
			return nil, shared.Validationf("password must not be empty")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hashed := string(hash)
		params.PasswordHash = &hashed
	}
	return s.repo.Update(ctx, id, params)
}
