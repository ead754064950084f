package auth

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"

	"github.com/crustline/crustline/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	tokens   *TokenManager
	denylist *Denylist
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager, denylist *Denylist) *Service {
	return &Service{repo: repo, tokens: tokens, denylist: denylist}
}

// CanonicalEmail normalises an email address so uniqueness and lookup are caseless.
func CanonicalEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

// Register creates a new diner account and issues its first session token.
func (s *Service) Register(ctx context.Context, name, email, password string) (*User, string, error) {
	name = strings.TrimSpace(name)
	email = CanonicalEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, "", shared.Validationf("name, email, and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	user, err := s.repo.CreateUser(ctx, name, email, string(hash), []shared.Role{{Role: shared.RoleDiner}})
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(user.ID, user.Name, user.Email, user.Roles)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login validates credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.repo.FindByEmail(ctx, CanonicalEmail(email))
	if err != nil {
		return nil, "", shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", shared.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user.ID, user.Name, user.Email, user.Roles)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout revokes the presented token for its remaining lifetime.
func (s *Service) Logout(ctx context.Context, identity *shared.Identity) error {
	if identity == nil {
		return shared.ErrUnauthenticated
	}
	return s.denylist.Revoke(ctx, identity.TokenID, time.Until(identity.ExpiresAt))
}
