package franchise

import (
	"context"
	"errors"
	"strings"

	"github.com/crustline/crustline/internal/auth"
	"github.com/crustline/crustline/internal/shared"
)

// Service wraps franchise and store business rules.
type Service struct {
	repo        Repository
	listPerPage int
}

// NewService constructs a Service.
func NewService(repo Repository, listPerPage int) *Service {
	if listPerPage <= 0 {
		listPerPage = 10
	}
	return &Service{repo: repo, listPerPage: listPerPage}
}

// List returns a page of franchises with an indicator for further pages.
// Public: requires no caller identity.
func (s *Service) List(ctx context.Context, filter shared.ListFilter) (ListResult, error) {
	franchises, more, err := s.repo.List(ctx, filter.Normalize(s.listPerPage))
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Franchises: franchises, More: more}, nil
}

// ListForUser returns the franchises a user administers. Viewers other
// than the user or an admin get an empty list, never an error: absence of
// data masks rather than reveals.
func (s *Service) ListForUser(ctx context.Context, viewer *shared.Identity, userID int64) ([]Franchise, error) {
	if viewer == nil || (viewer.ID != userID && !viewer.IsAdmin()) {
		return []Franchise{}, nil
	}
	franchises, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if franchises == nil {
		franchises = []Franchise{}
	}
	return franchises, nil
}

// Create validates the request, resolves the admins by email and stores
// the franchise.
func (s *Service) Create(ctx context.Context, req CreateFranchiseRequest) (*Franchise, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, shared.Validationf("franchise name is required")
	}
	if len(req.Admins) == 0 {
		return nil, shared.Validationf("franchise admins are required")
	}
	admins := make([]Admin, 0, len(req.Admins))
	for _, ref := range req.Admins {
		email := auth.CanonicalEmail(ref.Email)
		if email == "" {
			return nil, shared.Validationf("franchise admin email is required")
		}
		admin, err := s.repo.FindAdminByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.Validationf("unknown user for franchise admin %s", ref.Email)
			}
			return nil, err
		}
		admins = append(admins, admin)
	}
	return s.repo.Create(ctx, name, admins)
}

// Delete removes a franchise by id, succeeding even when it does not exist.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// CreateStore adds a store under a franchise.
func (s *Service) CreateStore(ctx context.Context, franchiseID int64, req CreateStoreRequest) (*Store, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, shared.Validationf("store name is required")
	}
	return s.repo.CreateStore(ctx, franchiseID, name)
}

// DeleteStore removes a store, succeeding even when the ids do not exist.
func (s *Service) DeleteStore(ctx context.Context, franchiseID, storeID int64) error {
	return s.repo.DeleteStore(ctx, franchiseID, storeID)
}
