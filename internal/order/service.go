package order

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crustline/crustline/internal/order/factory"
	"github.com/crustline/crustline/internal/shared"
)

// FulfillmentClient submits a persisted order to the fulfillment factory.
type FulfillmentClient interface {
	Fulfill(ctx context.Context, diner factory.Diner, order any) (*factory.Fulfillment, error)
}

// Service wraps menu and order business rules.
type Service struct {
	repo        Repository
	cache       *MenuCache
	factory     FulfillmentClient
	logger      *slog.Logger
	listPerPage int
}

// NewService constructs a Service.
func NewService(repo Repository, cache *MenuCache, fulfillment FulfillmentClient, logger *slog.Logger, listPerPage int) *Service {
	if listPerPage <= 0 {
		listPerPage = 10
	}
	return &Service{repo: repo, cache: cache, factory: fulfillment, logger: logger, listPerPage: listPerPage}
}

// Menu returns the full menu, served from cache when warm.
func (s *Service) Menu(ctx context.Context) ([]MenuItem, error) {
	items, err := s.cache.Fetch(ctx, s.repo.Menu)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []MenuItem{}
	}
	return items, nil
}

// AddMenuItem appends an item to the menu and returns the updated menu.
// Field validation is delegated to the store's constraints; a constraint
// failure surfaces as a server error.
func (s *Service) AddMenuItem(ctx context.Context, item MenuItem) ([]MenuItem, error) {
	if _, err := s.repo.AddMenuItem(ctx, item); err != nil {
		return nil, fmt.Errorf("order: add menu item: %w", err)
	}
	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("menu cache bump failed", slog.Any("error", err))
	}
	return s.repo.Menu(ctx)
}

// Orders returns one page of a diner's order history.
func (s *Service) Orders(ctx context.Context, dinerID int64, page int) ([]Order, error) {
	orders, err := s.repo.OrdersForDiner(ctx, dinerID, page, s.listPerPage)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, nil
}

// Create validates and persists an order, then requests fulfillment.
//
// The order is committed before the factory call and is **not** rolled
// back when fulfillment fails; the caller sees the failure while the
// record stands (accepted inconsistency window).
func (s *Service) Create(ctx context.Context, diner *shared.Identity, req CreateOrderRequest) (*Order, *factory.Fulfillment, error) {
	if req.FranchiseID <= 0 || req.StoreID <= 0 {
		return nil, nil, shared.Validationf("franchiseId and storeId are required")
	}
	if len(req.Items) == 0 {
		return nil, nil, shared.Validationf("order must include at least one item")
	}
	for _, item := range req.Items {
		if item.MenuID <= 0 {
			return nil, nil, shared.Validationf("order items require a menuId")
		}
	}

	order, err := s.repo.CreateOrder(ctx, diner.ID, req)
	if err != nil {
		return nil, nil, fmt.Errorf("order: create: %w", err)
	}

	fulfillment, err := s.factory.Fulfill(ctx, factory.Diner{ID: diner.ID, Name: diner.Name, Email: diner.Email}, order)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("factory fulfillment failed", slog.Any("error", err), slog.Int64("order_id", order.ID))
		}
		return order, nil, err
	}
	return order, fulfillment, nil
}
