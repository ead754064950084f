package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/crustline/crustline/internal/app"
	"github.com/crustline/crustline/internal/auth"
	"github.com/crustline/crustline/internal/authz"
	"github.com/crustline/crustline/internal/franchise"
	"github.com/crustline/crustline/internal/order"
	"github.com/crustline/crustline/internal/order/factory"
	"github.com/crustline/crustline/internal/shared"
	"github.com/crustline/crustline/internal/users"
)

// world is an in-memory stand-in for the persistence layer, implementing
// the repository contracts of every domain package at once.
type world struct {
	mu         sync.Mutex
	users      map[int64]*auth.User
	franchises map[int64]*franchise.Franchise
	adminsByID map[int64][]int64
	menu       []order.MenuItem
	orders     map[int64][]order.Order
	nextUser   int64
	nextFr     int64
	nextStore  int64
	nextOrder  int64
}

func newWorld() *world {
	return &world{
		users:      make(map[int64]*auth.User),
		franchises: make(map[int64]*franchise.Franchise),
		adminsByID: make(map[int64][]int64),
		orders:     make(map[int64][]order.Order),
	}
}

func (w *world) CreateUser(ctx context.Context, name, email, passwordHash string, roles []shared.Role) (*auth.User, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, u := range w.users {
		if u.Email == email {
			return nil, shared.ErrDuplicate
		}
	}
	w.nextUser++
	user := &auth.User{ID: w.nextUser, Name: name, Email: email, PasswordHash: passwordHash, Roles: roles}
	w.users[user.ID] = user
	return user, nil
}

func (w *world) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, u := range w.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (w *world) GetUser(ctx context.Context, id int64) (*auth.User, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if u, ok := w.users[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (w *world) Get(ctx context.Context, id int64) (*users.User, error) {
	u, err := w.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return &users.User{ID: u.ID, Name: u.Name, Email: u.Email, Roles: u.Roles}, nil
}

func (w *world) Update(ctx context.Context, id int64, params users.UpdateParams) (*users.User, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	u, ok := w.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if params.Name != nil {
		u.Name = *params.Name
	}
	if params.Email != nil {
		u.Email = *params.Email
	}
	if params.PasswordHash != nil {
		u.PasswordHash = *params.PasswordHash
	}
	return &users.User{ID: u.ID, Name: u.Name, Email: u.Email, Roles: u.Roles}, nil
}

func (w *world) List(ctx context.Context, filter shared.ListFilter) ([]franchise.Franchise, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]franchise.Franchise, 0, len(w.franchises))
	for _, f := range w.franchises {
		out = append(out, *f)
	}
	return out, false, nil
}

func (w *world) ListForUser(ctx context.Context, userID int64) ([]franchise.Franchise, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []franchise.Franchise
	for id, adminIDs := range w.adminsByID {
		for _, adminID := range adminIDs {
			if adminID == userID {
				out = append(out, *w.franchises[id])
			}
		}
	}
	return out, nil
}

func (w *world) Create(ctx context.Context, name string, admins []franchise.Admin) (*franchise.Franchise, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextFr++
	f := &franchise.Franchise{ID: w.nextFr, Name: name, Admins: admins, Stores: []franchise.Store{}}
	w.franchises[f.ID] = f
	for _, a := range admins {
		w.adminsByID[f.ID] = append(w.adminsByID[f.ID], a.ID)
	}
	return f, nil
}

func (w *world) Delete(ctx context.Context, id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.franchises, id)
	delete(w.adminsByID, id)
	return nil
}

func (w *world) CreateStore(ctx context.Context, franchiseID int64, name string) (*franchise.Store, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.franchises[franchiseID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	w.nextStore++
	store := franchise.Store{ID: w.nextStore, Name: name}
	f.Stores = append(f.Stores, store)
	return &store, nil
}

func (w *world) DeleteStore(ctx context.Context, franchiseID, storeID int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.franchises[franchiseID]
	if !ok {
		return nil
	}
	stores := f.Stores[:0]
	for _, s := range f.Stores {
		if s.ID != storeID {
			stores = append(stores, s)
		}
	}
	f.Stores = stores
	return nil
}

func (w *world) FindAdminByEmail(ctx context.Context, email string) (franchise.Admin, error) {
	u, err := w.FindByEmail(ctx, email)
	if err != nil {
		return franchise.Admin{}, err
	}
	return franchise.Admin{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}

func (w *world) FranchiseExists(ctx context.Context, franchiseID int64) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.franchises[franchiseID]
	return ok, nil
}

func (w *world) IsFranchiseAdmin(ctx context.Context, franchiseID, userID int64) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, adminID := range w.adminsByID[franchiseID] {
		if adminID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (w *world) Menu(ctx context.Context) ([]order.MenuItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.menu, nil
}

func (w *world) AddMenuItem(ctx context.Context, item order.MenuItem) (*order.MenuItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	item.ID = int64(len(w.menu) + 1)
	w.menu = append(w.menu, item)
	return &item, nil
}

func (w *world) OrdersForDiner(ctx context.Context, dinerID int64, page, limit int) ([]order.Order, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.orders[dinerID], nil
}

func (w *world) CreateOrder(ctx context.Context, dinerID int64, req order.CreateOrderRequest) (*order.Order, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextOrder++
	o := order.Order{ID: w.nextOrder, FranchiseID: req.FranchiseID, StoreID: req.StoreID, Date: time.Now(), Items: req.Items}
	w.orders[dinerID] = append(w.orders[dinerID], o)
	return &o, nil
}

type scenarioFactory struct{}

func (scenarioFactory) Fulfill(ctx context.Context, diner factory.Diner, o any) (*factory.Fulfillment, error) {
	return &factory.Fulfillment{JWT: "factory-signed-token", ReportURL: "https://factory.test/report/1"}, nil
}

func newApp(t *testing.T) (http.Handler, *world) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	w := newWorld()

	// One seeded global admin; everyone else registers over the API.
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-password"), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = w.CreateUser(context.Background(), "Admin", "admin@test.local", string(hash), []shared.Role{{Role: shared.RoleAdmin}})
	require.NoError(t, err)

	tokens := auth.NewTokenManager("order-flow-e2e", time.Hour)
	denylist := auth.NewDenylist(client)
	authn := auth.Authenticator{Tokens: tokens, Denylist: denylist, Repo: w, Logger: logger}
	policy := authz.Middleware{Franchises: w, Logger: logger}

	authService := auth.NewService(w, tokens, denylist)
	usersService := users.NewService(w)
	franchiseService := franchise.NewService(w, 10)
	orderService := order.NewService(w, order.NewMenuCache(client, time.Minute), scenarioFactory{}, logger, 10)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		AuthHandler:      auth.NewHandler(logger, authService, authn),
		UsersHandler:     users.NewHandler(logger, usersService, tokens, authn, policy),
		FranchiseHandler: franchise.NewHandler(logger, franchiseService, authn, policy),
		OrderHandler:     order.NewHandler(logger, orderService, authn, policy),
	})
	return router, w
}

func request(t *testing.T, router http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeToken(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

// TestOrderFlow walks the whole franchise lifecycle: an admin opens a
// franchise run by a newly registered user, that user opens a store, a
// diner orders off the menu, and the order shows up in their history.
func TestOrderFlow(t *testing.T) {
	router, _ := newApp(t)

	// Admin signs in.
	rec := request(t, router, http.MethodPut, "/api/auth", "", map[string]string{
		"email": "admin@test.local", "password": "admin-password",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	adminToken := decodeToken(t, rec)

	// The future franchise admin registers as a regular diner.
	rec = request(t, router, http.MethodPost, "/api/auth", "", map[string]string{
		"name": "Pocket Owner", "email": "owner@test.local", "password": "owner-password",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	ownerToken := decodeToken(t, rec)

	// Admin opens the franchise with that user as its admin.
	rec = request(t, router, http.MethodPost, "/api/franchise", adminToken, franchise.CreateFranchiseRequest{
		Name:   "pizzaPocket",
		Admins: []franchise.AdminRef{{Email: "owner@test.local"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var created franchise.Franchise
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)
	require.Len(t, created.Admins, 1)

	// The franchise admin opens a store.
	rec = request(t, router, http.MethodPost, "/api/franchise/"+strconv.FormatInt(created.ID, 10)+"/store", ownerToken, franchise.CreateStoreRequest{Name: "SLC"})
	require.Equal(t, http.StatusOK, rec.Code)
	var store franchise.Store
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &store))

	// Admin puts a pizza on the menu.
	rec = request(t, router, http.MethodPut, "/api/order/menu", adminToken, order.MenuItem{
		Title: "Veggie", Description: "A garden of delight", Image: "pizza1.png", Price: 9.99,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var menu []order.MenuItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &menu))
	require.Len(t, menu, 1)

	// A diner registers and places an order.
	rec = request(t, router, http.MethodPost, "/api/auth", "", map[string]string{
		"name": "Hungry Diner", "email": "hungry@test.local", "password": "diner-password",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	dinerToken := decodeToken(t, rec)

	rec = request(t, router, http.MethodPost, "/api/order", dinerToken, order.CreateOrderRequest{
		FranchiseID: created.ID,
		StoreID:     store.ID,
		Items:       []order.Item{{MenuID: menu[0].ID, Description: "Veggie", Price: 9.99}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var placed struct {
		Order order.Order `json:"order"`
		JWT   string      `json:"jwt"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))
	assert.Equal(t, created.ID, placed.Order.FranchiseID)
	assert.Equal(t, store.ID, placed.Order.StoreID)
	assert.Equal(t, "factory-signed-token", placed.JWT)

	// The order shows up in the diner's history.
	rec = request(t, router, http.MethodGet, "/api/order", dinerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		DinerID int64         `json:"dinerId"`
		Orders  []order.Order `json:"orders"`
		Page    any           `json:"page"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Orders, 1)
	assert.Equal(t, placed.Order.ID, history.Orders[0].ID)
	assert.Equal(t, float64(1), history.Page)

	// Logout revokes the token immediately.
	rec = request(t, router, http.MethodDelete, "/api/auth", dinerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = request(t, router, http.MethodGet, "/api/order", dinerToken, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
