package authz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crustline/crustline/internal/shared"
)

type stubResolver struct {
	admins map[int64][]int64
	err    error
}

func (s *stubResolver) FranchiseExists(ctx context.Context, franchiseID int64) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.admins[franchiseID]
	return ok, nil
}

func (s *stubResolver) IsFranchiseAdmin(ctx context.Context, franchiseID, userID int64) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for _, id := range s.admins[franchiseID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func newPolicyRouter(resolver FranchiseResolver, policy Policy, pattern string) chi.Router {
	m := Middleware{Franchises: resolver}
	r := chi.NewRouter()
	r.With(m.Require(policy)).Method(http.MethodPost, pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	return r
}

func doAs(t *testing.T, router chi.Router, identity *shared.Identity, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if identity != nil {
		req = req.WithContext(shared.ContextWithIdentity(req.Context(), identity))
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestRequireRole(t *testing.T) {
	router := newPolicyRouter(&stubResolver{}, RequireRole(shared.RoleAdmin, "unable to create a franchise"), "/franchise")

	admin := &shared.Identity{ID: 1, Roles: []shared.Role{{Role: shared.RoleAdmin}}}
	diner := &shared.Identity{ID: 2, Roles: []shared.Role{{Role: shared.RoleDiner}}}

	assert.Equal(t, http.StatusOK, doAs(t, router, admin, "/franchise").Code)

	res := doAs(t, router, diner, "/franchise")
	require.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "unable to create a franchise")
}

func TestRequireNoIdentity(t *testing.T) {
	router := newPolicyRouter(&stubResolver{}, RequireRole(shared.RoleAdmin, "nope"), "/franchise")
	assert.Equal(t, http.StatusUnauthorized, doAs(t, router, nil, "/franchise").Code)
}

func TestSelfOrAdmin(t *testing.T) {
	router := newPolicyRouter(&stubResolver{}, SelfOrAdmin("userID", "unauthorized"), "/user/{userID}")

	self := &shared.Identity{ID: 5, Roles: []shared.Role{{Role: shared.RoleDiner}}}
	admin := &shared.Identity{ID: 1, Roles: []shared.Role{{Role: shared.RoleAdmin}}}
	other := &shared.Identity{ID: 7, Roles: []shared.Role{{Role: shared.RoleDiner}}}

	assert.Equal(t, http.StatusOK, doAs(t, router, self, "/user/5").Code)
	assert.Equal(t, http.StatusOK, doAs(t, router, admin, "/user/5").Code)

	res := doAs(t, router, other, "/user/5")
	require.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "unauthorized")
}

func TestFranchiseAdmin(t *testing.T) {
	resolver := &stubResolver{admins: map[int64][]int64{10: {5}}}
	router := newPolicyRouter(resolver, FranchiseAdmin("franchiseID", "unable to create a store"), "/franchise/{franchiseID}/store")

	listed := &shared.Identity{ID: 5, Roles: []shared.Role{{Role: shared.RoleFranchisee, ObjectID: 10}}}
	admin := &shared.Identity{ID: 1, Roles: []shared.Role{{Role: shared.RoleAdmin}}}
	diner := &shared.Identity{ID: 9, Roles: []shared.Role{{Role: shared.RoleDiner}}}

	assert.Equal(t, http.StatusOK, doAs(t, router, listed, "/franchise/10/store").Code)
	assert.Equal(t, http.StatusOK, doAs(t, router, admin, "/franchise/10/store").Code)
	assert.Equal(t, http.StatusForbidden, doAs(t, router, diner, "/franchise/10/store").Code)
}

func TestFranchiseAdminUnknownFranchiseIs403(t *testing.T) {
	resolver := &stubResolver{admins: map[int64][]int64{}}
	router := newPolicyRouter(resolver, FranchiseAdmin("franchiseID", "unable to create a store"), "/franchise/{franchiseID}/store")

	// Existence is never leaked: an unknown franchise id denies with 403
	// no matter who asks, admins included.
	listed := &shared.Identity{ID: 5, Roles: []shared.Role{{Role: shared.RoleFranchisee, ObjectID: 10}}}
	res := doAs(t, router, listed, "/franchise/999/store")
	require.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "unable to create a store")

	admin := &shared.Identity{ID: 1, Roles: []shared.Role{{Role: shared.RoleAdmin}}}
	res = doAs(t, router, admin, "/franchise/999/store")
	require.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "unable to create a store")
}

func TestFranchiseAdminResolverErrorDenies(t *testing.T) {
	resolver := &stubResolver{err: errors.New("boom")}
	router := newPolicyRouter(resolver, FranchiseAdmin("franchiseID", "unable to delete a store"), "/franchise/{franchiseID}/store")

	listed := &shared.Identity{ID: 5}
	res := doAs(t, router, listed, "/franchise/10/store")
	assert.Equal(t, http.StatusForbidden, res.Code)
}
