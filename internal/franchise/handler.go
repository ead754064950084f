package franchise

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crustline/crustline/internal/auth"
	"github.com/crustline/crustline/internal/authz"
	"github.com/crustline/crustline/internal/platform/httpx"
	"github.com/crustline/crustline/internal/shared"
)

// Handler wires HTTP endpoints for franchises and their stores.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authn   auth.Authenticator
	authz   authz.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, authn auth.Authenticator, policy authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authn: authn, authz: policy}
}

// MountRoutes registers franchise routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.With(h.authn.Require).Get("/{userID}", h.listForUser)
	r.With(
		h.authn.Require,
		h.authz.Require(authz.RequireRole(shared.RoleAdmin, "unable to create a franchise")),
	).Post("/", h.create)
	// Deletes are idempotent and intentionally unauthenticated; see the
	// API contract.
	r.Delete("/{franchiseID}", h.delete)

	r.Route("/{franchiseID}/store", func(r chi.Router) {
		r.With(
			h.authn.Require,
			h.authz.Require(authz.FranchiseAdmin("franchiseID", "unable to create a store")),
		).Post("/", h.createStore)
		r.With(
			h.authn.Require,
			h.authz.Require(authz.FranchiseAdmin("franchiseID", "unable to delete a store")),
		).Delete("/{storeID}", h.deleteStore)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	filter := shared.ListFilter{
		Page:  page,
		Limit: limit,
		Name:  r.URL.Query().Get("name"),
	}
	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list franchises failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) listForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid user id")
		return
	}
	viewer := shared.IdentityFromContext(r.Context())
	franchises, err := h.service.ListForUser(r.Context(), viewer, userID)
	if err != nil {
		h.logger.Error("list user franchises failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, franchises)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateFranchiseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Warn("create franchise failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, created)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	// A malformed or unknown id still reports success: delete is
	// idempotent by contract.
	if id, err := strconv.ParseInt(chi.URLParam(r, "franchiseID"), 10, 64); err == nil {
		if err := h.service.Delete(r.Context(), id); err != nil {
			h.logger.Error("delete franchise failed", slog.Any("error", err), slog.Int64("id", id))
			httpx.RespondError(w, err)
			return
		}
	}
	httpx.Message(w, http.StatusOK, "franchise deleted")
}

func (h *Handler) createStore(w http.ResponseWriter, r *http.Request) {
	franchiseID, err := strconv.ParseInt(chi.URLParam(r, "franchiseID"), 10, 64)
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid franchise id")
		return
	}
	var req CreateStoreRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}
	store, err := h.service.CreateStore(r.Context(), franchiseID, req)
	if err != nil {
		h.logger.Warn("create store failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, store)
}

func (h *Handler) deleteStore(w http.ResponseWriter, r *http.Request) {
	franchiseID, ferr := strconv.ParseInt(chi.URLParam(r, "franchiseID"), 10, 64)
	storeID, serr := strconv.ParseInt(chi.URLParam(r, "storeID"), 10, 64)
	if ferr == nil && serr == nil {
		if err := h.service.DeleteStore(r.Context(), franchiseID, storeID); err != nil {
			h.logger.Error("delete store failed", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
	}
	httpx.Message(w, http.StatusOK, "store deleted")
}
