package order

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crustline/crustline/internal/auth"
	"github.com/crustline/crustline/internal/authz"
	"github.com/crustline/crustline/internal/order/factory"
	"github.com/crustline/crustline/internal/platform/httpx"
	"github.com/crustline/crustline/internal/shared"
)

// Handler wires HTTP endpoints for the menu and orders.
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

// MountRoutes registers order routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/menu", h.getMenu)
	r.With(
		h.authn.Require,
		h.authz.Require(authz.RequireRole(shared.RoleAdmin, "unable to add menu item")),
	).Put("/menu", h.addMenuItem)
	r.With(h.authn.Require).Get("/", h.getOrders)
	r.With(h.authn.Require).Post("/", h.createOrder)
}

func (h *Handler) getMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Menu(r.Context())
	if err != nil {
		h.logger.Error("load menu failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) addMenuItem(w http.ResponseWriter, r *http.Request) {
	var item MenuItem
	if err := httpx.DecodeJSON(r, &item); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}
	menu, err := h.service.AddMenuItem(r.Context(), item)
	if err != nil {
		h.logger.Error("add menu item failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, menu)
}

func (h *Handler) getOrders(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())

	rawPage := r.URL.Query().Get("page")
	page, _ := strconv.Atoi(rawPage)
	orders, err := h.service.Orders(r.Context(), identity.ID, page)
	if err != nil {
		h.logger.Error("list orders failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	// The page field echoes the query parameter exactly as received;
	// an absent parameter reports page 1.
	var pageEcho any = rawPage
	if rawPage == "" {
		pageEcho = 1
	}
	httpx.JSON(w, http.StatusOK, History{DinerID: identity.ID, Orders: orders, Page: pageEcho})
}

type createOrderResponse struct {
	Order     *Order `json:"order"`
	JWT       string `json:"jwt"`
	ReportURL string `json:"followLinkToEndChaos,omitempty"`
}

type fulfillmentFailure struct {
	Message   string `json:"message"`
	ReportURL string `json:"followLinkToEndChaos,omitempty"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())

	var req CreateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, fulfillment, err := h.service.Create(r.Context(), identity, req)
	if err != nil {
		if order == nil {
			httpx.RespondError(w, err)
			return
		}
		// The order persisted but fulfillment failed; report the
		// failure without pretending the order is gone.
		failure := fulfillmentFailure{Message: "Failed to fulfill order at factory"}
		var factoryErr *factory.Error
		if errors.As(err, &factoryErr) {
			failure.ReportURL = factoryErr.ReportURL
		}
		httpx.JSON(w, http.StatusInternalServerError, failure)
		return
	}

	httpx.JSON(w, http.StatusOK, createOrderResponse{
		Order:     order,
		JWT:       fulfillment.JWT,
		ReportURL: fulfillment.ReportURL,
	})
}
