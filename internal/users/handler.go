package users

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

// TokenIssuer issues a fresh session token for an identity.
type TokenIssuer interface {
	Issue(userID int64, name, email string, roles []shared.Role) (string, error)
}

// Handler manages user profile endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	tokens  TokenIssuer
	authn   auth.Authenticator
	authz   authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, tokens TokenIssuer, authn auth.Authenticator, policy authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, tokens: tokens, authn: authn, authz: policy}
}

// MountRoutes registers user routes. All require a bearer token.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.authn.Require)
	r.Get("/me", h.me)
	r.Get("/", h.list)
	r.With(h.authz.Require(authz.SelfOrAdmin("userID", "unauthorized"))).Put("/{userID}", h.update)
	r.Delete("/{userID}", h.delete)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	user, err := h.service.Get(r.Context(), identity.ID)
	if err != nil {
		h.logger.Error("load profile failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

type updateResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	targetID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.service.Update(r.Context(), targetID, req)
	if err != nil {
		h.logger.Warn("update user failed", slog.Any("error", err), slog.Int64("id", targetID))
		httpx.RespondError(w, err)
		return
	}

	// A fresh token reflects the updated identity. The old one stays
	// valid until logout.
	token, err := h.tokens.Issue(user.ID, user.Name, user.Email, user.Roles)
	if err != nil {
		h.logger.Error("reissue token failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updateResponse{User: user, Token: token})
}

// list is a placeholder kept for API compatibility with planned
// functionality.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	httpx.Message(w, http.StatusOK, "not implemented")
}

// delete is a placeholder kept for API compatibility with planned
// functionality. Users are never hard-deleted.
func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	httpx.Message(w, http.StatusOK, "not implemented")
}
