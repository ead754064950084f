package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/crustline/crustline/internal/platform/httpx"
	"github.com/crustline/crustline/internal/shared"
)

// Authenticator resolves bearer tokens into a request identity.
//
// Roles are resolved from the store on every request, not from the token:
// the token identifies the caller, the database decides what they may do.
type Authenticator struct {
	Tokens   *TokenManager
	Denylist *Denylist
	Repo     Repository
	Logger   *slog.Logger
}

// Require rejects requests without a valid, unrevoked bearer token and
// attaches the resolved identity to the request context.
func (a Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			httpx.Message(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		claims, err := a.Tokens.Verify(parts[1])
		if err != nil {
			httpx.Message(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		revoked, err := a.Denylist.Revoked(r.Context(), claims.ID)
		if err != nil {
			if a.Logger != nil {
				a.Logger.Error("denylist lookup failed", slog.Any("error", err))
			}
			httpx.Message(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if revoked {
			httpx.Message(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := a.Repo.GetUser(r.Context(), claims.UserID)
		if err != nil {
			httpx.Message(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		identity := &shared.Identity{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Roles:     user.Roles,
			TokenID:   claims.ID,
			ExpiresAt: claims.ExpiresAt.Time,
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
	})
}
