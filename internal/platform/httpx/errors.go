package httpx

import (
	"errors"
	"net/http"

	"github.com/crustline/crustline/internal/shared"
)

// RespondError maps domain errors to HTTP responses.
//
// The mapping deliberately reports bad login credentials as 404 and keeps
// resource-existence hidden behind 403 where the caller failed an
// authorization check upstream.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		Message(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrUnauthenticated):
		Message(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, shared.ErrForbidden):
		Message(w, http.StatusForbidden, err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Message(w, http.StatusNotFound, "unknown user")
	case errors.Is(err, shared.ErrNotFound):
		Message(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Message(w, http.StatusConflict, err.Error())
	default:
		Message(w, http.StatusInternalServerError, "internal server error")
	}
}
