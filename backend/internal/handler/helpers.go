package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/radake/polihub/shared/domain"
	"github.com/radake/polihub/shared/errors"
	mw "github.com/radake/polihub/shared/middleware"
)

// parseIdParam reads a positive integer URL parameter.
func parseIdParam(r *http.Request, name string) (int64, error) {
	val, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || val <= 0 {
		return 0, errors.Validation("Invalid " + name + ": must be a positive integer")
	}
	return val, nil
}

func parseUserIdParam(r *http.Request) (domain.UserId, error) {
	id, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		return uuid.Nil, errors.Validation("Invalid userId: must be a uuid")
	}
	return id, nil
}

// identityFrom returns the identity attached by the auth middleware or an
// Unauthenticated error when the route was mounted without one.
func identityFrom(r *http.Request) (*domain.Identity, error) {
	identity := mw.GetIdentityFromContext(r)
	if identity == nil {
		return nil, errors.Unauthenticated("Please sign-in")
	}
	return identity, nil
}

func (h *Handler) setTokenCookie(w http.ResponseWriter, name, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     name,
		Value:    token,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.Public.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearTokenCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     name,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Public.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
