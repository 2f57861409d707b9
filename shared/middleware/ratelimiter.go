package middleware

import (
	"fmt"
	"net"
	"net/http"

	internal_errors "github.com/radake/polihub/shared/errors"
	"github.com/radake/polihub/shared/logger"
	"github.com/radake/polihub/shared/middleware/metrics"
	"github.com/radake/polihub/shared/middleware/ratelimiter"
	"github.com/radake/polihub/shared/utils"
)

// OnLimited is called after a request was rejected, with the key it was
// counted under.
type OnLimited func(r *http.Request, key string)

func RateLimit(l *ratelimiter.Limiter, getKey func(r *http.Request) (string, error), onLimited OnLimited) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity := GetIdentityFromContext(r); identity.IsStaff() && identity.Permissions.IsAll() { // disable for full admins
				next.ServeHTTP(w, r)
				return
			}

			key, err := getKey(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}

			decision, err := l.Allow(r.Context(), key)
			if err != nil {
				logger.Log.Error("rate limiter failed", "limiter", l.Name(), "error", err)
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			if !decision.Allowed {
				metrics.RateLimitedTotal.WithLabelValues(l.Name()).Inc()
				if onLimited != nil {
					onLimited(r, key)
				}
				utils.WriteErrorAndStatusCode(w, internal_errors.RateLimited(decision.RetryAfter))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// KeyFor picks the key function matching the limiter scope.
func KeyFor(scope ratelimiter.Scope) func(r *http.Request) (string, error) {
	if scope == ratelimiter.ScopeIdentity {
		return GetIdentityKey
	}
	return GetIP
}

// GetIdentityKey keys by the authenticated identity, falling back to the
// client IP for anonymous requests.
func GetIdentityKey(r *http.Request) (string, error) {
	identity := GetIdentityFromContext(r)
	switch {
	case identity.IsUser():
		return UserKey(identity.UserId.String()), nil
	case identity.IsStaff():
		return fmt.Sprintf("staff_%d", identity.StaffId), nil
	}
	return GetIP(r)
}

func UserKey(userId string) string {
	return "user_" + userId
}

// GetIP extracts the real client IP from RemoteAddr
// Does NOT trust X-Real-IP or X-Forwarded-For headers (no reverse proxy)
func GetIP(r *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without port
		ip = r.RemoteAddr
	}

	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("invalid IP address: %s", ip)
	}

	return ip, nil
}
