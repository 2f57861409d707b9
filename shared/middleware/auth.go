package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/radake/polihub/shared/domain"
	internal_errors "github.com/radake/polihub/shared/errors"
	jwt_internal "github.com/radake/polihub/shared/jwt"
	"github.com/radake/polihub/shared/logger"
	"github.com/radake/polihub/shared/utils"
)

const (
	UserCookie  = "polihubToken"
	StaffCookie = "staffToken"
)

var tracer = otel.Tracer("github.com/radake/polihub/shared/middleware")

// StaffStorage resolves staff accounts on every staff request, so deactivation
// and permission edits apply without waiting for token expiry.
type StaffStorage interface {
	StaffById(ctx context.Context, id domain.StaffId) (domain.Staff, error)
}

// LogoutMarker reports tokens issued before the last global logout.
type LogoutMarker interface {
	Revoked(issuedAt time.Time) bool
}

// Key to store the identity in the request context
type key int

const IdentityKey key = 0

var (
	errNoToken     = internal_errors.Unauthenticated("Please sign-in")
	errRevoked     = internal_errors.Unauthenticated("Session expired, please sign-in again")
	errWrongKind   = internal_errors.Unauthenticated("Invalid token")
	errStaffGone   = internal_errors.Unauthenticated("Account is not active")
	errStaffOnly   = internal_errors.Unauthorized("Access denied. Only for staff")
	errVisitorOnly = internal_errors.Unauthorized("Access denied. Only for visitors")
)

// Auth holds dependencies for authentication middleware
type Auth struct {
	jwtService    jwt_internal.JwtService
	marker        LogoutMarker
	staff         StaffStorage
	secureCookies bool
}

func NewAuth(jwtService jwt_internal.JwtService, marker LogoutMarker, staff StaffStorage, secureCookies bool) *Auth {
	return &Auth{
		jwtService:    jwtService,
		marker:        marker,
		staff:         staff,
		secureCookies: secureCookies,
	}
}

// NeedUser requires an anonymous user token.
func (a *Auth) NeedUser() func(http.Handler) http.Handler {
	return a.require(domain.KindUser)
}

// NeedStaff requires an active staff account.
func (a *Auth) NeedStaff() func(http.Handler) http.Handler {
	return a.require(domain.KindStaff)
}

// OptionalUser attaches the user identity when a valid user token is present
// and lets the request through otherwise.
func (a *Auth) OptionalUser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := a.Authenticate(r.Context(), r, domain.KindUser)
			if err != nil || !identity.IsUser() {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func (a *Auth) require(kind domain.CredentialKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := a.Authenticate(r.Context(), r, kind)
			if err != nil {
				if err == errRevoked {
					a.clearCookie(w, cookieFor(kind))
				}
				utils.WriteErrorAndStatusCode(w, err)
				return
			}

			if identity.Kind != kind {
				if kind == domain.KindStaff {
					utils.WriteErrorAndStatusCode(w, errStaffOnly)
				} else {
					utils.WriteErrorAndStatusCode(w, errVisitorOnly)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func cookieFor(kind domain.CredentialKind) string {
	if kind == domain.KindStaff {
		return StaffCookie
	}
	return UserCookie
}

// tokenFromRequest reads the kind-specific cookie first (browser clients), then
// the Authorization header (API clients), then the other kind's cookie so a
// wrong-kind credential is reported as forbidden rather than missing.
func tokenFromRequest(r *http.Request, kind domain.CredentialKind) string {
	if c, err := r.Cookie(cookieFor(kind)); err == nil && c.Value != "" {
		return c.Value
	}
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		return strings.TrimSpace(token)
	}
	other := domain.KindStaff
	if kind == domain.KindStaff {
		other = domain.KindUser
	}
	if c, err := r.Cookie(cookieFor(other)); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}

// Authenticate validates the presented credential and builds the identity.
// The returned identity may be of a different kind than preferred when a
// bearer token of the other kind was sent; callers decide what that means.
func (a *Auth) Authenticate(ctx context.Context, r *http.Request, preferred domain.CredentialKind) (*domain.Identity, error) {
	ctx, span := tracer.Start(ctx, "Auth.Authenticate")
	defer span.End()

	tokenString := tokenFromRequest(r, preferred)
	if tokenString == "" {
		span.SetStatus(codes.Error, "no token")
		return nil, errNoToken
	}

	claims, err := a.jwtService.DecodeToken(tokenString)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if a.marker != nil && a.marker.Revoked(claims.IssuedAtTime()) {
		span.SetStatus(codes.Error, "revoked")
		return nil, errRevoked
	}

	identity := &domain.Identity{Kind: claims.Kind, IssuedAt: claims.IssuedAtTime()}
	switch claims.Kind {
	case domain.KindUser:
		uid, err := claims.UserId()
		if err != nil {
			logger.Log.Warn("user token with bad subject", "sub", claims.Subject)
			return nil, errWrongKind
		}
		identity.UserId = uid
		span.SetAttributes(attribute.String("user.id", uid.String()))

	case domain.KindStaff:
		sid, err := claims.StaffId()
		if err != nil {
			logger.Log.Warn("staff token with bad subject", "sub", claims.Subject)
			return nil, errWrongKind
		}
		staff, err := a.staff.StaffById(ctx, sid)
		if err != nil {
			if internal_errors.IsNotFound(err) {
				return nil, errStaffGone
			}
			span.RecordError(err)
			logger.Log.Error("failed to resolve staff", "staff_id", sid, "error", err)
			return nil, err
		}
		if !staff.Active {
			return nil, errStaffGone
		}
		identity.StaffId = staff.Id
		identity.Role = staff.Role
		identity.Permissions = staff.Permissions
		span.SetAttributes(attribute.Int64("staff.id", sid))

	default:
		return nil, errWrongKind
	}

	return identity, nil
}

func (a *Auth) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     name,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// WithIdentity returns ctx carrying identity.
func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// GetIdentityFromContext retrieves the identity attached by the auth middleware.
func GetIdentityFromContext(r *http.Request) *domain.Identity {
	identity, ok := r.Context().Value(IdentityKey).(*domain.Identity)
	if !ok {
		return nil
	}
	return identity
}
