package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/radake/polihub/shared/domain"
	internal_errors "github.com/radake/polihub/shared/errors"
	"github.com/radake/polihub/shared/logger"
)

// Claims carries the credential kind and a microsecond issue time, which the
// global logout marker is compared against. Microseconds match the precision
// the marker is stored with.
type Claims struct {
	Kind       domain.CredentialKind `json:"kind"`
	IssuedAtUs int64                 `json:"iat_us"`
	jwt.RegisteredClaims
}

func (c *Claims) IssuedAtTime() time.Time {
	return time.UnixMicro(c.IssuedAtUs)
}

// UserId parses the subject of a user token.
func (c *Claims) UserId() (domain.UserId, error) {
	if c.Kind != domain.KindUser {
		return uuid.Nil, errors.New("not a user token")
	}
	return uuid.Parse(c.Subject)
}

// StaffId parses the subject of a staff token.
func (c *Claims) StaffId() (domain.StaffId, error) {
	if c.Kind != domain.KindStaff {
		return 0, errors.New("not a staff token")
	}
	return strconv.ParseInt(c.Subject, 10, 64)
}

type JwtService interface {
	NewUserToken(id domain.UserId) (string, error)
	NewStaffToken(id domain.StaffId) (string, error)
	DecodeToken(jwtStr string) (*Claims, error)
	TTL(kind domain.CredentialKind) time.Duration
}

type Jwt struct {
	secretKey string
	userTTL   time.Duration
	staffTTL  time.Duration
	now       func() time.Time
}

func New(secretKey string, userTTL, staffTTL time.Duration) *Jwt {
	return &Jwt{secretKey: secretKey, userTTL: userTTL, staffTTL: staffTTL, now: time.Now}
}

func (j *Jwt) TTL(kind domain.CredentialKind) time.Duration {
	if kind == domain.KindStaff {
		return j.staffTTL
	}
	return j.userTTL
}

func (j *Jwt) NewUserToken(id domain.UserId) (string, error) {
	return j.newToken(domain.KindUser, id.String())
}

func (j *Jwt) NewStaffToken(id domain.StaffId) (string, error) {
	return j.newToken(domain.KindStaff, strconv.FormatInt(id, 10))
}

func (j *Jwt) newToken(kind domain.CredentialKind, subject string) (string, error) {
	now := j.now()
	claims := Claims{
		Kind:       kind,
		IssuedAtUs: now.UnixMicro(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL(kind))),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		logger.Log.Error("failed to sign jwt", "kind", kind, "error", err)
		return "", fmt.Errorf("can't create token: %w", err)
	}
	return tokenString, nil
}

func (j *Jwt) DecodeToken(jwtStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(jwtStr, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal_errors.Unauthenticated("Token expired")
		}
		logger.Log.Debug("jwt decode failed", "error", err)
		return nil, internal_errors.Unauthenticated("Invalid token")
	}
	if !token.Valid {
		return nil, internal_errors.Unauthenticated("Invalid token")
	}
	if claims.Kind != domain.KindUser && claims.Kind != domain.KindStaff {
		return nil, internal_errors.Unauthenticated("Invalid token")
	}
	if claims.IssuedAtUs == 0 {
		return nil, internal_errors.Unauthenticated("Invalid token")
	}
	return claims, nil
}
