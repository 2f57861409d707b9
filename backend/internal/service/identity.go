package service

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/radake/polihub/shared/config"
	"github.com/radake/polihub/shared/domain"
	"github.com/radake/polihub/shared/errors"
	"github.com/radake/polihub/shared/logger"
)

type IdentityService interface {
	Create(ctx context.Context, current *domain.UserId, requested domain.Profile) (user domain.User, token string, created bool, err error)
	Me(ctx context.Context, id domain.UserId) (domain.User, error)
	UpdateProfile(ctx context.Context, id domain.UserId, profile domain.Profile) (domain.User, error)
}

type IdentityStorage interface {
	SaveUser(ctx context.Context, user domain.User) (domain.User, error)
	User(ctx context.Context, id domain.UserId) (domain.User, error)
	UpdateProfile(ctx context.Context, id domain.UserId, profile domain.Profile) (domain.User, error)
}

type UserJwt interface {
	NewUserToken(id domain.UserId) (string, error)
}

type Identity struct {
	storage IdentityStorage
	jwt     UserJwt
	cfg     *config.Trust
}

func NewIdentity(storage IdentityStorage, jwt UserJwt, cfg *config.Trust) *Identity {
	return &Identity{storage: storage, jwt: jwt, cfg: cfg}
}

// Create returns the caller's identity when current points at an existing
// user, and mints a new pseudonymous identity otherwise. A new identity gets
// the baseline trust score and a fresh user token.
func (s *Identity) Create(ctx context.Context, current *domain.UserId, requested domain.Profile) (domain.User, string, bool, error) {
	ctx, span := tracer.Start(ctx, "Identity.Create")
	defer span.End()

	if current != nil {
		user, err := s.storage.User(ctx, *current)
		if err == nil {
			return user, "", false, nil
		}
		if !errors.IsNotFound(err) {
			return domain.User{}, "", false, err
		}
		// token outlived its user row; fall through and mint a new identity
	}

	if err := validateProfile(requested); err != nil {
		return domain.User{}, "", false, err
	}

	user := domain.User{
		Id:          uuid.New(),
		Nickname:    valueOr(requested.Nickname, randomNickname),
		AvatarEmoji: valueOr(requested.AvatarEmoji, randomEmoji),
		County:      valueOr(requested.County, randomCounty),
		TrustScore:  s.cfg.Baseline,
	}
	saved, err := s.storage.SaveUser(ctx, user)
	if err != nil {
		return domain.User{}, "", false, err
	}

	token, err := s.jwt.NewUserToken(saved.Id)
	if err != nil {
		return domain.User{}, "", false, err
	}

	logger.Log.Info("identity created", "user_id", saved.Id, "county", saved.County)
	return saved, token, true, nil
}

func (s *Identity) Me(ctx context.Context, id domain.UserId) (domain.User, error) {
	return s.storage.User(ctx, id)
}

func (s *Identity) UpdateProfile(ctx context.Context, id domain.UserId, profile domain.Profile) (domain.User, error) {
	if profile.Nickname == nil && profile.AvatarEmoji == nil && profile.County == nil {
		return domain.User{}, errors.Validation("Nothing to update")
	}
	if err := validateProfile(profile); err != nil {
		return domain.User{}, err
	}
	return s.storage.UpdateProfile(ctx, id, profile)
}

func validateProfile(p domain.Profile) error {
	if p.Nickname != nil {
		nick := strings.TrimSpace(*p.Nickname)
		if n := utf8.RuneCountInString(nick); n < 3 || n > 32 {
			return errors.Validation("Nickname must be 3 to 32 characters")
		}
		for _, r := range nick {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				return errors.Validation("Nickname may only contain letters, digits and underscores")
			}
		}
		*p.Nickname = nick
	}
	if p.AvatarEmoji != nil && !validEmoji(*p.AvatarEmoji) {
		return errors.Validation("Unknown avatar emoji")
	}
	if p.County != nil && !validCounty(*p.County) {
		return errors.Validation("Unknown county")
	}
	return nil
}

func valueOr(v *string, fallback func() string) string {
	if v != nil && *v != "" {
		return *v
	}
	return fallback()
}
