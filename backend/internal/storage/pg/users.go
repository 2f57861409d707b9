package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/radake/polihub/shared/domain"
	internal_errors "github.com/radake/polihub/shared/errors"
)

// =========================================================================
// Public Methods (satisfy the service.IdentityStorage interface)
// =========================================================================

// SaveUser inserts a freshly generated identity.
func (s *Storage) SaveUser(ctx context.Context, user domain.User) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.saveUser(ctx, s.db, user)
}

func (s *Storage) User(ctx context.Context, id domain.UserId) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.user(ctx, s.db, id)
}

// UpdateProfile changes only the fields set in profile.
func (s *Storage) UpdateProfile(ctx context.Context, id domain.UserId, profile domain.Profile) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.updateProfile(ctx, s.db, id, profile)
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

const userColumns = "id, nickname, avatar_emoji, county, trust_score, created_at"

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.Id, &u.Nickname, &u.AvatarEmoji, &u.County, &u.TrustScore, &u.CreatedAt)
	return u, err
}

func (s *Storage) saveUser(ctx context.Context, q Querier, user domain.User) (domain.User, error) {
	saved, err := scanUser(q.QueryRowContext(ctx, `
		INSERT INTO users (id, nickname, avatar_emoji, county, trust_score)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		user.Id, user.Nickname, user.AvatarEmoji, user.County, user.TrustScore,
	))
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return saved, nil
}

func (s *Storage) user(ctx context.Context, q Querier, id domain.UserId) (domain.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NotFound("User not found")
		}
		return domain.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

func (s *Storage) updateProfile(ctx context.Context, q Querier, id domain.UserId, p domain.Profile) (domain.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx, `
		UPDATE users SET
			nickname     = COALESCE($2, nickname),
			avatar_emoji = COALESCE($3, avatar_emoji),
			county       = COALESCE($4, county)
		WHERE id = $1
		RETURNING `+userColumns,
		id, p.Nickname, p.AvatarEmoji, p.County,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NotFound("User not found")
		}
		return domain.User{}, fmt.Errorf("failed to update profile: %w", err)
	}
	return u, nil
}
