package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/radake/polihub/shared/domain"
)

// GlobalLogout reads the single marker row.
func (s *Storage) GlobalLogout(ctx context.Context) (domain.GlobalLogout, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.globalLogout(ctx, s.db)
}

// SetGlobalLogout moves the marker forward; an older at never rewinds it.
func (s *Storage) SetGlobalLogout(ctx context.Context, at time.Time) (domain.GlobalLogout, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		g        domain.GlobalLogout
		loggedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		UPDATE global_logout
		SET logged_out_at = GREATEST(logged_out_at, $1),
		    version = version + 1
		WHERE id = 1
		RETURNING logged_out_at, version`,
		at.UTC(),
	).Scan(&loggedAt, &g.Version)
	if err != nil {
		return domain.GlobalLogout{}, fmt.Errorf("failed to set global logout: %w", err)
	}
	g.At = loggedAt.Time
	return g, nil
}

func (s *Storage) globalLogout(ctx context.Context, q Querier) (domain.GlobalLogout, error) {
	var (
		g        domain.GlobalLogout
		loggedAt sql.NullTime
	)
	err := q.QueryRowContext(ctx, "SELECT logged_out_at, version FROM global_logout WHERE id = 1").Scan(&loggedAt, &g.Version)
	if err != nil {
		return domain.GlobalLogout{}, fmt.Errorf("failed to query global logout: %w", err)
	}
	if loggedAt.Valid {
		g.At = loggedAt.Time
	}
	return g, nil
}
