package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/radake/polihub/shared/domain"
	internal_errors "github.com/radake/polihub/shared/errors"
)

// =========================================================================
// Public Methods (satisfy the service.TrustStorage interface)
// =========================================================================

// AdjustTrust applies delta to the user's score inside one transaction. The
// user row is locked first, so concurrent adjustments serialise and the
// aggregate always equals the baseline plus the sum of applied deltas.
// A repeated (cause, causeRef) returns the stored event and created=false.
func (s *Storage) AdjustTrust(ctx context.Context, userId domain.UserId, delta int, cause domain.TrustCause, causeRef string, bounds domain.ScoreBounds) (event domain.TrustScoreEvent, created bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var txErr error
		event, created, txErr = s.adjustTrust(ctx, tx, userId, delta, cause, causeRef, bounds)
		return txErr
	})
	return event, created, err
}

func (s *Storage) TrustEvents(ctx context.Context, userId domain.UserId, limit int) ([]domain.TrustScoreEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.trustEvents(ctx, s.db, userId, limit)
}

// RecoveryCandidates lists users below ceiling whose last negative event is
// older than quietSince (or who never had one).
func (s *Storage) RecoveryCandidates(ctx context.Context, ceiling int, quietSince time.Time, limit int) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.recoveryCandidates(ctx, s.db, ceiling, quietSince, limit)
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

const trustEventColumns = "id, user_id, delta, applied, cause, cause_ref, score_after, created_at"

func scanTrustEvent(row interface{ Scan(...any) error }) (domain.TrustScoreEvent, error) {
	var e domain.TrustScoreEvent
	err := row.Scan(&e.Id, &e.UserId, &e.Delta, &e.Applied, &e.Cause, &e.CauseRef, &e.ScoreAfter, &e.CreatedAt)
	return e, err
}

func (s *Storage) adjustTrust(ctx context.Context, q Querier, userId domain.UserId, delta int, cause domain.TrustCause, causeRef string, bounds domain.ScoreBounds) (domain.TrustScoreEvent, bool, error) {
	var current int
	err := q.QueryRowContext(ctx, "SELECT trust_score FROM users WHERE id = $1 FOR UPDATE", userId).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TrustScoreEvent{}, false, internal_errors.NotFound("User not found")
		}
		return domain.TrustScoreEvent{}, false, fmt.Errorf("failed to lock user for trust adjustment: %w", err)
	}

	// The row lock makes check-then-insert safe for the same user.
	existing, err := scanTrustEvent(q.QueryRowContext(ctx,
		"SELECT "+trustEventColumns+" FROM trust_score_events WHERE user_id = $1 AND cause = $2 AND cause_ref = $3",
		userId, cause, causeRef,
	))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.TrustScoreEvent{}, false, fmt.Errorf("failed to query trust event: %w", err)
	}

	score, applied := bounds.ApplyDelta(current, delta)

	event, err := scanTrustEvent(q.QueryRowContext(ctx, `
		INSERT INTO trust_score_events (user_id, delta, applied, cause, cause_ref, score_after)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+trustEventColumns,
		userId, delta, applied, cause, causeRef, score,
	))
	if err != nil {
		return domain.TrustScoreEvent{}, false, fmt.Errorf("failed to insert trust event: %w", err)
	}

	if applied != 0 {
		if _, err := q.ExecContext(ctx, "UPDATE users SET trust_score = $2 WHERE id = $1", userId, score); err != nil {
			return domain.TrustScoreEvent{}, false, fmt.Errorf("failed to update trust score: %w", err)
		}
	}
	return event, true, nil
}

func (s *Storage) trustEvents(ctx context.Context, q Querier, userId domain.UserId, limit int) ([]domain.TrustScoreEvent, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+trustEventColumns+" FROM trust_score_events WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2",
		userId, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query trust events: %w", err)
	}
	defer rows.Close()

	events := []domain.TrustScoreEvent{}
	for rows.Next() {
		e, err := scanTrustEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trust event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trust events: %w", err)
	}
	return events, nil
}

func (s *Storage) recoveryCandidates(ctx context.Context, q Querier, ceiling int, quietSince time.Time, limit int) ([]domain.User, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT u.id, u.nickname, u.avatar_emoji, u.county, u.trust_score, u.created_at
		FROM users u
		WHERE u.trust_score < $1
		  AND NOT EXISTS (
			SELECT 1 FROM trust_score_events e
			WHERE e.user_id = u.id AND e.delta < 0 AND e.created_at >= $2
		  )
		ORDER BY u.trust_score ASC, u.id
		LIMIT $3`,
		ceiling, quietSince, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recovery candidates: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recovery candidate: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recovery candidates: %w", err)
	}
	return users, nil
}
