package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/radake/polihub/shared/domain"
	internal_errors "github.com/radake/polihub/shared/errors"
	shared_pg "github.com/radake/polihub/shared/storage/pg"
)

// =========================================================================
// Public Methods (satisfy the service.FlagStorage interface)
// =========================================================================

func (s *Storage) SaveFlag(ctx context.Context, flag domain.ModerationFlag) (domain.ModerationFlag, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.saveFlag(ctx, s.db, flag)
}

// SaveHeldPost stores a hidden post together with the pending flag that holds
// it, so a held post is always in the review queue.
func (s *Storage) SaveHeldPost(ctx context.Context, post domain.Post, flag domain.ModerationFlag) (domain.Post, domain.ModerationFlag, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		savedPost domain.Post
		savedFlag domain.ModerationFlag
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		savedPost, savedFlag, err = s.saveHeldPost(ctx, tx, post, flag)
		return err
	})
	if err != nil {
		return domain.Post{}, domain.ModerationFlag{}, err
	}
	return savedPost, savedFlag, nil
}

func (s *Storage) Flag(ctx context.Context, id domain.FlagId) (domain.ModerationFlag, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.flag(ctx, s.db, id)
}

// Flags lists flags with the given status, oldest first.
func (s *Storage) Flags(ctx context.Context, status domain.FlagStatus, limit int) ([]domain.ModerationFlag, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.flags(ctx, s.db, status, limit)
}

// ResolveFlag moves a pending flag to its final status and applies the
// resulting post visibility in one transaction. Only pending flags resolve;
// anything else is a conflict.
func (s *Storage) ResolveFlag(ctx context.Context, res domain.FlagResolution) (domain.ModerationFlag, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var flag domain.ModerationFlag
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		flag, err = s.resolveFlag(ctx, tx, res)
		return err
	})
	return flag, err
}

// AddFlagAdjustment records trust deltas caused by the flag.
func (s *Storage) AddFlagAdjustment(ctx context.Context, id domain.FlagId, applied int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx, "UPDATE moderation_flags SET adjustment = adjustment + $2 WHERE id = $1", id, applied)
	if err != nil {
		return fmt.Errorf("failed to update flag adjustment: %w", err)
	}
	return expectOneRow(result, "Flag not found")
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

const flagColumns = "id, post_id, user_id, source, reported_by, reason, severity, excerpt, status, adjustment, resolved_by, created_at, resolved_at"

func scanFlag(row interface{ Scan(...any) error }) (domain.ModerationFlag, error) {
	var (
		f          domain.ModerationFlag
		postId     sql.NullInt64
		reportedBy uuid.NullUUID
		resolvedBy sql.NullInt64
		resolvedAt sql.NullTime
	)
	err := row.Scan(&f.Id, &postId, &f.UserId, &f.Source, &reportedBy, &f.Reason, &f.Severity,
		&f.Excerpt, &f.Status, &f.Adjustment, &resolvedBy, &f.CreatedAt, &resolvedAt)
	if err != nil {
		return domain.ModerationFlag{}, err
	}
	if postId.Valid {
		f.PostId = &postId.Int64
	}
	if reportedBy.Valid {
		f.ReportedBy = &reportedBy.UUID
	}
	if resolvedBy.Valid {
		f.ResolvedBy = &resolvedBy.Int64
	}
	if resolvedAt.Valid {
		f.ResolvedAt = &resolvedAt.Time
	}
	return f, nil
}

func (s *Storage) saveFlag(ctx context.Context, q Querier, f domain.ModerationFlag) (domain.ModerationFlag, error) {
	var reportedBy uuid.NullUUID
	if f.ReportedBy != nil {
		reportedBy = uuid.NullUUID{UUID: *f.ReportedBy, Valid: true}
	}
	saved, err := scanFlag(q.QueryRowContext(ctx, `
		INSERT INTO moderation_flags (post_id, user_id, source, reported_by, reason, severity, excerpt, status, adjustment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+flagColumns,
		f.PostId, f.UserId, f.Source, reportedBy, f.Reason, f.Severity, f.Excerpt, f.Status, f.Adjustment,
	))
	if err != nil {
		if shared_pg.IsUniqueViolation(err, "moderation_flags_one_report_idx") {
			return domain.ModerationFlag{}, internal_errors.Conflict("Post already reported")
		}
		return domain.ModerationFlag{}, fmt.Errorf("failed to insert flag: %w", err)
	}
	return saved, nil
}

func (s *Storage) saveHeldPost(ctx context.Context, q Querier, post domain.Post, flag domain.ModerationFlag) (domain.Post, domain.ModerationFlag, error) {
	post.Hidden = true
	savedPost, err := s.savePost(ctx, q, post)
	if err != nil {
		return domain.Post{}, domain.ModerationFlag{}, err
	}
	flag.PostId = &savedPost.Id
	savedFlag, err := s.saveFlag(ctx, q, flag)
	if err != nil {
		return domain.Post{}, domain.ModerationFlag{}, err
	}
	return savedPost, savedFlag, nil
}

func (s *Storage) flag(ctx context.Context, q Querier, id domain.FlagId) (domain.ModerationFlag, error) {
	f, err := scanFlag(q.QueryRowContext(ctx, "SELECT "+flagColumns+" FROM moderation_flags WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ModerationFlag{}, internal_errors.NotFound("Flag not found")
		}
		return domain.ModerationFlag{}, fmt.Errorf("failed to query flag: %w", err)
	}
	return f, nil
}

func (s *Storage) flags(ctx context.Context, q Querier, status domain.FlagStatus, limit int) ([]domain.ModerationFlag, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+flagColumns+" FROM moderation_flags WHERE status = $1 ORDER BY created_at, id LIMIT $2",
		status, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query flags: %w", err)
	}
	defer rows.Close()

	flags := []domain.ModerationFlag{}
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flag: %w", err)
		}
		flags = append(flags, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flags: %w", err)
	}
	return flags, nil
}

func (s *Storage) resolveFlag(ctx context.Context, q Querier, res domain.FlagResolution) (domain.ModerationFlag, error) {
	current, err := s.flag(ctx, q, res.Id)
	if err != nil {
		return domain.ModerationFlag{}, err
	}
	// Serialise resolutions touching the same post so the visibility check
	// below sees every committed verdict.
	if current.PostId != nil {
		if _, err := q.ExecContext(ctx, "SELECT id FROM posts WHERE id = $1 FOR UPDATE", *current.PostId); err != nil {
			return domain.ModerationFlag{}, fmt.Errorf("failed to lock post: %w", err)
		}
	}

	f, err := scanFlag(q.QueryRowContext(ctx, `
		UPDATE moderation_flags
		SET status = $2, resolved_by = $3, resolved_at = $4, adjustment = adjustment + $5
		WHERE id = $1 AND status = 'pending'
		RETURNING `+flagColumns,
		res.Id, res.Status, res.By, time.Now().UTC(), res.Applied,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ModerationFlag{}, internal_errors.Conflict("Flag is already resolved")
		}
		return domain.ModerationFlag{}, fmt.Errorf("failed to resolve flag: %w", err)
	}

	if f.PostId != nil {
		if err := s.applyVerdict(ctx, q, *f.PostId, f.Status); err != nil {
			return domain.ModerationFlag{}, err
		}
	}
	return f, nil
}

// applyVerdict hides the post on an upheld flag. A cleared flag makes it
// visible again only when no upheld flag and no pending auto-moderation hold
// remain on it.
func (s *Storage) applyVerdict(ctx context.Context, q Querier, postId domain.PostId, status domain.FlagStatus) error {
	var err error
	switch status {
	case domain.FlagUpheld:
		_, err = q.ExecContext(ctx, "UPDATE posts SET hidden = TRUE WHERE id = $1", postId)
	case domain.FlagCleared:
		_, err = q.ExecContext(ctx, `
			UPDATE posts SET hidden = FALSE
			WHERE id = $1 AND NOT EXISTS (
				SELECT 1 FROM moderation_flags
				WHERE post_id = $1
				  AND (status = 'upheld' OR (status = 'pending' AND source = 'auto'))
			)`, postId)
	}
	if err != nil {
		return fmt.Errorf("failed to update post visibility: %w", err)
	}
	return nil
}
