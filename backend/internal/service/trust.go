package service

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/radake/polihub/shared/config"
	"github.com/radake/polihub/shared/domain"
	"github.com/radake/polihub/shared/errors"
	"github.com/radake/polihub/shared/logger"
	"github.com/radake/polihub/shared/middleware/metrics"
	"github.com/radake/polihub/shared/middleware/ratelimiter"
)

const historyLimit = 50

type TrustService interface {
	Adjust(ctx context.Context, userId domain.UserId, delta int, cause domain.TrustCause, causeRef string) (domain.TrustScoreEvent, error)
	Standing(ctx context.Context, userId domain.UserId) (domain.User, domain.Standing, error)
	PostingEligibility(ctx context.Context, userId domain.UserId) (domain.Standing, error)
	RecordViolation(ctx context.Context, userId domain.UserId) error
	Restore(ctx context.Context, userId domain.UserId, by domain.StaffId) (domain.User, domain.Standing, error)
	History(ctx context.Context, userId domain.UserId) ([]domain.TrustScoreEvent, error)
	ManualAdjust(ctx context.Context, userId domain.UserId, delta int, causeRef string, by domain.StaffId) (domain.TrustScoreEvent, domain.Standing, error)
}

type TrustStorage interface {
	AdjustTrust(ctx context.Context, userId domain.UserId, delta int, cause domain.TrustCause, causeRef string, bounds domain.ScoreBounds) (domain.TrustScoreEvent, bool, error)
	TrustEvents(ctx context.Context, userId domain.UserId, limit int) ([]domain.TrustScoreEvent, error)
	User(ctx context.Context, id domain.UserId) (domain.User, error)
}

// Trust owns every change to a user's trust score and derives posting
// standing from the score and the recent rate limit violations.
type Trust struct {
	storage    TrustStorage
	violations ratelimiter.Store
	cfg        *config.Trust
}

func NewTrust(storage TrustStorage, violations ratelimiter.Store, cfg *config.Trust) *Trust {
	return &Trust{storage: storage, violations: violations, cfg: cfg}
}

func (s *Trust) bounds() domain.ScoreBounds {
	return domain.ScoreBounds{Min: s.cfg.Min, Max: s.cfg.Max}
}

func violationKey(userId domain.UserId) string {
	return "violations:user_" + userId.String()
}

// Adjust applies delta, clamped to the configured bounds. A repeated
// (cause, causeRef) pair returns the stored event and changes nothing.
func (s *Trust) Adjust(ctx context.Context, userId domain.UserId, delta int, cause domain.TrustCause, causeRef string) (domain.TrustScoreEvent, error) {
	ctx, span := tracer.Start(ctx, "Trust.Adjust")
	defer span.End()
	span.SetAttributes(
		attribute.String("trust.cause", string(cause)),
		attribute.Int("trust.delta", delta),
	)

	event, created, err := s.storage.AdjustTrust(ctx, userId, delta, cause, causeRef, s.bounds())
	if err != nil {
		failSpan(span, err, "adjust failed")
		return domain.TrustScoreEvent{}, err
	}
	if !created {
		logger.Log.Debug("trust adjustment already applied",
			"user_id", userId, "cause", cause, "cause_ref", causeRef)
		return event, nil
	}

	if event.Applied != 0 {
		metrics.TrustAdjustmentsTotal.WithLabelValues(string(cause)).Inc()
	}
	logger.Log.Info("trust adjusted",
		"user_id", userId,
		"cause", cause,
		"cause_ref", causeRef,
		"delta", event.Delta,
		"applied", event.Applied,
		"score", event.ScoreAfter)
	return event, nil
}

func (s *Trust) standingFromScore(score int) domain.Standing {
	switch {
	case score < s.cfg.BlockThreshold:
		return domain.StandingBlocked
	case score < s.cfg.ThrottleThreshold:
		return domain.StandingThrottled
	}
	return domain.StandingNormal
}

func (s *Trust) standingFromViolations(count int64) domain.Standing {
	switch {
	case count >= int64(s.cfg.BlockAfterViolations):
		return domain.StandingBlocked
	case count >= int64(s.cfg.ThrottleAfterViolations):
		return domain.StandingThrottled
	}
	return domain.StandingNormal
}

// Standing is the worse of the score standing and the violation standing.
func (s *Trust) Standing(ctx context.Context, userId domain.UserId) (domain.User, domain.Standing, error) {
	user, err := s.storage.User(ctx, userId)
	if err != nil {
		return domain.User{}, domain.StandingNormal, err
	}
	count, err := s.violations.Peek(ctx, violationKey(userId))
	if err != nil {
		return domain.User{}, domain.StandingNormal, err
	}
	return user, domain.WorstStanding(s.standingFromScore(user.TrustScore), s.standingFromViolations(count)), nil
}

func (s *Trust) PostingEligibility(ctx context.Context, userId domain.UserId) (domain.Standing, error) {
	_, standing, err := s.Standing(ctx, userId)
	return standing, err
}

// RecordViolation counts one rate limit rejection against the user inside
// the violation window.
func (s *Trust) RecordViolation(ctx context.Context, userId domain.UserId) error {
	count, _, err := s.violations.Incr(ctx, violationKey(userId), s.cfg.ViolationWindow)
	if err != nil {
		return err
	}
	logger.Log.Info("rate limit violation recorded", "user_id", userId, "count", count)
	return nil
}

// Restore moves the user exactly one standing step up. Violations are
// cleared and the score is lifted to the threshold of the target standing.
func (s *Trust) Restore(ctx context.Context, userId domain.UserId, by domain.StaffId) (domain.User, domain.Standing, error) {
	ctx, span := tracer.Start(ctx, "Trust.Restore")
	defer span.End()

	user, current, err := s.Standing(ctx, userId)
	if err != nil {
		return domain.User{}, current, err
	}
	if current == domain.StandingNormal {
		return domain.User{}, current, errors.Conflict("User is already in normal standing")
	}
	target := current - 1

	key := violationKey(userId)
	count, err := s.violations.Peek(ctx, key)
	if err != nil {
		return domain.User{}, current, err
	}
	if s.standingFromViolations(count) > target {
		if err := s.violations.Reset(ctx, key); err != nil {
			return domain.User{}, current, err
		}
		// blocked by violations alone: keep enough of them to stay throttled
		if target == domain.StandingThrottled && s.standingFromScore(user.TrustScore) < target {
			for range s.cfg.ThrottleAfterViolations {
				if _, _, err := s.violations.Incr(ctx, key, s.cfg.ViolationWindow); err != nil {
					return domain.User{}, current, err
				}
			}
		}
	}

	floor := s.cfg.ThrottleThreshold
	if target == domain.StandingThrottled {
		floor = s.cfg.BlockThreshold
	}
	if user.TrustScore < floor {
		event, err := s.Adjust(ctx, userId, floor-user.TrustScore, domain.CauseModeratorRestore, "restore:"+uuid.NewString())
		if err != nil {
			return domain.User{}, current, err
		}
		user.TrustScore = event.ScoreAfter
	}

	logger.Log.Info("user standing restored",
		"user_id", userId,
		"staff_id", by,
		"from", current.String(),
		"to", target.String())
	return user, target, nil
}

func (s *Trust) History(ctx context.Context, userId domain.UserId) ([]domain.TrustScoreEvent, error) {
	return s.storage.TrustEvents(ctx, userId, historyLimit)
}

func (s *Trust) ManualAdjust(ctx context.Context, userId domain.UserId, delta int, causeRef string, by domain.StaffId) (domain.TrustScoreEvent, domain.Standing, error) {
	if delta == 0 {
		return domain.TrustScoreEvent{}, domain.StandingNormal, errors.Validation("Delta must not be zero")
	}
	if causeRef == "" {
		return domain.TrustScoreEvent{}, domain.StandingNormal, errors.Validation("cause_ref is required")
	}
	if _, err := s.storage.User(ctx, userId); err != nil {
		return domain.TrustScoreEvent{}, domain.StandingNormal, err
	}

	event, err := s.Adjust(ctx, userId, delta, domain.CauseManual, "manual:"+causeRef)
	if err != nil {
		return domain.TrustScoreEvent{}, domain.StandingNormal, err
	}
	logger.Log.Info("manual trust adjustment", "user_id", userId, "staff_id", by, "cause_ref", causeRef)

	_, standing, err := s.Standing(ctx, userId)
	if err != nil {
		return event, domain.StandingNormal, err
	}
	return event, standing, nil
}
