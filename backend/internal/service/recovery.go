package service

import (
	"context"
	"fmt"
	"time"

	"github.com/radake/polihub/shared/config"
	"github.com/radake/polihub/shared/domain"
	"github.com/radake/polihub/shared/logger"
)

const recoveryBatchSize = 500

type RecoveryStorage interface {
	RecoveryCandidates(ctx context.Context, ceiling int, quietSince time.Time, limit int) ([]domain.User, error)
}

type TrustAdjuster interface {
	Adjust(ctx context.Context, userId domain.UserId, delta int, cause domain.TrustCause, causeRef string) (domain.TrustScoreEvent, error)
}

// Recovery slowly restores the score of users who stayed out of trouble.
type Recovery struct {
	storage RecoveryStorage
	trust   TrustAdjuster
	cfg     *config.Trust
	now     func() time.Time
}

func NewRecovery(storage RecoveryStorage, trust TrustAdjuster, cfg *config.Trust) *Recovery {
	return &Recovery{storage: storage, trust: trust, cfg: cfg, now: time.Now}
}

func (r *Recovery) enabled() bool {
	return r.cfg.RecoveryDelta > 0 && r.cfg.RecoveryInterval > 0
}

// RunOnce grants one recovery step to every eligible user. The cause ref is
// derived from the interval bucket, so running twice in one interval grants
// nothing new.
func (r *Recovery) RunOnce(ctx context.Context) (int, error) {
	if !r.enabled() {
		return 0, nil
	}
	ctx, span := tracer.Start(ctx, "Recovery.RunOnce")
	defer span.End()

	now := r.now()
	bucket := now.Truncate(r.cfg.RecoveryInterval).Unix()
	causeRef := fmt.Sprintf("recovery:%d", bucket)

	users, err := r.storage.RecoveryCandidates(ctx, r.cfg.RecoveryCeiling, now.Add(-r.cfg.RecoveryQuietPeriod), recoveryBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to load recovery candidates: %w", err)
	}

	granted := 0
	for _, user := range users {
		delta := min(r.cfg.RecoveryDelta, r.cfg.RecoveryCeiling-user.TrustScore)
		if delta <= 0 {
			continue
		}
		event, err := r.trust.Adjust(ctx, user.Id, delta, domain.CauseRecovery, causeRef)
		if err != nil {
			logger.Log.Error("trust recovery failed for user",
				"component", "trust_recovery",
				"user_id", user.Id,
				"error", err)
			continue
		}
		if event.Applied > 0 {
			granted++
		}
	}
	return granted, nil
}

// StartBackgroundRecovery runs RunOnce on every tick until ctx is cancelled.
func (r *Recovery) StartBackgroundRecovery(ctx context.Context) {
	if !r.enabled() {
		logger.Log.Info("trust recovery disabled", "component", "trust_recovery")
		return
	}

	ticker := time.NewTicker(r.cfg.RecoveryInterval)
	logger.Log.Info("started trust recovery",
		"component", "trust_recovery",
		"interval", r.cfg.RecoveryInterval,
		"delta", r.cfg.RecoveryDelta,
		"ceiling", r.cfg.RecoveryCeiling)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				start := time.Now()
				granted, err := r.RunOnce(ctx)
				if err != nil {
					logger.Log.Error("trust recovery run failed",
						"component", "trust_recovery",
						"error", err)
					continue
				}
				logger.Log.Info("trust recovery run completed",
					"component", "trust_recovery",
					"granted", granted,
					"duration", time.Since(start))
			case <-ctx.Done():
				logger.Log.Info("trust recovery shutting down gracefully",
					"component", "trust_recovery")
				return
			}
		}
	}()
}
