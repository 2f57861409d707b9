package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/radake/polihub/shared/config"
	"github.com/radake/polihub/shared/domain"
	"github.com/radake/polihub/shared/errors"
	"github.com/radake/polihub/shared/logger"
	"github.com/radake/polihub/shared/middleware/metrics"
	"github.com/radake/polihub/shared/middleware/ratelimiter"
)

const (
	excerptRunes   = 120
	flagQueueLimit = 100
)

type ContentService interface {
	Submit(ctx context.Context, userId domain.UserId, sub domain.Submission) (domain.SubmissionResult, error)
	Post(ctx context.Context, id domain.PostId) (domain.Post, string, error)
	Report(ctx context.Context, reporter domain.UserId, postId domain.PostId, reason string) (domain.ModerationFlag, error)
	Flags(ctx context.Context, status domain.FlagStatus) ([]domain.ModerationFlag, error)
	ResolveFlag(ctx context.Context, id domain.FlagId, status domain.FlagStatus, by domain.StaffId) (domain.ModerationFlag, error)
}

type ContentStorage interface {
	SavePost(ctx context.Context, post domain.Post) (domain.Post, error)
	SaveHeldPost(ctx context.Context, post domain.Post, flag domain.ModerationFlag) (domain.Post, domain.ModerationFlag, error)
	Post(ctx context.Context, id domain.PostId) (domain.Post, error)
	SaveFlag(ctx context.Context, flag domain.ModerationFlag) (domain.ModerationFlag, error)
	Flag(ctx context.Context, id domain.FlagId) (domain.ModerationFlag, error)
	Flags(ctx context.Context, status domain.FlagStatus, limit int) ([]domain.ModerationFlag, error)
	ResolveFlag(ctx context.Context, res domain.FlagResolution) (domain.ModerationFlag, error)
	AddFlagAdjustment(ctx context.Context, id domain.FlagId, applied int) error
}

type Screener interface {
	Screen(content string) domain.Verdict
}

type Renderer interface {
	Sanitize(body string) string
	Render(body string) (string, error)
}

type TrustEngine interface {
	Adjust(ctx context.Context, userId domain.UserId, delta int, cause domain.TrustCause, causeRef string) (domain.TrustScoreEvent, error)
	PostingEligibility(ctx context.Context, userId domain.UserId) (domain.Standing, error)
	RecordViolation(ctx context.Context, userId domain.UserId) error
}

// PostingLimiters picks the posting limiter by standing.
type PostingLimiters struct {
	Normal    *ratelimiter.Limiter
	Throttled *ratelimiter.Limiter
}

type Content struct {
	storage  ContentStorage
	screener Screener
	renderer Renderer
	trust    TrustEngine
	limiters PostingLimiters
	cfg      *config.Trust
}

func NewContent(storage ContentStorage, screener Screener, renderer Renderer, trust TrustEngine, limiters PostingLimiters, cfg *config.Trust) *Content {
	return &Content{
		storage:  storage,
		screener: screener,
		renderer: renderer,
		trust:    trust,
		limiters: limiters,
		cfg:      cfg,
	}
}

// Submit runs a submission through the eligibility gate, the posting limiter
// and the filter. Held content is stored hidden with a pending flag; rejected
// content is never stored and gets an upheld flag.
func (s *Content) Submit(ctx context.Context, userId domain.UserId, sub domain.Submission) (domain.SubmissionResult, error) {
	ctx, span := tracer.Start(ctx, "Content.Submit")
	defer span.End()

	if err := s.validateSubmission(ctx, &sub); err != nil {
		return domain.SubmissionResult{}, err
	}

	standing, err := s.trust.PostingEligibility(ctx, userId)
	if err != nil {
		failSpan(span, err, "eligibility failed")
		return domain.SubmissionResult{}, err
	}
	span.SetAttributes(attribute.String("trust.standing", standing.String()))
	if standing == domain.StandingBlocked {
		return domain.SubmissionResult{}, errors.Unauthorized("Posting is blocked for this identity")
	}

	limiter := s.limiters.Normal
	if standing == domain.StandingThrottled {
		limiter = s.limiters.Throttled
	}
	decision, err := limiter.Allow(ctx, "user_"+userId.String())
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	if !decision.Allowed {
		metrics.RateLimitedTotal.WithLabelValues(limiter.Name()).Inc()
		if err := s.trust.RecordViolation(ctx, userId); err != nil {
			logger.Log.Error("failed to record violation", "user_id", userId, "error", err)
		}
		return domain.SubmissionResult{}, errors.RateLimited(decision.RetryAfter)
	}

	verdict := s.screener.Screen(sub.Body)
	metrics.ModerationVerdictsTotal.WithLabelValues(string(verdict.Action)).Inc()
	span.SetAttributes(attribute.String("moderation.action", string(verdict.Action)))
	result := domain.SubmissionResult{Verdict: verdict}

	switch verdict.Action {
	case domain.ActionAllow:
		post, err := s.storage.SavePost(ctx, s.newPost(userId, sub, false))
		if err != nil {
			failSpan(span, err, "store failed")
			return domain.SubmissionResult{}, err
		}
		result.Post = post
		if s.cfg.ContributionReward > 0 {
			ref := fmt.Sprintf("post:%d", post.Id)
			if _, err := s.trust.Adjust(ctx, userId, s.cfg.ContributionReward, domain.CauseContribution, ref); err != nil {
				logger.Log.Error("failed to reward contribution", "user_id", userId, "post_id", post.Id, "error", err)
			}
		}
		return result, nil

	case domain.ActionHold:
		post, flag, err := s.storage.SaveHeldPost(ctx, s.newPost(userId, sub, true), autoFlag(userId, sub.Body, verdict, domain.FlagPending))
		if err != nil {
			failSpan(span, err, "store failed")
			return domain.SubmissionResult{}, err
		}
		if flag, err = s.provisionalPenalty(ctx, flag); err != nil {
			return domain.SubmissionResult{}, err
		}
		result.Post = post
		result.Flag = &flag
		return result, nil

	default:
		flag, err := s.storage.SaveFlag(ctx, autoFlag(userId, sub.Body, verdict, domain.FlagUpheld))
		if err != nil {
			return domain.SubmissionResult{}, err
		}
		if flag, err = s.provisionalPenalty(ctx, flag); err != nil {
			return domain.SubmissionResult{}, err
		}
		logger.Log.Info("content rejected", "user_id", userId, "flag_id", flag.Id, "reasons", verdict.Reasons)
		return domain.SubmissionResult{}, errors.ContentRejected("Content rejected: " + strings.Join(verdict.Reasons, ", "))
	}
}

func (s *Content) validateSubmission(ctx context.Context, sub *domain.Submission) error {
	sub.Body = strings.TrimSpace(sub.Body)
	if sub.Body == "" {
		return errors.Validation("Body must not be empty")
	}
	if sub.Kind == "" {
		sub.Kind = domain.PostKindPost
		if sub.ParentId != nil {
			sub.Kind = domain.PostKindComment
		}
	}
	switch sub.Kind {
	case domain.PostKindPost:
		if sub.ParentId != nil {
			return errors.Validation("A post cannot have a parent")
		}
	case domain.PostKindComment:
		if sub.ParentId == nil {
			return errors.Validation("A comment needs a parent post")
		}
		parent, err := s.storage.Post(ctx, *sub.ParentId)
		if err != nil {
			return err
		}
		if parent.Hidden {
			return errors.NotFound("Post not found")
		}
	default:
		return errors.Validation("Unknown post kind")
	}
	return nil
}

func (s *Content) newPost(userId domain.UserId, sub domain.Submission, hidden bool) domain.Post {
	return domain.Post{
		UserId:   userId,
		Kind:     sub.Kind,
		ParentId: sub.ParentId,
		Body:     s.renderer.Sanitize(sub.Body),
		Hidden:   hidden,
	}
}

// autoFlag records a filter verdict against the author.
func autoFlag(userId domain.UserId, body string, verdict domain.Verdict, status domain.FlagStatus) domain.ModerationFlag {
	return domain.ModerationFlag{
		UserId:   userId,
		Source:   domain.FlagSourceAuto,
		Reason:   strings.Join(verdict.Reasons, ","),
		Severity: verdict.Severity,
		Excerpt:  excerpt(body),
		Status:   status,
	}
}

// provisionalPenalty charges the author for a stored auto flag and records the
// applied delta on it.
func (s *Content) provisionalPenalty(ctx context.Context, flag domain.ModerationFlag) (domain.ModerationFlag, error) {
	delta := -s.cfg.PenaltyPerSeverity * flag.Severity
	if delta == 0 {
		return flag, nil
	}
	event, err := s.trust.Adjust(ctx, flag.UserId, delta, domain.CauseAutoModeration, fmt.Sprintf("flag:%d", flag.Id))
	if err != nil {
		return domain.ModerationFlag{}, err
	}
	if event.Applied == 0 {
		return flag, nil
	}
	if err := s.storage.AddFlagAdjustment(ctx, flag.Id, event.Applied); err != nil {
		return domain.ModerationFlag{}, err
	}
	flag.Adjustment += event.Applied
	return flag, nil
}

// Post returns a visible post together with its rendered HTML.
func (s *Content) Post(ctx context.Context, id domain.PostId) (domain.Post, string, error) {
	post, err := s.storage.Post(ctx, id)
	if err != nil {
		return domain.Post{}, "", err
	}
	if post.Hidden {
		return domain.Post{}, "", errors.NotFound("Post not found")
	}
	html, err := s.renderer.Render(post.Body)
	if err != nil {
		return domain.Post{}, "", fmt.Errorf("failed to render post: %w", err)
	}
	return post, html, nil
}

func (s *Content) Report(ctx context.Context, reporter domain.UserId, postId domain.PostId, reason string) (domain.ModerationFlag, error) {
	post, err := s.storage.Post(ctx, postId)
	if err != nil {
		return domain.ModerationFlag{}, err
	}
	if post.Hidden {
		return domain.ModerationFlag{}, errors.NotFound("Post not found")
	}
	if post.UserId == reporter {
		return domain.ModerationFlag{}, errors.Validation("You cannot report your own post")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.ModerationFlag{}, errors.Validation("Reason must not be empty")
	}

	flag, err := s.storage.SaveFlag(ctx, domain.ModerationFlag{
		PostId:     &post.Id,
		UserId:     post.UserId,
		Source:     domain.FlagSourceCommunity,
		ReportedBy: &reporter,
		Reason:     reason,
		Severity:   1,
		Excerpt:    excerpt(post.Body),
		Status:     domain.FlagPending,
	})
	if err != nil {
		return domain.ModerationFlag{}, err
	}
	logger.Log.Info("post reported", "post_id", postId, "flag_id", flag.Id)
	return flag, nil
}

func (s *Content) Flags(ctx context.Context, status domain.FlagStatus) ([]domain.ModerationFlag, error) {
	if status == "" {
		status = domain.FlagPending
	}
	if !status.Valid() {
		return nil, errors.Validation("Unknown flag status")
	}
	return s.storage.Flags(ctx, status, flagQueueLimit)
}

// ResolveFlag settles a pending flag. Upheld flags cost the author the upheld
// penalty and hide the post; cleared flags give back part of any provisional
// penalty and make the post visible unless another verdict still hides it.
//
// The trust adjustment runs before the flag leaves pending. It is idempotent
// on its cause ref, so a failure at either step leaves the request retryable.
func (s *Content) ResolveFlag(ctx context.Context, id domain.FlagId, status domain.FlagStatus, by domain.StaffId) (domain.ModerationFlag, error) {
	ctx, span := tracer.Start(ctx, "Content.ResolveFlag")
	defer span.End()

	if status != domain.FlagCleared && status != domain.FlagUpheld {
		return domain.ModerationFlag{}, errors.Validation("Status must be cleared or upheld")
	}

	flag, err := s.storage.Flag(ctx, id)
	if err != nil {
		return domain.ModerationFlag{}, err
	}
	if flag.Status != domain.FlagPending {
		return domain.ModerationFlag{}, errors.Conflict("Flag is already resolved")
	}

	res := domain.FlagResolution{Id: id, Status: status, By: by}
	var (
		delta int
		cause domain.TrustCause
	)
	switch {
	case status == domain.FlagUpheld:
		delta, cause = -s.cfg.UpheldPenalty, domain.CauseFlagUpheld
	case flag.Adjustment < 0:
		delta, cause = s.cfg.ClearedRestore, domain.CauseFlagCleared
	}
	if delta != 0 {
		event, err := s.trust.Adjust(ctx, flag.UserId, delta, cause, fmt.Sprintf("flag:%d:%s", id, status))
		if err != nil {
			failSpan(span, err, "adjust failed")
			return domain.ModerationFlag{}, err
		}
		res.Applied = event.Applied
	}

	resolved, err := s.storage.ResolveFlag(ctx, res)
	if err != nil {
		failSpan(span, err, "resolve failed")
		return domain.ModerationFlag{}, err
	}

	logger.Log.Info("flag resolved",
		"flag_id", id,
		"status", status,
		"staff_id", by,
		"adjustment", resolved.Adjustment)
	return resolved, nil
}

// excerpt keeps the first excerptRunes runes of body.
func excerpt(body string) string {
	if utf8.RuneCountInString(body) <= excerptRunes {
		return body
	}
	return string([]rune(body)[:excerptRunes]) + "…"
}
