package domain

import "time"

type TrustCause string

const (
	CauseAutoModeration   TrustCause = "auto_moderation"
	CauseFlagUpheld       TrustCause = "flag_upheld"
	CauseFlagCleared      TrustCause = "flag_cleared"
	CauseContribution     TrustCause = "contribution"
	CauseRecovery         TrustCause = "recovery"
	CauseModeratorRestore TrustCause = "moderator_restore"
	CauseManual           TrustCause = "manual"
)

// TrustScoreEvent is an append-only record of one trust score change.
// Delta is what was requested, Applied is what the clamp allowed, so the
// user's score always equals the baseline plus the sum of Applied.
type TrustScoreEvent struct {
	Id         int64      `json:"id"`
	UserId     UserId     `json:"user_id"`
	Delta      int        `json:"delta"`
	Applied    int        `json:"applied"`
	Cause      TrustCause `json:"cause"`
	CauseRef   string     `json:"cause_ref"`
	ScoreAfter int        `json:"score_after"`
	CreatedAt  time.Time  `json:"created_at"`
}

type ScoreBounds struct {
	Min int
	Max int
}

func (b ScoreBounds) Clamp(score int) int {
	if score < b.Min {
		return b.Min
	}
	if score > b.Max {
		return b.Max
	}
	return score
}

// ApplyDelta returns the new score and the delta that was actually applied.
func (b ScoreBounds) ApplyDelta(current, delta int) (score int, applied int) {
	score = b.Clamp(current + delta)
	return score, score - current
}

// Standing is a user's posting standing. Higher is worse.
type Standing int

const (
	StandingNormal Standing = iota
	StandingThrottled
	StandingBlocked
)

func (s Standing) String() string {
	switch s {
	case StandingNormal:
		return "normal"
	case StandingThrottled:
		return "throttled"
	case StandingBlocked:
		return "blocked"
	}
	return "unknown"
}

func (s Standing) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func WorstStanding(a, b Standing) Standing {
	if a > b {
		return a
	}
	return b
}
