package domain

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreBounds_ApplyDelta(t *testing.T) {
	b := ScoreBounds{Min: 0, Max: 100}

	tests := []struct {
		name        string
		current     int
		delta       int
		wantScore   int
		wantApplied int
	}{
		{"inside bounds", 50, -10, 40, -10},
		{"clamped at floor", 5, -10, 0, -5},
		{"clamped at ceiling", 95, 10, 100, 5},
		{"already at floor", 0, -3, 0, 0},
		{"zero delta", 42, 0, 42, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, applied := b.ApplyDelta(tt.current, tt.delta)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantApplied, applied)
		})
	}
}

func TestScoreBounds_SumOfAppliedMatchesScore(t *testing.T) {
	b := ScoreBounds{Min: 0, Max: 100}
	r := rand.New(rand.NewPCG(1, 2))

	for run := 0; run < 200; run++ {
		baseline := 50
		score := baseline
		sum := 0
		for i := 0; i < 50; i++ {
			delta := r.IntN(61) - 30
			var applied int
			score, applied = b.ApplyDelta(score, delta)
			sum += applied

			assert.GreaterOrEqual(t, score, b.Min)
			assert.LessOrEqual(t, score, b.Max)
		}
		assert.Equal(t, baseline+sum, score)
	}
}

func TestStanding(t *testing.T) {
	assert.Equal(t, StandingBlocked, WorstStanding(StandingThrottled, StandingBlocked))
	assert.Equal(t, StandingThrottled, WorstStanding(StandingThrottled, StandingNormal))
	assert.Equal(t, "throttled", StandingThrottled.String())

	text, err := StandingBlocked.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "blocked", string(text))
}

func TestStrongerAction(t *testing.T) {
	assert.Equal(t, ActionHold, StrongerAction(ActionAllow, ActionHold))
	assert.Equal(t, ActionReject, StrongerAction(ActionReject, ActionHold))
	assert.Equal(t, ActionAllow, StrongerAction(ActionAllow, ActionAllow))
}
