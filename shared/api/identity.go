package api

import "github.com/radake/polihub/shared/domain"

// Request DTOs

// CreateIdentityRequest fields are optional; missing ones are generated.
type CreateIdentityRequest struct {
	Nickname    *string `json:"nickname,omitempty" validate:"omitempty,min=3,max=32"`
	AvatarEmoji *string `json:"avatar_emoji,omitempty" validate:"omitempty,max=16"`
	County      *string `json:"county,omitempty" validate:"omitempty,max=32"`
}

type UpdateProfileRequest struct {
	Nickname    *string `json:"nickname,omitempty" validate:"omitempty,min=3,max=32"`
	AvatarEmoji *string `json:"avatar_emoji,omitempty" validate:"omitempty,max=16"`
	County      *string `json:"county,omitempty" validate:"omitempty,max=32"`
}

// Response DTOs

type IdentityResponse struct {
	User        domain.User `json:"user"`
	Created     bool        `json:"created"`
	AccessToken string      `json:"access_token,omitempty"` // Token for non-cookie clients
}

type StandingResponse struct {
	TrustScore int             `json:"trust_score"`
	Standing   domain.Standing `json:"standing"`
}

type TrustHistoryResponse struct {
	Events []domain.TrustScoreEvent `json:"events"`
}
