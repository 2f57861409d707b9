package domain

import "time"

// User is a pseudonymous visitor identity. Users are never hard-deleted.
type User struct {
	Id          UserId    `json:"id"`
	Nickname    string    `json:"nickname"`
	AvatarEmoji string    `json:"avatar_emoji"`
	County      string    `json:"county"`
	TrustScore  int       `json:"trust_score"`
	CreatedAt   time.Time `json:"created_at"`
}

// Profile carries the optional user-chosen identity fields.
type Profile struct {
	Nickname    *string
	AvatarEmoji *string
	County      *string
}
