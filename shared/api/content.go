package api

import (
	"time"

	"github.com/radake/polihub/shared/domain"
)

type CreatePostRequest struct {
	Kind     domain.PostKind `json:"kind" validate:"omitempty,oneof=post comment"`
	ParentId *domain.PostId  `json:"parent_id,omitempty" validate:"omitempty,gt=0"`
	Body     string          `json:"body" validate:"required"`
}

type CreatePostResponse struct {
	Post    domain.Post            `json:"post"`
	Verdict domain.Verdict         `json:"verdict"`
	Flag    *domain.ModerationFlag `json:"flag,omitempty"`
}

type PostResponse struct {
	Id        domain.PostId   `json:"id"`
	UserId    domain.UserId   `json:"user_id"`
	Kind      domain.PostKind `json:"kind"`
	ParentId  *domain.PostId  `json:"parent_id,omitempty"`
	Body      string          `json:"body"`
	BodyHTML  string          `json:"body_html"`
	CreatedAt time.Time       `json:"created_at"`
}

type FlagPostRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
