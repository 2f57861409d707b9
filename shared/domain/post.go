package domain

import "time"

type PostKind string

const (
	PostKindPost    PostKind = "post"
	PostKindComment PostKind = "comment"
)

type Post struct {
	Id        PostId    `json:"id"`
	UserId    UserId    `json:"user_id"`
	Kind      PostKind  `json:"kind"`
	ParentId  *PostId   `json:"parent_id,omitempty"`
	Body      string    `json:"body"`
	Hidden    bool      `json:"hidden"`
	CreatedAt time.Time `json:"created_at"`
}

type Submission struct {
	Kind     PostKind
	ParentId *PostId
	Body     string
}

// SubmissionResult describes an accepted (possibly held) submission.
type SubmissionResult struct {
	Post    Post
	Verdict Verdict
	Flag    *ModerationFlag
}
