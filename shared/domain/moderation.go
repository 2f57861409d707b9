package domain

import "time"

type ModerationAction string

const (
	ActionAllow  ModerationAction = "allow"
	ActionHold   ModerationAction = "hold"
	ActionReject ModerationAction = "reject"
)

func (a ModerationAction) rank() int {
	switch a {
	case ActionHold:
		return 1
	case ActionReject:
		return 2
	}
	return 0
}

// StrongerAction returns whichever action is more restrictive.
func StrongerAction(a, b ModerationAction) ModerationAction {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// Verdict is the result of screening one piece of content.
type Verdict struct {
	Action   ModerationAction `json:"action"`
	Severity int              `json:"severity"`
	Reasons  []string         `json:"reasons,omitempty"`
}

type FlagStatus string

const (
	FlagPending FlagStatus = "pending"
	FlagCleared FlagStatus = "cleared"
	FlagUpheld  FlagStatus = "upheld"
)

func (s FlagStatus) Valid() bool {
	switch s {
	case FlagPending, FlagCleared, FlagUpheld:
		return true
	}
	return false
}

type FlagSource string

const (
	FlagSourceAuto      FlagSource = "auto"
	FlagSourceCommunity FlagSource = "community"
)

type ModerationFlag struct {
	Id         FlagId     `json:"id"`
	PostId     *PostId    `json:"post_id,omitempty"`
	UserId     UserId     `json:"user_id"`
	Source     FlagSource `json:"source"`
	ReportedBy *UserId    `json:"reported_by,omitempty"`
	Reason     string     `json:"reason"`
	Severity   int        `json:"severity"`
	Excerpt    string     `json:"excerpt,omitempty"`
	Status     FlagStatus `json:"status"`
	Adjustment int        `json:"adjustment"`
	ResolvedBy *StaffId   `json:"resolved_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// FlagResolution settles a pending flag. Applied is the trust delta the
// resolution already caused and is added to the flag's adjustment.
type FlagResolution struct {
	Id      FlagId
	Status  FlagStatus
	By      StaffId
	Applied int
}
