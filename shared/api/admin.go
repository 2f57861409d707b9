package api

import "github.com/radake/polihub/shared/domain"

type ProvisionStaffRequest struct {
	Email       string                `json:"email" validate:"required,email"`
	Password    string                `json:"password" validate:"required,min=12"`
	Role        domain.Role           `json:"role" validate:"required,oneof=admin moderator editor"`
	Permissions *domain.PermissionSet `json:"permissions,omitempty"` // role template when absent
}

type UpdateStaffAccessRequest struct {
	Role        domain.Role          `json:"role" validate:"required,oneof=admin moderator editor"`
	Permissions domain.PermissionSet `json:"permissions"`
}

type StaffListResponse struct {
	Staff []domain.Staff `json:"staff"`
}

type ResolveFlagRequest struct {
	Status domain.FlagStatus `json:"status" validate:"required,oneof=cleared upheld"`
}

type FlagListResponse struct {
	Flags []domain.ModerationFlag `json:"flags"`
}

type AdjustTrustRequest struct {
	Delta    int    `json:"delta" validate:"required"`
	CauseRef string `json:"cause_ref" validate:"required,max=128"`
}

type AdjustTrustResponse struct {
	Event    domain.TrustScoreEvent `json:"event"`
	Standing domain.Standing        `json:"standing"`
}

type RestoreResponse struct {
	User     domain.User     `json:"user"`
	Standing domain.Standing `json:"standing"`
}
