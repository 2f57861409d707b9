package handler

import (
	"net/http"

	"github.com/radake/polihub/shared/api"
	"github.com/radake/polihub/shared/domain"
	"github.com/radake/polihub/shared/utils"
)

// --- Staff administration ---

func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.staff.List(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if staff == nil {
		staff = []domain.Staff{}
	}
	writeJSON(w, api.StaffListResponse{Staff: staff})
}

func (h *Handler) ProvisionStaff(w http.ResponseWriter, r *http.Request) {
	var body api.ProvisionStaffRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	staff, err := h.staff.Provision(r.Context(), domain.Credentials{Email: body.Email, Password: body.Password}, body.Role, body.Permissions)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, staff)
}

func (h *Handler) UpdateStaffAccess(w http.ResponseWriter, r *http.Request) {
	actor, err := identityFrom(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	id, err := parseIdParam(r, "staffId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var body api.UpdateStaffAccessRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	staff, err := h.staff.UpdateAccess(r.Context(), actor.StaffId, id, body.Role, body.Permissions)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, staff)
}

func (h *Handler) DeactivateStaff(w http.ResponseWriter, r *http.Request) {
	actor, err := identityFrom(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	id, err := parseIdParam(r, "staffId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.staff.Deactivate(r.Context(), actor.StaffId, id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Moderation queue ---

func (h *Handler) ListFlags(w http.ResponseWriter, r *http.Request) {
	status := domain.FlagStatus(r.URL.Query().Get("status"))

	flags, err := h.content.Flags(r.Context(), status)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if flags == nil {
		flags = []domain.ModerationFlag{}
	}
	writeJSON(w, api.FlagListResponse{Flags: flags})
}

func (h *Handler) ResolveFlag(w http.ResponseWriter, r *http.Request) {
	actor, err := identityFrom(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	id, err := parseIdParam(r, "flagId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var body api.ResolveFlagRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	flag, err := h.content.ResolveFlag(r.Context(), id, body.Status, actor.StaffId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, flag)
}

// --- User trust ---

func (h *Handler) RestoreUser(w http.ResponseWriter, r *http.Request) {
	actor, err := identityFrom(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	userId, err := parseUserIdParam(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	user, standing, err := h.trust.Restore(r.Context(), userId, actor.StaffId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.RestoreResponse{User: user, Standing: standing})
}

func (h *Handler) AdjustUserTrust(w http.ResponseWriter, r *http.Request) {
	actor, err := identityFrom(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	userId, err := parseUserIdParam(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var body api.AdjustTrustRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	event, standing, err := h.trust.ManualAdjust(r.Context(), userId, body.Delta, body.CauseRef, actor.StaffId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.AdjustTrustResponse{Event: event, Standing: standing})
}

func (h *Handler) UserTrustHistory(w http.ResponseWriter, r *http.Request) {
	userId, err := parseUserIdParam(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	events, err := h.trust.History(r.Context(), userId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if events == nil {
		events = []domain.TrustScoreEvent{}
	}
	writeJSON(w, api.TrustHistoryResponse{Events: events})
}
