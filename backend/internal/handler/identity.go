package handler

import (
	"net/http"

	"github.com/radake/polihub/shared/api"
	"github.com/radake/polihub/shared/domain"
	mw "github.com/radake/polihub/shared/middleware"
	"github.com/radake/polihub/shared/utils"
)

// CreateIdentity returns the caller's identity, minting a new one for
// visitors without a valid user token.
func (h *Handler) CreateIdentity(w http.ResponseWriter, r *http.Request) {
	var body api.CreateIdentityRequest
	if err := utils.DecodeValidateOptional(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var current *domain.UserId
	if identity := mw.GetIdentityFromContext(r); identity.IsUser() {
		current = &identity.UserId
	}

	user, token, created, err := h.identity.Create(r.Context(), current, domain.Profile{
		Nickname:    body.Nickname,
		AvatarEmoji: body.AvatarEmoji,
		County:      body.County,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if !created {
		writeJSON(w, api.IdentityResponse{User: user})
		return
	}

	h.setTokenCookie(w, mw.UserCookie, token, h.cfg.Public.UserJwtTTL)
	utils.WriteJSON(w, http.StatusCreated, api.IdentityResponse{User: user, Created: true, AccessToken: token})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	user, err := h.identity.Me(r.Context(), identity.UserId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.IdentityResponse{User: user})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var body api.UpdateProfileRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	user, err := h.identity.UpdateProfile(r.Context(), identity.UserId, domain.Profile{
		Nickname:    body.Nickname,
		AvatarEmoji: body.AvatarEmoji,
		County:      body.County,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.IdentityResponse{User: user})
}

func (h *Handler) MyStanding(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	user, standing, err := h.trust.Standing(r.Context(), identity.UserId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.StandingResponse{TrustScore: user.TrustScore, Standing: standing})
}

func (h *Handler) MyTrustHistory(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	events, err := h.trust.History(r.Context(), identity.UserId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if events == nil {
		events = []domain.TrustScoreEvent{}
	}
	writeJSON(w, api.TrustHistoryResponse{Events: events})
}
