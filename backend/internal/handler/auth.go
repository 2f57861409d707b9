package handler

import (
	"net/http"

	"github.com/radake/polihub/shared/api"
	"github.com/radake/polihub/shared/domain"
	mw "github.com/radake/polihub/shared/middleware"
	"github.com/radake/polihub/shared/utils"
)

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body api.LoginRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	staff, token, err := h.staff.Login(r.Context(), domain.Credentials{Email: body.Email, Password: body.Password})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	h.setTokenCookie(w, mw.StaffCookie, token, h.cfg.Public.StaffJwtTTL)
	writeJSON(w, api.LoginResponse{Staff: staff, AccessToken: token})
}

// Logout clears both session cookies. Tokens are stateless, so bearer
// clients simply drop theirs.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearTokenCookie(w, mw.StaffCookie)
	h.clearTokenCookie(w, mw.UserCookie)
	writeJSON(w, api.LogoutResponse{Message: "You logged out"})
}

func (h *Handler) GlobalLogout(w http.ResponseWriter, r *http.Request) {
	g, err := h.staff.GlobalLogout(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	h.clearTokenCookie(w, mw.StaffCookie)
	writeJSON(w, api.GlobalLogoutResponse{LoggedOutAt: g.At, Version: g.Version})
}
