package api

import (
	"time"

	"github.com/radake/polihub/shared/domain"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Staff       domain.Staff `json:"staff"`
	AccessToken string       `json:"access_token,omitempty"` // Token for non-cookie clients (mobile, API clients)
}

type LogoutResponse struct {
	Message string `json:"message"`
}

type GlobalLogoutResponse struct {
	LoggedOutAt time.Time `json:"logged_out_at"`
	Version     int64     `json:"version"`
}
