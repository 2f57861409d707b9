package handler

import (
	"context"
	"net/http"

	"github.com/radake/polihub/backend/internal/service"
	"github.com/radake/polihub/shared/config"
	"github.com/radake/polihub/shared/utils"
)

// HealthChecker reports whether the storage is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	identity   service.IdentityService
	trust      service.TrustService
	content    service.ContentService
	staff      service.StaffService
	politician service.PoliticianService
	health     HealthChecker
	cfg        *config.Config
}

type Services struct {
	Identity   service.IdentityService
	Trust      service.TrustService
	Content    service.ContentService
	Staff      service.StaffService
	Politician service.PoliticianService
}

func New(services Services, health HealthChecker, cfg *config.Config) *Handler {
	return &Handler{
		identity:   services.Identity,
		trust:      services.Trust,
		content:    services.Content,
		staff:      services.Staff,
		politician: services.Politician,
		health:     health,
		cfg:        cfg,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	utils.WriteJSON(w, http.StatusOK, v)
}
