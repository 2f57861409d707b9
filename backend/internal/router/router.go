package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/radake/polihub/backend/internal/setup"
	"github.com/radake/polihub/shared/domain"
	mw "github.com/radake/polihub/shared/middleware"
	"github.com/radake/polihub/shared/middleware/metrics"
)

// New creates the chi router with all routes.
// The api limiter runs after authentication so it can key by identity;
// anonymous requests fall back to the client IP.
func New(deps *setup.Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.SecurityHeaders(deps.Config.Public.SecureCookies))

	h := deps.Handler
	auth := deps.Auth

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	apiLimit := mw.RateLimit(deps.APILimiter, mw.KeyFor(deps.APILimiter.Scope()), deps.OnLimited)
	authLimit := mw.RateLimit(deps.AuthLimiter, mw.KeyFor(deps.AuthLimiter.Scope()), deps.OnLimited)

	r.Route("/api", func(r chi.Router) {
		// Anonymous or optional-identity routes
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalUser())
			r.Use(apiLimit)

			r.Post("/identity", h.CreateIdentity)
			r.Get("/posts/{postId}", h.GetPost)
			r.Get("/politicians", h.ListPoliticians)
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(authLimit).Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.With(auth.NeedStaff(), apiLimit, mw.RequirePermission(domain.PermGlobalLogout)).Post("/global-logout", h.GlobalLogout)
		})

		// Visitor routes
		r.Group(func(r chi.Router) {
			r.Use(auth.NeedUser())
			r.Use(apiLimit)

			r.Get("/identity/me", h.Me)
			r.Patch("/identity/me", h.UpdateProfile)
			r.Get("/identity/me/standing", h.MyStanding)
			r.Get("/identity/me/trust", h.MyTrustHistory)

			r.Post("/posts", h.CreatePost)
			r.Post("/posts/{postId}/flags", h.FlagPost)
		})

		// Staff routes, each gated by its own permission
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.NeedStaff())
			r.Use(apiLimit)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequirePermission(domain.PermManageStaff))
				r.Get("/staff", h.ListStaff)
				r.Post("/staff", h.ProvisionStaff)
				r.Put("/staff/{staffId}", h.UpdateStaffAccess)
				r.Delete("/staff/{staffId}", h.DeactivateStaff)
			})

			r.Group(func(r chi.Router) {
				r.Use(mw.RequirePermission(domain.PermModerateContent))
				r.Get("/flags", h.ListFlags)
				r.Post("/flags/{flagId}/resolve", h.ResolveFlag)
				r.Post("/users/{userId}/restore", h.RestoreUser)
			})

			r.Group(func(r chi.Router) {
				r.Use(mw.RequirePermission(domain.PermManageUsers))
				r.Get("/users/{userId}/trust", h.UserTrustHistory)
				r.Post("/users/{userId}/trust", h.AdjustUserTrust)
			})

			r.With(mw.RequirePermission(domain.PermEditPolitician)).Post("/politicians", h.CreatePolitician)
			r.With(mw.RequirePermission(domain.PermEditPolitician)).Put("/politicians/{politicianId}", h.UpdatePolitician)
			r.With(mw.RequirePermission(domain.PermDeletePolitician)).Delete("/politicians/{politicianId}", h.DeletePolitician)
		})
	})

	return r
}
