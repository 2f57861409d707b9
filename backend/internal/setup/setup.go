package setup

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radake/polihub/backend/internal/handler"
	"github.com/radake/polihub/backend/internal/markup"
	"github.com/radake/polihub/backend/internal/moderation"
	"github.com/radake/polihub/backend/internal/service"
	"github.com/radake/polihub/backend/internal/storage/pg"
	"github.com/radake/polihub/backend/migrations"
	"github.com/radake/polihub/shared/config"
	"github.com/radake/polihub/shared/jwt"
	"github.com/radake/polihub/shared/logger"
	"github.com/radake/polihub/shared/logout"
	mw "github.com/radake/polihub/shared/middleware"
	"github.com/radake/polihub/shared/middleware/ratelimiter"
)

const memoryStoreCleanup = time.Minute

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config   *config.Config
	Storage  *pg.Storage
	Handler  *handler.Handler
	Auth     *mw.Auth
	Marker   *logout.Marker
	Recovery *service.Recovery
	Trust    *service.Trust

	AuthLimiter *ratelimiter.Limiter
	APILimiter  *ratelimiter.Limiter

	redis *redis.Client
}

// SetupDependencies connects storage, runs migrations and wires every service.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(ctx, storage.DB()); err != nil {
		storage.Cleanup()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	deps := &Dependencies{Config: cfg, Storage: storage}

	store, err := deps.limiterStore(ctx)
	if err != nil {
		deps.Cleanup()
		return nil, err
	}

	jwtService := jwt.New(cfg.JwtKey(), cfg.Public.UserJwtTTL, cfg.Public.StaffJwtTTL)

	marker := logout.NewMarker(storage)
	if err := marker.Update(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to load global logout marker: %w", err)
	}

	rl := cfg.Public.RateLimit
	limiters := service.PostingLimiters{
		Normal:    ratelimiter.New("posting", limiterConfig(rl.Posting), store),
		Throttled: ratelimiter.New("posting_throttled", limiterConfig(rl.PostingThrottled), store),
	}

	trust := service.NewTrust(storage, store, &cfg.Public.Trust)
	identity := service.NewIdentity(storage, jwtService, &cfg.Public.Trust)
	content := service.NewContent(storage, moderation.NewFilter(cfg.Public.Moderation), markup.New(), trust, limiters, &cfg.Public.Trust)
	staff := service.NewStaff(storage, jwtService, marker)
	politician := service.NewPolitician(storage)

	if err := staff.Bootstrap(ctx, cfg.Private.BootstrapAdmin.Email, cfg.Private.BootstrapAdmin.Password); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	deps.Marker = marker
	deps.Trust = trust
	deps.Recovery = service.NewRecovery(storage, trust, &cfg.Public.Trust)
	deps.Auth = mw.NewAuth(jwtService, marker, storage, cfg.Public.SecureCookies)
	deps.AuthLimiter = ratelimiter.New("auth", limiterConfig(rl.Auth), store)
	deps.APILimiter = ratelimiter.New("api", limiterConfig(rl.API), store)
	deps.Handler = handler.New(handler.Services{
		Identity:   identity,
		Trust:      trust,
		Content:    content,
		Staff:      staff,
		Politician: politician,
	}, storage, cfg)

	return deps, nil
}

func (d *Dependencies) limiterStore(ctx context.Context) (ratelimiter.Store, error) {
	if d.Config.Public.RateLimit.Backend != "redis" {
		return ratelimiter.NewMemoryStore(memoryStoreCleanup), nil
	}

	r := d.Config.Private.Redis
	d.redis = ratelimiter.NewRedisClient(r.Addr, r.Password, r.DB)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := d.redis.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Log.Info("using redis rate limit store", "addr", r.Addr)
	return ratelimiter.NewRedisStore(d.redis, "polihub:"), nil
}

// OnLimited counts rejections of user identities as violations, which feed
// posting eligibility.
func (d *Dependencies) OnLimited(r *http.Request, key string) {
	identity := mw.GetIdentityFromContext(r)
	if !identity.IsUser() {
		return
	}
	if err := d.Trust.RecordViolation(r.Context(), identity.UserId); err != nil {
		logger.Log.Error("failed to record violation", "user_id", identity.UserId, "error", err)
	}
}

// StartBackgroundWorkers runs the logout marker refresh and trust recovery
// until ctx is cancelled.
func (d *Dependencies) StartBackgroundWorkers(ctx context.Context) {
	d.Marker.StartBackgroundUpdate(ctx, d.Config.Public.LogoutRefreshInterval)
	d.Recovery.StartBackgroundRecovery(ctx)
}

func (d *Dependencies) Cleanup() {
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			logger.Log.Error("failed to close redis client", "error", err)
		}
	}
	if d.Storage != nil {
		if err := d.Storage.Cleanup(); err != nil {
			logger.Log.Error("failed to close storage", "error", err)
		}
	}
}

func limiterConfig(c config.LimitConfig) ratelimiter.Config {
	return ratelimiter.Config{Window: c.Window, Max: c.Max, Scope: ratelimiter.Scope(c.Scope)}
}
