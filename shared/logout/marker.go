// Package logout holds the process-local view of the global logout marker.
package logout

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/radake/polihub/shared/domain"
	"github.com/radake/polihub/shared/logger"
)

// Storage is the durable side of the marker. SetGlobalLogout must never move
// the stored timestamp backwards.
type Storage interface {
	GlobalLogout(ctx context.Context) (domain.GlobalLogout, error)
	SetGlobalLogout(ctx context.Context, at time.Time) (domain.GlobalLogout, error)
}

// Marker caches the durable marker. Readers never lock; a brief window where
// another instance has not yet observed a new marker is acceptable.
type Marker struct {
	storage Storage
	atUs    atomic.Int64
	version atomic.Int64
	now     func() time.Time
}

func NewMarker(storage Storage) *Marker {
	return &Marker{storage: storage, now: time.Now}
}

// LoggedOutAt returns the zero time when no global logout ever happened.
func (m *Marker) LoggedOutAt() time.Time {
	us := m.atUs.Load()
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us)
}

func (m *Marker) Version() int64 {
	return m.version.Load()
}

// Revoked reports whether a credential issued at issuedAt predates the marker.
// Both sides are compared in microseconds, the precision the marker is stored
// with; a token minted in the same microsecond as the logout survives it.
func (m *Marker) Revoked(issuedAt time.Time) bool {
	us := m.atUs.Load()
	return us != 0 && issuedAt.UnixMicro() < us
}

// observe only ever moves the cached marker forward.
func (m *Marker) observe(g domain.GlobalLogout) {
	if g.At.IsZero() {
		return
	}
	us := g.At.UnixMicro()
	for {
		cur := m.atUs.Load()
		if us <= cur {
			break
		}
		if m.atUs.CompareAndSwap(cur, us) {
			break
		}
	}
	for {
		cur := m.version.Load()
		if g.Version <= cur || m.version.CompareAndSwap(cur, g.Version) {
			break
		}
	}
}

// Update re-reads the durable marker.
func (m *Marker) Update(ctx context.Context) error {
	g, err := m.storage.GlobalLogout(ctx)
	if err != nil {
		return err
	}
	m.observe(g)
	return nil
}

// Trigger persists a new marker at the current time and applies it locally
// right away, so this instance rejects older tokens without waiting for a tick.
func (m *Marker) Trigger(ctx context.Context) (domain.GlobalLogout, error) {
	g, err := m.storage.SetGlobalLogout(ctx, m.now())
	if err != nil {
		return domain.GlobalLogout{}, err
	}
	m.observe(g)
	logger.Log.Info("global logout triggered",
		"component", "logout_marker",
		"logged_out_at", g.At.Format(time.RFC3339Nano),
		"version", g.Version)
	return g, nil
}

// StartBackgroundUpdate periodically refreshes the marker so that logouts
// triggered on other instances take effect here.
func (m *Marker) StartBackgroundUpdate(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	logger.Log.Info("started logout marker background updates",
		"component", "logout_marker",
		"interval", interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := m.Update(ctx); err != nil {
					logger.Log.Error("logout marker update failed",
						"component", "logout_marker",
						"error", err)
				}
			case <-ctx.Done():
				logger.Log.Info("logout marker shutting down gracefully",
					"component", "logout_marker")
				return
			}
		}
	}()
}
