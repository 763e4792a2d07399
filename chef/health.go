package chef

import (
	"context"
	"sync/atomic"
	"time"
)

// healthFreshness is how long a cached reachability reading stays valid.
const healthFreshness = 30 * time.Second

type healthState struct {
	healthy   bool
	checkedAt time.Time
}

// Health caches the last-known reachability of the chef service.
// Updates replace the whole snapshot atomically, so concurrent readers
// can see a stale value but never a torn one.
type Health struct {
	state atomic.Pointer[healthState]
	probe func(ctx context.Context) error
}

func newHealth(probe func(ctx context.Context) error) *Health {
	h := &Health{probe: probe}
	h.state.Store(&healthState{})
	return h
}

// RecordOutcome piggy-backs health updates on production traffic so
// steady traffic keeps the cache warm without separate polling.
func (h *Health) RecordOutcome(success bool) {
	h.state.Store(&healthState{healthy: success, checkedAt: time.Now()})
}

// Snapshot returns the cached reading without any network activity.
func (h *Health) Snapshot() (healthy bool, checkedAt time.Time) {
	s := h.state.Load()
	return s.healthy, s.checkedAt
}

// IsReachable returns the cached reading if it is fresh, otherwise
// performs one lightweight probe and refreshes the cache. Best-effort
// liveness: a healthy reading can be stale by up to the freshness
// window.
func (h *Health) IsReachable(ctx context.Context) bool {
	s := h.state.Load()
	if time.Since(s.checkedAt) < healthFreshness {
		return s.healthy
	}
	err := h.probe(ctx)
	h.RecordOutcome(err == nil)
	return err == nil
}
