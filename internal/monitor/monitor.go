// Package monitor implements the Monitor Registry: per-facility
// subscriptions with lazy, read-path expiry.
package monitor

import (
	"sync"
	"time"

	"github.com/arjunpatel/facilitybook/internal/interfaces"
)

type subscription struct {
	clientAddr string
	expiry     time.Time
}

// Registry tracks which client endpoints are watching which facilities.
type Registry struct {
	mu    sync.Mutex
	byFac map[string][]subscription
	clock interfaces.Clock
}

func New(clock interfaces.Clock) *Registry {
	return &Registry{byFac: make(map[string][]subscription), clock: clock}
}

// Register appends a subscription for clientAddr on facility, expiring
// after interval. Multiple subscriptions from the same endpoint are
// permitted and tracked independently.
func (r *Registry) Register(facility, clientAddr string, interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byFac[facility] = append(r.byFac[facility], subscription{
		clientAddr: clientAddr,
		expiry:     r.clock.Now().Add(interval),
	})
}

// WatchersFor returns the non-expired client endpoints for facility.
// Expired entries are dropped from the registry as a side effect.
func (r *Registry) WatchersFor(facility string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.byFac[facility]
	if len(subs) == 0 {
		return nil
	}

	now := r.clock.Now()
	live := subs[:0]
	var watchers []string
	for _, s := range subs {
		if s.expiry.After(now) {
			live = append(live, s)
			watchers = append(watchers, s.clientAddr)
		}
	}
	if len(live) == 0 {
		delete(r.byFac, facility)
	} else {
		r.byFac[facility] = live
	}
	return watchers
}

// AllMonitoredFacilities returns the names of facilities with at least one
// live subscription.
func (r *Registry) AllMonitoredFacilities() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	names := make([]string, 0, len(r.byFac))
	for facility, subs := range r.byFac {
		for _, s := range subs {
			if s.expiry.After(now) {
				names = append(names, facility)
				break
			}
		}
	}
	return names
}
