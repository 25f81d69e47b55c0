// Package fault implements the fault-injection simulator: Bernoulli
// inbound/outbound datagram loss plus a fixed outbound delay, used to
// exercise invocation semantics under an unreliable transport.
package fault

import (
	"math/rand"
	"sync"
	"time"
)

// Config describes one fault profile.
type Config struct {
	InboundLossRate  float64       // probability an inbound datagram is discarded before dispatch
	OutboundLossRate float64       // probability a reply or callback is discarded before send
	OutboundDelay    time.Duration // fixed delay applied to surviving outbound datagrams
}

// Simulator applies Config to the server's send/receive path. The zero
// value is not usable; use New or NewWithSource.
type Simulator struct {
	cfg  Config
	mu   sync.Mutex
	rand func() float64
}

// New returns a Simulator seeded from seed.
func New(cfg Config, seed int64) *Simulator {
	r := rand.New(rand.NewSource(seed))
	return &Simulator{cfg: cfg, rand: r.Float64}
}

// NewWithSource builds a Simulator driven by a caller-supplied sequence of
// draws in [0,1), for tests that need specific drop/keep decisions instead
// of a seeded PRNG's actual distribution.
func NewWithSource(cfg Config, source func() float64) *Simulator {
	return &Simulator{cfg: cfg, rand: source}
}

func (s *Simulator) bernoulli(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	s.mu.Lock()
	draw := s.rand()
	s.mu.Unlock()
	return draw < p
}

// DropInbound reports whether an inbound datagram should be discarded
// before the dispatcher ever sees it.
func (s *Simulator) DropInbound() bool {
	return s.bernoulli(s.cfg.InboundLossRate)
}

// PrepareOutbound decides whether an outbound datagram should be dropped
// and, if not, how long to delay it. The drop decision is made first,
// independent of the delay.
func (s *Simulator) PrepareOutbound() (drop bool, delay time.Duration) {
	if s.bernoulli(s.cfg.OutboundLossRate) {
		return true, 0
	}
	return false, s.cfg.OutboundDelay
}

// SendOutbound runs PrepareOutbound and, unless the datagram is dropped,
// invokes send after the configured delay. It returns immediately; a
// nonzero delay is applied on its own goroutine so the caller's loop
// never blocks on it. The returned bool reports whether the datagram was
// dropped, so callers can feed it to their own observability.
func (s *Simulator) SendOutbound(send func()) (dropped bool) {
	drop, delay := s.PrepareOutbound()
	if drop {
		return true
	}
	if delay <= 0 {
		send()
		return false
	}
	go func() {
		time.Sleep(delay)
		send()
	}()
	return false
}
