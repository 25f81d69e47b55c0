package booking

import (
	"sync/atomic"
	"time"

	"github.com/arjunpatel/facilitybook/internal/constants"
	"github.com/arjunpatel/facilitybook/internal/interfaces"
)

// Observer is the event sink a Server reports to as it handles datagrams.
// internal/server depends on the internal/interfaces.Observer contract
// directly; this alias lets
// embedders of the public API reference the same shape without an import
// of an internal package.
type Observer = interfaces.Observer

// Metrics tracks operational statistics for a running server: request
// volume by op code and response code, duplicate suppression, callback
// delivery, and fault-simulated drops.
type Metrics struct {
	StartTime atomic.Int64 // UnixNano when NewMetrics was called
	StopTime  atomic.Int64 // UnixNano when Stop was called, 0 if still running

	RequestsTotal atomic.Uint64

	QueryOps           atomic.Uint64
	BookOps            atomic.Uint64
	ChangeOps          atomic.Uint64
	RegisterMonitorOps atomic.Uint64
	OpAOps             atomic.Uint64
	OpBOps             atomic.Uint64
	UnknownOps         atomic.Uint64

	OKResponses       atomic.Uint64
	NotFoundResponses atomic.Uint64
	ConflictResponses atomic.Uint64
	InvalidResponses  atomic.Uint64
	InternalResponses atomic.Uint64

	DuplicatesSuppressed atomic.Uint64
	CallbacksSent        atomic.Uint64
	InboundDropped       atomic.Uint64
	OutboundDropped      atomic.Uint64
	DecodeErrors         atomic.Uint64
}

// NewMetrics returns a Metrics with StartTime set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordRequest records one fully processed request, classified by the op
// code it carried and the response code the processor produced.
func (m *Metrics) RecordRequest(opCode, responseCode uint8) {
	m.RequestsTotal.Add(1)

	switch opCode {
	case constants.OpQuery:
		m.QueryOps.Add(1)
	case constants.OpBook:
		m.BookOps.Add(1)
	case constants.OpChange:
		m.ChangeOps.Add(1)
	case constants.OpRegisterMonitor:
		m.RegisterMonitorOps.Add(1)
	case constants.OpA:
		m.OpAOps.Add(1)
	case constants.OpB:
		m.OpBOps.Add(1)
	default:
		m.UnknownOps.Add(1)
	}

	switch responseCode {
	case constants.RespOK:
		m.OKResponses.Add(1)
	case constants.RespErrNotFound:
		m.NotFoundResponses.Add(1)
	case constants.RespErrConflict:
		m.ConflictResponses.Add(1)
	case constants.RespErrInvalid:
		m.InvalidResponses.Add(1)
	default:
		m.InternalResponses.Add(1)
	}
}

func (m *Metrics) RecordDuplicateSuppressed() { m.DuplicatesSuppressed.Add(1) }
func (m *Metrics) RecordCallbackSent()        { m.CallbacksSent.Add(1) }
func (m *Metrics) RecordInboundDrop()         { m.InboundDropped.Add(1) }
func (m *Metrics) RecordOutboundDrop()        { m.OutboundDropped.Add(1) }
func (m *Metrics) RecordDecodeError()         { m.DecodeErrors.Add(1) }

// Stop freezes uptime as of now; Snapshot after Stop no longer advances
// UptimeNs.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// Reset zeroes every counter and restarts StartTime at now.
func (m *Metrics) Reset() {
	m.RequestsTotal.Store(0)
	m.QueryOps.Store(0)
	m.BookOps.Store(0)
	m.ChangeOps.Store(0)
	m.RegisterMonitorOps.Store(0)
	m.OpAOps.Store(0)
	m.OpBOps.Store(0)
	m.UnknownOps.Store(0)
	m.OKResponses.Store(0)
	m.NotFoundResponses.Store(0)
	m.ConflictResponses.Store(0)
	m.InvalidResponses.Store(0)
	m.InternalResponses.Store(0)
	m.DuplicatesSuppressed.Store(0)
	m.CallbacksSent.Store(0)
	m.InboundDropped.Store(0)
	m.OutboundDropped.Store(0)
	m.DecodeErrors.Store(0)
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// MetricsSnapshot is a point-in-time, non-atomic copy of Metrics safe to
// hand to a logger or a status command.
type MetricsSnapshot struct {
	TotalRequests uint64

	QueryOps           uint64
	BookOps            uint64
	ChangeOps          uint64
	RegisterMonitorOps uint64
	OpAOps             uint64
	OpBOps             uint64
	UnknownOps         uint64

	OKResponses       uint64
	NotFoundResponses uint64
	ConflictResponses uint64
	InvalidResponses  uint64
	InternalResponses uint64

	DuplicatesSuppressed uint64
	CallbacksSent        uint64
	InboundDropped       uint64
	OutboundDropped      uint64
	DecodeErrors         uint64

	UptimeNs    uint64
	RequestRate float64 // requests per second over UptimeNs
	ErrorRate   float64 // percentage of responses that were not OK
}

// Snapshot computes a consistent-enough view of the running counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	start := m.StartTime.Load()
	end := m.StopTime.Load()
	if end == 0 {
		end = time.Now().UnixNano()
	}
	uptimeNs := uint64(0)
	if end > start {
		uptimeNs = uint64(end - start)
	}

	total := m.RequestsTotal.Load()
	ok := m.OKResponses.Load()

	snap := MetricsSnapshot{
		TotalRequests:        total,
		QueryOps:             m.QueryOps.Load(),
		BookOps:              m.BookOps.Load(),
		ChangeOps:            m.ChangeOps.Load(),
		RegisterMonitorOps:   m.RegisterMonitorOps.Load(),
		OpAOps:               m.OpAOps.Load(),
		OpBOps:               m.OpBOps.Load(),
		UnknownOps:           m.UnknownOps.Load(),
		OKResponses:          ok,
		NotFoundResponses:    m.NotFoundResponses.Load(),
		ConflictResponses:    m.ConflictResponses.Load(),
		InvalidResponses:     m.InvalidResponses.Load(),
		InternalResponses:    m.InternalResponses.Load(),
		DuplicatesSuppressed: m.DuplicatesSuppressed.Load(),
		CallbacksSent:        m.CallbacksSent.Load(),
		InboundDropped:       m.InboundDropped.Load(),
		OutboundDropped:      m.OutboundDropped.Load(),
		DecodeErrors:         m.DecodeErrors.Load(),
		UptimeNs:             uptimeNs,
	}

	if uptimeNs > 0 {
		snap.RequestRate = float64(total) / (float64(uptimeNs) / float64(time.Second))
	}
	if total > 0 {
		snap.ErrorRate = float64(total-ok) / float64(total) * 100.0
	}

	return snap
}

// NoOpObserver discards every event. It's the zero-cost default for
// callers that don't want metrics collection.
type NoOpObserver struct{}

func (NoOpObserver) ObserveInboundDrop()                {}
func (NoOpObserver) ObserveOutboundDrop()               {}
func (NoOpObserver) ObserveDuplicateSuppressed()        {}
func (NoOpObserver) ObserveRequestProcessed(_, _ uint8) {}
func (NoOpObserver) ObserveCallbackSent()               {}
func (NoOpObserver) ObserveDecodeError()                {}

var _ Observer = NoOpObserver{}

// MetricsObserver adapts a *Metrics to the Observer contract so it can be
// plugged straight into ServerOptions.Observer.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver wraps metrics as an Observer.
func NewMetricsObserver(metrics *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: metrics}
}

func (o *MetricsObserver) ObserveInboundDrop()  { o.metrics.RecordInboundDrop() }
func (o *MetricsObserver) ObserveOutboundDrop() { o.metrics.RecordOutboundDrop() }
func (o *MetricsObserver) ObserveDuplicateSuppressed() {
	o.metrics.RecordDuplicateSuppressed()
}
func (o *MetricsObserver) ObserveRequestProcessed(opCode, responseCode uint8) {
	o.metrics.RecordRequest(opCode, responseCode)
}
func (o *MetricsObserver) ObserveCallbackSent() { o.metrics.RecordCallbackSent() }
func (o *MetricsObserver) ObserveDecodeError()  { o.metrics.RecordDecodeError() }

var _ Observer = (*MetricsObserver)(nil)
