package booking

import (
	"testing"
	"time"

	"github.com/arjunpatel/facilitybook/internal/constants"
)

func TestMetricsRecordsRequestsByOpAndResponseCode(t *testing.T) {
	m := NewMetrics()

	snap := m.Snapshot()
	if snap.TotalRequests != 0 {
		t.Errorf("expected 0 initial requests, got %d", snap.TotalRequests)
	}

	m.RecordRequest(constants.OpBook, constants.RespOK)
	m.RecordRequest(constants.OpBook, constants.RespErrConflict)
	m.RecordRequest(constants.OpQuery, constants.RespOK)

	snap = m.Snapshot()
	if snap.TotalRequests != 3 {
		t.Errorf("expected 3 total requests, got %d", snap.TotalRequests)
	}
	if snap.BookOps != 2 {
		t.Errorf("expected 2 BOOK ops, got %d", snap.BookOps)
	}
	if snap.QueryOps != 1 {
		t.Errorf("expected 1 QUERY op, got %d", snap.QueryOps)
	}
	if snap.OKResponses != 2 {
		t.Errorf("expected 2 OK responses, got %d", snap.OKResponses)
	}
	if snap.ConflictResponses != 1 {
		t.Errorf("expected 1 conflict response, got %d", snap.ConflictResponses)
	}

	expectedErrorRate := float64(1) / float64(3) * 100.0
	if snap.ErrorRate < expectedErrorRate-0.1 || snap.ErrorRate > expectedErrorRate+0.1 {
		t.Errorf("expected error rate ~%.1f%%, got %.1f%%", expectedErrorRate, snap.ErrorRate)
	}
}

func TestMetricsEventCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordDuplicateSuppressed()
	m.RecordDuplicateSuppressed()
	m.RecordCallbackSent()
	m.RecordInboundDrop()
	m.RecordOutboundDrop()
	m.RecordDecodeError()

	snap := m.Snapshot()
	if snap.DuplicatesSuppressed != 2 {
		t.Errorf("expected 2 duplicates suppressed, got %d", snap.DuplicatesSuppressed)
	}
	if snap.CallbacksSent != 1 {
		t.Errorf("expected 1 callback sent, got %d", snap.CallbacksSent)
	}
	if snap.InboundDropped != 1 {
		t.Errorf("expected 1 inbound drop, got %d", snap.InboundDropped)
	}
	if snap.OutboundDropped != 1 {
		t.Errorf("expected 1 outbound drop, got %d", snap.OutboundDropped)
	}
	if snap.DecodeErrors != 1 {
		t.Errorf("expected 1 decode error, got %d", snap.DecodeErrors)
	}
}

func TestMetricsUptimeAndStop(t *testing.T) {
	m := NewMetrics()
	time.Sleep(10 * time.Millisecond)

	snap := m.Snapshot()
	if snap.UptimeNs < 10*1000000 {
		t.Errorf("expected uptime >= 10ms, got %d ns", snap.UptimeNs)
	}

	m.Stop()
	time.Sleep(5 * time.Millisecond)

	snap2 := m.Snapshot()
	if snap2.UptimeNs > snap.UptimeNs+2*1000000 {
		t.Errorf("uptime increased too much after stop: %d -> %d", snap.UptimeNs, snap2.UptimeNs)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest(constants.OpBook, constants.RespOK)
	m.RecordCallbackSent()

	snap := m.Snapshot()
	if snap.TotalRequests == 0 {
		t.Fatal("expected some requests before reset")
	}

	m.Reset()

	snap = m.Snapshot()
	if snap.TotalRequests != 0 {
		t.Errorf("expected 0 requests after reset, got %d", snap.TotalRequests)
	}
	if snap.CallbacksSent != 0 {
		t.Errorf("expected 0 callbacks sent after reset, got %d", snap.CallbacksSent)
	}
}

func TestNoOpObserverDoesNotPanic(t *testing.T) {
	var o Observer = NoOpObserver{}
	o.ObserveInboundDrop()
	o.ObserveOutboundDrop()
	o.ObserveDuplicateSuppressed()
	o.ObserveRequestProcessed(constants.OpBook, constants.RespOK)
	o.ObserveCallbackSent()
	o.ObserveDecodeError()
}

func TestMetricsObserverForwardsToMetrics(t *testing.T) {
	m := NewMetrics()
	obs := NewMetricsObserver(m)

	obs.ObserveRequestProcessed(constants.OpQuery, constants.RespOK)
	obs.ObserveCallbackSent()
	obs.ObserveInboundDrop()

	snap := m.Snapshot()
	if snap.QueryOps != 1 {
		t.Errorf("expected 1 QUERY op from observer, got %d", snap.QueryOps)
	}
	if snap.CallbacksSent != 1 {
		t.Errorf("expected 1 callback sent from observer, got %d", snap.CallbacksSent)
	}
	if snap.InboundDropped != 1 {
		t.Errorf("expected 1 inbound drop from observer, got %d", snap.InboundDropped)
	}
}
