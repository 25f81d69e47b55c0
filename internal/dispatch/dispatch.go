// Package dispatch implements the Request Processor: a pure mapping from
// a decoded request and its source endpoint to a response and the set of
// monitor callbacks it triggers.
package dispatch

import (
	"time"

	"github.com/arjunpatel/facilitybook/internal/bookingerr"
	"github.com/arjunpatel/facilitybook/internal/constants"
	"github.com/arjunpatel/facilitybook/internal/engine"
	"github.com/arjunpatel/facilitybook/internal/interfaces"
	"github.com/arjunpatel/facilitybook/internal/monitor"
	"github.com/arjunpatel/facilitybook/internal/wire"
)

// Callback is one outbound monitor-callback datagram, addressed to a
// specific client endpoint.
type Callback struct {
	Target  string
	Payload []byte
}

// Processor dispatches decoded requests against the booking engine and
// monitor registry. It holds no per-request state; the server loop shares
// a single Processor and calls it for one datagram at a time.
type Processor struct {
	engine   *engine.Engine
	monitors *monitor.Registry
	logger   interfaces.Logger
}

func New(e *engine.Engine, m *monitor.Registry, logger interfaces.Logger) *Processor {
	return &Processor{engine: e, monitors: m, logger: logger}
}

// Process handles one already-decoded, already-validated request frame
// and returns the reply to send to sourceAddr plus any monitor callbacks
// to fan out.
func (p *Processor) Process(frame *wire.RequestFrame, sourceAddr string) (*wire.ResponseFrame, []Callback) {
	switch frame.OpCode {
	case constants.OpQuery:
		return p.handleQuery(frame)
	case constants.OpBook:
		return p.handleBook(frame)
	case constants.OpChange:
		return p.handleChange(frame)
	case constants.OpRegisterMonitor:
		return p.handleRegisterMonitor(frame, sourceAddr)
	case constants.OpA:
		return p.handleOpA(frame)
	case constants.OpB:
		return p.handleOpB(frame)
	default:
		// The codec rejects unknown op codes before Process is ever called;
		// this exists only so Process has no silent fallthrough.
		return errorResponse(frame.RequestID, bookingerr.Invalidf("DISPATCH", "unknown op code %d", frame.OpCode)), nil
	}
}

func okResponse(requestID uint32, payload []byte) *wire.ResponseFrame {
	return &wire.ResponseFrame{RequestID: requestID, ResponseCode: constants.RespOK, Payload: payload}
}

func invalidResponse(requestID uint32, msg string) *wire.ResponseFrame {
	return &wire.ResponseFrame{RequestID: requestID, ResponseCode: constants.RespErrInvalid, Payload: []byte(msg)}
}

// errorResponse maps a bookingerr.Error to the wire response code it
// corresponds to, carrying the error message as the payload.
func errorResponse(requestID uint32, err error) *wire.ResponseFrame {
	code := uint8(constants.RespErrInternal)
	msg := err.Error()
	if be, ok := err.(*bookingerr.Error); ok {
		msg = be.Msg
		switch be.Code {
		case bookingerr.NotFound:
			code = constants.RespErrNotFound
		case bookingerr.Conflict:
			code = constants.RespErrConflict
		case bookingerr.Invalid:
			code = constants.RespErrInvalid
		default:
			code = constants.RespErrInternal
		}
	}
	return &wire.ResponseFrame{RequestID: requestID, ResponseCode: code, Payload: []byte(msg)}
}

func (p *Processor) handleQuery(frame *wire.RequestFrame) (*wire.ResponseFrame, []Callback) {
	req, err := wire.DecodeQueryRequest(frame.Payload)
	if err != nil {
		return invalidResponse(frame.RequestID, err.Error()), nil
	}
	days, qerr := p.engine.Query(req.Name, req.Days)
	if qerr != nil {
		return errorResponse(frame.RequestID, qerr), nil
	}
	wireDays := make([]wire.DayAvailability, len(days))
	for i, d := range days {
		intervals := make([]wire.Interval, len(d.Intervals))
		for j, iv := range d.Intervals {
			intervals[j] = wire.Interval{StartOfDayMin: uint16(iv.Start), EndOfDayMin: uint16(iv.End)}
		}
		wireDays[i] = wire.DayAvailability{Day: d.Day, Intervals: intervals}
	}
	return okResponse(frame.RequestID, wire.EncodeQueryReply(wireDays)), nil
}

func (p *Processor) handleBook(frame *wire.RequestFrame) (*wire.ResponseFrame, []Callback) {
	req, err := wire.DecodeBookRequest(frame.Payload)
	if err != nil {
		return invalidResponse(frame.RequestID, err.Error()), nil
	}
	b, berr := p.engine.Book(req.Name, req.SDay, req.SHour, req.SMin, req.EDay, req.EHour, req.EMin)
	if berr != nil {
		return errorResponse(frame.RequestID, berr), nil
	}
	resp := okResponse(frame.RequestID, wire.EncodeBookReply(b.ConfirmationID))
	return resp, p.buildCallbacks(b.FacilityName)
}

func (p *Processor) handleChange(frame *wire.RequestFrame) (*wire.ResponseFrame, []Callback) {
	req, err := wire.DecodeChangeRequest(frame.Payload)
	if err != nil {
		return invalidResponse(frame.RequestID, err.Error()), nil
	}
	b, cerr := p.engine.Change(req.ConfirmationID, req.OffsetMinutes)
	if cerr != nil {
		return errorResponse(frame.RequestID, cerr), nil
	}
	// Narrowed notification: Booking carries its own facility name, so the
	// affected facility is known directly without a separate reverse index.
	resp := okResponse(frame.RequestID, nil)
	return resp, p.buildCallbacks(b.FacilityName)
}

func (p *Processor) handleRegisterMonitor(frame *wire.RequestFrame, sourceAddr string) (*wire.ResponseFrame, []Callback) {
	req, err := wire.DecodeRegisterMonitorRequest(frame.Payload)
	if err != nil {
		return invalidResponse(frame.RequestID, err.Error()), nil
	}
	p.engine.EnsureFacility(req.Name)
	p.monitors.Register(req.Name, sourceAddr, time.Duration(req.IntervalSeconds)*time.Second)
	return okResponse(frame.RequestID, nil), nil
}

func (p *Processor) handleOpA(frame *wire.RequestFrame) (*wire.ResponseFrame, []Callback) {
	if _, _, err := wire.DecodeOptionalName(frame.Payload); err != nil {
		return invalidResponse(frame.RequestID, err.Error()), nil
	}
	return okResponse(frame.RequestID, nil), nil
}

func (p *Processor) handleOpB(frame *wire.RequestFrame) (*wire.ResponseFrame, []Callback) {
	name, has, err := wire.DecodeOptionalName(frame.Payload)
	if err != nil {
		return invalidResponse(frame.RequestID, err.Error()), nil
	}
	if !has {
		first, ok := p.engine.FirstFacility()
		if !ok {
			return errorResponse(frame.RequestID, bookingerr.NotFoundf("OP_B", "no facilities exist")), nil
		}
		name = first
	}
	b, berr := p.engine.BookEarliestFree(name)
	if berr != nil {
		return errorResponse(frame.RequestID, berr), nil
	}
	resp := okResponse(frame.RequestID, wire.EncodeBookReply(b.ConfirmationID))
	return resp, p.buildCallbacks(b.FacilityName)
}

// buildCallbacks builds the callback payload for facility once (listing
// every current booking) and fans it out to every live watcher. It
// short-circuits with no work when nobody is watching.
func (p *Processor) buildCallbacks(facility string) []Callback {
	watchers := p.monitors.WatchersFor(facility)
	if len(watchers) == 0 {
		return nil
	}

	bookings := p.engine.BookingsFor(facility)
	intervals := make([]wire.WeekInterval, len(bookings))
	for i, b := range bookings {
		intervals[i] = wire.WeekInterval{StartMinOfWeek: int32(b.Start), EndMinOfWeek: int32(b.End)}
	}
	payload, err := wire.EncodeCallback(wire.Callback{FacilityName: facility, Bookings: intervals})
	if err != nil {
		// Facility names come from already-validated requests, so this is
		// unreachable in practice; log and drop rather than panic.
		p.logger.Error("failed to encode callback", "facility", facility, "error", err)
		return nil
	}

	callbacks := make([]Callback, len(watchers))
	for i, w := range watchers {
		callbacks[i] = Callback{Target: w, Payload: payload}
	}
	return callbacks
}
