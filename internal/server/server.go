// Package server runs the UDP request loop: receive, decode, dedupe,
// dispatch, and reply, all routed through the fault simulator.
package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/arjunpatel/facilitybook/internal/clock"
	"github.com/arjunpatel/facilitybook/internal/constants"
	"github.com/arjunpatel/facilitybook/internal/dispatch"
	"github.com/arjunpatel/facilitybook/internal/dupcache"
	"github.com/arjunpatel/facilitybook/internal/engine"
	"github.com/arjunpatel/facilitybook/internal/fault"
	"github.com/arjunpatel/facilitybook/internal/idalloc"
	"github.com/arjunpatel/facilitybook/internal/interfaces"
	"github.com/arjunpatel/facilitybook/internal/monitor"
	"github.com/arjunpatel/facilitybook/internal/wire"
)

var errMissingLogger = errors.New("server: Config.Logger is required")

// Semantic selects the invocation guarantee the server enforces,
// independent of the advisory flag a client sets on each request.
type Semantic int

const (
	AtLeastOnce Semantic = iota
	AtMostOnce
)

// noopObserver discards every event; used when Config.Observer is nil.
type noopObserver struct{}

func (noopObserver) ObserveInboundDrop()                {}
func (noopObserver) ObserveOutboundDrop()               {}
func (noopObserver) ObserveDuplicateSuppressed()        {}
func (noopObserver) ObserveRequestProcessed(_, _ uint8) {}
func (noopObserver) ObserveCallbackSent()               {}
func (noopObserver) ObserveDecodeError()                {}

var _ interfaces.Observer = noopObserver{}

// Config configures a Server.
type Config struct {
	Addr              string
	Semantic          Semantic
	CacheTTL          time.Duration
	Fault             fault.Config
	FaultSeed         int64
	SocketBufferBytes int

	Logger   interfaces.Logger
	Observer interfaces.Observer
	Clock    interfaces.Clock
}

// Server is the facility-booking UDP service.
type Server struct {
	cfg       Config
	conn      *net.UDPConn
	engine    *engine.Engine
	monitors  *monitor.Registry
	processor *dispatch.Processor
	dupes     *dupcache.Cache
	faultSim  *fault.Simulator
	logger    interfaces.Logger
	observer  interfaces.Observer

	sweepOnce sync.Once
}

// New constructs a Server bound to cfg.Addr. The engine is pre-seeded with
// constants.BootstrapFacilities.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		return nil, errMissingLogger
	}
	if cfg.Observer == nil {
		cfg.Observer = noopObserver{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = constants.DefaultCacheTTLSeconds * time.Second
	}
	if cfg.SocketBufferBytes <= 0 {
		cfg.SocketBufferBytes = constants.DefaultSocketBufferBytes
	}

	conn, err := listenUDPTuned(cfg.Addr, cfg.SocketBufferBytes)
	if err != nil {
		return nil, err
	}

	e := engine.New(idalloc.New())
	for _, name := range constants.BootstrapFacilities {
		e.EnsureFacility(name)
	}
	m := monitor.New(cfg.Clock)
	proc := dispatch.New(e, m, cfg.Logger)

	return &Server{
		cfg:       cfg,
		conn:      conn,
		engine:    e,
		monitors:  m,
		processor: proc,
		dupes:     dupcache.New(cfg.CacheTTL, cfg.Clock),
		faultSim:  fault.New(cfg.Fault, cfg.FaultSeed),
		logger:    cfg.Logger,
		observer:  cfg.Observer,
	}, nil
}

// Engine exposes the underlying booking engine, e.g. for tests that want
// to assert on state the protocol wouldn't otherwise reveal.
func (s *Server) Engine() *engine.Engine { return s.engine }

// LocalAddr returns the UDP address the server is bound to.
func (s *Server) LocalAddr() net.Addr { return s.conn.LocalAddr() }

// Run reads datagrams until ctx is canceled or the socket errors.
func (s *Server) Run(ctx context.Context) error {
	go s.sweepLoop(ctx)

	buf := make([]byte, constants.MaxDatagramBytes)
	for {
		select {
		case <-ctx.Done():
			s.conn.Close()
			return ctx.Err()
		default:
		}

		s.conn.SetReadDeadline(time.Now().Add(250 * time.Millisecond))
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				s.logger.Error("udp read failed", "error", err)
				continue
			}
		}

		datagram := make([]byte, n)
		copy(datagram, buf[:n])
		s.handleDatagram(datagram, addr)
	}
}

func (s *Server) handleDatagram(datagram []byte, addr *net.UDPAddr) {
	if s.faultSim.DropInbound() {
		s.observer.ObserveInboundDrop()
		return
	}

	frame, err := wire.DecodeRequest(datagram)
	if err != nil {
		s.observer.ObserveDecodeError()
		requestID := uint32(0)
		if decErr, ok := err.(*wire.DecodeError); ok {
			requestID = decErr.RequestID
		}
		s.replyInvalid(requestID, err.Error(), addr)
		return
	}

	source := addr.String()
	key := dupcache.Key{ClientAddr: source, RequestID: frame.RequestID}

	if s.cfg.Semantic == AtMostOnce {
		if cached, ok := s.dupes.Lookup(key); ok {
			s.observer.ObserveDuplicateSuppressed()
			s.sendTo(cached, addr)
			return
		}
	}

	resp, callbacks := s.processor.Process(frame, source)
	encoded := wire.EncodeResponse(resp)

	if s.cfg.Semantic == AtMostOnce {
		s.dupes.Store(key, encoded)
	}

	s.observer.ObserveRequestProcessed(frame.OpCode, resp.ResponseCode)
	s.sendTo(encoded, addr)

	for _, cb := range callbacks {
		s.sendCallback(cb)
	}
}

func (s *Server) replyInvalid(requestID uint32, reason string, addr *net.UDPAddr) {
	resp := &wire.ResponseFrame{RequestID: requestID, ResponseCode: constants.RespErrInvalid, Payload: []byte(reason)}
	s.sendTo(wire.EncodeResponse(resp), addr)
}

func (s *Server) sendTo(payload []byte, addr *net.UDPAddr) {
	dropped := s.faultSim.SendOutbound(func() {
		if _, err := s.conn.WriteToUDP(payload, addr); err != nil {
			s.logger.Warn("udp write failed", "addr", addr.String(), "error", err)
		}
	})
	if dropped {
		s.observer.ObserveOutboundDrop()
	}
}

func (s *Server) sendCallback(cb dispatch.Callback) {
	addr, err := net.ResolveUDPAddr("udp", cb.Target)
	if err != nil {
		s.logger.Warn("invalid callback target", "target", cb.Target, "error", err)
		return
	}
	dropped := s.faultSim.SendOutbound(func() {
		if _, err := s.conn.WriteToUDP(cb.Payload, addr); err != nil {
			s.logger.Warn("callback write failed", "addr", cb.Target, "error", err)
			return
		}
		s.observer.ObserveCallbackSent()
	})
	if dropped {
		s.observer.ObserveOutboundDrop()
	}
}

func (s *Server) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CacheTTL / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.dupes.Sweep()
		}
	}
}

// listenUDPTuned opens a UDP socket and, where the platform allows it,
// widens SO_RCVBUF/SO_SNDBUF so a burst of retransmissions under loss
// simulation isn't dropped by the kernel before the simulator ever sees it.
func listenUDPTuned(addr string, bufferBytes int) (*net.UDPConn, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, bufferBytes)
				if sockErr == nil {
					sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, bufferBytes)
				}
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
	pc, err := lc.ListenPacket(context.Background(), "udp", addr)
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}
