package booking

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/arjunpatel/facilitybook/internal/constants"
	"github.com/arjunpatel/facilitybook/internal/fault"
	"github.com/arjunpatel/facilitybook/internal/interfaces"
	"github.com/arjunpatel/facilitybook/internal/logging"
	"github.com/arjunpatel/facilitybook/internal/server"
)

// Semantic selects the invocation guarantee a Server enforces for every
// request; the semantic flag a request carries does not change it.
type Semantic = server.Semantic

const (
	AtLeastOnce = server.AtLeastOnce
	AtMostOnce  = server.AtMostOnce
)

// FaultProfile configures the simulated loss and delay a Server applies to
// its own inbound and outbound datagrams.
type FaultProfile struct {
	InboundLossRate  float64
	OutboundLossRate float64
	OutboundDelay    time.Duration
	Seed             int64
}

// ServerOptions configures a Server.
type ServerOptions struct {
	Addr              string        // e.g. ":9876"
	Semantic          Semantic
	CacheTTL          time.Duration
	Fault             FaultProfile
	SocketBufferBytes int
	Logger            *logging.Logger
	Observer          Observer
	Clock             interfaces.Clock // nil uses the real wall clock
}

// Server is the facility-booking UDP service: a thin facade over
// internal/server that wires in the public logging and metrics types.
type Server struct {
	inner *server.Server
}

// NewServer constructs and binds a Server. The returned server does not
// start serving until Run is called.
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger(nil)
	}
	inner, err := server.New(server.Config{
		Addr:     opts.Addr,
		Semantic: opts.Semantic,
		CacheTTL: opts.CacheTTL,
		Fault: fault.Config{
			InboundLossRate:  opts.Fault.InboundLossRate,
			OutboundLossRate: opts.Fault.OutboundLossRate,
			OutboundDelay:    opts.Fault.OutboundDelay,
		},
		FaultSeed:         opts.Fault.Seed,
		SocketBufferBytes: opts.SocketBufferBytes,
		Logger:            opts.Logger,
		Observer:          opts.Observer,
		Clock:             opts.Clock,
	})
	if err != nil {
		return nil, WrapError("NewServer", err)
	}
	return &Server{inner: inner}, nil
}

// Run serves until ctx is canceled or the socket fails.
func (s *Server) Run(ctx context.Context) error {
	return s.inner.Run(ctx)
}

// LocalAddr returns the bound UDP address, useful when Addr was ":0".
func (s *Server) LocalAddr() net.Addr {
	return s.inner.LocalAddr()
}

// ListFacilities returns the names of every facility the server knows
// about, bypassing the wire protocol. Meant for embedders that link the
// server into their own process rather than talking to it over UDP.
func (s *Server) ListFacilities() []string {
	return s.inner.Engine().ListFacilities()
}

// BookDirect books a facility against the server's engine in-process,
// bypassing the wire protocol entirely. Useful for administrative
// seeding or in-process test fixtures that don't want a loopback round
// trip for every booking.
func (s *Server) BookDirect(name string, sDay, sHour, sMin, eDay, eHour, eMin uint8) (uint32, error) {
	b, err := s.inner.Engine().Book(name, sDay, sHour, sMin, eDay, eHour, eMin)
	if err != nil {
		return 0, errorFromBookingErr(err)
	}
	return b.ConfirmationID, nil
}

// DefaultServerOptions returns the spec's documented server defaults.
func DefaultServerOptions() ServerOptions {
	return ServerOptions{
		Addr:     net.JoinHostPort("", strconv.Itoa(constants.DefaultPort)),
		Semantic: AtMostOnce,
		CacheTTL: constants.DefaultCacheTTLSeconds * time.Second,
		Fault: FaultProfile{
			InboundLossRate:  constants.DefaultLossRate,
			OutboundLossRate: constants.DefaultReplyLossRate,
			OutboundDelay:    constants.DefaultDelayMs * time.Millisecond,
		},
		SocketBufferBytes: constants.DefaultSocketBufferBytes,
	}
}
