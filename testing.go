package booking

import (
	"context"
	"time"

	"github.com/arjunpatel/facilitybook/internal/clock"
	"github.com/arjunpatel/facilitybook/internal/logging"
)

// TestHarness wires a Server and Client together over the loopback
// interface, for package tests and example programs that want a live
// protocol round trip without a real deployment.
type TestHarness struct {
	Server *Server
	Client *Client

	stop context.CancelFunc
	done chan error
}

// HarnessOptions tweaks the server a TestHarness starts. The zero value
// runs at-least-once semantics with no simulated faults.
type HarnessOptions struct {
	Semantic Semantic
	Fault    FaultProfile
	CacheTTL time.Duration
	Clock    *clock.Fake // nil uses the real wall clock
}

// NewTestHarness starts a server bound to an ephemeral loopback port and
// dials a client at it. Call Close to stop both.
func NewTestHarness(opts HarnessOptions) (*TestHarness, error) {
	logger := logging.NewLogger(nil)

	serverOpts := ServerOptions{
		Addr:     "127.0.0.1:0",
		Semantic: opts.Semantic,
		CacheTTL: opts.CacheTTL,
		Fault:    opts.Fault,
		Logger:   logger,
	}
	if opts.Clock != nil {
		serverOpts.Clock = opts.Clock
	}
	srv, err := NewServer(serverOpts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	client, err := Dial(ClientOptions{
		ServerAddr: srv.LocalAddr().String(),
		Logger:     logger,
	})
	if err != nil {
		cancel()
		<-done
		return nil, err
	}

	return &TestHarness{Server: srv, Client: client, stop: cancel, done: done}, nil
}

// Close stops the client and server and waits for the server loop to exit.
func (h *TestHarness) Close() error {
	h.Client.Close()
	h.stop()
	return <-h.done
}
