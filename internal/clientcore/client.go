// Package clientcore implements the client side of the wire protocol:
// request/reply correlation by request_id, timeout-driven retransmission,
// and demultiplexing of unsolicited monitor-callback datagrams from a
// single UDP socket.
package clientcore

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arjunpatel/facilitybook/internal/constants"
	"github.com/arjunpatel/facilitybook/internal/interfaces"
	"github.com/arjunpatel/facilitybook/internal/wire"
)

var errTimeout = errors.New("clientcore: timed out waiting for reply")

// Config configures a Client.
type Config struct {
	ServerAddr string
	BindAddr   string // "" or ":0" for an ephemeral port
	Timeout    time.Duration
	MaxRetries int
	Semantic   uint8
	Logger     interfaces.Logger
}

// RemoteError reports a non-OK response_code from the server.
type RemoteError struct {
	Op           string
	ResponseCode uint8
	Msg          string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: response code %d: %s", e.Op, e.ResponseCode, e.Msg)
}

// Client multiplexes replies and monitor callbacks off a single UDP
// socket connected to one server.
type Client struct {
	cfg    Config
	conn   *net.UDPConn
	logger interfaces.Logger
	nextID atomic.Uint32

	mu      sync.Mutex
	pending map[uint32]chan *wire.ResponseFrame

	callbacks chan wire.Callback
	closeCh   chan struct{}
	closeOnce sync.Once
}

// Dial connects to cfg.ServerAddr and starts the background read loop.
func Dial(cfg Config) (*Client, error) {
	serverAddr, err := net.ResolveUDPAddr("udp", cfg.ServerAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve server addr: %w", err)
	}
	var localAddr *net.UDPAddr
	if cfg.BindAddr != "" {
		localAddr, err = net.ResolveUDPAddr("udp", cfg.BindAddr)
		if err != nil {
			return nil, fmt.Errorf("resolve bind addr: %w", err)
		}
	}
	conn, err := net.DialUDP("udp", localAddr, serverAddr)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = constants.DefaultMaxRetries
	}

	c := &Client{
		cfg:       cfg,
		conn:      conn,
		logger:    cfg.Logger,
		pending:   make(map[uint32]chan *wire.ResponseFrame),
		callbacks: make(chan wire.Callback, 64),
		closeCh:   make(chan struct{}),
	}
	c.nextID.Store(1)
	go c.readLoop()
	return c, nil
}

// Close stops the read loop and releases the socket.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.closeCh) })
	return c.conn.Close()
}

// Callbacks returns the channel monitor-callback datagrams are delivered on.
func (c *Client) Callbacks() <-chan wire.Callback { return c.callbacks }

// SetTimeout changes the per-attempt reply timeout for future requests.
func (c *Client) SetTimeout(d time.Duration) { c.cfg.Timeout = d }

// SetMaxRetries changes the retransmission budget for future requests.
func (c *Client) SetMaxRetries(n int) { c.cfg.MaxRetries = n }

func (c *Client) readLoop() {
	buf := make([]byte, constants.MaxDatagramBytes)
	for {
		select {
		case <-c.closeCh:
			return
		default:
		}

		c.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, err := c.conn.Read(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-c.closeCh:
				return
			default:
				continue
			}
		}

		datagram := make([]byte, n)
		copy(datagram, buf[:n])
		c.handleDatagram(datagram)
	}
}

// handleDatagram routes an inbound datagram to a waiting request, or
// treats it as a monitor callback. A datagram is a reply only if it
// decodes as a response frame AND its request_id matches an outstanding
// call; everything else is handled as a callback.
func (c *Client) handleDatagram(data []byte) {
	if resp, err := wire.DecodeResponse(data); err == nil {
		c.mu.Lock()
		ch, ok := c.pending[resp.RequestID]
		c.mu.Unlock()
		if ok {
			select {
			case ch <- resp:
			default:
			}
			return
		}
	}

	cb, err := wire.DecodeCallback(data)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("unrecognized datagram, dropping", "error", err)
		}
		return
	}
	select {
	case c.callbacks <- cb:
	default:
		if c.logger != nil {
			c.logger.Warn("callback channel full, dropping callback", "facility", cb.FacilityName)
		}
	}
}

// roundTrip sends one request and retransmits it, unchanged, up to
// MaxRetries times until a reply with the matching request_id arrives.
func (c *Client) roundTrip(opCode uint8, payload []byte) (*wire.ResponseFrame, error) {
	requestID := c.nextID.Add(1) - 1
	data := wire.EncodeRequest(&wire.RequestFrame{
		RequestID:    requestID,
		OpCode:       opCode,
		SemanticFlag: c.cfg.Semantic,
		Payload:      payload,
	})

	respCh := make(chan *wire.ResponseFrame, 1)
	c.mu.Lock()
	c.pending[requestID] = respCh
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, requestID)
		c.mu.Unlock()
	}()

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 && c.logger != nil {
			c.logger.Debug("retransmitting request", "request_id", requestID, "op", wire.OpName(opCode), "attempt", attempt+1)
		}
		if _, err := c.conn.Write(data); err != nil {
			return nil, err
		}
		select {
		case resp := <-respCh:
			return resp, nil
		case <-time.After(c.cfg.Timeout):
			lastErr = errTimeout
		}
	}
	return nil, fmt.Errorf("request %d (%s): %w after %d attempts", requestID, wire.OpName(opCode), lastErr, c.cfg.MaxRetries+1)
}

// --- high-level operations ---------------------------------------------

func (c *Client) Query(name string, days []uint8) ([]wire.DayAvailability, error) {
	payload, err := wire.EncodeQueryRequest(wire.QueryRequest{Name: name, Days: days})
	if err != nil {
		return nil, err
	}
	resp, err := c.roundTrip(constants.OpQuery, payload)
	if err != nil {
		return nil, err
	}
	if resp.ResponseCode != constants.RespOK {
		return nil, &RemoteError{Op: "QUERY", ResponseCode: resp.ResponseCode, Msg: string(resp.Payload)}
	}
	return wire.DecodeQueryReply(resp.Payload)
}

func (c *Client) Book(name string, sDay, sHour, sMin, eDay, eHour, eMin uint8) (uint32, error) {
	payload, err := wire.EncodeBookRequest(wire.BookRequest{
		Name: name, SDay: sDay, SHour: sHour, SMin: sMin, EDay: eDay, EHour: eHour, EMin: eMin,
	})
	if err != nil {
		return 0, err
	}
	resp, err := c.roundTrip(constants.OpBook, payload)
	if err != nil {
		return 0, err
	}
	if resp.ResponseCode != constants.RespOK {
		return 0, &RemoteError{Op: "BOOK", ResponseCode: resp.ResponseCode, Msg: string(resp.Payload)}
	}
	return wire.DecodeBookReply(resp.Payload)
}

func (c *Client) Change(confirmationID uint32, offsetMinutes int32) error {
	payload := wire.EncodeChangeRequest(wire.ChangeRequest{ConfirmationID: confirmationID, OffsetMinutes: offsetMinutes})
	resp, err := c.roundTrip(constants.OpChange, payload)
	if err != nil {
		return err
	}
	if resp.ResponseCode != constants.RespOK {
		return &RemoteError{Op: "CHANGE", ResponseCode: resp.ResponseCode, Msg: string(resp.Payload)}
	}
	return nil
}

func (c *Client) RegisterMonitor(name string, interval time.Duration) error {
	payload, err := wire.EncodeRegisterMonitorRequest(wire.RegisterMonitorRequest{
		Name: name, IntervalSeconds: uint32(interval / time.Second),
	})
	if err != nil {
		return err
	}
	resp, err := c.roundTrip(constants.OpRegisterMonitor, payload)
	if err != nil {
		return err
	}
	if resp.ResponseCode != constants.RespOK {
		return &RemoteError{Op: "REGISTER_MONITOR", ResponseCode: resp.ResponseCode, Msg: string(resp.Payload)}
	}
	return nil
}

func (c *Client) OpA(name string, hasName bool) error {
	payload, err := wire.EncodeOptionalName(name, hasName)
	if err != nil {
		return err
	}
	resp, err := c.roundTrip(constants.OpA, payload)
	if err != nil {
		return err
	}
	if resp.ResponseCode != constants.RespOK {
		return &RemoteError{Op: "OP_A", ResponseCode: resp.ResponseCode, Msg: string(resp.Payload)}
	}
	return nil
}

func (c *Client) OpB(name string, hasName bool) (uint32, error) {
	payload, err := wire.EncodeOptionalName(name, hasName)
	if err != nil {
		return 0, err
	}
	resp, err := c.roundTrip(constants.OpB, payload)
	if err != nil {
		return 0, err
	}
	if resp.ResponseCode != constants.RespOK {
		return 0, &RemoteError{Op: "OP_B", ResponseCode: resp.ResponseCode, Msg: string(resp.Payload)}
	}
	return wire.DecodeBookReply(resp.Payload)
}
