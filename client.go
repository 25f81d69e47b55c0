package booking

import (
	"time"

	"github.com/arjunpatel/facilitybook/internal/clientcore"
	"github.com/arjunpatel/facilitybook/internal/logging"
)

// Interval is one booked half-open window within a single day, expressed
// as minutes since that day's midnight.
type Interval struct {
	StartOfDayMin uint16
	EndOfDayMin   uint16
}

// DayAvailability lists the intervals a Query reply reported for one day
// of the week, ascending by start time.
type DayAvailability struct {
	Day       uint8
	Intervals []Interval
}

// ClientOptions configures a Client.
type ClientOptions struct {
	ServerAddr string
	BindAddr   string
	Timeout    time.Duration
	MaxRetries int
	Semantic   uint8
	Logger     *logging.Logger
}

// Client is the facility-booking protocol client: a thin facade over
// internal/clientcore translating wire types and errors into the public
// API's vocabulary.
type Client struct {
	inner *clientcore.Client
}

// Dial connects to a server and starts the background read loop that
// demultiplexes replies from unsolicited monitor callbacks.
func Dial(opts ClientOptions) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger(nil)
	}
	inner, err := clientcore.Dial(clientcore.Config{
		ServerAddr: opts.ServerAddr,
		BindAddr:   opts.BindAddr,
		Timeout:    opts.Timeout,
		MaxRetries: opts.MaxRetries,
		Semantic:   opts.Semantic,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, WrapError("Dial", err)
	}
	return &Client{inner: inner}, nil
}

// Close releases the client's socket and stops its read loop.
func (c *Client) Close() error { return c.inner.Close() }

// SetTimeout changes the per-attempt reply timeout for future requests.
func (c *Client) SetTimeout(d time.Duration) { c.inner.SetTimeout(d) }

// SetMaxRetries changes the retransmission budget for future requests.
func (c *Client) SetMaxRetries(n int) { c.inner.SetMaxRetries(n) }

// MonitorUpdate is a facility's current booking list, delivered
// asynchronously to clients with an active monitor subscription.
type MonitorUpdate struct {
	FacilityName string
	Bookings     []WeekInterval
}

// WeekInterval is a booked window expressed as absolute minutes since the
// start of the week (Monday 00:00), matching the wire callback encoding.
type WeekInterval struct {
	StartMinOfWeek int32
	EndMinOfWeek   int32
}

// Monitors returns the channel monitor-callback datagrams are delivered
// on for the lifetime of the client.
func (c *Client) Monitors() <-chan MonitorUpdate {
	out := make(chan MonitorUpdate)
	go func() {
		defer close(out)
		for cb := range c.inner.Callbacks() {
			update := MonitorUpdate{FacilityName: cb.FacilityName}
			for _, b := range cb.Bookings {
				update.Bookings = append(update.Bookings, WeekInterval{
					StartMinOfWeek: b.StartMinOfWeek,
					EndMinOfWeek:   b.EndMinOfWeek,
				})
			}
			out <- update
		}
	}()
	return out
}

// Query asks which intervals are booked for name on the given days (nil or
// empty means all seven days of the week).
func (c *Client) Query(name string, days []uint8) ([]DayAvailability, error) {
	reply, err := c.inner.Query(name, days)
	if err != nil {
		return nil, translateClientErr("QUERY", err)
	}
	out := make([]DayAvailability, len(reply))
	for i, d := range reply {
		da := DayAvailability{Day: d.Day}
		for _, iv := range d.Intervals {
			da.Intervals = append(da.Intervals, Interval{StartOfDayMin: iv.StartOfDayMin, EndOfDayMin: iv.EndOfDayMin})
		}
		out[i] = da
	}
	return out, nil
}

// Book reserves [start, end) on name, where each endpoint is expressed as
// a (day, hour, minute) triple. It returns the new confirmation id.
func (c *Client) Book(name string, sDay, sHour, sMin, eDay, eHour, eMin uint8) (uint32, error) {
	id, err := c.inner.Book(name, sDay, sHour, sMin, eDay, eHour, eMin)
	if err != nil {
		return 0, translateClientErr("BOOK", err)
	}
	return id, nil
}

// Change shifts both endpoints of confirmationID's booking by offsetMinutes.
func (c *Client) Change(confirmationID uint32, offsetMinutes int32) error {
	if err := c.inner.Change(confirmationID, offsetMinutes); err != nil {
		return translateClientErr("CHANGE", err)
	}
	return nil
}

// RegisterMonitor subscribes the client to booking changes on name for
// the given interval, delivered on Monitors().
func (c *Client) RegisterMonitor(name string, interval time.Duration) error {
	if err := c.inner.RegisterMonitor(name, interval); err != nil {
		return translateClientErr("REGISTER_MONITOR", err)
	}
	return nil
}

// OpA issues the idempotent no-op, optionally scoped to a facility name.
func (c *Client) OpA(name string, hasName bool) error {
	if err := c.inner.OpA(name, hasName); err != nil {
		return translateClientErr("OP_A", err)
	}
	return nil
}

// OpB issues the non-idempotent earliest-free-slot booking, optionally
// scoped to a facility name (the alphabetically-first existing facility
// is used otherwise).
func (c *Client) OpB(name string, hasName bool) (uint32, error) {
	id, err := c.inner.OpB(name, hasName)
	if err != nil {
		return 0, translateClientErr("OP_B", err)
	}
	return id, nil
}

func translateClientErr(op string, err error) error {
	if remote, ok := err.(*clientcore.RemoteError); ok {
		return errorFromResponseCode(op, remote.ResponseCode, remote.Msg)
	}
	return NewError(op, ErrCodeTimeout, err.Error())
}
