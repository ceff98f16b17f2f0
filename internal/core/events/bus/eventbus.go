package bus

import (
	"errors"
	"slices"

	"github.com/google/uuid"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/value"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/pkg/generic"
)

// snapshots recycles the per-fire copies of the connection list. Nested
// fires take their own buffer; a few are kept warm for handler chains.
var snapshots = generic.NewHotPool(
	func() *[]*Connection {
		s := make([]*Connection, 0, 8)
		return &s
	},
	func(s *[]*Connection) *[]*Connection {
		clear(*s)
		*s = (*s)[:0]
		return s
	},
	4,
)

var _ Signal = (*signal)(nil)

// Connection is the handle returned by Connect.
type Connection struct {
	id        string
	signal    *signal
	handler   Handler
	connected bool
}

// ID is a unique identifier for this connection.
func (c *Connection) ID() string { return c.id }

// Event returns the name of the signal the connection belongs to.
func (c *Connection) Event() string { return c.signal.name }

// Connected reports whether the handler will receive future fires.
func (c *Connection) Connected() bool { return c.connected }

// Disconnect removes the handler from its signal. Multiple calls are safe.
func (c *Connection) Disconnect() {
	if !c.connected {
		return
	}
	c.connected = false
	c.signal.remove(c)
}

type signal struct {
	name  string
	conns []*Connection
}

// New creates an empty Signal.
func New(name string) Signal {
	return &signal{name: name}
}

func (s *signal) Name() string { return s.name }

func (s *signal) Len() int { return len(s.conns) }

func (s *signal) Connect(handler Handler) *Connection {
	c := &Connection{
		id:        uuid.NewString(),
		signal:    s,
		handler:   handler,
		connected: true,
	}
	s.conns = append(s.conns, c)
	return c
}

func (s *signal) Fire(args ...value.Value) error {
	if len(s.conns) == 0 {
		return nil
	}
	buf := snapshots.Get()
	snapshot := append(*buf, s.conns...)
	defer func() {
		*buf = snapshot
		snapshots.Put(buf)
	}()

	var all error
	for _, c := range snapshot {
		if err := c.handler(args); err != nil {
			if all == nil {
				all = err
			} else {
				all = errors.Join(all, err)
			}
		}
	}
	return all
}

func (s *signal) DisconnectAll() {
	for _, c := range s.conns {
		c.connected = false
	}
	s.conns = nil
}

// remove drops c keeping the order of the others.
func (s *signal) remove(c *Connection) {
	if i := slices.Index(s.conns, c); i >= 0 {
		s.conns = slices.Delete(s.conns, i, i+1)
	}
}
