package bus

import "github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/value"

// Signal is a named, ordered list of subscribers living on the main thread.
//
// Key characteristics:
// - Ordered delivery: handlers run in the order they were connected.
// - Synchronous delivery: Fire calls every handler in the caller goroutine.
// - Snapshot semantics: the subscriber list is copied before delivery, so
//   connecting or disconnecting from inside a handler only affects later fires.
// - Error aggregation: handler errors do not stop delivery; they are joined and
//   returned from Fire.
//
// Notes:
// - Signals are not safe for concurrent use. The engine mutates them only from
//   the simulation thread.
// - A handler may fire the same signal again; nested fires take their own snapshot.
type Signal interface {
	// Name returns the event name the signal was created for.
	Name() string
	// Connect appends a handler and returns its Connection.
	Connect(handler Handler) *Connection
	// Fire delivers args to every handler connected when the call started.
	Fire(args ...value.Value) error
	// Len returns the number of live connections.
	Len() int
	// DisconnectAll drops every connection. Fires already in progress still
	// complete their snapshot.
	DisconnectAll()
}

// Handler is a subscriber callback. A returned error is reported from Fire but
// does not prevent the remaining handlers from running.
type Handler func(args []value.Value) error
