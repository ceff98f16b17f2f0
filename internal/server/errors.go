package server

import "errors"

var (
	ErrServerClosed         = errors.New("server is closed")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrMaxClientsReached    = errors.New("maximum clients reached")
	ErrInvalidMessage       = errors.New("invalid message")
	ErrUnknownOp            = errors.New("unknown op")
	ErrConnectionNotFound   = errors.New("connection not found")
)
