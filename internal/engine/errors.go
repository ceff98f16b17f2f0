package engine

import "errors"

var (
	ErrQueueFull = errors.New("command queue is full")
	ErrClosed    = errors.New("engine is closed")
)
