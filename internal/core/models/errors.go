package models

import "errors"

var (
	ErrInvalidID       = errors.New("invalid entity id")
	ErrEntityDestroyed = errors.New("entity destroyed")
	ErrCycleDetected   = errors.New("attach would create a cycle")
	ErrAlreadyParented = errors.New("entity already has a parent")
	ErrAlreadyAdopted  = errors.New("entity already belongs to a world")
	ErrUnbound         = errors.New("entity has no class bound")
	ErrWorldFull       = errors.New("world entity limit reached")
)
