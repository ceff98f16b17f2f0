// Package resources loads assets off the simulation thread.
//
// The simulation thread only ever calls Request, Status, Ready, Fetch and
// Finalize; none of them block. Worker goroutines never touch main-thread
// state: their results wait in a handoff list until Finalize publishes them.
package resources

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/cespare/xxhash/v2"
)

type Status uint8

const (
	StatusUnknown Status = iota
	StatusPending
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Key identifies a resource path in the cache.
func Key(p string) uint64 {
	return xxhash.Sum64String(path.Clean(p))
}

// Resource is the decoded description of an asset.
type Resource struct {
	Path   string
	Key    uint64
	Format string
	Size   int // bytes read
	Width  int
	Height int
	Sum    uint64 // xxhash of the content
}

// Decoder turns raw bytes into a Resource. It runs on a worker goroutine.
type Decoder func(ctx context.Context, path string, data []byte) (Resource, error)

// DecodeImage reads image dimensions without decoding pixels.
func DecodeImage(ctx context.Context, p string, data []byte) (Resource, error) {
	if err := ctx.Err(); err != nil {
		return Resource{}, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Resource{}, fmt.Errorf("%w: %s: %w", ErrUnsupported, p, err)
	}
	return Resource{
		Path:   p,
		Format: strings.ToLower(format),
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}
