package resources

import (
	"context"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/observability/log"
)

type Options struct {
	Workers int
	Timeout time.Duration
	Decoder Decoder
}

type entry struct {
	path   string
	status Status
	res    Resource
	err    error
}

type result struct {
	key   uint64
	entry *entry
	res   Resource
	err   error
}

type Loader struct {
	log    log.Log
	fsys   fs.FS
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc

	group  errgroup.Group
	flight singleflight.Group

	// main thread only
	entries map[uint64]*entry
	backlog []*entry
	closed  bool

	mu        sync.Mutex
	completed []result
}

// NewLoader reads resources from fsys with at most opts.Workers concurrent
// loads.
func NewLoader(logger log.Log, fsys fs.FS, opts Options) *Loader {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Decoder == nil {
		opts.Decoder = DecodeImage
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loader{
		log:     logger.With(log.String("component", "resources")),
		fsys:    fsys,
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[uint64]*entry),
	}
	l.group.SetLimit(opts.Workers)
	return l
}

func clean(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

// Request starts loading p unless it is already known. It never blocks:
// when every worker is busy the load waits for the next Finalize.
func (l *Loader) Request(p string) {
	p = clean(p)
	key := Key(p)
	if _, ok := l.entries[key]; ok || l.closed {
		return
	}
	e := &entry{path: p, status: StatusPending}
	l.entries[key] = e
	if !l.dispatch(key, e) {
		l.backlog = append(l.backlog, e)
	}
}

func (l *Loader) dispatch(key uint64, e *entry) bool {
	return l.group.TryGo(func() error {
		res, err := l.load(key, e.path)
		l.mu.Lock()
		l.completed = append(l.completed, result{key: key, entry: e, res: res, err: err})
		l.mu.Unlock()
		return nil
	})
}

func (l *Loader) load(key uint64, p string) (Resource, error) {
	v, err, _ := l.flight.Do(strconv.FormatUint(key, 16), func() (any, error) {
		ctx := l.ctx
		if l.opts.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, l.opts.Timeout)
			defer cancel()
		}
		data, err := fs.ReadFile(l.fsys, p)
		if err != nil {
			return Resource{}, err
		}
		res, err := l.opts.Decoder(ctx, p, data)
		if err != nil {
			return Resource{}, err
		}
		res.Path, res.Key = p, key
		res.Size = len(data)
		res.Sum = xxhash.Sum64(data)
		return res, nil
	})
	if err != nil {
		return Resource{}, err
	}
	return v.(Resource), nil
}

// Finalize publishes finished loads and retries backlogged requests. Call
// it once per tick from the simulation thread. It returns the number of
// loads published.
func (l *Loader) Finalize() int {
	l.mu.Lock()
	done := l.completed
	l.completed = nil
	l.mu.Unlock()

	published := 0
	for _, r := range done {
		// dropped by Invalidate while in flight
		if l.entries[r.key] != r.entry {
			continue
		}
		if r.err != nil {
			r.entry.status, r.entry.err = StatusFailed, r.err
			l.log.Warn("resource load failed", log.String("path", r.entry.path), log.Error(r.err))
		} else {
			r.entry.status, r.entry.res = StatusReady, r.res
			l.log.Debug("resource ready", log.String("path", r.entry.path), log.Int("bytes", r.res.Size))
		}
		published++
	}

	if !l.closed {
		pending := l.backlog
		l.backlog = nil
		for i, e := range pending {
			if l.entries[Key(e.path)] != e {
				continue
			}
			if !l.dispatch(Key(e.path), e) {
				l.backlog = append(l.backlog, pending[i:]...)
				break
			}
		}
	}
	return published
}

// Status reports the published state of p.
func (l *Loader) Status(p string) Status {
	e, ok := l.entries[Key(clean(p))]
	if !ok {
		return StatusUnknown
	}
	return e.status
}

// Ready reports whether p has been loaded and published.
func (l *Loader) Ready(p string) bool { return l.Status(p) == StatusReady }

// Fetch returns the published resource for p.
func (l *Loader) Fetch(p string) (Resource, bool) {
	e, ok := l.entries[Key(clean(p))]
	if !ok || e.status != StatusReady {
		return Resource{}, false
	}
	return e.res, true
}

// Err returns the load error of a failed resource.
func (l *Loader) Err(p string) error {
	if e, ok := l.entries[Key(clean(p))]; ok {
		return e.err
	}
	return nil
}

// Invalidate forgets p so the next Request loads it again.
func (l *Loader) Invalidate(p string) {
	delete(l.entries, Key(clean(p)))
}

// Wait blocks until every dispatched load has finished. Results still need
// Finalize to become visible.
func (l *Loader) Wait() {
	_ = l.group.Wait()
}

// Close cancels outstanding loads and waits for the workers.
func (l *Loader) Close() error {
	if l.closed {
		return ErrClosed
	}
	l.closed = true
	l.backlog = nil
	l.cancel()
	l.Wait()
	return nil
}
