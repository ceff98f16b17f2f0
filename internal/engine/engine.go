// Package engine runs the main thread: it owns the world and applies work
// handed over by the resource loader and the console once per tick.
package engine

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync/atomic"
	"time"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/config"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/bridge"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/handle"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/models"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/objects"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/observability/log"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/registry"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/resources"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/scene"
)

const queueSize = 256

// Command runs on the main thread with access to the script bridge.
type Command func(b *bridge.Bridge)

type Engine struct {
	cfg      config.Config
	logger   log.Log
	log      log.Log
	classes  *registry.Registry
	world    *models.World
	bridge   *bridge.Bridge
	loader   *resources.Loader
	root     *objects.DataModel
	commands chan Command
	closed   atomic.Bool
	ticks    uint64
}

// New builds an engine whose resources are read from cfg.Resources.Root.
func New(cfg config.Config, logger log.Log) (*Engine, error) {
	return NewWithFS(cfg, logger, os.DirFS(cfg.Resources.Root))
}

// NewWithFS is New with an explicit resource filesystem.
func NewWithFS(cfg config.Config, logger log.Log, fsys fs.FS) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	world := objects.NewWorld(logger, models.Options{
		MaxEntities:    cfg.World.MaxEntities,
		MaxSearchDepth: cfg.World.MaxSearchDepth,
	})
	loader := resources.NewLoader(logger, fsys, resources.Options{
		Workers: cfg.Resources.Workers,
		Timeout: cfg.Resources.Timeout,
	})
	models.Provide[objects.TextureLoader](world, loader)

	obj, err := world.Create("DataModel")
	if err != nil {
		_ = loader.Close()
		return nil, err
	}
	obj.Base().SetName("Game")

	return &Engine{
		cfg:      cfg,
		logger:   logger,
		log:      logger.With(log.String("component", "engine")),
		classes:  objects.Classes(),
		world:    world,
		bridge:   bridge.New(world, logger),
		loader:   loader,
		root:     obj.(*objects.DataModel),
		commands: make(chan Command, queueSize),
	}, nil
}

func (e *Engine) Config() config.Config { return e.cfg }

// Logger is the logger the engine was built with, before component tags.
func (e *Engine) Logger() log.Log { return e.logger }

func (e *Engine) Classes() *registry.Registry { return e.classes }
func (e *Engine) World() *models.World { return e.world }
func (e *Engine) Bridge() *bridge.Bridge { return e.bridge }
func (e *Engine) Loader() *resources.Loader { return e.loader }
func (e *Engine) Root() *objects.DataModel { return e.root }
func (e *Engine) Ticks() uint64 { return e.ticks }

// Submit queues cmd for the next tick. It never blocks and is safe to call
// from any goroutine.
func (e *Engine) Submit(cmd Command) error {
	if e.closed.Load() {
		return ErrClosed
	}
	select {
	case e.commands <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// Tick publishes finished resource loads, runs queued commands and steps the
// DataModel. Commands queued while draining wait for the next tick.
func (e *Engine) Tick(dt time.Duration) error {
	e.ticks++
	if n := e.loader.Finalize(); n > 0 {
		e.log.Debug("resources published", log.Int("count", n))
	}

	for range len(e.commands) {
		cmd := <-e.commands
		cmd(e.bridge)
	}

	if !e.root.Alive() {
		return nil
	}
	return e.root.Step(dt.Seconds())
}

// Run ticks at the configured rate until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.TickInterval())
	defer ticker.Stop()

	e.log.Info("engine started", log.Int("tick_rate", e.cfg.TickRate))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine stopped", log.Uint64("ticks", e.ticks))
			return nil
		case now := <-ticker.C:
			if err := e.Tick(now.Sub(last)); err != nil {
				e.log.Warn("tick handlers failed", log.Error(err))
			}
			last = now
		}
	}
}

// LoadScene builds the scene file at path under the DataModel.
func (e *Engine) LoadScene(path string) ([]handle.ID, error) {
	s, err := scene.LoadFile(path)
	if err != nil {
		return nil, err
	}
	ids, err := s.Build(e.world, e.root.ID())
	if err != nil {
		return ids, err
	}
	e.log.Info("scene loaded",
		log.String("path", path),
		log.String("scene", s.Name),
		log.Int("roots", len(ids)),
		log.Int("entities", e.world.Len()),
	)
	return ids, nil
}

// Close destroys the DataModel and stops the loader. Queued commands are
// dropped.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	destroyErr := e.world.Destroy(e.root.ID())
	return errors.Join(destroyErr, e.loader.Close())
}
