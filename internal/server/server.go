// Package server exposes the engine over a websocket inspector console.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/engine"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/observability/log"
)

// Executor runs commands on the main thread. *engine.Engine implements it.
type Executor interface {
	Submit(cmd engine.Command) error
}

// Config holds console configuration
type Config struct {
	// Network settings
	ListenAddr string
	MaxClients int

	// Message settings
	MaxMessageSize int64
	SendBuffer     int
	WriteTimeout   time.Duration

	// Health monitoring
	PingInterval time.Duration
}

// DefaultConfig returns default console configuration
func DefaultConfig() Config {
	return Config{
		ListenAddr:     "127.0.0.1:7420",
		MaxClients:     16,
		MaxMessageSize: 64 * 1024,
		SendBuffer:     256,
		WriteTimeout:   5 * time.Second,
		PingInterval:   30 * time.Second,
	}
}

type Stats struct {
	Sessions int64
	Requests uint64
	Dropped  uint64
}

type Server struct {
	exec   Executor
	config Config
	logger log.Log

	httpServer *http.Server
	listener   net.Listener

	sessions     sync.Map // map[string]*session
	sessionCount atomic.Int64
	requests     atomic.Uint64
	dropped      atomic.Uint64

	running atomic.Bool
	closed  atomic.Bool
	wg      sync.WaitGroup
}

func NewServer(exec Executor, logger log.Log, config Config) *Server {
	defaults := DefaultConfig()
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = defaults.MaxMessageSize
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = defaults.SendBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.PingInterval <= 0 {
		config.PingInterval = defaults.PingInterval
	}
	return &Server{
		exec:   exec,
		config: config,
		logger: logger.With(log.String("component", "console")),
	}
}

// Handler serves the console at /console.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/console", s.handleConsole)
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(_ context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}

	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		s.running.Store(false)
		return err
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("console stopped serving", log.Error(err))
		}
	}()

	s.logger.Info("console listening", log.String("addr", listener.Addr().String()))
	return nil
}

// Addr is the bound address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the listener down and closes every open session.
func (s *Server) Stop(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrServerClosed
	}

	var err error
	if s.running.Load() {
		err = s.httpServer.Shutdown(ctx)
	}
	s.sessions.Range(func(_, v any) bool {
		v.(*session).close()
		return true
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		err = errors.Join(err, ctx.Err())
	}

	s.running.Store(false)
	s.logger.Info("console stopped")
	return err
}

func (s *Server) GetStats() Stats {
	return Stats{
		Sessions: s.sessionCount.Load(),
		Requests: s.requests.Load(),
		Dropped:  s.dropped.Load(),
	}
}
