package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/bridge"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/events/bus"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/models"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/observability/log"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/value"
)

const treeDepth = 64

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// session is one console connection. The reader and writer run in their
// own goroutines; conns is only touched by commands on the main thread.
type session struct {
	id     string
	conn   *websocket.Conn
	server *Server
	log    log.Log
	out    chan Response
	ctx    context.Context
	cancel context.CancelFunc

	conns map[string]*bus.Connection
}

func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	if s.closed.Load() {
		http.Error(w, ErrServerClosed.Error(), http.StatusServiceUnavailable)
		return
	}
	if !s.reserve() {
		http.Error(w, ErrMaxClientsReached.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.sessionCount.Add(-1)
		s.logger.Warn("console upgrade failed", log.Error(err))
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		id:     uuid.NewString(),
		conn:   conn,
		server: s,
		out:    make(chan Response, s.config.SendBuffer),
		ctx:    ctx,
		cancel: cancel,
		conns:  make(map[string]*bus.Connection),
	}
	sess.log = s.logger.With(log.String("session", sess.id))

	s.sessions.Store(sess.id, sess)
	sess.log.Info("console session opened", log.String("remote", conn.RemoteAddr().String()))

	err = sess.run()

	s.sessions.Delete(sess.id)
	s.sessionCount.Add(-1)
	sess.release()
	if err != nil {
		sess.log.Warn("console session failed", log.Error(err))
		return
	}
	sess.log.Info("console session closed")
}

// reserve claims a session slot, failing once MaxClients are open.
func (s *Server) reserve() bool {
	limit := int64(s.config.MaxClients)
	for {
		n := s.sessionCount.Load()
		if limit > 0 && n >= limit {
			return false
		}
		if s.sessionCount.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (c *session) run() error {
	g, ctx := errgroup.WithContext(c.ctx)
	g.Go(func() error {
		defer c.cancel()
		return c.readLoop()
	})
	g.Go(func() error {
		return c.writeLoop(ctx)
	})
	err := g.Wait()
	c.cancel()
	return err
}

func (c *session) close() {
	c.cancel()
}

func (c *session) readLoop() error {
	pongWait := 2 * c.server.config.PingInterval
	c.conn.SetReadLimit(c.server.config.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			c.send(failed(0, fmt.Errorf("%w: %v", ErrInvalidMessage, err)))
			continue
		}
		c.server.requests.Add(1)
		c.dispatch(req)
	}
}

func (c *session) writeLoop(ctx context.Context) error {
	timeout := c.server.config.WriteTimeout
	ticker := time.NewTicker(c.server.config.PingInterval)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(timeout))
			return nil
		case resp := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
			if err := c.conn.WriteJSON(resp); err != nil {
				return err
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout)); err != nil {
				return err
			}
		}
	}
}

// send never blocks: it runs on the main thread for event pushes.
func (c *session) send(resp Response) {
	select {
	case <-c.ctx.Done():
	case c.out <- resp:
	default:
		c.server.dropped.Add(1)
		c.log.Warn("console send buffer full, dropping message", log.Int64("id", resp.ID), log.String("event", resp.Event))
	}
}

func (c *session) dispatch(req Request) {
	switch req.Op {
	case OpGet, OpSet, OpCall, OpCreate, OpConnect, OpDisconnect, OpTree:
	default:
		c.send(failed(req.ID, fmt.Errorf("%w: %q", ErrUnknownOp, req.Op)))
		return
	}
	err := c.server.exec.Submit(func(b *bridge.Bridge) {
		c.send(c.execute(b, req))
	})
	if err != nil {
		c.send(failed(req.ID, err))
	}
}

func (c *session) execute(b *bridge.Bridge, req Request) Response {
	switch req.Op {
	case OpGet:
		v, err := b.Get(req.Target, req.Name)
		if err != nil {
			return failed(req.ID, err)
		}
		return ok(req.ID, v)

	case OpSet:
		if len(req.Args) != 1 {
			return failed(req.ID, fmt.Errorf("%w: set takes one argument, got %d", ErrInvalidMessage, len(req.Args)))
		}
		if err := b.Set(req.Target, req.Name, req.Args[0]); err != nil {
			return failed(req.ID, err)
		}
		return ok(req.ID, value.Null())

	case OpCall:
		v, err := b.Call(req.Target, req.Name, req.Args...)
		if err != nil {
			return failed(req.ID, err)
		}
		return ok(req.ID, v)

	case OpCreate:
		ref, err := b.Create(req.Class)
		if err != nil {
			return failed(req.ID, err)
		}
		if !req.Target.IsNull() {
			if err := b.Set(ref, "Parent", req.Target); err != nil {
				_, _ = b.Call(ref, "Destroy")
				return failed(req.ID, err)
			}
		}
		return ok(req.ID, ref)

	case OpConnect:
		var conn *bus.Connection
		fn := value.NewFunction("console:"+c.id, func(args []value.Value) (value.Value, error) {
			if c.ctx.Err() != nil {
				// the session ended without its release running
				conn.Disconnect()
				delete(c.conns, conn.ID())
				return value.Null(), nil
			}
			c.send(Response{OK: true, Event: req.Name, Conn: conn.ID(), Args: slices.Clone(args)})
			return value.Null(), nil
		})
		conn, err := b.Connect(req.Target, req.Name, value.Func(fn))
		if err != nil {
			return failed(req.ID, err)
		}
		c.conns[conn.ID()] = conn
		return ok(req.ID, value.String(conn.ID()))

	case OpDisconnect:
		conn, found := c.conns[req.Name]
		if !found {
			return failed(req.ID, fmt.Errorf("%w: %s", ErrConnectionNotFound, req.Name))
		}
		conn.Disconnect()
		delete(c.conns, req.Name)
		return ok(req.ID, value.Null())

	case OpTree:
		obj, err := b.Resolve(req.Target)
		if err != nil {
			return failed(req.ID, err)
		}
		return Response{ID: req.ID, OK: true, Tree: tree(b.World(), obj, treeDepth)}
	}
	return failed(req.ID, fmt.Errorf("%w: %q", ErrUnknownOp, req.Op))
}

// release drops the session's event connections on the main thread. When
// the queue refuses it, each connection drops itself on its next fire.
func (c *session) release() {
	err := c.server.exec.Submit(func(*bridge.Bridge) {
		for id, conn := range c.conns {
			conn.Disconnect()
			delete(c.conns, id)
		}
	})
	if err != nil {
		c.log.Debug("could not release console connections", log.Error(err))
	}
}

func tree(w *models.World, obj models.Object, depth int) *TreeNode {
	e := obj.Base()
	n := &TreeNode{Ref: bridge.Ref(obj), Class: e.ClassName(), Name: e.Name()}
	if depth == 0 {
		return n
	}
	for _, id := range e.Children() {
		child, err := w.Get(id)
		if err != nil {
			continue
		}
		n.Children = append(n.Children, tree(w, child, depth-1))
	}
	return n
}
