package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/config"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/bridge"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/observability/log"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/value"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/engine"
)

func startEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cfg := config.Default()
	cfg.TickRate = 250
	e, err := engine.NewWithFS(cfg, log.NewNop(), fstest.MapFS{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = e.Close()
	})
	return e
}

type client struct {
	t    *testing.T
	conn *websocket.Conn
	next int64
}

func dial(t *testing.T, url string) *client {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http")+"/console", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &client{t: t, conn: conn}
}

func (c *client) write(req Request) int64 {
	c.next++
	req.ID = c.next
	require.NoError(c.t, c.conn.WriteJSON(req))
	return req.ID
}

func (c *client) read() Response {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var resp Response
	require.NoError(c.t, c.conn.ReadJSON(&resp))
	return resp
}

func (c *client) do(req Request) Response {
	c.t.Helper()
	id := c.write(req)
	for {
		if resp := c.read(); resp.ID == id {
			return resp
		}
	}
}

func (c *client) must(req Request) value.Value {
	c.t.Helper()
	resp := c.do(req)
	require.True(c.t, resp.OK, resp.Error)
	if resp.Result == nil {
		return value.Null()
	}
	return *resp.Result
}

func newConsole(t *testing.T, e *engine.Engine, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(e, log.NewNop(), cfg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestConsoleGetSetCreate(t *testing.T) {
	e := startEngine(t)
	_, ts := newConsole(t, e, DefaultConfig())
	c := dial(t, ts.URL)
	root := value.Ref(e.Root().ID())

	light := c.must(Request{Op: OpCreate, Class: "Light", Target: root})
	require.True(t, light.Is(value.TagObjectRef))

	c.must(Request{Op: OpSet, Target: light, Name: "Brightness", Args: []value.Value{value.Double(2.5)}})
	got := c.must(Request{Op: OpGet, Target: light, Name: "Brightness"})
	assert.True(t, got.Equal(value.Double(2.5)))

	parent := c.must(Request{Op: OpGet, Target: light, Name: "Parent"})
	assert.True(t, parent.Equal(root))

	resp := c.do(Request{Op: OpGet, Target: light, Name: "Nonexistent"})
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "get Light.Nonexistent")

	resp = c.do(Request{Op: OpSet, Target: light, Name: "Brightness"})
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, ErrInvalidMessage.Error())

	name := c.must(Request{Op: OpCall, Target: light, Name: "GetFullName"})
	assert.True(t, name.Equal(value.String("Game.Light")))
}

func TestConsoleRejectsBadRequests(t *testing.T) {
	e := startEngine(t)
	_, ts := newConsole(t, e, DefaultConfig())
	c := dial(t, ts.URL)

	resp := c.do(Request{Op: "explode"})
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, ErrUnknownOp.Error())

	require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	resp = c.read()
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, ErrInvalidMessage.Error())

	resp = c.do(Request{Op: OpCreate, Class: "Sprocket"})
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "Sprocket")
}

func TestConsoleConnectStreamsEvents(t *testing.T) {
	e := startEngine(t)
	_, ts := newConsole(t, e, DefaultConfig())
	c := dial(t, ts.URL)

	part := c.must(Request{Op: OpCreate, Class: "Part"})
	connID := c.must(Request{Op: OpConnect, Target: part, Name: "Changed"})
	id, err := connID.AsString()
	require.NoError(t, err)

	setID := c.write(Request{Op: OpSet, Target: part, Name: "Anchored", Args: []value.Value{value.Bool(true)}})
	event := c.read()
	assert.Zero(t, event.ID)
	assert.Equal(t, "Changed", event.Event)
	assert.Equal(t, id, event.Conn)
	require.Len(t, event.Args, 1)
	assert.True(t, event.Args[0].Equal(value.String("Anchored")))
	reply := c.read()
	assert.Equal(t, setID, reply.ID)
	assert.True(t, reply.OK)

	c.must(Request{Op: OpDisconnect, Name: id})
	setID = c.write(Request{Op: OpSet, Target: part, Name: "Anchored", Args: []value.Value{value.Bool(false)}})
	reply = c.read()
	assert.Equal(t, setID, reply.ID, "no event after disconnect")

	resp := c.do(Request{Op: OpDisconnect, Name: id})
	assert.Contains(t, resp.Error, ErrConnectionNotFound.Error())
}

func TestConsoleTree(t *testing.T) {
	e := startEngine(t)
	_, ts := newConsole(t, e, DefaultConfig())
	c := dial(t, ts.URL)
	root := value.Ref(e.Root().ID())

	folder := c.must(Request{Op: OpCreate, Class: "Folder", Target: root})
	c.must(Request{Op: OpSet, Target: folder, Name: "Name", Args: []value.Value{value.String("Props")}})
	c.must(Request{Op: OpCreate, Class: "Part", Target: folder})

	resp := c.do(Request{Op: OpTree, Target: root})
	require.True(t, resp.OK, resp.Error)
	require.NotNil(t, resp.Tree)
	assert.Equal(t, "DataModel", resp.Tree.Class)
	require.Len(t, resp.Tree.Children, 1)
	props := resp.Tree.Children[0]
	assert.Equal(t, "Props", props.Name)
	assert.True(t, props.Ref.Equal(folder))
	require.Len(t, props.Children, 1)
	assert.Equal(t, "Part", props.Children[0].Class)
}

func TestConsoleMaxClients(t *testing.T) {
	e := startEngine(t)
	cfg := DefaultConfig()
	cfg.MaxClients = 1
	srv, ts := newConsole(t, e, cfg)
	c := dial(t, ts.URL)
	c.must(Request{Op: OpTree, Target: value.Ref(e.Root().ID())})
	assert.Equal(t, int64(1), srv.GetStats().Sessions)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/console", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestReserveNeverExceedsMaxClients(t *testing.T) {
	srv := NewServer(nil, log.NewNop(), Config{MaxClients: 3})

	var granted atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if srv.reserve() {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(3), granted.Load())
	assert.Equal(t, int64(3), srv.GetStats().Sessions)
}

// busyExecutor refuses commands while busy is set.
type busyExecutor struct {
	*engine.Engine
	busy    atomic.Bool
	refused atomic.Int32
}

func (x *busyExecutor) Submit(cmd engine.Command) error {
	if x.busy.Load() {
		x.refused.Add(1)
		return engine.ErrQueueFull
	}
	return x.Engine.Submit(cmd)
}

func TestClosedSessionDropsConnectionsWhenReleaseRefused(t *testing.T) {
	e := startEngine(t)
	exec := &busyExecutor{Engine: e}
	srv := NewServer(exec, log.NewNop(), DefaultConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	c := dial(t, ts.URL)
	part := c.must(Request{Op: OpCreate, Class: "Part"})
	c.must(Request{Op: OpConnect, Target: part, Name: "Changed"})

	exec.busy.Store(true)
	require.NoError(t, c.conn.Close())
	require.Eventually(t, func() bool {
		return srv.GetStats().Sessions == 0 && exec.refused.Load() > 0
	}, 5*time.Second, 10*time.Millisecond)
	exec.busy.Store(false)

	// before and after the next Changed fire
	listeners := make(chan [2]int, 1)
	require.NoError(t, e.Submit(func(b *bridge.Bridge) {
		obj, err := b.Resolve(part)
		if err != nil {
			listeners <- [2]int{-1, -1}
			return
		}
		signal := obj.Base().Signal("Changed")
		before := signal.Len()
		_ = b.Set(part, "Anchored", value.Bool(true))
		listeners <- [2]int{before, signal.Len()}
	}))
	select {
	case n := <-listeners:
		assert.Equal(t, [2]int{1, 0}, n)
	case <-time.After(5 * time.Second):
		t.Fatal("command never ran")
	}
}

func TestStartStop(t *testing.T) {
	e := startEngine(t)
	cfg := DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	srv := NewServer(e, log.NewNop(), cfg)
	require.NoError(t, srv.Start(context.Background()))
	assert.ErrorIs(t, srv.Start(context.Background()), ErrServerAlreadyRunning)

	c := dial(t, "http://"+srv.Addr())
	c.must(Request{Op: OpTree, Target: value.Ref(e.Root().ID())})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	assert.ErrorIs(t, srv.Stop(ctx), ErrServerClosed)

	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := c.conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	assert.Zero(t, srv.GetStats().Sessions)
	assert.NotZero(t, srv.GetStats().Requests)
}
