package signal

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/relay/internal/app"
	"github.com/dkeye/relay/internal/core"
	"github.com/dkeye/relay/internal/domain"
	"github.com/dkeye/relay/internal/metrics"
)

// Options tunes the websocket transport.
type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	PongWait   time.Duration
	WriteWait  time.Duration
	SendBuffer int

	// MaxConnections caps live connections; zero means no cap.
	MaxConnections int
	// EventsPerSecond limits inbound events per connection; zero disables it.
	EventsPerSecond float64
	EventBurst      int

	// Origin, when set, must equal the Origin header of the upgrade request.
	Origin string
}

func DefaultOptions() Options {
	return Options{
		ReadLimit:  1 << 20,
		PingPeriod: 54 * time.Second,
		PongWait:   60 * time.Second,
		WriteWait:  10 * time.Second,
		SendBuffer: 256,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ReadLimit <= 0 {
		o.ReadLimit = d.ReadLimit
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = d.PingPeriod
	}
	if o.PongWait <= 0 {
		o.PongWait = d.PongWait
	}
	if o.WriteWait <= 0 {
		o.WriteWait = d.WriteWait
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = d.SendBuffer
	}
	return o
}

type SignalWSController struct {
	Broker  *app.Broker
	Metrics *metrics.Metrics

	ctx      context.Context
	opts     Options
	upgrader websocket.Upgrader
	active   atomic.Int64
	pumps    sync.WaitGroup
}

func NewSignalWSController(ctx context.Context, broker *app.Broker, opts Options, m *metrics.Metrics) *SignalWSController {
	ctl := &SignalWSController{
		Broker:  broker,
		Metrics: m,
		ctx:     ctx,
		opts:    opts.withDefaults(),
	}
	ctl.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     ctl.checkOrigin,
	}
	return ctl
}

func (ctl *SignalWSController) checkOrigin(r *http.Request) bool {
	if ctl.opts.Origin == "" {
		return true
	}
	return r.Header.Get("Origin") == ctl.opts.Origin
}

// WsSignalConn is the transport endpoint stored in the registry.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, buffer),
	}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return domain.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return domain.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleSignal upgrades a gin request to a relay connection.
func (ctl *SignalWSController) HandleSignal(c *gin.Context) {
	ctl.ServeHTTP(c.Writer, c.Request)
}

func (ctl *SignalWSController) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Reserve the slot before upgrading; readPump releases it.
	if n := ctl.active.Add(1); ctl.opts.MaxConnections > 0 && n > int64(ctl.opts.MaxConnections) {
		ctl.active.Add(-1)
		ctl.Metrics.ConnectionRejected()
		log.Warn().Str("module", "signal").Int("max", ctl.opts.MaxConnections).Msg("rejecting connection")
		http.Error(w, domain.ErrTooManyConns.Error(), http.StatusServiceUnavailable)
		return
	}

	ws, err := ctl.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ctl.active.Add(-1)
		ctl.Metrics.ConnectionRejected()
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := newWsSignalConn(ws, ctl.opts.SendBuffer)
	sid := ctl.Broker.Registry.OnConnect(conn)
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("remote", r.RemoteAddr).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctl.ctx)
	ctl.pumps.Add(2)
	go func() {
		defer ctl.pumps.Done()
		ctl.writePump(ctx, sid, conn)
	}()
	go func() {
		defer ctl.pumps.Done()
		ctl.readPump(ctx, cancel, sid, conn)
	}()
}

// Active reports the number of live websocket connections.
func (ctl *SignalWSController) Active() int {
	return int(ctl.active.Load())
}

// Wait blocks until every pump has exited or ctx is done.
func (ctl *SignalWSController) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		ctl.pumps.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
