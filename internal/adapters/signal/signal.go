package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/VoiceRelay/internal/app/orch"
	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrBackpressure = core.ErrBackpressure

// Options tune a signaling connection. ReadLimit caps text frames,
// MaxAudioBytes caps binary audio clips.
type Options struct {
	ReadLimit     int64
	MaxAudioBytes int64
	PingPeriod    time.Duration
	WriteWait     time.Duration
	SendBuffer    int
	MaxMessages   int
	MessageWindow time.Duration
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 32768
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 5 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	if o.MaxMessages <= 0 {
		o.MaxMessages = 50
	}
	if o.MessageWindow <= 0 {
		o.MessageWindow = time.Second
	}
	return o
}

// frameLimit is the socket read limit. A binary frame up to ReadLimit above
// the audio cap still reaches the dispatcher, which drops it and keeps the
// connection.
func (o Options) frameLimit() int64 {
	return o.ReadLimit + o.MaxAudioBytes
}

func (o Options) pongWait() time.Duration {
	return o.PingPeriod * 10 / 9
}

type SignalWSController struct {
	Orch    *orch.Orchestrator
	opts    Options
	limiter *RateLimiter
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	opts = opts.withDefaults()
	return &SignalWSController{
		Orch:    o,
		opts:    opts,
		limiter: NewRateLimiter(opts.MaxMessages, opts.MessageWindow),
	}
}

type outbound struct {
	frame  core.Frame
	binary bool
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan outbound

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{
		conn: ws,
		send: make(chan outbound, buffer),
	}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	return c.enqueue(outbound{frame: f})
}

func (c *WsSignalConn) TrySendAudio(f core.Frame) error {
	return c.enqueue(outbound{frame: f, binary: true})
}

func (c *WsSignalConn) enqueue(item outbound) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrClosed
	}
	select {
	case c.send <- item:
	default:
		return ErrBackpressure
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

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection until either side
// closes it. Each socket gets its own session id; the browser's client token
// only correlates logs.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(uuid.NewString())
	token := c.GetString("client_token")
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("client", token).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := newWsSignalConn(ws, ctl.opts.SendBuffer)
	sess := core.NewMemberSession(sid, domain.NewMember(token), conn)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Registry.Bind(sess, cancel)

	go ctl.writePump(ctx, sid, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}
