package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"socialfeed/internal/app/gate"
	"socialfeed/internal/pkg/auth/jwt"
	"socialfeed/internal/pkg/errs"
	"socialfeed/internal/pkg/limiter"
	"socialfeed/internal/pkg/logx"
	"socialfeed/internal/pkg/resp"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// the client never sends data frames; anything larger than a control frame is refused.
	maxMessageSize = 512
)

// HandleSessionSocket streams the session gate's view over a WebSocket. The first frame
// is the current view; a new frame follows every change. The gate is unmounted when the
// connection closes.
func HandleSessionSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)
		if !rateLimiter.Allow(ip) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		sessionID := jwt.GetPayloadFromContext(r).SessionID
		store := deps.Sessions.Get(sessionID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := newSocketClient(conn, sessionID)
		g := gate.Mount(store, client.push)
		defer g.Unmount()

		go client.readPump()
		client.writePump()
	}
}

// socketClient is one WebSocket subscriber of a session gate.
type socketClient struct {
	conn *websocket.Conn

	// views holds at most the latest undelivered view; older ones are dropped.
	views chan gate.View

	// closed is closed by readPump when the peer goes away.
	closed chan struct{}

	logger zerolog.Logger
}

func newSocketClient(conn *websocket.Conn, sessionID string) *socketClient {
	return &socketClient{
		conn:   conn,
		views:  make(chan gate.View, 1),
		closed: make(chan struct{}),
		logger: logx.Component("session_socket").With().Str("session_id", sessionID).Logger(),
	}
}

// push queues v, replacing an undelivered older view. It never blocks, so it is safe
// to call from the session store's notification path.
func (c *socketClient) push(v gate.View) {
	for {
		select {
		case c.views <- v:
			return
		default:
		}

		select {
		case <-c.views:
		default:
		}
	}
}

// readPump consumes control frames until the connection fails, then signals writePump.
func (c *socketClient) readPump() {
	defer close(c.closed)

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Session socket closed unexpectedly")
			}
			return
		}
	}
}

// writePump delivers views and pings until the peer goes away or a write fails.
func (c *socketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Session socket close error")
		}
	}()

	for {
		select {
		case <-c.closed:
			return

		case v := <-c.views:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(v); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to write session view")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
