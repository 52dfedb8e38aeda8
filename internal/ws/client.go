package ws

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clicker_empire/internal/logger"
	"clicker_empire/internal/service"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	maxMessageSize = 512
	sendBuffer     = 256
)

// Client is one tap stream connection bound to an authenticated player.
type Client struct {
	PlayerID int64
	Conn     *websocket.Conn
	Send     chan []byte

	hub     *Hub
	codec   Codec
	limiter *rate.Limiter
	log     *slog.Logger
}

func NewClient(playerID int64, conn *websocket.Conn, hub *Hub, codec Codec) *Client {
	return &Client{
		PlayerID: playerID,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		hub:      hub,
		codec:    codec,
		limiter:  hub.newLimiter(),
		log:      logger.With("component", "ws", "player_id", playerID),
	}
}

// Run serves the connection until the peer goes away.
func (c *Client) Run() {
	c.hub.register(c)
	defer c.hub.unregister(c)

	ctx, cancel := context.WithCancel(logger.IntoContext(context.Background(), c.log))
	defer cancel()

	go c.writePump()

	c.push(Envelope{T: MsgReady, D: ReadyPayload{PlayerID: c.PlayerID, Encoding: c.codec.Name()}})
	c.readPump(ctx)
}

// read
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		close(c.Send)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("read error", "error", err)
			}
			return
		}
		in, err := c.codec.Decode(msg)
		if err != nil {
			c.push(errorFrame(errors.New("malformed frame"), "bad_frame"))
			continue
		}
		c.push(c.handle(ctx, in))
	}
}

func (c *Client) handle(ctx context.Context, in Envelope) Envelope {
	players := c.hub.Players
	switch in.T {
	case MsgTap:
		if !c.limiter.Allow() {
			return errorFrame(errors.New("too many taps"), "rate_limited")
		}
		out, err := players.Tap(ctx, c.PlayerID)
		if err != nil {
			return c.failure(err)
		}
		return Envelope{T: MsgTap, D: out}
	case MsgState:
		st, err := players.GetState(ctx, c.PlayerID)
		if err != nil {
			return c.failure(err)
		}
		return Envelope{T: MsgState, D: st}
	case MsgSync:
		out, err := players.Sync(ctx, c.PlayerID)
		if err != nil {
			return c.failure(err)
		}
		return Envelope{T: MsgSync, D: out}
	case MsgClaim:
		out, err := players.ClaimOffline(ctx, c.PlayerID)
		if err != nil {
			return c.failure(err)
		}
		return Envelope{T: MsgClaim, D: out}
	default:
		return errorFrame(errors.New("unknown message type"), "unknown_type")
	}
}

func (c *Client) failure(err error) Envelope {
	if errors.Is(err, service.ErrConcurrentUpdate) {
		return errorFrame(err, "concurrent_update")
	}
	c.log.Error("tap stream request failed", "error", err)
	return errorFrame(errors.New("internal error"), "internal")
}

func errorFrame(err error, code string) Envelope {
	return Envelope{T: MsgError, D: ErrorPayload{Message: err.Error(), Code: code}}
}

// push encodes and queues a frame, dropping it if the writer is backed up.
func (c *Client) push(env Envelope) {
	data, err := c.codec.Encode(env)
	if err != nil {
		c.log.Error("encode frame", "type", env.T, "error", err)
		return
	}
	select {
	case c.Send <- data:
	default:
		c.log.Warn("send buffer full, dropping frame", "type", env.T)
	}
}

// write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(c.codec.FrameType(), msg); err != nil {
				c.log.Debug("write error", "error", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
