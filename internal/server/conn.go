package server

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hansy/snapstack-sub000/internal/intent"
	"github.com/hansy/snapstack-sub000/internal/intentlog"
	"github.com/hansy/snapstack-sub000/internal/room"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// inboundFrame is the client-to-server envelope; only intent frames carry a
// body.
type inboundFrame struct {
	Type   string          `json:"type"`
	Intent json.RawMessage `json:"intent,omitempty"`
}

// outboundFrame is the generic server-to-client envelope. Acks and log
// events use their own shapes, encoded in Send.
type outboundFrame struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// conn owns one websocket. The read loop submits intents to the room actor
// and the write pump drains the outbound queue; the room never writes to the
// socket directly.
type conn struct {
	id     string
	ws     *websocket.Conn
	rm     *room.Room
	logger *zap.Logger

	writeTimeout time.Duration
	out          chan []byte
	closed       chan struct{}
}

func newConn(id string, ws *websocket.Conn, rm *room.Room, writeTimeout time.Duration, logger *zap.Logger) *conn {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &conn{
		id:           id,
		ws:           ws,
		rm:           rm,
		logger:       logger.With(zap.String("conn_id", id)),
		writeTimeout: writeTimeout,
		out:          make(chan []byte, 64),
		closed:       make(chan struct{}),
	}
}

// Send queues one frame for the write pump. A full queue means the client
// cannot keep up; the connection is dropped rather than blocking the room.
func (c *conn) Send(messageType string, payload interface{}) error {
	var msg []byte
	var err error
	switch p := payload.(type) {
	case room.Ack:
		// Acks are flat: {type, intentId, ok, error?}.
		msg, err = json.Marshal(struct {
			Type string `json:"type"`
			room.Ack
		}{messageType, p})
	case intentlog.Event:
		// Log events carry the event id at the top level.
		msg, err = json.Marshal(struct {
			Type    string          `json:"type"`
			EventID string          `json:"eventId"`
			Payload intentlog.Event `json:"payload"`
		}{messageType, p.ID, p})
	default:
		msg, err = json.Marshal(outboundFrame{Type: messageType, Payload: payload})
	}
	if err != nil {
		return err
	}
	select {
	case <-c.closed:
		return websocket.ErrCloseSent
	case c.out <- msg:
		return nil
	default:
		c.logger.Warn("outbound queue full, dropping connection")
		c.close()
		return websocket.ErrCloseSent
	}
}

func (c *conn) close() {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case <-c.closed:
			return
		case msg := <-c.out:
			c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

// readLoop decodes intent frames and submits them in arrival order. Each
// intent's ack goes back on the same connection before the next intent from
// this connection is read, so acks preserve submission order.
func (c *conn) readLoop(maxMessageBytes int64) {
	defer c.close()

	if maxMessageBytes > 0 {
		c.ws.SetReadLimit(maxMessageBytes)
	}
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		var f inboundFrame
		if err := json.Unmarshal(data, &f); err != nil {
			c.sendAck(room.Ack{OK: false, Error: "malformed frame"})
			continue
		}

		switch f.Type {
		case "intent":
			var in intent.Intent
			if err := json.Unmarshal(f.Intent, &in); err != nil {
				c.sendAck(room.Ack{OK: false, Error: "malformed intent"})
				continue
			}
			c.sendAck(c.rm.Submit(c.id, in))
		case "ping":
			c.Send("pong", nil)
		default:
			c.sendAck(room.Ack{OK: false, Error: "unknown frame type"})
		}
	}
}

func (c *conn) sendAck(ack room.Ack) {
	if err := c.Send("ack", ack); err != nil {
		c.logger.Debug("ack send failed", zap.Error(err))
	}
}
