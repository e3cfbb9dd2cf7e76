// Adapted from https://github.com/gorilla/websocket/blob/master/examples/chat/client.go
// Copyright 2013 The Gorilla WebSocket Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/kwkoo/go-birdr/internal/logger"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Questions carry media lists for every option, so frames can be large.
	maxMessageSize = 1 << 20

	sendBufferSize = 16

	handshakeTimeout = 15 * time.Second
)

var ErrClosed = errors.New("connection closed")

// Listener receives the lifecycle of one connection. All calls for a
// connection are made from a single goroutine owned by that connection, in
// order: OnOpen (only if the handshake succeeded), zero or more OnEvent,
// then exactly one OnClose.
type Listener interface {
	OnOpen()
	OnEvent(Event)
	OnClose(error)
}

// Conn is a handle on one session connection.
type Conn interface {
	ID() string
	// Send transmits the action if the connection is open and silently
	// drops it otherwise.
	Send(Action)
	// Close is idempotent.
	Close()
}

// Dialer opens session connections. Dial never fails synchronously; a
// connection that cannot be established is reported through
// Listener.OnClose.
type Dialer interface {
	Dial(ctx context.Context, url string, listener Listener) Conn
}

type connState int

const (
	stateConnecting connState = iota
	stateOpen
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateOpen:
		return "open"
	default:
		return "closed"
	}
}

type WebSocketDialer struct {
	dialer *websocket.Dialer
	header http.Header
}

func NewWebSocketDialer(header http.Header) *WebSocketDialer {
	return &WebSocketDialer{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
			ReadBufferSize:   4096,
			WriteBufferSize:  1024,
		},
		header: header,
	}
}

func (d *WebSocketDialer) Dial(ctx context.Context, url string, listener Listener) Conn {
	ctx, cancel := context.WithCancel(ctx)
	id := uuid.New().String()
	c := &wsConn{
		id:       id,
		url:      url,
		listener: listener,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		cancel:   cancel,
		state:    stateConnecting,
		log:      logger.For("transport").With().Str("conn", id).Logger(),
	}
	go c.run(ctx, d)
	return c
}

// wsConn is a middleman between the websocket connection and the session
// coordinator.
type wsConn struct {
	id       string
	url      string
	listener Listener
	log      zerolog.Logger

	mutex sync.Mutex
	state connState

	// Buffered channel of outbound messages.
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
	cancel    context.CancelFunc
}

func (c *wsConn) ID() string {
	return c.id
}

func (c *wsConn) currentState() connState {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state
}

func (c *wsConn) Send(action Action) {
	if state := c.currentState(); state != stateOpen {
		c.log.Debug().Str("action", action.Action).Str("state", state.String()).Msg("dropping action on connection that is not open")
		return
	}

	data, err := json.Marshal(&action)
	if err != nil {
		c.log.Error().Err(err).Str("action", action.Action).Msg("could not encode action")
		return
	}

	select {
	case c.send <- data:
	case <-c.done:
	default:
		c.log.Warn().Str("action", action.Action).Msg("send buffer full, dropping action")
	}
}

func (c *wsConn) Close() {
	c.finish()
}

func (c *wsConn) finish() {
	c.closeOnce.Do(func() {
		c.mutex.Lock()
		c.state = stateClosed
		c.mutex.Unlock()
		close(c.done)
		c.cancel()
	})
}

// run dials, then becomes the read loop of the connection. It is the only
// goroutine that calls the listener.
func (c *wsConn) run(ctx context.Context, d *WebSocketDialer) {
	c.log.Info().Str("url", c.url).Msg("connecting")
	conn, _, err := d.dialer.DialContext(ctx, c.url, d.header)
	if err != nil {
		c.finish()
		c.log.Warn().Err(err).Msg("could not connect")
		c.listener.OnClose(err)
		return
	}

	c.mutex.Lock()
	if c.state == stateClosed {
		c.mutex.Unlock()
		conn.Close()
		c.listener.OnClose(ErrClosed)
		return
	}
	c.state = stateOpen
	c.mutex.Unlock()

	c.log.Info().Msg("connection open")
	go c.writePump(conn)
	c.listener.OnOpen()
	err = c.readPump(conn)
	c.finish()
	c.log.Info().Err(err).Msg("connection closed")
	c.listener.OnClose(err)
}

// readPump pumps messages from the websocket connection to the listener.
// Frames that cannot be decoded are logged and skipped.
func (c *wsConn) readPump(conn *websocket.Conn) error {
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("unexpected close")
			}
			select {
			case <-c.done:
				return ErrClosed
			default:
				return err
			}
		}

		event, err := Decode(message)
		if err != nil {
			c.log.Debug().Err(err).Int("size", len(message)).Msg("dropping malformed message")
			continue
		}
		c.listener.OnEvent(event)
	}
}

// writePump pumps messages from the send buffer to the websocket
// connection. Each action goes out as its own text frame.
func (c *wsConn) writePump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case message := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.Warn().Err(err).Msg("write failed")
				c.finish()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.finish()
				return
			}
		case <-c.done:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
