package relay

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ErrListenerClosed is returned by Send after the connection has gone away.
var ErrListenerClosed = errors.New("listener closed")

const defaultWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	// Viewers are served from other origins, same as the sensor dashboard.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSListener adapts a websocket connection to a Listener.
type WSListener struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu sync.Mutex
	open    atomic.Bool
}

// NewWSListener wraps conn. Writes are serialised and bounded by writeTimeout.
func NewWSListener(conn *websocket.Conn, writeTimeout time.Duration) *WSListener {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	l := &WSListener{conn: conn, writeTimeout: writeTimeout}
	l.open.Store(true)
	return l
}

func (l *WSListener) Ready() bool {
	return l.open.Load()
}

func (l *WSListener) Send(msg []byte) error {
	if !l.open.Load() {
		return ErrListenerClosed
	}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if err := l.conn.SetWriteDeadline(time.Now().Add(l.writeTimeout)); err != nil {
		return err
	}
	return l.conn.WriteMessage(websocket.TextMessage, msg)
}

// Close marks the listener as not ready and closes the connection.
func (l *WSListener) Close() error {
	if !l.open.CompareAndSwap(true, false) {
		return nil
	}
	return l.conn.Close()
}

// Handler serves the relay over websockets.
type Handler struct {
	relay        *Relay
	writeTimeout time.Duration
}

// NewHandler creates a websocket handler for relay.
func NewHandler(relay *Relay, writeTimeout time.Duration) *Handler {
	return &Handler{relay: relay, writeTimeout: writeTimeout}
}

// ServeWS upgrades the request, registers the connection and relays every
// message it sends to all listeners until the connection closes.
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	listener := NewWSListener(conn, h.writeTimeout)
	h.relay.AddClient(listener)
	defer func() {
		h.relay.RemoveClient(listener)
		listener.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		h.relay.BroadcastMessage(msg)
	}
}
