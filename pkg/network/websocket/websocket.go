package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openpodium/podium/pkg/logger"
)

const (
	maxMessageSize = 10 * 1024
	pongTime       = 60 * time.Second
	pingTime       = pongTime * 9 / 10
	writeWait      = 10 * time.Second
	sendBuffer     = 32
)

type MessageHandler func(message []byte, err error)

type Upgrader struct {
	websocket.Upgrader
}

var DefaultUpgrader = NewUpgrader("*")

// NewUpgrader creates an upgrader with an origin check policy.
// The * value allows any origin, an empty value keeps the
// same-host policy of the underlying library.
func NewUpgrader(origin string) *Upgrader {
	u := &Upgrader{Upgrader: websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		WriteBufferPool: &sync.Pool{},
	}}
	switch origin {
	case "*":
		u.CheckOrigin = func(r *http.Request) bool { return true }
	case "":
	default:
		u.CheckOrigin = func(r *http.Request) bool { return r.Header.Get("Origin") == origin }
	}
	return u
}

func (u *Upgrader) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return u.Upgrader.Upgrade(w, r, nil)
}

// WS wraps a websocket connection with send/receive pumps.
// Reads are serialized by the reader pump, writes by the writer pump.
type WS struct {
	conn    deadlinedConn
	send    chan []byte
	closing chan struct{}
	done    chan struct{}

	closeOnce sync.Once
	handler   MessageHandler

	pingPong bool
	log      *logger.Logger
}

// NewServerWithConn wraps an already upgraded server-side connection.
func NewServerWithConn(conn *websocket.Conn, log *logger.Logger) (*WS, error) {
	if conn == nil {
		return nil, websocket.ErrBadHandshake
	}
	return newSocket(conn, true, log), nil
}

func newSocket(conn *websocket.Conn, pingPong bool, log *logger.Logger) *WS {
	return &WS{
		conn:     deadlinedConn{sock: conn, wt: writeWait},
		send:     make(chan []byte, sendBuffer),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
		pingPong: pingPong,
		log:      log,
	}
}

func (ws *WS) SetMessageHandler(fn MessageHandler) { ws.handler = fn }

// Listen starts both pumps and returns a channel which is closed
// when the connection is fully terminated.
func (ws *WS) Listen() chan struct{} {
	go ws.writer()
	go ws.reader()
	return ws.done
}

// Write queues a message for the writer pump.
// Messages are dropped when the connection is closing.
func (ws *WS) Write(data []byte) {
	select {
	case ws.send <- data:
	case <-ws.closing:
	}
}

// Close initiates the connection shutdown. Safe to call multiple times.
func (ws *WS) Close() { ws.closeOnce.Do(func() { close(ws.closing) }) }

func (ws *WS) reader() {
	defer func() {
		ws.Close()
		_ = ws.conn.close()
		close(ws.done)
	}()
	ws.conn.sock.SetReadLimit(maxMessageSize)
	if ws.pingPong {
		_ = ws.conn.sock.SetReadDeadline(time.Now().Add(pongTime))
		ws.conn.sock.SetPongHandler(func(string) error {
			return ws.conn.sock.SetReadDeadline(time.Now().Add(pongTime))
		})
	}
	for {
		message, err := ws.conn.read()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				ws.log.Debug().Err(err).Msg("ws read fail")
			}
			return
		}
		if ws.handler != nil {
			ws.handler(message, nil)
		}
	}
}

func (ws *WS) writer() {
	ticker := time.NewTicker(pingTime)
	defer func() {
		ticker.Stop()
		ws.Close()
		_ = ws.conn.close()
	}()
	for {
		select {
		case message := <-ws.send:
			if err := ws.conn.write(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if !ws.pingPong {
				continue
			}
			if err := ws.conn.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ws.closing:
			_ = ws.conn.write(websocket.CloseMessage, []byte{})
			return
		}
	}
}
