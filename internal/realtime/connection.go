package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/iliyamo/branch-scheduler/internal/model"
)

const (
	sendBuffer   = 100
	writeTimeout = 5 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 30 * time.Second
	maxFrameSize = 16 << 10
)

// Connection wraps one authenticated websocket.  All writes, pings
// included, go through a single writer goroutine fed by a buffered
// channel; Send never blocks.
type Connection struct {
	id     string
	conn   *websocket.Conn
	userID uint64
	role   model.Role

	writeCh   chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewConnection wraps ws for the given user and starts its writer.
func NewConnection(ws *websocket.Conn, userID uint64, role model.Role) *Connection {
	c := &Connection{
		id:      uuid.NewString(),
		conn:    ws,
		userID:  userID,
		role:    role,
		writeCh: make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

func (c *Connection) ID() string       { return c.id }
func (c *Connection) UserID() uint64   { return c.userID }
func (c *Connection) Role() model.Role { return c.role }

// Send queues payload for the writer.  It fails fast when the
// connection is closed or its buffer is full.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.writeCh <- payload:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	default:
		return ErrSendBufferFull
	}
}

// Close stops the writer and closes the socket.  Safe to call twice.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()
	for {
		select {
		case data := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// readLoop calls handle for every text frame until the peer goes away.
func (c *Connection) readLoop(handle func([]byte)) error {
	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}
		if typ == websocket.TextMessage {
			handle(data)
		}
	}
}
