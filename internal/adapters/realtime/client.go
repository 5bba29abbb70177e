package realtime

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const sendBuffer = 16

// client is one admitted connection. Only the writer goroutine touches conn
// for writes once the handshake has completed.
type client struct {
	id        string
	accountID uuid.UUID
	username  string
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
}

func newClient(conn *websocket.Conn, accountID uuid.UUID, username string) *client {
	return &client{
		id:        uuid.NewString(),
		accountID: accountID,
		username:  username,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
	}
}

func (c *client) room() string {
	return c.accountID.String()
}

// reply queues a frame the client asked for. It waits for buffer space
// instead of dropping, and gives up once the writer has exited.
func (c *client) reply(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	case <-c.done:
		return false
	}
}

// enqueue is the fan-out path: a full buffer drops the frame.
func (c *client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// writePump drains send until it is closed, pinging on idle. done is closed
// when it returns.
func (c *client) writePump(writeWait, pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		close(c.done)
	}()
	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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
