package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Connection is one websocket session.
type Connection struct {
	ID          string
	ConnectedAt time.Time

	ws      *websocket.Conn
	send    chan []byte
	done    chan struct{}
	manager *ConnectionManager
	cancel  context.CancelFunc

	closeOnce sync.Once

	mu         sync.Mutex
	teamID     string
	accessCode string
}

func (c *Connection) TeamID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.teamID
}

func (c *Connection) setTeam(teamID string) {
	c.mu.Lock()
	if c.teamID != teamID {
		c.accessCode = ""
	}
	c.teamID = teamID
	c.mu.Unlock()
}

// remember keeps the code that unlocked the subscribed team for later commands.
func (c *Connection) remember(accessCode string) {
	c.mu.Lock()
	c.accessCode = accessCode
	c.mu.Unlock()
}

func (c *Connection) access() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.teamID, c.accessCode
}

// Send queues a frame for this session only.
func (c *Connection) Send(frame []byte) bool {
	return c.enqueue(frame)
}

func (c *Connection) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	case <-c.done:
		return false
	default:
		c.manager.logger.Warn("connection send buffer full, closing connection",
			"connection_id", c.ID,
			"team_id", c.TeamID(),
		)
		c.Close()
		return false
	}
}

// Close unregisters the session and stops both pumps.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.manager.unregister(c)
		close(c.done)
		c.cancel()
	})
}

func (c *Connection) writePump() {
	cfg := c.manager.config
	ticker := cfg.Clock.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
		c.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.manager.logger.Warn("write websocket frame failed", "connection_id", c.ID, "error", err)
				return
			}

		case <-ticker.Chan():
			_ = c.ws.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.manager.logger.Warn("send websocket ping failed", "connection_id", c.ID, "error", err)
				return
			}

		case <-c.done:
			_ = c.ws.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(cfg.WriteTimeout),
			)
			return
		}
	}
}

func (c *Connection) readPump(ctx context.Context, onOpen OpenHandler, onMessage MessageHandler) {
	cfg := c.manager.config
	defer func() {
		c.Close()
		c.manager.logger.InfoContext(ctx, "websocket connection closed", "connection_id", c.ID)
	}()

	c.ws.SetReadLimit(cfg.MaxMessageBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	if onOpen != nil {
		onOpen(ctx, c)
	}

	for {
		msgType, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.manager.logger.WarnContext(ctx, "unexpected websocket close", "connection_id", c.ID, "error", err)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))

		if msgType != websocket.TextMessage || onMessage == nil {
			continue
		}
		onMessage(ctx, c, message)
	}
}
