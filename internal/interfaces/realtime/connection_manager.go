package realtime

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/riskibarqy/team-schedule/internal/domain/notification"
	"github.com/riskibarqy/team-schedule/internal/platform/logging"
)

// ConnectionConfig holds configuration for websocket sessions.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageBytes int64
	SendBuffer      int
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
	Clock           clockwork.Clock
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageBytes: 256 << 10,
		SendBuffer:      256,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
}

func (c ConnectionConfig) withDefaults() ConnectionConfig {
	def := DefaultConnectionConfig()
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.ReadTimeout {
		c.PingInterval = c.ReadTimeout * 9 / 10
	}
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = def.MaxMessageBytes
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = def.SendBuffer
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = def.ReadBufferSize
	}
	if c.WriteBufferSize <= 0 {
		c.WriteBufferSize = def.WriteBufferSize
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = func(*http.Request) bool { return true }
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return c
}

// Relay forwards encoded frames to every instance, this one included.
type Relay interface {
	Publish(ctx context.Context, teamID string, frames [][]byte) error
}

// MessageHandler handles one inbound text frame. Calls for a connection are sequential.
type MessageHandler func(ctx context.Context, conn *Connection, message []byte)

// OpenHandler runs on the read goroutine before the first frame is read.
type OpenHandler func(ctx context.Context, conn *Connection)

// ConnectionManager tracks live sessions per team and fans notifications out to them.
// It implements usecase.Notifier.
type ConnectionManager struct {
	mu    sync.RWMutex
	teams map[string]map[*Connection]struct{}
	all   map[*Connection]struct{}

	upgrader websocket.Upgrader
	config   ConnectionConfig
	logger   *logging.Logger

	relayMu sync.RWMutex
	relay   Relay
}

func NewConnectionManager(config ConnectionConfig, logger *logging.Logger) *ConnectionManager {
	if logger == nil {
		logger = logging.Default()
	}
	config = config.withDefaults()

	return &ConnectionManager{
		teams: make(map[string]map[*Connection]struct{}),
		all:   make(map[*Connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
		logger: logger,
	}
}

// SetRelay routes published frames through relay instead of local delivery.
func (cm *ConnectionManager) SetRelay(relay Relay) {
	cm.relayMu.Lock()
	cm.relay = relay
	cm.relayMu.Unlock()
}

// Upgrade switches the request to a websocket session and starts its pumps.
func (cm *ConnectionManager) Upgrade(w http.ResponseWriter, r *http.Request, onOpen OpenHandler, onMessage MessageHandler) (*Connection, error) {
	ws, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("upgrade websocket connection: %w", err)
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	conn := &Connection{
		ID:          uuid.NewString(),
		ConnectedAt: cm.config.Clock.Now().UTC(),
		ws:          ws,
		send:        make(chan []byte, cm.config.SendBuffer),
		done:        make(chan struct{}),
		manager:     cm,
		cancel:      cancel,
	}

	cm.mu.Lock()
	cm.all[conn] = struct{}{}
	cm.mu.Unlock()

	go conn.writePump()
	go conn.readPump(ctx, onOpen, onMessage)

	cm.logger.InfoContext(ctx, "websocket connection established",
		"connection_id", conn.ID,
		"remote_addr", r.RemoteAddr,
	)
	return conn, nil
}

// Subscribe moves conn to teamID, leaving any team it followed before.
func (cm *ConnectionManager) Subscribe(conn *Connection, teamID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, live := cm.all[conn]; !live {
		return
	}
	cm.removeLocked(conn)
	if cm.teams[teamID] == nil {
		cm.teams[teamID] = make(map[*Connection]struct{})
	}
	cm.teams[teamID][conn] = struct{}{}
	conn.setTeam(teamID)
}

func (cm *ConnectionManager) Unsubscribe(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.removeLocked(conn)
}

func (cm *ConnectionManager) removeLocked(conn *Connection) {
	teamID := conn.TeamID()
	if teamID == "" {
		return
	}
	if conns, ok := cm.teams[teamID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(cm.teams, teamID)
		}
	}
	conn.setTeam("")
}

func (cm *ConnectionManager) unregister(conn *Connection) {
	cm.mu.Lock()
	cm.removeLocked(conn)
	delete(cm.all, conn)
	cm.mu.Unlock()
}

// Publish encodes notes and delivers them to the team's sessions in order.
func (cm *ConnectionManager) Publish(ctx context.Context, teamID string, notes []notification.Notification) {
	if len(notes) == 0 {
		return
	}

	frames := make([][]byte, 0, len(notes))
	for _, note := range notes {
		frame, err := sonic.Marshal(note)
		if err != nil {
			cm.logger.ErrorContext(ctx, "encode notification failed", "team_id", teamID, "type", string(note.Kind), "error", err)
			continue
		}
		frames = append(frames, frame)
	}

	cm.relayMu.RLock()
	relay := cm.relay
	cm.relayMu.RUnlock()
	if relay != nil {
		err := relay.Publish(ctx, teamID, frames)
		if err == nil {
			return
		}
		cm.logger.WarnContext(ctx, "relay publish failed, delivering locally", "team_id", teamID, "error", err)
	}

	cm.Deliver(teamID, frames)
}

// Deliver sends frames to this instance's sessions for teamID. Sessions that
// cannot keep up are closed.
func (cm *ConnectionManager) Deliver(teamID string, frames [][]byte) {
	cm.mu.RLock()
	targets := make([]*Connection, 0, len(cm.teams[teamID]))
	for conn := range cm.teams[teamID] {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range targets {
		for _, frame := range frames {
			if !conn.enqueue(frame) {
				break
			}
		}
	}

	cm.logger.Debug("notifications delivered",
		"team_id", teamID,
		"frames", len(frames),
		"connections", len(targets),
	)
}

// Subscribers reports how many local sessions follow teamID.
func (cm *ConnectionManager) Subscribers(teamID string) int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.teams[teamID])
}

func (cm *ConnectionManager) ConnectionCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.all)
}

// Close ends every session.
func (cm *ConnectionManager) Close() {
	cm.mu.RLock()
	conns := make([]*Connection, 0, len(cm.all))
	for conn := range cm.all {
		conns = append(conns, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range conns {
		conn.Close()
	}
}
