package realtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/nats-io/nats.go"

	"github.com/riskibarqy/team-schedule/internal/platform/logging"
)

const DefaultSubjectPrefix = "team-schedule.notifications"

// NATSConfig holds connection settings for the cross-instance relay.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// ConnectNATS dials the broker with reconnect handling logged through logger.
func ConnectNATS(cfg NATSConfig, logger *logging.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = -1
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name("team-schedule"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Error("nats async error", "subject", subject, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return nc, nil
}

// relayMessage is the wire form of one published batch.
type relayMessage struct {
	TeamID string   `json:"team_id"`
	Frames []string `json:"frames"`
}

// NATSRelay publishes each team's frames to <prefix>.<teamID> and delivers
// everything received on <prefix>.> to local sessions.
type NATSRelay struct {
	nc      *nats.Conn
	prefix  string
	manager *ConnectionManager
	logger  *logging.Logger
	sub     *nats.Subscription
}

func NewNATSRelay(nc *nats.Conn, prefix string, manager *ConnectionManager, logger *logging.Logger) *NATSRelay {
	if logger == nil {
		logger = logging.Default()
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSRelay{nc: nc, prefix: prefix, manager: manager, logger: logger}
}

// Start subscribes to every team subject.
func (r *NATSRelay) Start() error {
	sub, err := r.nc.Subscribe(r.prefix+".>", r.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s.>: %w", r.prefix, err)
	}
	r.sub = sub
	r.logger.Info("nats relay subscribed", "subject", sub.Subject)
	return nil
}

func (r *NATSRelay) Publish(ctx context.Context, teamID string, frames [][]byte) error {
	msg := relayMessage{TeamID: teamID, Frames: make([]string, 0, len(frames))}
	for _, frame := range frames {
		msg.Frames = append(msg.Frames, string(frame))
	}
	data, err := sonic.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode relay message: %w", err)
	}
	if err := r.nc.Publish(r.subject(teamID), data); err != nil {
		return fmt.Errorf("publish relay message: %w", err)
	}
	return nil
}

func (r *NATSRelay) handle(msg *nats.Msg) {
	var decoded relayMessage
	if err := sonic.Unmarshal(msg.Data, &decoded); err != nil {
		r.logger.Warn("drop malformed relay message", "subject", msg.Subject, "error", err)
		return
	}
	if decoded.TeamID == "" {
		r.logger.Warn("drop relay message without team", "subject", msg.Subject)
		return
	}

	frames := make([][]byte, 0, len(decoded.Frames))
	for _, frame := range decoded.Frames {
		frames = append(frames, []byte(frame))
	}
	r.manager.Deliver(decoded.TeamID, frames)
}

func (r *NATSRelay) subject(teamID string) string {
	return r.prefix + "." + subjectToken(teamID)
}

// Close drains the subscription and the connection.
func (r *NATSRelay) Close() error {
	if r.sub != nil {
		if err := r.sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			return fmt.Errorf("unsubscribe relay: %w", err)
		}
	}
	return r.nc.Drain()
}

// subjectToken keeps a team id to a single subject token.
func subjectToken(teamID string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, teamID)
}
