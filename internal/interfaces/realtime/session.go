package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"

	"github.com/riskibarqy/team-schedule/internal/domain/notification"
	idgen "github.com/riskibarqy/team-schedule/internal/platform/id"
	"github.com/riskibarqy/team-schedule/internal/platform/logging"
	"github.com/riskibarqy/team-schedule/internal/usecase"
)

// Command is one client request sent over a session.
type Command struct {
	Type       string          `json:"type" validate:"required,max=64"`
	RequestID  string          `json:"request_id" validate:"max=128"`
	TeamID     string          `json:"team_id" validate:"max=200"`
	AccessCode string          `json:"access_code" validate:"max=16"`
	Payload    json.RawMessage `json:"payload"`
}

// Reply is a notification addressed to the requesting session only.
type Reply struct {
	notification.Notification
	RequestID string `json:"request_id,omitempty"`
}

// Sessions serves GET /ws and bridges session commands to the team services.
type Sessions struct {
	manager     *ConnectionManager
	teams       *usecase.TeamService
	predictions *usecase.PredictionService
	calendar    *usecase.CalendarService
	validator   *validator.Validate
	logger      *logging.Logger
	clock       clockwork.Clock
	ids         idgen.Generator
}

func NewSessions(
	manager *ConnectionManager,
	teams *usecase.TeamService,
	predictions *usecase.PredictionService,
	calendar *usecase.CalendarService,
	logger *logging.Logger,
) *Sessions {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sessions{
		manager:     manager,
		teams:       teams,
		predictions: predictions,
		calendar:    calendar,
		validator:   validator.New(),
		logger:      logger,
		clock:       manager.config.Clock,
		ids:         idgen.NewUUIDGenerator(),
	}
}

// ServeHTTP upgrades the request. Optional team_id and access_code query
// parameters load and subscribe the team right away.
func (s *Sessions) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	initial := Command{
		Type:       commandGetTeam,
		TeamID:     strings.TrimSpace(query.Get("team_id")),
		AccessCode: query.Get("access_code"),
	}

	var onOpen OpenHandler
	if initial.TeamID != "" {
		onOpen = func(ctx context.Context, conn *Connection) {
			s.handleCommand(ctx, conn, initial)
		}
	}

	if _, err := s.manager.Upgrade(w, r, onOpen, s.handleMessage); err != nil {
		s.logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
	}
}

func (s *Sessions) handleMessage(ctx context.Context, conn *Connection, message []byte) {
	var cmd Command
	if err := sonic.Unmarshal(message, &cmd); err != nil {
		s.replyError(ctx, conn, Command{}, fmt.Errorf("%w: invalid JSON command: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := s.validator.StructCtx(ctx, cmd); err != nil {
		s.replyError(ctx, conn, cmd, fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err))
		return
	}

	s.handleCommand(ctx, conn, cmd)
}

func (s *Sessions) handleCommand(ctx context.Context, conn *Connection, cmd Command) {
	handler, ok := commandHandlers[cmd.Type]
	if !ok {
		s.replyError(ctx, conn, cmd, fmt.Errorf("%w: unknown command type %q", usecase.ErrInvalidInput, cmd.Type))
		return
	}

	if err := handler(s, ctx, conn, cmd); err != nil {
		s.logger.WarnContext(ctx, "session command failed",
			"connection_id", conn.ID,
			"command", cmd.Type,
			"team_id", cmd.TeamID,
			"error", err,
		)
		s.replyError(ctx, conn, cmd, err)
	}
}

// access resolves the team and code for a command, falling back to the
// session's subscribed team and the code that unlocked it.
func (s *Sessions) access(conn *Connection, cmd Command) usecase.Access {
	teamID, code := conn.access()
	access := usecase.Access{TeamID: strings.TrimSpace(cmd.TeamID), AccessCode: cmd.AccessCode}
	if access.TeamID == "" {
		access.TeamID = teamID
	}
	if access.AccessCode == "" && access.TeamID == teamID {
		access.AccessCode = code
	}
	return access
}

// decodePayload reads the command payload into dst and validates it.
func (s *Sessions) decodePayload(ctx context.Context, cmd Command, dst any) error {
	if len(cmd.Payload) == 0 {
		return fmt.Errorf("%w: payload is required for %s", usecase.ErrInvalidInput, cmd.Type)
	}
	if err := sonic.Unmarshal(cmd.Payload, dst); err != nil {
		return fmt.Errorf("%w: invalid %s payload: %v", usecase.ErrInvalidInput, cmd.Type, err)
	}
	if err := s.validator.StructCtx(ctx, dst); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (s *Sessions) reply(ctx context.Context, conn *Connection, cmd Command, teamID string, kind notification.Kind, payload any) {
	id, err := s.ids.NewID()
	if err != nil {
		s.logger.ErrorContext(ctx, "generate reply id failed", "error", err)
		return
	}
	frame, err := sonic.Marshal(Reply{
		Notification: notification.Notification{
			ID:      id,
			Kind:    kind,
			TeamID:  teamID,
			At:      s.clock.Now().UTC(),
			Payload: payload,
		},
		RequestID: cmd.RequestID,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "encode reply failed", "type", string(kind), "error", err)
		return
	}
	conn.Send(frame)
}

func (s *Sessions) replyError(ctx context.Context, conn *Connection, cmd Command, err error) {
	var codeErr *usecase.AccessCodeRequiredError
	switch {
	case errors.As(err, &codeErr):
		s.reply(ctx, conn, cmd, codeErr.TeamID, notification.KindAccessCodeRequired, notification.TeamRef{TeamID: codeErr.TeamID})
	case errors.Is(err, usecase.ErrTeamNotFound):
		teamID := s.access(conn, cmd).TeamID
		s.reply(ctx, conn, cmd, teamID, notification.KindTeamNotFound, notification.TeamRef{TeamID: teamID})
	default:
		s.reply(ctx, conn, cmd, s.access(conn, cmd).TeamID, notification.KindError, errorPayload(err))
	}
}

func errorPayload(err error) notification.Error {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return notification.Error{Reason: "invalidInput", Message: err.Error()}
	case errors.Is(err, usecase.ErrNotFound):
		return notification.Error{Reason: "notFound", Message: err.Error()}
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		return notification.Error{Reason: "dependencyUnavailable", Message: err.Error()}
	default:
		return notification.Error{Reason: "internalError", Message: "internal server error"}
	}
}
