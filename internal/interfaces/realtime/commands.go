package realtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/team-schedule/internal/domain/notification"
	"github.com/riskibarqy/team-schedule/internal/domain/team"
	"github.com/riskibarqy/team-schedule/internal/usecase"
)

const (
	commandCreateTeam                   = "CreateTeam"
	commandGetTeam                      = "GetTeam"
	commandSubmitAccessCode             = "SubmitAccessCode"
	commandUpdatePlayersNeeded          = "UpdatePlayersNeeded"
	commandCreateMember                 = "CreateMember"
	commandCreateMatch                  = "CreateMatch"
	commandUpdateAvailability           = "UpdateAvailability"
	commandChangeMatchDate              = "ChangeMatchDate"
	commandAddDatePrediction            = "AddDatePrediction"
	commandUpdatePredictionAvailability = "UpdatePredictionAvailability"
	commandRemoveDatePrediction         = "RemoveDatePrediction"
	commandChoosePredictedDate          = "ChoosePredictedDate"
	commandPreviewCalendar              = "PreviewCalendar"
	commandImportCalendar               = "ImportCalendar"
)

type commandHandler func(s *Sessions, ctx context.Context, conn *Connection, cmd Command) error

var commandHandlers map[string]commandHandler

func init() {
	commandHandlers = map[string]commandHandler{
		commandCreateTeam:                   (*Sessions).createTeam,
		commandGetTeam:                      (*Sessions).getTeam,
		commandSubmitAccessCode:             (*Sessions).submitAccessCode,
		commandUpdatePlayersNeeded:          (*Sessions).updatePlayersNeeded,
		commandCreateMember:                 (*Sessions).createMember,
		commandCreateMatch:                  (*Sessions).createMatch,
		commandUpdateAvailability:           (*Sessions).updateAvailability,
		commandChangeMatchDate:              (*Sessions).changeMatchDate,
		commandAddDatePrediction:            (*Sessions).addDatePrediction,
		commandUpdatePredictionAvailability: (*Sessions).updatePredictionAvailability,
		commandRemoveDatePrediction:         (*Sessions).removeDatePrediction,
		commandChoosePredictedDate:          (*Sessions).choosePredictedDate,
		commandPreviewCalendar:              (*Sessions).previewCalendar,
		commandImportCalendar:               (*Sessions).importCalendar,
	}
}

type createTeamPayload struct {
	Name             string `json:"name" validate:"required,max=100"`
	CreatorName      string `json:"creator_name" validate:"required,max=100"`
	OtherMemberNames string `json:"other_member_names" validate:"max=2000"`
	PlayersNeeded    int    `json:"players_needed" validate:"min=1,max=99"`
	AccessCode       string `json:"access_code" validate:"omitempty,numeric,min=4,max=8"`
}

type playersNeededPayload struct {
	PlayersNeeded int `json:"players_needed" validate:"min=1,max=99"`
}

type memberPayload struct {
	Name string `json:"name" validate:"required,max=100"`
}

type matchPayload struct {
	Opponent string `json:"opponent" validate:"required,max=200"`
	Date     string `json:"date" validate:"required,max=40"`
	Time     string `json:"time" validate:"max=20"`
	IsHome   bool   `json:"is_home"`
	Venue    string `json:"venue" validate:"max=200"`
	Season   string `json:"season" validate:"max=40"`
	Half     string `json:"season_half" validate:"omitempty,oneof=first second"`
	Matchday int    `json:"matchday" validate:"min=0"`
}

type availabilityPayload struct {
	MemberID string `json:"member_id" validate:"required"`
	MatchID  string `json:"match_id" validate:"required"`
	Status   string `json:"status" validate:"required,max=20"`
}

type matchDatePayload struct {
	MatchID string `json:"match_id" validate:"required"`
	Date    string `json:"date" validate:"required,max=40"`
}

type predictionPayload struct {
	MatchID  string `json:"match_id" validate:"required"`
	Date     string `json:"date" validate:"required,max=40"`
	MemberID string `json:"member_id" validate:"required"`
	Status   string `json:"status" validate:"max=20"`
}

type removePredictionPayload struct {
	MatchID  string `json:"match_id" validate:"required"`
	MemberID string `json:"member_id" validate:"required"`
}

type previewPayload struct {
	CalendarText string   `json:"calendar_text"`
	URLs         []string `json:"urls" validate:"omitempty,max=10,dive,max=2048"`
}

type importPayload struct {
	Season  string               `json:"season" validate:"max=40"`
	Half    string               `json:"season_half" validate:"omitempty,oneof=first second"`
	Matches []importMatchPayload `json:"matches" validate:"required,min=1,max=200,dive"`
}

type importMatchPayload struct {
	Opponent string `json:"opponent" validate:"required,max=200"`
	Date     string `json:"date" validate:"required,max=40"`
	Time     string `json:"time" validate:"max=20"`
	IsHome   bool   `json:"is_home"`
	Venue    string `json:"venue" validate:"max=200"`
}

type calendarPreviewPayload struct {
	HomeTeam   string                     `json:"home_team"`
	Candidates []calendarCandidatePayload `json:"candidates"`
}

type calendarCandidatePayload struct {
	Opponent  string `json:"opponent"`
	Date      string `json:"date"`
	Time      string `json:"time,omitempty"`
	IsHome    bool   `json:"is_home"`
	Venue     string `json:"venue,omitempty"`
	League    string `json:"league,omitempty"`
	Summary   string `json:"summary"`
	Parsed    bool   `json:"parsed"`
	Duplicate bool   `json:"duplicate"`
}

func (s *Sessions) createTeam(ctx context.Context, conn *Connection, cmd Command) error {
	var p createTeamPayload
	if err := s.decodePayload(ctx, cmd, &p); err != nil {
		return err
	}

	result, err := s.teams.CreateTeam(ctx, usecase.CreateTeamInput{
		Name:             p.Name,
		CreatorName:      p.CreatorName,
		OtherMemberNames: p.OtherMemberNames,
		PlayersNeeded:    p.PlayersNeeded,
		AccessCode:       p.AccessCode,
	})
	if err != nil {
		return err
	}

	teamID := result.Data.Team.ID
	s.manager.Subscribe(conn, teamID)
	conn.remember(result.AccessCode)
	s.reply(ctx, conn, cmd, teamID, notification.KindTeamCreated, notification.TeamCreated{
		Snapshot:        notification.NewSnapshot(result.Data),
		CreatorMemberID: result.CreatorMemberID,
		AccessCode:      result.AccessCode,
	})
	return nil
}

func (s *Sessions) getTeam(ctx context.Context, conn *Connection, cmd Command) error {
	return s.watch(ctx, conn, cmd)
}

func (s *Sessions) submitAccessCode(ctx context.Context, conn *Connection, cmd Command) error {
	if err := s.watch(ctx, conn, cmd); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "access code accepted", "connection_id", conn.ID, "team_id", conn.TeamID())
	return nil
}

// watch subscribes conn and queues the TeamLoaded snapshot while the team's
// mutations are held off, so every later delta lands after the snapshot.
func (s *Sessions) watch(ctx context.Context, conn *Connection, cmd Command) error {
	access := s.access(conn, cmd)
	_, err := s.teams.WatchTeam(ctx, access, func(data team.Data) {
		teamID := data.Team.ID
		if conn.TeamID() != teamID {
			s.manager.Subscribe(conn, teamID)
		}
		conn.remember(access.AccessCode)
		s.reply(ctx, conn, cmd, teamID, notification.KindTeamLoaded, notification.NewSnapshot(data))
		s.logger.DebugContext(ctx, "session subscribed", "connection_id", conn.ID, "team_id", teamID, "command", cmd.Type)
	})
	return err
}

func (s *Sessions) updatePlayersNeeded(ctx context.Context, conn *Connection, cmd Command) error {
	var p playersNeededPayload
	if err := s.decodePayload(ctx, cmd, &p); err != nil {
		return err
	}
	_, err := s.teams.UpdatePlayersNeeded(ctx, s.access(conn, cmd), p.PlayersNeeded)
	return err
}

func (s *Sessions) createMember(ctx context.Context, conn *Connection, cmd Command) error {
	var p memberPayload
	if err := s.decodePayload(ctx, cmd, &p); err != nil {
		return err
	}
	_, err := s.teams.CreateMember(ctx, s.access(conn, cmd), p.Name)
	return err
}

func (s *Sessions) createMatch(ctx context.Context, conn *Connection, cmd Command) error {
	var p matchPayload
	if err := s.decodePayload(ctx, cmd, &p); err != nil {
		return err
	}
	_, err := s.teams.CreateMatch(ctx, s.access(conn, cmd), usecase.CreateMatchInput{
		Opponent: p.Opponent,
		Date:     p.Date,
		Time:     p.Time,
		IsHome:   p.IsHome,
		Venue:    p.Venue,
		Season:   p.Season,
		Half:     p.Half,
		Matchday: p.Matchday,
	})
	return err
}

func (s *Sessions) updateAvailability(ctx context.Context, conn *Connection, cmd Command) error {
	var p availabilityPayload
	if err := s.decodePayload(ctx, cmd, &p); err != nil {
		return err
	}
	_, err := s.teams.UpdateAvailability(ctx, s.access(conn, cmd), usecase.UpdateAvailabilityInput{
		MemberID: p.MemberID,
		MatchID:  p.MatchID,
		Status:   p.Status,
	})
	return err
}

func (s *Sessions) changeMatchDate(ctx context.Context, conn *Connection, cmd Command) error {
	var p matchDatePayload
	if err := s.decodePayload(ctx, cmd, &p); err != nil {
		return err
	}
	_, err := s.teams.ChangeMatchDate(ctx, s.access(conn, cmd), p.MatchID, p.Date)
	return err
}

func (s *Sessions) addDatePrediction(ctx context.Context, conn *Connection, cmd Command) error {
	var p predictionPayload
	if err := s.decodePayload(ctx, cmd, &p); err != nil {
		return err
	}
	_, err := s.predictions.AddDatePrediction(ctx, s.access(conn, cmd), usecase.PredictionInput{
		MatchID:  p.MatchID,
		Date:     p.Date,
		MemberID: p.MemberID,
	})
	return err
}

func (s *Sessions) updatePredictionAvailability(ctx context.Context, conn *Connection, cmd Command) error {
	var p predictionPayload
	if err := s.decodePayload(ctx, cmd, &p); err != nil {
		return err
	}
	return s.predictions.UpdatePredictionAvailability(ctx, s.access(conn, cmd), usecase.PredictionInput{
		MatchID:  p.MatchID,
		Date:     p.Date,
		MemberID: p.MemberID,
	}, p.Status)
}

func (s *Sessions) removeDatePrediction(ctx context.Context, conn *Connection, cmd Command) error {
	var p removePredictionPayload
	if err := s.decodePayload(ctx, cmd, &p); err != nil {
		return err
	}
	_, err := s.predictions.RemoveDatePrediction(ctx, s.access(conn, cmd), p.MatchID, p.MemberID)
	return err
}

func (s *Sessions) choosePredictedDate(ctx context.Context, conn *Connection, cmd Command) error {
	var p matchDatePayload
	if err := s.decodePayload(ctx, cmd, &p); err != nil {
		return err
	}
	_, err := s.predictions.ChoosePredictedDate(ctx, s.access(conn, cmd), p.MatchID, p.Date)
	return err
}

func (s *Sessions) previewCalendar(ctx context.Context, conn *Connection, cmd Command) error {
	var p previewPayload
	if err := s.decodePayload(ctx, cmd, &p); err != nil {
		return err
	}

	access := s.access(conn, cmd)
	var (
		preview usecase.CalendarPreview
		err     error
	)
	switch {
	case len(p.URLs) > 0 && strings.TrimSpace(p.CalendarText) != "":
		return fmt.Errorf("%w: send either calendar_text or urls", usecase.ErrInvalidInput)
	case len(p.URLs) > 0:
		preview, err = s.calendar.FetchCalendar(ctx, access, p.URLs)
	default:
		preview, err = s.calendar.PreviewCalendar(ctx, access, p.CalendarText)
	}
	if err != nil {
		return err
	}

	out := calendarPreviewPayload{
		HomeTeam:   preview.HomeTeam,
		Candidates: make([]calendarCandidatePayload, 0, len(preview.Candidates)),
	}
	for _, c := range preview.Candidates {
		out.Candidates = append(out.Candidates, calendarCandidatePayload{
			Opponent:  c.Opponent,
			Date:      c.Date,
			Time:      c.Time,
			IsHome:    c.IsHome,
			Venue:     c.Venue,
			League:    c.League,
			Summary:   c.Summary,
			Parsed:    c.Parsed,
			Duplicate: c.Duplicate,
		})
	}
	s.reply(ctx, conn, cmd, access.TeamID, notification.KindCalendarPreview, out)
	return nil
}

func (s *Sessions) importCalendar(ctx context.Context, conn *Connection, cmd Command) error {
	var p importPayload
	if err := s.decodePayload(ctx, cmd, &p); err != nil {
		return err
	}

	input := usecase.ImportCalendarInput{
		Season:  p.Season,
		Half:    p.Half,
		Matches: make([]usecase.ImportMatch, 0, len(p.Matches)),
	}
	for _, m := range p.Matches {
		input.Matches = append(input.Matches, usecase.ImportMatch{
			Opponent: m.Opponent,
			Date:     m.Date,
			Time:     m.Time,
			IsHome:   m.IsHome,
			Venue:    m.Venue,
		})
	}
	_, err := s.calendar.ImportCalendar(ctx, s.access(conn, cmd), input)
	return err
}
