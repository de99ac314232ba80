package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/riskibarqy/team-schedule/internal/domain/availability"
	"github.com/riskibarqy/team-schedule/internal/domain/notification"
	"github.com/riskibarqy/team-schedule/internal/domain/team"
	idgen "github.com/riskibarqy/team-schedule/internal/platform/id"
)

const (
	minPlayersNeeded = 1
	maxPlayersNeeded = 99

	accessCodeDigits  = 4
	teamIDCreateTries = 3
)

var accessCodePattern = regexp.MustCompile(`^[0-9]{4,8}$`)

// CreateTeamInput is the incoming payload for team creation.
type CreateTeamInput struct {
	Name             string
	CreatorName      string
	OtherMemberNames string
	PlayersNeeded    int
	AccessCode       string
}

type CreateTeamResult struct {
	Data            team.Data
	CreatorMemberID string
	AccessCode      string
}

type CreateMatchInput struct {
	Opponent string
	Date     string
	Time     string
	IsHome   bool
	Venue    string
	Season   string
	Half     string
	Matchday int
}

type UpdateAvailabilityInput struct {
	MemberID string
	MatchID  string
	Status   string
}

// TeamService owns team creation, access and the roster/schedule writes.
type TeamService struct {
	mutator *TeamMutator
	teamIDs *idgen.TeamIDs
}

func NewTeamService(mutator *TeamMutator, teamIDs *idgen.TeamIDs) *TeamService {
	if teamIDs == nil {
		teamIDs = idgen.NewTeamIDs(nil)
	}
	return &TeamService{mutator: mutator, teamIDs: teamIDs}
}

func (s *TeamService) CreateTeam(ctx context.Context, input CreateTeamInput) (CreateTeamResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.CreateTeam", "")
	defer span.End()

	input.Name = strings.TrimSpace(input.Name)
	input.CreatorName = strings.TrimSpace(input.CreatorName)
	input.AccessCode = strings.TrimSpace(input.AccessCode)

	if input.Name == "" {
		return CreateTeamResult{}, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}
	if input.CreatorName == "" {
		return CreateTeamResult{}, fmt.Errorf("%w: creator name is required", ErrInvalidInput)
	}
	if err := validatePlayersNeeded(input.PlayersNeeded); err != nil {
		return CreateTeamResult{}, err
	}
	if input.AccessCode == "" {
		code, err := idgen.AccessCode(accessCodeDigits)
		if err != nil {
			return CreateTeamResult{}, fmt.Errorf("%w: %w", ErrDependencyUnavailable, err)
		}
		input.AccessCode = code
	} else if !accessCodePattern.MatchString(input.AccessCode) {
		return CreateTeamResult{}, fmt.Errorf("%w: access code must be 4 to 8 digits", ErrInvalidInput)
	}

	m := s.mutator
	for attempt := 1; ; attempt++ {
		teamID, slug, err := s.teamIDs.NewTeamID(input.Name)
		if err != nil {
			return CreateTeamResult{}, fmt.Errorf("%w: generate team id: %w", ErrDependencyUnavailable, err)
		}

		data := team.NewData(team.Team{
			ID:            teamID,
			Name:          input.Name,
			Slug:          slug,
			PlayersNeeded: input.PlayersNeeded,
			CreatedAt:     m.clock.Now().UTC(),
			AccessCode:    input.AccessCode,
		})

		names := append([]string{input.CreatorName}, splitMemberNames(input.OtherMemberNames)...)
		for _, name := range names {
			memberID, err := m.newID()
			if err != nil {
				return CreateTeamResult{}, err
			}
			if _, err := data.AddMember(team.Member{ID: memberID, Name: name}); err != nil {
				return CreateTeamResult{}, mapDomainError(err)
			}
		}

		err = m.repo.Create(ctx, data)
		if errors.Is(err, team.ErrTeamExists) && attempt < teamIDCreateTries {
			continue
		}
		if err != nil {
			return CreateTeamResult{}, fmt.Errorf("create team: %w", err)
		}

		m.logger.InfoContext(ctx, "team created",
			"team_id", teamID,
			"members", len(data.Members),
			"players_needed", input.PlayersNeeded,
		)
		return CreateTeamResult{
			Data:            data,
			CreatorMemberID: data.Members[0].ID,
			AccessCode:      input.AccessCode,
		}, nil
	}
}

// GetTeam returns the full aggregate when the code matches.
func (s *TeamService) GetTeam(ctx context.Context, access Access) (team.Data, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.GetTeam", access.TeamID)
	defer span.End()

	return s.mutator.load(ctx, access)
}

// WatchTeam is GetTeam for a subscriber. onLoaded runs while the team's
// mutations are held off, so a subscription it makes misses no later update.
func (s *TeamService) WatchTeam(ctx context.Context, access Access, onLoaded func(team.Data)) (team.Data, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.WatchTeam", access.TeamID)
	defer span.End()

	return s.mutator.watch(ctx, access, onLoaded)
}

// SubmitAccessCode is GetTeam for a client that was just asked for the code.
func (s *TeamService) SubmitAccessCode(ctx context.Context, access Access) (team.Data, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.SubmitAccessCode", access.TeamID)
	defer span.End()

	data, err := s.mutator.load(ctx, access)
	if err != nil {
		return team.Data{}, err
	}
	s.mutator.logger.InfoContext(ctx, "access code accepted", "team_id", data.Team.ID)
	return data, nil
}

func (s *TeamService) UpdatePlayersNeeded(ctx context.Context, access Access, playersNeeded int) (team.Data, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.UpdatePlayersNeeded", access.TeamID)
	defer span.End()

	if err := validatePlayersNeeded(playersNeeded); err != nil {
		return team.Data{}, err
	}

	data, err := s.mutator.mutate(ctx, access, func(data *team.Data) ([]notification.Event, error) {
		if data.Team.PlayersNeeded == playersNeeded {
			return nil, nil
		}
		data.Team.PlayersNeeded = playersNeeded
		return []notification.Event{{
			Kind:    notification.KindTeamUpdated,
			Payload: notification.TeamUpdated{PlayersNeeded: playersNeeded},
		}}, nil
	})
	if err != nil {
		return team.Data{}, err
	}

	s.mutator.logger.InfoContext(ctx, "players needed updated", "team_id", data.Team.ID, "players_needed", playersNeeded)
	return data, nil
}

func (s *TeamService) CreateMember(ctx context.Context, access Access, name string) (team.Member, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.CreateMember", access.TeamID)
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return team.Member{}, fmt.Errorf("%w: member name is required", ErrInvalidInput)
	}
	memberID, err := s.mutator.newID()
	if err != nil {
		return team.Member{}, err
	}

	var created team.Member
	_, err = s.mutator.mutate(ctx, access, func(data *team.Data) ([]notification.Event, error) {
		member, err := data.AddMember(team.Member{ID: memberID, Name: name})
		if err != nil {
			return nil, err
		}
		created = member
		return []notification.Event{{
			Kind:    notification.KindMemberCreated,
			Payload: notification.MemberCreated{Member: notification.NewMemberView(member)},
		}}, nil
	})
	if err != nil {
		return team.Member{}, err
	}

	s.mutator.logger.InfoContext(ctx, "member created", "team_id", created.TeamID, "member_id", created.ID)
	return created, nil
}

func (s *TeamService) CreateMatch(ctx context.Context, access Access, input CreateMatchInput) (team.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.CreateMatch", access.TeamID)
	defer span.End()

	input.Opponent = strings.TrimSpace(input.Opponent)
	input.Date = strings.TrimSpace(input.Date)
	if input.Opponent == "" {
		return team.Match{}, fmt.Errorf("%w: opponent is required", ErrInvalidInput)
	}
	if input.Date == "" {
		return team.Match{}, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if input.Matchday < 0 {
		return team.Match{}, fmt.Errorf("%w: matchday must be >= 0", ErrInvalidInput)
	}
	half, err := team.ParseSeasonHalf(input.Half)
	if err != nil {
		return team.Match{}, mapDomainError(err)
	}
	matchID, err := s.mutator.newID()
	if err != nil {
		return team.Match{}, err
	}

	var created team.Match
	_, err = s.mutator.mutate(ctx, access, func(data *team.Data) ([]notification.Event, error) {
		match, err := data.AddMatch(team.Match{
			ID:       matchID,
			Opponent: input.Opponent,
			Date:     input.Date,
			Time:     input.Time,
			IsHome:   input.IsHome,
			Venue:    input.Venue,
			Season:   input.Season,
			Half:     half,
			Matchday: input.Matchday,
		})
		if err != nil {
			return nil, err
		}
		created = match
		return []notification.Event{{
			Kind:    notification.KindMatchCreated,
			Payload: notification.MatchCreated{Match: notification.NewMatchView(match)},
		}}, nil
	})
	if err != nil {
		return team.Match{}, err
	}

	s.mutator.logger.InfoContext(ctx, "match created",
		"team_id", created.TeamID,
		"match_id", created.ID,
		"matchday", created.Matchday,
	)
	return created, nil
}

// UpdateAvailability upserts one member's status for one match and returns the new match summary.
func (s *TeamService) UpdateAvailability(ctx context.Context, access Access, input UpdateAvailabilityInput) (availability.Summary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.UpdateAvailability", access.TeamID)
	defer span.End()

	input.MemberID = strings.TrimSpace(input.MemberID)
	input.MatchID = strings.TrimSpace(input.MatchID)
	status, err := availability.ParseStatus(input.Status)
	if err != nil {
		return availability.Summary{}, mapDomainError(err)
	}

	var summary availability.Summary
	_, err = s.mutator.mutate(ctx, access, func(data *team.Data) ([]notification.Event, error) {
		if err := data.SetAvailability(input.MemberID, input.MatchID, status); err != nil {
			return nil, err
		}
		summary = data.Availability.Summary(input.MatchID, data.Team.PlayersNeeded)
		return []notification.Event{{
			Kind: notification.KindAvailabilityUpdated,
			Payload: notification.AvailabilityUpdated{
				MemberID: input.MemberID,
				MatchID:  input.MatchID,
				Status:   status,
				Summary:  notification.NewSummaryView(summary),
			},
		}}, nil
	})
	if err != nil {
		return availability.Summary{}, err
	}

	s.mutator.logger.InfoContext(ctx, "availability updated",
		"team_id", access.TeamID,
		"member_id", input.MemberID,
		"match_id", input.MatchID,
		"status", string(status),
	)
	return summary, nil
}

// ChangeMatchDate reschedules a match and wipes its availability and predictions.
func (s *TeamService) ChangeMatchDate(ctx context.Context, access Access, matchID, date string) (team.DateChange, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.ChangeMatchDate", access.TeamID)
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return team.DateChange{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	var change team.DateChange
	_, err := s.mutator.mutate(ctx, access, func(data *team.Data) ([]notification.Event, error) {
		var err error
		change, err = data.ChangeMatchDate(matchID, date)
		if err != nil {
			return nil, err
		}
		return notification.DateChangeEvents(change), nil
	})
	if err != nil {
		return team.DateChange{}, err
	}

	s.mutator.logger.InfoContext(ctx, "match date changed",
		"team_id", access.TeamID,
		"match_id", matchID,
		"changed", change.Changed,
		"availability_cleared", change.AvailabilityCleared,
		"predictions_cleared", change.PredictionsCleared,
	)
	return change, nil
}

func validatePlayersNeeded(n int) error {
	if n < minPlayersNeeded || n > maxPlayersNeeded {
		return fmt.Errorf("%w: players needed must be between %d and %d", ErrInvalidInput, minPlayersNeeded, maxPlayersNeeded)
	}
	return nil
}

// splitMemberNames splits a comma separated roster and skips blank entries.
func splitMemberNames(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}
