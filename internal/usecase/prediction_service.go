package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/team-schedule/internal/domain/availability"
	"github.com/riskibarqy/team-schedule/internal/domain/notification"
	"github.com/riskibarqy/team-schedule/internal/domain/team"
)

type PredictionInput struct {
	MatchID  string
	Date     string
	MemberID string
}

func (in PredictionInput) normalized() (PredictionInput, error) {
	in.MatchID = strings.TrimSpace(in.MatchID)
	in.Date = strings.TrimSpace(in.Date)
	in.MemberID = strings.TrimSpace(in.MemberID)
	if in.MatchID == "" {
		return in, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	if in.MemberID == "" {
		return in, fmt.Errorf("%w: member id is required", ErrInvalidInput)
	}
	return in, nil
}

// PredictionService runs the propose/vote/commit negotiation for match dates.
// Votes are advisory; any holder of the access code may commit a date.
type PredictionService struct {
	mutator *TeamMutator
}

func NewPredictionService(mutator *TeamMutator) *PredictionService {
	return &PredictionService{mutator: mutator}
}

// AddDatePrediction proposes a date with a Maybe vote. Re-adding is a no-op and reports false.
func (s *PredictionService) AddDatePrediction(ctx context.Context, access Access, input PredictionInput) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.AddDatePrediction", access.TeamID)
	defer span.End()

	input, err := input.normalized()
	if err != nil {
		return false, err
	}

	var added bool
	_, err = s.mutator.mutate(ctx, access, func(data *team.Data) ([]notification.Event, error) {
		var err error
		added, err = data.AddPrediction(input.MatchID, input.Date, input.MemberID)
		if err != nil || !added {
			return nil, err
		}
		return []notification.Event{{
			Kind: notification.KindDatePredictionAdded,
			Payload: notification.DatePrediction{
				MatchID:  input.MatchID,
				Date:     input.Date,
				MemberID: input.MemberID,
				Status:   availability.Maybe,
			},
		}}, nil
	})
	if err != nil {
		return false, err
	}

	s.mutator.logger.InfoContext(ctx, "date prediction added",
		"team_id", access.TeamID,
		"match_id", input.MatchID,
		"member_id", input.MemberID,
		"date", input.Date,
		"added", added,
	)
	return added, nil
}

func (s *PredictionService) UpdatePredictionAvailability(ctx context.Context, access Access, input PredictionInput, rawStatus string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.UpdatePredictionAvailability", access.TeamID)
	defer span.End()

	input, err := input.normalized()
	if err != nil {
		return err
	}
	status, err := availability.ParseStatus(rawStatus)
	if err != nil {
		return mapDomainError(err)
	}

	_, err = s.mutator.mutate(ctx, access, func(data *team.Data) ([]notification.Event, error) {
		if err := data.UpdatePrediction(input.MatchID, input.Date, input.MemberID, status); err != nil {
			return nil, err
		}
		return []notification.Event{{
			Kind: notification.KindDatePredictionUpdated,
			Payload: notification.DatePrediction{
				MatchID:  input.MatchID,
				Date:     input.Date,
				MemberID: input.MemberID,
				Status:   status,
			},
		}}, nil
	})
	if err != nil {
		return err
	}

	s.mutator.logger.InfoContext(ctx, "date prediction updated",
		"team_id", access.TeamID,
		"match_id", input.MatchID,
		"member_id", input.MemberID,
		"status", string(status),
	)
	return nil
}

// RemoveDatePrediction withdraws all of a member's candidate dates for a match.
func (s *PredictionService) RemoveDatePrediction(ctx context.Context, access Access, matchID, memberID string) ([]string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.RemoveDatePrediction", access.TeamID)
	defer span.End()

	input, err := PredictionInput{MatchID: matchID, MemberID: memberID}.normalized()
	if err != nil {
		return nil, err
	}

	var removed []string
	_, err = s.mutator.mutate(ctx, access, func(data *team.Data) ([]notification.Event, error) {
		var err error
		removed, err = data.RemovePrediction(input.MatchID, input.MemberID)
		if err != nil || len(removed) == 0 {
			return nil, err
		}
		return []notification.Event{{
			Kind: notification.KindDatePredictionRemoved,
			Payload: notification.DatePredictionRemoved{
				MatchID:  input.MatchID,
				MemberID: input.MemberID,
				Dates:    removed,
			},
		}}, nil
	})
	if err != nil {
		return nil, err
	}

	s.mutator.logger.InfoContext(ctx, "date prediction removed",
		"team_id", access.TeamID,
		"match_id", input.MatchID,
		"member_id", input.MemberID,
		"dates", len(removed),
	)
	return removed, nil
}

// ChoosePredictedDate commits a date through the same path as a direct date change.
func (s *PredictionService) ChoosePredictedDate(ctx context.Context, access Access, matchID, date string) (team.DateChange, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.ChoosePredictedDate", access.TeamID)
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return team.DateChange{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	var change team.DateChange
	_, err := s.mutator.mutate(ctx, access, func(data *team.Data) ([]notification.Event, error) {
		var err error
		change, err = data.ChoosePredictedDate(matchID, date)
		if err != nil {
			return nil, err
		}
		return notification.DateChangeEvents(change), nil
	})
	if err != nil {
		return team.DateChange{}, err
	}

	s.mutator.logger.InfoContext(ctx, "predicted date chosen",
		"team_id", access.TeamID,
		"match_id", matchID,
		"date", change.Match.Date,
		"changed", change.Changed,
	)
	return change, nil
}
