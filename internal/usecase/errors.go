package usecase

import (
	"errors"
	"fmt"

	"github.com/riskibarqy/team-schedule/internal/domain/availability"
	"github.com/riskibarqy/team-schedule/internal/domain/team"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrTeamNotFound          = errors.New("team not found")
	ErrAccessCodeRequired    = errors.New("access code required")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// AccessCodeRequiredError carries the team that asked for a code.
type AccessCodeRequiredError struct {
	TeamID string
}

func (e *AccessCodeRequiredError) Error() string {
	return fmt.Sprintf("%s: team=%s", ErrAccessCodeRequired, e.TeamID)
}

func (e *AccessCodeRequiredError) Is(target error) bool {
	return target == ErrAccessCodeRequired
}

// mapDomainError translates aggregate validation errors into usecase sentinels.
func mapDomainError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAccessCodeRequired),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrNotFound):
		return err
	case errors.Is(err, team.ErrMatchNotFound), errors.Is(err, team.ErrMemberNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, team.ErrInvalidMatch),
		errors.Is(err, team.ErrInvalidMember),
		errors.Is(err, team.ErrInvalidDate),
		errors.Is(err, availability.ErrInvalidStatus):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	default:
		return err
	}
}
