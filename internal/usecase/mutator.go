package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/riskibarqy/team-schedule/internal/domain/notification"
	"github.com/riskibarqy/team-schedule/internal/domain/team"
	idgen "github.com/riskibarqy/team-schedule/internal/platform/id"
	"github.com/riskibarqy/team-schedule/internal/platform/keylock"
	"github.com/riskibarqy/team-schedule/internal/platform/logging"
)

// Access names a team and the code presented for it.
type Access struct {
	TeamID     string
	AccessCode string
}

// normalized trims the team id only. Codes are compared exactly as presented.
func (a Access) normalized() Access {
	return Access{TeamID: strings.TrimSpace(a.TeamID), AccessCode: a.AccessCode}
}

// Notifier delivers a team's notifications to its subscribers. Calls for the
// same team are made in mutation order.
type Notifier interface {
	Publish(ctx context.Context, teamID string, notes []notification.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, string, []notification.Notification) {}

type MutatorOption func(*TeamMutator)

func WithClock(clock clockwork.Clock) MutatorOption {
	return func(m *TeamMutator) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithEntityIDs sets the generator for member, match and notification IDs.
func WithEntityIDs(ids idgen.Generator) MutatorOption {
	return func(m *TeamMutator) {
		if ids != nil {
			m.ids = ids
		}
	}
}

// TeamMutator runs every write to a team inside that team's critical section:
// access check, aggregate update, persistence and notification publish.
type TeamMutator struct {
	repo     team.Repository
	locks    *keylock.Map
	notifier Notifier
	clock    clockwork.Clock
	ids      idgen.Generator
	logger   *logging.Logger
}

func NewTeamMutator(repo team.Repository, notifier Notifier, logger *logging.Logger, opts ...MutatorOption) *TeamMutator {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	m := &TeamMutator{
		repo:     repo,
		locks:    keylock.New(),
		notifier: notifier,
		clock:    clockwork.NewRealClock(),
		ids:      idgen.NewUUIDGenerator(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *TeamMutator) newID() (string, error) {
	v, err := m.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("%w: generate id: %w", ErrDependencyUnavailable, err)
	}
	return v, nil
}

func codesMatch(stored, supplied string) bool {
	if supplied == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

// load reads a team and checks the supplied code.
func (m *TeamMutator) load(ctx context.Context, access Access) (team.Data, error) {
	access = access.normalized()
	if access.TeamID == "" {
		return team.Data{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	data, found, err := m.repo.Get(ctx, access.TeamID)
	if err != nil {
		return team.Data{}, fmt.Errorf("get team: %w", err)
	}
	if !found {
		return team.Data{}, fmt.Errorf("%w: %s", ErrTeamNotFound, access.TeamID)
	}
	if !codesMatch(data.Team.AccessCode, access.AccessCode) {
		m.logger.WarnContext(ctx, "access code rejected", "team_id", access.TeamID)
		return team.Data{}, &AccessCodeRequiredError{TeamID: access.TeamID}
	}
	return data, nil
}

// watch loads the team under its lock and hands it to onLoaded before the
// lock is released. No mutation of the team can publish between the read and
// whatever onLoaded registers.
func (m *TeamMutator) watch(ctx context.Context, access Access, onLoaded func(team.Data)) (team.Data, error) {
	access = access.normalized()
	if access.TeamID == "" {
		return team.Data{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	unlock := m.locks.Lock(access.TeamID)
	defer unlock()

	data, err := m.load(ctx, access)
	if err != nil {
		return team.Data{}, err
	}
	if onLoaded != nil {
		onLoaded(data.Clone())
	}
	return data, nil
}

// mutate applies fn to the team under its lock and publishes the events fn
// returns. A failing fn or a wrong access code leaves the team untouched.
func (m *TeamMutator) mutate(
	ctx context.Context,
	access Access,
	fn func(data *team.Data) ([]notification.Event, error),
) (team.Data, error) {
	access = access.normalized()
	if access.TeamID == "" {
		return team.Data{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	unlock := m.locks.Lock(access.TeamID)
	defer unlock()

	var (
		notes    []notification.Notification
		applyErr error
	)
	updated, found, err := m.repo.Update(ctx, access.TeamID, func(data *team.Data) error {
		if !codesMatch(data.Team.AccessCode, access.AccessCode) {
			applyErr = &AccessCodeRequiredError{TeamID: access.TeamID}
			return applyErr
		}
		events, err := fn(data)
		if err != nil {
			applyErr = err
			return err
		}
		notes, applyErr = m.stamp(access.TeamID, events)
		return applyErr
	})
	switch {
	case applyErr != nil:
		if errors.Is(applyErr, ErrAccessCodeRequired) {
			m.logger.WarnContext(ctx, "access code rejected", "team_id", access.TeamID)
		}
		return team.Data{}, mapDomainError(applyErr)
	case err != nil:
		return team.Data{}, fmt.Errorf("update team: %w", err)
	case !found:
		return team.Data{}, fmt.Errorf("%w: %s", ErrTeamNotFound, access.TeamID)
	}

	if len(notes) > 0 {
		m.notifier.Publish(ctx, access.TeamID, notes)
	}
	return updated, nil
}

func (m *TeamMutator) stamp(teamID string, events []notification.Event) ([]notification.Notification, error) {
	now := m.clock.Now().UTC()
	notes := make([]notification.Notification, 0, len(events))
	for _, ev := range events {
		noteID, err := m.newID()
		if err != nil {
			return nil, err
		}
		notes = append(notes, notification.Notification{
			ID:      noteID,
			Kind:    ev.Kind,
			TeamID:  teamID,
			At:      now,
			Payload: ev.Payload,
		})
	}
	return notes, nil
}
