package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/team-schedule/internal/domain/team"
	"github.com/riskibarqy/team-schedule/internal/platform/keylock"
)

// TeamRepository keeps team aggregates in process memory. Reads and writes
// hand out deep copies so callers never share state with the store.
type TeamRepository struct {
	mu    sync.RWMutex
	teams map[string]team.Data
	locks *keylock.Map
}

func NewTeamRepository(seed ...team.Data) *TeamRepository {
	teams := make(map[string]team.Data, len(seed))
	for _, data := range seed {
		teams[data.Team.ID] = data.Clone()
	}
	return &TeamRepository{teams: teams, locks: keylock.New()}
}

func (r *TeamRepository) Create(_ context.Context, data team.Data) error {
	if err := data.Team.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.teams[data.Team.ID]; exists {
		return fmt.Errorf("%w: %s", team.ErrTeamExists, data.Team.ID)
	}
	r.teams[data.Team.ID] = data.Clone()
	return nil
}

func (r *TeamRepository) Get(_ context.Context, teamID string) (team.Data, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, ok := r.teams[teamID]
	if !ok {
		return team.Data{}, false, nil
	}
	return data.Clone(), true, nil
}

// Update runs fn on a copy while holding only teamID's lock, then swaps the copy in.
func (r *TeamRepository) Update(ctx context.Context, teamID string, fn team.UpdateFunc) (team.Data, bool, error) {
	unlock := r.locks.Lock(teamID)
	defer unlock()

	current, ok, err := r.Get(ctx, teamID)
	if err != nil || !ok {
		return team.Data{}, ok, err
	}

	if err := fn(&current); err != nil {
		return team.Data{}, true, err
	}

	r.mu.Lock()
	r.teams[teamID] = current.Clone()
	r.mu.Unlock()

	return current, true, nil
}

func (r *TeamRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.teams)
}
