package cache

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/riskibarqy/team-schedule/internal/domain/team"
	basecache "github.com/riskibarqy/team-schedule/internal/platform/cache"
)

type cachedTeam struct {
	value  team.Data
	exists bool
}

// TeamRepository is a read-through cache in front of another team store.
// Every write goes to next and then drops the cached entry.
type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store[cachedTeam]
}

func NewTeamRepository(next team.Repository, cache *basecache.Store[cachedTeam]) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

// NewTeamStore builds the cache store NewTeamRepository expects.
func NewTeamStore(ttl time.Duration, clock clockwork.Clock) *basecache.Store[cachedTeam] {
	return basecache.NewStore[cachedTeam](ttl, clock)
}

func teamKey(teamID string) string {
	return "team:id:" + teamID
}

func (r *TeamRepository) Create(ctx context.Context, data team.Data) error {
	if err := r.next.Create(ctx, data); err != nil {
		return err
	}
	r.cache.Delete(ctx, teamKey(data.Team.ID))
	return nil
}

func (r *TeamRepository) Get(ctx context.Context, teamID string) (team.Data, bool, error) {
	cached, err := r.cache.GetOrLoad(ctx, teamKey(teamID), func(ctx context.Context) (cachedTeam, error) {
		item, exists, err := r.next.Get(ctx, teamID)
		if err != nil {
			return cachedTeam{}, err
		}
		return cachedTeam{value: item.Clone(), exists: exists}, nil
	})
	if err != nil {
		return team.Data{}, false, err
	}
	if !cached.exists {
		return team.Data{}, false, nil
	}
	return cached.value.Clone(), true, nil
}

func (r *TeamRepository) Update(ctx context.Context, teamID string, fn team.UpdateFunc) (team.Data, bool, error) {
	data, found, err := r.next.Update(ctx, teamID, fn)
	if err == nil && found {
		r.cache.Delete(ctx, teamKey(teamID))
	}
	return data, found, err
}
