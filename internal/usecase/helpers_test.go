package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/riskibarqy/team-schedule/internal/domain/notification"
	"github.com/riskibarqy/team-schedule/internal/infrastructure/repository/memory"
	idgen "github.com/riskibarqy/team-schedule/internal/platform/id"
	"github.com/riskibarqy/team-schedule/internal/platform/logging"
)

type seqIDs struct {
	prefix string
	n      atomic.Int64
}

func (g *seqIDs) NewID() (string, error) {
	return fmt.Sprintf("%s-%d", g.prefix, g.n.Add(1)), nil
}

type fixedToken string

func (f fixedToken) NewID() (string, error) { return string(f), nil }

// recordingNotifier keeps every published batch in order.
type recordingNotifier struct {
	mu      sync.Mutex
	batches [][]notification.Notification
}

func (r *recordingNotifier) Publish(_ context.Context, _ string, notes []notification.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, append([]notification.Notification(nil), notes...))
}

func (r *recordingNotifier) kinds() []notification.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notification.Kind
	for _, batch := range r.batches {
		for _, n := range batch {
			out = append(out, n.Kind)
		}
	}
	return out
}

func (r *recordingNotifier) reset() {
	r.mu.Lock()
	r.batches = nil
	r.mu.Unlock()
}

type testEnv struct {
	repo        *memory.TeamRepository
	notifier    *recordingNotifier
	clock       *clockwork.FakeClock
	mutator     *TeamMutator
	teams       *TeamService
	predictions *PredictionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		repo:     memory.NewTeamRepository(),
		notifier: &recordingNotifier{},
		clock:    clockwork.NewFakeClockAt(time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)),
	}
	env.mutator = NewTeamMutator(env.repo, env.notifier, logging.NewNop(),
		WithClock(env.clock),
		WithEntityIDs(&seqIDs{prefix: "id"}),
	)
	env.teams = NewTeamService(env.mutator, idgen.NewTeamIDs(fixedToken("tok")))
	env.predictions = NewPredictionService(env.mutator)
	return env
}

// seedTeam creates "Alpha" with members Alice and Bob and one match, and returns its access.
func (e *testEnv) seedTeam(t *testing.T) (Access, string, string, string) {
	t.Helper()
	ctx := context.Background()

	res, err := e.teams.CreateTeam(ctx, CreateTeamInput{
		Name:             "Alpha",
		CreatorName:      "Alice",
		OtherMemberNames: "Bob",
		PlayersNeeded:    6,
		AccessCode:       "1234",
	})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	access := Access{TeamID: res.Data.Team.ID, AccessCode: "1234"}

	match, err := e.teams.CreateMatch(ctx, access, CreateMatchInput{Opponent: "Beta", Date: "20.09.2025", Time: "18:00", Season: "2025/26"})
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	e.notifier.reset()
	return access, res.Data.Members[0].ID, res.Data.Members[1].ID, match.ID
}
