package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/team-schedule/internal/domain/notification"
	usecasemock "github.com/riskibarqy/team-schedule/internal/mocks/usecase"
)

func icsFeed(summaries ...string) string {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\n")
	for i, s := range summaries {
		fmt.Fprintf(&b, "BEGIN:VEVENT\r\nSUMMARY:%s\r\nDTSTART:202509%02dT180000Z\r\nLOCATION:Halle\r\nEND:VEVENT\r\n", s, 20+i)
	}
	b.WriteString("END:VCALENDAR\r\n")
	return b.String()
}

func TestCalendarService_PreviewFlagsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	access, _, _, _ := env.seedTeam(t)
	svc := NewCalendarService(env.mutator, nil)

	// seedTeam already holds "Beta" on 20.09.2025.
	text := icsFeed(
		"Alpha - beta (Liga)",
		"Gamma - Alpha (Liga)",
		"Alpha - Delta (Liga)",
	)
	preview, err := svc.PreviewCalendar(context.Background(), access, text)
	require.NoError(t, err)
	require.Equal(t, "Alpha", preview.HomeTeam)
	require.Len(t, preview.Candidates, 3)

	require.Equal(t, "beta", preview.Candidates[0].Opponent)
	require.True(t, preview.Candidates[0].Duplicate)
	require.Equal(t, "Gamma", preview.Candidates[1].Opponent)
	require.False(t, preview.Candidates[1].IsHome)
	require.False(t, preview.Candidates[1].Duplicate)
	require.Equal(t, "22.09.2025", preview.Candidates[2].Date)
	require.Equal(t, "18:00", preview.Candidates[2].Time)

	require.Empty(t, env.notifier.kinds())
}

func TestCalendarService_PreviewRequiresCode(t *testing.T) {
	env := newTestEnv(t)
	access, _, _, _ := env.seedTeam(t)
	svc := NewCalendarService(env.mutator, nil)

	_, err := svc.PreviewCalendar(context.Background(), Access{TeamID: access.TeamID}, icsFeed("Alpha - Beta (Liga)"))
	require.ErrorIs(t, err, ErrAccessCodeRequired)

	_, err = svc.PreviewCalendar(context.Background(), access, "  ")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCalendarService_ImportSkipsDuplicatesAndNumbersMatchdays(t *testing.T) {
	env := newTestEnv(t)
	access, _, _, _ := env.seedTeam(t)
	svc := NewCalendarService(env.mutator, nil)
	ctx := context.Background()

	res, err := svc.ImportCalendar(ctx, access, ImportCalendarInput{
		Season: "2025/26",
		Matches: []ImportMatch{
			{Opponent: "BETA", Date: "20.09.2025"},
			{Opponent: "Gamma", Date: "21.09.2025", Time: "18:00"},
			{Opponent: "Delta", Date: "22.09.2025", IsHome: true},
			{Opponent: "Gamma", Date: "21.09.2025"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Skipped)
	require.Len(t, res.Created, 2)
	require.Equal(t, 2, res.Created[0].Matchday)
	require.Equal(t, 3, res.Created[1].Matchday)

	require.Equal(t, []notification.Kind{
		notification.KindMatchCreated,
		notification.KindMatchCreated,
	}, env.notifier.kinds())

	data, err := env.teams.GetTeam(ctx, access)
	require.NoError(t, err)
	require.Len(t, data.Matches, 3)
}

func TestCalendarService_ImportIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	access, _, _, _ := env.seedTeam(t)
	svc := NewCalendarService(env.mutator, nil)
	ctx := context.Background()

	_, err := svc.ImportCalendar(ctx, access, ImportCalendarInput{
		Matches: []ImportMatch{
			{Opponent: "Gamma", Date: "21.09.2025"},
			{Opponent: "", Date: "22.09.2025"},
		},
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	data, err := env.teams.GetTeam(ctx, access)
	require.NoError(t, err)
	require.Len(t, data.Matches, 1)
	require.Empty(t, env.notifier.kinds())
}

func TestCalendarService_FetchCalendar(t *testing.T) {
	env := newTestEnv(t)
	access, _, _, _ := env.seedTeam(t)
	fetcher := usecasemock.NewFeedFetcher(t)
	svc := NewCalendarService(env.mutator, fetcher)
	ctx := context.Background()

	urls := []string{"https://example.com/a.ics", "https://example.com/b.ics"}
	fetcher.On("FetchAll", mock.Anything, urls).Return(icsFeed("Alpha - Gamma (Liga)"), nil).Once()

	preview, err := svc.FetchCalendar(ctx, access, []string{" https://example.com/a.ics ", "", "https://example.com/b.ics"})
	require.NoError(t, err)
	require.Len(t, preview.Candidates, 1)
	require.Equal(t, "Gamma", preview.Candidates[0].Opponent)
}

func TestCalendarService_FetchCalendarErrors(t *testing.T) {
	env := newTestEnv(t)
	access, _, _, _ := env.seedTeam(t)
	ctx := context.Background()

	_, err := NewCalendarService(env.mutator, nil).FetchCalendar(ctx, access, []string{"https://example.com/a.ics"})
	require.ErrorIs(t, err, ErrDependencyUnavailable)

	fetcher := usecasemock.NewFeedFetcher(t)
	svc := NewCalendarService(env.mutator, fetcher)

	_, err = svc.FetchCalendar(ctx, access, nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	many := make([]string, maxCalendarURLs+1)
	for i := range many {
		many[i] = fmt.Sprintf("https://example.com/%d.ics", i)
	}
	_, err = svc.FetchCalendar(ctx, access, many)
	require.ErrorIs(t, err, ErrInvalidInput)

	errUpstream := errors.New("upstream 502")
	fetcher.On("FetchAll", mock.Anything, []string{"https://example.com/a.ics"}).Return("", errUpstream).Once()
	_, err = svc.FetchCalendar(ctx, access, []string{"https://example.com/a.ics"})
	require.ErrorIs(t, err, errUpstream)
}
