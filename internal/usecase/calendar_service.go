package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/team-schedule/internal/domain/calendar"
	"github.com/riskibarqy/team-schedule/internal/domain/notification"
	"github.com/riskibarqy/team-schedule/internal/domain/team"
)

const maxCalendarURLs = 10

// FeedFetcher downloads iCalendar feeds.
type FeedFetcher interface {
	FetchAll(ctx context.Context, urls []string) (string, error)
}

// ImportCandidate is a reconciled event plus whether the team already has it.
type ImportCandidate struct {
	calendar.MatchCandidate
	Duplicate bool
}

type CalendarPreview struct {
	HomeTeam   string
	Candidates []ImportCandidate
}

type ImportMatch struct {
	Opponent string
	Date     string
	Time     string
	IsHome   bool
	Venue    string
}

type ImportCalendarInput struct {
	Season  string
	Half    string
	Matches []ImportMatch
}

type ImportCalendarResult struct {
	Created []team.Match
	Skipped int
}

// CalendarService stages feed events as match candidates and commits the selected ones.
type CalendarService struct {
	mutator *TeamMutator
	fetcher FeedFetcher
}

func NewCalendarService(mutator *TeamMutator, fetcher FeedFetcher) *CalendarService {
	return &CalendarService{mutator: mutator, fetcher: fetcher}
}

// PreviewCalendar reconciles text against the team without changing it.
func (s *CalendarService) PreviewCalendar(ctx context.Context, access Access, text string) (CalendarPreview, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CalendarService.PreviewCalendar", access.TeamID)
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return CalendarPreview{}, fmt.Errorf("%w: calendar text is required", ErrInvalidInput)
	}

	data, err := s.mutator.load(ctx, access)
	if err != nil {
		return CalendarPreview{}, err
	}

	preview := buildPreview(&data, text)
	s.mutator.logger.InfoContext(ctx, "calendar previewed",
		"team_id", data.Team.ID,
		"candidates", len(preview.Candidates),
		"home_team", preview.HomeTeam,
	)
	return preview, nil
}

// FetchCalendar downloads the feeds and previews their concatenation.
func (s *CalendarService) FetchCalendar(ctx context.Context, access Access, urls []string) (CalendarPreview, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CalendarService.FetchCalendar", access.TeamID)
	defer span.End()

	cleaned := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			cleaned = append(cleaned, u)
		}
	}
	if len(cleaned) == 0 {
		return CalendarPreview{}, fmt.Errorf("%w: at least one calendar url is required", ErrInvalidInput)
	}
	if len(cleaned) > maxCalendarURLs {
		return CalendarPreview{}, fmt.Errorf("%w: at most %d calendar urls are allowed", ErrInvalidInput, maxCalendarURLs)
	}
	if s.fetcher == nil {
		return CalendarPreview{}, fmt.Errorf("%w: calendar fetcher is not configured", ErrDependencyUnavailable)
	}

	data, err := s.mutator.load(ctx, access)
	if err != nil {
		return CalendarPreview{}, err
	}

	text, err := s.fetcher.FetchAll(ctx, cleaned)
	if err != nil {
		s.mutator.logger.ErrorContext(ctx, "calendar fetch failed", "team_id", data.Team.ID, "urls", len(cleaned), "error", err)
		return CalendarPreview{}, err
	}

	preview := buildPreview(&data, text)
	s.mutator.logger.InfoContext(ctx, "calendar fetched",
		"team_id", data.Team.ID,
		"urls", len(cleaned),
		"candidates", len(preview.Candidates),
	)
	return preview, nil
}

func buildPreview(data *team.Data, text string) CalendarPreview {
	homeTeam, matches := calendar.Classify(calendar.Parse(text), data.Team.Name)
	preview := CalendarPreview{
		HomeTeam:   homeTeam,
		Candidates: make([]ImportCandidate, 0, len(matches)),
	}
	for _, c := range matches {
		preview.Candidates = append(preview.Candidates, ImportCandidate{
			MatchCandidate: c,
			Duplicate:      data.HasFixture(c.Date, c.Opponent),
		})
	}
	return preview
}

// ImportCalendar creates the selected matches in one team update. Matches the
// team already has, or that repeat within the selection, are skipped.
func (s *CalendarService) ImportCalendar(ctx context.Context, access Access, input ImportCalendarInput) (ImportCalendarResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CalendarService.ImportCalendar", access.TeamID)
	defer span.End()

	if len(input.Matches) == 0 {
		return ImportCalendarResult{}, fmt.Errorf("%w: no matches selected", ErrInvalidInput)
	}
	half, err := team.ParseSeasonHalf(input.Half)
	if err != nil {
		return ImportCalendarResult{}, mapDomainError(err)
	}
	ids := make([]string, len(input.Matches))
	for i := range ids {
		if ids[i], err = s.mutator.newID(); err != nil {
			return ImportCalendarResult{}, err
		}
	}

	var result ImportCalendarResult
	_, err = s.mutator.mutate(ctx, access, func(data *team.Data) ([]notification.Event, error) {
		result = ImportCalendarResult{}
		events := make([]notification.Event, 0, len(input.Matches))
		for i, in := range input.Matches {
			if data.HasFixture(in.Date, in.Opponent) {
				result.Skipped++
				continue
			}
			match, err := data.AddMatch(team.Match{
				ID:       ids[i],
				Opponent: in.Opponent,
				Date:     in.Date,
				Time:     in.Time,
				IsHome:   in.IsHome,
				Venue:    in.Venue,
				Season:   input.Season,
				Half:     half,
			})
			if err != nil {
				return nil, fmt.Errorf("match %d: %w", i, err)
			}
			result.Created = append(result.Created, match)
			events = append(events, notification.Event{
				Kind:    notification.KindMatchCreated,
				Payload: notification.MatchCreated{Match: notification.NewMatchView(match)},
			})
		}
		return events, nil
	})
	if err != nil {
		return ImportCalendarResult{}, err
	}

	s.mutator.logger.InfoContext(ctx, "calendar imported",
		"team_id", access.TeamID,
		"created", len(result.Created),
		"skipped", result.Skipped,
	)
	return result, nil
}
