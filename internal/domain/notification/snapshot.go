package notification

import (
	"time"

	"github.com/riskibarqy/team-schedule/internal/domain/availability"
	"github.com/riskibarqy/team-schedule/internal/domain/prediction"
	"github.com/riskibarqy/team-schedule/internal/domain/team"
)

type TeamView struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	PlayersNeeded int       `json:"players_needed"`
	CreatedAt     time.Time `json:"created_at"`
}

type MemberView struct {
	ID     string `json:"id"`
	TeamID string `json:"team_id"`
	Name   string `json:"name"`
}

type MatchView struct {
	ID           string `json:"id"`
	Opponent     string `json:"opponent"`
	Date         string `json:"date"`
	Time         string `json:"time,omitempty"`
	IsHome       bool   `json:"is_home"`
	Venue        string `json:"venue,omitempty"`
	Season       string `json:"season"`
	SeasonHalf   string `json:"season_half"`
	Matchday     int    `json:"matchday"`
	OriginalDate string `json:"original_date,omitempty"`
}

type SummaryView struct {
	Available    int  `json:"available"`
	Maybe        int  `json:"maybe"`
	NotAvailable int  `json:"not_available"`
	Enough       bool `json:"enough_players"`
}

type AvailabilityView struct {
	MemberID string              `json:"member_id"`
	MatchID  string              `json:"match_id"`
	Status   availability.Status `json:"status"`
}

type VoteView struct {
	MemberID string              `json:"member_id"`
	Status   availability.Status `json:"status"`
}

type CandidateView struct {
	Date         string     `json:"date"`
	Votes        []VoteView `json:"votes"`
	Available    int        `json:"available"`
	Maybe        int        `json:"maybe"`
	NotAvailable int        `json:"not_available"`
}

type ScheduledMatch struct {
	MatchView
	Summary          SummaryView      `json:"summary"`
	NegotiationState prediction.State `json:"negotiation_state"`
	Candidates       []CandidateView  `json:"candidates"`
}

type HalfView struct {
	Half    string           `json:"half"`
	Matches []ScheduledMatch `json:"matches"`
}

type SeasonView struct {
	Season string     `json:"season"`
	Halves []HalfView `json:"halves"`
}

// Snapshot is the full team state sent on load. It never carries the access code.
type Snapshot struct {
	Team         TeamView           `json:"team"`
	Members      []MemberView       `json:"members"`
	Schedule     []SeasonView       `json:"schedule"`
	Availability []AvailabilityView `json:"availability"`
}

func NewSnapshot(data team.Data) Snapshot {
	snap := Snapshot{
		Team: TeamView{
			ID:            data.Team.ID,
			Name:          data.Team.Name,
			Slug:          data.Team.Slug,
			PlayersNeeded: data.Team.PlayersNeeded,
			CreatedAt:     data.Team.CreatedAt,
		},
		Members:      make([]MemberView, 0, len(data.Members)),
		Schedule:     []SeasonView{},
		Availability: []AvailabilityView{},
	}

	for _, m := range data.Members {
		snap.Members = append(snap.Members, NewMemberView(m))
	}

	for _, season := range data.Schedule() {
		sv := SeasonView{Season: season.Season}
		for _, half := range season.Halves {
			hv := HalfView{Half: string(half.Half), Matches: make([]ScheduledMatch, 0, len(half.Matches))}
			for _, m := range half.Matches {
				hv.Matches = append(hv.Matches, ScheduledMatch{
					MatchView:        NewMatchView(m),
					Summary:          NewSummaryView(data.Availability.Summary(m.ID, data.Team.PlayersNeeded)),
					NegotiationState: data.Predictions.State(m.ID),
					Candidates:       NewCandidateViews(data.Predictions.Candidates(m.ID)),
				})
			}
			sv.Halves = append(sv.Halves, hv)
		}
		snap.Schedule = append(snap.Schedule, sv)
	}

	for _, r := range data.Availability.Records() {
		snap.Availability = append(snap.Availability, AvailabilityView{MemberID: r.MemberID, MatchID: r.MatchID, Status: r.Status})
	}

	return snap
}

func NewMemberView(m team.Member) MemberView {
	return MemberView{ID: m.ID, TeamID: m.TeamID, Name: m.Name}
}

func NewMatchView(m team.Match) MatchView {
	return MatchView{
		ID:           m.ID,
		Opponent:     m.Opponent,
		Date:         m.Date,
		Time:         m.Time,
		IsHome:       m.IsHome,
		Venue:        m.Venue,
		Season:       m.Season,
		SeasonHalf:   string(m.Half),
		Matchday:     m.Matchday,
		OriginalDate: m.OriginalDate,
	}
}

func NewSummaryView(s availability.Summary) SummaryView {
	return SummaryView{
		Available:    s.Available,
		Maybe:        s.Maybe,
		NotAvailable: s.NotAvailable,
		Enough:       s.Enough,
	}
}

func NewCandidateViews(candidates []prediction.Candidate) []CandidateView {
	out := make([]CandidateView, 0, len(candidates))
	for _, c := range candidates {
		cv := CandidateView{
			Date:         c.Date,
			Votes:        make([]VoteView, 0, len(c.Votes)),
			Available:    c.Available,
			Maybe:        c.Maybe,
			NotAvailable: c.NotAvailable,
		}
		for _, v := range c.Votes {
			cv.Votes = append(cv.Votes, VoteView{MemberID: v.MemberID, Status: v.Status})
		}
		out = append(out, cv)
	}
	return out
}
