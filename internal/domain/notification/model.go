package notification

import (
	"time"

	"github.com/riskibarqy/team-schedule/internal/domain/availability"
	"github.com/riskibarqy/team-schedule/internal/domain/team"
)

// Kind names a state change pushed to team sessions.
type Kind string

const (
	KindTeamCreated           Kind = "TeamCreated"
	KindTeamLoaded            Kind = "TeamLoaded"
	KindTeamNotFound          Kind = "TeamNotFound"
	KindAccessCodeRequired    Kind = "AccessCodeRequired"
	KindTeamUpdated           Kind = "TeamUpdated"
	KindMatchCreated          Kind = "MatchCreated"
	KindMemberCreated         Kind = "MemberCreated"
	KindAvailabilityUpdated   Kind = "AvailabilityUpdated"
	KindMatchDateChanged      Kind = "MatchDateChanged"
	KindDatePredictionAdded   Kind = "DatePredictionAdded"
	KindDatePredictionUpdated Kind = "DatePredictionUpdated"
	KindDatePredictionRemoved Kind = "DatePredictionRemoved"
	KindPredictionsCleared    Kind = "PredictionsCleared"
	KindMatchOriginalDateSet  Kind = "MatchOriginalDateSet"
	KindCalendarPreview       Kind = "CalendarPreview"
	KindError                 Kind = "Error"
)

// Notification is one delta for a team. Payload is one of the payload types below.
type Notification struct {
	ID      string    `json:"id"`
	Kind    Kind      `json:"type"`
	TeamID  string    `json:"team_id"`
	At      time.Time `json:"timestamp"`
	Payload any       `json:"data,omitempty"`
}

type TeamRef struct {
	TeamID string `json:"team_id"`
}

type TeamCreated struct {
	Snapshot
	CreatorMemberID string `json:"creator_member_id"`
	AccessCode      string `json:"access_code"`
}

type TeamUpdated struct {
	PlayersNeeded int `json:"players_needed"`
}

type MatchCreated struct {
	Match MatchView `json:"match"`
}

type MemberCreated struct {
	Member MemberView `json:"member"`
}

type AvailabilityUpdated struct {
	MemberID string              `json:"member_id"`
	MatchID  string              `json:"match_id"`
	Status   availability.Status `json:"status"`
	Summary  SummaryView         `json:"summary"`
}

type MatchDateChanged struct {
	MatchID      string `json:"match_id"`
	Date         string `json:"date"`
	PreviousDate string `json:"previous_date"`
	OriginalDate string `json:"original_date,omitempty"`
}

type MatchOriginalDateSet struct {
	MatchID      string `json:"match_id"`
	OriginalDate string `json:"original_date"`
}

type DatePrediction struct {
	MatchID  string              `json:"match_id"`
	Date     string              `json:"date"`
	MemberID string              `json:"member_id"`
	Status   availability.Status `json:"status"`
}

type DatePredictionRemoved struct {
	MatchID  string   `json:"match_id"`
	MemberID string   `json:"member_id"`
	Dates    []string `json:"dates"`
}

type PredictionsCleared struct {
	MatchID string `json:"match_id"`
}

type Error struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// DateChangeEvents expands a date change into its notifications, in delivery order.
func DateChangeEvents(change team.DateChange) []Event {
	var out []Event
	if change.Changed {
		out = append(out, Event{Kind: KindMatchDateChanged, Payload: MatchDateChanged{
			MatchID:      change.Match.ID,
			Date:         change.Match.Date,
			PreviousDate: change.PreviousDate,
			OriginalDate: change.Match.OriginalDate,
		}})
	}
	if change.OriginalDateSet {
		out = append(out, Event{Kind: KindMatchOriginalDateSet, Payload: MatchOriginalDateSet{
			MatchID:      change.Match.ID,
			OriginalDate: change.Match.OriginalDate,
		}})
	}
	if change.PredictionsCleared > 0 || change.Changed {
		out = append(out, Event{Kind: KindPredictionsCleared, Payload: PredictionsCleared{MatchID: change.Match.ID}})
	}
	return out
}

// Event is a kind and payload not yet stamped with an ID, team and time.
type Event struct {
	Kind    Kind
	Payload any
}
