package team

import (
	"fmt"
	"strings"

	"github.com/riskibarqy/team-schedule/internal/domain/availability"
	"github.com/riskibarqy/team-schedule/internal/domain/prediction"
)

// Data is the team aggregate and the unit of atomic mutation.
type Data struct {
	Team         Team
	Members      []Member
	Matches      []Match
	Availability *availability.Store
	Predictions  *prediction.Book
}

func NewData(t Team) Data {
	return Data{
		Team:         t,
		Availability: availability.NewStore(),
		Predictions:  prediction.NewBook(),
	}
}

// Clone returns a deep copy.
func (d Data) Clone() Data {
	return Data{
		Team:         d.Team,
		Members:      append([]Member(nil), d.Members...),
		Matches:      append([]Match(nil), d.Matches...),
		Availability: d.Availability.Clone(),
		Predictions:  d.Predictions.Clone(),
	}
}

func (d *Data) ensureStores() {
	if d.Availability == nil {
		d.Availability = availability.NewStore()
	}
	if d.Predictions == nil {
		d.Predictions = prediction.NewBook()
	}
}

func (d *Data) Match(matchID string) (Match, bool) {
	idx := d.matchIndex(matchID)
	if idx < 0 {
		return Match{}, false
	}
	return d.Matches[idx], true
}

func (d *Data) Member(memberID string) (Member, bool) {
	for _, m := range d.Members {
		if m.ID == memberID {
			return m, true
		}
	}
	return Member{}, false
}

func (d *Data) matchIndex(matchID string) int {
	for i := range d.Matches {
		if d.Matches[i].ID == matchID {
			return i
		}
	}
	return -1
}

func (d *Data) AddMember(m Member) (Member, error) {
	m.TeamID = d.Team.ID
	m.Name = strings.TrimSpace(m.Name)
	if err := m.Validate(); err != nil {
		return Member{}, err
	}
	if _, exists := d.Member(m.ID); exists {
		return Member{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidMember, m.ID)
	}
	d.Members = append(d.Members, m)
	return m, nil
}

// AddMatch appends a match. A zero Matchday takes the next number in its season half.
func (d *Data) AddMatch(m Match) (Match, error) {
	m.TeamID = d.Team.ID
	m.Opponent = strings.TrimSpace(m.Opponent)
	m.Date = strings.TrimSpace(m.Date)
	m.Time = strings.TrimSpace(m.Time)
	m.Venue = strings.TrimSpace(m.Venue)
	m.Season = strings.TrimSpace(m.Season)
	m.OriginalDate = ""
	if m.Half == "" {
		m.Half = FirstHalf
	}
	if m.Matchday == 0 {
		m.Matchday = d.NextMatchday(m.Season, m.Half)
	}
	if err := m.Validate(); err != nil {
		return Match{}, err
	}
	if d.matchIndex(m.ID) >= 0 {
		return Match{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidMatch, m.ID)
	}
	d.Matches = append(d.Matches, m)
	return m, nil
}

func (d *Data) NextMatchday(season string, half SeasonHalf) int {
	highest := 0
	for _, m := range d.Matches {
		if m.Season == season && m.Half == half && m.Matchday > highest {
			highest = m.Matchday
		}
	}
	return highest + 1
}

// HasFixture reports whether a match against opponent on date already exists.
func (d *Data) HasFixture(date, opponent string) bool {
	date = strings.TrimSpace(date)
	opponent = strings.TrimSpace(opponent)
	for _, m := range d.Matches {
		if m.Date == date && strings.EqualFold(m.Opponent, opponent) {
			return true
		}
	}
	return false
}

// SetAvailability upserts a member's status for a match of this team.
func (d *Data) SetAvailability(memberID, matchID string, status availability.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", availability.ErrInvalidStatus, status)
	}
	if _, ok := d.Member(memberID); !ok {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
	}
	if _, ok := d.Match(matchID); !ok {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	d.ensureStores()
	d.Availability.Set(memberID, matchID, status)
	return nil
}

// DateChange describes the effect of moving a match to a new date.
type DateChange struct {
	Match               Match
	PreviousDate        string
	Changed             bool
	OriginalDateSet     bool
	AvailabilityCleared int
	PredictionsCleared  int
}

// ChangeMatchDate moves a match. Availability and prediction votes for the
// match are wiped in the same step and OriginalDate is anchored on the first
// move. Moving to the current date changes nothing.
func (d *Data) ChangeMatchDate(matchID, newDate string) (DateChange, error) {
	newDate = strings.TrimSpace(newDate)
	if newDate == "" {
		return DateChange{}, fmt.Errorf("%w: date is required", ErrInvalidDate)
	}
	idx := d.matchIndex(matchID)
	if idx < 0 {
		return DateChange{}, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}

	m := &d.Matches[idx]
	change := DateChange{PreviousDate: m.Date}
	if m.Date == newDate {
		change.Match = *m
		return change, nil
	}

	if m.OriginalDate == "" {
		m.OriginalDate = m.Date
		change.OriginalDateSet = true
	}
	m.Date = newDate
	change.Changed = true
	change.AvailabilityCleared = d.Availability.ResetForMatch(matchID)
	change.PredictionsCleared = d.Predictions.ClearMatch(matchID)
	change.Match = *m
	return change, nil
}

func (d *Data) requireMatchAndMember(matchID, memberID string) error {
	if _, ok := d.Match(matchID); !ok {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	if _, ok := d.Member(memberID); !ok {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
	}
	return nil
}

// AddPrediction proposes date for matchID on behalf of memberID with a Maybe vote.
func (d *Data) AddPrediction(matchID, date, memberID string) (bool, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return false, fmt.Errorf("%w: date is required", ErrInvalidDate)
	}
	if err := d.requireMatchAndMember(matchID, memberID); err != nil {
		return false, err
	}
	d.ensureStores()
	return d.Predictions.Add(matchID, date, memberID), nil
}

// UpdatePrediction sets memberID's vote on one candidate date.
func (d *Data) UpdatePrediction(matchID, date, memberID string, status availability.Status) error {
	date = strings.TrimSpace(date)
	if date == "" {
		return fmt.Errorf("%w: date is required", ErrInvalidDate)
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %q", availability.ErrInvalidStatus, status)
	}
	if err := d.requireMatchAndMember(matchID, memberID); err != nil {
		return err
	}
	d.ensureStores()
	d.Predictions.Update(matchID, date, memberID, status)
	return nil
}

// RemovePrediction withdraws all of memberID's votes on matchID.
func (d *Data) RemovePrediction(matchID, memberID string) ([]string, error) {
	if err := d.requireMatchAndMember(matchID, memberID); err != nil {
		return nil, err
	}
	return d.Predictions.RemoveMember(matchID, memberID), nil
}

// ChoosePredictedDate commits date as the match date. Choosing the current
// date only closes the negotiation.
func (d *Data) ChoosePredictedDate(matchID, date string) (DateChange, error) {
	change, err := d.ChangeMatchDate(matchID, date)
	if err != nil {
		return DateChange{}, err
	}
	if !change.Changed {
		change.PredictionsCleared = d.Predictions.ClearMatch(matchID)
	}
	return change, nil
}
