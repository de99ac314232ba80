package team

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrTeamExists     = errors.New("team already exists")
	ErrMatchNotFound  = errors.New("match not found")
	ErrMemberNotFound = errors.New("member not found")
	ErrInvalidMatch   = errors.New("invalid match")
	ErrInvalidMember  = errors.New("invalid member")
	ErrInvalidDate    = errors.New("invalid match date")
)

// SeasonHalf is one of the two halves of a season.
type SeasonHalf string

const (
	FirstHalf  SeasonHalf = "first"
	SecondHalf SeasonHalf = "second"
)

func ParseSeasonHalf(raw string) (SeasonHalf, error) {
	switch h := SeasonHalf(strings.ToLower(strings.TrimSpace(raw))); h {
	case "":
		return FirstHalf, nil
	case FirstHalf, SecondHalf:
		return h, nil
	default:
		return "", fmt.Errorf("%w: unknown season half %q", ErrInvalidMatch, raw)
	}
}

// Team is an account-less group addressed by its public ID.
type Team struct {
	ID            string
	Name          string
	Slug          string
	PlayersNeeded int
	CreatedAt     time.Time
	AccessCode    string
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("team name is required")
	}
	if t.AccessCode == "" {
		return fmt.Errorf("team access code is required")
	}
	return nil
}

// Member is one person on the roster.
type Member struct {
	ID     string
	TeamID string
	Name   string
}

func (m Member) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidMember)
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMember)
	}
	return nil
}

// Match is one fixture. Date and Time are display strings.
// OriginalDate is the date before the first reschedule and never changes afterwards.
type Match struct {
	ID           string
	TeamID       string
	Opponent     string
	Date         string
	Time         string
	IsHome       bool
	Venue        string
	Season       string
	Half         SeasonHalf
	Matchday     int
	OriginalDate string
}

func (m Match) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidMatch)
	}
	if strings.TrimSpace(m.Opponent) == "" {
		return fmt.Errorf("%w: opponent is required", ErrInvalidMatch)
	}
	if strings.TrimSpace(m.Date) == "" {
		return fmt.Errorf("%w: date is required", ErrInvalidMatch)
	}
	if m.Half != FirstHalf && m.Half != SecondHalf {
		return fmt.Errorf("%w: unknown season half %q", ErrInvalidMatch, m.Half)
	}
	if m.Matchday < 0 {
		return fmt.Errorf("%w: matchday must be >= 0", ErrInvalidMatch)
	}
	return nil
}

// Rescheduled reports whether the match ever moved away from its first date.
func (m Match) Rescheduled() bool {
	return m.OriginalDate != ""
}
