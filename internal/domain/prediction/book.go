package prediction

import (
	"sort"
	"time"

	"github.com/riskibarqy/team-schedule/internal/domain/availability"
)

// DateLayout is the display format used for match and candidate dates.
const DateLayout = "02.01.2006"

// State of the date negotiation for one match.
type State string

const (
	StateStable      State = "stable"
	StateNegotiating State = "negotiating"
)

// Key identifies one member's vote on one candidate date.
type Key struct {
	MatchID  string
	Date     string
	MemberID string
}

type Vote struct {
	MatchID  string
	Date     string
	MemberID string
	Status   availability.Status
}

// Candidate is a proposed date with every vote cast on it.
type Candidate struct {
	Date         string
	Votes        []Vote
	Available    int
	Maybe        int
	NotAvailable int
}

// Book is the vote map of a single team. Votes are last-write-wins per key.
// Not safe for concurrent use.
type Book struct {
	votes map[Key]availability.Status
}

func NewBook() *Book {
	return &Book{votes: make(map[Key]availability.Status)}
}

func FromVotes(votes []Vote) *Book {
	b := NewBook()
	for _, v := range votes {
		b.Update(v.MatchID, v.Date, v.MemberID, v.Status)
	}
	return b
}

// Add records a Maybe vote unless the member already voted on that date.
// It reports whether a vote was created.
func (b *Book) Add(matchID, date, memberID string) bool {
	if b.votes == nil {
		b.votes = make(map[Key]availability.Status)
	}
	key := Key{MatchID: matchID, Date: date, MemberID: memberID}
	if _, ok := b.votes[key]; ok {
		return false
	}
	b.votes[key] = availability.Maybe
	return true
}

// Update overwrites the member's vote on one candidate date, creating it if absent.
func (b *Book) Update(matchID, date, memberID string, status availability.Status) bool {
	if b.votes == nil {
		b.votes = make(map[Key]availability.Status)
	}
	key := Key{MatchID: matchID, Date: date, MemberID: memberID}
	_, existed := b.votes[key]
	b.votes[key] = status
	return !existed
}

func (b *Book) Get(matchID, date, memberID string) (availability.Status, bool) {
	if b == nil {
		return "", false
	}
	status, ok := b.votes[Key{MatchID: matchID, Date: date, MemberID: memberID}]
	return status, ok
}

// RemoveMember withdraws every vote of memberID on matchID and returns the affected dates in order.
func (b *Book) RemoveMember(matchID, memberID string) []string {
	if b == nil {
		return nil
	}
	var dates []string
	for key := range b.votes {
		if key.MatchID == matchID && key.MemberID == memberID {
			delete(b.votes, key)
			dates = append(dates, key.Date)
		}
	}
	sortDates(dates)
	return dates
}

// ClearMatch drops all candidates of matchID and returns how many votes were removed.
func (b *Book) ClearMatch(matchID string) int {
	if b == nil {
		return 0
	}
	removed := 0
	for key := range b.votes {
		if key.MatchID == matchID {
			delete(b.votes, key)
			removed++
		}
	}
	return removed
}

func (b *Book) HasCandidate(matchID, date string) bool {
	if b == nil {
		return false
	}
	for key := range b.votes {
		if key.MatchID == matchID && key.Date == date {
			return true
		}
	}
	return false
}

func (b *Book) State(matchID string) State {
	if b == nil {
		return StateStable
	}
	for key := range b.votes {
		if key.MatchID == matchID {
			return StateNegotiating
		}
	}
	return StateStable
}

// Candidates lists the open dates for matchID, earliest first.
func (b *Book) Candidates(matchID string) []Candidate {
	if b == nil {
		return nil
	}
	byDate := make(map[string]*Candidate)
	for key, status := range b.votes {
		if key.MatchID != matchID {
			continue
		}
		c, ok := byDate[key.Date]
		if !ok {
			c = &Candidate{Date: key.Date}
			byDate[key.Date] = c
		}
		c.Votes = append(c.Votes, Vote{MatchID: key.MatchID, Date: key.Date, MemberID: key.MemberID, Status: status})
		switch status {
		case availability.Available:
			c.Available++
		case availability.Maybe:
			c.Maybe++
		case availability.NotAvailable:
			c.NotAvailable++
		}
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sortDates(dates)

	out := make([]Candidate, 0, len(dates))
	for _, date := range dates {
		c := byDate[date]
		sort.Slice(c.Votes, func(i, j int) bool { return c.Votes[i].MemberID < c.Votes[j].MemberID })
		out = append(out, *c)
	}
	return out
}

// Votes lists every vote ordered by match, date and member.
func (b *Book) Votes() []Vote {
	if b == nil {
		return nil
	}
	out := make([]Vote, 0, len(b.votes))
	for key, status := range b.votes {
		out = append(out, Vote{MatchID: key.MatchID, Date: key.Date, MemberID: key.MemberID, Status: status})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchID != out[j].MatchID {
			return out[i].MatchID < out[j].MatchID
		}
		if out[i].Date != out[j].Date {
			return dateLess(out[i].Date, out[j].Date)
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out
}

func (b *Book) Len() int {
	if b == nil {
		return 0
	}
	return len(b.votes)
}

func (b *Book) Clone() *Book {
	out := NewBook()
	if b == nil {
		return out
	}
	for key, status := range b.votes {
		out.votes[key] = status
	}
	return out
}

func sortDates(dates []string) {
	sort.Slice(dates, func(i, j int) bool { return dateLess(dates[i], dates[j]) })
}

// dateLess orders parseable display dates chronologically before anything unparseable,
// which falls back to lexical order.
func dateLess(a, b string) bool {
	ta, errA := time.Parse(DateLayout, a)
	tb, errB := time.Parse(DateLayout, b)
	switch {
	case errA == nil && errB == nil:
		if !ta.Equal(tb) {
			return ta.Before(tb)
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
