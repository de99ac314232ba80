package availability

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrInvalidStatus = errors.New("invalid availability status")

// Status is a member's answer for one match date.
type Status string

const (
	Available    Status = "available"
	NotAvailable Status = "not_available"
	Maybe        Status = "maybe"
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case Available, NotAvailable, Maybe:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

func (s Status) Valid() bool {
	switch s {
	case Available, NotAvailable, Maybe:
		return true
	}
	return false
}

// Key identifies one record. There is at most one status per key.
type Key struct {
	MemberID string
	MatchID  string
}

type Record struct {
	MemberID string
	MatchID  string
	Status   Status
}

// Summary counts answers for one match.
type Summary struct {
	MatchID       string
	Available     int
	Maybe         int
	NotAvailable  int
	PlayersNeeded int
	Enough        bool
}

// Store holds the availability map of a single team. It is not safe for
// concurrent use; callers serialize access per team.
type Store struct {
	records map[Key]Status
}

func NewStore() *Store {
	return &Store{records: make(map[Key]Status)}
}

// FromRecords rebuilds a store, later duplicates win.
func FromRecords(records []Record) *Store {
	s := NewStore()
	for _, r := range records {
		s.Set(r.MemberID, r.MatchID, r.Status)
	}
	return s
}

// Set upserts the status for (memberID, matchID).
func (s *Store) Set(memberID, matchID string, status Status) {
	if s.records == nil {
		s.records = make(map[Key]Status)
	}
	s.records[Key{MemberID: memberID, MatchID: matchID}] = status
}

func (s *Store) Get(memberID, matchID string) (Status, bool) {
	if s == nil {
		return "", false
	}
	status, ok := s.records[Key{MemberID: memberID, MatchID: matchID}]
	return status, ok
}

// ResetForMatch drops every record of matchID and returns how many were removed.
func (s *Store) ResetForMatch(matchID string) int {
	if s == nil {
		return 0
	}
	removed := 0
	for key := range s.records {
		if key.MatchID == matchID {
			delete(s.records, key)
			removed++
		}
	}
	return removed
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Records lists all records ordered by match then member.
func (s *Store) Records() []Record {
	if s == nil {
		return nil
	}
	out := make([]Record, 0, len(s.records))
	for key, status := range s.records {
		out = append(out, Record{MemberID: key.MemberID, MatchID: key.MatchID, Status: status})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchID != out[j].MatchID {
			return out[i].MatchID < out[j].MatchID
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out
}

func (s *Store) ForMatch(matchID string) []Record {
	all := s.Records()
	out := make([]Record, 0, len(all))
	for _, r := range all {
		if r.MatchID == matchID {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) Summary(matchID string, playersNeeded int) Summary {
	sum := Summary{MatchID: matchID, PlayersNeeded: playersNeeded}
	if s != nil {
		for key, status := range s.records {
			if key.MatchID != matchID {
				continue
			}
			switch status {
			case Available:
				sum.Available++
			case Maybe:
				sum.Maybe++
			case NotAvailable:
				sum.NotAvailable++
			}
		}
	}
	sum.Enough = playersNeeded > 0 && sum.Available >= playersNeeded
	return sum
}

func (s *Store) Clone() *Store {
	out := NewStore()
	if s == nil {
		return out
	}
	for key, status := range s.records {
		out.records[key] = status
	}
	return out
}
