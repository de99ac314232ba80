package availability

import (
	"errors"
	"testing"
)

func TestStore_SetIsUpsert(t *testing.T) {
	s := NewStore()
	s.Set("m1", "match-1", Maybe)
	s.Set("m1", "match-1", Available)

	if s.Len() != 1 {
		t.Fatalf("expected one record per member/match, got %d", s.Len())
	}
	if got, _ := s.Get("m1", "match-1"); got != Available {
		t.Fatalf("expected last write to win, got %s", got)
	}
}

func TestStore_ResetForMatchOnlyTouchesThatMatch(t *testing.T) {
	s := NewStore()
	s.Set("m1", "match-1", Available)
	s.Set("m2", "match-1", NotAvailable)
	s.Set("m1", "match-2", Maybe)

	if removed := s.ResetForMatch("match-1"); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if len(s.ForMatch("match-1")) != 0 {
		t.Fatalf("match-1 records survived reset")
	}
	if got, ok := s.Get("m1", "match-2"); !ok || got != Maybe {
		t.Fatalf("match-2 record lost: %v %v", got, ok)
	}
}

func TestStore_Summary(t *testing.T) {
	s := FromRecords([]Record{
		{MemberID: "a", MatchID: "x", Status: Available},
		{MemberID: "b", MatchID: "x", Status: Available},
		{MemberID: "c", MatchID: "x", Status: Maybe},
		{MemberID: "d", MatchID: "x", Status: NotAvailable},
		{MemberID: "a", MatchID: "y", Status: NotAvailable},
	})

	sum := s.Summary("x", 2)
	if sum.Available != 2 || sum.Maybe != 1 || sum.NotAvailable != 1 || !sum.Enough {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if s.Summary("x", 3).Enough {
		t.Fatalf("3 needed with 2 available should not be enough")
	}
}

func TestStore_CloneIsIndependent(t *testing.T) {
	s := NewStore()
	s.Set("a", "x", Available)
	c := s.Clone()
	c.Set("b", "x", Maybe)
	c.ResetForMatch("x")

	if s.Len() != 1 {
		t.Fatalf("clone mutation leaked into original")
	}
}

func TestParseStatus(t *testing.T) {
	if got, err := ParseStatus(" Not_Available "); err != nil || got != NotAvailable {
		t.Fatalf("unexpected parse result: %v %v", got, err)
	}
	if _, err := ParseStatus("yes"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}
