package postgres

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/lib/pq"

	"github.com/riskibarqy/team-schedule/internal/domain/availability"
	"github.com/riskibarqy/team-schedule/internal/domain/team"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped ErrNoRows to be not found")
	}
	if isNotFound(fakeErr("pq: relation teams does not exist")) {
		t.Fatalf("expected unrelated error to be found")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Run("matches 23505", func(t *testing.T) {
		err := fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})
		if !isUniqueViolation(err) {
			t.Fatalf("expected unique violation")
		}
	})

	t.Run("ignores other codes", func(t *testing.T) {
		if isUniqueViolation(&pq.Error{Code: "23503"}) {
			t.Fatalf("expected false for foreign key violation")
		}
		if isUniqueViolation(fakeErr("duplicate key")) {
			t.Fatalf("expected false for plain error")
		}
	})
}

func TestSelectTeamQuery(t *testing.T) {
	query, args, err := selectTeamQuery("alpha-1", true)
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	if !strings.Contains(query, "FROM teams WHERE public_id = $1") || !strings.HasSuffix(query, "FOR UPDATE") {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 1 || args[0] != "alpha-1" {
		t.Fatalf("unexpected args: %v", args)
	}

	plain, _, err := selectTeamQuery("alpha-1", false)
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	if strings.Contains(plain, "FOR UPDATE") {
		t.Fatalf("plain read must not lock: %s", plain)
	}
}

func TestTeamDocumentRoundTrip(t *testing.T) {
	data := team.NewData(team.Team{ID: "alpha-1", Name: "Alpha", AccessCode: "1234", PlayersNeeded: 6})
	if _, err := data.AddMember(team.Member{ID: "u1", Name: "Alice"}); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if _, err := data.AddMatch(team.Match{ID: "m1", Opponent: "Beta", Date: "20.09.2025", Season: "2025/26"}); err != nil {
		t.Fatalf("add match: %v", err)
	}
	if err := data.SetAvailability("u1", "m1", availability.Available); err != nil {
		t.Fatalf("set availability: %v", err)
	}
	if _, err := data.AddPrediction("m1", "01.02.2026", "u1"); err != nil {
		t.Fatalf("add prediction: %v", err)
	}

	raw, err := encodeDocument(data)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	row := teamTableModel{
		PublicID:      "alpha-1",
		Name:          "Alpha",
		AccessCode:    "1234",
		PlayersNeeded: 6,
		Document:      raw,
		CreatedAt:     time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	got, err := row.toDomain()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if m, ok := got.Match("m1"); !ok || m.TeamID != "alpha-1" || m.Half != team.FirstHalf || m.Matchday != 1 {
		t.Fatalf("unexpected match: %+v", m)
	}
	if s, ok := got.Availability.Get("u1", "m1"); !ok || s != availability.Available {
		t.Fatalf("availability lost: %v %v", s, ok)
	}
	if s, ok := got.Predictions.Get("m1", "01.02.2026", "u1"); !ok || s != availability.Maybe {
		t.Fatalf("prediction lost: %v %v", s, ok)
	}
}

func TestTeamDocumentNeverCarriesAccessCode(t *testing.T) {
	data := team.NewData(team.Team{ID: "alpha-1", Name: "Alpha", AccessCode: "98765", PlayersNeeded: 6})
	raw, err := encodeDocument(data)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.Contains(string(raw), "98765") {
		t.Fatalf("document leaked access code: %s", raw)
	}

	var doc map[string]any
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("document is not json: %v", err)
	}
	if _, ok := doc["availability"].([]any); !ok {
		t.Fatalf("expected empty availability array, got %v", doc["availability"])
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
