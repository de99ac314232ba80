package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/team-schedule/internal/domain/notification"
	"github.com/riskibarqy/team-schedule/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/team-schedule/internal/platform/logging"
	"github.com/riskibarqy/team-schedule/internal/usecase"
)

type apiError struct {
	Status string `json:"status"`
	Errors []struct {
		Reason string `json:"reason"`
		TeamID string `json:"team_id"`
	} `json:"errors"`
}

type envelope[T any] struct {
	Data  T         `json:"data"`
	Error *apiError `json:"error"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := logging.NewNop()
	mutator := usecase.NewTeamMutator(memory.NewTeamRepository(), nil, logger)
	handler := NewHandler(
		usecase.NewTeamService(mutator, nil),
		usecase.NewPredictionService(mutator),
		usecase.NewCalendarService(mutator, nil),
		logger,
	)
	srv := httptest.NewServer(NewRouter(handler, nil, logger, []string{"*"}))
	t.Cleanup(srv.Close)
	return srv
}

func call[T any](t *testing.T, srv *httptest.Server, method, path, code string, body any) (int, envelope[T]) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := sonic.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		payload = raw
	}
	req, err := http.NewRequest(method, srv.URL+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if code != "" {
		req.Header.Set(accessCodeHeader, code)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out envelope[T]
	if resp.StatusCode != http.StatusNoContent {
		if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode, out
}

func createTestTeam(t *testing.T, srv *httptest.Server) createTeamResponse {
	t.Helper()

	status, resp := call[createTeamResponse](t, srv, http.MethodPost, "/v1/teams", "", map[string]any{
		"name":               "Alpha",
		"creator_name":       "Alice",
		"other_member_names": "Bob, Carol",
		"players_needed":     2,
		"access_code":        "4321",
	})
	if status != http.StatusCreated {
		t.Fatalf("create team: expected 201, got %d (%+v)", status, resp.Error)
	}
	return resp.Data
}

func TestHandler_CreateAndLoadTeam(t *testing.T) {
	srv := newTestServer(t)
	created := createTestTeam(t, srv)

	if created.AccessCode != "4321" || created.CreatorMemberID == "" {
		t.Fatalf("unexpected create response: %+v", created)
	}
	if len(created.Members) != 3 || created.Members[0].Name != "Alice" {
		t.Fatalf("unexpected roster: %+v", created.Members)
	}

	teamPath := "/v1/teams/" + created.Team.ID

	status, denied := call[notification.Snapshot](t, srv, http.MethodGet, teamPath, "", nil)
	if status != http.StatusUnauthorized || denied.Error == nil {
		t.Fatalf("expected 401 without code, got %d", status)
	}
	if denied.Error.Errors[0].Reason != "accessCodeRequired" || denied.Error.Errors[0].TeamID != created.Team.ID {
		t.Fatalf("unexpected error item: %+v", denied.Error.Errors[0])
	}

	status, loaded := call[notification.Snapshot](t, srv, http.MethodGet, teamPath, "4321", nil)
	if status != http.StatusOK || loaded.Data.Team.Name != "Alpha" {
		t.Fatalf("expected team snapshot, got %d %+v", status, loaded.Data.Team)
	}

	status, submitted := call[notification.Snapshot](t, srv, http.MethodPost, teamPath+"/access", "", map[string]string{"access_code": "4321"})
	if status != http.StatusOK || submitted.Data.Team.ID != created.Team.ID {
		t.Fatalf("submit access code: %d %+v", status, submitted.Error)
	}

	status, missing := call[notification.Snapshot](t, srv, http.MethodGet, "/v1/teams/nobody", "4321", nil)
	if status != http.StatusNotFound || missing.Error.Errors[0].Reason != "teamNotFound" {
		t.Fatalf("expected teamNotFound, got %d", status)
	}
}

func TestHandler_RejectsUnknownFields(t *testing.T) {
	srv := newTestServer(t)

	status, resp := call[createTeamResponse](t, srv, http.MethodPost, "/v1/teams", "", map[string]any{
		"name":           "Alpha",
		"creator_name":   "Alice",
		"players_needed": 6,
		"league_id":      "x",
	})
	if status != http.StatusBadRequest || resp.Error.Status != "INVALID_ARGUMENT" {
		t.Fatalf("expected 400 for unknown field, got %d", status)
	}
}

func TestHandler_MatchAvailabilityAndPredictionFlow(t *testing.T) {
	srv := newTestServer(t)
	created := createTestTeam(t, srv)
	teamPath := "/v1/teams/" + created.Team.ID
	alice := created.CreatorMemberID

	status, match := call[notification.MatchView](t, srv, http.MethodPost, teamPath+"/matches", "4321", map[string]any{
		"opponent": "Beta",
		"date":     "20.09.2025",
		"time":     "18:00",
		"season":   "2025/26",
	})
	if status != http.StatusCreated || match.Data.Matchday != 1 {
		t.Fatalf("create match: %d %+v", status, match.Data)
	}
	matchPath := teamPath + "/matches/" + match.Data.ID

	status, avail := call[availabilityResponse](t, srv, http.MethodPut, teamPath+"/availability", "4321", map[string]string{
		"member_id": alice,
		"match_id":  match.Data.ID,
		"status":    "Available",
	})
	if status != http.StatusOK || avail.Data.Status != "available" || avail.Data.Summary.Available != 1 || avail.Data.Summary.Enough {
		t.Fatalf("update availability: %d %+v", status, avail.Data)
	}

	status, added := call[addDatePredictionResponse](t, srv, http.MethodPost, matchPath+"/predictions", "4321", map[string]string{
		"date":      "27.09.2025",
		"member_id": alice,
	})
	if status != http.StatusCreated || !added.Data.Added {
		t.Fatalf("add prediction: %d %+v", status, added.Data)
	}
	status, again := call[addDatePredictionResponse](t, srv, http.MethodPost, matchPath+"/predictions", "4321", map[string]string{
		"date":      "27.09.2025",
		"member_id": alice,
	})
	if status != http.StatusOK || again.Data.Added {
		t.Fatalf("repeated add must be a no-op: %d %+v", status, again.Data)
	}

	status, _ = call[struct{}](t, srv, http.MethodPut, matchPath+"/predictions", "4321", map[string]string{
		"date":      "27.09.2025",
		"member_id": alice,
		"status":    "available",
	})
	if status != http.StatusNoContent {
		t.Fatalf("update prediction: expected 204, got %d", status)
	}

	status, chosen := call[dateChangeResponse](t, srv, http.MethodPost, matchPath+"/predictions/choose", "4321", map[string]string{"date": "27.09.2025"})
	if status != http.StatusOK || !chosen.Data.Changed {
		t.Fatalf("choose date: %d %+v", status, chosen.Data)
	}
	if chosen.Data.Match.Date != "27.09.2025" || chosen.Data.Match.OriginalDate != "20.09.2025" || chosen.Data.PreviousDate != "20.09.2025" {
		t.Fatalf("unexpected match after choose: %+v", chosen.Data)
	}

	status, snap := call[notification.Snapshot](t, srv, http.MethodGet, teamPath, "4321", nil)
	if status != http.StatusOK {
		t.Fatalf("load team: %d", status)
	}
	if len(snap.Data.Availability) != 0 {
		t.Fatalf("date change must clear availability, got %+v", snap.Data.Availability)
	}
	scheduled := snap.Data.Schedule[0].Halves[0].Matches[0]
	if len(scheduled.Candidates) != 0 {
		t.Fatalf("date change must clear predictions, got %+v", scheduled.Candidates)
	}

	status, removed := call[removeDatePredictionResponse](t, srv, http.MethodDelete, matchPath+"/predictions/"+alice, "4321", nil)
	if status != http.StatusOK || len(removed.Data.Dates) != 0 {
		t.Fatalf("remove prediction: %d %+v", status, removed.Data)
	}
}

func TestHandler_WrongCodeDoesNotMutate(t *testing.T) {
	srv := newTestServer(t)
	created := createTestTeam(t, srv)
	teamPath := "/v1/teams/" + created.Team.ID

	status, _ := call[notification.MemberView](t, srv, http.MethodPost, teamPath+"/members", "0000", map[string]string{"name": "Mallory"})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}

	_, snap := call[notification.Snapshot](t, srv, http.MethodGet, teamPath, "4321", nil)
	if len(snap.Data.Members) != 3 {
		t.Fatalf("roster changed by rejected request: %+v", snap.Data.Members)
	}
}

func TestHandler_CalendarPreviewAndImport(t *testing.T) {
	srv := newTestServer(t)
	created := createTestTeam(t, srv)
	teamPath := "/v1/teams/" + created.Team.ID

	text := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"SUMMARY:Alpha - Beta (Liga)",
		"DTSTART:20250920T180000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"SUMMARY:Gamma - Alpha (Liga)",
		"DTSTART:20250927T160000Z",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r\n")

	status, preview := call[calendarPreviewResponse](t, srv, http.MethodPost, teamPath+"/calendar/preview", "4321", map[string]string{"calendar_text": text})
	if status != http.StatusOK || len(preview.Data.Candidates) != 2 {
		t.Fatalf("preview: %d %+v", status, preview.Data)
	}
	if preview.Data.HomeTeam != "Alpha" || preview.Data.Candidates[1].Opponent != "Gamma" || preview.Data.Candidates[1].IsHome {
		t.Fatalf("unexpected preview: %+v", preview.Data)
	}

	status, fetched := call[calendarPreviewResponse](t, srv, http.MethodPost, teamPath+"/calendar/preview", "4321", map[string]any{"urls": []string{"https://example.com/a.ics"}})
	if status != http.StatusServiceUnavailable || fetched.Error == nil {
		t.Fatalf("expected 503 without a feed fetcher, got %d", status)
	}

	matches := make([]map[string]any, 0, len(preview.Data.Candidates))
	for _, c := range preview.Data.Candidates {
		matches = append(matches, map[string]any{"opponent": c.Opponent, "date": c.Date, "time": c.Time, "is_home": c.IsHome})
	}
	body := map[string]any{"season": "2025/26", "season_half": "first", "matches": matches}

	status, imported := call[importCalendarResponse](t, srv, http.MethodPost, teamPath+"/calendar/import", "4321", body)
	if status != http.StatusCreated || len(imported.Data.Created) != 2 || imported.Data.Skipped != 0 {
		t.Fatalf("import: %d %+v", status, imported.Data)
	}

	status, second := call[importCalendarResponse](t, srv, http.MethodPost, teamPath+"/calendar/import", "4321", body)
	if status != http.StatusCreated || len(second.Data.Created) != 0 || second.Data.Skipped != 2 {
		t.Fatalf("re-import must skip duplicates: %d %+v", status, second.Data)
	}
}

func TestRecoverPanic(t *testing.T) {
	handler := recoverPanic(logging.NewNop(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/teams", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
