package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/riskibarqy/team-schedule/internal/domain/notification"
	"github.com/riskibarqy/team-schedule/internal/usecase"
)

type previewCalendarRequest struct {
	CalendarText string   `json:"calendar_text"`
	URLs         []string `json:"urls" validate:"omitempty,max=10,dive,max=2048"`
}

type importMatchRequest struct {
	Opponent string `json:"opponent" validate:"required,max=200"`
	Date     string `json:"date" validate:"required,max=40"`
	Time     string `json:"time" validate:"max=20"`
	IsHome   bool   `json:"is_home"`
	Venue    string `json:"venue" validate:"max=200"`
}

type importCalendarRequest struct {
	Season  string               `json:"season" validate:"max=40"`
	Half    string               `json:"season_half" validate:"omitempty,oneof=first second"`
	Matches []importMatchRequest `json:"matches" validate:"required,min=1,max=200,dive"`
}

type candidateDTO struct {
	Opponent  string `json:"opponent"`
	Date      string `json:"date"`
	Time      string `json:"time,omitempty"`
	IsHome    bool   `json:"is_home"`
	Venue     string `json:"venue,omitempty"`
	League    string `json:"league,omitempty"`
	Summary   string `json:"summary"`
	Parsed    bool   `json:"parsed"`
	Duplicate bool   `json:"duplicate"`
}

type calendarPreviewResponse struct {
	HomeTeam   string         `json:"home_team"`
	Candidates []candidateDTO `json:"candidates"`
}

type importCalendarResponse struct {
	Created []notification.MatchView `json:"created"`
	Skipped int                      `json:"skipped"`
}

func (h *Handler) PreviewCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PreviewCalendar")
	defer span.End()

	var req previewCalendarRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	access := teamAccess(ctx, r)
	var (
		preview usecase.CalendarPreview
		err     error
	)
	switch {
	case len(req.URLs) > 0 && strings.TrimSpace(req.CalendarText) != "":
		err = fmt.Errorf("%w: send either calendar_text or urls", usecase.ErrInvalidInput)
	case len(req.URLs) > 0:
		preview, err = h.calendarService.FetchCalendar(ctx, access, req.URLs)
	default:
		preview, err = h.calendarService.PreviewCalendar(ctx, access, req.CalendarText)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "preview calendar failed", "team_id", access.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, calendarPreviewToDTO(preview))
}

func (h *Handler) ImportCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ImportCalendar")
	defer span.End()

	var req importCalendarRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	input := usecase.ImportCalendarInput{
		Season:  req.Season,
		Half:    req.Half,
		Matches: make([]usecase.ImportMatch, 0, len(req.Matches)),
	}
	for _, m := range req.Matches {
		input.Matches = append(input.Matches, usecase.ImportMatch{
			Opponent: m.Opponent,
			Date:     m.Date,
			Time:     m.Time,
			IsHome:   m.IsHome,
			Venue:    m.Venue,
		})
	}

	access := teamAccess(ctx, r)
	result, err := h.calendarService.ImportCalendar(ctx, access, input)
	if err != nil {
		h.logger.WarnContext(ctx, "import calendar failed", "team_id", access.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	created := make([]notification.MatchView, 0, len(result.Created))
	for _, m := range result.Created {
		created = append(created, notification.NewMatchView(m))
	}
	writeSuccess(ctx, w, http.StatusCreated, importCalendarResponse{Created: created, Skipped: result.Skipped})
}

func calendarPreviewToDTO(preview usecase.CalendarPreview) calendarPreviewResponse {
	out := calendarPreviewResponse{
		HomeTeam:   preview.HomeTeam,
		Candidates: make([]candidateDTO, 0, len(preview.Candidates)),
	}
	for _, c := range preview.Candidates {
		out.Candidates = append(out.Candidates, candidateDTO{
			Opponent:  c.Opponent,
			Date:      c.Date,
			Time:      c.Time,
			IsHome:    c.IsHome,
			Venue:     c.Venue,
			League:    c.League,
			Summary:   c.Summary,
			Parsed:    c.Parsed,
			Duplicate: c.Duplicate,
		})
	}
	return out
}
