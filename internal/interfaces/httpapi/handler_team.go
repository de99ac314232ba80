package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/team-schedule/internal/domain/notification"
	"github.com/riskibarqy/team-schedule/internal/usecase"
)

type createTeamRequest struct {
	Name             string `json:"name" validate:"required,max=100"`
	CreatorName      string `json:"creator_name" validate:"required,max=100"`
	OtherMemberNames string `json:"other_member_names" validate:"max=2000"`
	PlayersNeeded    int    `json:"players_needed" validate:"min=1,max=99"`
	AccessCode       string `json:"access_code" validate:"omitempty,numeric,min=4,max=8"`
}

type submitAccessCodeRequest struct {
	AccessCode string `json:"access_code" validate:"required"`
}

type updateTeamRequest struct {
	PlayersNeeded int `json:"players_needed" validate:"min=1,max=99"`
}

type createMemberRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type createMatchRequest struct {
	Opponent string `json:"opponent" validate:"required,max=200"`
	Date     string `json:"date" validate:"required,max=40"`
	Time     string `json:"time" validate:"max=20"`
	IsHome   bool   `json:"is_home"`
	Venue    string `json:"venue" validate:"max=200"`
	Season   string `json:"season" validate:"max=40"`
	Half     string `json:"season_half" validate:"omitempty,oneof=first second"`
	Matchday int    `json:"matchday" validate:"min=0"`
}

type updateAvailabilityRequest struct {
	MemberID string `json:"member_id" validate:"required"`
	MatchID  string `json:"match_id" validate:"required"`
	Status   string `json:"status" validate:"required,max=20"`
}

type changeMatchDateRequest struct {
	Date string `json:"date" validate:"required,max=40"`
}

type createTeamResponse struct {
	notification.Snapshot
	CreatorMemberID string `json:"creator_member_id"`
	AccessCode      string `json:"access_code"`
}

type availabilityResponse struct {
	MemberID string                   `json:"member_id"`
	MatchID  string                   `json:"match_id"`
	Status   string                   `json:"status"`
	Summary  notification.SummaryView `json:"summary"`
}

type dateChangeResponse struct {
	Match        notification.MatchView `json:"match"`
	PreviousDate string                 `json:"previous_date"`
	Changed      bool                   `json:"changed"`
}

func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateTeam")
	defer span.End()

	var req createTeamRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.teamService.CreateTeam(ctx, usecase.CreateTeamInput{
		Name:             req.Name,
		CreatorName:      req.CreatorName,
		OtherMemberNames: req.OtherMemberNames,
		PlayersNeeded:    req.PlayersNeeded,
		AccessCode:       req.AccessCode,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create team failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, createTeamResponse{
		Snapshot:        notification.NewSnapshot(result.Data),
		CreatorMemberID: result.CreatorMemberID,
		AccessCode:      result.AccessCode,
	})
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeam")
	defer span.End()

	access := teamAccess(ctx, r)
	data, err := h.teamService.GetTeam(ctx, access)
	if err != nil {
		h.logger.WarnContext(ctx, "get team failed", "team_id", access.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, notification.NewSnapshot(data))
}

func (h *Handler) SubmitAccessCode(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitAccessCode")
	defer span.End()

	var req submitAccessCodeRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	access := usecase.Access{TeamID: r.PathValue("teamID"), AccessCode: req.AccessCode}
	data, err := h.teamService.SubmitAccessCode(ctx, access)
	if err != nil {
		h.logger.WarnContext(ctx, "submit access code failed", "team_id", access.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, notification.NewSnapshot(data))
}

func (h *Handler) UpdatePlayersNeeded(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdatePlayersNeeded")
	defer span.End()

	var req updateTeamRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	access := teamAccess(ctx, r)
	data, err := h.teamService.UpdatePlayersNeeded(ctx, access, req.PlayersNeeded)
	if err != nil {
		h.logger.WarnContext(ctx, "update players needed failed", "team_id", access.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, notification.NewSnapshot(data))
}

func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateMember")
	defer span.End()

	var req createMemberRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	access := teamAccess(ctx, r)
	member, err := h.teamService.CreateMember(ctx, access, req.Name)
	if err != nil {
		h.logger.WarnContext(ctx, "create member failed", "team_id", access.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, notification.NewMemberView(member))
}

func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateMatch")
	defer span.End()

	var req createMatchRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	access := teamAccess(ctx, r)
	match, err := h.teamService.CreateMatch(ctx, access, usecase.CreateMatchInput{
		Opponent: req.Opponent,
		Date:     req.Date,
		Time:     req.Time,
		IsHome:   req.IsHome,
		Venue:    req.Venue,
		Season:   req.Season,
		Half:     req.Half,
		Matchday: req.Matchday,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create match failed", "team_id", access.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, notification.NewMatchView(match))
}

func (h *Handler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateAvailability")
	defer span.End()

	var req updateAvailabilityRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	access := teamAccess(ctx, r)
	summary, err := h.teamService.UpdateAvailability(ctx, access, usecase.UpdateAvailabilityInput{
		MemberID: req.MemberID,
		MatchID:  req.MatchID,
		Status:   req.Status,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update availability failed", "team_id", access.TeamID, "match_id", req.MatchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, availabilityResponse{
		MemberID: req.MemberID,
		MatchID:  req.MatchID,
		Status:   strings.ToLower(strings.TrimSpace(req.Status)),
		Summary:  notification.NewSummaryView(summary),
	})
}

func (h *Handler) ChangeMatchDate(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ChangeMatchDate")
	defer span.End()

	var req changeMatchDateRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	access := teamAccess(ctx, r)
	matchID := r.PathValue("matchID")
	change, err := h.teamService.ChangeMatchDate(ctx, access, matchID, req.Date)
	if err != nil {
		h.logger.WarnContext(ctx, "change match date failed", "team_id", access.TeamID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, dateChangeResponse{
		Match:        notification.NewMatchView(change.Match),
		PreviousDate: change.PreviousDate,
		Changed:      change.Changed,
	})
}
