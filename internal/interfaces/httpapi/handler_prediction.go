package httpapi

import (
	"net/http"

	"github.com/riskibarqy/team-schedule/internal/domain/notification"
	"github.com/riskibarqy/team-schedule/internal/usecase"
)

type addDatePredictionRequest struct {
	Date     string `json:"date" validate:"required,max=40"`
	MemberID string `json:"member_id" validate:"required"`
}

type updatePredictionRequest struct {
	Date     string `json:"date" validate:"required,max=40"`
	MemberID string `json:"member_id" validate:"required"`
	Status   string `json:"status" validate:"required,max=20"`
}

type choosePredictedDateRequest struct {
	Date string `json:"date" validate:"required,max=40"`
}

type addDatePredictionResponse struct {
	MatchID  string `json:"match_id"`
	Date     string `json:"date"`
	MemberID string `json:"member_id"`
	Added    bool   `json:"added"`
}

type removeDatePredictionResponse struct {
	MatchID  string   `json:"match_id"`
	MemberID string   `json:"member_id"`
	Dates    []string `json:"dates"`
}

func (h *Handler) AddDatePrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddDatePrediction")
	defer span.End()

	var req addDatePredictionRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	access := teamAccess(ctx, r)
	input := usecase.PredictionInput{MatchID: r.PathValue("matchID"), Date: req.Date, MemberID: req.MemberID}
	added, err := h.predictionService.AddDatePrediction(ctx, access, input)
	if err != nil {
		h.logger.WarnContext(ctx, "add date prediction failed", "team_id", access.TeamID, "match_id", input.MatchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeSuccess(ctx, w, status, addDatePredictionResponse{
		MatchID:  input.MatchID,
		Date:     req.Date,
		MemberID: req.MemberID,
		Added:    added,
	})
}

func (h *Handler) UpdatePredictionAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdatePredictionAvailability")
	defer span.End()

	var req updatePredictionRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	access := teamAccess(ctx, r)
	input := usecase.PredictionInput{MatchID: r.PathValue("matchID"), Date: req.Date, MemberID: req.MemberID}
	if err := h.predictionService.UpdatePredictionAvailability(ctx, access, input, req.Status); err != nil {
		h.logger.WarnContext(ctx, "update prediction availability failed", "team_id", access.TeamID, "match_id", input.MatchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveDatePrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveDatePrediction")
	defer span.End()

	access := teamAccess(ctx, r)
	matchID := r.PathValue("matchID")
	memberID := r.PathValue("memberID")
	dates, err := h.predictionService.RemoveDatePrediction(ctx, access, matchID, memberID)
	if err != nil {
		h.logger.WarnContext(ctx, "remove date prediction failed", "team_id", access.TeamID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}

	writeSuccess(ctx, w, http.StatusOK, removeDatePredictionResponse{MatchID: matchID, MemberID: memberID, Dates: dates})
}

func (h *Handler) ChoosePredictedDate(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ChoosePredictedDate")
	defer span.End()

	var req choosePredictedDateRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	access := teamAccess(ctx, r)
	matchID := r.PathValue("matchID")
	change, err := h.predictionService.ChoosePredictedDate(ctx, access, matchID, req.Date)
	if err != nil {
		h.logger.WarnContext(ctx, "choose predicted date failed", "team_id", access.TeamID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, dateChangeResponse{
		Match:        notification.NewMatchView(change.Match),
		PreviousDate: change.PreviousDate,
		Changed:      change.Changed,
	})
}
