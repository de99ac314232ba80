package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, sessions http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if sessions != nil {
		mux.Handle("GET /ws", sessions)
	}
}

func registerTeamRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/teams", handler.CreateTeam)
	mux.Handle("GET /v1/teams/{teamID}", RequireTeamAccess(http.HandlerFunc(handler.GetTeam)))
	mux.HandleFunc("POST /v1/teams/{teamID}/access", handler.SubmitAccessCode)
	mux.Handle("PATCH /v1/teams/{teamID}", RequireTeamAccess(http.HandlerFunc(handler.UpdatePlayersNeeded)))
	mux.Handle("POST /v1/teams/{teamID}/members", RequireTeamAccess(http.HandlerFunc(handler.CreateMember)))
	mux.Handle("POST /v1/teams/{teamID}/matches", RequireTeamAccess(http.HandlerFunc(handler.CreateMatch)))
	mux.Handle("PUT /v1/teams/{teamID}/availability", RequireTeamAccess(http.HandlerFunc(handler.UpdateAvailability)))
	mux.Handle("PUT /v1/teams/{teamID}/matches/{matchID}/date", RequireTeamAccess(http.HandlerFunc(handler.ChangeMatchDate)))
}

func registerPredictionRoutes(mux *http.ServeMux, handler *Handler) {
	mux.Handle("POST /v1/teams/{teamID}/matches/{matchID}/predictions", RequireTeamAccess(http.HandlerFunc(handler.AddDatePrediction)))
	mux.Handle("PUT /v1/teams/{teamID}/matches/{matchID}/predictions", RequireTeamAccess(http.HandlerFunc(handler.UpdatePredictionAvailability)))
	mux.Handle("DELETE /v1/teams/{teamID}/matches/{matchID}/predictions/{memberID}", RequireTeamAccess(http.HandlerFunc(handler.RemoveDatePrediction)))
	mux.Handle("POST /v1/teams/{teamID}/matches/{matchID}/predictions/choose", RequireTeamAccess(http.HandlerFunc(handler.ChoosePredictedDate)))
}

func registerCalendarRoutes(mux *http.ServeMux, handler *Handler) {
	mux.Handle("POST /v1/teams/{teamID}/calendar/preview", RequireTeamAccess(http.HandlerFunc(handler.PreviewCalendar)))
	mux.Handle("POST /v1/teams/{teamID}/calendar/import", RequireTeamAccess(http.HandlerFunc(handler.ImportCalendar)))
}
