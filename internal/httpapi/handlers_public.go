package httpapi

import (
	"net/http"

	"blockchain-quiz/internal/export"
	"blockchain-quiz/internal/quiz"
)

func (a *API) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, quiz.DefaultLeaderboardSize)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: "limit"})
		return
	}

	writeJSON(w, http.StatusOK, leaderboardResponse{
		Leaderboard: toLeaderboard(a.service.Leaderboard(r.Context(), limit)),
	})
}

func (a *API) HandleLeaderboardExport(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, quiz.DefaultLeaderboardSize)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: "limit"})
		return
	}

	body := export.ResultsCSV(a.service.Leaderboard(r.Context(), limit), true, a.loc)
	writeDownload(w, "text/csv; charset=utf-8", export.Filename(export.KindLeaderboardCSV, a.now()), []byte(body))
}

func (a *API) HandleResultsExport(w http.ResponseWriter, r *http.Request) {
	body, err := export.ResultsJSON(a.service.Results(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeDownload(w, "application/json", export.Filename(export.KindResultsJSON, a.now()), body)
}
