package httpapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"blockchain-quiz/internal/export"
	"blockchain-quiz/internal/quiz"
)

func (a *API) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, expiresAt, err := a.auth.Login(req.Username, req.Password)
	if err != nil {
		a.log.Warn("admin login rejected", slog.String("user", req.Username), slog.Any("err", err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adminLoginResponse{Token: token, ExpiresAt: expiresAt})
}

func (a *API) HandleListQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, questionsResponse{Questions: a.service.ListQuestions(r.Context())})
}

func (a *API) HandleAddQuestion(w http.ResponseWriter, r *http.Request) {
	var draft quiz.QuestionDraft
	if !decodeJSON(w, r, &draft) {
		return
	}

	question, err := a.service.AddQuestion(r.Context(), draft)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

func (a *API) HandleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := parseQuestionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var patch quiz.QuestionPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if err := a.service.UpdateQuestion(r.Context(), id, patch); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) HandleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := parseQuestionID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := a.service.DeleteQuestion(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) HandleImportQuestions(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r)
	if !ok {
		return
	}

	added, err := a.service.ImportQuestions(r.Context(), data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, importResponse{Imported: len(added), Questions: added})
}

func (a *API) HandleFetchQuestions(w http.ResponseWriter, r *http.Request) {
	if a.source == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "question source is not configured"})
		return
	}

	amount, err := parseAmount(r, defaultFetchAmount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: "amount"})
		return
	}

	added, err := a.service.SeedQuestions(r.Context(), a.source, amount)
	if err != nil {
		a.log.Warn("fetch questions", slog.Int("amount", amount), slog.Any("err", err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, importResponse{Imported: len(added), Questions: added})
}

func (a *API) HandleExportQuestions(w http.ResponseWriter, r *http.Request) {
	questions := a.service.ListQuestions(r.Context())
	now := a.now()

	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))) {
	case "", "json":
		body, err := export.QuestionsJSON(questions)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeDownload(w, "application/json", export.Filename(export.KindQuestionsJSON, now), body)
	case "csv":
		body := export.QuestionsCSV(questions, a.loc)
		writeDownload(w, "text/csv; charset=utf-8", export.Filename(export.KindQuestionsCSV, now), []byte(body))
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "format must be json or csv", Field: "format"})
	}
}

func (a *API) HandleListBanks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, banksResponse{Banks: a.banks.List(r.Context())})
}

func (a *API) HandleCreateBank(w http.ResponseWriter, r *http.Request) {
	var draft quiz.BankDraft
	if !decodeJSON(w, r, &draft) {
		return
	}

	bank, err := a.banks.Create(r.Context(), draft)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bank)
}

func (a *API) HandleDeleteBank(w http.ResponseWriter, r *http.Request) {
	if err := a.banks.Delete(r.Context(), chi.URLParam(r, "bankID")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
