package httpapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"blockchain-quiz/internal/certificate"
	"blockchain-quiz/internal/export"
	"blockchain-quiz/internal/quiz"
)

func (a *API) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"activeSessions": a.service.ActiveSessions(),
	})
}

func (a *API) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	student, err := a.service.Login(req.Name, req.RollNumber)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	session, err := a.service.StartQuiz(r.Context(), student)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionView(session.Student(), session.Snapshot()))
}

func (a *API) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(session.Student(), session.Snapshot()))
}

func (a *API) HandleSelectAnswer(w http.ResponseWriter, r *http.Request) {
	session, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}

	var req selectAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Option == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "option is required", Field: "option"})
		return
	}

	a.respondAfter(w, session, session.SelectAnswer(*req.Option))
}

func (a *API) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	session, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	a.respondAfter(w, session, session.Advance())
}

func (a *API) HandleRetreat(w http.ResponseWriter, r *http.Request) {
	session, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	a.respondAfter(w, session, session.Retreat())
}

func (a *API) HandleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := a.service.EndSession(chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) HandleSessionResult(w http.ResponseWriter, r *http.Request) {
	session, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}

	result, done := session.Result()
	if !done {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "quiz is still in progress"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) HandleCertificate(w http.ResponseWriter, r *http.Request) {
	session, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}

	result, done := session.Result()
	if !done {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "quiz is still in progress"})
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "html"
	}
	if format != "html" && format != "pdf" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "format must be html or pdf", Field: "format"})
		return
	}

	page, err := certificate.HTML(result, a.loc)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	now := a.now()
	if format == "html" {
		writeDownload(w, "text/html; charset=utf-8", export.CertificateFilename(result.Student.RollNumber, "html", now), page)
		return
	}

	pdf, err := a.renderPDF(r.Context(), page)
	if err != nil {
		a.log.Error("render certificate pdf", slog.String("session", session.ID()), slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to render certificate"})
		return
	}
	writeDownload(w, "application/pdf", export.CertificateFilename(result.Student.RollNumber, "pdf", now), pdf)
}

func (a *API) sessionFromRequest(w http.ResponseWriter, r *http.Request) (*quiz.Session, bool) {
	session, err := a.service.Session(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	return session, true
}

// respondAfter reports a transition error or the snapshot it produced.
func (a *API) respondAfter(w http.ResponseWriter, session *quiz.Session, err error) {
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(session.Student(), session.Snapshot()))
}
