package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"blockchain-quiz/internal/auth"
	"blockchain-quiz/internal/certificate"
	"blockchain-quiz/internal/quiz"
)

const (
	maxBodyBytes       = 4 << 20
	defaultFetchAmount = 10
	maxFetchAmount     = 50
)

var errUnknownAction = errors.New("unknown action")

func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *quiz.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Error(), Field: validationErr.Field})
	case errors.Is(err, quiz.ErrValidation), errors.Is(err, quiz.ErrImport):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, quiz.ErrInvalidOption):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, quiz.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
	case errors.Is(err, quiz.ErrInvalidTransition),
		errors.Is(err, quiz.ErrNoAnswerSelected),
		errors.Is(err, quiz.ErrTimeUp),
		errors.Is(err, quiz.ErrSessionClosed),
		errors.Is(err, certificate.ErrNotPassed):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, quiz.ErrQuestionSource):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "failed to fetch questions"})
	case errors.Is(err, quiz.ErrNoQuestions):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "no questions available"})
	case errors.Is(err, quiz.ErrStorageWrite):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "storage unavailable, please try again later"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
	case errors.Is(err, auth.ErrAdminDisabled):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "admin login is not configured"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "request failed"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read body"})
		return nil, false
	}
	return data, true
}

func parseLimit(r *http.Request, defaultValue int) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get("limit"))
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return parsed, nil
}

func parseAmount(r *http.Request, defaultValue int) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get("amount"))
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 || parsed > maxFetchAmount {
		return 0, fmt.Errorf("amount must be between 1 and %d", maxFetchAmount)
	}
	return parsed, nil
}

func parseQuestionID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
	if err != nil {
		return 0, errors.New("question id must be an integer")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDownload(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
