package userclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"blockchain-quiz/internal/quiz"
)

var ErrServiceUnavailable = errors.New("quiz service unavailable")

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// IsTimeUp reports whether the server rejected a move because the quiz
// deadline passed.
func IsTimeUp(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict && apiErr.Message == quiz.ErrTimeUp.Error()
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

const (
	stateInProgress    = "in_progress"
	stateShowingResult = "showing_result"
	stateCompleted     = "completed"
)

type questionItem struct {
	ID            int64    `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correctAnswer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

type sessionPayload struct {
	SessionID        string           `json:"sessionId"`
	Student          quiz.Student     `json:"student"`
	State            string           `json:"state"`
	QuestionIndex    int              `json:"questionIndex"`
	TotalQuestions   int              `json:"totalQuestions"`
	Question         *questionItem    `json:"question,omitempty"`
	SelectedAnswer   *int             `json:"selectedAnswer"`
	LastAnswer       *quiz.QuizAnswer `json:"lastAnswer,omitempty"`
	RemainingSeconds int              `json:"remainingSeconds"`
	Reason           string           `json:"completionReason,omitempty"`
}

type leaderboardEntry struct {
	Rank       int       `json:"rank"`
	Name       string    `json:"name"`
	RollNumber string    `json:"rollNumber"`
	Score      int       `json:"score"`
	Total      int       `json:"totalQuestions"`
	Percentage int       `json:"percentage"`
	Passed     bool      `json:"passed"`
	Date       time.Time `json:"date"`
}

type leaderboardResponse struct {
	Leaderboard []leaderboardEntry `json:"leaderboard"`
}

type startRequest struct {
	Name       string `json:"name"`
	RollNumber string `json:"rollNumber"`
}

type selectRequest struct {
	Option int `json:"option"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultServer
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *HTTPClient) StartSession(ctx context.Context, name, rollNumber string) (sessionPayload, error) {
	var payload sessionPayload
	err := c.doJSON(ctx, http.MethodPost, "/api/sessions", startRequest{Name: name, RollNumber: rollNumber}, &payload)
	return payload, err
}

func (c *HTTPClient) GetSession(ctx context.Context, sessionID string) (sessionPayload, error) {
	var payload sessionPayload
	err := c.doJSON(ctx, http.MethodGet, sessionPath(sessionID, ""), nil, &payload)
	return payload, err
}

func (c *HTTPClient) SelectAnswer(ctx context.Context, sessionID string, option int) (sessionPayload, error) {
	var payload sessionPayload
	err := c.doJSON(ctx, http.MethodPost, sessionPath(sessionID, "/select"), selectRequest{Option: option}, &payload)
	return payload, err
}

func (c *HTTPClient) Advance(ctx context.Context, sessionID string) (sessionPayload, error) {
	var payload sessionPayload
	err := c.doJSON(ctx, http.MethodPost, sessionPath(sessionID, "/advance"), nil, &payload)
	return payload, err
}

func (c *HTTPClient) Retreat(ctx context.Context, sessionID string) (sessionPayload, error) {
	var payload sessionPayload
	err := c.doJSON(ctx, http.MethodPost, sessionPath(sessionID, "/retreat"), nil, &payload)
	return payload, err
}

func (c *HTTPClient) EndSession(ctx context.Context, sessionID string) error {
	return c.doJSON(ctx, http.MethodDelete, sessionPath(sessionID, ""), nil, nil)
}

func (c *HTTPClient) GetResult(ctx context.Context, sessionID string) (quiz.QuizResult, error) {
	var result quiz.QuizResult
	err := c.doJSON(ctx, http.MethodGet, sessionPath(sessionID, "/result"), nil, &result)
	return result, err
}

func (c *HTTPClient) GetLeaderboard(ctx context.Context, limit int) ([]leaderboardEntry, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var payload leaderboardResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/leaderboard?"+query.Encode(), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Leaderboard, nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
			apiErr.Message = payload.Error
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return &apiErr
	}

	if responseBody == nil || response.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}
