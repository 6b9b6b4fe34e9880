// Package opentdb seeds the authored question pool from the Open Trivia DB.
package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"blockchain-quiz/internal/quiz"
)

const (
	DefaultURL = "https://opentdb.com/api.php"
	// DefaultCategory is "Science: Computers".
	DefaultCategory = 18

	defaultAmount = 10
	maxAmount     = 50
	sourceTag     = "opentdb"
)

// RawQuestion mirrors the OpenTriviaDB question payload.
type RawQuestion struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type apiResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []RawQuestion `json:"results"`
}

type Client struct {
	baseURL    string
	category   int
	httpClient *http.Client
}

// NewClient builds a client. An empty baseURL uses DefaultURL and a
// category of zero or less asks for any category.
func NewClient(baseURL string, category int, httpClient *http.Client) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, category: category, httpClient: httpClient}
}

func (c *Client) FetchQuestions(ctx context.Context, amount int) ([]RawQuestion, error) {
	if amount <= 0 {
		amount = defaultAmount
	}
	if amount > maxAmount {
		amount = maxAmount
	}

	query := url.Values{}
	query.Set("amount", strconv.Itoa(amount))
	query.Set("type", "multiple")
	if c.category > 0 {
		query.Set("category", strconv.Itoa(c.category))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("opentdb returned status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	if payload.ResponseCode != 0 {
		return nil, fmt.Errorf("opentdb response_code=%d", payload.ResponseCode)
	}

	return payload.Results, nil
}

// FetchDrafts fetches questions and converts the usable ones to drafts.
func (c *Client) FetchDrafts(ctx context.Context, amount int) ([]quiz.QuestionDraft, error) {
	raw, err := c.FetchQuestions(ctx, amount)
	if err != nil {
		return nil, err
	}
	return BuildDrafts(raw), nil
}

// BuildDrafts keeps multiple-choice questions with exactly four options,
// unescapes their HTML entities and shuffles the correct answer into place.
func BuildDrafts(raw []RawQuestion) []quiz.QuestionDraft {
	drafts := make([]quiz.QuestionDraft, 0, len(raw))
	for _, item := range raw {
		if len(item.IncorrectAnswers)+1 != quiz.OptionCount {
			continue
		}
		drafts = append(drafts, buildDraft(item))
	}
	return drafts
}

func buildDraft(raw RawQuestion) quiz.QuestionDraft {
	type choice struct {
		text      string
		isCorrect bool
	}

	choices := make([]choice, 0, len(raw.IncorrectAnswers)+1)
	for _, incorrect := range raw.IncorrectAnswers {
		choices = append(choices, choice{
			text:      html.UnescapeString(incorrect),
			isCorrect: false,
		})
	}

	choices = append(choices, choice{
		text:      html.UnescapeString(raw.CorrectAnswer),
		isCorrect: true,
	})

	rand.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	options := make([]string, len(choices))
	correctIndex := 0
	for idx, candidate := range choices {
		options[idx] = candidate.text
		if candidate.isCorrect {
			correctIndex = idx
		}
	}

	return quiz.QuestionDraft{
		Question:      html.UnescapeString(raw.Question),
		Options:       options,
		CorrectAnswer: correctIndex,
		Category:      html.UnescapeString(raw.Category),
		Difficulty:    quiz.Difficulty(strings.ToLower(raw.Difficulty)),
		Tags:          []string{sourceTag},
	}
}
