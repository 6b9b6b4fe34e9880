package userclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"blockchain-quiz/internal/quiz"
)

const (
	defaultServer            = "http://127.0.0.1:8080"
	defaultHTTPTimeout       = 5 * time.Second
	defaultPollInterval      = 250 * time.Millisecond
	defaultMaxInvalidAnswers = 3
)

type Config struct {
	Name              string
	RollNumber        string
	ServerURL         string
	LeaderboardLimit  int
	MaxInvalidAnswers int
	HTTPTimeout       time.Duration
	// PollInterval paces session polling while an answer is revealed.
	PollInterval time.Duration
	HTTPClient   *http.Client
}

type player struct {
	client       *HTTPClient
	name         string
	rollNumber   string
	serverURL    string
	maxInvalid   int
	pollInterval time.Duration
}

func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	name := strings.TrimSpace(cfg.Name)
	rollNumber := strings.TrimSpace(cfg.RollNumber)
	if name == "" || rollNumber == "" {
		return errors.New("name and roll number are required")
	}

	serverURL := strings.TrimSpace(cfg.ServerURL)
	if serverURL == "" {
		serverURL = defaultServer
	}
	leaderboardLimit := cfg.LeaderboardLimit
	if leaderboardLimit <= 0 {
		leaderboardLimit = quiz.DefaultLeaderboardSize
	}
	maxInvalid := cfg.MaxInvalidAnswers
	if maxInvalid <= 0 {
		maxInvalid = defaultMaxInvalidAnswers
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	p := &player{
		client:       NewHTTPClient(serverURL, httpClient),
		name:         name,
		rollNumber:   rollNumber,
		serverURL:    serverURL,
		maxInvalid:   maxInvalid,
		pollInterval: pollInterval,
	}
	reader := bufio.NewReader(in)

	fmt.Fprintf(out, "quiz-user-service\nstudent=%s (%s)\nserver=%s\n\n", name, rollNumber, serverURL)
	printHelp(out)

	for {
		fmt.Fprint(out, "\n> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}

		switch strings.ToLower(args[0]) {
		case "help":
			printHelp(out)
		case "exit":
			return nil
		case "leaderboard":
			limit, parseErr := parsePositiveLimit(args, 1, leaderboardLimit)
			if parseErr != nil {
				fmt.Fprintf(out, "invalid leaderboard limit: %v\n", parseErr)
				continue
			}
			if err := p.runLeaderboard(ctx, out, limit); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		case "play":
			if err := p.runPlay(ctx, reader, out); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		default:
			fmt.Fprintln(out, "unknown command. type 'help' for usage.")
		}
	}
}

func (p *player) runLeaderboard(ctx context.Context, out io.Writer, limit int) error {
	entries, err := p.client.GetLeaderboard(ctx, limit)
	if err != nil {
		return describeClientError(err, p.serverURL)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No results yet.")
		return nil
	}

	fmt.Fprintln(out, "Leaderboard:")
	for _, entry := range entries {
		fmt.Fprintf(out, "%d. %s (%s) %d/%d %d%% %s\n",
			entry.Rank,
			entry.Name,
			entry.RollNumber,
			entry.Score,
			entry.Total,
			entry.Percentage,
			entry.Date.Local().Format("1/2/2006"),
		)
	}
	return nil
}

func (p *player) runPlay(ctx context.Context, reader *bufio.Reader, out io.Writer) error {
	session, err := p.client.StartSession(ctx, p.name, p.rollNumber)
	if err != nil {
		return describeClientError(err, p.serverURL)
	}
	fmt.Fprintf(out, "session=%s questions=%d\n", session.SessionID, session.TotalQuestions)

	invalidCount := 0
	for session.State != stateCompleted && session.Question != nil {
		question := *session.Question
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Q%d/%d  [%s left]\n", session.QuestionIndex+1, session.TotalQuestions, formatClock(session.RemainingSeconds))
		fmt.Fprintf(out, "%s\n\n", question.Question)
		for idx, option := range question.Options {
			fmt.Fprintf(out, "%c. %s\n", 'A'+idx, option)
		}
		fmt.Fprintln(out)

		answer, ok := promptAnswer(reader, out, len(question.Options))
		if !ok {
			invalidCount++
			if invalidCount >= p.maxInvalid {
				fmt.Fprintln(out, "Too many invalid answers. Quiz abandoned.")
				return p.client.EndSession(ctx, session.SessionID)
			}
			fmt.Fprintf(out, "Invalid input. Attempts remaining: %d\n", p.maxInvalid-invalidCount)
			continue
		}
		invalidCount = 0

		session, err = p.submit(ctx, session.SessionID, int(answer[0]-'A'))
		if IsTimeUp(err) {
			fmt.Fprintln(out, "Time is up!")
			break
		}
		if err != nil {
			return describeClientError(err, p.serverURL)
		}

		if session.State == stateShowingResult && session.Question != nil && session.Question.CorrectAnswer != nil {
			printReveal(out, *session.Question, int(answer[0]-'A'))
			if session, err = p.waitForReveal(ctx, session); err != nil {
				return describeClientError(err, p.serverURL)
			}
		} else {
			fmt.Fprintln(out, "Answer recorded.")
		}
	}

	result, err := p.client.GetResult(ctx, session.SessionID)
	if err != nil {
		return describeClientError(err, p.serverURL)
	}
	printResult(out, result)
	return p.client.EndSession(ctx, session.SessionID)
}

func (p *player) submit(ctx context.Context, sessionID string, option int) (sessionPayload, error) {
	if _, err := p.client.SelectAnswer(ctx, sessionID, option); err != nil {
		return sessionPayload{}, err
	}
	return p.client.Advance(ctx, sessionID)
}

// waitForReveal polls until the server moves past the revealed answer.
func (p *player) waitForReveal(ctx context.Context, session sessionPayload) (sessionPayload, error) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for session.State == stateShowingResult {
		select {
		case <-ctx.Done():
			return session, ctx.Err()
		case <-ticker.C:
		}

		next, err := p.client.GetSession(ctx, session.SessionID)
		if err != nil {
			return session, err
		}
		session = next
	}
	return session, nil
}

func printReveal(out io.Writer, question questionItem, choice int) {
	if choice == *question.CorrectAnswer {
		fmt.Fprintln(out, "Correct!")
	} else {
		fmt.Fprintf(out, "Wrong. Correct answer was %s\n", correctAnswerDisplay(question))
	}
	if question.Explanation != "" {
		fmt.Fprintln(out, question.Explanation)
	}
}

func printResult(out io.Writer, result quiz.QuizResult) {
	status := "FAIL"
	if result.Passed {
		status = "PASS"
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Score: %d/%d (%d%%) %s\n", result.CorrectAnswers, result.TotalQuestions, result.Percentage, status)
}
