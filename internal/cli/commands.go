package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"blockchain-quiz/internal/export"
)

func (a *app) runLeaderboard(ctx context.Context, limit int) {
	results := a.service.Leaderboard(ctx, limit)
	if len(results) == 0 {
		fmt.Fprintln(a.out, "No results yet.")
		return
	}

	fmt.Fprintln(a.out, "Leaderboard:")
	for idx, result := range results {
		fmt.Fprintf(a.out, "%d. %s (%s) %d/%d %d%% %s\n",
			idx+1,
			result.Student.Name,
			result.Student.RollNumber,
			result.CorrectAnswers,
			result.TotalQuestions,
			result.Percentage,
			result.Date.In(a.loc).Format("1/2/2006"),
		)
	}
}

func (a *app) runQuestions(ctx context.Context) {
	questions := a.service.ListQuestions(ctx)
	if len(questions) == 0 {
		fmt.Fprintln(a.out, "No authored questions. Quizzes use the built-in set.")
		return
	}

	fmt.Fprintf(a.out, "%d authored questions:\n", len(questions))
	for _, question := range questions {
		fmt.Fprintf(a.out, "%d [%s/%s] %s\n", question.ID, question.Category, question.Difficulty, question.Question.Question)
	}
}

func (a *app) runImport(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	added, err := a.service.ImportQuestions(ctx, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d questions.\n", len(added))
	return nil
}

func (a *app) runFetch(ctx context.Context, amount int) error {
	if a.source == nil {
		fmt.Fprintln(a.out, "No question source configured.")
		return nil
	}

	added, err := a.service.SeedQuestions(ctx, a.source, amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Fetched %d questions.\n", len(added))
	return nil
}

func (a *app) runQuestionsExport(ctx context.Context, format, dir string) error {
	questions := a.service.ListQuestions(ctx)
	now := a.now()

	var (
		body []byte
		name string
	)
	switch strings.ToLower(format) {
	case "json":
		data, err := export.QuestionsJSON(questions)
		if err != nil {
			return err
		}
		body, name = data, export.Filename(export.KindQuestionsJSON, now)
	case "csv":
		body, name = []byte(export.QuestionsCSV(questions, a.loc)), export.Filename(export.KindQuestionsCSV, now)
	default:
		return fmt.Errorf("unknown export format %q (want json or csv)", format)
	}

	return a.writeExport(dir, name, body)
}

func (a *app) runResultsExport(ctx context.Context, dir string) error {
	body, err := export.ResultsJSON(a.service.Results(ctx))
	if err != nil {
		return err
	}
	return a.writeExport(dir, export.Filename(export.KindResultsJSON, a.now()), body)
}

func (a *app) writeExport(dir, name string, body []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(a.out, "Wrote %s\n", path)
	return nil
}
