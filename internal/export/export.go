package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"blockchain-quiz/internal/quiz"
)

const (
	dateLayout = "1/2/2006"
	timeLayout = "3:04:05 PM"

	QuestionsCSVHeader = "ID,Question,Option A,Option B,Option C,Option D,Correct Answer,Explanation,Category,Difficulty,Tags,Created At,Updated At"
	ResultsCSVHeader   = "Name,Roll Number,Score,Percentage,Date,Time,Status"
)

type Kind string

const (
	KindQuestionsJSON  Kind = "questions-json"
	KindQuestionsCSV   Kind = "questions-csv"
	KindLeaderboardCSV Kind = "leaderboard-csv"
	KindResultsJSON    Kind = "results-json"
)

// Filename names a download the way browsers received it: a fixed prefix
// plus the export time in epoch milliseconds.
func Filename(kind Kind, at time.Time) string {
	ms := at.UnixMilli()
	switch kind {
	case KindQuestionsJSON:
		return fmt.Sprintf("blockchain-questions-%d.json", ms)
	case KindQuestionsCSV:
		return fmt.Sprintf("blockchain-questions-%d.csv", ms)
	case KindLeaderboardCSV:
		return fmt.Sprintf("blockchain-quiz-leaderboard-%d.csv", ms)
	case KindResultsJSON:
		return fmt.Sprintf("blockchain-quiz-results-%d.json", ms)
	default:
		return fmt.Sprintf("blockchain-quiz-%d", ms)
	}
}

func CertificateFilename(rollNumber, ext string, at time.Time) string {
	return fmt.Sprintf("certificate_%s_%d.%s", rollNumber, at.UnixMilli(), ext)
}

func QuestionsJSON(questions []quiz.AdminQuestion) ([]byte, error) {
	if questions == nil {
		questions = []quiz.AdminQuestion{}
	}
	return json.MarshalIndent(questions, "", "  ")
}

func ResultsJSON(results []quiz.QuizResult) ([]byte, error) {
	if results == nil {
		results = []quiz.QuizResult{}
	}
	return json.MarshalIndent(results, "", "  ")
}

// QuestionsCSV renders one row per question. Textual columns are always
// quoted; dates use the M/D/YYYY form in loc (nil means local time).
func QuestionsCSV(questions []quiz.AdminQuestion, loc *time.Location) string {
	loc = orLocal(loc)

	var b strings.Builder
	b.WriteString(QuestionsCSVHeader)
	b.WriteByte('\n')

	for _, q := range questions {
		row := []string{
			strconv.FormatInt(q.ID, 10),
			quote(q.Question.Question),
			quote(option(q.Options, 0)),
			quote(option(q.Options, 1)),
			quote(option(q.Options, 2)),
			quote(option(q.Options, 3)),
			strconv.Itoa(q.CorrectAnswer),
			quote(q.Explanation),
			quote(q.Category),
			quote(string(q.Difficulty)),
			quote(strings.Join(q.Tags, ", ")),
			q.CreatedAt.In(loc).Format(dateLayout),
			q.UpdatedAt.In(loc).Format(dateLayout),
		}
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// ResultsCSV renders results in the given order. Ranked output prepends a
// 1-based Rank column, as the leaderboard download does.
func ResultsCSV(results []quiz.QuizResult, ranked bool, loc *time.Location) string {
	loc = orLocal(loc)

	var b strings.Builder
	if ranked {
		b.WriteString("Rank,")
	}
	b.WriteString(ResultsCSVHeader)
	b.WriteByte('\n')

	for idx, result := range results {
		if ranked {
			b.WriteString(strconv.Itoa(idx + 1))
			b.WriteByte(',')
		}
		b.WriteString(ResultRow(result, loc))
		b.WriteByte('\n')
	}
	return b.String()
}

// ResultRow is one unranked results line without the trailing newline.
func ResultRow(result quiz.QuizResult, loc *time.Location) string {
	date := result.Date.In(orLocal(loc))
	status := "FAIL"
	if result.Passed {
		status = "PASS"
	}

	return strings.Join([]string{
		quote(result.Student.Name),
		quote(result.Student.RollNumber),
		fmt.Sprintf("%d/%d", result.CorrectAnswers, result.TotalQuestions),
		fmt.Sprintf("%d%%", result.Percentage),
		date.Format(dateLayout),
		date.Format(timeLayout),
		status,
	}, ",")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func option(options []string, idx int) string {
	if idx < len(options) {
		return options[idx]
	}
	return ""
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
