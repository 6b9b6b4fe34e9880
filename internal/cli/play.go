package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"blockchain-quiz/internal/certificate"
	"blockchain-quiz/internal/export"
	"blockchain-quiz/internal/quiz"
)

func (a *app) runPlay(ctx context.Context) error {
	student, err := a.promptStudent(ctx)
	if err != nil {
		return err
	}

	session, err := a.service.StartQuiz(ctx, student)
	if err != nil {
		return err
	}
	defer func() { _ = a.service.EndSession(session.ID()) }()

	fmt.Fprintf(a.out, "\nWelcome %s (%s). Answer with A-D, P for the previous question, Q to quit.\n", student.Name, student.RollNumber)

	quit, err := a.playQuestions(ctx, session)
	if err != nil || quit {
		return err
	}

	result, ok := session.Result()
	if !ok {
		return nil
	}
	a.printResult(session.Snapshot(), result)

	if !result.Passed {
		return nil
	}
	save, err := promptYesNo(ctx, a.in, a.out, "Save your certificate? (yes/no): ")
	if err != nil || !save {
		return err
	}
	return a.saveCertificate(result)
}

func (a *app) promptStudent(ctx context.Context) (quiz.Student, error) {
	for attempt := 1; ; attempt++ {
		fmt.Fprint(a.out, "Full name: ")
		name, err := a.in.next(ctx, nil)
		if err != nil {
			return quiz.Student{}, err
		}
		fmt.Fprint(a.out, "Roll number: ")
		roll, err := a.in.next(ctx, nil)
		if err != nil {
			return quiz.Student{}, err
		}

		student, err := a.service.Login(name, roll)
		if err == nil {
			return student, nil
		}
		var validationErr *quiz.ValidationError
		if !errors.As(err, &validationErr) || attempt >= maxAttempts {
			return quiz.Student{}, err
		}
		fmt.Fprintf(a.out, "Invalid input: %v\n", err)
	}
}

// playQuestions runs the prompt loop until the session completes or the
// student quits.
func (a *app) playQuestions(ctx context.Context, session *quiz.Session) (bool, error) {
	invalid := 0
	for {
		snap := session.Snapshot()
		if snap.State == quiz.StateCompleted || snap.Question == nil {
			return false, nil
		}

		question := *snap.Question
		printQuestion(a.out, snap)
		fmt.Fprint(a.out, "Your answer: ")

		line, err := a.in.next(ctx, session.Done())
		if errors.Is(err, errInterrupted) {
			fmt.Fprintln(a.out, "\nTime is up!")
			return false, nil
		}
		if err != nil {
			return false, err
		}

		switch input := strings.ToUpper(line); input {
		case "Q":
			fmt.Fprintln(a.out, "Quiz abandoned. No result was recorded.")
			return true, nil
		case "P":
			if err := session.Retreat(); err != nil {
				if errors.Is(err, quiz.ErrTimeUp) {
					fmt.Fprintln(a.out, "Time is up!")
					return false, nil
				}
				fmt.Fprintln(a.out, "Already at the first question.")
			}
			continue
		default:
			choice, ok := parseAnswer(input, len(question.Options))
			if !ok {
				invalid++
				fmt.Fprintf(a.out, "Invalid input. Please enter a letter A-%c.\n", 'A'+len(question.Options)-1)
				if invalid >= maxAttempts {
					fmt.Fprintln(a.out, "Too many invalid answers. Quiz abandoned.")
					return true, nil
				}
				continue
			}
			invalid = 0

			if err := submit(session, choice); err != nil {
				if errors.Is(err, quiz.ErrTimeUp) {
					fmt.Fprintln(a.out, "Time is up!")
					return false, nil
				}
				return false, err
			}
			printReveal(a.out, question, choice)
			waitForReveal(session)
		}
	}
}

func submit(session *quiz.Session, choice int) error {
	if err := session.SelectAnswer(choice); err != nil {
		return err
	}
	return session.Advance()
}

// waitForReveal blocks until the session leaves the reveal state.
func waitForReveal(session *quiz.Session) {
	updates, cancel := session.Subscribe()
	defer cancel()
	for snap := range updates {
		if snap.State != quiz.StateShowingResult {
			return
		}
	}
}

func (a *app) printResult(snap quiz.Snapshot, result quiz.QuizResult) {
	status := "FAIL"
	if result.Passed {
		status = "PASS"
	}

	fmt.Fprintln(a.out)
	if snap.Reason == quiz.ReasonTimeout {
		fmt.Fprintln(a.out, "The quiz ended when time ran out.")
	}
	fmt.Fprintf(a.out, "Score: %d/%d (%d%%) %s\n", result.CorrectAnswers, result.TotalQuestions, result.Percentage, status)
	fmt.Fprintf(a.out, "Time spent: %s\n", formatClock(int(result.TimeSpent/1000)))
	if result.Passed {
		fmt.Fprintln(a.out, "Congratulations, you passed!")
	} else {
		fmt.Fprintf(a.out, "You need %d%% to pass.\n", quiz.PassPercentage)
	}
}

func (a *app) saveCertificate(result quiz.QuizResult) error {
	page, err := certificate.HTML(result, a.loc)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(a.certDir, 0o755); err != nil {
		return fmt.Errorf("create certificate dir: %w", err)
	}
	path := filepath.Join(a.certDir, export.CertificateFilename(result.Student.RollNumber, "html", a.now()))
	if err := os.WriteFile(path, page, 0o644); err != nil {
		return fmt.Errorf("write certificate: %w", err)
	}
	fmt.Fprintf(a.out, "Certificate saved to %s\n", path)
	return nil
}

func printQuestion(out io.Writer, snap quiz.Snapshot) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Q%d/%d  [%s left]\n", snap.QuestionIndex+1, snap.TotalQuestions, formatClock(snap.RemainingSeconds))
	fmt.Fprintf(out, "%s\n\n", snap.Question.Question)
	for idx, option := range snap.Question.Options {
		fmt.Fprintf(out, "%c. %s\n", 'A'+idx, option)
	}
	if snap.SelectedAnswer != nil {
		fmt.Fprintf(out, "(previously chosen: %c)\n", 'A'+*snap.SelectedAnswer)
	}
	fmt.Fprintln(out)
}

func printReveal(out io.Writer, question quiz.Question, choice int) {
	if choice == question.CorrectAnswer {
		fmt.Fprintln(out, "Correct!")
	} else {
		fmt.Fprintf(out, "Wrong. Correct answer was %s\n", optionDisplay(question.Options, question.CorrectAnswer))
	}
	if question.Explanation != "" {
		fmt.Fprintln(out, question.Explanation)
	}
}
