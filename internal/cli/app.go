package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"blockchain-quiz/internal/quiz"
)

const (
	maxAttempts        = 3
	defaultFetchAmount = 10
)

type Config struct {
	Service *quiz.Service
	// Location formats dates in listings, exports and certificates.
	Location *time.Location
	// CertificateDir is where "play" saves certificates.
	CertificateDir string
	// QuestionSource backs "fetch". Nil disables the command.
	QuestionSource quiz.QuestionSource
	Now            func() time.Time
}

type app struct {
	service *quiz.Service
	loc     *time.Location
	certDir string
	source  quiz.QuestionSource
	now     func() time.Time

	in  *lineReader
	out io.Writer
}

func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	if cfg.Service == nil {
		return errors.New("quiz service is required")
	}

	a := &app{
		service: cfg.Service,
		loc:     cfg.Location,
		certDir: cfg.CertificateDir,
		source:  cfg.QuestionSource,
		now:     cfg.Now,
		in:      newLineReader(in),
		out:     out,
	}
	if a.loc == nil {
		a.loc = time.Local
	}
	if a.certDir == "" {
		a.certDir = "."
	}
	if a.now == nil {
		a.now = time.Now
	}

	fmt.Fprintln(out, "Blockchain Quiz")
	printHelp(out)

	for {
		fmt.Fprint(out, "\n> ")
		line, err := a.in.next(ctx, nil)
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

		var cmdErr error
		switch strings.ToLower(args[0]) {
		case "help":
			printHelp(out)
		case "exit", "quit":
			return nil
		case "play":
			cmdErr = a.runPlay(ctx)
		case "leaderboard":
			limit, parseErr := parsePositiveLimit(args, 1, quiz.DefaultLeaderboardSize)
			if parseErr != nil {
				fmt.Fprintf(out, "invalid leaderboard limit: %v\n", parseErr)
				continue
			}
			a.runLeaderboard(ctx, limit)
		case "results":
			if len(args) != 2 {
				fmt.Fprintln(out, "usage: results <dir>")
				continue
			}
			cmdErr = a.runResultsExport(ctx, args[1])
		case "questions":
			a.runQuestions(ctx)
		case "import":
			if len(args) != 2 {
				fmt.Fprintln(out, "usage: import <file>")
				continue
			}
			cmdErr = a.runImport(ctx, args[1])
		case "fetch":
			amount, parseErr := parsePositiveLimit(args, 1, defaultFetchAmount)
			if parseErr != nil {
				fmt.Fprintf(out, "invalid fetch amount: %v\n", parseErr)
				continue
			}
			cmdErr = a.runFetch(ctx, amount)
		case "export":
			if len(args) != 3 {
				fmt.Fprintln(out, "usage: export <json|csv> <dir>")
				continue
			}
			cmdErr = a.runQuestionsExport(ctx, args[1], args[2])
		default:
			fmt.Fprintln(out, "unknown command. type 'help' for usage.")
		}

		if cmdErr != nil {
			if errors.Is(cmdErr, io.EOF) || errors.Is(cmdErr, context.Canceled) {
				return nil
			}
			fmt.Fprintf(out, "error: %v\n", cmdErr)
		}
	}
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  play                     take the quiz")
	fmt.Fprintln(out, "  leaderboard [n]          show the top n results")
	fmt.Fprintln(out, "  results <dir>            export all results as JSON")
	fmt.Fprintln(out, "  questions                list authored questions")
	fmt.Fprintln(out, "  import <file>            import questions from a JSON file")
	fmt.Fprintln(out, "  export <json|csv> <dir>  export authored questions")
	fmt.Fprintln(out, "  fetch [n]                add n questions from Open Trivia DB")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  exit")
}

// lineReader reads input on its own goroutine so prompts can also wait on
// the quiz countdown.
type lineReader struct {
	lines chan string
	err   error
}

func newLineReader(in io.Reader) *lineReader {
	r := &lineReader{lines: make(chan string)}
	go func() {
		defer close(r.lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			r.lines <- scanner.Text()
		}
		r.err = scanner.Err()
	}()
	return r
}

var errInterrupted = errors.New("interrupted")

// next waits for a line. A nil interrupt never fires.
func (r *lineReader) next(ctx context.Context, interrupt <-chan struct{}) (string, error) {
	select {
	case line, ok := <-r.lines:
		if !ok {
			if r.err != nil {
				return "", r.err
			}
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	case <-interrupt:
		return "", errInterrupted
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
