// Package certificate renders the printable certificate offered to students
// who pass the quiz.
package certificate

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"blockchain-quiz/internal/quiz"
)

var ErrNotPassed = errors.New("certificate is only issued for passing results")

//go:embed templates/certificate.html
var templateFS embed.FS

var certificateTemplate = template.Must(template.ParseFS(templateFS, "templates/certificate.html"))

const pdfTimeout = 30 * time.Second

type certificateData struct {
	Name       string
	RollNumber string
	Correct    int
	Total      int
	Percentage int
	Date       string
}

// HTML renders a self-contained certificate document. Dates are shown in
// loc; nil means local time.
func HTML(result quiz.QuizResult, loc *time.Location) ([]byte, error) {
	if !result.Passed {
		return nil, ErrNotPassed
	}
	if loc == nil {
		loc = time.Local
	}

	data := certificateData{
		Name:       result.Student.Name,
		RollNumber: result.Student.RollNumber,
		Correct:    result.CorrectAnswers,
		Total:      result.TotalQuestions,
		Percentage: result.Percentage,
		Date:       result.Date.In(loc).Format("1/2/2006"),
	}

	var rendered bytes.Buffer
	if err := certificateTemplate.Execute(&rendered, data); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return rendered.Bytes(), nil
}

// PDF prints the HTML certificate through a headless Chrome instance. The
// browser is started per call and torn down afterwards.
func PDF(ctx context.Context, htmlContent []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, pdfTimeout)
	defer cancel()

	browserCtx, cancelBrowser := chromedp.NewContext(ctx)
	defer cancelBrowser()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, string(htmlContent)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print certificate: %w", err)
	}
	return pdf, nil
}
