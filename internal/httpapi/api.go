package httpapi

import (
	"context"
	"log/slog"
	"time"

	"blockchain-quiz/internal/auth"
	"blockchain-quiz/internal/certificate"
	"blockchain-quiz/internal/quiz"
)

const defaultRequestTimeout = 30 * time.Second

// PDFRenderer turns a rendered HTML certificate into a PDF document.
type PDFRenderer func(ctx context.Context, html []byte) ([]byte, error)

type Options struct {
	Service        *quiz.Service
	Banks          quiz.BankRepository
	QuestionSource quiz.QuestionSource
	Auth           *auth.Service
	CORSOrigins    []string
	Location       *time.Location
	RenderPDF      PDFRenderer
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

type API struct {
	service   *quiz.Service
	banks     quiz.BankRepository
	source    quiz.QuestionSource
	auth      *auth.Service
	origins   []string
	loc       *time.Location
	renderPDF PDFRenderer
	timeout   time.Duration
	log       *slog.Logger
	now       func() time.Time
}

func NewAPI(opts Options) *API {
	api := &API{
		service:   opts.Service,
		banks:     opts.Banks,
		source:    opts.QuestionSource,
		auth:      opts.Auth,
		origins:   opts.CORSOrigins,
		loc:       opts.Location,
		renderPDF: opts.RenderPDF,
		timeout:   opts.RequestTimeout,
		log:       opts.Logger,
		now:       time.Now,
	}
	if api.loc == nil {
		api.loc = time.Local
	}
	if api.renderPDF == nil {
		api.renderPDF = certificate.PDF
	}
	if api.timeout <= 0 {
		api.timeout = defaultRequestTimeout
	}
	if api.log == nil {
		api.log = slog.Default()
	}
	if len(api.origins) == 0 {
		api.origins = []string{"*"}
	}
	return api
}
