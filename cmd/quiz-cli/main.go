package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"blockchain-quiz/internal/cli"
	"blockchain-quiz/internal/config"
	"blockchain-quiz/internal/kv"
	"blockchain-quiz/internal/opentdb"
	"blockchain-quiz/internal/quiz"
	"blockchain-quiz/internal/quiz/kvstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	certDir := flag.String("cert-dir", ".", "directory for saved certificates")
	flag.Parse()

	// The REPL owns stdout, so logs go to stderr and only warnings show by default.
	level := cfg.LogLevel
	if level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := kv.Open(ctx, kv.Config{
		Driver:      kv.Driver(cfg.StoreDriver),
		DSN:         cfg.StoreDSN,
		QuotaBytes:  cfg.StoreQuotaBytes,
		RedisPrefix: cfg.RedisPrefix,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	service := quiz.NewService(
		kvstore.NewQuestionRepository(store, logger),
		kvstore.NewResultStore(store, time.Local, logger),
		nil,
		quiz.ServiceConfig{
			QuestionCount:   cfg.QuestionCount,
			LeaderboardSize: cfg.LeaderboardSize,
			Session: quiz.SessionConfig{
				Duration:    cfg.QuizDuration,
				RevealDelay: cfg.RevealDelay,
			},
		},
		logger,
	)

	return cli.Run(ctx, os.Stdin, os.Stdout, cli.Config{
		Service:        service,
		Location:       time.Local,
		CertificateDir: *certDir,
		QuestionSource: opentdb.NewClient(cfg.OpenTDBURL, cfg.OpenTDBCategory, nil),
	})
}
