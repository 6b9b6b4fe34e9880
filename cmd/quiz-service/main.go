package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blockchain-quiz/internal/auth"
	"blockchain-quiz/internal/config"
	"blockchain-quiz/internal/events"
	"blockchain-quiz/internal/httpapi"
	"blockchain-quiz/internal/jobs"
	"blockchain-quiz/internal/kv"
	"blockchain-quiz/internal/opentdb"
	"blockchain-quiz/internal/quiz"
	"blockchain-quiz/internal/quiz/kvstore"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	hashPassword := flag.String("hash-password", "", "print the bcrypt hash for ADMIN_PASS_HASH and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintln(os.Stderr, "hash password:", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, *addr, logger); err != nil {
		logger.Error("quiz-service failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, addr string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
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

	publisher, err := events.New(cfg.AMQPURL, cfg.AMQPExchange, logger)
	if err != nil {
		return fmt.Errorf("connect events: %w", err)
	}
	defer publisher.Close()

	service := quiz.NewService(
		kvstore.NewQuestionRepository(store, logger),
		kvstore.NewResultStore(store, time.Local, logger),
		publisher,
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

	authService, err := auth.New(auth.Config{
		User:         cfg.AdminUser,
		PasswordHash: cfg.AdminPassHash,
		Secret:       cfg.JWTSecret,
	})
	if err != nil {
		return err
	}
	if !authService.Enabled() {
		logger.Warn("ADMIN_PASS_HASH is not set; admin routes are disabled")
	}

	scheduler, err := jobs.New(jobs.Config{
		SessionMaxAge:  cfg.SessionMaxAge,
		BackupSchedule: cfg.BackupSchedule,
		BackupDir:      cfg.BackupDir,
	}, service, service, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop(context.Background())

	server := &http.Server{
		Addr: addr,
		Handler: httpapi.NewRouter(httpapi.Options{
			Service:        service,
			Banks:          kvstore.NewBankStore(store, logger),
			QuestionSource: opentdb.NewClient(cfg.OpenTDBURL, cfg.OpenTDBCategory, nil),
			Auth:           authService,
			CORSOrigins:    cfg.CORSOrigins,
			Location:       time.Local,
			Logger:         logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("quiz-service listening",
			slog.String("addr", addr),
			slog.String("store", cfg.StoreDriver),
		)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
