// Package jobs runs the periodic housekeeping of the quiz service.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"blockchain-quiz/internal/export"
	"blockchain-quiz/internal/quiz"
)

const (
	SweepSchedule = "@every 1m"

	backupTimeout = 2 * time.Minute
)

type SessionSweeper interface {
	SweepSessions(maxAge time.Duration) int
}

type ResultSource interface {
	Results(ctx context.Context) []quiz.QuizResult
}

type Config struct {
	SessionMaxAge  time.Duration
	BackupSchedule string
	BackupDir      string
}

type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

// New registers the session sweep and, when a schedule is configured, the
// results backup. Overlapping runs of the same job are skipped.
func New(cfg Config, sessions SessionSweeper, results ResultSource, log *slog.Logger) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "jobs"))

	cronLog := cron.PrintfLogger(slog.NewLogLogger(log.Handler(), slog.LevelDebug))
	c := cron.New(cron.WithChain(
		cron.Recover(cronLog),
		cron.SkipIfStillRunning(cronLog),
	))

	if _, err := c.AddFunc(SweepSchedule, func() {
		if removed := sessions.SweepSessions(cfg.SessionMaxAge); removed > 0 {
			log.Info("stale sessions removed", slog.Int("count", removed))
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule session sweep: %w", err)
	}

	if cfg.BackupSchedule != "" {
		if _, err := c.AddFunc(cfg.BackupSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
			defer cancel()

			path, err := Backup(ctx, results, cfg.BackupDir, time.Now())
			if err != nil {
				log.Error("results backup failed", slog.Any("err", err))
				return
			}
			log.Info("results backed up", slog.String("path", path))
		}); err != nil {
			return nil, fmt.Errorf("schedule backup %q: %w", cfg.BackupSchedule, err)
		}
	}

	return &Scheduler{cron: c, log: log}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", slog.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Backup writes the full result history as JSON into dir and returns the
// file path.
func Backup(ctx context.Context, results ResultSource, dir string, at time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	data, err := export.ResultsJSON(results.Results(ctx))
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}

	path := filepath.Join(dir, export.Filename(export.KindResultsJSON, at))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("finalize backup: %w", err)
	}
	return path, nil
}
