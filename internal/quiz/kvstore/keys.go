// Package kvstore persists quiz data as whole JSON documents in a kv.Store,
// one key per collection.
package kvstore

import (
	"context"
	"encoding/json"
	"log/slog"

	"blockchain-quiz/internal/kv"
	"blockchain-quiz/internal/quiz"
)

const (
	KeyAdminQuestions = "adminQuestions"
	KeyQuestionBanks  = "questionBanks"
	KeyResults        = "blockchainQuizResults"
	KeyResultsCSV     = "blockchainQuizCSV"
)

// loadJSON reads a collection. A missing or corrupt value is an empty
// collection; only a failed store read is returned as an error.
func loadJSON[T any](ctx context.Context, store kv.Store, log *slog.Logger, key string) ([]T, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		log.Warn("storage read failed", slog.String("key", key), slog.Any("err", err))
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Warn("stored value is not valid JSON", slog.String("key", key), slog.Any("err", err))
		return nil, nil
	}
	return items, nil
}

// readJSON is loadJSON for read-only callers: a failed read yields nil.
func readJSON[T any](ctx context.Context, store kv.Store, log *slog.Logger, key string) []T {
	items, _ := loadJSON[T](ctx, store, log, key)
	return items
}

// loadForUpdate is loadJSON for read-modify-write callers. A failed read
// aborts the update with an ErrStorageWrite-tagged error.
func loadForUpdate[T any](ctx context.Context, store kv.Store, log *slog.Logger, key string) ([]T, error) {
	items, err := loadJSON[T](ctx, store, log, key)
	if err != nil {
		return nil, quiz.WrapStorageWrite("load "+key, err)
	}
	return items, nil
}

func saveJSON[T any](ctx context.Context, store kv.Store, log *slog.Logger, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return quiz.WrapStorageWrite("encode "+key, err)
	}
	if err := store.Set(ctx, key, string(data)); err != nil {
		log.Error("storage write failed", slog.String("key", key), slog.Any("err", err))
		return quiz.WrapStorageWrite("save "+key, err)
	}
	return nil
}

func orDefaultLogger(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.Default()
	}
	return log
}
