package kv

import (
	"context"
	"fmt"
	"testing"
)

func TestPostgresStoreIntegration(t *testing.T) {
	requireIntegration(t, "postgres")

	ctx := context.Background()
	host, port := startContainer(ctx, t, postgresRequest(), "5432")
	dsn := fmt.Sprintf("postgres://quiz:quiz@%s:%s/quiz?sslmode=disable", host, port)

	store, err := NewPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgres failed: %v", err)
	}

	exerciseStore(t, store)

	var rows int64
	if err := store.db.WithContext(ctx).Model(&kvEntry{}).Where("key = ?", "adminQuestions").Count(&rows).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 1 {
		t.Fatalf("upsert left %d rows for one key", rows)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(ctx, Config{Driver: DriverPostgres, DSN: dsn})
	if err != nil {
		t.Fatalf("reopen through Open failed: %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, "adminQuestions")
	if err != nil || !ok || value != `[{"id":1}]` {
		t.Fatalf("Get after reopen = %q, found %v, err %v", value, ok, err)
	}
}
