package history

import (
	"context"
	"fmt"
	"testing"

	"pbiassist/internal/config"
	"pbiassist/internal/models"
)

func newSQLiteStore(t *testing.T, maxMessages int) *SQLStore {
	t.Helper()
	store, err := Open(config.HistoryConfig{
		Driver:      "sqlite3",
		DSN:         ":memory:",
		MaxMessages: maxMessages,
	})
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLStoreRoundTrip(t *testing.T) {
	store := newSQLiteStore(t, 0)
	ctx := context.Background()

	if err := store.Append(ctx, models.ChatMessage{Role: models.RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, models.ChatMessage{Role: models.RoleAssistant, Content: "hello"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err := store.Messages(ctx)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Role != models.RoleUser || entries[1].Role != models.RoleAssistant {
		t.Fatalf("unexpected order: %+v", entries)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, err = store.Messages(ctx)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty history after clear, got %d", len(entries))
	}
}

func TestSQLStoreRetentionCap(t *testing.T) {
	store := newSQLiteStore(t, 2)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		msg := models.ChatMessage{Role: models.RoleUser, Content: fmt.Sprintf("msg-%d", i)}
		if err := store.Append(ctx, msg); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	entries, err := store.Messages(ctx)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("cap not enforced, got %d entries", len(entries))
	}
	if entries[0].Content != "msg-2" || entries[1].Content != "msg-3" {
		t.Fatalf("newest entries should survive, got %+v", entries)
	}
}

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open(config.HistoryConfig{Driver: "sqlite3"}); err == nil {
		t.Fatalf("expected error without DSN")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(config.HistoryConfig{Driver: "postgres", DSN: "x"}); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
