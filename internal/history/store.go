// Package history keeps the conversation transcript. The default backend is
// in-memory; sqlite3 or mysql can be selected for persistence across
// restarts. Either way the store is an explicit dependency handed to the
// orchestrator, not ambient state.
package history

import (
	"context"

	"pbiassist/internal/models"
)

// Store records and replays the conversation transcript. Append is
// append-only within a process lifetime; Clear is the only way to drop
// entries besides the retention cap.
type Store interface {
	Append(ctx context.Context, msg models.ChatMessage) error
	Messages(ctx context.Context) ([]models.HistoryEntry, error)
	Clear(ctx context.Context) error
}
