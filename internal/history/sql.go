package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"pbiassist/internal/config"
	"pbiassist/internal/models"
)

// SQLStore persists the transcript in a messages table.
type SQLStore struct {
	db          *sql.DB
	maxMessages int
}

// Open connects a persistent history store per config. The "memory" driver
// is handled by the caller; this only deals with sqlite3 and mysql.
func Open(cfg config.HistoryConfig) (*SQLStore, error) {
	driver := strings.ToLower(cfg.Driver)
	if cfg.DSN == "" {
		return nil, fmt.Errorf("HISTORY_DSN must be provided for driver %s", driver)
	}

	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case "sqlite", "sqlite3":
		db, err = sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
	case "mysql":
		db, err = sql.Open("mysql", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported history driver: %s", driver)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrate(db, driver); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStore{db: db, maxMessages: cfg.MaxMessages}, nil
}

func migrate(db *sql.DB, driver string) error {
	var stmt string
	switch driver {
	case "sqlite", "sqlite3":
		stmt = `CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`
	case "mysql":
		stmt = `CREATE TABLE IF NOT EXISTS messages (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			role VARCHAR(16) NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`
	}
	if _, err := db.Exec(stmt); err != nil {
		return fmt.Errorf("migrate messages table: %w", err)
	}
	return nil
}

func (s *SQLStore) Append(ctx context.Context, msg models.ChatMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (role, content, created_at) VALUES (?, ?, ?)`,
		string(msg.Role), msg.Content, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	if s.maxMessages > 0 {
		// Trim anything past the retention cap, oldest first.
		_, err = s.db.ExecContext(ctx,
			`DELETE FROM messages WHERE id NOT IN (
				SELECT id FROM (SELECT id FROM messages ORDER BY id DESC LIMIT ?) recent
			)`, s.maxMessages)
		if err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) Messages(ctx context.Context) ([]models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, created_at FROM messages ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []models.HistoryEntry
	for rows.Next() {
		var entry models.HistoryEntry
		var role string
		if err := rows.Scan(&entry.ID, &role, &entry.Content, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		entry.Role = models.Role(role)
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *SQLStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
