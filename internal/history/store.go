package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wrenware/bluectl/internal/bluetooth"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

// Entry is one recorded connection event.
type Entry struct {
	ID        int64
	Address   bluetooth.Address
	Event     string
	Detail    string
	CreatedAt time.Time
}

// Store reads and writes connection events.
type Store struct {
	db *sql.DB
}

// NewStore creates a history store over an open database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record appends one event for a device. Detail carries the failure
// reason for failed events and is empty otherwise.
func (s *Store) Record(ctx context.Context, addr bluetooth.Address, event, detail string) error {
	if event == "" {
		return fmt.Errorf("history: event is required")
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO connection_events (address, event, detail) VALUES (?, ?, ?)",
		addr.String(), event, detail,
	)
	if err != nil {
		return fmt.Errorf("inserting connection event: %w", err)
	}
	return nil
}

// Recent returns the newest events for one device, newest first.
// A non-positive limit uses the default; the ceiling is 200.
func (s *Store) Recent(ctx context.Context, addr bluetooth.Address, limit int) ([]Entry, error) {
	limit = clampLimit(limit)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, address, event, detail, created_at
		 FROM connection_events
		 WHERE address = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		addr.String(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying connection events: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows, limit)
}

// RecentAll returns the newest events across all devices, newest first.
func (s *Store) RecentAll(ctx context.Context, limit int) ([]Entry, error) {
	limit = clampLimit(limit)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, address, event, detail, created_at
		 FROM connection_events
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying connection events: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows, limit)
}

// Prune deletes events older than the retention window and reports how
// many rows went away.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, ErrInvalidRetention
	}
	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM connection_events WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting connection events: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return rows, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func scanEntries(rows *sql.Rows, capacity int) ([]Entry, error) {
	entries := make([]Entry, 0, capacity)
	for rows.Next() {
		var (
			entry     Entry
			addrStr   string
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &addrStr, &entry.Event, &entry.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning connection event: %w", err)
		}
		addr, err := bluetooth.ParseAddress(addrStr)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", entry.ID, err)
		}
		entry.Address = addr
		entry.CreatedAt, err = parseTimestamp(createdAt)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", entry.ID, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating connection events: %w", err)
	}
	return entries, nil
}

// parseTimestamp parses a created_at value stored by SQLite.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("created_at is empty")
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return ts, nil
	}
	fallback, fallbackErr := time.Parse("2006-01-02 15:04:05", value)
	if fallbackErr == nil {
		return fallback.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("parsing created_at: %w", err)
}
