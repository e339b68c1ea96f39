package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/wirelobby-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS room_activity (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	endpoint   TEXT NOT NULL,
	username   TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_room_activity_room ON room_activity(room_id, id DESC);
`

// SQLiteStore implements store.Journal for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the journal database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, migrate)
}

// NewWithSetup opens the database and runs a setup function instead of the
// default schema. Useful for tests.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps
	// ":memory:" databases alive across queries.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Record appends one activity entry.
func (s *SQLiteStore) Record(ctx context.Context, activity store.Activity) error {
	createdAt := activity.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO room_activity (room_id, kind, endpoint, username, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query,
		activity.RoomID,
		string(activity.Kind),
		activity.Endpoint,
		activity.Username,
		createdAt.UTC(),
	); err != nil {
		return fmt.Errorf("insert room activity: %w", err)
	}
	return nil
}

// ListByRoom returns the newest entries for a room, newest first.
func (s *SQLiteStore) ListByRoom(ctx context.Context, roomID string, limit int) ([]store.Activity, error) {
	if limit <= 0 {
		limit = -1
	}

	query := `
		SELECT id, room_id, kind, endpoint, username, created_at
		FROM room_activity
		WHERE room_id = ?
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("query room activity: %w", err)
	}
	defer rows.Close()

	activities := make([]store.Activity, 0)
	for rows.Next() {
		var (
			a    store.Activity
			kind string
		)
		if err := rows.Scan(&a.ID, &a.RoomID, &kind, &a.Endpoint, &a.Username, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room activity: %w", err)
		}
		a.Kind = store.ActivityKind(kind)
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room activity: %w", err)
	}

	return activities, nil
}

var _ store.Journal = (*SQLiteStore)(nil)
