package store

import (
	"context"
	"time"
)

// ActivityKind names a room lifecycle step.
type ActivityKind string

const (
	ActivityRoomCreated  ActivityKind = "room_created"
	ActivityMemberJoined ActivityKind = "member_joined"
	ActivityMemberLeft   ActivityKind = "member_left"
	ActivityRoomDeleted  ActivityKind = "room_deleted"
)

// Activity is one journal entry.
type Activity struct {
	ID        int64
	RoomID    string
	Kind      ActivityKind
	Endpoint  string
	Username  string // empty for disconnect cleanup and deletions
	CreatedAt time.Time
}

// Journal is an append-only log of room activity kept for operators.
// The lobby never reads it back to rebuild state.
type Journal interface {
	// Record appends one entry. CreatedAt is filled in when zero.
	Record(ctx context.Context, activity Activity) error

	// ListByRoom returns the newest entries for a room, newest first.
	// A non-positive limit returns everything.
	ListByRoom(ctx context.Context, roomID string, limit int) ([]Activity, error)

	// Close releases the underlying resources.
	Close() error
}
