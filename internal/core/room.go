package core

import (
	"slices"
	"time"

	"github.com/vovakirdan/wirelobby-server/internal/proto"
)

// CreatedAtLayout is the wire format of Room.CreatedAt.
const CreatedAtLayout = "2006-01-02 15:04:05"

// RoomStatus is the lifecycle stage of a room.
// Only RoomStatusNotStarted is assigned today; later stages (in progress,
// finished) belong to the game layer and are not driven by the lobby.
type RoomStatus string

const (
	RoomStatusNotStarted RoomStatus = "not_started"
)

// Room groups endpoints that joined the same lobby instance.
type Room struct {
	ID        string
	Name      string
	Status    RoomStatus
	CreatedAt time.Time
	Owner     string

	seq     uint64
	members []EndpointID
}

func newRoom(id, name, owner string, createdAt time.Time, seq uint64, first EndpointID) *Room {
	return &Room{
		ID:        id,
		Name:      name,
		Status:    RoomStatusNotStarted,
		CreatedAt: createdAt,
		Owner:     owner,
		seq:       seq,
		members:   []EndpointID{first},
	}
}

// AddMember appends an endpoint. Returns true if newly added.
func (r *Room) AddMember(id EndpointID) bool {
	if r.HasMember(id) {
		return false
	}
	r.members = append(r.members, id)
	return true
}

// RemoveMember deletes an endpoint. Returns true if removed.
func (r *Room) RemoveMember(id EndpointID) bool {
	i := slices.Index(r.members, id)
	if i < 0 {
		return false
	}
	r.members = slices.Delete(r.members, i, i+1)
	return true
}

// HasMember reports whether id is in the room.
func (r *Room) HasMember(id EndpointID) bool {
	return slices.Contains(r.members, id)
}

// Members returns a copy of the member sequence in join order.
func (r *Room) Members() []EndpointID {
	return slices.Clone(r.members)
}

// Empty returns true if no endpoints are in the room.
func (r *Room) Empty() bool {
	return len(r.members) == 0
}

// Info returns the public snapshot of the room.
func (r *Room) Info() proto.RoomInfo {
	return proto.RoomInfo{
		Room:      r.ID,
		Name:      r.Name,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt.Format(CreatedAtLayout),
		Owner:     r.Owner,
		UserCount: len(r.members),
	}
}
