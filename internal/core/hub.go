package core

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirelobby-server/internal/metrics"
	"github.com/vovakirdan/wirelobby-server/internal/proto"
	"github.com/vovakirdan/wirelobby-server/internal/store"
	"github.com/vovakirdan/wirelobby-server/internal/utils"
)

// DefaultRoomName is used when create_room carries no room name.
const DefaultRoomName = "Default Room"

// Options configures a Hub. Zero values fall back to defaults.
type Options struct {
	Logger          *zerolog.Logger
	Metrics         *metrics.Metrics
	Journal         store.Journal
	DefaultRoomName string
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// NewRoomID draws a candidate room id. Defaults to NewRoomID.
	NewRoomID func() string
}

// Hub owns the presence set and the room directory.
//
// mu is the single mutual-exclusion domain of the lobby: every
// read-modify-write of presence or rooms, and the events announcing the
// result, happen while holding it. Observers therefore only ever see
// settled states, in the order they were produced.
type Hub struct {
	transport       Transport
	log             *zerolog.Logger
	metrics         *metrics.Metrics
	journal         store.Journal
	defaultRoomName string
	now             func() time.Time
	newRoomID       func() string
	handlers        map[string]HandlerFunc

	mu       sync.Mutex
	presence map[EndpointID]struct{}
	rooms    map[string]*Room
	seq      uint64
}

// NewHub creates an empty lobby that emits through transport.
func NewHub(transport Transport, opts Options) *Hub {
	h := &Hub{
		transport:       transport,
		log:             opts.Logger,
		metrics:         opts.Metrics,
		journal:         opts.Journal,
		defaultRoomName: opts.DefaultRoomName,
		now:             opts.Now,
		newRoomID:       opts.NewRoomID,
		presence:        make(map[EndpointID]struct{}),
		rooms:           make(map[string]*Room),
	}
	if h.log == nil {
		nop := zerolog.Nop()
		h.log = &nop
	}
	if h.defaultRoomName == "" {
		h.defaultRoomName = DefaultRoomName
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.newRoomID == nil {
		h.newRoomID = NewRoomID
	}
	h.handlers = h.buildHandlers()
	return h
}

// NewRoomID returns an 8 character token cut from a random UUID.
func NewRoomID() string {
	return utils.NewShortID()
}

// Connect adds an endpoint to the presence set and announces the new count.
func (h *Hub) Connect(ctx context.Context, id EndpointID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.presence[id] = struct{}{}
	h.metrics.SetConnected(len(h.presence))
	h.log.Info().Str("endpoint", string(id)).Int("user_count", len(h.presence)).Msg("endpoint connected")

	h.emit(ctx, ToAll(), proto.OutboundTypeUserCount, proto.UserCount{Count: len(h.presence)})
}

// Disconnect removes an endpoint from the presence set and from every room
// it belongs to, deleting rooms that become empty.
func (h *Hub) Disconnect(ctx context.Context, id EndpointID) {
	var activities []store.Activity

	h.mu.Lock()
	delete(h.presence, id)

	changed := false
	for _, room := range h.sortedRoomsLocked() {
		if !room.RemoveMember(id) {
			continue
		}
		changed = true
		h.transport.LeaveGroup(id, room.ID)
		activities = append(activities, h.activity(room.ID, store.ActivityMemberLeft, id, ""))
		h.log.Info().Str("endpoint", string(id)).Str("room", room.ID).Msg("endpoint removed from room")

		if room.Empty() {
			delete(h.rooms, room.ID)
			activities = append(activities, h.activity(room.ID, store.ActivityRoomDeleted, id, ""))
			h.log.Info().Str("room", room.ID).Msg("room emptied and deleted")
		}
	}

	h.metrics.SetConnected(len(h.presence))
	h.metrics.SetRooms(len(h.rooms))
	h.log.Info().Str("endpoint", string(id)).Int("user_count", len(h.presence)).Msg("endpoint disconnected")

	if changed {
		h.emit(ctx, ToAll(), proto.OutboundTypeRoomListUpdate, h.roomListLocked())
	}
	h.emit(ctx, ToAll(), proto.OutboundTypeUserCount, proto.UserCount{Count: len(h.presence)})
	h.mu.Unlock()

	h.record(ctx, activities...)
}

// GetUserCount replies to the requester with the current count.
func (h *Hub) GetUserCount(ctx context.Context, id EndpointID, _ struct{}) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.emit(ctx, ToEndpoint(id), proto.OutboundTypeUserCount, proto.UserCount{Count: len(h.presence)})
	return nil
}

// CreateRoom opens a new room with the requester as its only member.
func (h *Hub) CreateRoom(ctx context.Context, id EndpointID, req proto.CreateRoomData) error {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return validationError(MsgUsernameRequired)
	}
	name := strings.TrimSpace(req.RoomName)
	if name == "" {
		name = h.defaultRoomName
	}

	h.mu.Lock()
	roomID := h.newRoomID()
	for h.rooms[roomID] != nil {
		roomID = h.newRoomID()
	}

	h.seq++
	room := newRoom(roomID, name, username, h.now(), h.seq, id)
	h.rooms[roomID] = room
	h.transport.JoinGroup(id, roomID)
	h.metrics.SetRooms(len(h.rooms))

	h.log.Info().Str("endpoint", string(id)).Str("username", username).Str("room", roomID).Msg("room created")

	h.emit(ctx, ToEndpoint(id), proto.OutboundTypeRoomCreated, proto.RoomCreated{
		Room:     roomID,
		Username: username,
		RoomInfo: room.Info(),
	})
	h.emit(ctx, ToAll(), proto.OutboundTypeRoomListUpdate, h.roomListLocked())
	activity := h.activity(roomID, store.ActivityRoomCreated, id, username)
	h.mu.Unlock()

	h.record(ctx, activity)
	return nil
}

// JoinRoom adds the requester to an existing room. Joining twice is a no-op
// on the member list but still announces the join.
func (h *Hub) JoinRoom(ctx context.Context, id EndpointID, req proto.RoomRequestData) error {
	roomID := strings.TrimSpace(req.Room)
	username := strings.TrimSpace(req.Username)
	if roomID == "" {
		return validationError(MsgRoomIDRequired)
	}
	if username == "" {
		return validationError(MsgUsernameRequired)
	}

	h.mu.Lock()
	room, ok := h.rooms[roomID]
	if !ok {
		h.mu.Unlock()
		return notFoundError(MsgRoomNotFound)
	}

	added := room.AddMember(id)
	h.transport.JoinGroup(id, roomID)

	now := h.now()
	h.log.Info().Str("endpoint", string(id)).Str("username", username).Str("room", roomID).Bool("new_member", added).Msg("joined room")

	h.emit(ctx, ToGroup(roomID), proto.OutboundTypeSystemJoinRoom, proto.SystemMessage{
		Message: fmt.Sprintf("%s [%s] joined room [%s]", now.Format(CreatedAtLayout), username, roomID),
	})
	h.emit(ctx, ToEndpoint(id), proto.OutboundTypeRoomInfo, room.Info())
	h.emit(ctx, ToAll(), proto.OutboundTypeRoomListUpdate, h.roomListLocked())
	h.mu.Unlock()

	if added {
		h.record(ctx, h.activity(roomID, store.ActivityMemberJoined, id, username))
	}
	return nil
}

// LeaveRoom removes the requester from a room, deleting the room when it
// empties. The delivery group is always left, member or not.
func (h *Hub) LeaveRoom(ctx context.Context, id EndpointID, req proto.RoomRequestData) error {
	roomID := strings.TrimSpace(req.Room)
	username := strings.TrimSpace(req.Username)
	if roomID == "" || username == "" {
		return validationError(MsgRoomIDOrUsernameNeeded)
	}

	var activities []store.Activity

	h.mu.Lock()
	room, ok := h.rooms[roomID]
	if !ok {
		h.mu.Unlock()
		return notFoundError(MsgRoomNotFound)
	}

	if room.RemoveMember(id) {
		activities = append(activities, h.activity(roomID, store.ActivityMemberLeft, id, username))
		if room.Empty() {
			delete(h.rooms, roomID)
			h.metrics.SetRooms(len(h.rooms))
			activities = append(activities, h.activity(roomID, store.ActivityRoomDeleted, id, username))
			h.log.Info().Str("room", roomID).Msg("room emptied and deleted")
		}
	}
	h.transport.LeaveGroup(id, roomID)

	now := h.now()
	h.log.Info().Str("endpoint", string(id)).Str("username", username).Str("room", roomID).Msg("left room")

	h.emit(ctx, ToGroup(roomID), proto.OutboundTypeSystemLeave, proto.SystemMessage{
		Message: fmt.Sprintf("%s [%s] left room [%s]", now.Format(CreatedAtLayout), username, roomID),
	})
	h.emit(ctx, ToAll(), proto.OutboundTypeRoomListUpdate, h.roomListLocked())
	h.mu.Unlock()

	h.record(ctx, activities...)
	return nil
}

// ListRooms refreshes every observer with the current directory rather
// than answering the requester privately.
func (h *Hub) ListRooms(ctx context.Context, _ EndpointID, _ struct{}) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.emit(ctx, ToAll(), proto.OutboundTypeRoomListUpdate, h.roomListLocked())
	return nil
}

// Rooms returns a snapshot of the directory in creation order.
func (h *Hub) Rooms() []proto.RoomInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.roomListLocked().Rooms
}

// Room returns the snapshot of one room.
func (h *Hub) Room(roomID string) (proto.RoomInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[roomID]
	if !ok {
		return proto.RoomInfo{}, false
	}
	return room.Info(), true
}

// Members returns the endpoints of a room in join order.
func (h *Hub) Members(roomID string) ([]EndpointID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[roomID]
	if !ok {
		return nil, false
	}
	return room.Members(), true
}

// Stats returns the presence count and the number of rooms.
func (h *Hub) Stats() (users, rooms int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.presence), len(h.rooms)
}

func (h *Hub) sortedRoomsLocked() []*Room {
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	slices.SortFunc(rooms, func(a, b *Room) int { return cmp.Compare(a.seq, b.seq) })
	return rooms
}

func (h *Hub) roomListLocked() proto.RoomList {
	rooms := h.sortedRoomsLocked()
	infos := make([]proto.RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, room.Info())
	}
	return proto.RoomList{Rooms: infos}
}

func (h *Hub) emit(ctx context.Context, target Target, typ string, data any) {
	if err := h.transport.Send(ctx, target, Event{Type: typ, Data: data}); err != nil {
		h.log.Debug().Err(err).Str("event", typ).Msg("send event")
	}
}

func (h *Hub) activity(roomID string, kind store.ActivityKind, id EndpointID, username string) store.Activity {
	return store.Activity{
		RoomID:    roomID,
		Kind:      kind,
		Endpoint:  string(id),
		Username:  username,
		CreatedAt: h.now(),
	}
}

func (h *Hub) record(ctx context.Context, activities ...store.Activity) {
	if h.journal == nil {
		return
	}
	for _, a := range activities {
		if err := h.journal.Record(ctx, a); err != nil {
			h.log.Warn().Err(err).Str("room", a.RoomID).Str("kind", string(a.Kind)).Msg("failed to record room activity")
		}
	}
}
