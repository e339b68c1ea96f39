package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

const (
	InboundTypeGetUserCount = "get_user_count"
	InboundTypeCreateRoom   = "create_room"
	InboundTypeJoinRoom     = "join_room"
	InboundTypeLeaveRoom    = "leave_room"
	InboundTypeListRooms    = "list_rooms"

	OutboundTypeUserCount      = "user_count"
	OutboundTypeRoomCreated    = "room_created"
	OutboundTypeRoomInfo       = "room_info"
	OutboundTypeSystemJoinRoom = "system_join_room"
	OutboundTypeSystemLeave    = "system_leave_room"
	OutboundTypeRoomListUpdate = "room_list_update"
	OutboundTypeError          = "error"
)

// CreateRoomData asks the server to open a new room owned by Username.
type CreateRoomData struct {
	Username string `json:"username"`
	RoomName string `json:"room_name,omitempty"`
}

// RoomRequestData addresses an existing room; used by join_room and leave_room.
type RoomRequestData struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

// UserCount reports how many endpoints are connected.
type UserCount struct {
	Count int `json:"count"`
}

// RoomInfo is the public snapshot of a room.
type RoomInfo struct {
	Room      string `json:"room"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	Owner     string `json:"owner"`
	UserCount int    `json:"user_count"`
}

// RoomCreated confirms room creation to its owner.
type RoomCreated struct {
	Room     string   `json:"room"`
	Username string   `json:"username"`
	RoomInfo RoomInfo `json:"room_info"`
}

// SystemMessage is a human-readable room notice.
type SystemMessage struct {
	Message string `json:"message"`
}

// RoomList carries the whole room directory.
type RoomList struct {
	Rooms []RoomInfo `json:"rooms"`
}

// Error describes a protocol-level error response.
type Error struct {
	Message string `json:"message"`
}
