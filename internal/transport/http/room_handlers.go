package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirelobby-server/internal/core"
	"github.com/vovakirdan/wirelobby-server/internal/proto"
	"github.com/vovakirdan/wirelobby-server/internal/store"
)

const defaultActivityLimit = 50

// LobbyView is the read-only part of core.Hub served over REST.
type LobbyView interface {
	Rooms() []proto.RoomInfo
	Room(roomID string) (proto.RoomInfo, bool)
	Members(roomID string) ([]core.EndpointID, bool)
	Stats() (users, rooms int)
}

// RoomHandlers provides read-only HTTP handlers for the lobby.
type RoomHandlers struct {
	lobby   LobbyView
	journal store.Journal
	log     *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance. journal may be nil.
func NewRoomHandlers(lobby LobbyView, journal store.Journal, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		lobby:   lobby,
		journal: journal,
		log:     logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatsResponse reports lobby totals.
type StatsResponse struct {
	UserCount int `json:"user_count"`
	RoomCount int `json:"room_count"`
}

// MembersResponse lists the endpoints of a room in join order.
type MembersResponse struct {
	Room    string   `json:"room"`
	Members []string `json:"members"`
}

// ActivityResponse is one journal entry in API responses.
type ActivityResponse struct {
	ID        int64  `json:"id"`
	Room      string `json:"room"`
	Kind      string `json:"kind"`
	Endpoint  string `json:"endpoint"`
	Username  string `json:"username,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ListRooms returns the room directory.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms := h.lobby.Rooms()
	h.log.Debug().Int("room_count", len(rooms)).Msg("rooms listed")
	c.JSON(http.StatusOK, rooms)
}

// GetRoom returns one room snapshot.
// GET /api/rooms/:id
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	info, ok := h.lobby.Room(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: core.MsgRoomNotFound})
		return
	}
	c.JSON(http.StatusOK, info)
}

// RoomMembers returns the endpoint ids currently in a room.
// GET /api/rooms/:id/members
func (h *RoomHandlers) RoomMembers(c *gin.Context) {
	roomID := c.Param("id")
	members, ok := h.lobby.Members(roomID)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: core.MsgRoomNotFound})
		return
	}

	ids := make([]string, 0, len(members))
	for _, id := range members {
		ids = append(ids, string(id))
	}
	c.JSON(http.StatusOK, MembersResponse{Room: roomID, Members: ids})
}

// Stats returns the connected user count and the number of rooms.
// GET /api/stats
func (h *RoomHandlers) Stats(c *gin.Context) {
	users, rooms := h.lobby.Stats()
	c.JSON(http.StatusOK, StatsResponse{UserCount: users, RoomCount: rooms})
}

// RoomActivity returns journal entries for a room id, newest first. The
// room may already be gone from the directory.
// GET /api/rooms/:id/activity?limit=N
func (h *RoomHandlers) RoomActivity(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "activity journal disabled"})
		return
	}

	limit := defaultActivityLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	roomID := c.Param("id")
	activities, err := h.journal.ListByRoom(c.Request.Context(), roomID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("room", roomID).Msg("failed to list room activity")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ActivityResponse, 0, len(activities))
	for _, a := range activities {
		response = append(response, ActivityResponse{
			ID:        a.ID,
			Room:      a.RoomID,
			Kind:      string(a.Kind),
			Endpoint:  a.Endpoint,
			Username:  a.Username,
			CreatedAt: a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	c.JSON(http.StatusOK, response)
}
