package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirelobby-server/internal/proto"
)

// outbound keeps the payload raw so each type can be decoded on its own.
type outbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("lobby_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8000/ws", "WebSocket address")
	user := flag.String("user", "tester", "username used for create_room")
	roomName := flag.String("room-name", "", "room name (server default when empty)")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeCreateRoom, proto.CreateRoomData{Username: *user, RoomName: *roomName}); err != nil {
		return err
	}

	var room string
	for {
		var msg outbound
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("Received: type=%s data=%s\n", msg.Type, string(msg.Data))

		switch msg.Type {
		case proto.OutboundTypeError:
			var e proto.Error
			_ = json.Unmarshal(msg.Data, &e)
			return fmt.Errorf("server error: %s", e.Message)
		case proto.OutboundTypeRoomCreated:
			var created proto.RoomCreated
			if err := json.Unmarshal(msg.Data, &created); err != nil {
				return fmt.Errorf("unmarshal room_created: %w", err)
			}
			room = created.Room
			fmt.Printf("Created room %s (%s) owned by %s\n", created.Room, created.RoomInfo.Name, created.RoomInfo.Owner)
			if err := send(proto.InboundTypeLeaveRoom, proto.RoomRequestData{Room: room, Username: *user}); err != nil {
				return err
			}
		case proto.OutboundTypeRoomListUpdate:
			var list proto.RoomList
			if err := json.Unmarshal(msg.Data, &list); err != nil {
				return fmt.Errorf("unmarshal room_list_update: %w", err)
			}
			if room == "" {
				continue
			}
			if !containsRoom(list, room) {
				fmt.Printf("Room %s removed after leave\n", room)
				return nil
			}
		}
	}
}

func containsRoom(list proto.RoomList, id string) bool {
	for _, r := range list.Rooms {
		if r.Room == id {
			return true
		}
	}
	return false
}
