package core

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/vovakirdan/wirelobby-server/internal/proto"
)

type sentEvent struct {
	Target Target
	Event  Event
}

// recordingTransport resolves targets the way the gateway does and keeps
// a per-endpoint inbox plus the raw send log.
type recordingTransport struct {
	mu        sync.Mutex
	endpoints map[EndpointID]struct{}
	groups    map[string]map[EndpointID]struct{}
	inbox     map[EndpointID][]Event
	sent      []sentEvent
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{
		endpoints: make(map[EndpointID]struct{}),
		groups:    make(map[string]map[EndpointID]struct{}),
		inbox:     make(map[EndpointID][]Event),
	}
}

func (r *recordingTransport) Send(_ context.Context, target Target, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent = append(r.sent, sentEvent{Target: target, Event: event})
	switch target.Kind {
	case TargetEndpoint:
		if _, ok := r.endpoints[target.Endpoint]; ok {
			r.inbox[target.Endpoint] = append(r.inbox[target.Endpoint], event)
		}
	case TargetGroup:
		for id := range r.groups[target.Group] {
			r.inbox[id] = append(r.inbox[id], event)
		}
	case TargetAll:
		for id := range r.endpoints {
			r.inbox[id] = append(r.inbox[id], event)
		}
	}
	return nil
}

func (r *recordingTransport) JoinGroup(id EndpointID, group string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.groups[group] == nil {
		r.groups[group] = make(map[EndpointID]struct{})
	}
	r.groups[group][id] = struct{}{}
}

func (r *recordingTransport) LeaveGroup(id EndpointID, group string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups[group], id)
	if len(r.groups[group]) == 0 {
		delete(r.groups, group)
	}
}

func (r *recordingTransport) register(id EndpointID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[id] = struct{}{}
}

func (r *recordingTransport) unregister(id EndpointID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.endpoints, id)
	for group, members := range r.groups {
		delete(members, id)
		if len(members) == 0 {
			delete(r.groups, group)
		}
	}
}

// events returns what id received, optionally filtered by type.
func (r *recordingTransport) events(id EndpointID, types ...string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.inbox[id] {
		if len(types) == 0 || slices.Contains(types, ev.Type) {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recordingTransport) sentOfType(typ string) []sentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentEvent
	for _, s := range r.sent {
		if s.Event.Type == typ {
			out = append(out, s)
		}
	}
	return out
}

func (r *recordingTransport) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
	r.inbox = make(map[EndpointID][]Event)
}

func (r *recordingTransport) inGroup(id EndpointID, group string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.groups[group][id]
	return ok
}

func newTestHub(t *testing.T, opts Options) (*Hub, *recordingTransport) {
	t.Helper()
	tr := newRecordingTransport()
	return NewHub(tr, opts), tr
}

func connect(ctx context.Context, h *Hub, tr *recordingTransport, ids ...EndpointID) {
	for _, id := range ids {
		tr.register(id)
		h.Connect(ctx, id)
	}
}

func disconnect(ctx context.Context, h *Hub, tr *recordingTransport, id EndpointID) {
	tr.unregister(id)
	h.Disconnect(ctx, id)
}

func mustCreateRoom(t *testing.T, ctx context.Context, h *Hub, tr *recordingTransport, id EndpointID, username, name string) string {
	t.Helper()
	if err := h.CreateRoom(ctx, id, proto.CreateRoomData{Username: username, RoomName: name}); err != nil {
		t.Fatalf("create room: %v", err)
	}
	created := tr.events(id, proto.OutboundTypeRoomCreated)
	if len(created) == 0 {
		t.Fatalf("expected room_created for %s", id)
	}
	return created[len(created)-1].Data.(proto.RoomCreated).Room
}

func lastRoomList(t *testing.T, tr *recordingTransport) proto.RoomList {
	t.Helper()
	updates := tr.sentOfType(proto.OutboundTypeRoomListUpdate)
	if len(updates) == 0 {
		t.Fatalf("expected a room_list_update")
	}
	return updates[len(updates)-1].Event.Data.(proto.RoomList)
}

func eventTypes(events []Event) []string {
	types := make([]string, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}
