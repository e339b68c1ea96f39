package core

import "context"

// EndpointID identifies one live connection. It is assigned by the transport.
type EndpointID string

// TargetKind selects who receives an outbound event.
type TargetKind int

const (
	// TargetEndpoint delivers to a single connection.
	TargetEndpoint TargetKind = iota
	// TargetGroup delivers to every connection in a room delivery group.
	TargetGroup
	// TargetAll delivers to every connected endpoint.
	TargetAll
)

// Target addresses an outbound event.
type Target struct {
	Kind     TargetKind
	Endpoint EndpointID
	Group    string
}

// ToEndpoint addresses a single connection.
func ToEndpoint(id EndpointID) Target {
	return Target{Kind: TargetEndpoint, Endpoint: id}
}

// ToGroup addresses a room delivery group.
func ToGroup(group string) Target {
	return Target{Kind: TargetGroup, Group: group}
}

// ToAll addresses every connected endpoint.
func ToAll() Target {
	return Target{Kind: TargetAll}
}

// Event is a named notification the core emits to clients.
// Data is one of the proto payload types.
type Event struct {
	Type string
	Data any
}

// Transport delivers events and keeps room delivery groups.
//
// Send must not block and must not call back into the Hub: the hub emits
// while holding its lock.
type Transport interface {
	Send(ctx context.Context, target Target, event Event) error
	JoinGroup(id EndpointID, group string)
	LeaveGroup(id EndpointID, group string)
}
