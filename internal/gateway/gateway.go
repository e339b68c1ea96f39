package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirelobby-server/internal/core"
	"github.com/vovakirdan/wirelobby-server/internal/metrics"
)

// DefaultMailboxSize is the per-endpoint outbound buffer.
const DefaultMailboxSize = 64

var (
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	ErrUnknownTarget   = errors.New("unknown target kind")
)

// Gateway delivers core events to connected endpoints and keeps room
// delivery groups. It implements core.Transport.
type Gateway struct {
	mailboxSize int
	metrics     *metrics.Metrics
	log         *zerolog.Logger

	mu      sync.RWMutex
	clients map[core.EndpointID]*Client
	groups  map[string]map[core.EndpointID]struct{}
}

// New creates an empty gateway. A non-positive mailboxSize uses the default.
func New(mailboxSize int, m *metrics.Metrics, logger *zerolog.Logger) *Gateway {
	if mailboxSize <= 0 {
		mailboxSize = DefaultMailboxSize
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Gateway{
		mailboxSize: mailboxSize,
		metrics:     m,
		log:         logger,
		clients:     make(map[core.EndpointID]*Client),
		groups:      make(map[string]map[core.EndpointID]struct{}),
	}
}

// Register creates the mailbox for an endpoint. Registering an id twice
// returns the existing client.
func (g *Gateway) Register(id core.EndpointID) *Client {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.clients[id]; ok {
		return c
	}
	c := newClient(id, g.mailboxSize)
	g.clients[id] = c
	return c
}

// Unregister drops the endpoint from every group and closes its mailbox.
func (g *Gateway) Unregister(id core.EndpointID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.clients[id]
	if !ok {
		return
	}
	delete(g.clients, id)
	for group, members := range g.groups {
		delete(members, id)
		if len(members) == 0 {
			delete(g.groups, group)
		}
	}
	close(c.Events)
}

// Send implements core.Transport. Full mailboxes drop the event.
func (g *Gateway) Send(_ context.Context, target core.Target, event core.Event) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	switch target.Kind {
	case core.TargetEndpoint:
		c, ok := g.clients[target.Endpoint]
		if !ok {
			return fmt.Errorf("send %s to %s: %w", event.Type, target.Endpoint, ErrUnknownEndpoint)
		}
		g.deliver(c, event)
	case core.TargetGroup:
		for id := range g.groups[target.Group] {
			if c, ok := g.clients[id]; ok {
				g.deliver(c, event)
			}
		}
	case core.TargetAll:
		for _, c := range g.clients {
			g.deliver(c, event)
		}
	default:
		return fmt.Errorf("send %s: %w", event.Type, ErrUnknownTarget)
	}
	return nil
}

// JoinGroup implements core.Transport. Unknown endpoints are ignored.
func (g *Gateway) JoinGroup(id core.EndpointID, group string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.clients[id]; !ok {
		return
	}
	members, ok := g.groups[group]
	if !ok {
		members = make(map[core.EndpointID]struct{})
		g.groups[group] = members
	}
	members[id] = struct{}{}
}

// LeaveGroup implements core.Transport.
func (g *Gateway) LeaveGroup(id core.EndpointID, group string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	members, ok := g.groups[group]
	if !ok {
		return
	}
	delete(members, id)
	if len(members) == 0 {
		delete(g.groups, group)
	}
}

// groupSize returns how many endpoints are in a delivery group.
func (g *Gateway) groupSize(group string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.groups[group])
}

func (g *Gateway) size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients)
}

func (g *Gateway) deliver(c *Client, event core.Event) {
	if c.deliver(event) {
		return
	}
	g.metrics.ObserveDropped()
	g.log.Debug().Str("endpoint", string(c.ID)).Str("event", event.Type).Msg("mailbox full, event dropped")
}

var _ core.Transport = (*Gateway)(nil)
