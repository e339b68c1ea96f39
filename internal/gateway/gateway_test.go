package gateway

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirelobby-server/internal/core"
	"github.com/vovakirdan/wirelobby-server/internal/metrics"
)

func drain(c *Client) []core.Event {
	var out []core.Event
	for {
		select {
		case ev, ok := <-c.Events:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestGateway_SendTargets(t *testing.T) {
	ctx := context.Background()
	g := New(8, nil, nil)
	a := g.Register("a")
	b := g.Register("b")
	c := g.Register("c")

	g.JoinGroup("a", "room1")
	g.JoinGroup("b", "room1")

	tests := []struct {
		name   string
		target core.Target
		want   map[*Client]int
	}{
		{"single endpoint", core.ToEndpoint("b"), map[*Client]int{a: 0, b: 1, c: 0}},
		{"room group", core.ToGroup("room1"), map[*Client]int{a: 1, b: 1, c: 0}},
		{"everyone", core.ToAll(), map[*Client]int{a: 1, b: 1, c: 1}},
		{"empty group", core.ToGroup("nobody"), map[*Client]int{a: 0, b: 0, c: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, g.Send(ctx, tt.target, core.Event{Type: "ping"}))
			for client, n := range tt.want {
				assert.Len(t, drain(client), n, "endpoint %s", client.ID)
			}
		})
	}
}

func TestGateway_SendToUnknownEndpoint(t *testing.T) {
	g := New(8, nil, nil)
	err := g.Send(context.Background(), core.ToEndpoint("ghost"), core.Event{Type: "ping"})
	assert.ErrorIs(t, err, ErrUnknownEndpoint)
}

func TestGateway_GroupMembership(t *testing.T) {
	g := New(8, nil, nil)
	g.Register("a")
	g.Register("b")

	g.JoinGroup("a", "r")
	g.JoinGroup("a", "r")
	g.JoinGroup("b", "r")
	g.JoinGroup("ghost", "r")
	assert.Equal(t, 2, g.groupSize("r"))

	g.LeaveGroup("a", "r")
	g.LeaveGroup("a", "r")
	g.LeaveGroup("a", "missing")
	assert.Equal(t, 1, g.groupSize("r"))

	g.Unregister("b")
	assert.Zero(t, g.groupSize("r"))
	assert.Equal(t, 1, g.size())
}

func TestGateway_UnregisterClosesMailbox(t *testing.T) {
	g := New(8, nil, nil)
	a := g.Register("a")
	assert.Same(t, a, g.Register("a"))

	g.Unregister("a")
	g.Unregister("a")

	_, ok := <-a.Events
	assert.False(t, ok)

	// Broadcasts after unregister must not touch the closed channel.
	require.NoError(t, g.Send(context.Background(), core.ToAll(), core.Event{Type: "ping"}))
}

func TestGateway_FullMailboxDrops(t *testing.T) {
	m := metrics.New()
	g := New(2, m, nil)
	a := g.Register("a")

	for range 5 {
		require.NoError(t, g.Send(context.Background(), core.ToEndpoint("a"), core.Event{Type: "ping"}))
	}

	assert.Len(t, drain(a), 2)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Dropped()))
}
