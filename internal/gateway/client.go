package gateway

import "github.com/vovakirdan/wirelobby-server/internal/core"

// Client is the outbound mailbox of one endpoint.
type Client struct {
	ID     core.EndpointID
	Events chan core.Event
}

func newClient(id core.EndpointID, size int) *Client {
	return &Client{
		ID:     id,
		Events: make(chan core.Event, size),
	}
}

// deliver enqueues without blocking. Returns false if the mailbox is full.
func (c *Client) deliver(event core.Event) bool {
	select {
	case c.Events <- event:
		return true
	default:
		return false
	}
}
