package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirelobby-server/internal/core"
	"github.com/vovakirdan/wirelobby-server/internal/gateway"
	"github.com/vovakirdan/wirelobby-server/internal/utils"
)

// Lobby is the part of core.Hub the transport drives.
type Lobby interface {
	Connect(ctx context.Context, id core.EndpointID)
	Disconnect(ctx context.Context, id core.EndpointID)
	Dispatch(ctx context.Context, id core.EndpointID, typ string, data json.RawMessage) error
}

// WSOptions tunes per-connection limits.
type WSOptions struct {
	MaxMessageBytes    int64
	RateLimitPerMinute int
	AllowedOrigins     []string
}

// maxCloseReason is the largest close reason a control frame can carry.
const maxCloseReason = 123

// WSHandler upgrades HTTP connections and bridges them to the lobby.
type WSHandler struct {
	lobby   Lobby
	gateway *gateway.Gateway
	opts    WSOptions
	log     *zerolog.Logger

	// stop is cancelled by CloseAll and ends every live connection.
	stop    context.Context
	stopAll context.CancelFunc

	mu      sync.Mutex
	closing bool
	active  sync.WaitGroup
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(lobby Lobby, gw *gateway.Gateway, opts WSOptions, logger *zerolog.Logger) *WSHandler {
	stop, stopAll := context.WithCancel(context.Background())
	return &WSHandler{
		lobby:   lobby,
		gateway: gw,
		opts:    opts,
		log:     logger,
		stop:    stop,
		stopAll: stopAll,
	}
}

// CloseAll refuses new upgrades and ends every live connection.
func (h *WSHandler) CloseAll() {
	h.mu.Lock()
	h.closing = true
	h.mu.Unlock()
	h.stopAll()
}

// Drain calls CloseAll and waits until every connection has been
// disconnected from the lobby.
func (h *WSHandler) Drain(ctx context.Context) error {
	h.CloseAll()

	done := make(chan struct{})
	go func() {
		h.active.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	h.mu.Lock()
	if h.closing {
		h.mu.Unlock()
		stdhttp.Error(w, "server shutting down", stdhttp.StatusServiceUnavailable)
		return
	}
	h.active.Add(1)
	h.mu.Unlock()
	defer h.active.Done()

	patterns, allowAll := originPatterns(h.opts.AllowedOrigins)
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: allowAll,
		OriginPatterns:     patterns,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.opts.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.opts.MaxMessageBytes)
	}

	// Lobby bookkeeping must finish even after the request context ends.
	lobbyCtx := context.WithoutCancel(r.Context())

	id := core.EndpointID(utils.NewID())
	client := h.gateway.Register(id)
	h.lobby.Connect(lobbyCtx, id)
	defer func() {
		h.gateway.Unregister(id)
		h.lobby.Disconnect(lobbyCtx, id)
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	defer context.AfterFunc(h.stop, cancel)()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, lobbyCtx, conn, id)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if h.stop.Err() != nil {
		status = websocket.StatusGoingAway
		reason = "server shutting down"
	} else if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = closeReason(err)
			h.log.Warn().Err(err).Str("endpoint", string(id)).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// closeReason fits an error message into a close frame.
func closeReason(err error) string {
	reason := err.Error()
	if len(reason) <= maxCloseReason {
		return reason
	}
	reason = reason[:maxCloseReason]
	for !utf8.ValidString(reason) {
		reason = reason[:len(reason)-1]
	}
	return reason
}

func (h *WSHandler) readLoop(ctx, lobbyCtx context.Context, conn *websocket.Conn, id core.EndpointID) error {
	limiter := newRateLimiter(h.opts.RateLimitPerMinute, time.Minute)

	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			h.log.Debug().Err(err).Str("endpoint", string(id)).Msg("read ws inbound")
			return err
		}

		if !limiter.allow() {
			h.reply(ctx, id, "rate limit exceeded")
			continue
		}

		inbound, err := decodeInbound(raw)
		if err != nil {
			h.log.Debug().Err(err).Str("endpoint", string(id)).Msg("malformed inbound")
			h.reply(ctx, id, "malformed message")
			continue
		}

		if err := h.lobby.Dispatch(lobbyCtx, id, inbound.Type, inbound.Data); err != nil {
			h.log.Debug().Err(err).Str("endpoint", string(id)).Str("event", inbound.Type).Msg("event rejected")
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *gateway.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("endpoint", string(client.ID)).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// reply queues a transport-level error through the mailbox so the write
// loop stays the only writer on the connection.
func (h *WSHandler) reply(ctx context.Context, id core.EndpointID, msg string) {
	if err := h.gateway.Send(ctx, core.ToEndpoint(id), errorEvent(msg)); err != nil {
		h.log.Debug().Err(err).Str("endpoint", string(id)).Msg("queue error reply")
	}
}
