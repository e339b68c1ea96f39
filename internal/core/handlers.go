package core

import (
	"context"
	"encoding/json"
	"errors"
	"maps"

	"github.com/vovakirdan/wirelobby-server/internal/proto"
)

// HandlerFunc processes one inbound event from an endpoint.
// A returned *Error is reported to that endpoint only.
type HandlerFunc func(ctx context.Context, id EndpointID, data json.RawMessage) error

// handle adapts a typed handler to HandlerFunc. A payload that does not
// decode is treated as empty, so it fails validation like a missing field.
func handle[T any](fn func(context.Context, EndpointID, T) error) HandlerFunc {
	return func(ctx context.Context, id EndpointID, data json.RawMessage) error {
		var payload T
		if len(data) > 0 {
			if err := json.Unmarshal(data, &payload); err != nil {
				var zero T
				payload = zero
			}
		}
		return fn(ctx, id, payload)
	}
}

func (h *Hub) buildHandlers() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		proto.InboundTypeGetUserCount: handle(h.GetUserCount),
		proto.InboundTypeCreateRoom:   handle(h.CreateRoom),
		proto.InboundTypeJoinRoom:     handle(h.JoinRoom),
		proto.InboundTypeLeaveRoom:    handle(h.LeaveRoom),
		proto.InboundTypeListRooms:    handle(h.ListRooms),
	}
}

// Handlers returns a copy of the registration table.
func (h *Hub) Handlers() map[string]HandlerFunc {
	return maps.Clone(h.handlers)
}

// Dispatch routes an inbound event to its handler. Domain errors become a
// direct error event; the returned error is for the caller's logs.
func (h *Hub) Dispatch(ctx context.Context, id EndpointID, typ string, data json.RawMessage) error {
	fn, ok := h.handlers[typ]
	if !ok {
		h.metrics.ObserveEvent("unknown")
		err := coreError(ErrCodeUnknownEvent, MsgUnknownEvent)
		h.reject(ctx, id, err)
		return err
	}

	h.metrics.ObserveEvent(typ)
	err := fn(ctx, id, data)
	if err == nil {
		return nil
	}

	var coreErr *Error
	if !errors.As(err, &coreErr) {
		h.log.Error().Err(err).Str("endpoint", string(id)).Str("event", typ).Msg("handler failed")
		coreErr = coreError(ErrCodeInternal, MsgInternal)
	}
	h.reject(ctx, id, coreErr)
	return err
}

func (h *Hub) reject(ctx context.Context, id EndpointID, err *Error) {
	h.metrics.ObserveError(err.Code)
	h.log.Debug().Str("endpoint", string(id)).Str("code", err.Code).Msg(err.Message)
	h.emit(ctx, ToEndpoint(id), proto.OutboundTypeError, proto.Error{Message: err.Message})
}
