package http

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/vovakirdan/wirelobby-server/internal/core"
	"github.com/vovakirdan/wirelobby-server/internal/proto"
)

var errMissingType = errors.New("missing event type")

func decodeInbound(raw []byte) (proto.Inbound, error) {
	var inbound proto.Inbound
	if err := json.Unmarshal(raw, &inbound); err != nil {
		return proto.Inbound{}, err
	}
	if inbound.Type == "" {
		return proto.Inbound{}, errMissingType
	}
	return inbound, nil
}

func outboundFromEvent(event core.Event) proto.Outbound {
	return proto.Outbound{
		Type: event.Type,
		Data: event.Data,
	}
}

func errorEvent(msg string) core.Event {
	return core.Event{
		Type: proto.OutboundTypeError,
		Data: proto.Error{Message: msg},
	}
}

// originPatterns turns CORS origins into websocket host patterns.
// A "*" entry disables the origin check entirely.
func originPatterns(origins []string) (patterns []string, allowAll bool) {
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		switch {
		case origin == "":
			continue
		case origin == "*":
			return nil, true
		case strings.Contains(origin, "://"):
			u, err := url.Parse(origin)
			if err != nil || u.Host == "" {
				continue
			}
			patterns = append(patterns, u.Host)
		default:
			patterns = append(patterns, origin)
		}
	}
	return patterns, false
}
