// Package realtime relays chat messages between live websocket
// connections.  A Registry tracks which connections sit in which rooms,
// a Router persists messages and fans them out through the Registry,
// and Handler owns the websocket lifecycle.
package realtime

import (
	"errors"

	"github.com/iliyamo/branch-scheduler/internal/service"
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	// ErrSendBufferFull is returned by Send when the peer is not draining
	// its outbound queue.  The message is dropped for that peer only.
	ErrSendBufferFull = errors.New("send buffer full")
	// ErrInvalidMessage is returned for empty or oversized message text.
	ErrInvalidMessage = errors.New("invalid message")
	errUnknownEvent   = errors.New("unknown event")
	errBadPayload     = errors.New("malformed payload")
)

// errorCode maps err to the code carried by an outbound error event.
func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidMessage):
		return "invalid_message"
	case errors.Is(err, errUnknownEvent):
		return "unknown_event"
	case errors.Is(err, errBadPayload):
		return "invalid_payload"
	}
	return service.ErrorKind(err)
}
