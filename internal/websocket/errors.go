// internal/websocket/errors.go
package websocket

import "errors"

var (
	ErrUnknownChannel   = errors.New("unknown channel")
	ErrChannelForbidden = errors.New("channel not allowed for this role")
	ErrNoTabSession     = errors.New("no session bound to this connection")
	ErrSessionEnded     = errors.New("session has ended")
	ErrReservedEvent    = errors.New("event is handled by the hub")
	ErrEventClaimed     = errors.New("event already has a handler")
)
