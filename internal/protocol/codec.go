// Package protocol is the wire format of the relay: every websocket text
// frame is a JSON array whose first element names the event and whose
// remaining elements are its arguments.
//
//	["register", "room-1"]
//	["pull", "room-1"]
//	["push", "room-1", {"x": 1}]
//
// Outbound frames use the same framing: ["pull", "<connection id>"] and
// ["push", <data>].
package protocol

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/dkeye/relay/internal/core"
	"github.com/dkeye/relay/internal/domain"
)

const (
	EventRegister = "register"
	EventPull     = "pull"
	EventPush     = "push"
)

var (
	ErrMalformed    = errors.New("malformed frame")
	ErrUnknownEvent = errors.New("unknown event")
)

// Message is a decoded inbound event.
type Message struct {
	Event string
	Room  domain.RoomID
	// Data is set for push only and is never interpreted.
	Data json.RawMessage
}

// arity is the number of arguments each inbound event takes.
var arity = map[string]int{
	EventRegister: 1,
	EventPull:     1,
	EventPush:     2,
}

// Decode parses one inbound frame. Every failure wraps ErrMalformed or
// ErrUnknownEvent.
func Decode(b []byte) (Message, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(parts) == 0 {
		return Message{}, fmt.Errorf("%w: empty frame", ErrMalformed)
	}

	event, err := decodeString(parts[0])
	if err != nil {
		return Message{}, fmt.Errorf("%w: event name: %v", ErrMalformed, err)
	}
	want, ok := arity[event]
	if !ok {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	if got := len(parts) - 1; got != want {
		return Message{}, fmt.Errorf("%w: %s takes %d args, got %d", ErrMalformed, event, want, got)
	}

	room, err := decodeString(parts[1])
	if err != nil {
		return Message{}, fmt.Errorf("%w: room id: %v", ErrMalformed, err)
	}

	msg := Message{Event: event, Room: domain.RoomID(room)}
	if event == EventPush {
		msg.Data = parts[2]
	}
	return msg, nil
}

func decodeString(raw json.RawMessage) (string, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", errors.New("null")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return s, nil
}

// Encode builds an outbound frame.
func Encode(event string, args ...any) (core.Frame, error) {
	b, err := json.Marshal(append([]any{event}, args...))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return core.Frame(b), nil
}

// PullFrame asks room members to send their state to requester.
func PullFrame(requester domain.ConnectionID) (core.Frame, error) {
	return Encode(EventPull, requester)
}

// PushFrame carries data to viewers.
func PushFrame(data json.RawMessage) (core.Frame, error) {
	return Encode(EventPush, data)
}
