package domain

import "encoding/json"

// Live event types.
const (
	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
	EventInvalidate  = "invalidate"
	EventError       = "error"
)

// TopicGetAll is the topic invalidated whenever a message is posted.
const TopicGetAll = "guestbook.getAll"

// Event is the envelope exchanged on the live WebSocket.
type Event struct {
	Type    string `json:"type"`
	Topic   string `json:"topic,omitempty"`
	Message string `json:"message,omitempty"`
}

// Encode serializes a value to JSON bytes.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeEvent deserializes JSON bytes into an Event.
func DecodeEvent(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}
