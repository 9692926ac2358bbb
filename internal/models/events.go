package models

// Event is the envelope published to Kafka and delivered over the socket
// channel: a routing pattern plus the event payload.
type Event struct {
	Pattern string `json:"pattern"`
	Data    any    `json:"data"`
}

const (
	PatternMessageSent     = "message.sent"
	PatternRoomUpdated     = "room.updated"
	PatternTypingChanged   = "typing.changed"
	PatternConnectionState = "connection.state"
)

// TypingEvent reports the current typists of a room.
type TypingEvent struct {
	RoomID  string   `json:"room_id"`
	Typists []string `json:"typists"`
}

// ConnectionEvent reports a session's transport state.
type ConnectionEvent struct {
	ParticipantID string `json:"participant_id"`
	State         string `json:"state"`
}
