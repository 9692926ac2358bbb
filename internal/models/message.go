package models

import "time"

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// Message is append-only per room. ReadBy only ever grows; rooms order
// messages by CreatedAt with insertion order as the tiebreak.
type Message struct {
	ID          string      `bson:"_id,omitempty" json:"id"`
	RoomID      string      `bson:"room_id" json:"room_id" validate:"required"`
	SenderID    string      `bson:"sender_id" json:"sender_id" validate:"required"`
	Type        MessageType `bson:"type" json:"type" validate:"required,oneof=text image file"`
	Content     string      `bson:"content" json:"content"`
	FileName    string      `bson:"file_name,omitempty" json:"file_name,omitempty"`
	FileSize    int64       `bson:"file_size,omitempty" json:"file_size,omitempty"`
	CreatedAt   time.Time   `bson:"created_at" json:"created_at"`
	DeliveredAt *time.Time  `bson:"delivered_at,omitempty" json:"delivered_at,omitempty"`
	ReadBy      []string    `bson:"read_by" json:"read_by"`
}

func (Message) CollectionName() string {
	return "messages"
}

func (m *Message) IsReadBy(participantID string) bool {
	for _, id := range m.ReadBy {
		if id == participantID {
			return true
		}
	}
	return false
}

// MessageDraft is the caller-supplied shape of a message before
// the store assigns id and timestamps.
type MessageDraft struct {
	RoomID   string      `json:"room_id" validate:"required"`
	Type     MessageType `json:"type" validate:"required,oneof=text image file"`
	Content  string      `json:"content"`
	FileName string      `json:"file_name,omitempty"`
	FileSize int64       `json:"file_size,omitempty"`
}
