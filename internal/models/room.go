package models

import (
	"strconv"
	"time"
)

// Room is a single two-party conversation. A room is unique per unordered
// participant pair, enforced through PairKey. Unread counts are kept per
// participant so bookkeeping stays viewer-relative.
type Room struct {
	ID             string         `bson:"_id,omitempty" json:"id"`
	PairKey        string         `bson:"pair_key" json:"-"`
	ParticipantIDs []string       `bson:"participant_ids" json:"participant_ids"`
	LastMessage    *Message       `bson:"last_message,omitempty" json:"last_message,omitempty"`
	Unread         map[string]int `bson:"unread" json:"-"`
	CreatedAt      time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at" json:"updated_at"`
}

func (Room) CollectionName() string {
	return "rooms"
}

// PairKey builds the order-independent identity of a two-party room.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

func (r *Room) HasParticipant(participantID string) bool {
	for _, id := range r.ParticipantIDs {
		if id == participantID {
			return true
		}
	}
	return false
}

// OtherParticipants returns every member of the room except the given one.
func (r *Room) OtherParticipants(participantID string) []string {
	others := make([]string, 0, len(r.ParticipantIDs))
	for _, id := range r.ParticipantIDs {
		if id != participantID {
			others = append(others, id)
		}
	}
	return others
}

func (r *Room) UnreadFor(viewerID string) int {
	if r.Unread == nil {
		return 0
	}
	return r.Unread[viewerID]
}

// RoomView is a room annotated for one viewer: unread count relative to
// that viewer and directory-resolved participants.
type RoomView struct {
	ID           string        `json:"id"`
	Participants []Participant `json:"participants"`
	LastMessage  *Message      `json:"last_message,omitempty"`
	UnreadCount  int           `json:"unread_count"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// DurationLabel renders the room age the way the admin overview shows it.
func (r *Room) DurationLabel(now time.Time) string {
	d := now.Sub(r.CreatedAt)
	switch {
	case d < time.Hour:
		return "less than an hour"
	case d < 24*time.Hour:
		hours := int(d.Hours())
		return plural(hours, "hour")
	default:
		days := int(d.Hours() / 24)
		return plural(days, "day")
	}
}

func plural(n int, unit string) string {
	label := strconv.Itoa(n) + " " + unit
	if n != 1 {
		label += "s"
	}
	return label
}
