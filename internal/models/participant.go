package models

import "time"

type Role string

const (
	RolePatient Role = "patient"
	RolePhysio  Role = "physio"
	RoleAdmin   Role = "admin"
)

// Participant is identity-derived presentation data. The chat core reads it
// through the directory and never mutates it.
type Participant struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	DisplayName    string    `bson:"display_name" json:"display_name" validate:"required"`
	AvatarRef      string    `bson:"avatar_ref,omitempty" json:"avatar_ref,omitempty"`
	Role           Role      `bson:"role" json:"role" validate:"required,oneof=patient physio admin"`
	IsOnline       bool      `bson:"is_online" json:"is_online"`
	Specialization string    `bson:"specialization,omitempty" json:"specialization,omitempty"`
	Rating         float64   `bson:"rating,omitempty" json:"rating,omitempty"`
	ResponseTime   string    `bson:"response_time,omitempty" json:"response_time,omitempty"`
	IsVerified     bool      `bson:"is_verified,omitempty" json:"is_verified,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

func (Participant) CollectionName() string {
	return "participants"
}

// Viewer is the authenticated identity acting on the chat core,
// as supplied by the identity provider.
type Viewer struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
