package memory

import "github.com/physiohome/chat-service/internal/models"

// Seed loads demo participants into the directory. Only the memory driver
// uses it; production stores are populated by the identity service.
func Seed(directory *Directory) {
	for _, participant := range demoParticipants() {
		directory.Put(participant)
	}
}

func demoParticipants() []models.Participant {
	return []models.Participant{
		{
			ID:          "1",
			DisplayName: "John Doe",
			AvatarRef:   "/placeholder.svg?height=40&width=40",
			Role:        models.RolePatient,
			IsOnline:    true,
		},
		{
			ID:             "2",
			DisplayName:    "Dr. Emily Jones",
			AvatarRef:      "/placeholder.svg?height=40&width=40",
			Role:           models.RolePhysio,
			IsOnline:       true,
			Specialization: "Orthopedic Physiotherapy",
			Rating:         4.8,
			ResponseTime:   "Usually responds within 2 hours",
			IsVerified:     true,
		},
		{
			ID:          "3",
			DisplayName: "Sarah Wilson",
			AvatarRef:   "/placeholder.svg?height=40&width=40",
			Role:        models.RolePatient,
			IsOnline:    false,
		},
		{
			ID:             "4",
			DisplayName:    "Dr. Michael Brown",
			AvatarRef:      "/placeholder.svg?height=40&width=40",
			Role:           models.RolePhysio,
			IsOnline:       true,
			Specialization: "Sports Physiotherapy",
			Rating:         4.9,
			ResponseTime:   "Usually responds within 1 hour",
			IsVerified:     true,
		},
	}
}
