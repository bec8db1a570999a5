package notify

import "time"

// Type classifies a notification for the client feed.
type Type string

const (
	TypeAppointmentRequested Type = "appointment_requested"
	TypeAppointmentApproved  Type = "appointment_approved"
	TypeAppointmentDeclined  Type = "appointment_declined"
	TypeChatMessage          Type = "chat_message"
)

// Notification is one feed entry for a user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      Type      `json:"type"`
	RelatedID string    `json:"related_id,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
