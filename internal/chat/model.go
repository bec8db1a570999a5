package chat

import "time"

// Message is one chat message attached to an appointment. The appointment
// row doubles as the conversation handle.
type Message struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointment_id"`
	SenderID      string    `json:"sender_id"`
	Content       string    `json:"content"`
	IsRead        bool      `json:"is_read"`
	SentAt        time.Time `json:"sent_at"`
}
