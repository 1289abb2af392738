package notifications

import "time"

// Collection is the notifications collection name.
const Collection = "notifications"

// Type categorizes a notification.
type Type string

const (
	TypeAppointment Type = "appointment"
	TypePayment     Type = "payment"
	TypeMessage     Type = "message"
	TypeSystem      Type = "system"
)

// Metadata carries structured context for the frontend to deep-link from.
type Metadata struct {
	AppointmentID string `json:"appointmentId,omitempty"`
	CurrentStatus string `json:"currentStatus,omitempty"`
	PatientName   string `json:"patientName,omitempty"`
	IsRequest     bool   `json:"isRequest,omitempty"`
}

// Notification is one row of the notifications collection.
type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      Type       `json:"type"`
	CreatedAt time.Time  `json:"createdAt"`
	IsRead    bool       `json:"isRead"`
	Link      string     `json:"link,omitempty"`
	Metadata  *Metadata  `json:"metadata,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}
