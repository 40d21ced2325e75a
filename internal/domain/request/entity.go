package request

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus validates a status coming from an admin.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusNew, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

// ServiceRequest is a request for an engineering service, optionally with
// attachment locators.
type ServiceRequest struct {
	ID           int64      `json:"id"`
	FullName     string     `json:"full_name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Details      string     `json:"details"`
	ServiceTitle *string    `json:"service_title,omitempty"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	FileURLs     []string   `json:"file_urls,omitempty"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ContactMessage is a message sent from the contact page.
type ContactMessage struct {
	ID          int64      `json:"id"`
	FullName    string     `json:"full_name"`
	Email       string     `json:"email"`
	Phone       *string    `json:"phone,omitempty"`
	ServiceType *string    `json:"service_type,omitempty"`
	Message     string     `json:"message"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ListFilter narrows admin and client listings.
type ListFilter struct {
	Status Status
	UserID *uuid.UUID
	Limit  int
	Offset int
}
