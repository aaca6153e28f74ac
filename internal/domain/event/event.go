package event

import (
	"errors"
	"strings"
	"time"
)

type Status string

const (
	StatusDraft            Status = "DRAFT"
	StatusPublished        Status = "PUBLISHED"
	StatusBeganEnrollment  Status = "BEGAN_ENROLLMENT"
	StatusClosedEnrollment Status = "CLOSED_ENROLLMENT"
	StatusStarted          Status = "STARTED"
	StatusEnded            Status = "ENDED"
)

type Event struct {
	ID                      int64     `json:"id"`
	Name                    string    `json:"name"`
	Description             string    `json:"description"`
	BeginEnrollmentDateTime time.Time `json:"beginEnrollmentDateTime"`
	CloseEnrollmentDateTime time.Time `json:"closeEnrollmentDateTime"`
	BeginEventDateTime      time.Time `json:"beginEventDateTime"`
	EndEventDateTime        time.Time `json:"endEventDateTime"`
	Location                string    `json:"location,omitempty"`
	BasePrice               int       `json:"basePrice"`
	MaxPrice                int       `json:"maxPrice"`
	LimitOfEnrollment       int       `json:"limitOfEnrollment"`
	Offline                 bool      `json:"offline"`
	Free                    bool      `json:"free"`
	EventStatus             Status    `json:"eventStatus"`
	ManagerID               string    `json:"-"` // rendered by the HTTP layer as {"manager":{"id":...}}
	CreatedAt               time.Time `json:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

// Normalize recomputes the derived flags from prices and location.
// It is the only place Free and Offline are written.
func (e *Event) Normalize() {
	e.Free = e.BasePrice == 0 && e.MaxPrice == 0
	e.Offline = strings.TrimSpace(e.Location) != ""
}

// ApplyUpdate copies the mutable fields of an update request onto the event.
func (e *Event) ApplyUpdate(req UpdateEventRequest) {
	e.Name = req.Name
	e.Description = req.Description
}

func (e Event) ManagedBy(accountID string) bool {
	return accountID != "" && e.ManagerID == accountID
}

var ErrNotFound = errors.New("event not found")

// EventInput is the client payload for creating an event. Derived flags,
// status, id and manager are never read from clients.
type EventInput struct {
	Name                    string    `json:"name" binding:"required,max=200"`
	Description             string    `json:"description" binding:"required,max=2000"`
	BeginEnrollmentDateTime time.Time `json:"beginEnrollmentDateTime" binding:"required"`
	CloseEnrollmentDateTime time.Time `json:"closeEnrollmentDateTime" binding:"required"`
	BeginEventDateTime      time.Time `json:"beginEventDateTime" binding:"required"`
	EndEventDateTime        time.Time `json:"endEventDateTime" binding:"required"`
	Location                string    `json:"location" binding:"omitempty,max=200"`
	BasePrice               int       `json:"basePrice" binding:"min=0"`
	MaxPrice                int       `json:"maxPrice" binding:"min=0"`
	LimitOfEnrollment       int       `json:"limitOfEnrollment" binding:"min=0"`
}

type UpdateEventRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"required,max=2000"`
}
