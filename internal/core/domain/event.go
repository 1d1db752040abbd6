package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type PendingEvent struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	Name                string
	Description         string
	Image               string
	Date                time.Time
	Time                string
	LocationID          *uuid.UUID
	CategoryID          *uuid.UUID
	CategoryTypeID      *uuid.UUID
	TicketPlan          json.RawMessage
	IsActive            bool
	ActivationStartedAt *time.Time
}

type Event struct {
	ID              uuid.UUID
	PendingEventID  uuid.UUID
	UserID          uuid.UUID
	Name            string
	Description     string
	Image           string
	Date            time.Time
	Time            string
	LocationID      *uuid.UUID
	CategoryID      *uuid.UUID
	CategoryTypeID  *uuid.UUID
	ContractAddress string
	TicketsReady    bool
	CreatedAt       time.Time
	Categories      []TicketCategory
}

// NewEventFromPending copies the proposal metadata onto a fresh event bound
// to the deployed collection.
func NewEventFromPending(p *PendingEvent, contractAddress string, now time.Time) *Event {
	return &Event{
		ID:              uuid.New(),
		PendingEventID:  p.ID,
		UserID:          p.UserID,
		Name:            p.Name,
		Description:     p.Description,
		Image:           p.Image,
		Date:            p.Date,
		Time:            p.Time,
		LocationID:      p.LocationID,
		CategoryID:      p.CategoryID,
		CategoryTypeID:  p.CategoryTypeID,
		ContractAddress: contractAddress,
		CreatedAt:       now,
	}
}

func (e *Event) HasStarted(now time.Time) bool {
	return !e.Date.After(now)
}

type TicketCategory struct {
	ID       uuid.UUID
	EventID  uuid.UUID
	Name     string
	Price    float64
	Quantity int
}
