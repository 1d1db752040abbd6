package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

type TicketInstance struct {
	ID           uuid.UUID
	EventID      uuid.UUID
	CategoryID   uuid.UUID
	CategoryName string
	Price        float64
	TokenIndex   int
	TokenID      string
	OwnerID      *uuid.UUID
	Sold         bool
	Used         bool
	CreatedAt    time.Time
	SoldAt       *time.Time
}

// NewTicketInstance builds an unowned ticket for the given token index of a
// category.
func NewTicketInstance(eventID uuid.UUID, cat TicketCategory, tokenIndex int, now time.Time) TicketInstance {
	return TicketInstance{
		ID:           uuid.New(),
		EventID:      eventID,
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
		Price:        cat.Price,
		TokenIndex:   tokenIndex,
		TokenID:      strconv.Itoa(tokenIndex),
		CreatedAt:    now,
	}
}

func (t *TicketInstance) IsUnsold() bool {
	return t.OwnerID == nil
}

// MintProgress is the persisted state of one category's minting.
type MintProgress struct {
	CategoryID     uuid.UUID
	Issued         int
	NextTokenIndex int
}
