package services

import (
	"fmt"

	"github.com/google/uuid"
)

// TicketClaimedChannel carries one message per successful claim for the
// worker that transfers the token to the buyer's wallet.
const TicketClaimedChannel = "tickets.claimed"

func availabilityKey(categoryID uuid.UUID) string {
	return fmt.Sprintf("availability:%s", categoryID)
}
