package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidState             = errors.New("pending event already activated")
	ErrMalformedPlan            = errors.New("malformed ticket plan")
	ErrContractDeploymentFailed = errors.New("contract deployment failed")
	ErrMintingIncomplete        = errors.New("minting incomplete")
	ErrMintingInProgress        = errors.New("minting already in progress for this event")
	ErrTokenAlreadyMinted       = errors.New("token already minted for category")
	ErrEventNotFound            = errors.New("event not found")
	ErrEventExpired             = errors.New("event has already passed")
	ErrCategoryNotFound         = errors.New("ticket category not found")
	ErrDuplicatePurchase        = errors.New("user has already bought a ticket for this event")
	ErrSoldOut                  = errors.New("all tickets in this category are sold out")
	ErrPendingEventNotFound     = errors.New("pending event not found")
	ErrInvalidID                = errors.New("invalid id")
	ErrInvalidFilter            = errors.New("invalid filter")
)

type CategoryShortfall struct {
	CategoryID uuid.UUID
	Name       string
	Planned    int
	Issued     int
}

// MintingIncompleteError reports the categories whose issued count is still
// below the planned quantity after a minting run.
type MintingIncompleteError struct {
	EventID    uuid.UUID
	Shortfalls []CategoryShortfall
	Cause      error
}

func (e *MintingIncompleteError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s %d/%d", s.Name, s.Issued, s.Planned))
	}
	msg := fmt.Sprintf("minting incomplete for event %s: %s", e.EventID, strings.Join(parts, ", "))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *MintingIncompleteError) Is(target error) bool {
	return target == ErrMintingIncomplete
}

func (e *MintingIncompleteError) Unwrap() error {
	return e.Cause
}
