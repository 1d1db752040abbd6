package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/nft_ticket/internal/core/domain"
)

type PendingEventRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PendingEvent, error)
	// AcquireActivation fails with domain.ErrInvalidState when the proposal is
	// already active or another activation holds an unexpired lease.
	AcquireActivation(ctx context.Context, id uuid.UUID, now time.Time, lease time.Duration) error
	ReleaseActivation(ctx context.Context, id uuid.UUID) error
}

type EventRepository interface {
	// Activate flips the proposal to active and persists the event with its
	// categories in one transaction.
	Activate(ctx context.Context, pendingEventID uuid.UUID, event *domain.Event, categories []domain.TicketCategory) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	GetCategory(ctx context.Context, eventID, categoryID uuid.UUID) (*domain.TicketCategory, error)
	ListCategories(ctx context.Context, eventID uuid.UUID) ([]domain.TicketCategory, error)
	SetTicketsReady(ctx context.Context, eventID uuid.UUID, ready bool) error
	// AcquireMinting takes the event's minting lease and stamps the attempt
	// time. It fails with domain.ErrMintingInProgress while another run holds
	// an unexpired lease.
	AcquireMinting(ctx context.Context, eventID uuid.UUID, now time.Time, lease time.Duration) error
	ReleaseMinting(ctx context.Context, eventID uuid.UUID) error
	// ListAwaitingMint returns upcoming events whose supply is not fully
	// issued, least recently attempted first.
	ListAwaitingMint(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)

	FindByCategory(ctx context.Context, categoryID uuid.UUID) ([]domain.Event, error)
	FindByCategoryType(ctx context.Context, categoryTypeID uuid.UUID) ([]domain.Event, error)
	SearchByName(ctx context.Context, name string) ([]domain.Event, error)
	Filter(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error)
}

type TicketRepository interface {
	MintProgress(ctx context.Context, categoryID uuid.UUID) (domain.MintProgress, error)
	BulkInsert(ctx context.Context, tickets []domain.TicketInstance) error
	UserHasTicket(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	CountUnsold(ctx context.Context, categoryID uuid.UUID) (int, error)
	// Claim assigns one unsold ticket of the category to the user with a
	// conditional update. It returns domain.ErrSoldOut when nothing is left
	// and domain.ErrDuplicatePurchase when the user already owns a ticket
	// for the event.
	Claim(ctx context.Context, eventID, categoryID, userID uuid.UUID, now time.Time) (*domain.TicketInstance, error)
}
