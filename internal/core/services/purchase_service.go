package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/srgjo27/nft_ticket/internal/core/domain"
	"github.com/srgjo27/nft_ticket/internal/core/ports"
	"github.com/srgjo27/nft_ticket/internal/platform/clock"
)

type PurchaseTicketRequest struct {
	EventID    string `json:"eventId"`
	CategoryID string `json:"ticketCategoryId"`
	UserID     string `json:"userId"`
}

type TicketClaimed struct {
	TicketID        string    `json:"ticketId"`
	EventID         string    `json:"eventId"`
	CategoryID      string    `json:"ticketCategoryId"`
	OwnerID         string    `json:"ownerId"`
	TokenID         string    `json:"tokenId"`
	ContractAddress string    `json:"contractAddress"`
	ClaimedAt       time.Time `json:"claimedAt"`
}

type PurchaseService struct {
	eventRepo  ports.EventRepository
	ticketRepo ports.TicketRepository
	redis      *redis.Client
	clock      clock.Clock
	log        *zap.Logger
}

func NewPurchaseService(
	eventRepo ports.EventRepository,
	ticketRepo ports.TicketRepository,
	redisClient *redis.Client,
	clk clock.Clock,
	log *zap.Logger,
) *PurchaseService {
	return &PurchaseService{
		eventRepo:  eventRepo,
		ticketRepo: ticketRepo,
		redis:      redisClient,
		clock:      clk,
		log:        log.Named("purchase"),
	}
}

// Purchase validates the request and claims one unsold ticket of the
// category for the user.
func (s *PurchaseService) Purchase(ctx context.Context, req PurchaseTicketRequest) (*domain.TicketInstance, error) {
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	now := s.clock.Now()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if event.HasStarted(now) {
		return nil, domain.ErrEventExpired
	}

	if _, err := s.eventRepo.GetCategory(ctx, eventID, categoryID); err != nil {
		return nil, err
	}

	owns, err := s.ticketRepo.UserHasTicket(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if owns {
		return nil, domain.ErrDuplicatePurchase
	}

	unsold, err := s.ticketRepo.CountUnsold(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if unsold == 0 {
		return nil, domain.ErrSoldOut
	}

	ticket, err := s.ticketRepo.Claim(ctx, eventID, categoryID, userID, now)
	if err != nil {
		s.log.Info("ticket claim rejected",
			zap.String("event_id", eventID.String()),
			zap.String("category_id", categoryID.String()),
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, err
	}

	s.log.Info("ticket claimed",
		zap.String("event_id", eventID.String()),
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("token_id", ticket.TokenID),
		zap.String("user_id", userID.String()))

	s.announceClaim(ctx, event, ticket, now)

	return ticket, nil
}

// announceClaim runs after the claim has committed; its failures are logged
// and never undo the sale.
func (s *PurchaseService) announceClaim(ctx context.Context, event *domain.Event, ticket *domain.TicketInstance, now time.Time) {
	ctx = context.WithoutCancel(ctx)

	if err := s.redis.Del(ctx, availabilityKey(ticket.CategoryID)).Err(); err != nil {
		s.log.Warn("failed to invalidate availability cache", zap.String("category_id", ticket.CategoryID.String()), zap.Error(err))
	}

	payload, err := json.Marshal(claimMessage(event, ticket, now))
	if err != nil {
		s.log.Error("failed to encode claim message", zap.Error(err))
		return
	}

	if err := s.redis.Publish(ctx, TicketClaimedChannel, string(payload)).Err(); err != nil {
		s.log.Warn("failed to publish claim", zap.String("ticket_id", ticket.ID.String()), zap.Error(err))
	}
}

func claimMessage(event *domain.Event, ticket *domain.TicketInstance, now time.Time) TicketClaimed {
	msg := TicketClaimed{
		TicketID:        ticket.ID.String(),
		EventID:         ticket.EventID.String(),
		CategoryID:      ticket.CategoryID.String(),
		TokenID:         ticket.TokenID,
		ContractAddress: event.ContractAddress,
		ClaimedAt:       now,
	}
	if ticket.OwnerID != nil {
		msg.OwnerID = ticket.OwnerID.String()
	}
	return msg
}
