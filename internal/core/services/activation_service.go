package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/srgjo27/nft_ticket/internal/core/domain"
	"github.com/srgjo27/nft_ticket/internal/core/ports"
	"github.com/srgjo27/nft_ticket/internal/platform/clock"
)

const defaultActivationLease = 5 * time.Minute

type ActivationService struct {
	pendingRepo ports.PendingEventRepository
	eventRepo   ports.EventRepository
	minter      ports.Minter
	clock       clock.Clock
	log         *zap.Logger
	lease       time.Duration
}

type ActivationOption func(*ActivationService)

// WithActivationLease bounds how long a crashed activation blocks retries.
func WithActivationLease(d time.Duration) ActivationOption {
	return func(s *ActivationService) {
		if d > 0 {
			s.lease = d
		}
	}
}

func NewActivationService(
	pendingRepo ports.PendingEventRepository,
	eventRepo ports.EventRepository,
	minter ports.Minter,
	clk clock.Clock,
	log *zap.Logger,
	opts ...ActivationOption,
) *ActivationService {
	s := &ActivationService{
		pendingRepo: pendingRepo,
		eventRepo:   eventRepo,
		minter:      minter,
		clock:       clk,
		log:         log.Named("activation"),
		lease:       defaultActivationLease,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Activate turns an approved proposal into a live event. The collection
// contract is deployed before the ledger transaction opens; the proposal is
// flipped to active in the same transaction that creates the event and its
// categories.
func (s *ActivationService) Activate(ctx context.Context, pendingEventID string) (*domain.Event, error) {
	id, err := uuid.Parse(pendingEventID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	pending, err := s.pendingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if pending.IsActive {
		return nil, domain.ErrInvalidState
	}

	plan, err := domain.ParseTicketPlan(pending.TicketPlan)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.pendingRepo.AcquireActivation(ctx, id, now, s.lease); err != nil {
		return nil, err
	}

	totalSupply := plan.TotalSupply()
	address, err := s.minter.DeployCollection(ctx, pending.Name, totalSupply)
	if err == nil && address == "" {
		err = errors.New("empty contract address")
	}
	if err != nil {
		s.release(ctx, id)
		s.log.Error("contract deployment failed",
			zap.String("pending_event_id", id.String()),
			zap.Int("total_supply", totalSupply),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrContractDeploymentFailed, err)
	}

	event := domain.NewEventFromPending(pending, address, now)
	categories := make([]domain.TicketCategory, 0, len(plan))
	for _, entry := range plan {
		categories = append(categories, domain.TicketCategory{
			ID:       uuid.New(),
			EventID:  event.ID,
			Name:     entry.Name,
			Price:    entry.Price,
			Quantity: entry.Quantity,
		})
	}

	if err := s.eventRepo.Activate(ctx, id, event, categories); err != nil {
		if !errors.Is(err, domain.ErrInvalidState) {
			s.release(ctx, id)
		}
		s.log.Error("event activation failed",
			zap.String("pending_event_id", id.String()),
			zap.String("contract_address", address),
			zap.Error(err))
		return nil, err
	}

	event.Categories = categories

	s.log.Info("event activated",
		zap.String("pending_event_id", id.String()),
		zap.String("event_id", event.ID.String()),
		zap.String("contract_address", address),
		zap.Int("categories", len(categories)),
		zap.Int("total_supply", totalSupply))

	return event, nil
}

func (s *ActivationService) release(ctx context.Context, id uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.pendingRepo.ReleaseActivation(ctx, id); err != nil {
		s.log.Warn("failed to release activation lease", zap.String("pending_event_id", id.String()), zap.Error(err))
	}
}
