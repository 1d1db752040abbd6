package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/srgjo27/nft_ticket/internal/core/domain"
	"github.com/srgjo27/nft_ticket/internal/core/ports"
	"github.com/srgjo27/nft_ticket/internal/platform/clock"
)

const (
	defaultMintMaxAttempts  = 3
	defaultMintRetryBackoff = 200 * time.Millisecond
	defaultMintBatchSize    = 500
	defaultMintLease        = 30 * time.Minute
	reconcileBatchLimit     = 50
	flushTimeout            = 30 * time.Second
)

type MintingService struct {
	eventRepo  ports.EventRepository
	ticketRepo ports.TicketRepository
	minter     ports.Minter
	cache      *redis.Client
	clock      clock.Clock
	log        *zap.Logger

	maxAttempts  int
	retryBackoff time.Duration
	batchSize    int
	lease        time.Duration
}

type MintingOption func(*MintingService)

// WithMintRetry sets how many times a single unit is attempted and the delay
// before the first retry. The delay doubles on every further attempt.
func WithMintRetry(maxAttempts int, backoff time.Duration) MintingOption {
	return func(s *MintingService) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		if backoff >= 0 {
			s.retryBackoff = backoff
		}
	}
}

func WithMintBatchSize(n int) MintingOption {
	return func(s *MintingService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithMintLease bounds how long a crashed minting run keeps other instances
// away from the event.
func WithMintLease(d time.Duration) MintingOption {
	return func(s *MintingService) {
		if d > 0 {
			s.lease = d
		}
	}
}

func NewMintingService(
	eventRepo ports.EventRepository,
	ticketRepo ports.TicketRepository,
	minter ports.Minter,
	cache *redis.Client,
	clk clock.Clock,
	log *zap.Logger,
	opts ...MintingOption,
) *MintingService {
	s := &MintingService{
		eventRepo:    eventRepo,
		ticketRepo:   ticketRepo,
		minter:       minter,
		cache:        cache,
		clock:        clk,
		log:          log.Named("minting"),
		maxAttempts:  defaultMintMaxAttempts,
		retryBackoff: defaultMintRetryBackoff,
		batchSize:    defaultMintBatchSize,
		lease:        defaultMintLease,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MintEvent loads an activated event and mints whatever its categories are
// still missing.
func (s *MintingService) MintEvent(ctx context.Context, eventID string) error {
	id, err := uuid.Parse(eventID)
	if err != nil {
		return domain.ErrInvalidID
	}

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if event.TicketsReady {
		return nil
	}

	categories, err := s.eventRepo.ListCategories(ctx, id)
	if err != nil {
		return err
	}

	return s.MintTickets(ctx, event, categories)
}

// MintTickets expands every category into minted ticket instances, resuming
// after the highest token already persisted. Token indexes are scoped to the
// category and start at zero. The event is marked ready only once every
// category has issued exactly its planned quantity. Only one run per event
// proceeds at a time; others get domain.ErrMintingInProgress.
func (s *MintingService) MintTickets(ctx context.Context, event *domain.Event, categories []domain.TicketCategory) error {
	if err := s.eventRepo.AcquireMinting(ctx, event.ID, s.clock.Now(), s.lease); err != nil {
		return err
	}
	defer s.releaseMinting(ctx, event.ID)

	var mintErr error

	for _, cat := range categories {
		err := s.mintCategory(ctx, event, cat)
		if err == nil {
			continue
		}

		var unitErr *unitMintError
		if !errors.As(err, &unitErr) {
			return err
		}

		s.log.Error("category minting stopped",
			zap.String("event_id", event.ID.String()),
			zap.String("category", cat.Name),
			zap.Int("token_index", unitErr.tokenIndex),
			zap.Error(unitErr.err))

		if mintErr == nil {
			mintErr = err
		}
		if ctx.Err() != nil {
			break
		}
	}

	return s.reconcile(ctx, event, categories, mintErr)
}

func (s *MintingService) mintCategory(ctx context.Context, event *domain.Event, cat domain.TicketCategory) error {
	progress, err := s.ticketRepo.MintProgress(ctx, cat.ID)
	if err != nil {
		return err
	}
	if progress.NextTokenIndex >= cat.Quantity {
		return nil
	}

	s.log.Info("minting category",
		zap.String("event_id", event.ID.String()),
		zap.String("category", cat.Name),
		zap.Int("from_token", progress.NextTokenIndex),
		zap.Int("planned", cat.Quantity))

	var batch []domain.TicketInstance
	var unitErr error

	for idx := progress.NextTokenIndex; idx < cat.Quantity; idx++ {
		if err := s.mintWithRetry(ctx, event, idx); err != nil {
			unitErr = &unitMintError{tokenIndex: idx, err: err}
			break
		}

		batch = append(batch, domain.NewTicketInstance(event.ID, cat, idx, s.clock.Now()))
		if len(batch) >= s.batchSize {
			if err := s.flush(ctx, cat, batch); err != nil {
				return persistError(batch, err)
			}
			batch = nil
		}
	}

	if err := s.flush(ctx, cat, batch); err != nil {
		return persistError(batch, err)
	}

	return unitErr
}

// persistError reports tokens already stored by another run as a unit failure,
// leaving the event incomplete and resumable from the ledger.
func persistError(batch []domain.TicketInstance, err error) error {
	if errors.Is(err, domain.ErrTokenAlreadyMinted) {
		return &unitMintError{tokenIndex: batch[0].TokenIndex, err: err}
	}
	return err
}

func (s *MintingService) mintWithRetry(ctx context.Context, event *domain.Event, tokenIndex int) error {
	req := ports.MintRequest{
		ContractAddress: event.ContractAddress,
		ImageRef:        event.Image,
		Name:            event.Name,
		Description:     event.Description,
		TokenIndex:      tokenIndex,
	}

	delay := s.retryBackoff
	for attempt := 1; ; attempt++ {
		err := s.minter.MintUnit(ctx, req)
		if err == nil {
			return nil
		}

		if attempt >= s.maxAttempts || ctx.Err() != nil {
			return fmt.Errorf("mint token %d after %d attempts: %w", tokenIndex, attempt, err)
		}

		s.log.Warn("mint attempt failed",
			zap.String("event_id", event.ID.String()),
			zap.Int("token_index", tokenIndex),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return fmt.Errorf("mint token %d: %w", tokenIndex, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// flush persists units that were already minted, even when the caller's
// context has been cancelled, so the chain and the ledger stay in step.
func (s *MintingService) flush(ctx context.Context, cat domain.TicketCategory, batch []domain.TicketInstance) error {
	if len(batch) == 0 {
		return nil
	}

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()

	if err := s.ticketRepo.BulkInsert(flushCtx, batch); err != nil {
		return fmt.Errorf("persist %d tickets of category %s: %w", len(batch), cat.Name, err)
	}

	if err := s.cache.Del(flushCtx, availabilityKey(cat.ID)).Err(); err != nil {
		s.log.Warn("failed to invalidate availability cache", zap.String("category_id", cat.ID.String()), zap.Error(err))
	}

	return nil
}

func (s *MintingService) reconcile(ctx context.Context, event *domain.Event, categories []domain.TicketCategory, cause error) error {
	var shortfalls []domain.CategoryShortfall

	for _, cat := range categories {
		progress, err := s.ticketRepo.MintProgress(ctx, cat.ID)
		if err != nil {
			return err
		}
		if progress.Issued != cat.Quantity {
			shortfalls = append(shortfalls, domain.CategoryShortfall{
				CategoryID: cat.ID,
				Name:       cat.Name,
				Planned:    cat.Quantity,
				Issued:     progress.Issued,
			})
		}
	}

	if len(shortfalls) > 0 || cause != nil {
		return &domain.MintingIncompleteError{EventID: event.ID, Shortfalls: shortfalls, Cause: cause}
	}

	if err := s.eventRepo.SetTicketsReady(ctx, event.ID, true); err != nil {
		return err
	}
	event.TicketsReady = true

	s.log.Info("event tickets ready", zap.String("event_id", event.ID.String()), zap.Int("categories", len(categories)))
	return nil
}

func (s *MintingService) releaseMinting(ctx context.Context, eventID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.eventRepo.ReleaseMinting(ctx, eventID); err != nil {
		s.log.Warn("failed to release minting lease", zap.String("event_id", eventID.String()), zap.Error(err))
	}
}

// RunReconciler periodically retries minting for upcoming events whose supply
// is not fully issued yet. Each tick takes the least recently attempted events
// first so a few persistently failing events cannot starve the rest.
func (s *MintingService) RunReconciler(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("mint reconciler started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("mint reconciler stopped")
			return
		case <-ticker.C:
			s.processPendingMints(ctx)
		}
	}
}

func (s *MintingService) processPendingMints(ctx context.Context) {
	ids, err := s.eventRepo.ListAwaitingMint(ctx, s.clock.Now(), reconcileBatchLimit)
	if err != nil {
		s.log.Error("failed to list events awaiting mint", zap.Error(err))
		return
	}

	if len(ids) == 0 {
		return
	}

	s.log.Info("reconciling events awaiting mint", zap.Int("count", len(ids)))

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		err := s.MintEvent(ctx, id.String())
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrMintingInProgress):
			s.log.Debug("event minting held by another run", zap.String("event_id", id.String()))
		default:
			s.log.Warn("event still not fully minted", zap.String("event_id", id.String()), zap.Error(err))
		}
	}
}

type unitMintError struct {
	tokenIndex int
	err        error
}

func (e *unitMintError) Error() string {
	return e.err.Error()
}

func (e *unitMintError) Unwrap() error {
	return e.err
}
