package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/srgjo27/nft_ticket/internal/core/domain"
	"github.com/srgjo27/nft_ticket/internal/core/ports"
	"github.com/srgjo27/nft_ticket/internal/platform/clock"
)

const defaultAvailabilityTTL = 30 * time.Second

type QueryService struct {
	eventRepo  ports.EventRepository
	ticketRepo ports.TicketRepository
	redis      *redis.Client
	clock      clock.Clock
	log        *zap.Logger
	ttl        time.Duration
}

func NewQueryService(
	eventRepo ports.EventRepository,
	ticketRepo ports.TicketRepository,
	redisClient *redis.Client,
	clk clock.Clock,
	log *zap.Logger,
	availabilityTTL time.Duration,
) *QueryService {
	if availabilityTTL <= 0 {
		availabilityTTL = defaultAvailabilityTTL
	}
	return &QueryService{
		eventRepo:  eventRepo,
		ticketRepo: ticketRepo,
		redis:      redisClient,
		clock:      clk,
		log:        log.Named("query"),
		ttl:        availabilityTTL,
	}
}

func (s *QueryService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	id, err := uuid.Parse(eventID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	event.Categories, err = s.eventRepo.ListCategories(ctx, id)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *QueryService) EventsByCategory(ctx context.Context, categoryID string) ([]domain.Event, error) {
	id, err := uuid.Parse(categoryID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	return s.eventRepo.FindByCategory(ctx, id)
}

func (s *QueryService) EventsByCategoryType(ctx context.Context, categoryTypeID string) ([]domain.Event, error) {
	id, err := uuid.Parse(categoryTypeID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	return s.eventRepo.FindByCategoryType(ctx, id)
}

func (s *QueryService) SearchByName(ctx context.Context, name string) ([]domain.Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidFilter
	}
	return s.eventRepo.SearchByName(ctx, name)
}

func (s *QueryService) FilterEvents(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	f, err := filter.Normalize(s.clock.Now())
	if err != nil {
		return nil, err
	}
	return s.eventRepo.Filter(ctx, f)
}

// Availability returns the unsold count of a category, served from Redis
// when a fresh value is cached.
func (s *QueryService) Availability(ctx context.Context, eventID, categoryID string) (int, error) {
	evID, err := uuid.Parse(eventID)
	if err != nil {
		return 0, domain.ErrInvalidID
	}
	catID, err := uuid.Parse(categoryID)
	if err != nil {
		return 0, domain.ErrInvalidID
	}

	if _, err := s.eventRepo.GetCategory(ctx, evID, catID); err != nil {
		return 0, err
	}

	key := availabilityKey(catID)
	cached, err := s.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		if n, convErr := strconv.Atoi(cached); convErr == nil {
			return n, nil
		}
	case !errors.Is(err, redis.Nil):
		s.log.Warn("availability cache read failed", zap.String("category_id", catID.String()), zap.Error(err))
	}

	n, err := s.ticketRepo.CountUnsold(ctx, catID)
	if err != nil {
		return 0, err
	}

	// A purchase that invalidates between CountUnsold and this write leaves a
	// stale count behind. The entry always carries a TTL, which bounds that
	// staleness; purchases never read the cache.
	if err := s.redis.Set(ctx, key, n, s.ttl).Err(); err != nil {
		s.log.Warn("availability cache write failed", zap.String("category_id", catID.String()), zap.Error(err))
	}
	return n, nil
}
