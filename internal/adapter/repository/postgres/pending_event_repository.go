package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/nft_ticket/internal/core/domain"
)

type PendingEventRepository struct {
	db *sql.DB
}

func NewPendingEventRepository(db *sql.DB) *PendingEventRepository {
	return &PendingEventRepository{db: db}
}

func (r *PendingEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PendingEvent, error) {
	query := `
	SELECT id, user_id, event_name, description, image, date, time,
		location_id, category_id, category_type_id, ticket_plan, is_active, activation_started_at
	FROM pending_events
	WHERE id = $1
	`

	var p domain.PendingEvent
	var location, category, categoryType uuid.NullUUID
	var plan []byte
	var startedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Description,
		&p.Image,
		&p.Date,
		&p.Time,
		&location,
		&category,
		&categoryType,
		&plan,
		&p.IsActive,
		&startedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPendingEventNotFound
		}
		return nil, fmt.Errorf("get pending event: %w", err)
	}

	p.LocationID = nullableUUID(location)
	p.CategoryID = nullableUUID(category)
	p.CategoryTypeID = nullableUUID(categoryType)
	p.TicketPlan = plan
	if startedAt.Valid {
		p.ActivationStartedAt = &startedAt.Time
	}

	return &p, nil
}

func (r *PendingEventRepository) AcquireActivation(ctx context.Context, id uuid.UUID, now time.Time, lease time.Duration) error {
	query := `
	UPDATE pending_events
	SET activation_started_at = $2
	WHERE id = $1
		AND is_active = FALSE
		AND (activation_started_at IS NULL OR activation_started_at < $3)
	`

	result, err := r.db.ExecContext(ctx, query, id, now, now.Add(-lease))
	if err != nil {
		return fmt.Errorf("acquire activation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrInvalidState
	}

	return nil
}

func (r *PendingEventRepository) ReleaseActivation(ctx context.Context, id uuid.UUID) error {
	query := `
	UPDATE pending_events
	SET activation_started_at = NULL
	WHERE id = $1 AND is_active = FALSE
	`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("release activation: %w", err)
	}

	return nil
}

func nullableUUID(v uuid.NullUUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := v.UUID
	return &id
}

func nullUUID(v *uuid.UUID) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *v, Valid: true}
}
