package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/nft_ticket/internal/core/domain"
)

const eventColumns = `id, pending_event_id, user_id, event_name, description, image, date, time,
	location_id, category_id, category_type_id, contract_address, tickets_ready, created_at`

var sortColumns = map[domain.SortField]string{
	domain.SortByDate:      "date",
	domain.SortByEventName: "event_name",
}

type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Activate(ctx context.Context, pendingEventID uuid.UUID, event *domain.Event, categories []domain.TicketCategory) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
		UPDATE pending_events
		SET is_active = TRUE, activation_started_at = NULL
		WHERE id = $1 AND is_active = FALSE
		`, pendingEventID)
		if err != nil {
			return fmt.Errorf("failed to mark pending event active: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return domain.ErrInvalidState
		}

		queryEvent := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`

		_, err = tx.ExecContext(ctx, queryEvent,
			event.ID,
			pendingEventID,
			event.UserID,
			event.Name,
			event.Description,
			event.Image,
			event.Date,
			event.Time,
			nullUUID(event.LocationID),
			nullUUID(event.CategoryID),
			nullUUID(event.CategoryTypeID),
			event.ContractAddress,
			event.TicketsReady,
			event.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err, "events_pending_event_id_key") {
				return domain.ErrInvalidState
			}
			return fmt.Errorf("failed to insert event: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ticket_categories (id, event_id, name, price, quantity)
		VALUES ($1, $2, $3, $4, $5)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare category statement: %w", err)
		}

		defer stmt.Close()

		for _, cat := range categories {
			if _, err := stmt.ExecContext(ctx, cat.ID, cat.EventID, cat.Name, cat.Price, cat.Quantity); err != nil {
				return fmt.Errorf("failed to insert ticket category %s: %w", cat.Name, err)
			}
		}

		return nil
	})
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	return event, nil
}

func (r *EventRepository) GetCategory(ctx context.Context, eventID, categoryID uuid.UUID) (*domain.TicketCategory, error) {
	query := `
	SELECT id, event_id, name, price, quantity
	FROM ticket_categories
	WHERE id = $1 AND event_id = $2
	`

	var c domain.TicketCategory
	err := r.db.QueryRowContext(ctx, query, categoryID, eventID).Scan(&c.ID, &c.EventID, &c.Name, &c.Price, &c.Quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get ticket category: %w", err)
	}

	return &c, nil
}

func (r *EventRepository) ListCategories(ctx context.Context, eventID uuid.UUID) ([]domain.TicketCategory, error) {
	query := `
	SELECT id, event_id, name, price, quantity
	FROM ticket_categories
	WHERE event_id = $1
	ORDER BY name, id
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list ticket categories: %w", err)
	}

	defer rows.Close()

	var categories []domain.TicketCategory
	for rows.Next() {
		var c domain.TicketCategory
		if err := rows.Scan(&c.ID, &c.EventID, &c.Name, &c.Price, &c.Quantity); err != nil {
			return nil, err
		}

		categories = append(categories, c)
	}

	return categories, rows.Err()
}

func (r *EventRepository) SetTicketsReady(ctx context.Context, eventID uuid.UUID, ready bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE events SET tickets_ready = $2 WHERE id = $1`, eventID, ready)
	if err != nil {
		return fmt.Errorf("set tickets ready: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrEventNotFound
	}

	return nil
}

// AcquireMinting stamps the attempt time on every call that wins the lease, so
// ListAwaitingMint can rotate through failing events.
func (r *EventRepository) AcquireMinting(ctx context.Context, eventID uuid.UUID, now time.Time, lease time.Duration) error {
	query := `
	UPDATE events
	SET minting_started_at = $2, mint_attempted_at = $2
	WHERE id = $1
		AND (minting_started_at IS NULL OR minting_started_at < $3)
	`

	result, err := r.db.ExecContext(ctx, query, eventID, now, now.Add(-lease))
	if err != nil {
		return fmt.Errorf("acquire minting: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists); err != nil {
		return fmt.Errorf("acquire minting: %w", err)
	}
	if !exists {
		return domain.ErrEventNotFound
	}

	return domain.ErrMintingInProgress
}

func (r *EventRepository) ReleaseMinting(ctx context.Context, eventID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE events SET minting_started_at = NULL WHERE id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("release minting: %w", err)
	}
	return nil
}

func (r *EventRepository) ListAwaitingMint(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	query := `
	SELECT id FROM events
	WHERE tickets_ready = FALSE AND date > $1
	ORDER BY mint_attempted_at ASC NULLS FIRST, created_at
	LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list events awaiting mint: %w", err)
	}

	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *EventRepository) FindByCategory(ctx context.Context, categoryID uuid.UUID) ([]domain.Event, error) {
	return r.queryEvents(ctx, `SELECT `+eventColumns+` FROM events WHERE category_id = $1 ORDER BY date, id`, categoryID)
}

func (r *EventRepository) FindByCategoryType(ctx context.Context, categoryTypeID uuid.UUID) ([]domain.Event, error) {
	return r.queryEvents(ctx, `SELECT `+eventColumns+` FROM events WHERE category_type_id = $1 ORDER BY date, id`, categoryTypeID)
}

func (r *EventRepository) SearchByName(ctx context.Context, name string) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE event_name ILIKE $1 ESCAPE '\' ORDER BY date, id`
	return r.queryEvents(ctx, query, "%"+escapeLike(name)+"%")
}

// Filter expects a filter already normalized by the caller.
func (r *EventRepository) Filter(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	conds := []string{"date >= $1"}
	args := []any{f.StartDate}

	if f.EndDate != nil {
		args = append(args, *f.EndDate)
		conds = append(conds, fmt.Sprintf("date <= $%d", len(args)))
	}
	if f.LocationID != nil {
		args = append(args, *f.LocationID)
		conds = append(conds, fmt.Sprintf("location_id = $%d", len(args)))
	}
	if f.CategoryTypeID != nil {
		args = append(args, *f.CategoryTypeID)
		conds = append(conds, fmt.Sprintf("category_type_id = $%d", len(args)))
	}

	column, ok := sortColumns[f.SortBy]
	if !ok {
		return nil, fmt.Errorf("%w: unknown sort field %q", domain.ErrInvalidFilter, f.SortBy)
	}
	direction := "ASC"
	if f.SortOrder == domain.SortDesc {
		direction = "DESC"
	}

	args = append(args, f.PageSize, f.Offset())
	query := fmt.Sprintf(
		`SELECT %s FROM events WHERE %s ORDER BY %s %s, id LIMIT $%d OFFSET $%d`,
		eventColumns, strings.Join(conds, " AND "), column, direction, len(args)-1, len(args),
	)

	return r.queryEvents(ctx, query, args...)
}

func (r *EventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}

		events = append(events, *event)
	}

	return events, rows.Err()
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	var e domain.Event
	var location, category, categoryType uuid.NullUUID

	err := row.Scan(
		&e.ID,
		&e.PendingEventID,
		&e.UserID,
		&e.Name,
		&e.Description,
		&e.Image,
		&e.Date,
		&e.Time,
		&location,
		&category,
		&categoryType,
		&e.ContractAddress,
		&e.TicketsReady,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.LocationID = nullableUUID(location)
	e.CategoryID = nullableUUID(category)
	e.CategoryTypeID = nullableUUID(categoryType)

	return &e, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
