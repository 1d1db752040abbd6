package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/srgjo27/nft_ticket/internal/core/domain"
)

const (
	ticketColumns        = `id, event_id, category_id, category_name, price, token_index, token_id, owner_id, sold, is_used, created_at, sold_at`
	eventOwnerConstraint = "ticket_instances_event_owner_key"
)

type TicketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) MintProgress(ctx context.Context, categoryID uuid.UUID) (domain.MintProgress, error) {
	query := `
	SELECT COUNT(*), COALESCE(MAX(token_index) + 1, 0)
	FROM ticket_instances
	WHERE category_id = $1
	`

	progress := domain.MintProgress{CategoryID: categoryID}
	if err := r.db.QueryRowContext(ctx, query, categoryID).Scan(&progress.Issued, &progress.NextTokenIndex); err != nil {
		return domain.MintProgress{}, fmt.Errorf("mint progress: %w", err)
	}

	return progress, nil
}

// BulkInsert writes freshly minted tickets with a single COPY. The category
// rows are locked first so no token index can exceed the planned quantity.
func (r *TicketRepository) BulkInsert(ctx context.Context, tickets []domain.TicketInstance) error {
	if len(tickets) == 0 {
		return nil
	}

	maxIndex := make(map[uuid.UUID]int)
	for _, t := range tickets {
		if cur, ok := maxIndex[t.CategoryID]; !ok || t.TokenIndex > cur {
			maxIndex[t.CategoryID] = t.TokenIndex
		}
	}

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for categoryID, idx := range maxIndex {
			var quantity int
			err := tx.QueryRowContext(ctx, `SELECT quantity FROM ticket_categories WHERE id = $1 FOR UPDATE`, categoryID).Scan(&quantity)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return domain.ErrCategoryNotFound
				}
				return fmt.Errorf("lock ticket category: %w", err)
			}
			if idx >= quantity {
				return fmt.Errorf("token index %d exceeds planned quantity %d of category %s", idx, quantity, categoryID)
			}
		}

		stmt, err := tx.PrepareContext(ctx, pq.CopyIn("ticket_instances",
			"id", "event_id", "category_id", "category_name", "price", "token_index", "token_id", "sold", "is_used", "created_at",
		))
		if err != nil {
			return fmt.Errorf("failed to prepare copy: %w", err)
		}

		defer stmt.Close()

		for _, t := range tickets {
			_, err := stmt.ExecContext(ctx, t.ID, t.EventID, t.CategoryID, t.CategoryName, t.Price, t.TokenIndex, t.TokenID, false, false, t.CreatedAt)
			if err != nil {
				return copyError("buffer ticket "+t.TokenID, err)
			}
		}

		if _, err := stmt.ExecContext(ctx); err != nil {
			return copyError("flush copy", err)
		}

		return nil
	})
}

// COPY reports server-side errors on whichever call happens to flush, so
// every step maps duplicate tokens the same way.
func copyError(step string, err error) error {
	if isUniqueViolation(err, "ticket_instances_category_token_key") {
		return domain.ErrTokenAlreadyMinted
	}
	return fmt.Errorf("failed to %s: %w", step, err)
}

func (r *TicketRepository) UserHasTicket(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	var owns bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM ticket_instances WHERE event_id = $1 AND owner_id = $2)`,
		eventID, userID,
	).Scan(&owns)
	if err != nil {
		return false, fmt.Errorf("check ticket ownership: %w", err)
	}

	return owns, nil
}

func (r *TicketRepository) CountUnsold(ctx context.Context, categoryID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ticket_instances WHERE category_id = $1 AND owner_id IS NULL`,
		categoryID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unsold tickets: %w", err)
	}

	return n, nil
}

const claimQuery = `
	UPDATE ticket_instances
	SET owner_id = $3,
		sold = TRUE,
		sold_at = $4
	WHERE id = (
		SELECT id FROM ticket_instances
		WHERE event_id = $1 AND category_id = $2 AND owner_id IS NULL
		LIMIT 1
		%s
	) AND owner_id IS NULL
	RETURNING ` + ticketColumns

var (
	claimSkipLocked = fmt.Sprintf(claimQuery, "FOR UPDATE SKIP LOCKED")
	claimWaitLocked = fmt.Sprintf(claimQuery, "FOR UPDATE")
)

// Claim picks any unsold ticket of the category, skipping rows already locked
// by concurrent claimers, and assigns it in the same statement. When every
// unsold row was skipped it waits once on a locked row, so a claimer that
// rolls back does not turn into a false sold out.
func (r *TicketRepository) Claim(ctx context.Context, eventID, categoryID, userID uuid.UUID, now time.Time) (*domain.TicketInstance, error) {
	ticket, err := r.claim(ctx, claimSkipLocked, eventID, categoryID, userID, now)
	if errors.Is(err, domain.ErrSoldOut) {
		ticket, err = r.claim(ctx, claimWaitLocked, eventID, categoryID, userID, now)
	}
	return ticket, err
}

func (r *TicketRepository) claim(ctx context.Context, query string, eventID, categoryID, userID uuid.UUID, now time.Time) (*domain.TicketInstance, error) {
	ticket, err := scanTicket(r.db.QueryRowContext(ctx, query, eventID, categoryID, userID, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSoldOut
		}
		if isUniqueViolation(err, eventOwnerConstraint) {
			return nil, domain.ErrDuplicatePurchase
		}
		return nil, fmt.Errorf("claim ticket: %w", err)
	}

	return ticket, nil
}

func scanTicket(row rowScanner) (*domain.TicketInstance, error) {
	var t domain.TicketInstance
	var owner uuid.NullUUID
	var soldAt sql.NullTime

	err := row.Scan(
		&t.ID,
		&t.EventID,
		&t.CategoryID,
		&t.CategoryName,
		&t.Price,
		&t.TokenIndex,
		&t.TokenID,
		&owner,
		&t.Sold,
		&t.Used,
		&t.CreatedAt,
		&soldAt,
	)
	if err != nil {
		return nil, err
	}

	t.OwnerID = nullableUUID(owner)
	if soldAt.Valid {
		t.SoldAt = &soldAt.Time
	}

	return &t, nil
}
