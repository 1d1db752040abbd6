package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/srgjo27/nft_ticket/internal/core/domain"
	"github.com/srgjo27/nft_ticket/internal/core/ports"
	"github.com/srgjo27/nft_ticket/internal/core/services"
	"github.com/srgjo27/nft_ticket/internal/platform/clock"
	"github.com/srgjo27/nft_ticket/internal/testutil"
)

// activateFixture stores an activated event with the given category
// quantities and returns the event with its categories attached.
func activateFixture(t *testing.T, ctx context.Context, db *sql.DB, quantities map[string]int) *domain.Event {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	pendingID := testutil.InsertPendingEvent(t, ctx, db, "Summer Concert", now.Add(30*24*time.Hour), `[]`)

	pending, err := NewPendingEventRepository(db).GetByID(ctx, pendingID)
	require.NoError(t, err)

	event := domain.NewEventFromPending(pending, "0xabc", now)
	for name, qty := range quantities {
		event.Categories = append(event.Categories, domain.TicketCategory{
			ID:       uuid.New(),
			EventID:  event.ID,
			Name:     name,
			Price:    12.5,
			Quantity: qty,
		})
	}

	require.NoError(t, NewEventRepository(db).Activate(ctx, pendingID, event, event.Categories))
	return event
}

func mintAll(t *testing.T, ctx context.Context, repo *TicketRepository, event *domain.Event) {
	t.Helper()
	var batch []domain.TicketInstance
	for _, cat := range event.Categories {
		for i := 0; i < cat.Quantity; i++ {
			batch = append(batch, domain.NewTicketInstance(event.ID, cat, i, time.Now().UTC()))
		}
	}
	require.NoError(t, repo.BulkInsert(ctx, batch))
}

func TestPendingEventRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPendingEventRepository(db)

	t.Run("GetByID returns plan and ErrPendingEventNotFound", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, db)
		id := testutil.InsertPendingEvent(t, ctx, db, "Concert", time.Now().Add(time.Hour), `[{"name":"GA","quantity":2,"price":"10"}]`)

		p, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, p.IsActive)
		assert.Nil(t, p.ActivationStartedAt)

		plan, err := domain.ParseTicketPlan(p.TicketPlan)
		require.NoError(t, err)
		assert.Equal(t, 2, plan.TotalSupply())

		_, err = repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrPendingEventNotFound)
	})

	t.Run("missing plan reads as empty", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, db)
		id := testutil.InsertPendingEvent(t, ctx, db, "Concert", time.Now().Add(time.Hour), "")

		p, err := repo.GetByID(ctx, id)
		require.NoError(t, err)

		_, err = domain.ParseTicketPlan(p.TicketPlan)
		assert.ErrorIs(t, err, domain.ErrMalformedPlan)
	})

	t.Run("activation lease is exclusive until released or expired", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, db)
		id := testutil.InsertPendingEvent(t, ctx, db, "Concert", time.Now().Add(time.Hour), `[]`)
		now := time.Now().UTC()

		require.NoError(t, repo.AcquireActivation(ctx, id, now, time.Minute))
		assert.ErrorIs(t, repo.AcquireActivation(ctx, id, now.Add(time.Second), time.Minute), domain.ErrInvalidState)

		require.NoError(t, repo.ReleaseActivation(ctx, id))
		require.NoError(t, repo.AcquireActivation(ctx, id, now.Add(2*time.Second), time.Minute))

		// a crashed holder's lease lapses
		require.NoError(t, repo.AcquireActivation(ctx, id, now.Add(5*time.Minute), time.Minute))
	})
}

func TestEventRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewEventRepository(db)

	t.Run("Activate stores event and categories once", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, db)
		event := activateFixture(t, ctx, db, map[string]int{"GA": 2, "VIP": 1})

		got, err := repo.GetByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, "0xabc", got.ContractAddress)
		assert.False(t, got.TicketsReady)

		cats, err := repo.ListCategories(ctx, event.ID)
		require.NoError(t, err)
		require.Len(t, cats, 2)
		assert.Equal(t, "GA", cats[0].Name)
		assert.Equal(t, 12.5, cats[0].Price)

		pending, err := NewPendingEventRepository(db).GetByID(ctx, event.PendingEventID)
		require.NoError(t, err)
		assert.True(t, pending.IsActive)

		again := domain.NewEventFromPending(pending, "0xdef", time.Now().UTC())
		err = repo.Activate(ctx, pending.ID, again, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("GetCategory is scoped to the event", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, db)
		first := activateFixture(t, ctx, db, map[string]int{"GA": 1})
		second := activateFixture(t, ctx, db, map[string]int{"GA": 1})

		_, err := repo.GetCategory(ctx, first.ID, first.Categories[0].ID)
		require.NoError(t, err)

		_, err = repo.GetCategory(ctx, second.ID, first.Categories[0].ID)
		assert.ErrorIs(t, err, domain.ErrCategoryNotFound)

		_, err = repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrEventNotFound)
	})

	t.Run("ListAwaitingMint drops ready and past events", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, db)
		ready := activateFixture(t, ctx, db, map[string]int{"GA": 1})
		waiting := activateFixture(t, ctx, db, map[string]int{"GA": 1})
		past := activateFixture(t, ctx, db, map[string]int{"GA": 1})

		require.NoError(t, repo.SetTicketsReady(ctx, ready.ID, true))
		_, err := db.ExecContext(ctx, `UPDATE events SET date = NOW() - INTERVAL '1 hour' WHERE id = $1`, past.ID)
		require.NoError(t, err)

		ids, err := repo.ListAwaitingMint(ctx, time.Now().UTC(), 10)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{waiting.ID}, ids)

		assert.ErrorIs(t, repo.SetTicketsReady(ctx, uuid.New(), true), domain.ErrEventNotFound)
	})

	t.Run("ListAwaitingMint puts least recently attempted events first", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, db)
		first := activateFixture(t, ctx, db, map[string]int{"GA": 1})
		second := activateFixture(t, ctx, db, map[string]int{"GA": 1})
		third := activateFixture(t, ctx, db, map[string]int{"GA": 1})
		now := time.Now().UTC()

		attempt := func(id uuid.UUID, at time.Time) {
			require.NoError(t, repo.AcquireMinting(ctx, id, at, time.Minute))
			require.NoError(t, repo.ReleaseMinting(ctx, id))
		}

		// the two oldest events keep failing and would fill a page on their own
		attempt(first.ID, now)
		attempt(second.ID, now.Add(time.Second))

		ids, err := repo.ListAwaitingMint(ctx, now, 2)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{third.ID, first.ID}, ids)

		attempt(third.ID, now.Add(2*time.Second))
		attempt(first.ID, now.Add(3*time.Second))

		ids, err = repo.ListAwaitingMint(ctx, now, 2)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{second.ID, third.ID}, ids)
	})

	t.Run("minting lease is exclusive until released or expired", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, db)
		event := activateFixture(t, ctx, db, map[string]int{"GA": 1})
		now := time.Now().UTC()

		require.NoError(t, repo.AcquireMinting(ctx, event.ID, now, time.Minute))
		assert.ErrorIs(t, repo.AcquireMinting(ctx, event.ID, now.Add(time.Second), time.Minute), domain.ErrMintingInProgress)

		require.NoError(t, repo.ReleaseMinting(ctx, event.ID))
		require.NoError(t, repo.AcquireMinting(ctx, event.ID, now.Add(2*time.Second), time.Minute))

		// a crashed holder's lease lapses
		require.NoError(t, repo.AcquireMinting(ctx, event.ID, now.Add(5*time.Minute), time.Minute))

		assert.ErrorIs(t, repo.AcquireMinting(ctx, uuid.New(), now, time.Minute), domain.ErrEventNotFound)
	})

	t.Run("Filter and SearchByName", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, db)
		a := activateFixture(t, ctx, db, map[string]int{"GA": 1})
		b := activateFixture(t, ctx, db, map[string]int{"GA": 1})
		_, err := db.ExecContext(ctx, `UPDATE events SET event_name = 'Jazz 100% Live', date = date + INTERVAL '1 day' WHERE id = $1`, b.ID)
		require.NoError(t, err)

		f, err := domain.EventFilter{SortBy: domain.SortByDate, SortOrder: domain.SortDesc}.Normalize(time.Now().UTC())
		require.NoError(t, err)
		events, err := repo.Filter(ctx, f)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, b.ID, events[0].ID)
		assert.Equal(t, a.ID, events[1].ID)

		f.PageSize, f.Page = 1, 2
		events, err = repo.Filter(ctx, f)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, a.ID, events[0].ID)

		past := time.Now().UTC()
		f, err = domain.EventFilter{EndDate: &past}.Normalize(past)
		require.NoError(t, err)
		events, err = repo.Filter(ctx, f)
		require.NoError(t, err)
		assert.Empty(t, events)

		events, err = repo.SearchByName(ctx, "100%")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, b.ID, events[0].ID)

		events, err = repo.SearchByName(ctx, "summer")
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})
}

func TestTicketRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTicketRepository(db)

	t.Run("BulkInsert and MintProgress", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, db)
		event := activateFixture(t, ctx, db, map[string]int{"GA": 3})
		cat := event.Categories[0]

		progress, err := repo.MintProgress(ctx, cat.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.MintProgress{CategoryID: cat.ID}, progress)

		require.NoError(t, repo.BulkInsert(ctx, []domain.TicketInstance{
			domain.NewTicketInstance(event.ID, cat, 0, time.Now().UTC()),
			domain.NewTicketInstance(event.ID, cat, 1, time.Now().UTC()),
		}))

		progress, err = repo.MintProgress(ctx, cat.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, progress.Issued)
		assert.Equal(t, 2, progress.NextTokenIndex)

		unsold, err := repo.CountUnsold(ctx, cat.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, unsold)
	})

	t.Run("BulkInsert rejects duplicates and overflow", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, db)
		event := activateFixture(t, ctx, db, map[string]int{"GA": 2})
		cat := event.Categories[0]

		require.NoError(t, repo.BulkInsert(ctx, []domain.TicketInstance{domain.NewTicketInstance(event.ID, cat, 0, time.Now().UTC())}))

		err := repo.BulkInsert(ctx, []domain.TicketInstance{domain.NewTicketInstance(event.ID, cat, 0, time.Now().UTC())})
		assert.ErrorIs(t, err, domain.ErrTokenAlreadyMinted)

		err = repo.BulkInsert(ctx, []domain.TicketInstance{domain.NewTicketInstance(event.ID, cat, 2, time.Now().UTC())})
		assert.Error(t, err)

		assert.Equal(t, []int{0}, testutil.TokenIndexes(t, ctx, db, cat.ID))
	})

	t.Run("Claim assigns ownership and reports sold out", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, db)
		event := activateFixture(t, ctx, db, map[string]int{"GA": 1})
		mintAll(t, ctx, repo, event)
		cat := event.Categories[0]
		user := uuid.New()
		now := time.Now().UTC().Truncate(time.Microsecond)

		ticket, err := repo.Claim(ctx, event.ID, cat.ID, user, now)
		require.NoError(t, err)
		require.NotNil(t, ticket.OwnerID)
		assert.Equal(t, user, *ticket.OwnerID)
		assert.True(t, ticket.Sold)
		assert.Equal(t, "0", ticket.TokenID)
		require.NotNil(t, ticket.SoldAt)
		assert.True(t, now.Equal(*ticket.SoldAt))

		owns, err := repo.UserHasTicket(ctx, event.ID, user)
		require.NoError(t, err)
		assert.True(t, owns)

		_, err = repo.Claim(ctx, event.ID, cat.ID, uuid.New(), now)
		assert.ErrorIs(t, err, domain.ErrSoldOut)
	})

	t.Run("Claim waits on a row held by a claimer that rolls back", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, db)
		event := activateFixture(t, ctx, db, map[string]int{"GA": 1})
		mintAll(t, ctx, repo, event)
		cat := event.Categories[0]

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		var lockedID uuid.UUID
		require.NoError(t, tx.QueryRowContext(ctx,
			`SELECT id FROM ticket_instances WHERE category_id = $1 FOR UPDATE`, cat.ID).Scan(&lockedID))

		type result struct {
			ticket *domain.TicketInstance
			err    error
		}
		done := make(chan result, 1)
		go func() {
			ticket, err := repo.Claim(ctx, event.ID, cat.ID, uuid.New(), time.Now().UTC())
			done <- result{ticket, err}
		}()

		select {
		case r := <-done:
			_ = tx.Rollback()
			t.Fatalf("claim returned while the only ticket was locked: %v", r.err)
		case <-time.After(200 * time.Millisecond):
		}
		require.NoError(t, tx.Rollback())

		select {
		case r := <-done:
			require.NoError(t, r.err)
			assert.Equal(t, lockedID, r.ticket.ID)
		case <-time.After(5 * time.Second):
			t.Fatal("claim did not finish after the other transaction rolled back")
		}
	})

	t.Run("one ticket per user per event across categories", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, db)
		event := activateFixture(t, ctx, db, map[string]int{"GA": 2, "VIP": 2})
		mintAll(t, ctx, repo, event)
		user := uuid.New()

		_, err := repo.Claim(ctx, event.ID, event.Categories[0].ID, user, time.Now().UTC())
		require.NoError(t, err)

		_, err = repo.Claim(ctx, event.ID, event.Categories[1].ID, user, time.Now().UTC())
		assert.ErrorIs(t, err, domain.ErrDuplicatePurchase)
	})

	t.Run("concurrent claims never oversell", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, db)
		const supply, buyers = 3, 12
		event := activateFixture(t, ctx, db, map[string]int{"GA": supply})
		mintAll(t, ctx, repo, event)
		cat := event.Categories[0]

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			sold     = map[string]uuid.UUID{}
			soldOut  int
			unexpect []error
		)

		wg.Add(buyers)
		for i := 0; i < buyers; i++ {
			go func() {
				defer wg.Done()
				user := uuid.New()
				ticket, err := repo.Claim(ctx, event.ID, cat.ID, user, time.Now().UTC())

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					sold[ticket.TokenID] = user
				case errors.Is(err, domain.ErrSoldOut):
					soldOut++
				default:
					unexpect = append(unexpect, err)
				}
			}()
		}
		wg.Wait()

		assert.Empty(t, unexpect)
		assert.Len(t, sold, supply)
		assert.Equal(t, buyers-supply, soldOut)

		unsold, err := repo.CountUnsold(ctx, cat.ID)
		require.NoError(t, err)
		assert.Zero(t, unsold)
	})
}

func TestActivate_ConcurrentTransactions(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	testutil.TruncateAll(t, ctx, db)

	plan, _ := json.Marshal([]map[string]any{{"name": "GA", "quantity": 1, "price": 5}})
	pendingID := testutil.InsertPendingEvent(t, ctx, db, "Race", time.Now().Add(time.Hour), string(plan))
	pending, err := NewPendingEventRepository(db).GetByID(ctx, pendingID)
	require.NoError(t, err)

	repo := NewEventRepository(db)
	const callers = 5
	results := make(chan error, callers)

	for i := 0; i < callers; i++ {
		go func() {
			event := domain.NewEventFromPending(pending, "0xabc", time.Now().UTC())
			cats := []domain.TicketCategory{{ID: uuid.New(), EventID: event.ID, Name: "GA", Price: 5, Quantity: 1}}
			results <- repo.Activate(ctx, pendingID, event, cats)
		}()
	}

	var ok, invalid int
	for i := 0; i < callers; i++ {
		err := <-results
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInvalidState):
			invalid++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, invalid)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE pending_event_id = $1`, pendingID).Scan(&count))
	assert.Equal(t, 1, count)
}

type scenarioMinter struct{}

func (scenarioMinter) DeployCollection(_ context.Context, _ string, _ int) (string, error) {
	return "0xscenario", nil
}

func (scenarioMinter) MintUnit(_ context.Context, _ ports.MintRequest) error {
	return nil
}

var _ ports.Minter = scenarioMinter{}

func TestPurchaseScenario_SoldOutAfterSupply(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	testutil.TruncateAll(t, ctx, db)

	// cache writes fail fast and are only logged
	cache := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { cache.Close() })

	clk := clock.NewSystem()
	log := zap.NewNop()
	pendingRepo := NewPendingEventRepository(db)
	eventRepo := NewEventRepository(db)
	ticketRepo := NewTicketRepository(db)

	activation := services.NewActivationService(pendingRepo, eventRepo, scenarioMinter{}, clk, log)
	minting := services.NewMintingService(eventRepo, ticketRepo, scenarioMinter{}, cache, clk, log)
	purchase := services.NewPurchaseService(eventRepo, ticketRepo, cache, clk, log)

	pendingID := testutil.InsertPendingEvent(t, ctx, db, "Summer Concert", time.Now().Add(30*24*time.Hour),
		`[{"name":"GA","quantity":2,"price":"10"}]`)

	event, err := activation.Activate(ctx, pendingID.String())
	require.NoError(t, err)
	require.Len(t, event.Categories, 1)
	ga := event.Categories[0]
	assert.Equal(t, 2, ga.Quantity)

	require.NoError(t, minting.MintEvent(ctx, event.ID.String()))
	assert.Equal(t, []int{0, 1}, testutil.TokenIndexes(t, ctx, db, ga.ID))

	stored, err := eventRepo.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, stored.TicketsReady)

	buy := func(user uuid.UUID) (*domain.TicketInstance, error) {
		return purchase.Purchase(ctx, services.PurchaseTicketRequest{
			EventID:    event.ID.String(),
			CategoryID: ga.ID.String(),
			UserID:     user.String(),
		})
	}

	userA, userB := uuid.New(), uuid.New()
	var wg sync.WaitGroup
	tickets := make([]*domain.TicketInstance, 2)
	errs := make([]error, 2)

	wg.Add(2)
	for i, user := range []uuid.UUID{userA, userB} {
		go func() {
			defer wg.Done()
			tickets[i], errs[i] = buy(user)
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.ElementsMatch(t, []string{"0", "1"}, []string{tickets[0].TokenID, tickets[1].TokenID})
	assert.Equal(t, userA, *tickets[0].OwnerID)
	assert.Equal(t, userB, *tickets[1].OwnerID)

	_, err = buy(uuid.New())
	assert.ErrorIs(t, err, domain.ErrSoldOut)

	unsold, err := ticketRepo.CountUnsold(ctx, ga.ID)
	require.NoError(t, err)
	assert.Zero(t, unsold)
}
