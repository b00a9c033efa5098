package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	freezeserrors "tripfare/internal/freezes/errors"
	"tripfare/pkg/clock"
	"tripfare/pkg/config"
	apperrors "tripfare/pkg/errors"
	"tripfare/pkg/logger"
	"tripfare/pkg/model"
	"tripfare/pkg/sealer"
)

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// memoryFreezes enforces the one-active-freeze-per-tuple rule like the unique partial index.
type memoryFreezes struct {
	mu      sync.Mutex
	freezes map[string]model.PriceFreeze
	order   []string

	insertErr error
}

func newMemoryFreezes() *memoryFreezes {
	return &memoryFreezes{freezes: make(map[string]model.PriceFreeze)}
}

func (m *memoryFreezes) Insert(_ context.Context, f *model.PriceFreeze) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	for _, existing := range m.freezes {
		if existing.State == model.FreezeActive && existing.UserID == f.UserID &&
			existing.ItemKind == f.ItemKind && existing.ItemID == f.ItemID {
			return fmt.Errorf("%w: duplicate", freezeserrors.ErrAlreadyFrozen)
		}
	}
	stored := *f
	stored.Token = ""
	m.freezes[f.ID] = stored
	m.order = append(m.order, f.ID)
	return nil
}

func (m *memoryFreezes) FindByID(_ context.Context, id string) (*model.PriceFreeze, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.freezes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", freezeserrors.ErrNotFound, id)
	}
	return &f, nil
}

func (m *memoryFreezes) FindByUser(_ context.Context, userID string) ([]*model.PriceFreeze, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PriceFreeze
	for i := len(m.order) - 1; i >= 0; i-- {
		f := m.freezes[m.order[i]]
		if f.UserID == userID {
			out = append(out, &f)
		}
	}
	return out, nil
}

func (m *memoryFreezes) FindActive(_ context.Context, userID string, kind model.ItemKind, itemID string) (*model.PriceFreeze, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.freezes {
		if f.State == model.FreezeActive && f.UserID == userID && f.ItemKind == kind && f.ItemID == itemID {
			return &f, nil
		}
	}
	return nil, freezeserrors.ErrNotFound
}

func (m *memoryFreezes) Transition(_ context.Context, f *model.PriceFreeze, from model.FreezeState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.freezes[f.ID]
	if !ok || stored.State != from {
		return fmt.Errorf("%w: %s", freezeserrors.ErrStateChanged, f.ID)
	}
	stored.State = f.State
	stored.RedeemedAt = f.RedeemedAt
	stored.ExpiredAt = f.ExpiredAt
	m.freezes[f.ID] = stored
	return nil
}

func (m *memoryFreezes) get(id string) model.PriceFreeze {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.freezes[id]
}

func (m *memoryFreezes) countByState(state model.FreezeState) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, f := range m.freezes {
		if f.State == state {
			n++
		}
	}
	return n
}

type fixedPricer struct {
	price int64
	err   error
}

func (p fixedPricer) ReferencePrice(context.Context, model.ItemKind, string, int64) (int64, error) {
	return p.price, p.err
}

type freezeEvent struct {
	eventType string
	freezeID  string
	state     model.FreezeState
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []freezeEvent
}

func (p *recordingPublisher) PriceChanged(context.Context, *model.PriceRecord) {}

func (p *recordingPublisher) FreezeChanged(_ context.Context, eventType string, f *model.PriceFreeze, _ time.Time) {
	p.mu.Lock()
	p.events = append(p.events, freezeEvent{eventType: eventType, freezeID: f.ID, state: f.State})
	p.mu.Unlock()
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.eventType
	}
	return out
}

type fixture struct {
	svc       FreezeService
	repo      *memoryFreezes
	clock     *clock.MockClock
	sealer    *sealer.Sealer
	publisher *recordingPublisher
}

func newFixture(t *testing.T, pricer ReferencePricer) *fixture {
	t.Helper()
	if pricer == nil {
		pricer = NewMarkupReferencePricer(config.DefaultFreezeReferenceMarkup)
	}
	s, err := sealer.New(config.DefaultFreezeTokenKey)
	require.NoError(t, err)

	clk := clock.NewMockClock(testNow)
	repo := newMemoryFreezes()
	pub := &recordingPublisher{}
	cfg := &config.Config{
		Log:          logger.Discard(),
		FreezeWindow: 24 * time.Hour,
	}
	return &fixture{
		svc:       NewFreezeService(repo, pricer, s, pub, clk, cfg),
		repo:      repo,
		clock:     clk,
		sealer:    s,
		publisher: pub,
	}
}

func freezeRequest(user, itemID string, price int64) *model.FreezeRequest {
	return &model.FreezeRequest{UserID: user, ItemKind: model.KindFlight, ItemID: itemID, CurrentPrice: price}
}

func TestCreate_SavingsAndRedeem(t *testing.T) {
	f := newFixture(t, fixedPricer{price: 10500})
	ctx := context.Background()

	created, err := f.svc.Create(ctx, freezeRequest("user-1", "FL-100", 9000))
	require.NoError(t, err)

	assert.Equal(t, int64(9000), created.FrozenPrice)
	assert.Equal(t, int64(10500), created.ReferencePrice)
	assert.Equal(t, int64(1500), created.Savings)
	assert.Equal(t, model.FreezeActive, created.State)
	assert.Equal(t, testNow, created.WindowStart)
	assert.Equal(t, testNow.Add(24*time.Hour), created.WindowEnd)

	id, user, err := f.sealer.Open(created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, id)
	assert.Equal(t, "user-1", user)

	f.clock.Advance(3 * time.Hour)
	redeemed, err := f.svc.Redeem(ctx, created.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(9000), redeemed.FrozenPrice)
	assert.Equal(t, int64(1500), redeemed.Savings)
	assert.Equal(t, model.FreezeUsed, redeemed.State)
	require.NotNil(t, redeemed.RedeemedAt)
	assert.Equal(t, testNow.Add(3*time.Hour), *redeemed.RedeemedAt)

	assert.Equal(t, model.FreezeUsed, f.repo.get(created.ID).State)
	assert.Equal(t, []string{"freeze.created", "freeze.redeemed"}, f.publisher.types())
}

func TestCreate_DefaultMarkup(t *testing.T) {
	f := newFixture(t, nil)

	created, err := f.svc.Create(context.Background(), freezeRequest("user-1", "FL-100", 9000))
	require.NoError(t, err)
	assert.Equal(t, int64(10350), created.ReferencePrice)
	assert.Equal(t, int64(1350), created.Savings)
}

func TestCreate_ReferenceNeverBelowFrozen(t *testing.T) {
	f := newFixture(t, fixedPricer{price: 100})

	created, err := f.svc.Create(context.Background(), freezeRequest("user-1", "FL-100", 9000))
	require.NoError(t, err)
	assert.Equal(t, int64(9000), created.ReferencePrice)
	assert.Zero(t, created.Savings)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Create(context.Background(), &model.FreezeRequest{UserID: "  ", ItemKind: "bus", ItemID: "FL-1", CurrentPrice: 0})
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
	details := apperrors.AsAppError(err).Details
	assert.Contains(t, details, "user_id")
	assert.Contains(t, details, "item_kind")
	assert.Contains(t, details, "current_price")
	assert.Zero(t, len(f.repo.order))
}

func TestCreate_ConflictWhileActive(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, freezeRequest("user-1", "FL-100", 9000))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, freezeRequest("user-1", "fl-100", 8000))
	require.True(t, apperrors.HasCode(err, apperrors.CodeConflict), "got %v", err)
	assert.True(t, errors.Is(err, freezeserrors.ErrAlreadyFrozen))
	assert.Equal(t, first.ID, apperrors.AsAppError(err).Details["freeze_id"])
	assert.Len(t, f.repo.order, 1)

	other, err := f.svc.Create(ctx, freezeRequest("user-2", "FL-100", 9000))
	require.NoError(t, err, "other users are unaffected")
	assert.NotEqual(t, first.ID, other.ID)

	_, err = f.svc.Create(ctx, freezeRequest("user-1", "FL-200", 9000))
	require.NoError(t, err, "other items are unaffected")
}

func TestCreate_InsertRaceMapsToConflict(t *testing.T) {
	f := newFixture(t, nil)
	f.repo.insertErr = fmt.Errorf("%w: duplicate key", freezeserrors.ErrAlreadyFrozen)

	_, err := f.svc.Create(context.Background(), freezeRequest("user-1", "FL-100", 9000))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict), "got %v", err)
	assert.Empty(t, f.publisher.types())
}

func TestCreate_ConcurrentExclusivity(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	const callers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(ctx, freezeRequest("user-1", "FL-100", 9000))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperrors.HasCode(err, apperrors.CodeConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, conflicts)
	assert.Equal(t, 1, f.repo.countByState(model.FreezeActive))
}

func TestCreate_ReplacesLapsedActiveFreeze(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	old, err := f.svc.Create(ctx, freezeRequest("user-1", "FL-100", 9000))
	require.NoError(t, err)

	f.clock.Advance(24*time.Hour + time.Second)
	fresh, err := f.svc.Create(ctx, freezeRequest("user-1", "FL-100", 9500))
	require.NoError(t, err)

	assert.Equal(t, model.FreezeExpired, f.repo.get(old.ID).State)
	assert.Equal(t, model.FreezeActive, f.repo.get(fresh.ID).State)
	assert.Equal(t, []string{"freeze.created", "freeze.expired", "freeze.created"}, f.publisher.types())
}

func TestRedeem_WindowBoundary(t *testing.T) {
	tests := []struct {
		name      string
		offset    time.Duration
		wantCode  string
		wantState model.FreezeState
	}{
		{name: "one second before window end", offset: -time.Second, wantState: model.FreezeUsed},
		{name: "exactly at window end", offset: 0, wantState: model.FreezeUsed},
		{name: "one second after window end", offset: time.Second, wantCode: apperrors.CodeFreezeExpired, wantState: model.FreezeExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			ctx := context.Background()

			created, err := f.svc.Create(ctx, freezeRequest("user-1", "FL-100", 9000))
			require.NoError(t, err)

			f.clock.Set(created.WindowEnd.Add(tt.offset))
			redeemed, err := f.svc.Redeem(ctx, created.ID, "user-1")
			if tt.wantCode != "" {
				require.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
				assert.True(t, errors.Is(err, freezeserrors.ErrFreezeExpired))
				assert.Nil(t, redeemed)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(9000), redeemed.FrozenPrice)
			}
			assert.Equal(t, tt.wantState, f.repo.get(created.ID).State)
		})
	}
}

func TestRedeem_TerminalStates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	used, err := f.svc.Create(ctx, freezeRequest("user-1", "FL-100", 9000))
	require.NoError(t, err)
	_, err = f.svc.Redeem(ctx, used.ID, "user-1")
	require.NoError(t, err)

	_, err = f.svc.Redeem(ctx, used.ID, "user-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict), "got %v", err)
	assert.True(t, errors.Is(err, freezeserrors.ErrAlreadyUsed))

	expired, err := f.svc.Create(ctx, freezeRequest("user-1", "FL-200", 9000))
	require.NoError(t, err)
	f.clock.Advance(48 * time.Hour)
	_, err = f.svc.Redeem(ctx, expired.ID, "user-1")
	require.True(t, apperrors.HasCode(err, apperrors.CodeFreezeExpired), "got %v", err)

	f.clock.Set(testNow)
	_, err = f.svc.Redeem(ctx, expired.ID, "user-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeFreezeExpired), "expired is terminal even inside the window, got %v", err)
	assert.Equal(t, model.FreezeUsed, f.repo.get(used.ID).State)
}

func TestRedeem_NotFound(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, freezeRequest("user-1", "FL-100", 9000))
	require.NoError(t, err)

	tests := []struct {
		name     string
		id       string
		user     string
		wantCode string
	}{
		{name: "other user", id: created.ID, user: "user-2", wantCode: apperrors.CodeNotFound},
		{name: "unknown id", id: "7d3c4f52-8a59-4b55-9a61-0f8f0e0f2a11", user: "user-1", wantCode: apperrors.CodeNotFound},
		{name: "malformed id", id: "not-a-uuid", user: "user-1", wantCode: apperrors.CodeNotFound},
		{name: "missing user", id: created.ID, user: " ", wantCode: apperrors.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Redeem(ctx, tt.id, tt.user)
			assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
	assert.Equal(t, model.FreezeActive, f.repo.get(created.ID).State)
}

func TestRedeem_ConcurrentRedemptionSucceedsOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, freezeRequest("user-1", "FL-100", 9000))
	require.NoError(t, err)

	const callers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Redeem(ctx, created.ID, "user-1")
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !apperrors.HasCode(err, apperrors.CodeConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)
}

func TestRedeemByToken(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, freezeRequest("user-1", "FL-100", 9000))
	require.NoError(t, err)

	redeemed, err := f.svc.RedeemByToken(ctx, created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, redeemed.ID)
	assert.Equal(t, model.FreezeUsed, redeemed.State)

	_, err = f.svc.RedeemByToken(ctx, created.Token[:len(created.Token)-2]+"xx")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput), "got %v", err)
}

func TestGet_LazyExpiry(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, freezeRequest("user-1", "FL-100", 9000))
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, created.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.FreezeActive, got.State)
	assert.NotEmpty(t, got.Token)

	f.clock.Set(created.WindowEnd.Add(time.Second))
	got, err = f.svc.Get(ctx, created.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.FreezeExpired, got.State)
	assert.Empty(t, got.Token)

	stored := f.repo.get(created.ID)
	assert.Equal(t, model.FreezeExpired, stored.State)
	require.NotNil(t, stored.ExpiredAt)
	assert.Equal(t, created.WindowEnd.Add(time.Second), *stored.ExpiredAt)

	_, err = f.svc.Get(ctx, created.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"freeze.created", "freeze.expired"}, f.publisher.types(), "expiry is persisted once")
}

func TestList_PartitionsByPresentedState(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	toUse, err := f.svc.Create(ctx, freezeRequest("user-1", "FL-1", 9000))
	require.NoError(t, err)
	_, err = f.svc.Redeem(ctx, toUse.ID, "user-1")
	require.NoError(t, err)

	toLapse, err := f.svc.Create(ctx, freezeRequest("user-1", "FL-2", 9000))
	require.NoError(t, err)

	f.clock.Advance(20 * time.Hour)
	live, err := f.svc.Create(ctx, freezeRequest("user-1", "FL-3", 9000))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, freezeRequest("user-2", "FL-3", 9000))
	require.NoError(t, err)

	f.clock.Advance(5 * time.Hour)
	list, err := f.svc.List(ctx, " user-1 ")
	require.NoError(t, err)

	require.Len(t, list.Active, 1)
	assert.Equal(t, live.ID, list.Active[0].ID)
	assert.NotEmpty(t, list.Active[0].Token)
	require.Len(t, list.Used, 1)
	assert.Equal(t, toUse.ID, list.Used[0].ID)
	require.Len(t, list.Expired, 1)
	assert.Equal(t, toLapse.ID, list.Expired[0].ID)
	assert.Equal(t, model.FreezeExpired, f.repo.get(toLapse.ID).State)

	empty, err := f.svc.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty.Active)
	assert.NotNil(t, empty.Active)

	_, err = f.svc.List(ctx, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput), "got %v", err)
}
