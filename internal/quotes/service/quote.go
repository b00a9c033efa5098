package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"tripfare/internal/events"
	inventoryerrors "tripfare/internal/inventory/errors"
	"tripfare/internal/pricing"
	quoteserrors "tripfare/internal/quotes/errors"
	"tripfare/internal/quotes/repository"
	"tripfare/pkg/clock"
	"tripfare/pkg/config"
	mongodb "tripfare/pkg/db/mongo"
	apperrors "tripfare/pkg/errors"
	"tripfare/pkg/lock"
	"tripfare/pkg/model"
	"tripfare/pkg/sanitizer"
)

const (
	maxOccupancyAttempts = 5
	storeRetryBackoff    = 50 * time.Millisecond
)

// CatalogReader supplies the base price and capacity a new record is seeded from.
type CatalogReader interface {
	FindByKey(ctx context.Context, kind model.ItemKind, itemID string) (*model.InventoryItem, error)
}

type QuoteService interface {
	GetQuote(ctx context.Context, kind model.ItemKind, itemID, dateKey string) (*model.Quote, error)
	History(ctx context.Context, kind model.ItemKind, itemID string, days int, dateKey string) (*model.PriceHistory, error)
	ApplyOccupancy(ctx context.Context, update *model.OccupancyUpdate) (*model.Quote, error)
}

type quoteService struct {
	repo      repository.PriceRecordRepository
	catalog   CatalogReader
	repricer  *pricing.Repricer
	locker    lock.Locker
	publisher events.Publisher
	clock     clock.Clock
	validate  *validator.Validate
	cfg       *config.Config
}

func NewQuoteService(
	repo repository.PriceRecordRepository,
	catalog CatalogReader,
	repricer *pricing.Repricer,
	locker lock.Locker,
	publisher events.Publisher,
	clk clock.Clock,
	cfg *config.Config,
) QuoteService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &quoteService{
		repo:      repo,
		catalog:   catalog,
		repricer:  repricer,
		locker:    locker,
		publisher: publisher,
		clock:     clk,
		validate:  model.NewValidator(),
		cfg:       cfg,
	}
}

type itemKey struct {
	kind     model.ItemKind
	itemID   string
	dateKey  string
	evalDate time.Time
}

func parseKey(kind model.ItemKind, itemID, dateKey string) (itemKey, error) {
	key := itemKey{
		kind:    model.ItemKind(sanitizer.ItemKind(string(kind))),
		itemID:  sanitizer.ItemID(itemID),
		dateKey: dateKey,
	}
	if !key.kind.Valid() {
		return key, apperrors.InvalidInput("item kind must be flight or hotel")
	}
	if !model.ValidItemID(key.itemID) {
		return key, apperrors.InvalidInput("invalid item id")
	}
	evalDate, err := model.ParseDateKey(dateKey)
	if err != nil {
		return key, apperrors.InvalidInput("date key must be YYYY-MM-DD or YYYY-MM-DD_YYYY-MM-DD")
	}
	key.evalDate = evalDate
	return key, nil
}

func (k itemKey) recordID() string {
	return model.PriceRecordID(k.kind, k.itemID, k.dateKey)
}

// GetQuote returns the cached price, refreshing it first when the refresh interval has
// elapsed. The record is created from the catalog on first use.
func (s *quoteService) GetQuote(ctx context.Context, kind model.ItemKind, itemID, dateKey string) (*model.Quote, error) {
	key, err := parseKey(kind, itemID, dateKey)
	if err != nil {
		return nil, err
	}

	rec, err := s.loadOrCreate(ctx, key)
	if err != nil {
		return nil, err
	}

	if rec.IsStale(s.clock.Now(), s.cfg.PriceRefreshInterval) {
		rec, err = s.refresh(ctx, key)
		if err != nil {
			return nil, err
		}
	}

	return model.NewQuote(rec, s.cfg.PriceRefreshInterval), nil
}

func (s *quoteService) loadOrCreate(ctx context.Context, key itemKey) (*model.PriceRecord, error) {
	rec, err := s.find(ctx, key.recordID())
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, quoteserrors.ErrNotFound) {
		return nil, s.storeError("Failed to load price record", key, err)
	}

	var item *model.InventoryItem
	err = s.retry(ctx, func(ctx context.Context) error {
		var findErr error
		item, findErr = s.catalog.FindByKey(ctx, key.kind, key.itemID)
		return findErr
	})
	if err != nil {
		if errors.Is(err, inventoryerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Inventory item", model.InventoryItemID(key.kind, key.itemID)).WithCause(err)
		}
		return nil, s.storeError("Failed to load inventory item", key, err)
	}

	rec = s.repricer.NewRecord(item, key.dateKey, key.evalDate, s.clock.Now())
	if err := s.repo.Insert(ctx, rec); err != nil {
		if errors.Is(err, quoteserrors.ErrVersionConflict) {
			existing, findErr := s.find(ctx, key.recordID())
			if findErr != nil {
				return nil, s.storeError("Failed to load price record", key, findErr)
			}
			return existing, nil
		}
		return nil, s.storeError("Failed to create price record", key, err)
	}

	s.cfg.Log.Info("Price record created",
		"record_id", rec.ID,
		"base_price", rec.BasePrice,
		"current_price", rec.CurrentPrice,
		"demand_multiplier", rec.DemandMultiplier,
	)
	s.publisher.PriceChanged(ctx, rec)
	return rec, nil
}

// refresh reprices a stale record under the per-record lock. A caller that loses the lock
// race, or whose write loses the version race, returns whatever is stored.
func (s *quoteService) refresh(ctx context.Context, key itemKey) (*model.PriceRecord, error) {
	id := key.recordID()

	unlock, err := s.locker.TryLock(ctx, "price:"+id, s.cfg.RefreshLockTTL)
	switch {
	case errors.Is(err, lock.ErrNotAcquired):
		s.cfg.Log.Debug("Refresh already in progress, serving cached price", "record_id", id)
		return s.findOrFail(ctx, key)
	case err != nil:
		s.cfg.Log.Warn("Refresh lock unavailable, relying on version check", "record_id", id, "error", err)
	default:
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.cfg.Log.Warn("Failed to release refresh lock", "record_id", id, "error", err)
			}
		}()
	}

	rec, err := s.findOrFail(ctx, key)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if !rec.IsStale(now, s.cfg.PriceRefreshInterval) {
		return rec, nil
	}

	expected := rec.Version
	consumed := s.repricer.Refresh(rec, key.evalDate, now)

	err = s.retry(ctx, func(ctx context.Context) error {
		return s.repo.CompareAndSwap(ctx, rec, expected)
	})
	if err != nil {
		if errors.Is(err, quoteserrors.ErrVersionConflict) {
			s.cfg.Log.Debug("Concurrent refresh won, serving stored price", "record_id", id)
			return s.findOrFail(ctx, key)
		}
		return nil, s.storeError("Failed to save refreshed price", key, err)
	}

	s.cfg.Log.Info("Price refreshed",
		"record_id", id,
		"previous_price", rec.PreviousPrice,
		"current_price", rec.CurrentPrice,
		"booking_trend", rec.BookingTrend,
		"units_consumed", consumed,
		"occupancy_ratio", rec.OccupancyRatio,
	)
	if rec.CurrentPrice != rec.PreviousPrice {
		s.publisher.PriceChanged(ctx, rec)
	}
	return rec, nil
}

// History merges the snapshots of every date record of the item taken within the last days,
// oldest first with ties ordered by date key.
func (s *quoteService) History(ctx context.Context, kind model.ItemKind, itemID string, days int, dateKey string) (*model.PriceHistory, error) {
	kind = model.ItemKind(sanitizer.ItemKind(string(kind)))
	itemID = sanitizer.ItemID(itemID)
	if !kind.Valid() {
		return nil, apperrors.InvalidInput("item kind must be flight or hotel")
	}
	if !model.ValidItemID(itemID) {
		return nil, apperrors.InvalidInput("invalid item id")
	}
	if days <= 0 {
		return nil, apperrors.InvalidInput("days must be positive")
	}
	if dateKey != "" {
		if _, err := model.ParseDateKey(dateKey); err != nil {
			return nil, apperrors.InvalidInput("date key must be YYYY-MM-DD or YYYY-MM-DD_YYYY-MM-DD")
		}
	}

	var records []*model.PriceRecord
	err := s.retry(ctx, func(ctx context.Context) error {
		var findErr error
		records, findErr = s.repo.FindByItem(ctx, kind, itemID, dateKey)
		return findErr
	})
	if err != nil {
		return nil, s.storeError("Failed to load price history", itemKey{kind: kind, itemID: itemID, dateKey: dateKey}, err)
	}
	if len(records) == 0 {
		return nil, apperrors.NotFoundWithID("Price history", model.InventoryItemID(kind, itemID)).WithCause(quoteserrors.ErrNotFound)
	}

	now := s.clock.Now()
	policy := s.repricer.History()
	entries := make([]model.HistoryEntry, 0)
	for _, rec := range records {
		for _, snap := range policy.Query(rec.History, days, now) {
			entries = append(entries, model.HistoryEntry{DateKey: rec.DateKey, PriceSnapshot: snap})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].TakenAt.Equal(entries[j].TakenAt) {
			return entries[i].TakenAt.Before(entries[j].TakenAt)
		}
		return entries[i].DateKey < entries[j].DateKey
	})

	return &model.PriceHistory{
		ItemKind:  kind,
		ItemID:    itemID,
		Days:      days,
		Snapshots: entries,
	}, nil
}

// ApplyOccupancy reprices a record against capacity reported by the booking layer. It
// retries version conflicts so the report is never lost to a concurrent refresh. Reports
// stamped earlier than the newest one already applied leave the record untouched.
func (s *quoteService) ApplyOccupancy(ctx context.Context, update *model.OccupancyUpdate) (*model.Quote, error) {
	update.ItemKind = model.ItemKind(sanitizer.ItemKind(string(update.ItemKind)))
	update.ItemID = sanitizer.ItemID(update.ItemID)
	if err := s.validate.Struct(update); err != nil {
		err = model.TranslateValidationErrors(err)
		s.cfg.Log.Warn("Occupancy update validation failed", "item_id", update.ItemID, "error", err)
		var verrs model.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, apperrors.Validation("Occupancy update validation failed", verrs.Details())
		}
		return nil, apperrors.Validation("Occupancy update validation failed", map[string]any{"error": err.Error()})
	}

	key, err := parseKey(update.ItemKind, update.ItemID, update.DateKey)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxOccupancyAttempts; attempt++ {
		rec, err := s.loadOrCreate(ctx, key)
		if err != nil {
			return nil, err
		}

		if !update.ReportedAt.IsZero() && update.ReportedAt.Before(rec.OccupancyReportedAt) {
			s.cfg.Log.Info("Ignoring out-of-order occupancy report",
				"record_id", rec.ID,
				"reported_at", update.ReportedAt,
				"latest_reported_at", rec.OccupancyReportedAt,
			)
			return model.NewQuote(rec, s.cfg.PriceRefreshInterval), nil
		}

		expected := rec.Version
		s.repricer.ApplyOccupancy(rec, update.CapacityTotal, update.CapacityAvailable, key.evalDate, s.clock.Now())
		if !update.ReportedAt.IsZero() {
			rec.OccupancyReportedAt = update.ReportedAt.UTC()
		}

		err = s.retry(ctx, func(ctx context.Context) error {
			return s.repo.CompareAndSwap(ctx, rec, expected)
		})
		if errors.Is(err, quoteserrors.ErrVersionConflict) {
			s.cfg.Log.Debug("Occupancy update lost version race, retrying", "record_id", rec.ID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, s.storeError("Failed to apply occupancy", key, err)
		}

		s.cfg.Log.Info("Occupancy applied",
			"record_id", rec.ID,
			"capacity_total", rec.CapacityTotal,
			"capacity_available", rec.CapacityAvailable,
			"current_price", rec.CurrentPrice,
		)
		if rec.CurrentPrice != rec.PreviousPrice {
			s.publisher.PriceChanged(ctx, rec)
		}
		return model.NewQuote(rec, s.cfg.PriceRefreshInterval), nil
	}

	return nil, apperrors.Unavailable("price store", fmt.Errorf("%w: %s after %d attempts",
		quoteserrors.ErrVersionConflict, key.recordID(), maxOccupancyAttempts))
}

func (s *quoteService) find(ctx context.Context, id string) (*model.PriceRecord, error) {
	var rec *model.PriceRecord
	err := s.retry(ctx, func(ctx context.Context) error {
		var findErr error
		rec, findErr = s.repo.FindByID(ctx, id)
		return findErr
	})
	return rec, err
}

func (s *quoteService) findOrFail(ctx context.Context, key itemKey) (*model.PriceRecord, error) {
	rec, err := s.find(ctx, key.recordID())
	if err != nil {
		if errors.Is(err, quoteserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Price record", key.recordID()).WithCause(err)
		}
		return nil, s.storeError("Failed to load price record", key, err)
	}
	return rec, nil
}

func (s *quoteService) retry(ctx context.Context, fn func(ctx context.Context) error) error {
	return mongodb.WithRetry(ctx, mongodb.RetryPolicy{
		MaxRetries: s.cfg.StoreMaxRetries,
		Backoff:    storeRetryBackoff,
	}, fn)
}

func (s *quoteService) storeError(message string, key itemKey, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout(message).WithCause(err)
	}
	s.cfg.Log.Error(message,
		"item_kind", key.kind,
		"item_id", key.itemID,
		"date_key", key.dateKey,
		"error", err,
	)
	if mongodb.IsTransient(err) {
		return apperrors.Unavailable("price store", err)
	}
	return apperrors.Internal(message, err)
}
