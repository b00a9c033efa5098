package service

import (
	"context"
	"errors"

	inventoryerrors "tripfare/internal/inventory/errors"
	"tripfare/internal/inventory/repository"
	"tripfare/internal/inventory/validator"
	"tripfare/pkg/clock"
	"tripfare/pkg/config"
	apperrors "tripfare/pkg/errors"
	"tripfare/pkg/model"
	"tripfare/pkg/sanitizer"
)

type InventoryService interface {
	Upsert(ctx context.Context, item *model.InventoryItem) error
	Get(ctx context.Context, kind model.ItemKind, itemID string) (*model.InventoryItem, error)
}

type inventoryService struct {
	repo      repository.InventoryRepository
	validator *validator.InventoryValidator
	clock     clock.Clock
	cfg       *config.Config
}

func NewInventoryService(
	repo repository.InventoryRepository,
	validator *validator.InventoryValidator,
	clk clock.Clock,
	cfg *config.Config,
) InventoryService {
	return &inventoryService{
		repo:      repo,
		validator: validator,
		clock:     clk,
		cfg:       cfg,
	}
}

// Upsert replaces the catalog entry. Existing PriceRecords keep their base price; new
// dates pick up the new one.
func (s *inventoryService) Upsert(ctx context.Context, item *model.InventoryItem) error {
	item.ItemKind = model.ItemKind(sanitizer.ItemKind(string(item.ItemKind)))
	item.ItemID = sanitizer.ItemID(item.ItemID)
	item.Name = sanitizer.Name(item.Name)

	if err := s.validator.Validate(item); err != nil {
		s.cfg.Log.Warn("Inventory item validation failed",
			"item_kind", item.ItemKind,
			"item_id", item.ItemID,
			"error", err,
		)
		return validationError("Inventory item validation failed", err)
	}

	item.UpdatedAt = s.clock.Now()
	if err := s.repo.Upsert(ctx, item); err != nil {
		s.cfg.Log.Error("Failed to upsert inventory item",
			"item_kind", item.ItemKind,
			"item_id", item.ItemID,
			"error", err,
		)
		return apperrors.Internal("Failed to save inventory item", err)
	}

	s.cfg.Log.Info("Inventory item saved",
		"item_kind", item.ItemKind,
		"item_id", item.ItemID,
		"base_price", item.BasePrice,
		"capacity", item.Capacity,
	)
	return nil
}

func (s *inventoryService) Get(ctx context.Context, kind model.ItemKind, itemID string) (*model.InventoryItem, error) {
	kind = model.ItemKind(sanitizer.ItemKind(string(kind)))
	itemID = sanitizer.ItemID(itemID)
	if !kind.Valid() {
		return nil, apperrors.InvalidInput("item kind must be flight or hotel")
	}
	if !model.ValidItemID(itemID) {
		return nil, apperrors.InvalidInput("invalid item id")
	}

	item, err := s.repo.FindByKey(ctx, kind, itemID)
	if err != nil {
		if errors.Is(err, inventoryerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Inventory item", model.InventoryItemID(kind, itemID)).WithCause(err)
		}
		s.cfg.Log.Error("Failed to get inventory item",
			"item_kind", kind,
			"item_id", itemID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve inventory item", err)
	}
	return item, nil
}

func validationError(message string, err error) error {
	var verrs model.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
