// Package occupancy applies booking-layer capacity reports consumed from Kafka.
package occupancy

import (
	"context"
	"fmt"

	apperrors "tripfare/pkg/errors"
	"tripfare/pkg/kafka"
	"tripfare/pkg/logger"
	"tripfare/pkg/model"
)

const EventTypeOccupancyUpdated = "occupancy.updated"

// Applier is satisfied by the quote service.
type Applier interface {
	ApplyOccupancy(ctx context.Context, update *model.OccupancyUpdate) (*model.Quote, error)
}

type Handler struct {
	applier Applier
	log     *logger.Logger
}

func NewHandler(applier Applier, log *logger.Logger) *Handler {
	return &Handler{applier: applier, log: log}
}

// Handle is a kafka.MessageHandler. Malformed or rejected updates are permanent and go to
// the DLQ; store outages are transient and retried.
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	if eventType := msg.GetEventType(); eventType != "" && eventType != EventTypeOccupancyUpdated {
		h.log.Debug("Skipping unrelated event", "event_type", eventType, "offset", msg.Offset)
		return nil
	}

	var update model.OccupancyUpdate
	if err := msg.DecodeValue(&update); err != nil {
		return kafka.NewPermanentError("failed to decode occupancy update", err)
	}

	quote, err := h.applier.ApplyOccupancy(ctx, &update)
	if err != nil {
		return classify(err, update)
	}

	h.log.Info("Occupancy update applied",
		"item_kind", quote.ItemKind,
		"item_id", quote.ItemID,
		"date_key", quote.DateKey,
		"capacity_available", quote.CapacityAvailable,
		"current_price", quote.CurrentPrice,
		"event_id", msg.GetEventID(),
	)
	return nil
}

func classify(err error, update model.OccupancyUpdate) error {
	message := fmt.Sprintf("occupancy update for %s:%s:%s", update.ItemKind, update.ItemID, update.DateKey)
	appErr := apperrors.AsAppError(err)
	switch appErr.Code {
	case apperrors.CodeUnavailable, apperrors.CodeTimeout:
		return kafka.NewTransientError(message, err)
	default:
		return kafka.NewPermanentError(message, err)
	}
}
