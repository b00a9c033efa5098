// Package events publishes price and freeze lifecycle changes to Kafka.
package events

import (
	"context"
	"time"

	"tripfare/pkg/kafka"
	"tripfare/pkg/logger"
	"tripfare/pkg/model"
)

const (
	TypePriceChanged   = "price.changed"
	TypeFreezeCreated  = "freeze.created"
	TypeFreezeRedeemed = "freeze.redeemed"
	TypeFreezeExpired  = "freeze.expired"

	SchemaVersion = "1"
	Source        = "tripfare-pricing"
)

type PriceChanged struct {
	RecordID           string             `json:"record_id"`
	ItemKind           model.ItemKind     `json:"item_kind"`
	ItemID             string             `json:"item_id"`
	DateKey            string             `json:"date_key"`
	BasePrice          int64              `json:"base_price"`
	PreviousPrice      int64              `json:"previous_price"`
	CurrentPrice       int64              `json:"current_price"`
	PriceChangePercent float64            `json:"price_change_percent"`
	DemandMultiplier   float64            `json:"demand_multiplier"`
	OccupancyRatio     float64            `json:"occupancy_ratio"`
	BookingTrend       model.BookingTrend `json:"booking_trend"`
	ComputedAt         time.Time          `json:"computed_at"`
}

type FreezeChanged struct {
	FreezeID    string            `json:"freeze_id"`
	UserID      string            `json:"user_id"`
	ItemKind    model.ItemKind    `json:"item_kind"`
	ItemID      string            `json:"item_id"`
	State       model.FreezeState `json:"state"`
	FrozenPrice int64             `json:"frozen_price"`
	Savings     int64             `json:"savings"`
	WindowEnd   time.Time         `json:"window_end"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

// Publisher is notified after a change is durable. Implementations never fail the caller.
type Publisher interface {
	PriceChanged(ctx context.Context, rec *model.PriceRecord)
	FreezeChanged(ctx context.Context, eventType string, f *model.PriceFreeze, at time.Time)
}

// Producer is the subset of *kafka.Producer used here.
type Producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	prices  Producer
	freezes Producer
	log     *logger.Logger
}

func NewKafkaPublisher(prices, freezes Producer, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{prices: prices, freezes: freezes, log: log}
}

func (p *KafkaPublisher) PriceChanged(ctx context.Context, rec *model.PriceRecord) {
	p.publish(ctx, p.prices, TypePriceChanged, rec.ID, PriceChanged{
		RecordID:           rec.ID,
		ItemKind:           rec.ItemKind,
		ItemID:             rec.ItemID,
		DateKey:            rec.DateKey,
		BasePrice:          rec.BasePrice,
		PreviousPrice:      rec.PreviousPrice,
		CurrentPrice:       rec.CurrentPrice,
		PriceChangePercent: rec.PriceChangePercent(),
		DemandMultiplier:   rec.DemandMultiplier,
		OccupancyRatio:     rec.OccupancyRatio,
		BookingTrend:       rec.BookingTrend,
		ComputedAt:         rec.LastComputedAt,
	})
}

func (p *KafkaPublisher) FreezeChanged(ctx context.Context, eventType string, f *model.PriceFreeze, at time.Time) {
	p.publish(ctx, p.freezes, eventType, f.ID, FreezeChanged{
		FreezeID:    f.ID,
		UserID:      f.UserID,
		ItemKind:    f.ItemKind,
		ItemID:      f.ItemID,
		State:       f.State,
		FrozenPrice: f.FrozenPrice,
		Savings:     f.Savings,
		WindowEnd:   f.WindowEnd,
		OccurredAt:  at,
	})
}

func (p *KafkaPublisher) publish(ctx context.Context, producer Producer, eventType, key string, payload any) {
	msg, err := kafka.NewMessage().
		WithKey(key).
		WithValue(payload).
		WithEventType(eventType).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		Build()
	if err != nil {
		p.log.Error("Failed to build event", "event_type", eventType, "key", key, "error", err)
		return
	}

	// The request context may already be near its deadline; the state change is durable.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish event", "event_type", eventType, "key", key, "error", err)
	}
}

// NoopPublisher is used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PriceChanged(context.Context, *model.PriceRecord) {}

func (NoopPublisher) FreezeChanged(context.Context, string, *model.PriceFreeze, time.Time) {}
