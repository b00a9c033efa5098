package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripfare/pkg/kafka"
	"tripfare/pkg/logger"
	"tripfare/pkg/model"
)

type recordingProducer struct {
	msgs []kafka.Message
	err  error
}

func (p *recordingProducer) Publish(_ context.Context, msg kafka.Message) error {
	p.msgs = append(p.msgs, msg)
	return p.err
}

func TestKafkaPublisher_PriceChanged(t *testing.T) {
	prices := &recordingProducer{}
	pub := NewKafkaPublisher(prices, &recordingProducer{}, logger.Discard())

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := &model.PriceRecord{
		ID:             model.PriceRecordID(model.KindFlight, "FL-1", "2025-03-12"),
		ItemKind:       model.KindFlight,
		ItemID:         "FL-1",
		DateKey:        "2025-03-12",
		BasePrice:      8500,
		PreviousPrice:  8500,
		CurrentPrice:   17680,
		BookingTrend:   model.TrendIncreasing,
		LastComputedAt: now,
	}
	pub.PriceChanged(context.Background(), rec)

	require.Len(t, prices.msgs, 1)
	msg := prices.msgs[0]
	assert.Equal(t, rec.ID, msg.Key)
	assert.Equal(t, TypePriceChanged, msg.GetEventType())
	assert.Equal(t, Source, msg.Headers[kafka.HeaderSource])

	var payload PriceChanged
	require.NoError(t, msg.DecodeValue(&payload))
	assert.Equal(t, int64(17680), payload.CurrentPrice)
	assert.Equal(t, 108.0, payload.PriceChangePercent)
	assert.Equal(t, model.TrendIncreasing, payload.BookingTrend)
}

func TestKafkaPublisher_FreezeChanged_SwallowsErrors(t *testing.T) {
	freezes := &recordingProducer{err: errors.New("broker down")}
	pub := NewKafkaPublisher(&recordingProducer{}, freezes, logger.Discard())

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f := model.NewPriceFreeze("f-1", "u-1", model.KindHotel, "H-22", 9000, 10500, now, 24*time.Hour)
	require.NoError(t, f.Activate())

	assert.NotPanics(t, func() {
		pub.FreezeChanged(context.Background(), TypeFreezeCreated, f, now)
	})

	require.Len(t, freezes.msgs, 1)
	var payload FreezeChanged
	require.NoError(t, freezes.msgs[0].DecodeValue(&payload))
	assert.Equal(t, "f-1", payload.FreezeID)
	assert.Equal(t, model.FreezeActive, payload.State)
	assert.Equal(t, int64(1500), payload.Savings)
}
