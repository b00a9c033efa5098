package service

import (
	"context"

	"tripfare/internal/pricing"
	"tripfare/pkg/model"
)

// ReferencePricer supplies the later, higher price a freeze protects the shopper from.
type ReferencePricer interface {
	ReferencePrice(ctx context.Context, kind model.ItemKind, itemID string, frozenPrice int64) (int64, error)
}

// MarkupReferencePricer synthesizes the reference price as a fixed markup on the frozen price.
type MarkupReferencePricer struct {
	Markup float64
}

func NewMarkupReferencePricer(markup float64) *MarkupReferencePricer {
	return &MarkupReferencePricer{Markup: markup}
}

func (p *MarkupReferencePricer) ReferencePrice(_ context.Context, _ model.ItemKind, _ string, frozenPrice int64) (int64, error) {
	return pricing.ApplyMarkup(frozenPrice, p.Markup), nil
}
