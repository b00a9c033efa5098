package model

import (
	"fmt"
	"time"
)

type ItemKind string

const (
	KindFlight ItemKind = "flight"
	KindHotel  ItemKind = "hotel"
)

func (k ItemKind) Valid() bool {
	return k == KindFlight || k == KindHotel
}

func ParseItemKind(s string) (ItemKind, error) {
	k := ItemKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown item kind %q (expected flight or hotel)", s)
	}
	return k, nil
}

// InventoryItem is the catalog entry a PriceRecord is seeded from on its first quote.
type InventoryItem struct {
	ID        string    `json:"-" bson:"_id"`
	ItemKind  ItemKind  `json:"item_kind" bson:"item_kind" validate:"required,oneof=flight hotel"`
	ItemID    string    `json:"item_id" bson:"item_id" validate:"required,item_id"`
	Name      string    `json:"name,omitempty" bson:"name,omitempty" validate:"omitempty,max=200"`
	BasePrice int64     `json:"base_price" bson:"base_price" validate:"required,gt=0"`
	Capacity  int       `json:"capacity" bson:"capacity" validate:"required,min=1,max=100000"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func InventoryItemID(kind ItemKind, itemID string) string {
	return string(kind) + ":" + itemID
}
