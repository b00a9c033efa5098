package model

import (
	"errors"
	"time"
)

type FreezeState string

const (
	FreezeRequested FreezeState = "requested"
	FreezeActive    FreezeState = "active"
	FreezeUsed      FreezeState = "used"
	FreezeExpired   FreezeState = "expired"
)

func (s FreezeState) Terminal() bool {
	return s == FreezeUsed || s == FreezeExpired
}

var (
	ErrInvalidTransition = errors.New("invalid freeze state transition")
	ErrWindowElapsed     = errors.New("freeze window has elapsed")
)

// PriceFreeze locks FrozenPrice for one user and item until WindowEnd.
// State only moves requested -> active -> used|expired.
type PriceFreeze struct {
	ID             string      `json:"freeze_id" bson:"_id"`
	UserID         string      `json:"user_id" bson:"user_id"`
	ItemKind       ItemKind    `json:"item_kind" bson:"item_kind"`
	ItemID         string      `json:"item_id" bson:"item_id"`
	FrozenPrice    int64       `json:"frozen_price" bson:"frozen_price"`
	ReferencePrice int64       `json:"reference_price" bson:"reference_price"`
	Savings        int64       `json:"savings" bson:"savings"`
	WindowStart    time.Time   `json:"window_start" bson:"window_start"`
	WindowEnd      time.Time   `json:"window_end" bson:"window_end"`
	State          FreezeState `json:"state" bson:"state"`
	RedeemedAt     *time.Time  `json:"redeemed_at,omitempty" bson:"redeemed_at,omitempty"`
	ExpiredAt      *time.Time  `json:"expired_at,omitempty" bson:"expired_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at" bson:"created_at"`

	// Token is the sealed handle given to the shopper. It is derived, never stored.
	Token string `json:"token,omitempty" bson:"-"`
}

// FreezeRequest asks to lock CurrentPrice for one user and item.
type FreezeRequest struct {
	UserID       string   `json:"user_id" validate:"required,max=128"`
	ItemKind     ItemKind `json:"item_kind" validate:"required,oneof=flight hotel"`
	ItemID       string   `json:"item_id" validate:"required,item_id"`
	CurrentPrice int64    `json:"current_price" validate:"required,gt=0"`
}

// FreezeList partitions a user's freezes by presented state.
type FreezeList struct {
	Active  []*PriceFreeze `json:"active"`
	Used    []*PriceFreeze `json:"used"`
	Expired []*PriceFreeze `json:"expired"`
}

// NewPriceFreeze builds a freeze in the requested state.
func NewPriceFreeze(id, userID string, kind ItemKind, itemID string, frozen, reference int64, now time.Time, window time.Duration) *PriceFreeze {
	return &PriceFreeze{
		ID:             id,
		UserID:         userID,
		ItemKind:       kind,
		ItemID:         itemID,
		FrozenPrice:    frozen,
		ReferencePrice: reference,
		Savings:        reference - frozen,
		WindowStart:    now,
		WindowEnd:      now.Add(window),
		State:          FreezeRequested,
		CreatedAt:      now,
	}
}

func (f *PriceFreeze) Activate() error {
	if f.State != FreezeRequested {
		return ErrInvalidTransition
	}
	f.State = FreezeActive
	return nil
}

// Lapsed reports whether an active freeze is past its window at now.
func (f *PriceFreeze) Lapsed(now time.Time) bool {
	return f.State == FreezeActive && now.After(f.WindowEnd)
}

// Present is the state a reader should see at now: an active freeze past its window
// is presented as expired even before that is persisted.
func (f *PriceFreeze) Present(now time.Time) FreezeState {
	if f.Lapsed(now) {
		return FreezeExpired
	}
	return f.State
}

func (f *PriceFreeze) Expire(now time.Time) error {
	if f.State != FreezeActive {
		return ErrInvalidTransition
	}
	f.State = FreezeExpired
	f.ExpiredAt = &now
	return nil
}

// Redeem moves an active freeze to used when now <= WindowEnd. Past the window it moves
// to expired instead and returns ErrWindowElapsed.
func (f *PriceFreeze) Redeem(now time.Time) error {
	if f.State != FreezeActive {
		return ErrInvalidTransition
	}
	if f.Lapsed(now) {
		_ = f.Expire(now)
		return ErrWindowElapsed
	}
	f.State = FreezeUsed
	f.RedeemedAt = &now
	return nil
}
