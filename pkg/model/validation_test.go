package model

import (
	"errors"
	"testing"
)

func TestNewValidator_InventoryItem(t *testing.T) {
	v := NewValidator()

	valid := InventoryItem{ItemKind: KindHotel, ItemID: "H-22", BasePrice: 12000, Capacity: 40}
	if err := v.Struct(valid); err != nil {
		t.Fatalf("expected valid item, got %v", err)
	}

	invalid := InventoryItem{ItemKind: "train", ItemID: "-bad id", BasePrice: 0, Capacity: 0}
	err := TranslateValidationErrors(v.Struct(invalid))

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	details := verrs.Details()
	for _, field := range []string{"item_kind", "item_id", "base_price", "capacity"} {
		if _, ok := details[field]; !ok {
			t.Errorf("expected error for %s, got %v", field, details)
		}
	}
}

func TestDateKeyTag(t *testing.T) {
	type req struct {
		DateKey string `json:"date_key" validate:"required,date_key"`
	}
	v := NewValidator()

	tests := []struct {
		key   string
		valid bool
	}{
		{"2025-03-12", true},
		{"2025-03-12_2025-03-15", true},
		{"2025-03-15_2025-03-12", false},
		{"2025-02-30", false},
		{"12/03/2025", false},
	}
	for _, tt := range tests {
		err := v.Struct(req{DateKey: tt.key})
		if (err == nil) != tt.valid {
			t.Errorf("date_key %q: valid=%v, err=%v", tt.key, tt.valid, err)
		}
	}
}

func TestTranslateValidationErrors_PassThrough(t *testing.T) {
	plain := errors.New("not a validator error")
	if got := TranslateValidationErrors(plain); got != plain {
		t.Errorf("expected passthrough, got %v", got)
	}
}
