package validator

import (
	"github.com/go-playground/validator/v10"

	"tripfare/pkg/model"
)

type InventoryValidator struct {
	validate *validator.Validate
}

func NewInventoryValidator() *InventoryValidator {
	return &InventoryValidator{validate: model.NewValidator()}
}

func (v *InventoryValidator) Validate(item *model.InventoryItem) error {
	if err := v.validate.Struct(item); err != nil {
		return model.TranslateValidationErrors(err)
	}
	return nil
}
