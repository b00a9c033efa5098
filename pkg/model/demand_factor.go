package model

import "time"

type FactorKind string

const (
	FactorSeasonal  FactorKind = "seasonal"
	FactorTimeBased FactorKind = "time_based"
	FactorOccupancy FactorKind = "occupancy"
	FactorEvent     FactorKind = "event"
)

// DemandFactor is one multiplicative signal active at an evaluation instant.
// Multiplier is always > 0.
type DemandFactor struct {
	Kind        FactorKind `json:"kind" bson:"kind"`
	Name        string     `json:"name" bson:"name"`
	Multiplier  float64    `json:"multiplier" bson:"multiplier"`
	ValidFrom   *time.Time `json:"valid_from,omitempty" bson:"valid_from,omitempty"`
	ValidTo     *time.Time `json:"valid_to,omitempty" bson:"valid_to,omitempty"`
	Active      bool       `json:"active" bson:"active"`
	Description string     `json:"description,omitempty" bson:"description,omitempty"`
}
