package ais

import (
	"errors"
	"strings"
)

// ShipTypeFishing is the ship_type value used by the seasonality trend.
const ShipTypeFishing = "Fishing"

// ErrEmptyClassification is returned when a classification has no types.
var ErrEmptyClassification = errors.New("ais: empty ship classification")

// ShipClassification names the ship types counted as commercial.
// Any other non-null type is non-commercial.
type ShipClassification struct {
	Version    string   `yaml:"version" json:"version"`
	Commercial []string `yaml:"commercial" json:"commercial"`
}

// DefaultClassification returns the v1 commercial set.
func DefaultClassification() ShipClassification {
	return ShipClassification{
		Version:    "v1",
		Commercial: []string{"Cargo", "Tanker", "Passenger"},
	}
}

// Validate checks the classification is usable.
func (c ShipClassification) Validate() error {
	if len(c.CommercialTypes()) == 0 {
		return ErrEmptyClassification
	}
	return nil
}

// CommercialTypes returns the non-blank commercial types without duplicates.
func (c ShipClassification) CommercialTypes() []string {
	seen := make(map[string]struct{}, len(c.Commercial))
	result := make([]string, 0, len(c.Commercial))
	for _, shipType := range c.Commercial {
		if strings.TrimSpace(shipType) == "" {
			continue
		}
		if _, ok := seen[shipType]; ok {
			continue
		}
		seen[shipType] = struct{}{}
		result = append(result, shipType)
	}
	return result
}

// IsCommercial reports whether shipType is in the commercial set.
// Matching is exact, like the stored values.
func (c ShipClassification) IsCommercial(shipType string) bool {
	for _, candidate := range c.Commercial {
		if candidate == shipType {
			return true
		}
	}
	return false
}
