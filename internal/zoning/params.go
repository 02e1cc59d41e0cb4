package zoning

import (
	"errors"
	"math"
)

// ErrInvalidLotArea is returned when a lot area is not a positive finite number.
var ErrInvalidLotArea = errors.New("lot area must be positive")

// Parameters are the building limits derived from a rule and a lot area (m²).
type Parameters struct {
	LotArea          float64 `json:"lot_area"`
	MaxBuiltArea     float64 `json:"max_built_area"`
	MaxOccupiedArea  float64 `json:"max_occupied_area"`
	MinPermeableArea float64 `json:"min_permeable_area"`
}

// Compute applies the rule ratios to lotArea.
func (r Rule) Compute(lotArea float64) (Parameters, error) {
	if lotArea <= 0 || math.IsNaN(lotArea) || math.IsInf(lotArea, 0) {
		return Parameters{}, ErrInvalidLotArea
	}

	return Parameters{
		LotArea:          lotArea,
		MaxBuiltArea:     lotArea * r.FloorAreaRatio,
		MaxOccupiedArea:  lotArea * r.OccupationRatio,
		MinPermeableArea: lotArea * r.PermeabilityRatio,
	}, nil
}
