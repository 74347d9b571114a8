package engine

import (
	"math"

	"github.com/roach88/unitconv/internal/model"
)

// Convert maps v from one unit to another through the category base unit.
//
// Fails with CATEGORY_MISMATCH when the units belong to different categories
// and with INVALID_UNIT_DEFINITION when either transform is zero or not
// finite. Converting a unit to itself returns v unchanged. No physical
// plausibility checks are made (e.g. temperatures below absolute zero).
func Convert(v float64, from, to model.UnitTransform) (float64, error) {
	if from.CategoryID != to.CategoryID {
		return 0, model.NewCategoryMismatch(from, to)
	}
	if err := validateTransform(from); err != nil {
		return 0, err
	}
	if err := validateTransform(to); err != nil {
		return 0, err
	}

	if from.Factor == to.Factor && from.Offset == to.Offset {
		return v, nil
	}

	result := to.FromBase(from.ToBase(v))
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, model.NewInvalidInput("result is out of range", nil)
	}
	return result, nil
}

func validateTransform(t model.UnitTransform) error {
	switch {
	case t.Factor == 0:
		return model.NewInvalidUnitDefinition(t.Name, "conversion factor is zero")
	case math.IsNaN(t.Factor) || math.IsInf(t.Factor, 0):
		return model.NewInvalidUnitDefinition(t.Name, "conversion factor is not finite")
	case math.IsNaN(t.Offset) || math.IsInf(t.Offset, 0):
		return model.NewInvalidUnitDefinition(t.Name, "offset is not finite")
	}
	return nil
}
