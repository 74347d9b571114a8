// Package model defines the shared domain types for unit conversion:
// categories, units with their affine transforms, and history records.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Category is a closed group of mutually convertible units (e.g. Length).
type Category struct {
	ID          int64  `json:"id" yaml:"-"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Unit is a named unit belonging to exactly one category.
//
// A raw value v in this unit is v*Factor + Offset in the category's base unit.
type Unit struct {
	ID         int64   `json:"id"`
	CategoryID int64   `json:"category_id"`
	Name       string  `json:"name"`
	Symbol     string  `json:"symbol,omitempty"`
	Factor     float64 `json:"factor"`
	Offset     float64 `json:"offset"`
}

// UnitTransform is the resolved affine transform of a unit to its category base unit.
type UnitTransform struct {
	Name       string  `json:"name"`
	Factor     float64 `json:"factor"`
	Offset     float64 `json:"offset"`
	CategoryID int64   `json:"category_id"`
}

// ToBase expresses v (in this unit) in the category base unit.
func (t UnitTransform) ToBase(v float64) float64 {
	return v*t.Factor + t.Offset
}

// FromBase expresses the base-unit value b in this unit.
// The caller is responsible for rejecting a zero factor.
func (t UnitTransform) FromBase(b float64) float64 {
	return (b - t.Offset) / t.Factor
}

// HistoryRecord is an immutable log entry for one completed conversion.
//
// CategoryID is a soft reference: it is nil when the row was written without a
// category, and CategoryName is empty when the referenced category no longer exists.
type HistoryRecord struct {
	ID           int64     `json:"id"`
	InputValue   float64   `json:"input_value"`
	FromUnit     string    `json:"from_unit"`
	ToUnit       string    `json:"to_unit"`
	ResultValue  float64   `json:"result_value"`
	CategoryID   *int64    `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// HistoryField selects which history column a search filter applies to.
type HistoryField string

const (
	FieldAll        HistoryField = "all"
	FieldID         HistoryField = "id"
	FieldInput      HistoryField = "input"
	FieldFromUnit   HistoryField = "from_unit"
	FieldToUnit     HistoryField = "to_unit"
	FieldResult     HistoryField = "result"
	FieldCategoryID HistoryField = "category_id"
	FieldTimestamp  HistoryField = "timestamp"
)

// HistoryFields lists the searchable fields in display order.
var HistoryFields = []HistoryField{
	FieldAll, FieldID, FieldInput, FieldFromUnit, FieldToUnit, FieldResult, FieldCategoryID, FieldTimestamp,
}

// ParseHistoryField accepts both the canonical names ("from_unit") and the
// column labels shown in history views ("From Unit", "Category ID").
func ParseHistoryField(s string) (HistoryField, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if key == "" {
		return FieldAll, nil
	}
	for _, f := range HistoryFields {
		if string(f) == key {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown history field %q: must be one of %v", s, HistoryFields)
}

// Theme modes stored for the presentation layer.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Settings holds user preferences persisted alongside the catalog.
// DefaultCategory is empty when unset or when the category no longer exists.
type Settings struct {
	ThemeMode       string `json:"theme_mode" yaml:"theme_mode"`
	DefaultCategory string `json:"default_category,omitempty" yaml:"default_category,omitempty"`
}
