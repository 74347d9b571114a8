package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unitconv/internal/catalog"
	"github.com/roach88/unitconv/internal/model"
)

func TestListCategories_Seeded(t *testing.T) {
	s := openTestStore(t)

	cats, err := s.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Length", "Temperature", "Weight"}, cats)
}

func TestCategories_Descriptions(t *testing.T) {
	s := openTestStore(t)

	cats, err := s.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, "Length", cats[0].Name)
	assert.Equal(t, "Units of distance and size", cats[0].Description)
}

func TestListUnits(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tests := []struct {
		category string
		want     []string
	}{
		{"Temperature", []string{"Celsius", "Fahrenheit", "Kelvin"}},
		{"Length", []string{"Centimeter", "Kilometer", "Meter", "Mile"}},
		{"Weight", []string{"Gram", "Kilogram", "Pound"}},
		{"Volume", []string{}},
		{"", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			units, err := s.ListUnits(ctx, tt.category)
			require.NoError(t, err)
			assert.Equal(t, tt.want, units)
		})
	}
}

func TestUnits_Details(t *testing.T) {
	s := openTestStore(t)

	units, err := s.Units(context.Background(), "Temperature")
	require.NoError(t, err)
	require.Len(t, units, 3)
	assert.Equal(t, "Celsius", units[0].Name)
	assert.Equal(t, "°C", units[0].Symbol)
	assert.Equal(t, 273.15, units[0].Offset)
	assert.Equal(t, "Kelvin", units[2].Name)
	assert.Equal(t, 1.0, units[2].Factor)
	assert.Zero(t, units[2].Offset)
}

func TestGetUnitTransform(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	km, err := s.GetUnitTransform(ctx, "Kilometer")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, km.Factor)
	assert.Equal(t, 0.0, km.Offset)
	assert.Equal(t, "Kilometer", km.Name)

	f, err := s.GetUnitTransform(ctx, "Fahrenheit")
	require.NoError(t, err)
	assert.Equal(t, 0.5555555556, f.Factor)
	assert.Equal(t, 255.3722222, f.Offset)
	assert.NotEqual(t, km.CategoryID, f.CategoryID)
}

func TestGetUnitTransform_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetUnitTransform(context.Background(), "Furlong")
	require.Error(t, err)
	assert.True(t, model.IsUnitNotFound(err))
}

func TestGetUnitTransform_AmbiguousNameFirstWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc, err := catalog.Parse([]byte(`
categories:
  - name: Pressure
    units:
      - {name: Pascal, factor: 1}
      - {name: Meter, factor: 9.81}
`))
	require.NoError(t, err)
	_, err = s.ImportCatalog(ctx, doc)
	require.NoError(t, err)

	meter, err := s.GetUnitTransform(ctx, "Meter")
	require.NoError(t, err)
	assert.Equal(t, 1.0, meter.Factor, "seeded Length/Meter was inserted first")

	qualified, err := s.GetUnitTransformIn(ctx, "Pressure", "Meter")
	require.NoError(t, err)
	assert.Equal(t, 9.81, qualified.Factor)
}

func TestGetUnitTransformIn_WrongCategory(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetUnitTransformIn(context.Background(), "Weight", "Meter")
	require.Error(t, err)
	assert.True(t, model.IsUnitNotFound(err))
}

func TestSeed_SkipsNonEmptyCatalog(t *testing.T) {
	s := openTestStore(t)

	inserted, err := s.Seed(context.Background(), catalog.Default())
	require.NoError(t, err)
	assert.False(t, inserted)

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count))
	assert.Equal(t, 3, count)
}

func TestImportCatalog_AddsOnlyMissing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc, err := catalog.Parse([]byte(`
categories:
  - name: Length
    units:
      - {name: Meter, factor: 2}
      - {name: Inch, symbol: in, factor: 0.0254}
  - name: Volume
    units:
      - {name: Liter, symbol: L, factor: 1}
`))
	require.NoError(t, err)

	result, err := s.ImportCatalog(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{CategoriesAdded: 1, UnitsAdded: 2, UnitsSkipped: 1}, result)

	meter, err := s.GetUnitTransformIn(ctx, "Length", "Meter")
	require.NoError(t, err)
	assert.Equal(t, 1.0, meter.Factor, "existing unit must not be overwritten")

	units, err := s.ListUnits(ctx, "Length")
	require.NoError(t, err)
	assert.Contains(t, units, "Inch")

	again, err := s.ImportCatalog(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{UnitsSkipped: 3}, again)
}
