package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/unitconv/internal/catalog"
	"github.com/roach88/unitconv/internal/model"
)

// ImportResult summarizes an administrative catalog import.
type ImportResult struct {
	CategoriesAdded int `json:"categories_added"`
	UnitsAdded      int `json:"units_added"`
	UnitsSkipped    int `json:"units_skipped"`
}

// ListCategories returns all category names in lexicographic order.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM categories
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, model.NewStorageUnavailable("query categories", err)
	}
	return scanNames(rows, "categories")
}

// Categories returns all categories with their descriptions, ordered by name.
func (s *Store) Categories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(description, '')
		FROM categories
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, model.NewStorageUnavailable("query categories", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, model.NewStorageUnavailable("scan category", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewStorageUnavailable("iterate categories", err)
	}
	return categories, nil
}

// ListUnits returns the names of the units in a category, lexicographically
// sorted. An unknown category yields an empty slice, not an error.
func (s *Store) ListUnits(ctx context.Context, categoryName string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.name
		FROM units u
		JOIN categories c ON u.category_id = c.id
		WHERE c.name = ?
		ORDER BY u.name COLLATE BINARY ASC
	`, norm.NFC.String(categoryName))
	if err != nil {
		return nil, model.NewStorageUnavailable("query units", err)
	}
	return scanNames(rows, "units")
}

// Units returns the full unit definitions of a category ordered by name.
func (s *Store) Units(ctx context.Context, categoryName string) ([]model.Unit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.category_id, u.name, COALESCE(u.symbol, ''), u.factor, u."offset"
		FROM units u
		JOIN categories c ON u.category_id = c.id
		WHERE c.name = ?
		ORDER BY u.name COLLATE BINARY ASC
	`, norm.NFC.String(categoryName))
	if err != nil {
		return nil, model.NewStorageUnavailable("query units", err)
	}
	defer rows.Close()

	units := []model.Unit{}
	for rows.Next() {
		var u model.Unit
		if err := rows.Scan(&u.ID, &u.CategoryID, &u.Name, &u.Symbol, &u.Factor, &u.Offset); err != nil {
			return nil, model.NewStorageUnavailable("scan unit", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewStorageUnavailable("iterate units", err)
	}
	return units, nil
}

// GetUnitTransform resolves a unit by name alone. When several categories
// define the same unit name, the unit inserted first (lowest id) wins.
// Returns an UNIT_NOT_FOUND error if no unit has that name.
func (s *Store) GetUnitTransform(ctx context.Context, unitName string) (model.UnitTransform, error) {
	name := norm.NFC.String(unitName)
	row := s.db.QueryRowContext(ctx, `
		SELECT factor, "offset", category_id
		FROM units
		WHERE name = ?
		ORDER BY id ASC
		LIMIT 1
	`, name)
	return scanTransform(row, name)
}

// GetUnitTransformIn resolves a unit qualified by its category name.
func (s *Store) GetUnitTransformIn(ctx context.Context, categoryName, unitName string) (model.UnitTransform, error) {
	name := norm.NFC.String(unitName)
	row := s.db.QueryRowContext(ctx, `
		SELECT u.factor, u."offset", u.category_id
		FROM units u
		JOIN categories c ON u.category_id = c.id
		WHERE c.name = ? AND u.name = ?
	`, norm.NFC.String(categoryName), name)
	return scanTransform(row, name)
}

func scanTransform(row *sql.Row, name string) (model.UnitTransform, error) {
	t := model.UnitTransform{Name: name}
	if err := row.Scan(&t.Factor, &t.Offset, &t.CategoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.UnitTransform{}, model.NewUnitNotFound(name)
		}
		return model.UnitTransform{}, model.NewStorageUnavailable(fmt.Sprintf("query unit %q", name), err)
	}
	return t, nil
}

// Seed inserts doc when the catalog is empty. It never touches an existing
// catalog and reports whether anything was inserted.
func (s *Store) Seed(ctx context.Context, doc *catalog.Document) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("seed: begin tx: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return false, fmt.Errorf("seed: count categories: %w", err)
	}
	if count > 0 {
		s.logger.Debug("catalog already seeded, skipping", "categories", count)
		return false, nil
	}

	result, err := insertCatalog(ctx, tx, doc)
	if err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("seed: commit: %w", err)
	}

	s.logger.Info("catalog seeded",
		"categories", result.CategoriesAdded,
		"units", result.UnitsAdded,
	)
	return true, nil
}

// ImportCatalog adds the categories and units of doc that are not yet
// present. Existing categories and units are left untouched.
func (s *Store) ImportCatalog(ctx context.Context, doc *catalog.Document) (ImportResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, model.NewStorageUnavailable("import catalog: begin tx", err)
	}
	defer tx.Rollback()

	result, err := insertCatalog(ctx, tx, doc)
	if err != nil {
		return ImportResult{}, model.NewStorageUnavailable("import catalog", err)
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, model.NewStorageUnavailable("import catalog: commit", err)
	}

	s.logger.Info("catalog imported",
		"categories_added", result.CategoriesAdded,
		"units_added", result.UnitsAdded,
		"units_skipped", result.UnitsSkipped,
	)
	return result, nil
}

func insertCatalog(ctx context.Context, tx *sql.Tx, doc *catalog.Document) (ImportResult, error) {
	var result ImportResult

	for _, c := range doc.Categories {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO categories (name, description)
			VALUES (?, NULLIF(?, ''))
			ON CONFLICT(name) DO NOTHING
		`, c.Name, c.Description)
		if err != nil {
			return result, fmt.Errorf("insert category %q: %w", c.Name, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			result.CategoriesAdded++
		}

		var categoryID int64
		if err := tx.QueryRowContext(ctx,
			"SELECT id FROM categories WHERE name = ?", c.Name,
		).Scan(&categoryID); err != nil {
			return result, fmt.Errorf("select category %q: %w", c.Name, err)
		}

		for _, u := range c.Units {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO units (category_id, name, symbol, factor, "offset")
				VALUES (?, ?, NULLIF(?, ''), ?, ?)
				ON CONFLICT(category_id, name) DO NOTHING
			`, categoryID, u.Name, u.Symbol, u.Factor, u.Offset)
			if err != nil {
				return result, fmt.Errorf("insert unit %q: %w", u.Name, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return result, fmt.Errorf("insert unit %q: rows affected: %w", u.Name, err)
			}
			if n > 0 {
				result.UnitsAdded++
			} else {
				result.UnitsSkipped++
			}
		}
	}

	return result, nil
}

// scanNames collects a single text column and closes rows.
func scanNames(rows *sql.Rows, what string) ([]string, error) {
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, model.NewStorageUnavailable("scan "+what, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewStorageUnavailable("iterate "+what, err)
	}
	return names, nil
}
