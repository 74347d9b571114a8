package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/unitconv/internal/model"
)

// Settings returns the persisted user preferences.
func (s *Store) Settings(ctx context.Context) (model.Settings, error) {
	var settings model.Settings
	var category sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT st.theme_mode, c.name
		FROM settings st
		LEFT JOIN categories c ON st.default_category = c.id
		WHERE st.id = 1
	`).Scan(&settings.ThemeMode, &category)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Settings{ThemeMode: model.ThemeLight}, nil
	}
	if err != nil {
		return model.Settings{}, model.NewStorageUnavailable("read settings", err)
	}
	settings.DefaultCategory = category.String
	return settings, nil
}

// SetThemeMode stores the theme preference ("light" or "dark").
func (s *Store) SetThemeMode(ctx context.Context, mode string) error {
	if mode != model.ThemeLight && mode != model.ThemeDark {
		return model.NewInvalidInput(fmt.Sprintf("invalid theme mode %q: must be %q or %q", mode, model.ThemeLight, model.ThemeDark), nil)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, theme_mode) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET theme_mode = excluded.theme_mode
	`, mode)
	if err != nil {
		return model.NewStorageUnavailable("set theme mode", err)
	}
	return nil
}

// SetDefaultCategory stores the category preselected by the presentation
// layer. An empty name clears the preference; an unknown name is an
// INVALID_INPUT error.
func (s *Store) SetDefaultCategory(ctx context.Context, categoryName string) error {
	var categoryID sql.NullInt64
	if categoryName != "" {
		name := norm.NFC.String(categoryName)
		err := s.db.QueryRowContext(ctx,
			"SELECT id FROM categories WHERE name = ?", name,
		).Scan(&categoryID)
		if errors.Is(err, sql.ErrNoRows) {
			return model.NewInvalidInput(fmt.Sprintf("unknown category %q", name), nil)
		}
		if err != nil {
			return model.NewStorageUnavailable("set default category", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, default_category) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET default_category = excluded.default_category
	`, categoryID)
	if err != nil {
		return model.NewStorageUnavailable("set default category", err)
	}
	return nil
}
