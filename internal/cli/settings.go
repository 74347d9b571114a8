package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/unitconv/internal/model"
)

// NewSettingsCommand creates the settings command and its subcommands.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change user preferences",
		Long: `Show or change the preferences stored in the database.

Examples:
  unitconv settings
  unitconv settings theme dark
  unitconv settings default-category Length
  unitconv settings default-category        # clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsShow(cmd, rootOpts)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "theme <light|dark>",
		Short:     "Set the theme mode",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{model.ThemeLight, model.ThemeDark},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsTheme(cmd, rootOpts, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "default-category [name]",
		Short: "Set or clear the default category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runSettingsDefaultCategory(cmd, rootOpts, name)
		},
	})

	return cmd
}

func runSettingsShow(cmd *cobra.Command, opts *RootOptions) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	settings, err := a.store.Settings(cmd.Context())
	if err != nil {
		return a.out.Fail(err)
	}
	return a.renderSettings(settings)
}

func runSettingsTheme(cmd *cobra.Command, opts *RootOptions, mode string) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	if err := a.store.SetThemeMode(ctx, mode); err != nil {
		return a.out.Fail(err)
	}

	settings, err := a.store.Settings(ctx)
	if err != nil {
		return a.out.Fail(err)
	}
	return a.renderSettings(settings)
}

func runSettingsDefaultCategory(cmd *cobra.Command, opts *RootOptions, name string) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	if err := a.store.SetDefaultCategory(ctx, name); err != nil {
		return a.out.Fail(err)
	}

	settings, err := a.store.Settings(ctx)
	if err != nil {
		return a.out.Fail(err)
	}
	return a.renderSettings(settings)
}

func (a *app) renderSettings(settings model.Settings) error {
	return a.out.Render(settings, func(w io.Writer) error {
		category := settings.DefaultCategory
		if category == "" {
			category = "(none)"
		}
		fmt.Fprintf(w, "theme_mode: %s\n", settings.ThemeMode)
		_, err := fmt.Fprintf(w, "default_category: %s\n", category)
		return err
	})
}
