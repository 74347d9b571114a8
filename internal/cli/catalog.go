package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/unitconv/internal/catalog"
)

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate and import unit catalogs",
		Long: `Work with YAML unit catalogs.

A catalog lists categories and their units. Each unit maps to its category
base unit as: base = value * factor + offset. Factors must be non-zero.

Example catalog:
  categories:
    - name: Pressure
      units:
        - {name: Pascal, symbol: Pa, factor: 1}
        - {name: Bar, symbol: bar, factor: 100000}`,
	}

	cmd.AddCommand(newCatalogValidateCommand(rootOpts))
	cmd.AddCommand(newCatalogImportCommand(rootOpts))

	return cmd
}

func newCatalogValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a catalog file without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogValidate(cmd, rootOpts, args[0])
		},
	}
}

func newCatalogImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add the categories and units of a catalog file",
		Long: `Add the categories and units of a catalog file to the database.

Categories and units that already exist are left unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogImport(cmd, rootOpts, args[0])
		},
	}
}

func runCatalogValidate(cmd *cobra.Command, opts *RootOptions, path string) error {
	out := newFormatter(cmd, opts)

	doc, err := loadCatalog(out, path)
	if err != nil {
		return err
	}

	data := map[string]interface{}{
		"file":       path,
		"categories": len(doc.Categories),
		"units":      doc.UnitCount(),
	}
	return out.Render(data, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s: %d categories, %d units\n", path, len(doc.Categories), doc.UnitCount())
		return err
	})
}

func runCatalogImport(cmd *cobra.Command, opts *RootOptions, path string) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := loadCatalog(a.out, path)
	if err != nil {
		return err
	}

	result, err := a.store.ImportCatalog(cmd.Context(), doc)
	if err != nil {
		return a.out.Fail(err)
	}

	data := map[string]interface{}{
		"categories_added": result.CategoriesAdded,
		"units_added":      result.UnitsAdded,
		"units_skipped":    result.UnitsSkipped,
	}
	return a.out.Render(data, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Imported %d categories, %d units (%d already present)\n",
			result.CategoriesAdded, result.UnitsAdded, result.UnitsSkipped)
		return err
	})
}

// loadCatalog reads path and reports schema violations as E007.
func loadCatalog(out *OutputFormatter, path string) (*catalog.Document, error) {
	doc, err := catalog.Load(path)
	if err == nil {
		return doc, nil
	}

	var verr *catalog.ValidationError
	if errors.As(err, &verr) {
		_ = out.Error(ErrCodeInvalidCatalog, "invalid catalog "+path, verr.Details)
		return nil, &ExitError{Code: ExitFailure, Message: "invalid catalog", Err: err, Reported: true}
	}
	_ = out.Error(ErrCodeGeneric, err.Error(), nil)
	return nil, &ExitError{Code: ExitCommandError, Message: "cannot read catalog", Err: err, Reported: true}
}
