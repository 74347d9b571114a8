package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// CategoriesOptions holds flags for the categories command.
type CategoriesOptions struct {
	*RootOptions
	Details bool
}

// NewCategoriesCommand creates the categories command.
func NewCategoriesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CategoriesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List unit categories",
		Long: `List the unit categories in the catalog, sorted by name.

Examples:
  unitconv categories
  unitconv categories --details --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCategories(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Details, "details", false, "include category descriptions")

	return cmd
}

func runCategories(cmd *cobra.Command, opts *CategoriesOptions) error {
	a, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	if !opts.Details {
		names, err := a.store.ListCategories(ctx)
		if err != nil {
			return a.out.Fail(err)
		}
		return a.out.Render(map[string]interface{}{"categories": names}, func(w io.Writer) error {
			for _, name := range names {
				fmt.Fprintln(w, name)
			}
			return nil
		})
	}

	categories, err := a.store.Categories(ctx)
	if err != nil {
		return a.out.Fail(err)
	}
	return a.out.Render(map[string]interface{}{"categories": categories}, func(w io.Writer) error {
		tw := newTable(w)
		fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
		for _, c := range categories {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, c.Description)
		}
		return tw.Flush()
	})
}

// newTable returns a tabwriter aligned the same way for every listing.
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// formatNumber renders a stored number in its shortest exact form.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
