package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// UnitsOptions holds flags for the units command.
type UnitsOptions struct {
	*RootOptions
	Details bool
}

// NewUnitsCommand creates the units command.
func NewUnitsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UnitsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "units [category]",
		Short: "List the units of a category",
		Long: `List the units of a category, sorted by name.

Without an argument the default category from settings is used.
An unknown category lists no units.

Examples:
  unitconv units Length
  unitconv units Temperature --details`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnits(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Details, "details", false, "include symbols and transforms")

	return cmd
}

func runUnits(cmd *cobra.Command, opts *UnitsOptions, args []string) error {
	a, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	var category string
	if len(args) == 1 {
		category = args[0]
	} else {
		settings, err := a.store.Settings(ctx)
		if err != nil {
			return a.out.Fail(err)
		}
		category = settings.DefaultCategory
	}
	if category == "" {
		_ = a.out.Error(ErrCodeGeneric, "category is required (no default category set)", nil)
		return &ExitError{Code: ExitCommandError, Message: "category is required", Reported: true}
	}
	a.out.VerboseLog("Listing units of %s", category)

	if !opts.Details {
		names, err := a.store.ListUnits(ctx, category)
		if err != nil {
			return a.out.Fail(err)
		}
		data := map[string]interface{}{"category": category, "units": names}
		return a.out.Render(data, func(w io.Writer) error {
			for _, name := range names {
				fmt.Fprintln(w, name)
			}
			return nil
		})
	}

	units, err := a.store.Units(ctx, category)
	if err != nil {
		return a.out.Fail(err)
	}
	data := map[string]interface{}{"category": category, "units": units}
	return a.out.Render(data, func(w io.Writer) error {
		tw := newTable(w)
		fmt.Fprintln(tw, "NAME\tSYMBOL\tFACTOR\tOFFSET")
		for _, u := range units {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.Name, u.Symbol, formatNumber(u.Factor), formatNumber(u.Offset))
		}
		return tw.Flush()
	})
}
