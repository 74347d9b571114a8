package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/unitconv/internal/model"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Filter string
	Field  string
}

// HistoryClearOptions holds flags for the history clear command.
type HistoryClearOptions struct {
	*RootOptions
	Yes bool
}

// NewHistoryCommand creates the history command and its clear subcommand.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show conversion history",
		Long: `Show recorded conversions, newest first.

--filter keeps records whose field text contains the given text, ignoring
case. --field selects the field: all, id, input, from_unit, to_unit,
result, category_id or timestamp.

Examples:
  unitconv history
  unitconv history --filter celsius --field from_unit
  unitconv history clear --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "search text")
	cmd.Flags().StringVar(&opts.Field, "field", string(model.FieldAll), "field to search")

	cmd.AddCommand(newHistoryClearCommand(rootOpts))

	return cmd
}

func newHistoryClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryClearOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all conversion history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryClear(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "confirm deletion")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	field, err := model.ParseHistoryField(opts.Field)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --field", err)
	}

	a, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.history.Query(cmd.Context(), opts.Filter, field)
	if err != nil {
		return a.out.Fail(err)
	}
	a.out.VerboseLog("%d matching records", len(records))

	data := map[string]interface{}{"count": len(records), "records": records}
	return a.out.Render(data, func(w io.Writer) error {
		if len(records) == 0 {
			_, err := fmt.Fprintln(w, "No conversion history.")
			return err
		}
		tw := newTable(w)
		fmt.Fprintln(tw, "ID\tINPUT\tFROM\tTO\tRESULT\tCATEGORY\tTIMESTAMP")
		for _, r := range records {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID,
				formatNumber(r.InputValue),
				r.FromUnit,
				r.ToUnit,
				formatNumber(r.ResultValue),
				categoryLabel(r),
				model.FormatTimestamp(r.Timestamp),
			)
		}
		return tw.Flush()
	})
}

func runHistoryClear(cmd *cobra.Command, opts *HistoryClearOptions) error {
	if !opts.Yes {
		return NewExitError(ExitCommandError, "refusing to clear history without --yes")
	}

	a, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.history.Clear(cmd.Context())
	if err != nil {
		return a.out.Fail(err)
	}

	return a.out.Render(map[string]interface{}{"cleared": n}, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Cleared %d history records\n", n)
		return err
	})
}

// categoryLabel names the record's category, falling back to its raw id
// when the category no longer exists.
func categoryLabel(r model.HistoryRecord) string {
	switch {
	case r.CategoryName != "":
		return r.CategoryName
	case r.CategoryID != nil:
		return strconv.FormatInt(*r.CategoryID, 10)
	default:
		return "-"
	}
}
