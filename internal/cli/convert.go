package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/unitconv/internal/engine"
	"github.com/roach88/unitconv/internal/model"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	*RootOptions
	Category  string
	NoHistory bool
	Swap      bool
}

// ConvertOutput is the JSON payload of a successful conversion.
type ConvertOutput struct {
	Input        float64 `json:"input"`
	From         string  `json:"from"`
	To           string  `json:"to"`
	CategoryID   int64   `json:"category_id"`
	Result       float64 `json:"result"`
	Display      string  `json:"display"`
	Persisted    float64 `json:"persisted"`
	HistoryID    int64   `json:"history_id,omitempty"`
	HistoryError string  `json:"history_error,omitempty"`
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "convert <value> <from> <to>",
		Short: "Convert a value between two units",
		Long: `Convert a value from one unit to another unit of the same category.

The conversion is recorded in the history log unless --no-history is set.
If the history write fails the result is still printed, with a warning.

Negative values must follow "--" so they are not read as flags.

Exit codes:
  0 - Conversion succeeded
  1 - Invalid value, unknown unit or category mismatch
  2 - Database unavailable or command error

Examples:
  unitconv convert 1 Kilometer Meter
  unitconv convert -- -40 Celsius Fahrenheit
  unitconv convert 32 Celsius Fahrenheit --swap`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Category, "category", "", "look both units up in this category")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "do not record the conversion")
	cmd.Flags().BoolVar(&opts.Swap, "swap", false, "convert in the opposite direction (to -> from)")

	return cmd
}

func runConvert(cmd *cobra.Command, opts *ConvertOptions, args []string) error {
	a, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	req := engine.Request{
		From:        args[1],
		To:          args[2],
		Category:    opts.Category,
		SkipHistory: opts.NoHistory,
	}

	var res engine.Result
	if opts.Swap {
		req.Value, err = model.ParseValue(args[0])
		if err != nil {
			return a.out.Fail(err)
		}
		res, err = a.engine.Swap(ctx, req)
	} else {
		res, err = a.engine.ConvertText(ctx, args[0], req)
	}
	if err != nil {
		return a.out.Fail(err)
	}

	output := ConvertOutput{
		Input:      res.Input,
		From:       res.From.Name,
		To:         res.To.Name,
		CategoryID: res.From.CategoryID,
		Result:     res.Value,
		Display:    res.Display,
		Persisted:  res.Persisted,
	}
	if res.Record != nil {
		output.HistoryID = res.Record.ID
	}
	if res.SaveErr != nil {
		output.HistoryError = res.SaveErr.Error()
		a.out.Warn("conversion not saved to history: %v", res.SaveErr)
	}

	return a.out.Render(output, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s %s = %s %s\n",
			model.FormatDisplay(output.Input), output.From, output.Display, output.To)
		return err
	})
}
