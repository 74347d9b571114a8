package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/unitconv/internal/history"
	"github.com/roach88/unitconv/internal/model"
)

// AssertionError is returned when an assertion fails.
// It includes the history log to help debug the failure.
type AssertionError struct {
	Type     string                // Assertion type for categorization
	Expected string                // Human-readable expected outcome
	Actual   string                // Human-readable actual outcome
	History  []model.HistoryRecord // History log, newest first
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nHistory:\n")
	for _, r := range e.History {
		fmt.Fprintf(&buf, "  [%d] %v %s -> %s = %v\n", r.ID, r.InputValue, r.FromUnit, r.ToUnit, r.ResultValue)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the history log and
// returns the failure messages.
func EvaluateAssertions(records []model.HistoryRecord, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertHistoryCount:
			err = assertHistoryCount(records, a)
		case AssertHistoryContains:
			err = assertHistoryContains(records, a)
		case AssertHistoryOrder:
			err = assertHistoryOrder(records, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func assertHistoryCount(records []model.HistoryRecord, a Assertion) error {
	if len(records) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertHistoryCount,
		Expected: fmt.Sprintf("%d records", a.Count),
		Actual:   fmt.Sprintf("%d records", len(records)),
		History:  records,
	}
}

func assertHistoryContains(records []model.HistoryRecord, a Assertion) error {
	field, err := model.ParseHistoryField(a.Field)
	if err != nil {
		return err
	}
	if len(history.Filter(records, a.Text, field)) > 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertHistoryContains,
		Expected: fmt.Sprintf("a record with %s containing %q", field, a.Text),
		Actual:   "no match",
		History:  records,
	}
}

// assertHistoryOrder checks that the conversions appear in the given order,
// newest first. Other records may appear in between.
func assertHistoryOrder(records []model.HistoryRecord, a Assertion) error {
	next := 0
	for _, r := range records {
		if next == len(a.Conversions) {
			break
		}
		if conversionKey(r) == a.Conversions[next] {
			next++
		}
	}
	if next == len(a.Conversions) {
		return nil
	}

	actual := make([]string, len(records))
	for i, r := range records {
		actual[i] = conversionKey(r)
	}
	return &AssertionError{
		Type:     AssertHistoryOrder,
		Expected: fmt.Sprintf("conversions in order: %v", a.Conversions),
		Actual:   fmt.Sprintf("%v (missing %s)", actual, a.Conversions[next]),
		History:  records,
	}
}

func conversionKey(r model.HistoryRecord) string {
	return r.FromUnit + "->" + r.ToUnit
}
