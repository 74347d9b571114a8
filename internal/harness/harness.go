package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/roach88/unitconv/internal/catalog"
	"github.com/roach88/unitconv/internal/engine"
	"github.com/roach88/unitconv/internal/history"
	"github.com/roach88/unitconv/internal/model"
	"github.com/roach88/unitconv/internal/store"
	"github.com/roach88/unitconv/internal/testutil"
)

// Epoch is the first timestamp handed out by the scenario clock.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock against a private database.
type Harness struct {
	store   *store.Store
	engine  *engine.Engine
	history *history.Service
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// The returned error covers setup failures only; failed expectations and
// assertions are reported in Result.Errors.
//
// Execution flow:
// 1. Create fresh in-memory database seeded with the built-in catalog
// 2. Import the scenario catalog, if any
// 3. Execute flow steps with expect validation
// 4. Evaluate assertions against the history log
func Run(scenario *Scenario) (*Result, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	clock := testutil.NewStepClock(Epoch, time.Second)

	st, err := store.Open(":memory:",
		store.WithClock(clock.Now),
		store.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:   st,
		engine:  engine.New(st, st, engine.WithLogger(logger)),
		history: history.New(st),
		logger:  logger,
	}

	ctx := context.Background()

	if scenario.Catalog != "" {
		doc, err := catalog.Load(scenario.Catalog)
		if err != nil {
			return nil, fmt.Errorf("failed to load scenario catalog: %w", err)
		}
		if _, err := st.ImportCatalog(ctx, doc); err != nil {
			return nil, fmt.Errorf("failed to import scenario catalog: %w", err)
		}
	}

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	records, err := st.ReadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	for _, errMsg := range EvaluateAssertions(records, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeFlow runs all flow steps and validates expect clauses.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		var (
			ev  TraceEvent
			res engine.Result
			err error
		)

		switch {
		case step.Convert != nil, step.Swap != nil:
			c, kind := step.Convert, StepConvert
			if step.Swap != nil {
				c, kind = step.Swap, StepSwap
			}
			ev = TraceEvent{Step: kind, Input: c.Value, From: c.From, To: c.To}
			res, err = h.convert(ctx, kind, c)
			if err == nil {
				ev.Display = res.Display
				if res.Record != nil {
					ev.HistoryID = res.Record.ID
				}
			}

		case step.Query != nil:
			field, _ := model.ParseHistoryField(step.Query.Field)
			ev = TraceEvent{Step: StepQuery, Input: step.Query.Text, Field: string(field)}
			var records []model.HistoryRecord
			records, err = h.history.Query(ctx, step.Query.Text, field)
			ev.Count = len(records)

		case step.Clear:
			ev = TraceEvent{Step: StepClear}
			var n int64
			n, err = h.history.Clear(ctx)
			ev.Count = int(n)
		}

		ev.Case = CaseOK
		if err != nil {
			code := model.CodeOf(err)
			if code == "" {
				return fmt.Errorf("flow step %d: %w", i, err)
			}
			ev.Case = string(code)
		}
		result.addTrace(ev)

		for _, msg := range checkExpect(step.Expect, ev, res) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, ev.Step, msg))
		}

		h.logger.Debug("flow step completed", "step", i, "kind", ev.Step, "case", ev.Case)
	}
	return nil
}

func (h *Harness) convert(ctx context.Context, kind string, c *ConvertStep) (engine.Result, error) {
	req := engine.Request{
		From:        c.From,
		To:          c.To,
		Category:    c.Category,
		SkipHistory: c.NoHistory,
	}
	if kind == StepSwap {
		v, err := model.ParseValue(c.Value)
		if err != nil {
			return engine.Result{}, err
		}
		req.Value = v
		return h.engine.Swap(ctx, req)
	}
	return h.engine.ConvertText(ctx, c.Value, req)
}

// checkExpect compares a step outcome with its expect clause.
// A nil clause expects success.
func checkExpect(expect *ExpectClause, ev TraceEvent, res engine.Result) []string {
	want := CaseOK
	if expect != nil && expect.Case != "" {
		want = expect.Case
	}
	if ev.Case != want {
		return []string{fmt.Sprintf("expected case %s, got %s", want, ev.Case)}
	}
	if expect == nil {
		return nil
	}

	var errs []string
	if expect.Display != "" && ev.Display != expect.Display {
		errs = append(errs, fmt.Sprintf("expected display %q, got %q", expect.Display, ev.Display))
	}
	if expect.Result != nil && math.Abs(res.Value-*expect.Result) > expect.Tolerance {
		errs = append(errs, fmt.Sprintf("expected result %v (±%v), got %v", *expect.Result, expect.Tolerance, res.Value))
	}
	if expect.Count != nil && ev.Count != *expect.Count {
		errs = append(errs, fmt.Sprintf("expected count %d, got %d", *expect.Count, ev.Count))
	}
	return errs
}
