package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/unitconv/internal/model"
)

// Catalog resolves unit names to their transforms.
// Implemented by *store.Store.
type Catalog interface {
	GetUnitTransform(ctx context.Context, unitName string) (model.UnitTransform, error)
	GetUnitTransformIn(ctx context.Context, categoryName, unitName string) (model.UnitTransform, error)
}

// HistoryWriter appends completed conversions to the history log.
// Implemented by *store.Store.
type HistoryWriter interface {
	AppendHistory(ctx context.Context, rec model.HistoryRecord) (model.HistoryRecord, error)
}

// Engine resolves units, converts values and records history.
//
// Engine holds no mutable state of its own; all persistence goes through the
// injected Catalog and HistoryWriter.
type Engine struct {
	catalog Catalog
	history HistoryWriter
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for conversion diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine. history may be nil, in which case no conversion is
// recorded.
func New(catalog Catalog, history HistoryWriter, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		history: history,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Request describes one conversion.
type Request struct {
	Value float64
	From  string
	To    string

	// Category qualifies both unit lookups when set. Empty means lookup by
	// unit name alone, where the first-inserted unit of that name wins.
	Category string

	// SkipHistory disables the history write.
	SkipHistory bool
}

// Result is a successful conversion.
//
// Value is the unrounded result. Persisted is the value written to history
// (rounded to model.PersistedDecimals) and Display the presentation form
// (model.DisplayDigits significant digits).
type Result struct {
	Input     float64             `json:"input"`
	From      model.UnitTransform `json:"from"`
	To        model.UnitTransform `json:"to"`
	Value     float64             `json:"value"`
	Persisted float64             `json:"persisted"`
	Display   string              `json:"display"`

	// Record is the stored history entry, nil if history was skipped or the
	// write failed.
	Record *model.HistoryRecord `json:"record,omitempty"`

	// SaveErr reports a failed history write. The conversion itself
	// succeeded and the other fields are valid.
	SaveErr error `json:"-"`
}

// Convert resolves both units, converts req.Value and appends the conversion
// to the history log.
//
// The returned error covers resolution and arithmetic only. A history write
// failure is logged and reported in Result.SaveErr.
func (e *Engine) Convert(ctx context.Context, req Request) (Result, error) {
	from, err := e.resolve(ctx, req.Category, req.From)
	if err != nil {
		return Result{}, err
	}
	to, err := e.resolve(ctx, req.Category, req.To)
	if err != nil {
		return Result{}, err
	}

	value, err := Convert(req.Value, from, to)
	if err != nil {
		if model.IsInvalidUnitDefinition(err) {
			e.logger.Warn("invalid unit definition", "from", from.Name, "to", to.Name, "error", err)
		}
		return Result{}, err
	}

	result := Result{
		Input:     req.Value,
		From:      from,
		To:        to,
		Value:     value,
		Persisted: model.RoundPersisted(value),
		Display:   model.FormatDisplay(value),
	}

	e.logger.Debug("converted",
		"input", req.Value,
		"from", from.Name,
		"to", to.Name,
		"result", value,
	)

	if req.SkipHistory || e.history == nil {
		return result, nil
	}

	categoryID := from.CategoryID
	rec, err := e.history.AppendHistory(ctx, model.HistoryRecord{
		InputValue:  req.Value,
		FromUnit:    from.Name,
		ToUnit:      to.Name,
		ResultValue: result.Persisted,
		CategoryID:  &categoryID,
	})
	if err != nil {
		if !model.IsStorageUnavailable(err) {
			err = model.NewStorageUnavailable("save conversion history", err)
		}
		result.SaveErr = err
		e.logger.Error("failed to save conversion history",
			"from", from.Name,
			"to", to.Name,
			"error", err,
		)
		return result, nil
	}
	result.Record = &rec

	return result, nil
}

// ConvertText parses user-entered text and converts it. Empty or
// non-numeric text fails with INVALID_INPUT before any lookup happens.
func (e *Engine) ConvertText(ctx context.Context, text string, req Request) (Result, error) {
	v, err := model.ParseValue(text)
	if err != nil {
		return Result{}, err
	}
	req.Value = v
	return e.Convert(ctx, req)
}

// Swap converts req.Value in the opposite direction (To -> From).
func (e *Engine) Swap(ctx context.Context, req Request) (Result, error) {
	req.From, req.To = req.To, req.From
	return e.Convert(ctx, req)
}

func (e *Engine) resolve(ctx context.Context, category, unit string) (model.UnitTransform, error) {
	var (
		t   model.UnitTransform
		err error
	)
	if category != "" {
		t, err = e.catalog.GetUnitTransformIn(ctx, category, unit)
	} else {
		t, err = e.catalog.GetUnitTransform(ctx, unit)
	}
	if err == nil {
		return t, nil
	}

	if model.IsUnitNotFound(err) {
		e.logger.Warn("unit not found", "unit", unit, "category", category)
		return model.UnitTransform{}, err
	}
	if model.IsStorageUnavailable(err) {
		return model.UnitTransform{}, err
	}
	return model.UnitTransform{}, model.NewStorageUnavailable("resolve unit "+unit, err)
}
