// Package history serves filtered views of the conversion history log.
package history

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/unitconv/internal/model"
)

// Log is the history storage used by Service.
// Implemented by *store.Store.
type Log interface {
	ReadHistory(ctx context.Context) ([]model.HistoryRecord, error)
	ClearHistory(ctx context.Context) (int64, error)
}

// Service queries and clears the history log.
type Service struct {
	log Log
}

// New creates a Service backed by log.
func New(log Log) *Service {
	return &Service{log: log}
}

// Query returns the records matching text in field, newest first.
// An empty text returns the whole log.
func (s *Service) Query(ctx context.Context, text string, field model.HistoryField) ([]model.HistoryRecord, error) {
	records, err := s.log.ReadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return Filter(records, text, field), nil
}

// Clear deletes every history record and returns how many were removed.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	return s.log.ClearHistory(ctx)
}

// Filter keeps the records whose field text contains text, compared
// case-insensitively. FieldAll matches a record if any field contains text.
// Order is preserved and the result is never nil.
func Filter(records []model.HistoryRecord, text string, field model.HistoryField) []model.HistoryRecord {
	if text == "" {
		out := make([]model.HistoryRecord, len(records))
		copy(out, records)
		return out
	}

	fold := cases.Fold()
	needle := fold.String(norm.NFC.String(text))

	out := []model.HistoryRecord{}
	for _, rec := range records {
		if matches(fold, rec, needle, field) {
			out = append(out, rec)
		}
	}
	return out
}

func matches(fold cases.Caser, rec model.HistoryRecord, needle string, field model.HistoryField) bool {
	for _, f := range model.HistoryFields {
		if f == model.FieldAll || (field != model.FieldAll && f != field) {
			continue
		}
		if strings.Contains(fold.String(norm.NFC.String(FieldText(rec, f))), needle) {
			return true
		}
	}
	return false
}

// FieldText returns the text form of one field of rec, as seen by search.
// A missing category ID renders as the empty string.
func FieldText(rec model.HistoryRecord, field model.HistoryField) string {
	switch field {
	case model.FieldID:
		return strconv.FormatInt(rec.ID, 10)
	case model.FieldInput:
		return model.FormatText(rec.InputValue)
	case model.FieldFromUnit:
		return rec.FromUnit
	case model.FieldToUnit:
		return rec.ToUnit
	case model.FieldResult:
		return model.FormatText(rec.ResultValue)
	case model.FieldCategoryID:
		if rec.CategoryID == nil {
			return ""
		}
		return strconv.FormatInt(*rec.CategoryID, 10)
	case model.FieldTimestamp:
		return model.FormatTimestamp(rec.Timestamp)
	}
	return ""
}
