package model

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the text form of history timestamps (SQLite CURRENT_TIMESTAMP format).
const TimestampLayout = "2006-01-02 15:04:05"

// PersistedDecimals is the number of decimal places kept for stored results.
const PersistedDecimals = 10

// DisplayDigits is the number of significant digits shown for results.
const DisplayDigits = 6

// RoundPersisted rounds v to PersistedDecimals decimal places, the precision
// written to the history log.
func RoundPersisted(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', PersistedDecimals, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// FormatDisplay renders v with DisplayDigits significant digits.
func FormatDisplay(v float64) string {
	return strconv.FormatFloat(v, 'g', DisplayDigits, 64)
}

// FormatText renders v the way history search sees it: integral values keep a
// trailing ".0", very large and very small magnitudes use exponent notation.
func FormatText(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FormatTimestamp renders t in TimestampLayout (UTC).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseValue parses user-entered text into a finite number.
func ParseValue(text string) (float64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, NewInvalidInput("value is required", nil)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, NewInvalidInput("value must be a number: "+strconv.Quote(s), err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, NewInvalidInput("value must be finite: "+strconv.Quote(s), nil)
	}
	return v, nil
}
