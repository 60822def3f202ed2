package engine

import (
	"errors"
	"fmt"
	"time"
)

// Granularity is a calendar bucket size for time series.
type Granularity string

// Granularities, finest to coarsest.
const (
	GranularityDay     Granularity = "day"
	GranularityWeek    Granularity = "week"
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
	GranularityYear    Granularity = "year"
)

// ErrUnknownGranularity is returned by ParseGranularity.
var ErrUnknownGranularity = errors.New("engine: unknown granularity")

// ParseGranularity converts a granularity string from a report spec.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityDay, GranularityWeek, GranularityMonth, GranularityQuarter, GranularityYear:
		return Granularity(s), nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
}

// DefaultMaxBuckets caps series length before validation flags a range as
// too fine-grained to render.
const DefaultMaxBuckets = 500

// RangeByGranularity generates bucket start times from start to end,
// stepping by one granularity unit, inclusive of both endpoints when they
// land on a step. Returns nil when end precedes start.
func RangeByGranularity(start, end time.Time, g Granularity) []time.Time {
	if end.Before(start) {
		return nil
	}

	var buckets []time.Time
	for d := start; !d.After(end); d = stepGranularity(d, g) {
		buckets = append(buckets, d)
	}

	return buckets
}

func stepGranularity(d time.Time, g Granularity) time.Time {
	switch g {
	case GranularityDay:
		return d.AddDate(0, 0, 1)
	case GranularityWeek:
		return d.AddDate(0, 0, 7)
	case GranularityMonth:
		return d.AddDate(0, 1, 0)
	case GranularityQuarter:
		return d.AddDate(0, 3, 0)
	case GranularityYear:
		return d.AddDate(1, 0, 0)
	default:
		return d.AddDate(0, 1, 0)
	}
}

// BucketLabel renders the calendar bucket a time falls into. Rows and bucket
// boundaries are matched by label, so any time within the same calendar
// period produces the same label.
//
// Formats: day 2024-07-15, week 2024-07-14 (the Sunday starting its week),
// month 2024-07, quarter 2024-Q3, year 2024. All formats sort
// lexicographically in chronological order.
func BucketLabel(t time.Time, g Granularity) string {
	switch g {
	case GranularityDay:
		return t.Format("2006-01-02")
	case GranularityWeek:
		sunday := t.AddDate(0, 0, -int(t.Weekday()))

		return sunday.Format("2006-01-02")
	case GranularityMonth:
		return t.Format("2006-01")
	case GranularityQuarter:
		return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	case GranularityYear:
		return t.Format("2006")
	default:
		return t.Format("2006-01")
	}
}

// RangeValidation is the advisory result of ValidateGranularityRange.
// Exceeding the bucket cap is a soft failure: the caller decides whether to
// block rendering or merely surface the warning.
type RangeValidation struct {
	Valid       bool   `json:"valid"`
	BucketCount int    `json:"bucketCount"`
	Warning     string `json:"warning,omitempty"`
}

// ValidateGranularityRange checks that the range/granularity combination
// produces a renderable number of buckets. maxBuckets <= 0 uses
// DefaultMaxBuckets. Never an error; pathological input yields
// Valid: false with a human-readable warning.
func ValidateGranularityRange(start, end time.Time, g Granularity, maxBuckets int) RangeValidation {
	if maxBuckets <= 0 {
		maxBuckets = DefaultMaxBuckets
	}

	count := len(RangeByGranularity(start, end, g))

	v := RangeValidation{Valid: true, BucketCount: count}
	if count > maxBuckets {
		v.Valid = false
		v.Warning = fmt.Sprintf(
			"%s granularity over this range produces %d buckets (max %d); pick a coarser granularity or a shorter range",
			g, count, maxBuckets)
	}

	return v
}

// ValidateRange applies ValidateGranularityRange with the engine's
// configured bucket cap. A maxBuckets > 0 overrides it per call.
func (e *Engine) ValidateRange(start, end time.Time, g Granularity, maxBuckets int) RangeValidation {
	if maxBuckets <= 0 {
		maxBuckets = e.maxBuckets
	}

	return ValidateGranularityRange(start, end, g, maxBuckets)
}

// SuggestGranularity picks a sensible default granularity for a date range:
// up to a month of days, a quarter of weeks, two years of months, five
// years of quarters, then years.
func SuggestGranularity(start, end time.Time) Granularity {
	days := end.Sub(start).Hours() / 24

	switch {
	case days <= 31:
		return GranularityDay
	case days <= 90:
		return GranularityWeek
	case days <= 730:
		return GranularityMonth
	case days <= 1825:
		return GranularityQuarter
	default:
		return GranularityYear
	}
}
