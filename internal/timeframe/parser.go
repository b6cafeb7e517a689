package timeframe

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // IANA names must resolve on hosts without zoneinfo

	"sitepulse/internal/apperr"
	"sitepulse/internal/visits"
)

// Accepted layouts, tried in order. Layouts without an offset are read in
// the requested timezone.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// RangeParams are the raw query parameters of a time-bounded request
type RangeParams struct {
	StartDate string
	EndDate   string
	Tz        string
}

// ParseRange parses the optional start and end of a visit window. Each
// supplied value must parse; an invalid value is a ValidationError rather
// than an unbounded query. Date-only values mean midnight in Tz (UTC by
// default).
func ParseRange(params RangeParams) (visits.TimeRange, error) {
	loc := time.UTC
	if tz := strings.TrimSpace(params.Tz); tz != "" {
		var err error
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return visits.TimeRange{}, apperr.NewValidationError("tz", fmt.Sprintf("unknown timezone %q", tz))
		}
	}

	start, err := ParseDate(params.StartDate, loc)
	if err != nil {
		return visits.TimeRange{}, apperr.NewValidationError("startDate", err.Error())
	}
	end, err := ParseDate(params.EndDate, loc)
	if err != nil {
		return visits.TimeRange{}, apperr.NewValidationError("endDate", err.Error())
	}

	if start != nil && end != nil && end.Before(*start) {
		return visits.TimeRange{}, apperr.NewValidationError("endDate", "must not be before startDate")
	}

	return visits.TimeRange{Start: start, End: end}, nil
}

// ParseDate parses an ISO-8601 timestamp or date. An empty value yields nil.
func ParseDate(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			utc := t.UTC()
			return &utc, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q, expected ISO-8601 (e.g. 2024-01-31 or 2024-01-31T12:00:00Z)", value)
}
