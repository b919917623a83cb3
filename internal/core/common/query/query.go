package query

import (
	"strconv"
	"strings"
	"time"

	errors "github.com/frahmantamala/expense-approval/internal"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type Page struct {
	Limit  int
	Offset int
}

// ParsePage reads limit/offset query values. Limits above MaxLimit are clamped.
func ParsePage(limitParam, offsetParam string) (Page, error) {
	page := Page{Limit: DefaultLimit}

	if limitParam = strings.TrimSpace(limitParam); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil || limit < 1 {
			return Page{}, errors.NewValidationError("Limit must be a positive integer", errors.ErrCodeInvalidLimit)
		}
		page.Limit = min(limit, MaxLimit)
	}

	if offsetParam = strings.TrimSpace(offsetParam); offsetParam != "" {
		offset, err := strconv.Atoi(offsetParam)
		if err != nil || offset < 0 {
			return Page{}, errors.NewValidationError("Offset must be a non-negative integer", errors.ErrCodeInvalidOffset)
		}
		page.Offset = offset
	}

	return page, nil
}

// ParseID parses a positive integer identifier.
func ParseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ParseOptionalID returns nil for an empty value.
func ParseOptionalID(raw string, code errors.ErrorCode, message string) (*int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, ok := ParseID(raw)
	if !ok {
		return nil, errors.NewValidationError(message, code)
	}
	return &id, nil
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

const dateLayout = "2006-01-02"

// ParseDate accepts RFC 3339 timestamps or plain dates. A plain date used
// as an upper bound covers the whole day.
func ParseDate(raw string, upperBound bool) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	if upperBound {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t.UTC(), true
}

type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// ParseDateRange validates an optional inclusive window on createdAt.
func ParseDateRange(startParam, endParam string) (DateRange, error) {
	var r DateRange

	if strings.TrimSpace(startParam) != "" {
		start, ok := ParseDate(startParam, false)
		if !ok {
			return DateRange{}, errors.NewValidationError("Invalid startDate format", errors.ErrCodeInvalidStartDate)
		}
		r.Start = &start
	}

	if strings.TrimSpace(endParam) != "" {
		end, ok := ParseDate(endParam, true)
		if !ok {
			return DateRange{}, errors.NewValidationError("Invalid endDate format", errors.ErrCodeInvalidEndDate)
		}
		r.End = &end
	}

	if r.Start != nil && r.End != nil && r.Start.After(*r.End) {
		return DateRange{}, errors.NewValidationError("startDate must be before or equal to endDate", errors.ErrCodeInvalidDateRange)
	}

	return r, nil
}
