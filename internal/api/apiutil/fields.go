package apiutil

import (
	"fmt"
	"strconv"
	"strings"
)

func RequireString(raw string, field string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", FieldError{Field: field, Reason: "is required"}
	}
	return raw, nil
}

func ParsePositiveIntField(raw string, field string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{Field: field, Reason: "is required"}
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, FieldError{Field: field, Reason: "must be greater than 0"}
	}
	return value, nil
}

// ValidateMinuteRange checks a weekly slot's minute-of-day window: both ends
// within [0, 1440) and end strictly after start.
func ValidateMinuteRange(startMinutes, endMinutes int) error {
	if startMinutes < 0 || startMinutes >= 24*60 {
		return FieldError{Field: "startTimeMinutes", Reason: "must be within the day"}
	}
	if endMinutes < 0 || endMinutes >= 24*60 {
		return FieldError{Field: "endTimeMinutes", Reason: "must be within the day"}
	}
	if endMinutes <= startMinutes {
		return FieldError{Field: "endTimeMinutes", Reason: fmt.Sprintf("must be after startTimeMinutes (%d)", startMinutes)}
	}
	return nil
}
