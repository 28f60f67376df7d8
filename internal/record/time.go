package record

import (
	"strings"
	"time"
)

// Layouts accepted for instants. Zone-less forms are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTime parses an instant from a string or time.Time value.
// Any other type, and any unparsable string, yields false.
func ParseTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return val, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Time resolves an alias and parses it as an instant.
func Time(r Record, a Alias) (time.Time, bool) {
	v, ok := Lookup(r, a)
	if !ok {
		return time.Time{}, false
	}
	return ParseTime(v)
}

// TimePtr is Time returning nil for an absent instant.
func TimePtr(r Record, a Alias) *time.Time {
	t, ok := Time(r, a)
	if !ok {
		return nil
	}
	return &t
}

// FirstTime returns the first alias in order that yields a parseable instant.
func FirstTime(r Record, aliases ...Alias) (time.Time, bool) {
	for _, a := range aliases {
		if t, ok := Time(r, a); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
