// Package status derives one execution status per activity node.
package status

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/elsatrace/internal/record"
)

// Status is the derived execution status of an activity node.
// Literal statuses reported by the server pass through lower-cased, so the
// set of values is open; the constants below are the ones the classifier
// produces on its own.
type Status string

const (
	Unknown   Status = "unknown"
	Running   Status = "running"
	Completed Status = "completed"
	Blocked   Status = "blocked"
	Faulted   Status = "faulted"
)

// Classify derives the status of a summary record.
//
// Flags are read from stat when a correlated statistics record exists, and
// from the summary otherwise. Precedence is fixed: faulted, blocked, literal
// status, completed, running, unknown.
func Classify(summary, stat record.Record) Status {
	flags := summary
	if stat != nil {
		flags = stat
	}

	if record.Truthy(flags, record.IsFaulted) {
		return Faulted
	}
	if record.Truthy(flags, record.IsBlocked) {
		return Blocked
	}
	if literal, ok := record.NonEmptyString(summary, record.Status); ok {
		return Status(cases.Lower(language.Und).String(literal))
	}
	if _, ok := record.Time(summary, record.CompletedAt); ok {
		return Completed
	}
	if _, ok := record.Time(summary, record.StartedAt); ok {
		return Running
	}
	return Unknown
}

// Label returns the display label for s. Statuses outside the fixed set
// render as "Unknown".
func Label(s Status) string {
	switch s {
	case Faulted:
		return "Faulted"
	case Blocked:
		return "Blocked"
	case Completed:
		return "Completed"
	case Running:
		return "Running"
	default:
		return "Unknown"
	}
}

// Capitalize upper-cases the first rune of s and leaves the rest unchanged.
func Capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
