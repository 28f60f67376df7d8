package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"golang.org/x/text/cases"
)

// Record is a single loosely-typed API object.
type Record map[string]any

// Alias lists the case variants of one logical field in priority order.
type Alias []string

// Field aliases used across the reconstruction pipeline.
var (
	NodeID       = Alias{"activityNodeId", "ActivityNodeId"}
	ActivityName = Alias{"activityName", "ActivityName"}
	ActivityType = Alias{"activityType", "ActivityType"}
	StartedAt    = Alias{"startedAt", "StartedAt"}
	CompletedAt  = Alias{"completedAt", "CompletedAt"}
	Status       = Alias{"status", "Status"}
	IsBlocked    = Alias{"isBlocked", "IsBlocked"}
	IsFaulted    = Alias{"isFaulted", "IsFaulted"}
	EventName    = Alias{"eventName", "EventName"}
	Name         = Alias{"name", "Name"}
	Timestamp    = Alias{"timestamp", "Timestamp"}
	CreatedAt    = Alias{"createdAt", "CreatedAt"}
	ExecutedAt   = Alias{"executedAt", "ExecutedAt"}
	UpdatedAt    = Alias{"updatedAt", "UpdatedAt"}
	ID           = Alias{"id", "Id"}
	DefinitionID = Alias{"definitionId", "DefinitionId"}
	Stats        = Alias{"stats", "Stats"}
	Items        = Alias{"items", "Items", "data", "Data"}
)

// Decode parses a JSON document, keeping numbers as json.Number so ids and
// counters are not rounded through float64.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}

// List returns the records carried by v.
//
// A sequence is returned element by element (non-object elements become nil
// records so positions are preserved). An object is searched for an items or
// data envelope field. Anything else yields an empty, non-nil slice.
func List(v any) []Record {
	switch val := v.(type) {
	case []any:
		return fromSlice(val)
	case []Record:
		return val
	case []map[string]any:
		out := make([]Record, len(val))
		for i, m := range val {
			out[i] = Record(m)
		}
		return out
	case map[string]any:
		return envelope(Record(val))
	case Record:
		return envelope(val)
	}
	return []Record{}
}

func envelope(r Record) []Record {
	inner, ok := LookupFold(r, Items)
	if !ok {
		return []Record{}
	}
	switch items := inner.(type) {
	case []any:
		return fromSlice(items)
	case []Record:
		return items
	}
	return []Record{}
}

func fromSlice(items []any) []Record {
	out := make([]Record, len(items))
	for i, item := range items {
		out[i] = AsRecord(item)
	}
	return out
}

// AsRecord returns v as a Record, or nil when v is not an object.
func AsRecord(v any) Record {
	switch val := v.(type) {
	case Record:
		return val
	case map[string]any:
		return Record(val)
	}
	return nil
}

// Lookup returns the first alias present on r with a non-null value.
func Lookup(r Record, a Alias) (any, bool) {
	if r == nil {
		return nil, false
	}
	for _, key := range a {
		if v, ok := r[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// LookupFold is Lookup followed by a case-insensitive pass over r's keys.
// Keys are visited in sorted order so the match is deterministic.
func LookupFold(r Record, a Alias) (any, bool) {
	if v, ok := Lookup(r, a); ok {
		return v, true
	}
	if r == nil {
		return nil, false
	}

	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fold := cases.Fold()
	for _, want := range a {
		folded := fold.String(want)
		for _, k := range keys {
			if r[k] != nil && fold.String(k) == folded {
				return r[k], true
			}
		}
	}
	return nil, false
}

// String returns the alias value rendered as a string, or def when the field
// is absent or not a scalar.
func String(r Record, a Alias, def string) string {
	v, ok := Lookup(r, a)
	if !ok {
		return def
	}
	s, ok := scalarString(v)
	if !ok {
		return def
	}
	return s
}

// NonEmptyString is like String but also treats the empty string as absent.
func NonEmptyString(r Record, a Alias) (string, bool) {
	s := String(r, a, "")
	return s, s != ""
}

// FirstString returns the first alias holding a non-null scalar, rendered as
// a string. An empty string counts as present. def is returned when none do.
func FirstString(r Record, def string, aliases ...Alias) string {
	for _, a := range aliases {
		v, ok := Lookup(r, a)
		if !ok {
			continue
		}
		if s, ok := scalarString(v); ok {
			return s
		}
	}
	return def
}

// Truthy reports whether the alias value is truthy: present, and not false,
// zero, NaN or the empty string.
func Truthy(r Record, a Alias) bool {
	v, ok := Lookup(r, a)
	if !ok {
		return false
	}
	return truthy(v)
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return val.String() != ""
		}
		return f != 0 && !math.IsNaN(f)
	case float64:
		return val != 0 && !math.IsNaN(val)
	case float32:
		return val != 0 && !math.IsNaN(float64(val))
	case int:
		return val != 0
	case int64:
		return val != 0
	}
	return true
}

func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case bool:
		return strconv.FormatBool(val), true
	}
	return "", false
}
