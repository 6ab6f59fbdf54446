// Package donorform holds the custom field schema of an event's donor form:
// the field definitions, the pure editing operations over them, admission
// checks for donation values, and the read-side projections (insights and
// tables) computed from a schema snapshot plus a set of records.
package donorform

import (
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// FieldType enumerates the kinds of custom fields an admin can define.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumeric  FieldType = "numeric"
	FieldSelector FieldType = "selector"
	FieldRadio    FieldType = "radio"
)

// ParseFieldType validates a wire value.
func ParseFieldType(raw string) (FieldType, error) {
	t := FieldType(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case FieldText, FieldNumeric, FieldSelector, FieldRadio:
		return t, nil
	default:
		return "", ErrUnknownFieldType
	}
}

// HasOptions reports whether values of this type are picked from a fixed
// option list.
func (t FieldType) HasOptions() bool {
	switch t {
	case FieldSelector, FieldRadio:
		return true
	case FieldText, FieldNumeric:
		return false
	default:
		return false
	}
}

// Label is the human name used in admin listings.
func (t FieldType) Label() string {
	switch t {
	case FieldNumeric:
		return "Numeric"
	case FieldSelector:
		return "Selector"
	case FieldRadio:
		return "Radio"
	case FieldText:
		return "Text"
	default:
		return string(t)
	}
}

// Field is one administrator-defined donation attribute.
type Field struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	FieldType FieldType `json:"fieldType"`
	Required  bool      `json:"required"`
	Options   []string  `json:"options,omitempty"`
	Order     int       `json:"order"`
}

// Values maps a field id to the value stored for it. Values are strings for
// text/selector/radio fields and either strings or numbers for numeric
// fields, depending on the client that wrote them.
type Values map[string]any

// Value returns the stored value for id and whether it counts as answered.
func (v Values) Value(id string) (any, bool) {
	if v == nil {
		return nil, false
	}
	raw, ok := v[id]
	if !ok || isBlank(raw) {
		return nil, false
	}
	return raw, true
}

// String returns the stored value for id as a string.
func (v Values) String(id string) (string, bool) {
	raw, ok := v.Value(id)
	if !ok {
		return "", false
	}
	return cast.ToString(raw), true
}

func isBlank(raw any) bool {
	if raw == nil {
		return true
	}
	switch val := raw.(type) {
	case string:
		return strings.TrimSpace(val) == ""
	case bool:
		return !val
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return false
	}
	return strings.TrimSpace(s) == ""
}

// Sorted returns a copy of fields ordered by Order, keeping the input
// sequence for equal orders.
func Sorted(fields []Field) []Field {
	out := Clone(fields)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Clone deep-copies a field list.
func Clone(fields []Field) []Field {
	if fields == nil {
		return []Field{}
	}
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f
		if f.Options != nil {
			out[i].Options = append([]string(nil), f.Options...)
		}
	}
	return out
}

// Normalize sorts fields by order, renumbers them densely from zero and
// drops option lists from types that do not use them. It is applied to every
// list an Editor returns.
func Normalize(fields []Field) []Field {
	out := Sorted(fields)
	for i := range out {
		out[i].Order = i
		if !out[i].FieldType.HasOptions() {
			out[i].Options = nil
		}
	}
	return out
}

// Find returns the field with the given id.
func Find(fields []Field, id string) (Field, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// Visualizable returns the selector and radio fields in display order.
func Visualizable(fields []Field) []Field {
	var out []Field
	for _, f := range Sorted(fields) {
		if f.FieldType.HasOptions() {
			out = append(out, f)
		}
	}
	return out
}

func indexOf(fields []Field, id string) int {
	for i, f := range fields {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func containsOption(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
