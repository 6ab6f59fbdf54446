package donorform

import (
	"strings"

	"github.com/google/uuid"
)

// Direction selects the neighbour a field swaps places with.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection validates a wire value.
func ParseDirection(raw string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(raw))); d {
	case Up, Down:
		return d, nil
	default:
		return "", ErrInvalidDirection
	}
}

// NewField carries the admin input for AddField.
type NewField struct {
	Label     string
	FieldType FieldType
	Required  bool
	Options   []string
}

// FieldPatch is a partial update for UpdateField. Nil members are left
// untouched.
type FieldPatch struct {
	Label    *string
	Required *bool
}

// Op is a schema mutation: a pure function from the current field list to
// the next one. Ops can be re-applied to a fresher snapshot when a
// conditional write loses a race.
type Op func(current []Field) ([]Field, error)

// Editor creates schema mutations. Only AddField needs state (the id
// source); every other operation is a plain function of its inputs.
type Editor struct {
	NewID func() string
}

// NewEditor returns an editor issuing time-ordered UUIDs as field ids.
func NewEditor() *Editor {
	return &Editor{NewID: timeOrderedID}
}

func timeOrderedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

const maxIDAttempts = 5

// AddField appends a new field at the end of the schema.
func (e *Editor) AddField(current []Field, in NewField) ([]Field, error) {
	label := strings.TrimSpace(in.Label)
	if label == "" {
		return nil, ErrEmptyLabel
	}
	fieldType, err := ParseFieldType(string(in.FieldType))
	if err != nil {
		return nil, err
	}
	var options []string
	if fieldType.HasOptions() {
		options, err = cleanOptions(in.Options)
		if err != nil {
			return nil, err
		}
		if len(options) == 0 {
			return nil, ErrEmptyOptionSet
		}
	}

	next := Normalize(current)
	id, err := e.allocateID(next)
	if err != nil {
		return nil, err
	}
	next = append(next, Field{
		ID:        id,
		Label:     label,
		FieldType: fieldType,
		Required:  in.Required,
		Options:   options,
		Order:     len(next),
	})
	return next, nil
}

// AddFieldOp binds AddField to its input.
func (e *Editor) AddFieldOp(in NewField) Op {
	return func(current []Field) ([]Field, error) { return e.AddField(current, in) }
}

func (e *Editor) allocateID(existing []Field) (string, error) {
	gen := e.NewID
	if gen == nil {
		gen = timeOrderedID
	}
	for i := 0; i < maxIDAttempts; i++ {
		id := strings.TrimSpace(gen())
		if id != "" && indexOf(existing, id) < 0 {
			return id, nil
		}
	}
	return "", ErrIDCollision
}

// DeleteField removes a field and renumbers the rest. Donation records keep
// whatever they stored under the removed id.
func DeleteField(current []Field, fieldID string) ([]Field, error) {
	fields := Normalize(current)
	idx := indexOf(fields, fieldID)
	if idx < 0 {
		return nil, ErrFieldNotFound
	}
	fields = append(fields[:idx], fields[idx+1:]...)
	return Normalize(fields), nil
}

// MoveField swaps a field with its neighbour in the given direction.
func MoveField(current []Field, fieldID string, dir Direction) ([]Field, error) {
	fields := Normalize(current)
	idx := indexOf(fields, fieldID)
	if idx < 0 {
		return nil, ErrFieldNotFound
	}
	var target int
	switch dir {
	case Up:
		target = idx - 1
	case Down:
		target = idx + 1
	default:
		return nil, ErrInvalidDirection
	}
	if target < 0 || target >= len(fields) {
		return nil, ErrAtBoundary
	}
	fields[idx].Order, fields[target].Order = fields[target].Order, fields[idx].Order
	return Normalize(fields), nil
}

// AddOption appends an option to a selector or radio field.
func AddOption(current []Field, fieldID, value string) ([]Field, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrEmptyOption
	}
	fields, idx, err := choiceField(current, fieldID)
	if err != nil {
		return nil, err
	}
	if containsOption(fields[idx].Options, value) {
		return nil, ErrDuplicateOption
	}
	fields[idx].Options = append(fields[idx].Options, value)
	return fields, nil
}

// EditOption renames the option at index. Records that stored the old
// value keep it.
func EditOption(current []Field, fieldID string, index int, value string) ([]Field, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrEmptyOption
	}
	fields, idx, err := choiceField(current, fieldID)
	if err != nil {
		return nil, err
	}
	options := fields[idx].Options
	if index < 0 || index >= len(options) {
		return nil, ErrOptionIndex
	}
	for i, o := range options {
		if i != index && o == value {
			return nil, ErrDuplicateOption
		}
	}
	options[index] = value
	return fields, nil
}

// DeleteOption removes the option at index. The field survives even when
// its last option goes.
func DeleteOption(current []Field, fieldID string, index int) ([]Field, error) {
	fields, idx, err := choiceField(current, fieldID)
	if err != nil {
		return nil, err
	}
	options := fields[idx].Options
	if index < 0 || index >= len(options) {
		return nil, ErrOptionIndex
	}
	fields[idx].Options = append(options[:index:index], options[index+1:]...)
	return fields, nil
}

// UpdateField merges a patch into an existing definition. Id, type, order
// and options are never touched here.
func UpdateField(current []Field, fieldID string, patch FieldPatch) ([]Field, error) {
	fields := Normalize(current)
	idx := indexOf(fields, fieldID)
	if idx < 0 {
		return nil, ErrFieldNotFound
	}
	if patch.Label != nil {
		label := strings.TrimSpace(*patch.Label)
		if label == "" {
			return nil, ErrEmptyLabel
		}
		fields[idx].Label = label
	}
	if patch.Required != nil {
		fields[idx].Required = *patch.Required
	}
	return fields, nil
}

func choiceField(current []Field, fieldID string) ([]Field, int, error) {
	fields := Normalize(current)
	idx := indexOf(fields, fieldID)
	if idx < 0 {
		return nil, -1, ErrFieldNotFound
	}
	if !fields[idx].FieldType.HasOptions() {
		return nil, -1, ErrNoOptions
	}
	return fields, idx, nil
}

func cleanOptions(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, o := range raw {
		o = strings.TrimSpace(o)
		if o == "" {
			return nil, ErrEmptyOption
		}
		if containsOption(out, o) {
			return nil, ErrDuplicateOption
		}
		out = append(out, o)
	}
	return out, nil
}
