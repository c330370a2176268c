package form

import (
	"errors"

	"charge-console/internal/schema"
)

// Mode selects the modal behavior. One modal, one mode enum, instead
// of parallel view/edit component pairs toggled by booleans.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
	ModeView
)

// FieldError is a synchronous local validation failure. It is surfaced
// inline in the active modal and never sent to the network.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Message
}

// ErrSubmitBlocked is returned by Submit when validation fails or the
// draft is read-only.
var ErrSubmitBlocked = errors.New("submit blocked")

// Validator replaces the default required-field check when supplied.
// It is the sole authority: a non-empty result blocks submit.
type Validator interface {
	Validate(draft schema.Record) []FieldError
}

// Draft holds the locally edited copy of an entity. Nothing outside
// the draft is mutated until Submit passes validation.
type Draft struct {
	fields    []schema.FieldSchema
	mode      Mode
	entity    schema.Record // the record the modal was opened with
	values    schema.Record // working copy
	validator Validator
}

// NewDraft copies the entity (possibly empty for create) into a
// working draft.
func NewDraft(fields []schema.FieldSchema, entity schema.Record, mode Mode, validator Validator) *Draft {
	values := make(schema.Record, len(entity))
	for k, v := range entity {
		values[k] = v
	}
	return &Draft{
		fields:    fields,
		mode:      mode,
		entity:    entity,
		values:    values,
		validator: validator,
	}
}

func (d *Draft) Mode() Mode {
	return d.mode
}

// Set records an input change. Coercion applies per field type. In
// view mode, and for unknown or read-only fields, Set is a no-op.
func (d *Draft) Set(name string, raw any) {
	if d.mode == ModeView {
		return
	}
	var field *schema.FieldSchema
	for i := range d.fields {
		if d.fields[i].Name == name {
			field = &d.fields[i]
			break
		}
	}
	if field == nil || field.ReadOnly {
		return
	}
	d.values[name] = CoerceChange(*field, raw)
}

// Value returns the current draft value for a field. In view mode this
// is always the supplied entity's value, uncoerced.
func (d *Draft) Value(name string) any {
	if d.mode == ModeView {
		return d.entity[name]
	}
	return d.values[name]
}

// Values returns a copy of the full draft, including unchanged fields.
func (d *Draft) Values() schema.Record {
	out := make(schema.Record, len(d.values))
	for k, v := range d.values {
		out[k] = v
	}
	return out
}

// Validate runs the custom validator when one is supplied, otherwise
// the default required-field check: every required field must be
// non-empty, where empty means nil, "" or false, but never 0.
func (d *Draft) Validate() []FieldError {
	if d.validator != nil {
		return d.validator.Validate(d.values)
	}
	var errs []FieldError
	for _, f := range d.fields {
		if !f.Required {
			continue
		}
		if isEmpty(d.values[f.Name]) {
			errs = append(errs, FieldError{Field: f.Name, Message: f.Label + " is required"})
		}
	}
	return errs
}

// Submit validates and returns the full draft on success. View-mode
// drafts have no submit.
func (d *Draft) Submit() (schema.Record, []FieldError, error) {
	if d.mode == ModeView {
		return nil, nil, ErrSubmitBlocked
	}
	if errs := d.Validate(); len(errs) > 0 {
		return nil, errs, ErrSubmitBlocked
	}
	return d.Values(), nil, nil
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	default:
		// numbers: 0 is a legitimate value
		return false
	}
}
