package schema

import (
	"fmt"
	"strconv"
)

// FieldType enumerates the renderable form input kinds.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldEmail    FieldType = "email"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldTextarea FieldType = "textarea"
	FieldDate     FieldType = "date"
	FieldDateTime FieldType = "datetime-local"
	FieldQRCode   FieldType = "qrcode"
)

// FieldSchema drives one input in a generic form modal.
type FieldSchema struct {
	Name      string         `json:"name"`
	Label     string         `json:"label"`
	Type      FieldType      `json:"type"`
	Required  bool           `json:"required,omitempty"`
	ReadOnly  bool           `json:"readOnly,omitempty"`
	GridGroup string         `json:"gridGroup,omitempty"`
	Options   []SelectOption `json:"options,omitempty"`
}

// SelectOption is one entry of a select field. Options either come from
// the field itself or from a dropdown source resolved by field name.
type SelectOption struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// ColumnSchema drives one table column. Render, when set, replaces the
// raw value for display and must not mutate the row.
type ColumnSchema struct {
	Key    string                     `json:"key"`
	Label  string                     `json:"label"`
	Class  string                     `json:"className,omitempty"`
	Render func(v any, row Record) string `json:"-"`
}

// Display returns the cell text for a row.
func (c ColumnSchema) Display(row Record) string {
	v := row[c.Key]
	if c.Render != nil {
		return c.Render(v, row)
	}
	return Stringify(v)
}

// Stringify renders a scalar value the way table cells show it.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprintf("%v", x)
	}
}
