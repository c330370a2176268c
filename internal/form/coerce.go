package form

import (
	"strconv"
	"strings"

	"charge-console/internal/schema"
)

// CoerceChange converts a raw input value to the draft representation
// for a field. Applied on edit-mode changes only; view mode renders
// entity values verbatim.
//
// Rules: number inputs parse to float64 (0 on parse failure); checkbox
// to bool; select coerces numeric-looking strings to numbers and the
// empty string to nil; everything else passes through.
func CoerceChange(field schema.FieldSchema, raw any) any {
	switch field.Type {
	case schema.FieldNumber:
		return coerceNumber(raw)
	case schema.FieldCheckbox:
		return coerceBool(raw)
	case schema.FieldSelect:
		return coerceSelect(raw)
	default:
		return raw
	}
}

func coerceNumber(raw any) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func coerceBool(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		return err == nil && b
	default:
		return false
	}
}

func coerceSelect(raw any) any {
	s, ok := raw.(string)
	if !ok {
		return raw
	}
	if s == "" {
		return nil
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
