package form

import (
	"reflect"
	"testing"

	"charge-console/internal/schema"
)

func testFields() []schema.FieldSchema {
	return []schema.FieldSchema{
		{Name: "name", Label: "Name", Type: schema.FieldText, Required: true},
		{Name: "operatorId", Label: "Operator", Type: schema.FieldSelect, Required: true},
		{Name: "notes", Label: "Notes", Type: schema.FieldTextarea},
	}
}

func TestSubmit_MissingRequiredBlocksSubmit(t *testing.T) {
	d := NewDraft(testFields(), schema.Record{"notes": "keep"}, ModeCreate, nil)
	d.Set("name", "North Plaza")
	// operatorId left empty

	record, ferrs, err := d.Submit()
	if err == nil {
		t.Fatal("expected submit to be blocked")
	}
	if record != nil {
		t.Fatal("blocked submit must not yield a record")
	}
	if len(ferrs) != 1 || ferrs[0].Field != "operatorId" {
		t.Fatalf("expected one error for operatorId, got %v", ferrs)
	}
}

func TestSubmit_FullDraftIncludesUnchangedFields(t *testing.T) {
	d := NewDraft(testFields(), schema.Record{"notes": "keep"}, ModeCreate, nil)
	d.Set("name", "North Plaza")
	d.Set("operatorId", "7")

	record, ferrs, err := d.Submit()
	if err != nil {
		t.Fatalf("expected submit to pass, got %v (%v)", err, ferrs)
	}
	want := schema.Record{"name": "North Plaza", "operatorId": 7, "notes": "keep"}
	if !reflect.DeepEqual(record, want) {
		t.Fatalf("expected full draft %v, got %v", want, record)
	}
}

func TestValidate_ZeroIsNotEmpty(t *testing.T) {
	fields := []schema.FieldSchema{
		{Name: "powerKw", Label: "Power", Type: schema.FieldNumber, Required: true},
	}
	d := NewDraft(fields, schema.Record{}, ModeEdit, nil)
	d.Set("powerKw", "0")

	if errs := d.Validate(); len(errs) != 0 {
		t.Fatalf("0 must satisfy a required number field, got %v", errs)
	}
}

func TestCoerceChange_Number(t *testing.T) {
	f := schema.FieldSchema{Name: "powerKw", Type: schema.FieldNumber}
	if got := CoerceChange(f, "22.5"); got != 22.5 {
		t.Fatalf("expected 22.5, got %v", got)
	}
	if got := CoerceChange(f, "not a number"); got != float64(0) {
		t.Fatalf("parse failure must default to 0, got %v", got)
	}
}

func TestCoerceChange_Checkbox(t *testing.T) {
	f := schema.FieldSchema{Name: "active", Type: schema.FieldCheckbox}
	if got := CoerceChange(f, true); got != true {
		t.Fatalf("expected true, got %v", got)
	}
	if got := CoerceChange(f, "true"); got != true {
		t.Fatalf("expected string true coerced, got %v", got)
	}
	if got := CoerceChange(f, "junk"); got != false {
		t.Fatalf("expected false for junk, got %v", got)
	}
}

func TestCoerceChange_Select(t *testing.T) {
	f := schema.FieldSchema{Name: "rateId", Type: schema.FieldSelect}
	if got := CoerceChange(f, "15"); got != 15 {
		t.Fatalf("numeric-looking string must become a number, got %v (%T)", got, got)
	}
	if got := CoerceChange(f, "1.5"); got != 1.5 {
		t.Fatalf("expected 1.5, got %v", got)
	}
	if got := CoerceChange(f, ""); got != nil {
		t.Fatalf("empty select must become nil, got %v", got)
	}
	if got := CoerceChange(f, "available"); got != "available" {
		t.Fatalf("non-numeric string must stay a string, got %v", got)
	}
}

func TestViewMode_RendersEntityVerbatim(t *testing.T) {
	entity := schema.Record{
		"name":       "North Plaza",
		"operatorId": "7", // stays a string: no coercion in view mode
		"active":     true,
	}
	d := NewDraft(testFields(), entity, ModeView, nil)

	for k, v := range entity {
		if got := d.Value(k); !reflect.DeepEqual(got, v) {
			t.Fatalf("view mode must show %v for %s, got %v", v, k, got)
		}
	}

	d.Set("name", "Changed")
	if got := d.Value("name"); got != "North Plaza" {
		t.Fatalf("view mode Set must be a no-op, got %v", got)
	}

	if _, _, err := d.Submit(); err == nil {
		t.Fatal("view mode must have no submit")
	}
}

func TestSet_ReadOnlyFieldIgnored(t *testing.T) {
	fields := []schema.FieldSchema{
		{Name: "qrCode", Label: "QR", Type: schema.FieldQRCode, ReadOnly: true},
	}
	d := NewDraft(fields, schema.Record{"qrCode": "abc"}, ModeEdit, nil)
	d.Set("qrCode", "tampered")
	if got := d.Value("qrCode"); got != "abc" {
		t.Fatalf("read-only field must not change, got %v", got)
	}
}

func TestCustomValidator_IsSoleAuthority(t *testing.T) {
	// A validator that passes everything, even missing required fields.
	pass := validatorFunc(func(draft schema.Record) []FieldError { return nil })
	d := NewDraft(testFields(), schema.Record{}, ModeCreate, pass)

	if _, ferrs, err := d.Submit(); err != nil {
		t.Fatalf("custom validator verdict must stand, got %v (%v)", err, ferrs)
	}

	// And one that rejects everything, even complete drafts.
	reject := validatorFunc(func(draft schema.Record) []FieldError {
		return []FieldError{{Field: "name", Message: "nope"}}
	})
	d = NewDraft(testFields(), schema.Record{}, ModeCreate, reject)
	d.Set("name", "X")
	d.Set("operatorId", "1")
	if _, _, err := d.Submit(); err == nil {
		t.Fatal("rejecting validator must block submit")
	}
}

type validatorFunc func(draft schema.Record) []FieldError

func (f validatorFunc) Validate(draft schema.Record) []FieldError { return f(draft) }
