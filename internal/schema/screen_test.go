package schema

import (
	"reflect"
	"testing"
)

func TestStripForUpdate_RemovesIDAndServerOwnedFields(t *testing.T) {
	s := &Screen{
		Name:        "stations",
		UpdateStrip: []string{"bayCount", "operatorName"},
	}
	record := Record{
		"id":           5,
		"name":         "North Plaza",
		"bayCount":     4,
		"operatorName": "VoltCo",
	}

	got := s.StripForUpdate(record)

	want := Record{"name": "North Plaza"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if _, ok := record["id"]; !ok {
		t.Fatal("strip must not mutate the input record")
	}
}

func TestStripForUpdate_UsesScreenIDField(t *testing.T) {
	s := &Screen{Name: "users", IDField: "userId"}
	got := s.StripForUpdate(Record{"userId": "u1", "email": "a@b.c"})
	if _, ok := got["userId"]; ok {
		t.Fatal("aggregate-specific id field must be stripped")
	}
	if got["email"] != "a@b.c" {
		t.Fatal("other fields must survive")
	}
}

func TestColumnDisplay_RenderOverridesRawValue(t *testing.T) {
	col := ColumnSchema{
		Key: "active",
		Render: func(v any, row Record) string {
			if b, ok := v.(bool); ok && b {
				return "Yes"
			}
			return "No"
		},
	}
	row := Record{"active": true}
	if got := col.Display(row); got != "Yes" {
		t.Fatalf("expected rendered value, got %q", got)
	}
	if row["active"] != true {
		t.Fatal("render must not mutate the row")
	}

	plain := ColumnSchema{Key: "name"}
	if got := plain.Display(Record{"name": "B1"}); got != "B1" {
		t.Fatalf("expected raw value, got %q", got)
	}
}

func TestRegistry_LoadAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Load(BuiltinScreens())

	if r.GetScreen("stations") == nil {
		t.Fatal("stations screen missing")
	}
	if r.GetScreen("nonexistent") != nil {
		t.Fatal("unknown screen must resolve to nil")
	}
	if got := len(r.AllScreens()); got != 8 {
		t.Fatalf("expected 8 builtin screens, got %d", got)
	}
}

func TestBuiltinScreens_Shape(t *testing.T) {
	for _, s := range BuiltinScreens() {
		if s.Name == "" || s.Resource == "" || len(s.Columns) == 0 {
			t.Fatalf("screen %q incomplete: %+v", s.Name, s)
		}
		for field := range s.DropdownSources {
			f := s.GetField(field)
			if f == nil {
				t.Fatalf("screen %s: dropdown source for unknown field %s", s.Name, field)
			}
			if f.Type != FieldSelect {
				t.Fatalf("screen %s: dropdown source on non-select field %s", s.Name, field)
			}
		}
	}

	stations := BuiltinScreens()[1]
	if stations.Child == nil || stations.Child.Resource != "ChargingBays" {
		t.Fatalf("stations must expand into charging bays: %+v", stations.Child)
	}
	connectors := BuiltinScreens()[3]
	if !connectors.ReadOnly {
		t.Fatal("connector types must be read-only")
	}
}

func TestID_FallsBackToDefaultField(t *testing.T) {
	if got := ID(Record{"id": float64(5)}, ""); got != "5" {
		t.Fatalf("expected 5, got %q", got)
	}
	if got := ID(Record{"userId": "u1"}, "userId"); got != "u1" {
		t.Fatalf("expected u1, got %q", got)
	}
}
