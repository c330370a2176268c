package schema

// Rule is a declarative form validation rule evaluated against the
// draft record. Expr must evaluate to true for the draft to be valid.
type Rule struct {
	Expr    string `json:"expr"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ChildConfig describes the nested paged sub-list revealed by an
// expandable parent row (e.g. a station's charging bays).
type ChildConfig struct {
	Resource    string         // backend resource of the child rows
	ParentField string         // filter predicate field linking child to parent
	PageSize    int            // page size for the nested list
	Columns     []ColumnSchema // columns of the nested table
}

// Screen is the declarative config behind one admin table page.
type Screen struct {
	Name            string         // route segment, e.g. "stations"
	Title           string
	Resource        string         // backend resource path segment
	IDField         string         // defaults to "id"
	Columns         []ColumnSchema
	FormFields      []FieldSchema
	Rules           []Rule            // custom validators; empty means default required checks
	DropdownSources map[string]string // field name -> resource listed for select options
	UpdateStrip     []string          // server-owned fields removed from update payloads
	ReadOnly        bool              // no create/edit/delete actions (e.g. connectors)
	Approvable      bool              // exposes Approve/Reject (account requests)
	Activatable     bool              // exposes ToggleActivate
	Child           *ChildConfig
}

// HasField reports whether the screen's form declares the given field.
func (s *Screen) HasField(name string) bool {
	return s.GetField(name) != nil
}

// GetField returns a pointer to the form field with the given name, or nil.
func (s *Screen) GetField(name string) *FieldSchema {
	for i := range s.FormFields {
		if s.FormFields[i].Name == name {
			return &s.FormFields[i]
		}
	}
	return nil
}

// RequiredFields returns the names of all required form fields.
func (s *Screen) RequiredFields() []string {
	var names []string
	for _, f := range s.FormFields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// StripForUpdate returns a copy of the record without the id field and
// without server-owned fields. The id travels in the URL; backends
// reject payloads that repeat immutable fields.
func (s *Screen) StripForUpdate(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	idField := s.IDField
	if idField == "" {
		idField = "id"
	}
	delete(out, idField)
	for _, f := range s.UpdateStrip {
		delete(out, f)
	}
	return out
}

// StripForCreate returns a copy of the record without the id field.
func (s *Screen) StripForCreate(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	idField := s.IDField
	if idField == "" {
		idField = "id"
	}
	delete(out, idField)
	return out
}
