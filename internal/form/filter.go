package form

import "charge-console/internal/schema"

// FilterDraft holds the not-yet-applied filter edits of a filter
// modal. No required-field validation: partial filters are the point.
type FilterDraft struct {
	values schema.Record
}

// NewFilterDraft starts from the currently applied filters.
func NewFilterDraft(current schema.Record) *FilterDraft {
	values := make(schema.Record, len(current))
	for k, v := range current {
		values[k] = v
	}
	return &FilterDraft{values: values}
}

// Set records a filter edit. Empty values remove the entry so cleared
// inputs do not linger as "field=" predicates.
func (f *FilterDraft) Set(name string, v any) {
	if v == nil || v == "" {
		delete(f.values, name)
		return
	}
	f.values[name] = v
}

// Apply returns the draft upward, unmodified.
func (f *FilterDraft) Apply() schema.Record {
	out := make(schema.Record, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Clear resets the draft to an empty object and returns it.
func (f *FilterDraft) Clear() schema.Record {
	f.values = schema.Record{}
	return schema.Record{}
}

// Predicates serializes applied filters into backend "field=value"
// strings, in stable field order as given.
func Predicates(applied schema.Record, order []string) []string {
	var out []string
	for _, name := range order {
		v, ok := applied[name]
		if !ok {
			continue
		}
		out = append(out, name+"="+schema.Stringify(v))
	}
	return out
}
