package schema

// Record is an opaque backend row. The console passes records through
// unchanged; the only structural expectation is a stable id field.
type Record = map[string]any

// PagingRequest is the server-side pagination contract. Filter entries
// are backend-specific "field=value" predicate strings and are never
// parsed back on this side.
type PagingRequest struct {
	Page          int      `json:"page"`
	PageSize      int      `json:"pageSize"`
	SortField     string   `json:"sortField"`
	SortAscending bool     `json:"sortAscending"`
	Filter        []string `json:"filter"`
}

// PagingResponse is the backend's paged-list envelope. Pagination.Length
// is the total matching count, not the page count.
type PagingResponse struct {
	Result     []Record `json:"result"`
	Pagination struct {
		Length int `json:"length"`
	} `json:"Pagination"`
}

// PagedResult is what list controllers hand to the view layer.
type PagedResult struct {
	Data       []Record `json:"data"`
	TotalItems int      `json:"totalItems"`
}

// ID extracts the record's identity using the screen's id field,
// falling back to "id". Returned as a string for use in URLs and keys.
func ID(r Record, idField string) string {
	if idField == "" {
		idField = "id"
	}
	return Stringify(r[idField])
}
