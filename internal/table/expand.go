package table

import (
	"context"
	"sync"

	"charge-console/internal/schema"
)

// RelatedFetcher loads one page of a parent row's related child list.
type RelatedFetcher func(ctx context.Context, parentID string, page, pageSize int) (schema.PagedResult, error)

// ExpandState is the per-parent snapshot handed to the view.
type ExpandState struct {
	Expanded    bool            `json:"expanded"`
	Loading     bool            `json:"loading"`
	Rows        []schema.Record `json:"rows"`
	TotalItems  int             `json:"totalItems"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
}

// Expandable tracks the lazily loaded child lists of expandable parent
// rows. All state is keyed per parent id, so multiple rows can load
// concurrently without interference and each keeps its own pagination.
type Expandable struct {
	mu       sync.Mutex
	fetch    RelatedFetcher
	pageSize int
	states   map[string]*ExpandState
}

func NewExpandable(fetch RelatedFetcher, pageSize int) *Expandable {
	if pageSize < 1 {
		pageSize = 5
	}
	return &Expandable{
		fetch:    fetch,
		pageSize: pageSize,
		states:   make(map[string]*ExpandState),
	}
}

// Toggle expands a collapsed parent or collapses an expanded one.
// Collapse retains the cached rows; re-expanding a parent that already
// has cached data triggers no fetch. The first expand loads page 1.
//
// Load failures are the one case that propagates: the parent is
// auto-collapsed and the error returned so the page can attach a
// parent-specific message.
func (e *Expandable) Toggle(ctx context.Context, parentID string) (bool, error) {
	e.mu.Lock()
	st := e.state(parentID)
	if st.Expanded {
		st.Expanded = false
		e.mu.Unlock()
		return false, nil
	}
	st.Expanded = true
	cached := st.Rows != nil
	e.mu.Unlock()

	if cached {
		return true, nil
	}
	if err := e.LoadPage(ctx, parentID, 1); err != nil {
		return false, err
	}
	return true, nil
}

// LoadPage fetches one page of a parent's child list and stores it
// keyed by the parent id.
func (e *Expandable) LoadPage(ctx context.Context, parentID string, page int) error {
	if page < 1 {
		page = 1
	}

	e.mu.Lock()
	st := e.state(parentID)
	st.Loading = true
	e.mu.Unlock()

	result, err := e.fetch(ctx, parentID, page, e.pageSize)

	e.mu.Lock()
	defer e.mu.Unlock()
	st = e.state(parentID)
	st.Loading = false

	if err != nil {
		st.Expanded = false
		return err
	}

	rows := result.Data
	if rows == nil {
		rows = []schema.Record{}
	}
	st.Rows = rows
	st.TotalItems = result.TotalItems
	st.TotalPages = ceilDiv(result.TotalItems, e.pageSize)
	st.CurrentPage = page
	return nil
}

// Refresh re-runs the load at the parent's current page. Used after a
// child create/update/delete so the expanded list reflects the change
// without resetting pagination.
func (e *Expandable) Refresh(ctx context.Context, parentID string) error {
	e.mu.Lock()
	page := e.state(parentID).CurrentPage
	e.mu.Unlock()
	if page < 1 {
		page = 1
	}
	return e.LoadPage(ctx, parentID, page)
}

// ChangePage moves one parent's child list to a new page, independent
// of every other parent's pagination.
func (e *Expandable) ChangePage(ctx context.Context, parentID string, page int) error {
	return e.LoadPage(ctx, parentID, page)
}

// State returns a snapshot of one parent's expand state.
func (e *Expandable) State(parentID string) ExpandState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[parentID]
	if !ok {
		return ExpandState{}
	}
	snap := *st
	if st.Rows != nil {
		snap.Rows = make([]schema.Record, len(st.Rows))
		copy(snap.Rows, st.Rows)
	}
	return snap
}

// Expanded reports whether a parent row is currently expanded.
func (e *Expandable) Expanded(parentID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[parentID]
	return ok && st.Expanded
}

// state returns the entry for a parent, creating it on first use.
// Callers must hold e.mu.
func (e *Expandable) state(parentID string) *ExpandState {
	st, ok := e.states[parentID]
	if !ok {
		st = &ExpandState{}
		e.states[parentID] = st
	}
	return st
}

func ceilDiv(total, size int) int {
	if size < 1 {
		return 0
	}
	return (total + size - 1) / size
}
