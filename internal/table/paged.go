package table

import (
	"context"
	"strings"
	"sync"

	"charge-console/internal/schema"
)

const DefaultPageSize = 10

// Notifier receives the transient user-visible messages that list
// failures degrade into.
type Notifier interface {
	Notify(message string)
}

// NotifyFunc adapts a function to the Notifier interface.
type NotifyFunc func(message string)

func (f NotifyFunc) Notify(message string) { f(message) }

// PageFetcher issues one paged request against the backend.
type PageFetcher func(ctx context.Context, req schema.PagingRequest) (*schema.PagingResponse, error)

// TenantScope carries the acting session's role and operator id for
// the implicit tenant filter. Operators must never see other
// operators' rows; this is a security boundary, not a default.
type TenantScope struct {
	Role       string
	OperatorID string
}

const operatorRole = "operator"
const operatorPredicate = "operatorId="

// PagedController owns the paging, sorting and filtering state of one
// table screen and turns it into fetches. Fetch failures never
// propagate past this boundary: the page degrades to empty plus one
// notification.
type PagedController struct {
	mu          sync.Mutex
	fetch       PageFetcher
	notify      Notifier
	scope       TenantScope
	baseFilters []string

	page          int
	pageSize      int
	sortField     string
	sortAscending bool
	filters       []string
	refreshCount  int

	gen     uint64 // request generation; stale responses are discarded
	current schema.PagedResult
}

type ControllerOption func(*PagedController)

// WithBaseFilters sets caller-supplied predicates that precede the
// controller's own filters in every request.
func WithBaseFilters(filters ...string) ControllerOption {
	return func(c *PagedController) { c.baseFilters = filters }
}

// WithScope sets the acting session's tenant scope.
func WithScope(scope TenantScope) ControllerOption {
	return func(c *PagedController) { c.scope = scope }
}

// WithPageSize overrides the default page size.
func WithPageSize(n int) ControllerOption {
	return func(c *PagedController) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithSort sets the initial sort.
func WithSort(field string, ascending bool) ControllerOption {
	return func(c *PagedController) {
		c.sortField = field
		c.sortAscending = ascending
	}
}

func NewPagedController(fetch PageFetcher, notify Notifier, opts ...ControllerOption) *PagedController {
	c := &PagedController{
		fetch:         fetch,
		notify:        notify,
		page:          1,
		pageSize:      DefaultPageSize,
		sortField:     "id",
		sortAscending: true,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *PagedController) SetPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n >= 1 {
		c.page = n
	}
}

func (c *PagedController) SetPageSize(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n >= 1 {
		c.pageSize = n
	}
}

func (c *PagedController) SetSort(field string, ascending bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if field != "" {
		c.sortField = field
	}
	c.sortAscending = ascending
}

func (c *PagedController) SetFilters(filters []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = filters
}

// Refresh bumps the refresh counter. Called after create/update/delete
// to force a re-fetch without touching any other parameter.
func (c *PagedController) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshCount++
}

func (c *PagedController) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

func (c *PagedController) PageSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageSize
}

// Current returns the latest committed page. Responses of superseded
// requests never land here.
func (c *PagedController) Current() schema.PagedResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Request builds the outgoing PagingRequest from the current state:
// caller-supplied base filters first, then the controller's filters,
// then the operator tenant predicate when the acting session is an
// operator and no filter already sets operatorId.
func (c *PagedController) Request() schema.PagingRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestLocked()
}

func (c *PagedController) requestLocked() schema.PagingRequest {
	filters := make([]string, 0, len(c.baseFilters)+len(c.filters)+1)
	filters = append(filters, c.baseFilters...)
	filters = append(filters, c.filters...)

	if c.scope.Role == operatorRole && c.scope.OperatorID != "" && !hasOperatorFilter(filters) {
		filters = append(filters, operatorPredicate+c.scope.OperatorID)
	}

	return schema.PagingRequest{
		Page:          c.page,
		PageSize:      c.pageSize,
		SortField:     c.sortField,
		SortAscending: c.sortAscending,
		Filter:        filters,
	}
}

// FetchPage issues a fetch for the current state and returns its
// result. Failures yield an empty page and exactly one notification.
// The result is committed to Current only if no newer fetch started in
// the meantime, so a slow early response cannot overwrite the table
// with stale rows.
func (c *PagedController) FetchPage(ctx context.Context) schema.PagedResult {
	c.mu.Lock()
	req := c.requestLocked()
	c.gen++
	myGen := c.gen
	c.mu.Unlock()

	result := schema.PagedResult{Data: []schema.Record{}}

	resp, err := c.fetch(ctx, req)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "Failed to load data"
		}
		if c.notify != nil {
			c.notify.Notify(msg)
		}
	} else if resp != nil {
		if resp.Result != nil {
			result.Data = resp.Result
		}
		result.TotalItems = resp.Pagination.Length
	}

	c.mu.Lock()
	if myGen == c.gen {
		c.current = result
	}
	c.mu.Unlock()

	return result
}

func hasOperatorFilter(filters []string) bool {
	for _, f := range filters {
		if strings.HasPrefix(f, operatorPredicate) {
			return true
		}
	}
	return false
}
