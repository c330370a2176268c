package console

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"charge-console/internal/form"
	"charge-console/internal/gateway"
	"charge-console/internal/schema"
	"charge-console/internal/session"
	"charge-console/internal/table"
)

// Handler serves the admin console's screen operations: paged tables,
// expandable child rows, form submissions and row actions, all backed
// by the charging-platform REST backend.
type Handler struct {
	client      *gateway.Client
	sessions    *session.Store
	registry    *schema.Registry
	state       *stateCache
	validators  map[string]form.Validator
	exportTitle string
}

func NewHandler(client *gateway.Client, sessions *session.Store, registry *schema.Registry, exportTitle string) (*Handler, error) {
	h := &Handler{
		client:      client,
		sessions:    sessions,
		registry:    registry,
		state:       newStateCache(),
		validators:  make(map[string]form.Validator),
		exportTitle: exportTitle,
	}
	for _, s := range registry.AllScreens() {
		rules, err := form.CompileRules(s.Rules)
		if err != nil {
			return nil, fmt.Errorf("screen %s: %w", s.Name, err)
		}
		if rules != nil {
			h.validators[s.Name] = form.WithRequired{Fields: s.FormFields, Rules: rules}
		}
	}
	return h, nil
}

// Screens handles GET /api/screens: the nav metadata for the UI shell.
func (h *Handler) Screens(c *fiber.Ctx) error {
	type screenInfo struct {
		Name       string `json:"name"`
		Title      string `json:"title"`
		ReadOnly   bool   `json:"readOnly"`
		Expandable bool   `json:"expandable"`
	}
	var out []screenInfo
	for _, s := range h.registry.AllScreens() {
		out = append(out, screenInfo{
			Name:       s.Name,
			Title:      s.Title,
			ReadOnly:   s.ReadOnly,
			Expandable: s.Child != nil,
		})
	}
	return c.JSON(fiber.Map{"data": out})
}

// List handles GET /api/screens/:screen, the paged table behind a
// screen. Fetch failures degrade to an empty page plus notices.
func (h *Handler) List(c *fiber.Ctx) error {
	screen, err := h.resolveScreen(c)
	if err != nil {
		return err
	}
	sess := GetSession(c)
	st := h.screenState(sess, screen)

	ctrl := st.list
	if p := c.QueryInt("page"); p > 0 {
		ctrl.SetPage(p)
	}
	if ps := c.QueryInt("pageSize"); ps > 0 {
		ctrl.SetPageSize(ps)
	}
	if sf := c.Query("sortField"); sf != "" {
		ctrl.SetSort(sf, c.QueryBool("sortAscending", true))
	}
	if filters := queryMulti(c, "filter"); filters != nil {
		ctrl.SetFilters(filters)
	}

	result := ctrl.FetchPage(c.Context())

	return c.JSON(fiber.Map{
		"data": result.Data,
		"meta": fiber.Map{
			"page":       ctrl.Page(),
			"pageSize":   ctrl.PageSize(),
			"totalItems": result.TotalItems,
		},
		"notices": st.notices.Drain(),
	})
}

// GetByID handles GET /api/screens/:screen/rows/:id.
func (h *Handler) GetByID(c *fiber.Ctx) error {
	screen, err := h.resolveScreen(c)
	if err != nil {
		return err
	}
	sess := GetSession(c)
	row, err := h.client.Get(c.Context(), sess.Token, screen.Resource, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": row})
}

// Create handles POST /api/screens/:screen.
func (h *Handler) Create(c *fiber.Ctx) error {
	screen, err := h.resolveScreen(c)
	if err != nil {
		return err
	}
	if screen.ReadOnly {
		return ForbiddenError(screen.Title + " is read-only")
	}
	sess := GetSession(c)

	var body schema.Record
	if err := c.BodyParser(&body); err != nil {
		return NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}

	draft := form.NewDraft(screen.FormFields, body, form.ModeCreate, h.validators[screen.Name])
	record, ferrs, err := draft.Submit()
	if err != nil {
		return ValidationError(ferrs)
	}

	st := h.state.get(sess.ID)
	key := mutationKey(screen.Name, "create", "")
	if !st.begin(key) {
		return InFlightError()
	}
	defer st.end(key)

	created, err := h.client.Create(c.Context(), sess.Token, screen.Resource, screen.StripForCreate(record))
	if err != nil {
		return err
	}

	h.refreshList(sess, screen)
	return c.Status(201).JSON(fiber.Map{"data": created})
}

// Update handles PUT /api/screens/:screen/rows/:id.
func (h *Handler) Update(c *fiber.Ctx) error {
	screen, err := h.resolveScreen(c)
	if err != nil {
		return err
	}
	if screen.ReadOnly {
		return ForbiddenError(screen.Title + " is read-only")
	}
	sess := GetSession(c)
	id := c.Params("id")

	var body schema.Record
	if err := c.BodyParser(&body); err != nil {
		return NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}

	draft := form.NewDraft(screen.FormFields, body, form.ModeEdit, h.validators[screen.Name])
	record, ferrs, err := draft.Submit()
	if err != nil {
		return ValidationError(ferrs)
	}

	st := h.state.get(sess.ID)
	key := mutationKey(screen.Name, "update", id)
	if !st.begin(key) {
		return InFlightError()
	}
	defer st.end(key)

	updated, err := h.client.Update(c.Context(), sess.Token, screen.Resource, id, screen.StripForUpdate(record))
	if err != nil {
		return err
	}

	h.refreshList(sess, screen)
	return c.JSON(fiber.Map{"data": updated})
}

// Delete handles DELETE /api/screens/:screen/rows/:id. On upstream
// failure the in-flight guard is released and the error surfaces as a
// notice-equivalent response, so the confirming modal stays open.
func (h *Handler) Delete(c *fiber.Ctx) error {
	screen, err := h.resolveScreen(c)
	if err != nil {
		return err
	}
	if screen.ReadOnly {
		return ForbiddenError(screen.Title + " is read-only")
	}
	sess := GetSession(c)
	id := c.Params("id")

	st := h.state.get(sess.ID)
	key := mutationKey(screen.Name, "delete", id)
	if !st.begin(key) {
		return InFlightError()
	}
	defer st.end(key)

	if err := h.client.Delete(c.Context(), sess.Token, screen.Resource, id); err != nil {
		return err
	}

	h.refreshList(sess, screen)
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id}})
}

// ToggleExpand handles POST /api/screens/:screen/rows/:id/expand.
func (h *Handler) ToggleExpand(c *fiber.Ctx) error {
	screen, err := h.resolveScreen(c)
	if err != nil {
		return err
	}
	if screen.Child == nil {
		return NewAppError("NOT_EXPANDABLE", 400, screen.Title+" rows have no related list")
	}
	sess := GetSession(c)
	st := h.screenState(sess, screen)
	id := c.Params("id")

	expanded, err := st.expand.Toggle(c.Context(), id)
	if err != nil {
		return h.childLoadError(screen, id, err)
	}
	return c.JSON(fiber.Map{
		"data":     st.expand.State(id),
		"expanded": expanded,
	})
}

// ChildPage handles POST /api/screens/:screen/rows/:id/child-page.
func (h *Handler) ChildPage(c *fiber.Ctx) error {
	screen, err := h.resolveScreen(c)
	if err != nil {
		return err
	}
	if screen.Child == nil {
		return NewAppError("NOT_EXPANDABLE", 400, screen.Title+" rows have no related list")
	}
	sess := GetSession(c)
	st := h.screenState(sess, screen)
	id := c.Params("id")

	page := c.QueryInt("page", 1)
	if err := st.expand.ChangePage(c.Context(), id, page); err != nil {
		return h.childLoadError(screen, id, err)
	}
	return c.JSON(fiber.Map{"data": st.expand.State(id)})
}

// ChildRefresh handles POST /api/screens/:screen/rows/:id/child-refresh.
// Re-fetches the expanded list at its current page after a child
// mutation, without resetting pagination.
func (h *Handler) ChildRefresh(c *fiber.Ctx) error {
	screen, err := h.resolveScreen(c)
	if err != nil {
		return err
	}
	if screen.Child == nil {
		return NewAppError("NOT_EXPANDABLE", 400, screen.Title+" rows have no related list")
	}
	sess := GetSession(c)
	st := h.screenState(sess, screen)
	id := c.Params("id")

	if err := st.expand.Refresh(c.Context(), id); err != nil {
		return h.childLoadError(screen, id, err)
	}
	return c.JSON(fiber.Map{"data": st.expand.State(id)})
}

// ToggleActivate handles POST /api/screens/:screen/rows/:id/toggle-activate.
func (h *Handler) ToggleActivate(c *fiber.Ctx) error {
	screen, err := h.resolveScreen(c)
	if err != nil {
		return err
	}
	if !screen.Activatable {
		return ForbiddenError(screen.Title + " cannot be activated or deactivated")
	}
	sess := GetSession(c)
	id := c.Params("id")

	st := h.state.get(sess.ID)
	key := mutationKey(screen.Name, "toggle-activate", id)
	if !st.begin(key) {
		return InFlightError()
	}
	defer st.end(key)

	if err := h.client.ToggleActivate(c.Context(), sess.Token, screen.Resource, id); err != nil {
		return err
	}
	h.refreshList(sess, screen)
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id}})
}

// Decide handles POST /api/screens/:screen/rows/:id/approve and /reject.
func (h *Handler) Decide(approve bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		screen, err := h.resolveScreen(c)
		if err != nil {
			return err
		}
		if !screen.Approvable {
			return ForbiddenError(screen.Title + " has no approval workflow")
		}
		sess := GetSession(c)
		id := c.Params("id")

		var body struct {
			AdminResponse string `json:"adminResponse"`
		}
		if err := c.BodyParser(&body); err != nil {
			return NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
		}

		action := "reject"
		if approve {
			action = "approve"
		}
		st := h.state.get(sess.ID)
		key := mutationKey(screen.Name, action, id)
		if !st.begin(key) {
			return InFlightError()
		}
		defer st.end(key)

		if approve {
			err = h.client.Approve(c.Context(), sess.Token, screen.Resource, id, body.AdminResponse)
		} else {
			err = h.client.Reject(c.Context(), sess.Token, screen.Resource, id, body.AdminResponse)
		}
		if err != nil {
			return err
		}
		h.refreshList(sess, screen)
		return c.JSON(fiber.Map{"data": fiber.Map{"id": id}})
	}
}

// QRCode handles GET /api/screens/:screen/rows/:id/qrcode.
func (h *Handler) QRCode(c *fiber.Ctx) error {
	screen, err := h.resolveScreen(c)
	if err != nil {
		return err
	}
	sess := GetSession(c)
	payload, err := h.client.QRCode(c.Context(), sess.Token, screen.Resource, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"qrCode": payload}})
}

// Options handles GET /api/screens/:screen/options: resolved select
// options for the screen's form, keyed by field name. Fields with
// inline options return those; fields with a dropdown source list the
// referenced resource.
func (h *Handler) Options(c *fiber.Ctx) error {
	screen, err := h.resolveScreen(c)
	if err != nil {
		return err
	}
	sess := GetSession(c)

	out := make(map[string][]schema.SelectOption)
	for _, f := range screen.FormFields {
		if f.Type != schema.FieldSelect {
			continue
		}
		if len(f.Options) > 0 {
			out[f.Name] = f.Options
			continue
		}
		resource, ok := screen.DropdownSources[f.Name]
		if !ok {
			continue
		}
		rows, err := h.listForDropdown(c.Context(), sess, resource)
		if err != nil {
			return err
		}
		opts := make([]schema.SelectOption, 0, len(rows))
		for _, r := range rows {
			opts = append(opts, schema.SelectOption{
				Value: r["id"],
				Label: schema.Stringify(r["name"]),
			})
		}
		out[f.Name] = opts
	}
	return c.JSON(fiber.Map{"data": out})
}

// ApplyFilters handles PUT /api/screens/:screen/filters. The body is
// the filter modal's field values; empty values clear their entries.
// The applied record is serialized into backend predicates in form
// field order and drives the screen's list controller.
func (h *Handler) ApplyFilters(c *fiber.Ctx) error {
	screen, err := h.resolveScreen(c)
	if err != nil {
		return err
	}
	sess := GetSession(c)
	st := h.screenState(sess, screen)

	var body schema.Record
	if err := c.BodyParser(&body); err != nil {
		return NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}

	draft := form.NewFilterDraft(st.appliedFilters())
	for name, v := range body {
		draft.Set(name, v)
	}
	applied := draft.Apply()
	st.setApplied(applied)

	predicates := form.Predicates(applied, fieldOrder(screen))
	st.list.SetFilters(predicates)
	st.list.SetPage(1)

	return c.JSON(fiber.Map{"data": fiber.Map{
		"applied":    applied,
		"predicates": predicates,
	}})
}

// ClearFilters handles DELETE /api/screens/:screen/filters: resets the
// applied record and the list controller's filters in one step.
func (h *Handler) ClearFilters(c *fiber.Ctx) error {
	screen, err := h.resolveScreen(c)
	if err != nil {
		return err
	}
	sess := GetSession(c)
	st := h.screenState(sess, screen)

	draft := form.NewFilterDraft(st.appliedFilters())
	st.setApplied(draft.Clear())
	st.list.SetFilters(nil)
	st.list.SetPage(1)

	return c.JSON(fiber.Map{"data": fiber.Map{"applied": schema.Record{}}})
}

// MenuToggle handles POST /api/screens/:screen/menu/:row/toggle.
// Exactly one row menu is open per table; opening one closes another.
// The response carries the screen's visible actions and the vertical
// placement for the given remaining viewport space.
func (h *Handler) MenuToggle(c *fiber.Ctx) error {
	screen, err := h.resolveScreen(c)
	if err != nil {
		return err
	}
	sess := GetSession(c)
	st := h.screenState(sess, screen)

	// Copy the route param: fiber reuses its backing buffer across
	// requests, and the menu stores the row id beyond this handler.
	open := st.menu.Toggle(utils.CopyString(c.Params("row")))

	visible := table.VisibleActions(rowActions(screen))
	names := make([]string, 0, len(visible))
	for _, a := range visible {
		names = append(names, a.Name)
	}

	placement := "below"
	if spaceBelow := c.QueryFloat("spaceBelow", -1); spaceBelow >= 0 {
		if table.Place(spaceBelow, len(visible)) == table.PlaceAbove {
			placement = "above"
		}
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"open":      open,
		"openRow":   st.menu.OpenRow(),
		"actions":   names,
		"placement": placement,
	}})
}

// MenuOutsideClick handles POST /api/screens/:screen/menu/outside-click.
func (h *Handler) MenuOutsideClick(c *fiber.Ctx) error {
	screen, err := h.resolveScreen(c)
	if err != nil {
		return err
	}
	sess := GetSession(c)
	st := h.screenState(sess, screen)

	var body struct {
		WithinMenu bool `json:"withinMenu"`
	}
	_ = c.BodyParser(&body)
	st.menu.OutsideClick(body.WithinMenu)
	return c.JSON(fiber.Map{"data": fiber.Map{"openRow": st.menu.OpenRow()}})
}

// --- helpers ---

func (h *Handler) resolveScreen(c *fiber.Ctx) (*schema.Screen, error) {
	name := c.Params("screen")
	screen := h.registry.GetScreen(name)
	if screen == nil {
		return nil, UnknownScreenError(name)
	}
	return screen, nil
}

// screenState returns (building on first use) the controllers behind
// one screen for the acting session.
func (h *Handler) screenState(sess *session.Session, screen *schema.Screen) *screenState {
	st := h.state.get(sess.ID)
	st.mu.Lock()
	defer st.mu.Unlock()

	sc, ok := st.screens[screen.Name]
	if ok {
		return sc
	}

	notices := &noticeBuffer{}
	sc = &screenState{
		notices: notices,
		list:    h.buildListController(sess, screen, notices),
		menu:    table.NewMenu(),
	}
	if screen.Child != nil {
		sc.expand = h.buildExpandable(sess, screen.Child)
	}
	st.screens[screen.Name] = sc
	return sc
}

func (h *Handler) buildListController(sess *session.Session, screen *schema.Screen, notices table.Notifier) *table.PagedController {
	sessID := sess.ID
	resource := screen.Resource
	fetch := func(ctx context.Context, req schema.PagingRequest) (*schema.PagingResponse, error) {
		// Re-read the session so a refreshed token is picked up.
		s, err := h.sessions.Get(ctx, sessID)
		if err != nil {
			return nil, err
		}
		return h.client.GetPaged(ctx, s.Token, resource, req)
	}
	return table.NewPagedController(fetch, notices,
		table.WithScope(table.TenantScope{Role: sess.Role, OperatorID: sess.OperatorID}),
	)
}

func (h *Handler) buildExpandable(sess *session.Session, child *schema.ChildConfig) *table.Expandable {
	sessID := sess.ID
	fetch := func(ctx context.Context, parentID string, page, pageSize int) (schema.PagedResult, error) {
		s, err := h.sessions.Get(ctx, sessID)
		if err != nil {
			return schema.PagedResult{}, err
		}
		req := schema.PagingRequest{
			Page:          page,
			PageSize:      pageSize,
			SortField:     "id",
			SortAscending: true,
			Filter:        []string{child.ParentField + "=" + parentID},
		}
		resp, err := h.client.GetPaged(ctx, s.Token, child.Resource, req)
		if err != nil {
			return schema.PagedResult{}, err
		}
		result := schema.PagedResult{Data: resp.Result, TotalItems: resp.Pagination.Length}
		return result, nil
	}
	return table.NewExpandable(fetch, child.PageSize)
}

// refreshList bumps the screen's refresh counter so the next list
// fetch reflects the mutation.
func (h *Handler) refreshList(sess *session.Session, screen *schema.Screen) {
	st := h.state.get(sess.ID)
	st.mu.Lock()
	sc := st.screens[screen.Name]
	st.mu.Unlock()
	if sc != nil {
		sc.list.Refresh()
	}
}

// listForDropdown lists a resource for select options, tenant-scoped
// for operator sessions where the backend offers a ByOperator route.
func (h *Handler) listForDropdown(ctx context.Context, sess *session.Session, resource string) ([]schema.Record, error) {
	if sess.IsOperator() && byOperatorResources[resource] {
		return h.client.ListByOperator(ctx, sess.Token, resource, sess.OperatorID)
	}
	return h.client.List(ctx, sess.Token, resource)
}

// byOperatorResources are the backend resources exposing a /ByOperator
// route for tenant scoping.
var byOperatorResources = map[string]bool{
	"Stations": true,
	"Rates":    true,
}

func (h *Handler) childLoadError(screen *schema.Screen, parentID string, err error) error {
	var remoteErr *gateway.RemoteError
	msg := fmt.Sprintf("Failed to load %s for %s %s", screen.Child.Resource, screen.Title, parentID)
	if ok := asRemote(err, &remoteErr); ok && remoteErr.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, remoteErr.Message)
	}
	return NewAppError("CHILD_LOAD_FAILED", 502, msg)
}

// rowActions builds the dispatch menu for one screen. Entries a screen
// lacks the capability for carry a nil handler and are filtered out of
// the visible set. The handlers themselves are no-ops: dispatch runs
// over the dedicated row routes, the menu only decides visibility and
// placement.
func rowActions(screen *schema.Screen) []table.Action {
	dispatch := func(enabled bool) table.ActionHandler {
		if !enabled {
			return nil
		}
		return func(schema.Record) error { return nil }
	}
	return []table.Action{
		{Name: "view", Icon: "eye", Title: "View", Handler: dispatch(true)},
		{Name: "edit", Icon: "pencil", Title: "Edit", Handler: dispatch(!screen.ReadOnly)},
		{Name: "delete", Icon: "trash", Title: "Delete", Handler: dispatch(!screen.ReadOnly)},
		{Name: "toggle-activate", Icon: "power", Title: "Activate / Deactivate", Handler: dispatch(screen.Activatable)},
		{Name: "approve", Icon: "check", Title: "Approve", Handler: dispatch(screen.Approvable)},
		{Name: "reject", Icon: "x", Title: "Reject", Handler: dispatch(screen.Approvable)},
		{Name: "qrcode", Icon: "qr", Title: "QR Code", Handler: dispatch(hasQRField(screen))},
	}
}

func hasQRField(screen *schema.Screen) bool {
	for _, f := range screen.FormFields {
		if f.Type == schema.FieldQRCode {
			return true
		}
	}
	return false
}

// fieldOrder lists the screen's form field names in declaration order,
// the stable order filter predicates are serialized in.
func fieldOrder(screen *schema.Screen) []string {
	out := make([]string, 0, len(screen.FormFields))
	for _, f := range screen.FormFields {
		out = append(out, f.Name)
	}
	return out
}

func mutationKey(screen, op, id string) string {
	return screen + ":" + op + ":" + id
}

func queryMulti(c *fiber.Ctx, key string) []string {
	raw := c.Context().QueryArgs().PeekMulti(key)
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, b := range raw {
		out = append(out, string(b))
	}
	return out
}
