package table

import (
	"sync"

	"charge-console/internal/schema"
)

// ActionHandler performs a row action. A nil handler hides the action
// entirely (e.g. no Edit on read-only resources).
type ActionHandler func(row schema.Record) error

// Action is one entry of a row's dispatch menu.
type Action struct {
	Name    string
	Icon    string
	Title   string
	Handler ActionHandler
}

// VisibleActions filters out entries without a handler.
func VisibleActions(actions []Action) []Action {
	out := make([]Action, 0, len(actions))
	for _, a := range actions {
		if a.Handler != nil {
			out = append(out, a)
		}
	}
	return out
}

// Menu tracks which single row's action menu is open across a table.
type Menu struct {
	mu      sync.Mutex
	openRow string
}

func NewMenu() *Menu {
	return &Menu{}
}

// Toggle opens the menu for a row, closing any other open menu. If the
// row's menu is already open it closes instead. Returns whether the
// row's menu is open afterwards.
func (m *Menu) Toggle(rowID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openRow == rowID {
		m.openRow = ""
		return false
	}
	m.openRow = rowID
	return true
}

// OpenRow returns the id of the row whose menu is open, or "".
func (m *Menu) OpenRow() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openRow
}

// IsOpen reports whether the given row's menu is open.
func (m *Menu) IsOpen(rowID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openRow == rowID
}

// OutsideClick closes the open menu unless the click landed inside the
// menu or its toggle button.
func (m *Menu) OutsideClick(withinMenu bool) {
	if withinMenu {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openRow = ""
}

// Placement of the menu relative to its trigger.
type Placement int

const (
	PlaceBelow Placement = iota
	PlaceAbove
)

// MenuRowHeight is the fixed estimated height of one action entry.
const MenuRowHeight = 40.0

// Place flips the menu above the trigger when the remaining viewport
// space below cannot fit all actions.
func Place(spaceBelow float64, actionCount int) Placement {
	if spaceBelow < float64(actionCount)*MenuRowHeight {
		return PlaceAbove
	}
	return PlaceBelow
}
