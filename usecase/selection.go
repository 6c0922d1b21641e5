package usecase

import (
	"fmt"
	"sort"
	"sync"
)

// ItemDeleter is the store-side delete operation.
type ItemDeleter interface {
	DeleteItem(itemID string, userID string) error
}

// CompletionSetter is the store-side completion-flag operation.
type CompletionSetter interface {
	SetCompleted(itemID string, userID string, completed bool) error
}

// SelectionController tracks the set of selected item ids for bulk
// operations. The selection is ephemeral UI state: it is never
// persisted, and it is cleared on view switches, explicit clears and
// after every bulk action.
type SelectionController struct {
	mu       sync.Mutex
	selected map[string]struct{}
	bulkMode bool
}

func NewSelectionController() *SelectionController {
	return &SelectionController{selected: make(map[string]struct{})}
}

// Toggle adds the id if absent and removes it if present. Entering a
// non-empty selection for the first time turns bulk mode on.
func (sc *SelectionController) Toggle(id string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if _, ok := sc.selected[id]; ok {
		delete(sc.selected, id)
		return
	}
	sc.selected[id] = struct{}{}
	sc.bulkMode = true
}

// Clear empties the selection and turns bulk mode off.
func (sc *SelectionController) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.selected = make(map[string]struct{})
	sc.bulkMode = false
}

// SelectAll toggles between selecting every currently visible item and
// an empty selection. It never touches items outside the visible list.
func (sc *SelectionController) SelectAll(visibleIDs []string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if len(sc.selected) == len(visibleIDs) && len(visibleIDs) > 0 {
		sc.selected = make(map[string]struct{})
		sc.bulkMode = false
		return
	}

	sc.selected = make(map[string]struct{}, len(visibleIDs))
	for _, id := range visibleIDs {
		sc.selected[id] = struct{}{}
	}
	sc.bulkMode = len(sc.selected) > 0
}

func (sc *SelectionController) IsSelected(id string) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	_, ok := sc.selected[id]
	return ok
}

func (sc *SelectionController) Count() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.selected)
}

func (sc *SelectionController) BulkMode() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.bulkMode
}

// IDs returns the selected ids in sorted order.
func (sc *SelectionController) IDs() []string {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	ids := make([]string, 0, len(sc.selected))
	for id := range sc.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BulkDelete deletes every selected item behind a confirmation gate.
// There is no per-item rollback: the selection is cleared even when some
// deletes fail, and the caller gets one aggregate error. Returns the
// number of successful deletes.
func (sc *SelectionController) BulkDelete(userID string, store ItemDeleter, confirm func(count int) bool) (int, error) {
	ids := sc.IDs()
	if len(ids) == 0 {
		return 0, nil
	}
	if confirm != nil && !confirm(len(ids)) {
		return 0, nil
	}

	failed := 0
	for _, id := range ids {
		if err := store.DeleteItem(id, userID); err != nil {
			failed++
		}
	}
	sc.Clear()

	if failed > 0 {
		return len(ids) - failed, fmt.Errorf("failed to delete %d of %d items", failed, len(ids))
	}
	return len(ids), nil
}

// BulkSetStatus sets is_completed on every selected item to the opposite
// of the current view mode: a bulk action in the active view always
// marks complete, in the completed view always marks active. This is not
// a per-item toggle. The selection is cleared regardless of partial
// failure.
func (sc *SelectionController) BulkSetStatus(userID string, viewMode string, store CompletionSetter) (int, error) {
	ids := sc.IDs()
	if len(ids) == 0 {
		return 0, nil
	}

	newStatus := viewMode != ViewCompleted

	failed := 0
	for _, id := range ids {
		if err := store.SetCompleted(id, userID, newStatus); err != nil {
			failed++
		}
	}
	sc.Clear()

	if failed > 0 {
		return len(ids) - failed, fmt.Errorf("failed to update %d of %d items", failed, len(ids))
	}
	return len(ids), nil
}
