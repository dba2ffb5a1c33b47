// Package tablestate holds the live query state of one table.
package tablestate

import (
	"sort"
	"sync"

	"github.com/rebeliceyang/lazytable/internal/models"
)

// MirrorFunc receives the state after every mutation
type MirrorFunc func(state models.TableQueryState)

// Table is the canonical, mutex guarded query state of a table plus its row
// selection. Readers always get a copy, so they never see a half-applied
// update.
type Table struct {
	mu        sync.RWMutex
	state     models.TableQueryState
	selection map[string]bool
	mirror    MirrorFunc
}

// New creates a table holding state
func New(state models.TableQueryState) *Table {
	return &Table{
		state:     state.Clone(),
		selection: make(map[string]bool),
	}
}

// SetMirror installs the one hook that pushes state outward (URL, logs).
// It is called outside the lock with a copy of the new state.
func (t *Table) SetMirror(fn MirrorFunc) {
	t.mu.Lock()
	t.mirror = fn
	t.mu.Unlock()
}

// Snapshot returns a copy of the current state
func (t *Table) Snapshot() models.TableQueryState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Clone()
}

// Update applies fn to a working copy and commits it in one step
func (t *Table) Update(fn func(state *models.TableQueryState)) {
	t.mu.Lock()
	next := t.state.Clone()
	fn(&next)
	t.state = next
	t.mu.Unlock()
	t.notify()
}

// Replace swaps in a whole new state and clears the row selection
func (t *Table) Replace(state models.TableQueryState) {
	t.mu.Lock()
	t.state = state.Clone()
	t.selection = make(map[string]bool)
	t.mu.Unlock()
	t.notify()
}

// Reset clears filters, sorting, visibility, order and selection.
// The page size is kept and the page index goes back to the first page.
func (t *Table) Reset() {
	t.mu.Lock()
	size := t.state.Pagination.PageSize
	t.state = models.NewTableQueryState()
	if size > 0 {
		t.state.Pagination.PageSize = size
	}
	t.selection = make(map[string]bool)
	t.mu.Unlock()
	t.notify()
}

// SetFilters replaces the filters and goes back to the first page
func (t *Table) SetFilters(filters []models.ColumnFilter) {
	t.Update(func(s *models.TableQueryState) {
		s.Filters = append([]models.ColumnFilter{}, filters...)
		s.Pagination.PageIndex = 0
	})
}

// SetSorting replaces the sort keys
func (t *Table) SetSorting(sorting []models.SortSpec) {
	t.Update(func(s *models.TableQueryState) {
		s.Sorting = append([]models.SortSpec{}, sorting...)
	})
}

// SetPagination moves to another page or page size
func (t *Table) SetPagination(p models.Pagination) {
	t.Update(func(s *models.TableQueryState) {
		s.Pagination = p
	})
}

// SetColumnVisibility shows or hides one column
func (t *Table) SetColumnVisibility(columnID string, visible bool) {
	t.Update(func(s *models.TableQueryState) {
		if s.ColumnVisibility == nil {
			s.ColumnVisibility = map[string]bool{}
		}
		s.ColumnVisibility[columnID] = visible
	})
}

// SetColumnOrder replaces the column order
func (t *Table) SetColumnOrder(order []string) {
	t.Update(func(s *models.TableQueryState) {
		s.ColumnOrder = append([]string{}, order...)
	})
}

// CanSave reports whether the current state is worth saving as a view
func (t *Table) CanSave() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.CanSave()
}

// Select marks rows as selected
func (t *Table) Select(ids ...string) {
	t.mu.Lock()
	for _, id := range ids {
		t.selection[id] = true
	}
	t.mu.Unlock()
}

// Deselect removes rows from the selection
func (t *Table) Deselect(ids ...string) {
	t.mu.Lock()
	for _, id := range ids {
		delete(t.selection, id)
	}
	t.mu.Unlock()
}

// Selection returns the selected row ids, sorted
func (t *Table) Selection() []string {
	t.mu.RLock()
	ids := make([]string, 0, len(t.selection))
	for id := range t.selection {
		ids = append(ids, id)
	}
	t.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// ClearSelection deselects every row
func (t *Table) ClearSelection() {
	t.mu.Lock()
	t.selection = make(map[string]bool)
	t.mu.Unlock()
}

func (t *Table) notify() {
	t.mu.RLock()
	mirror := t.mirror
	state := t.state.Clone()
	t.mu.RUnlock()

	if mirror != nil {
		mirror(state)
	}
}
