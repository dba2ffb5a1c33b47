package views

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/rebeliceyang/lazytable/internal/models"
	"github.com/rebeliceyang/lazytable/internal/tablestate"
)

// SaveInput is what a user submits from the save form
type SaveInput struct {
	Name        string
	Description string
	State       models.TableQueryState
	// ViewID updates that view instead of creating a new one
	ViewID string
}

// Manager keeps the cached list of saved views for one table and applies
// them to the live table state. The cache is refreshed wholesale by Load and
// patched in place by Save and Delete.
type Manager struct {
	mu       sync.Mutex
	tableKey string
	backend  Backend
	log      logrus.FieldLogger

	views    []models.SavedView
	selected string
	loadGen  uint64
	closed   bool
}

// NewManager creates a manager for tableKey
func NewManager(tableKey string, backend Backend, log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		tableKey: tableKey,
		backend:  backend,
		log:      log.WithField("table_key", tableKey),
		views:    []models.SavedView{},
	}
}

// TableKey returns the table the manager belongs to
func (m *Manager) TableKey() string {
	return m.tableKey
}

// Load replaces the cache with the backend's list. A result arriving after
// a newer Load started, or after Close, is dropped. Loading clears the
// selected view.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.loadGen++
	gen := m.loadGen
	m.selected = ""
	m.mu.Unlock()

	views, err := m.backend.List(ctx, m.tableKey)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.loadGen {
		m.log.Debug("dropping stale saved view list")
		return nil
	}
	if err != nil {
		m.log.WithError(err).Error("failed to load saved views")
		return fmt.Errorf("failed to load saved views: %w", err)
	}

	m.views = views
	return nil
}

// Close stops pending loads from touching the cache
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

// Views returns a copy of the cached list
func (m *Manager) Views() []models.SavedView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.SavedView{}, m.views...)
}

// Get returns a cached view by id
func (m *Manager) Get(id string) (models.SavedView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.views {
		if v.ID == id {
			return v, true
		}
	}
	return models.SavedView{}, false
}

// DefaultName is the name offered for a new view: "View N" with N one past
// the number of saved views
func (m *Manager) DefaultName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("View %d", len(m.views)+1)
}

// Save stores a view and patches the cache: the returned record replaces any
// cached view with the same id, and the list is kept most recently updated
// first. The saved view becomes the selected one.
func (m *Manager) Save(ctx context.Context, in SaveInput) (models.SavedView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.SavedView{}, &ValidationError{Field: "name", Message: "give your view a name before saving"}
	}

	view, err := m.backend.Save(ctx, SaveRequest{
		TableKey:    m.tableKey,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		State:       in.State,
		ViewID:      in.ViewID,
	})
	if err != nil {
		m.log.WithError(err).WithField("view_id", in.ViewID).Error("failed to save view")
		return models.SavedView{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := make([]models.SavedView, 0, len(m.views)+1)
	next = append(next, view)
	for _, v := range m.views {
		if v.ID != view.ID {
			next = append(next, v)
		}
	}
	sortByUpdated(next)
	m.views = next
	m.selected = view.ID

	m.log.WithField("view_id", view.ID).Info("saved view")
	return view, nil
}

// Delete removes a view from the backend and the cache
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.backend.Delete(ctx, id); err != nil {
		m.log.WithError(err).WithField("view_id", id).Error("failed to delete view")
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.views[:0]
	for _, v := range m.views {
		if v.ID != id {
			next = append(next, v)
		}
	}
	m.views = next
	if m.selected == id {
		m.selected = ""
	}
	return nil
}

// Reorder moves the view fromID to the position of toID in the cached list.
// The order is local and not persisted.
func (m *Manager) Reorder(fromID, toID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if fromID == toID {
		return false
	}
	from, to := -1, -1
	for i, v := range m.views {
		switch v.ID {
		case fromID:
			from = i
		case toID:
			to = i
		}
	}
	if from < 0 || to < 0 {
		return false
	}

	moved := m.views[from]
	rest := append(append([]models.SavedView{}, m.views[:from]...), m.views[from+1:]...)
	next := make([]models.SavedView, 0, len(m.views))
	next = append(next, rest[:to]...)
	next = append(next, moved)
	next = append(next, rest[to:]...)
	m.views = next
	return true
}

// Select marks a view as the active one; an empty id clears it
func (m *Manager) Select(id string) {
	m.mu.Lock()
	m.selected = id
	m.mu.Unlock()
}

// Selected returns the active view, if any
func (m *Manager) Selected() (models.SavedView, bool) {
	m.mu.Lock()
	id := m.selected
	m.mu.Unlock()
	if id == "" {
		return models.SavedView{}, false
	}
	return m.Get(id)
}

// Apply loads the view into the table in one step, clears the row
// selection and marks the view selected. A view without a page size keeps
// the table's current pagination.
func (m *Manager) Apply(view models.SavedView, table *tablestate.Table) {
	next := view.State.Clone()
	if next.Pagination.PageSize < 1 {
		next.Pagination = table.Snapshot().Pagination
	}
	if next.Pagination.PageIndex < 0 {
		next.Pagination.PageIndex = 0
	}
	table.Replace(next)

	m.Select(view.ID)
	m.log.WithField("view_id", view.ID).Debug("applied view")
}

// Reset clears the table back to its plain state and deselects the view
func (m *Manager) Reset(table *tablestate.Table) {
	table.Reset()
	m.Select("")
}

// Capture snapshots the table state for saving
func (m *Manager) Capture(table *tablestate.Table) models.TableQueryState {
	return table.Snapshot()
}
