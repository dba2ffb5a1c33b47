package views

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/rebeliceyang/lazytable/internal/models"
	"github.com/rebeliceyang/lazytable/internal/tablestate"
	"github.com/rebeliceyang/lazytable/internal/urlstate"
)

func newManager(t *testing.T) (*Manager, *SQLiteStore) {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	store.now = steppingClock()
	t.Cleanup(func() { _ = store.Close() })

	logger, _ := test.NewNullLogger()
	return NewManager("tasks", store, logger), store
}

func names(views []models.SavedView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.Name
	}
	return out
}

func TestManager_SaveValidatesName(t *testing.T) {
	m, _ := newManager(t)

	_, err := m.Save(context.Background(), SaveInput{Name: " \t", State: testState()})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "name" {
		t.Errorf("expected field 'name', got '%s'", verr.Field)
	}
}

func TestManager_SaveInsertOrReplace(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	a, err := m.Save(ctx, SaveInput{Name: "A", State: testState()})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := m.Save(ctx, SaveInput{Name: "B", State: testState()}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if got := names(m.Views()); !reflect.DeepEqual(got, []string{"B", "A"}) {
		t.Errorf("expected [B A], got %v", got)
	}

	if _, err := m.Save(ctx, SaveInput{Name: "A2", State: testState(), ViewID: a.ID}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got := names(m.Views()); !reflect.DeepEqual(got, []string{"A2", "B"}) {
		t.Errorf("expected [A2 B], got %v", got)
	}

	selected, ok := m.Selected()
	if !ok || selected.ID != a.ID {
		t.Errorf("expected saved view to be selected, got %+v", selected)
	}
}

func TestManager_LoadAndDelete(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)

	v, err := store.Save(ctx, SaveRequest{TableKey: "tasks", Name: "Stored", State: testState()})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if len(m.Views()) != 0 {
		t.Fatal("expected empty cache before Load")
	}
	if err := m.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := names(m.Views()); !reflect.DeepEqual(got, []string{"Stored"}) {
		t.Fatalf("expected [Stored], got %v", got)
	}
	if m.DefaultName() != "View 2" {
		t.Errorf("expected 'View 2', got '%s'", m.DefaultName())
	}

	m.Select(v.ID)
	if err := m.Delete(ctx, v.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(m.Views()) != 0 {
		t.Error("expected view removed from cache")
	}
	if _, ok := m.Selected(); ok {
		t.Error("expected selection cleared after deleting the selected view")
	}
}

// gatedBackend blocks List until released
type gatedBackend struct {
	Backend
	mu    sync.Mutex
	gates []chan []models.SavedView
}

func (g *gatedBackend) List(ctx context.Context, tableKey string) ([]models.SavedView, error) {
	gate := make(chan []models.SavedView)
	g.mu.Lock()
	g.gates = append(g.gates, gate)
	g.mu.Unlock()
	return <-gate, nil
}

func (g *gatedBackend) gate(i int) chan []models.SavedView {
	for {
		g.mu.Lock()
		if len(g.gates) > i {
			ch := g.gates[i]
			g.mu.Unlock()
			return ch
		}
		g.mu.Unlock()
	}
}

func TestManager_StaleLoadDropped(t *testing.T) {
	backend := &gatedBackend{}
	m := NewManager("tasks", backend, logrus.New())

	first := make(chan error)
	go func() { first <- m.Load(context.Background()) }()
	backend.gate(0)

	second := make(chan error)
	go func() { second <- m.Load(context.Background()) }()

	backend.gate(1) <- []models.SavedView{{ID: "new", Name: "New"}}
	if err := <-second; err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	backend.gate(0) <- []models.SavedView{{ID: "old", Name: "Old"}}
	if err := <-first; err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := names(m.Views()); !reflect.DeepEqual(got, []string{"New"}) {
		t.Errorf("expected the newer load to win, got %v", got)
	}
}

func TestManager_LoadAfterClose(t *testing.T) {
	backend := &gatedBackend{}
	m := NewManager("tasks", backend, logrus.New())

	done := make(chan error)
	go func() { done <- m.Load(context.Background()) }()
	gate := backend.gate(0)

	m.Close()
	gate <- []models.SavedView{{ID: "late", Name: "Late"}}
	<-done

	if len(m.Views()) != 0 {
		t.Error("expected a load finishing after Close to be dropped")
	}
}

func TestManager_Reorder(t *testing.T) {
	m := NewManager("tasks", nil, logrus.New())
	m.views = []models.SavedView{{ID: "a", Name: "a"}, {ID: "b", Name: "b"}, {ID: "c", Name: "c"}}

	if !m.Reorder("a", "c") {
		t.Fatal("expected reorder to succeed")
	}
	if got := names(m.Views()); !reflect.DeepEqual(got, []string{"b", "c", "a"}) {
		t.Errorf("expected [b c a], got %v", got)
	}
	if !m.Reorder("a", "b") {
		t.Fatal("expected reorder to succeed")
	}
	if got := names(m.Views()); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("expected [a b c], got %v", got)
	}
	if m.Reorder("a", "missing") {
		t.Error("expected reorder with unknown id to fail")
	}
}

func TestManager_ApplyThenSerialize(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	view, err := m.Save(ctx, SaveInput{Name: "Saved", State: testState()})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	table := tablestate.New(models.NewTableQueryState())
	table.Select("row-1")
	m.Select("")
	m.Apply(view, table)

	got := urlstate.Serialize(table.Snapshot())
	want := urlstate.Serialize(view.State)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if len(table.Selection()) != 0 {
		t.Error("expected row selection cleared")
	}
	if selected, ok := m.Selected(); !ok || selected.ID != view.ID {
		t.Error("expected applied view to be selected")
	}
}

func TestManager_ApplyKeepsPaginationWhenMissing(t *testing.T) {
	m := NewManager("tasks", nil, logrus.New())
	table := tablestate.New(models.NewTableQueryState())
	table.SetPagination(models.Pagination{PageIndex: 3, PageSize: 10})

	state := testState()
	state.Pagination = models.Pagination{}
	m.Apply(models.SavedView{ID: "v", State: state}, table)

	if got := table.Snapshot().Pagination; got != (models.Pagination{PageIndex: 3, PageSize: 10}) {
		t.Errorf("expected pagination kept, got %+v", got)
	}
}

func TestManager_Reset(t *testing.T) {
	m := NewManager("tasks", nil, logrus.New())
	table := tablestate.New(testState())
	m.Select("v")

	m.Reset(table)
	if table.CanSave() {
		t.Error("expected reset table to have nothing to save")
	}
	if _, ok := m.Selected(); ok {
		t.Error("expected no selected view after reset")
	}
}
