package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/rebeliceyang/lazytable/internal/config"
	"github.com/rebeliceyang/lazytable/internal/filter"
	"github.com/rebeliceyang/lazytable/internal/models"
	"github.com/rebeliceyang/lazytable/internal/records"
	"github.com/rebeliceyang/lazytable/internal/urlstate"
	"github.com/rebeliceyang/lazytable/internal/views"
)

func testEnv(t *testing.T) *env {
	t.Helper()
	logger, _ := test.NewNullLogger()

	backend, err := views.NewYAMLStore(filepath.Join(t.TempDir(), "views.yaml"))
	if err != nil {
		t.Fatalf("NewYAMLStore failed: %v", err)
	}
	store := records.NewStore(records.Seed(), logger)
	e := &env{
		cfg:       config.GetDefaults(),
		log:       logger,
		source:    store,
		store:     store,
		views:     views.NewManager("simple-table", backend, logger),
		evaluator: &filter.Evaluator{Now: time.Now, Location: time.UTC},
	}
	if err := e.views.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return e
}

func TestResolveState_QueryOnly(t *testing.T) {
	e := testEnv(t)

	state, values, err := resolveState(e, "?sort=title:desc&page=2&tab=x", "")
	if err != nil {
		t.Fatalf("resolveState failed: %v", err)
	}
	if len(state.Sorting) != 1 || !state.Sorting[0].Desc {
		t.Errorf("expected title desc, got %+v", state.Sorting)
	}
	if state.Pagination.PageIndex != 1 {
		t.Errorf("expected page index 1, got %d", state.Pagination.PageIndex)
	}
	if values.Get("tab") != "x" {
		t.Error("expected foreign keys to survive")
	}
}

func TestResolveState_AppliesViewByName(t *testing.T) {
	e := testEnv(t)

	viewState := models.NewTableQueryState()
	viewState.Sorting = []models.SortSpec{{ID: "created_at", Desc: true}}
	if _, err := e.views.Save(context.Background(), views.SaveInput{Name: "Newest", State: viewState}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	state, values, err := resolveState(e, "sort=title:asc&tab=x", "newest")
	if err != nil {
		t.Fatalf("resolveState failed: %v", err)
	}
	if len(state.Sorting) != 1 || state.Sorting[0].ID != "created_at" {
		t.Errorf("expected the view's sorting, got %+v", state.Sorting)
	}
	if values.Get(urlstate.ParamSort) != "created_at:desc" {
		t.Errorf("expected mirrored sort param, got %q", values.Get(urlstate.ParamSort))
	}
	if values.Get("tab") != "x" {
		t.Error("expected foreign keys to survive the mirror")
	}
	if sel, ok := e.views.Selected(); !ok || sel.Name != "Newest" {
		t.Error("expected the applied view to be selected")
	}

	if _, _, err := resolveState(e, "", "missing"); err == nil {
		t.Error("expected an error for an unknown view")
	}
}

func TestRunQueryAndRender(t *testing.T) {
	e := testEnv(t)

	state, values, err := resolveState(e, "pageSize=2&visibility="+urlstate.EncodeComponent(`{"description":false}`), "")
	if err != nil {
		t.Fatalf("resolveState failed: %v", err)
	}
	page, columns, err := runQuery(context.Background(), e, state)
	if err != nil {
		t.Fatalf("runQuery failed: %v", err)
	}
	if len(page.Rows) != 2 || page.Total != 3 {
		t.Fatalf("expected 2 of 3 rows, got %d of %d", len(page.Rows), page.Total)
	}

	var buf bytes.Buffer
	renderTable(&buf, columns, page, values.Encode())
	out := buf.String()

	if !strings.Contains(out, "Getting Started with React") {
		t.Errorf("expected a seed title in output:\n%s", out)
	}
	if strings.Contains(out, "This is a description") {
		t.Errorf("hidden column rendered:\n%s", out)
	}
	if !strings.Contains(out, "page 1 of 2, 3 rows") {
		t.Errorf("expected footer in output:\n%s", out)
	}
}
