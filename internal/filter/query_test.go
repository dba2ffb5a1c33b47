package filter

import (
	"reflect"
	"testing"
	"time"

	"github.com/rebeliceyang/lazytable/internal/models"
)

func titles(rows []models.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i], _ = r["title"].(string)
	}
	return out
}

func TestSortRows_Ascending(t *testing.T) {
	rows := []models.Row{
		{"title": "Getting Started with React"},
		{"title": "Advanced TypeScript Patterns"},
		{"title": "Building APIs with Go"},
	}
	SortRows(rows, []models.SortSpec{{ID: "title"}})

	want := []string{"Advanced TypeScript Patterns", "Building APIs with Go", "Getting Started with React"}
	if got := titles(rows); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSortRows_SecondKeyBreaksTies(t *testing.T) {
	rows := []models.Row{
		{"title": "c", "status": "todo"},
		{"title": "a", "status": "done"},
		{"title": "b", "status": "todo"},
		{"title": "d", "status": "done"},
	}
	SortRows(rows, []models.SortSpec{{ID: "status"}, {ID: "title", Desc: true}})

	want := []string{"d", "a", "c", "b"}
	if got := titles(rows); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSortRows_Types(t *testing.T) {
	rows := []models.Row{
		{"title": "ten", "n": 10},
		{"title": "nil", "n": nil},
		{"title": "two", "n": 2.0},
	}
	SortRows(rows, []models.SortSpec{{ID: "n"}})
	if got := titles(rows); !reflect.DeepEqual(got, []string{"nil", "two", "ten"}) {
		t.Errorf("unexpected numeric order %v", got)
	}

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows = []models.Row{
		{"title": "old", "d": day},
		{"title": "new", "d": day.AddDate(0, 0, 3)},
	}
	SortRows(rows, []models.SortSpec{{ID: "d", Desc: true}})
	if got := titles(rows); !reflect.DeepEqual(got, []string{"new", "old"}) {
		t.Errorf("unexpected time order %v", got)
	}
}

func TestRun_FilterSortPaginate(t *testing.T) {
	var rows []models.Row
	for i := 0; i < 7; i++ {
		rows = append(rows, models.Row{"title": string(rune('a' + i)), "n": i})
	}

	state := models.NewTableQueryState()
	state.Filters = []models.ColumnFilter{{ID: "n", Operator: models.OpGreater, Value: models.Number(0), Variant: models.VariantNumber}}
	state.Sorting = []models.SortSpec{{ID: "n", Desc: true}}
	state.Pagination = models.Pagination{PageIndex: 1, PageSize: 4}

	page := NewEvaluator().Run(rows, state)

	if page.Total != 6 {
		t.Errorf("expected total 6, got %d", page.Total)
	}
	if page.PageCount != 2 {
		t.Errorf("expected 2 pages, got %d", page.PageCount)
	}
	if got := titles(page.Rows); !reflect.DeepEqual(got, []string{"c", "b"}) {
		t.Errorf("expected [c b], got %v", got)
	}
	if rows[0]["title"] != "a" {
		t.Error("expected input rows to keep their order")
	}
}

func TestRun_PageOutOfRange(t *testing.T) {
	state := models.NewTableQueryState()
	state.Pagination.PageIndex = 9

	page := NewEvaluator().Run([]models.Row{{"title": "x"}}, state)
	if len(page.Rows) != 0 {
		t.Errorf("expected empty page, got %d rows", len(page.Rows))
	}
	if page.Total != 1 {
		t.Errorf("expected total 1, got %d", page.Total)
	}
}

func TestResolveColumns(t *testing.T) {
	state := models.NewTableQueryState()
	state.ColumnOrder = []string{"status", "ghost", "title"}
	state.ColumnVisibility = map[string]bool{"id": false, "title": true}

	got := ResolveColumns([]string{"id", "title", "description", "status"}, state)
	want := []string{"status", "title", "description"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestProject(t *testing.T) {
	rows := []models.Row{{"a": 1, "b": 2}}
	got := Project(rows, []string{"b"})
	if !reflect.DeepEqual(got[0], models.Row{"b": 2}) {
		t.Errorf("unexpected projection %v", got[0])
	}
}
