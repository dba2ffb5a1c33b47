package tablestate

import (
	"net/url"
	"reflect"
	"sync"
	"testing"

	"github.com/rebeliceyang/lazytable/internal/models"
	"github.com/rebeliceyang/lazytable/internal/urlstate"
)

func TestSnapshotIsCopy(t *testing.T) {
	table := New(models.NewTableQueryState())
	table.SetColumnOrder([]string{"a", "b"})

	snap := table.Snapshot()
	snap.ColumnOrder[0] = "z"

	if table.Snapshot().ColumnOrder[0] != "a" {
		t.Error("expected snapshot mutation not to leak into the table")
	}
}

func TestSetFiltersResetsPage(t *testing.T) {
	table := New(models.NewTableQueryState())
	table.SetPagination(models.Pagination{PageIndex: 4, PageSize: 10})
	table.SetFilters([]models.ColumnFilter{{ID: "title", Operator: models.OpILike, Value: models.String("x"), Variant: models.VariantText}})

	snap := table.Snapshot()
	if snap.Pagination.PageIndex != 0 {
		t.Errorf("expected page index 0, got %d", snap.Pagination.PageIndex)
	}
	if snap.Pagination.PageSize != 10 {
		t.Errorf("expected page size 10, got %d", snap.Pagination.PageSize)
	}
}

func TestReplaceClearsSelection(t *testing.T) {
	table := New(models.NewTableQueryState())
	table.Select("1", "2")

	next := models.NewTableQueryState()
	next.Sorting = []models.SortSpec{{ID: "title", Desc: true}}
	table.Replace(next)

	if len(table.Selection()) != 0 {
		t.Errorf("expected empty selection, got %v", table.Selection())
	}
	if !reflect.DeepEqual(table.Snapshot().Sorting, next.Sorting) {
		t.Errorf("expected sorting %+v, got %+v", next.Sorting, table.Snapshot().Sorting)
	}
}

func TestReset(t *testing.T) {
	table := New(models.NewTableQueryState())
	table.SetSorting([]models.SortSpec{{ID: "title"}})
	table.SetColumnVisibility("id", false)
	table.SetPagination(models.Pagination{PageIndex: 2, PageSize: 25})
	table.Select("9")

	if !table.CanSave() {
		t.Fatal("expected modified state to be saveable")
	}

	table.Reset()
	snap := table.Snapshot()
	if snap.CanSave() {
		t.Errorf("expected reset state not to be saveable, got %+v", snap)
	}
	if snap.Pagination != (models.Pagination{PageIndex: 0, PageSize: 25}) {
		t.Errorf("unexpected pagination %+v", snap.Pagination)
	}
	if len(table.Selection()) != 0 {
		t.Error("expected reset to clear the selection")
	}
}

func TestMirrorWritesURL(t *testing.T) {
	values := url.Values{}
	values.Set("tab", "all")

	table := New(models.NewTableQueryState())
	table.SetMirror(func(s models.TableQueryState) { urlstate.Write(values, s) })
	table.SetSorting([]models.SortSpec{{ID: "title", Desc: true}})

	if values.Get(urlstate.ParamSort) != "title:desc" {
		t.Errorf("expected mirrored sort, got '%s'", values.Get(urlstate.ParamSort))
	}
	if values.Get("tab") != "all" {
		t.Error("expected foreign key to survive mirroring")
	}
}

func TestConcurrentReplaceIsAtomic(t *testing.T) {
	a := models.NewTableQueryState()
	a.Sorting = []models.SortSpec{{ID: "a"}}
	a.ColumnOrder = []string{"a"}
	b := models.NewTableQueryState()
	b.Sorting = []models.SortSpec{{ID: "b"}}
	b.ColumnOrder = []string{"b"}

	table := New(a)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			table.Replace(b)
			table.Replace(a)
		}()
		go func() {
			defer wg.Done()
			snap := table.Snapshot()
			if snap.Sorting[0].ID != snap.ColumnOrder[0] {
				t.Errorf("observed mixed state %+v", snap)
			}
		}()
	}
	wg.Wait()
}
