package urlstate

import (
	"net/url"
	"reflect"
	"testing"

	"github.com/rebeliceyang/lazytable/internal/models"
)

func sampleState() models.TableQueryState {
	state := models.NewTableQueryState()
	state.Pagination = models.Pagination{PageIndex: 2, PageSize: 20}
	state.Sorting = []models.SortSpec{{ID: "title"}, {ID: "created_at", Desc: true}}
	state.Filters = []models.ColumnFilter{
		{ID: "title", Operator: models.OpILike, Value: models.String("go & rust"), Variant: models.VariantText, FilterID: "f1"},
		{ID: "status", Operator: models.OpInArray, Value: models.Strings("todo", "done"), Variant: models.VariantMultiSelect},
		{ID: "created_at", Operator: models.OpGreater, Value: models.Relative(7, models.UnitDays, models.DirectionAgo), Variant: models.VariantDate},
	}
	state.ColumnVisibility = map[string]bool{"description": false}
	state.ColumnOrder = []string{"status", "title"}
	return state
}

func TestSerialize_DefaultsOmitted(t *testing.T) {
	params := Serialize(models.NewTableQueryState())
	if len(params) != 0 {
		t.Errorf("expected no params for default state, got %v", params)
	}
}

func TestSerialize_Keys(t *testing.T) {
	params := Serialize(sampleState())

	if params[ParamPage] != "3" {
		t.Errorf("expected page '3', got '%s'", params[ParamPage])
	}
	if params[ParamPageSize] != "20" {
		t.Errorf("expected pageSize '20', got '%s'", params[ParamPageSize])
	}
	if params[ParamSort] != "title:asc,created_at:desc" {
		t.Errorf("unexpected sort '%s'", params[ParamSort])
	}
	if params[ParamOrder] != "status,title" {
		t.Errorf("unexpected order '%s'", params[ParamOrder])
	}
	if params[ParamVisibility] != "%7B%22description%22%3Afalse%7D" {
		t.Errorf("unexpected visibility '%s'", params[ParamVisibility])
	}
}

func TestSerialize_OnlyHiddenColumns(t *testing.T) {
	state := models.NewTableQueryState()
	state.ColumnVisibility = map[string]bool{"a": true, "b": true}
	if _, ok := Serialize(state)[ParamVisibility]; ok {
		t.Error("expected no visibility param when nothing is hidden")
	}
}

func TestRoundTrip(t *testing.T) {
	state := sampleState()
	got := Deserialize(Serialize(state))

	if got.Pagination != state.Pagination {
		t.Errorf("expected pagination %+v, got %+v", state.Pagination, got.Pagination)
	}
	if !reflect.DeepEqual(got.Sorting, state.Sorting) {
		t.Errorf("expected sorting %+v, got %+v", state.Sorting, got.Sorting)
	}
	if !reflect.DeepEqual(got.Filters, state.Filters) {
		t.Errorf("expected filters %+v, got %+v", state.Filters, got.Filters)
	}
	if !reflect.DeepEqual(got.ColumnVisibility, state.ColumnVisibility) {
		t.Errorf("expected visibility %v, got %v", state.ColumnVisibility, got.ColumnVisibility)
	}
	if !reflect.DeepEqual(got.ColumnOrder, state.ColumnOrder) {
		t.Errorf("expected order %v, got %v", state.ColumnOrder, got.ColumnOrder)
	}
}

func TestIdempotent(t *testing.T) {
	first := Serialize(sampleState())
	second := Serialize(Deserialize(first))
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected %v, got %v", first, second)
	}
}

func TestDeserialize_Defaults(t *testing.T) {
	state := Deserialize(map[string]string{})

	if state.Pagination.PageIndex != 0 || state.Pagination.PageSize != models.DefaultPageSize {
		t.Errorf("unexpected pagination %+v", state.Pagination)
	}
	if len(state.Sorting) != 0 || len(state.Filters) != 0 || len(state.ColumnVisibility) != 0 || len(state.ColumnOrder) != 0 {
		t.Errorf("expected empty state, got %+v", state)
	}
}

func TestDeserialize_Malformed(t *testing.T) {
	state := Deserialize(map[string]string{
		ParamPage:       "-4",
		ParamPageSize:   "lots",
		ParamSort:       "title:asc,:desc",
		ParamFilters:    "%7Bnot-json",
		ParamVisibility: "%ZZ",
		ParamOrder:      "a,,b",
	})

	if state.Pagination.PageIndex != 0 {
		t.Errorf("expected page index clamped to 0, got %d", state.Pagination.PageIndex)
	}
	if state.Pagination.PageSize != models.DefaultPageSize {
		t.Errorf("expected default page size, got %d", state.Pagination.PageSize)
	}
	if len(state.Sorting) != 0 {
		t.Errorf("expected empty sorting, got %+v", state.Sorting)
	}
	if len(state.Filters) != 0 {
		t.Errorf("expected empty filters, got %+v", state.Filters)
	}
	if len(state.ColumnVisibility) != 0 {
		t.Errorf("expected empty visibility, got %v", state.ColumnVisibility)
	}
	if !reflect.DeepEqual(state.ColumnOrder, []string{"a", "b"}) {
		t.Errorf("expected [a b], got %v", state.ColumnOrder)
	}
}

func TestDeserialize_PageSizeClamped(t *testing.T) {
	state := Deserialize(map[string]string{ParamPageSize: "0"})
	if state.Pagination.PageSize != 1 {
		t.Errorf("expected page size 1, got %d", state.Pagination.PageSize)
	}
}

func TestDeserialize_SortWithoutDirection(t *testing.T) {
	state := Deserialize(map[string]string{ParamSort: "title"})
	if !reflect.DeepEqual(state.Sorting, []models.SortSpec{{ID: "title"}}) {
		t.Errorf("unexpected sorting %+v", state.Sorting)
	}
}

func TestWrite_PreservesOtherKeys(t *testing.T) {
	values := url.Values{}
	values.Set("tab", "archive")
	values.Set(ParamPage, "9")
	values.Set(ParamSort, "old:desc")

	state := models.NewTableQueryState()
	state.Sorting = []models.SortSpec{{ID: "title"}}
	Write(values, state)

	if values.Get("tab") != "archive" {
		t.Error("expected foreign key to be preserved")
	}
	if values.Has(ParamPage) {
		t.Error("expected default page to be removed")
	}
	if values.Get(ParamSort) != "title:asc" {
		t.Errorf("expected sort 'title:asc', got '%s'", values.Get(ParamSort))
	}
}

func TestFromValues_ThroughQueryString(t *testing.T) {
	values := url.Values{}
	Write(values, sampleState())

	parsed, err := url.ParseQuery(values.Encode())
	if err != nil {
		t.Fatalf("ParseQuery failed: %v", err)
	}
	got := FromValues(parsed)
	if !reflect.DeepEqual(got.Filters, sampleState().Filters) {
		t.Errorf("expected filters to survive a query string, got %+v", got.Filters)
	}
}

func TestEncodeComponent(t *testing.T) {
	tests := map[string]string{
		"a b":      "a%20b",
		"a+b":      "a%2Bb",
		"(it's)!*": "(it's)!*",
		`{"x":1}`:  "%7B%22x%22%3A1%7D",
	}
	for in, want := range tests {
		if got := EncodeComponent(in); got != want {
			t.Errorf("EncodeComponent(%q): expected %q, got %q", in, want, got)
		}
	}
}
