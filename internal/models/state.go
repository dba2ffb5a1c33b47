package models

import "time"

// DefaultPageSize is the page size assumed when none is given
const DefaultPageSize = 50

// SortSpec is one sort key; the first entry in a list is the primary key
type SortSpec struct {
	ID   string `json:"id" yaml:"id"`
	Desc bool   `json:"desc" yaml:"desc"`
}

// Pagination selects one page of rows
type Pagination struct {
	PageIndex int `json:"pageIndex" yaml:"page_index"`
	PageSize  int `json:"pageSize" yaml:"page_size"`
}

// TableQueryState is the complete configuration of a table:
// filtering, sorting, pagination, visibility and column order.
type TableQueryState struct {
	Pagination       Pagination      `json:"pagination" yaml:"pagination"`
	Sorting          []SortSpec      `json:"sorting" yaml:"sorting"`
	Filters          []ColumnFilter  `json:"columnFilters" yaml:"column_filters"`
	ColumnVisibility map[string]bool `json:"columnVisibility" yaml:"column_visibility"`
	ColumnOrder      []string        `json:"columnOrder" yaml:"column_order"`
}

// NewTableQueryState returns the default state: first page, nothing filtered
func NewTableQueryState() TableQueryState {
	return TableQueryState{
		Pagination:       Pagination{PageIndex: 0, PageSize: DefaultPageSize},
		Sorting:          []SortSpec{},
		Filters:          []ColumnFilter{},
		ColumnVisibility: map[string]bool{},
		ColumnOrder:      []string{},
	}
}

// Clone returns a deep copy so callers can't alias slices or maps
func (s TableQueryState) Clone() TableQueryState {
	out := TableQueryState{
		Pagination:       s.Pagination,
		Sorting:          append([]SortSpec{}, s.Sorting...),
		Filters:          make([]ColumnFilter, len(s.Filters)),
		ColumnVisibility: make(map[string]bool, len(s.ColumnVisibility)),
		ColumnOrder:      append([]string{}, s.ColumnOrder...),
	}
	for i, f := range s.Filters {
		if f.Value.Kind == KindList {
			f.Value.List = append([]any{}, f.Value.List...)
		}
		out.Filters[i] = f
	}
	for k, v := range s.ColumnVisibility {
		out.ColumnVisibility[k] = v
	}
	return out
}

// HiddenColumns returns the ids explicitly marked not visible
func (s TableQueryState) HiddenColumns() []string {
	var hidden []string
	for id, visible := range s.ColumnVisibility {
		if !visible {
			hidden = append(hidden, id)
		}
	}
	return hidden
}

// IsVisible reports whether a column is shown; absent means visible
func (s TableQueryState) IsVisible(columnID string) bool {
	visible, ok := s.ColumnVisibility[columnID]
	return !ok || visible
}

// CanSave reports whether the state differs from a plain table enough to be
// worth saving as a view
func (s TableQueryState) CanSave() bool {
	return len(s.Filters) > 0 || len(s.Sorting) > 0 || len(s.ColumnVisibility) > 0 || len(s.ColumnOrder) > 0
}

// SavedView is a named snapshot of a table's query state
type SavedView struct {
	ID          string          `json:"id" yaml:"id"`
	TableKey    string          `json:"tableKey" yaml:"table_key"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	State       TableQueryState `json:"state" yaml:"state"`
	CreatedAt   time.Time       `json:"createdAt" yaml:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" yaml:"updated_at"`
}

// Row is one record keyed by column id
type Row map[string]any

// ActionResult is the envelope returned by CRUD and saved-view actions
type ActionResult[T any] struct {
	Success      bool   `json:"success"`
	Data         T      `json:"data,omitempty"`
	DeletedCount int    `json:"deletedCount,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Ok wraps data in a successful result
func Ok[T any](data T) ActionResult[T] {
	return ActionResult[T]{Success: true, Data: data}
}

// Fail wraps an error message in a failed result
func Fail[T any](msg string) ActionResult[T] {
	return ActionResult[T]{Success: false, Error: msg}
}
