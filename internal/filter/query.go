package filter

import (
	"github.com/rebeliceyang/lazytable/internal/models"
)

// Page is one page of query results
type Page struct {
	Rows      []models.Row `json:"data"`
	Total     int          `json:"count"`
	PageCount int          `json:"pageCount"`
	PageIndex int          `json:"pageIndex"`
	PageSize  int          `json:"pageSize"`
}

// Run filters rows with every filter of the state (AND), sorts them and cuts
// out the requested page. The input slice is not modified.
func (e *Evaluator) Run(rows []models.Row, state models.TableQueryState) Page {
	matched := make([]models.Row, 0, len(rows))
	for _, row := range rows {
		if e.MatchesAll(row, state.Filters) {
			matched = append(matched, row)
		}
	}

	SortRows(matched, state.Sorting)

	size := state.Pagination.PageSize
	if size < 1 {
		size = models.DefaultPageSize
	}
	index := state.Pagination.PageIndex
	if index < 0 {
		index = 0
	}

	page := Page{
		Total:     len(matched),
		PageCount: (len(matched) + size - 1) / size,
		PageIndex: index,
		PageSize:  size,
		Rows:      []models.Row{},
	}

	start := index * size
	if start >= len(matched) {
		return page
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	page.Rows = matched[start:end]
	return page
}

// ResolveColumns returns the visible columns in display order: ids named in
// the column order come first, the rest follow in their original order, and
// hidden columns are dropped. Order entries naming unknown columns are ignored.
func ResolveColumns(all []string, state models.TableQueryState) []string {
	known := make(map[string]bool, len(all))
	for _, id := range all {
		known[id] = true
	}

	placed := make(map[string]bool, len(all))
	ordered := make([]string, 0, len(all))
	for _, id := range state.ColumnOrder {
		if known[id] && !placed[id] {
			ordered = append(ordered, id)
			placed[id] = true
		}
	}
	for _, id := range all {
		if !placed[id] {
			ordered = append(ordered, id)
			placed[id] = true
		}
	}

	visible := ordered[:0]
	for _, id := range ordered {
		if state.IsVisible(id) {
			visible = append(visible, id)
		}
	}
	return visible
}

// Project keeps only the given columns of each row
func Project(rows []models.Row, columns []string) []models.Row {
	out := make([]models.Row, len(rows))
	for i, row := range rows {
		projected := make(models.Row, len(columns))
		for _, id := range columns {
			if v, ok := row[id]; ok {
				projected[id] = v
			}
		}
		out[i] = projected
	}
	return out
}
