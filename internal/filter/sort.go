package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rebeliceyang/lazytable/internal/models"
)

// SortRows orders rows in place by the sort keys, first key first.
// The sort is stable, so later keys only break ties of earlier ones.
func SortRows(rows []models.Row, sorting []models.SortSpec) {
	if len(sorting) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range sorting {
			c := compareCells(rows[i][key.ID], rows[j][key.ID])
			if key.Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// compareCells orders nil first, then numbers, instants and bools by value,
// and falls back to the string form for mixed or other types
func compareCells(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		}
		return 1
	}

	if x, ok := toNumber(a); ok {
		if y, ok := toNumber(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}

	switch x := a.(type) {
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
