package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rebeliceyang/lazytable/internal/models"
)

// FormatValue renders a filter value for display
func FormatValue(v models.FilterValue) string {
	switch v.Kind {
	case models.KindScalar:
		return formatScalar(v.Scalar)
	case models.KindRelative:
		return FormatRelative(v.Relative)
	case models.KindList:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			if rel, ok := item.(models.RelativeDateValue); ok {
				parts[i] = FormatRelative(rel)
				continue
			}
			parts[i] = formatScalar(item)
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// FormatRelative renders a relative date, e.g. "3 days ago" or "in 1 week"
func FormatRelative(r models.RelativeDateValue) string {
	if r.Amount == 0 {
		return "today"
	}
	unit := strings.TrimSuffix(string(r.Unit), "s")
	if r.Amount != 1 {
		unit += "s"
	}
	if r.Direction == models.DirectionAgo {
		return fmt.Sprintf("%d %s ago", r.Amount, unit)
	}
	return fmt.Sprintf("in %d %s", r.Amount, unit)
}

// Describe renders a filter as a short phrase, e.g. `title contains "go"`
func Describe(f models.ColumnFilter) string {
	label := strings.ToLower(LabelFor(f.Operator, f.Variant))
	column := ColumnLabel(f.ID)

	switch f.Operator {
	case models.OpIsEmpty, models.OpIsNotEmpty:
		return column + " " + label
	case models.OpIsBetween:
		if f.Value.Kind == models.KindList && len(f.Value.List) == 2 {
			lo := FormatValue(models.FilterValue{Kind: models.KindList, List: f.Value.List[:1]})
			hi := FormatValue(models.FilterValue{Kind: models.KindList, List: f.Value.List[1:]})
			return fmt.Sprintf("%s %s %s and %s", column, label, lo, hi)
		}
	}
	if f.Variant == models.VariantText {
		return fmt.Sprintf("%s %s %q", column, label, FormatValue(f.Value))
	}
	return fmt.Sprintf("%s %s %s", column, label, FormatValue(f.Value))
}

// ColumnLabel turns a column id such as "created_at" into "created at"
func ColumnLabel(id string) string {
	return strings.ReplaceAll(strings.ReplaceAll(id, "_", " "), "-", " ")
}

func formatScalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}
