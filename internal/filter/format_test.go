package filter

import (
	"testing"

	"github.com/rebeliceyang/lazytable/internal/models"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		value models.FilterValue
		want  string
	}{
		{models.String("react"), "react"},
		{models.Number(2.5), "2.5"},
		{models.Number(10), "10"},
		{models.Bool(true), "true"},
		{models.Strings("todo", "done"), "todo, done"},
		{models.Relative(0, models.UnitDays, models.DirectionAgo), "today"},
		{models.Relative(1, models.UnitWeeks, models.DirectionFromNow), "in 1 week"},
		{models.Relative(3, models.UnitMonths, models.DirectionAgo), "3 months ago"},
		{models.FilterValue{}, ""},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.value); got != tt.want {
			t.Errorf("expected '%s', got '%s'", tt.want, got)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		filter models.ColumnFilter
		want   string
	}{
		{
			models.ColumnFilter{ID: "title", Operator: models.OpILike, Value: models.String("react"), Variant: models.VariantText},
			`title contains "react"`,
		},
		{
			models.ColumnFilter{ID: "created_at", Operator: models.OpIsBetween, Value: models.Strings("2024-01-16", "2024-01-17"), Variant: models.VariantDate},
			"created at is between 2024-01-16 and 2024-01-17",
		},
		{
			models.ColumnFilter{ID: "description", Operator: models.OpIsEmpty, Variant: models.VariantText},
			"description is empty",
		},
		{
			models.ColumnFilter{ID: "status", Operator: models.OpInArray, Value: models.Strings("todo", "done"), Variant: models.VariantMultiSelect},
			"status has any of todo, done",
		},
	}
	for _, tt := range tests {
		if got := Describe(tt.filter); got != tt.want {
			t.Errorf("expected '%s', got '%s'", tt.want, got)
		}
	}
}
