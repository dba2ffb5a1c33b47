package filter

import (
	"testing"

	"github.com/rebeliceyang/lazytable/internal/models"
)

func TestOperatorsFor_EveryVariant(t *testing.T) {
	for _, v := range Variants() {
		if len(OperatorsFor(v)) == 0 {
			t.Errorf("expected operators for variant %s", v)
		}
	}
	if OperatorsFor("color") != nil {
		t.Error("expected nil for unknown variant")
	}
}

func TestOperatorsFor_ReturnsCopy(t *testing.T) {
	ops := OperatorsFor(models.VariantText)
	ops[0].Label = "changed"

	if OperatorsFor(models.VariantText)[0].Label != "Contains" {
		t.Error("expected registry to be unaffected by caller mutation")
	}
}

func TestDefaultOperator(t *testing.T) {
	tests := map[models.FilterVariant]models.FilterOperator{
		models.VariantText:        models.OpILike,
		models.VariantNumber:      models.OpEqual,
		models.VariantDate:        models.OpEqual,
		models.VariantMultiSelect: models.OpInArray,
		models.VariantBoolean:     models.OpEqual,
		"unknown":                 models.OpEqual,
	}
	for variant, want := range tests {
		if got := DefaultOperator(variant); got != want {
			t.Errorf("%s: expected %s, got %s", variant, want, got)
		}
	}
}

func TestIsValidOperator(t *testing.T) {
	if !IsValidOperator(models.VariantDate, models.OpIsBetween) {
		t.Error("expected isBetween to be valid for dates")
	}
	if IsValidOperator(models.VariantText, models.OpIsBetween) {
		t.Error("expected isBetween to be invalid for text")
	}
	if IsValidOperator(models.VariantBoolean, models.OpIsEmpty) {
		t.Error("expected isEmpty to be invalid for booleans")
	}
}

func TestLabelFor(t *testing.T) {
	if got := LabelFor(models.OpLessThan, models.VariantDate); got != "Is before" {
		t.Errorf("expected 'Is before', got '%s'", got)
	}
	if got := LabelFor(models.OpLessThan, models.VariantNumber); got != "Is less than" {
		t.Errorf("expected 'Is less than', got '%s'", got)
	}
	// not registered for text, found in another list
	if got := LabelFor(models.OpInArray, models.VariantText); got != "Has any of" {
		t.Errorf("expected 'Has any of', got '%s'", got)
	}
	if got := LabelFor("fuzzy", models.VariantText); got != "fuzzy" {
		t.Errorf("expected raw token, got '%s'", got)
	}
}
