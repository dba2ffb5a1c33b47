package filter

import (
	"github.com/rebeliceyang/lazytable/internal/models"
)

// OperatorOption pairs an operator with its display label
type OperatorOption struct {
	Label    string                `json:"label"`
	Operator models.FilterOperator `json:"value"`
}

var (
	textOperators = []OperatorOption{
		{"Contains", models.OpILike},
		{"Does not contain", models.OpNotILike},
		{"Is", models.OpEqual},
		{"Is not", models.OpNotEqual},
		{"Is empty", models.OpIsEmpty},
		{"Is not empty", models.OpIsNotEmpty},
	}
	numericOperators = []OperatorOption{
		{"Is", models.OpEqual},
		{"Is not", models.OpNotEqual},
		{"Is less than", models.OpLessThan},
		{"Is greater than", models.OpGreater},
		{"Is between", models.OpIsBetween},
		{"Is empty", models.OpIsEmpty},
		{"Is not empty", models.OpIsNotEmpty},
	}
	dateOperators = []OperatorOption{
		{"Is", models.OpEqual},
		{"Is not", models.OpNotEqual},
		{"Is before", models.OpLessThan},
		{"Is after", models.OpGreater},
		{"Is between", models.OpIsBetween},
		{"Is empty", models.OpIsEmpty},
		{"Is not empty", models.OpIsNotEmpty},
	}
	selectOperators = []OperatorOption{
		{"Is", models.OpEqual},
		{"Is not", models.OpNotEqual},
		{"Is empty", models.OpIsEmpty},
		{"Is not empty", models.OpIsNotEmpty},
	}
	multiSelectOperators = []OperatorOption{
		{"Has any of", models.OpInArray},
		{"Has none of", models.OpNotInArray},
		{"Is empty", models.OpIsEmpty},
		{"Is not empty", models.OpIsNotEmpty},
	}
	booleanOperators = []OperatorOption{
		{"Is", models.OpEqual},
		{"Is not", models.OpNotEqual},
	}

	// searched in this order when the variant is unknown
	allOperatorLists = [][]OperatorOption{
		textOperators,
		numericOperators,
		dateOperators,
		selectOperators,
		multiSelectOperators,
		booleanOperators,
	}
)

// Variants returns every filter variant
func Variants() []models.FilterVariant {
	return []models.FilterVariant{
		models.VariantText, models.VariantNumber, models.VariantRange,
		models.VariantDate, models.VariantDateRange, models.VariantBoolean,
		models.VariantSelect, models.VariantMultiSelect,
	}
}

// Operators returns every filter operator
func Operators() []models.FilterOperator {
	return []models.FilterOperator{
		models.OpILike, models.OpNotILike, models.OpEqual, models.OpNotEqual,
		models.OpInArray, models.OpNotInArray, models.OpIsEmpty, models.OpIsNotEmpty,
		models.OpLessThan, models.OpGreater, models.OpIsBetween,
	}
}

// OperatorsFor returns the operators allowed for a variant, in display order.
// Unknown variants get nil.
func OperatorsFor(variant models.FilterVariant) []OperatorOption {
	var list []OperatorOption
	switch variant {
	case models.VariantText:
		list = textOperators
	case models.VariantNumber, models.VariantRange:
		list = numericOperators
	case models.VariantDate, models.VariantDateRange:
		list = dateOperators
	case models.VariantSelect:
		list = selectOperators
	case models.VariantMultiSelect:
		list = multiSelectOperators
	case models.VariantBoolean:
		list = booleanOperators
	default:
		return nil
	}
	return append([]OperatorOption(nil), list...)
}

// DefaultOperator returns the first operator registered for a variant
func DefaultOperator(variant models.FilterVariant) models.FilterOperator {
	list := OperatorsFor(variant)
	if len(list) == 0 {
		return models.OpEqual
	}
	return list[0].Operator
}

// IsValidOperator reports whether op is registered for variant
func IsValidOperator(variant models.FilterVariant, op models.FilterOperator) bool {
	for _, opt := range OperatorsFor(variant) {
		if opt.Operator == op {
			return true
		}
	}
	return false
}

// LabelFor returns the display label of an operator. The variant's own list
// wins; otherwise the first list that knows the operator is used, and as a
// last resort the raw token is echoed back.
func LabelFor(op models.FilterOperator, variant models.FilterVariant) string {
	for _, opt := range OperatorsFor(variant) {
		if opt.Operator == op {
			return opt.Label
		}
	}
	for _, list := range allOperatorLists {
		for _, opt := range list {
			if opt.Operator == op {
				return opt.Label
			}
		}
	}
	return string(op)
}
