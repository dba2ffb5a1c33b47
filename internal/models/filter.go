package models

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FilterVariant is the semantic type of a column's filterable value
type FilterVariant string

const (
	VariantText        FilterVariant = "text"
	VariantNumber      FilterVariant = "number"
	VariantRange       FilterVariant = "range"
	VariantDate        FilterVariant = "date"
	VariantDateRange   FilterVariant = "dateRange"
	VariantBoolean     FilterVariant = "boolean"
	VariantSelect      FilterVariant = "select"
	VariantMultiSelect FilterVariant = "multiSelect"
)

// IsDate reports whether the variant holds calendar values
func (v FilterVariant) IsDate() bool {
	return v == VariantDate || v == VariantDateRange
}

// IsNumeric reports whether the variant holds numbers
func (v FilterVariant) IsNumeric() bool {
	return v == VariantNumber || v == VariantRange
}

// FilterOperator represents a filter comparison operator
type FilterOperator string

const (
	OpILike      FilterOperator = "iLike"
	OpNotILike   FilterOperator = "notILike"
	OpEqual      FilterOperator = "eq"
	OpNotEqual   FilterOperator = "ne"
	OpInArray    FilterOperator = "inArray"
	OpNotInArray FilterOperator = "notInArray"
	OpIsEmpty    FilterOperator = "isEmpty"
	OpIsNotEmpty FilterOperator = "isNotEmpty"
	OpLessThan   FilterOperator = "lt"
	OpGreater    FilterOperator = "gt"
	OpIsBetween  FilterOperator = "isBetween"
)

// DateUnit is the calendar unit of a relative date
type DateUnit string

const (
	UnitDays   DateUnit = "days"
	UnitWeeks  DateUnit = "weeks"
	UnitMonths DateUnit = "months"
	UnitYears  DateUnit = "years"
)

// DateDirection says whether a relative date points to the past or the future
type DateDirection string

const (
	DirectionAgo     DateDirection = "ago"
	DirectionFromNow DateDirection = "from_now"
)

const relativeType = "relative"

// RelativeDateValue is a moving target such as "3 days from now".
// It is resolved against the current instant every time it is used.
type RelativeDateValue struct {
	Amount    int           `json:"amount" yaml:"amount"`
	Unit      DateUnit      `json:"unit" yaml:"unit"`
	Direction DateDirection `json:"direction" yaml:"direction"`
}

// ValueKind tags the shape held by a FilterValue
type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindScalar
	KindList
	KindRelative
)

// FilterValue is the tagged union of everything a filter can compare against.
// Scalars are string, float64 or bool; list items are scalars or
// RelativeDateValue (relative range bounds).
type FilterValue struct {
	Kind     ValueKind
	Scalar   any
	List     []any
	Relative RelativeDateValue
}

// String builds a scalar string value
func String(s string) FilterValue {
	return FilterValue{Kind: KindScalar, Scalar: s}
}

// Number builds a scalar numeric value
func Number(f float64) FilterValue {
	return FilterValue{Kind: KindScalar, Scalar: f}
}

// Bool builds a scalar boolean value
func Bool(b bool) FilterValue {
	return FilterValue{Kind: KindScalar, Scalar: b}
}

// List builds a list value
func List(items ...any) FilterValue {
	return FilterValue{Kind: KindList, List: items}
}

// Strings builds a list value out of strings
func Strings(items ...string) FilterValue {
	list := make([]any, len(items))
	for i, item := range items {
		list[i] = item
	}
	return FilterValue{Kind: KindList, List: list}
}

// Relative builds a relative date value
func Relative(amount int, unit DateUnit, direction DateDirection) FilterValue {
	return FilterValue{Kind: KindRelative, Relative: RelativeDateValue{Amount: amount, Unit: unit, Direction: direction}}
}

// IsEmpty reports whether the value leaves its filter inactive
func (v FilterValue) IsEmpty() bool {
	switch v.Kind {
	case KindEmpty:
		return true
	case KindScalar:
		if v.Scalar == nil {
			return true
		}
		s, ok := v.Scalar.(string)
		return ok && s == ""
	}
	return false
}

// Raw returns the value in its plain wire shape
func (v FilterValue) Raw() any {
	switch v.Kind {
	case KindScalar:
		return v.Scalar
	case KindList:
		list := make([]any, len(v.List))
		for i, item := range v.List {
			if rel, ok := item.(RelativeDateValue); ok {
				list[i] = rel.raw()
				continue
			}
			list[i] = item
		}
		return list
	case KindRelative:
		return v.Relative.raw()
	}
	return nil
}

func (r RelativeDateValue) raw() map[string]any {
	return map[string]any{
		"type":      relativeType,
		"amount":    r.Amount,
		"unit":      string(r.Unit),
		"direction": string(r.Direction),
	}
}

// ValueFromAny converts a decoded JSON or YAML value into a FilterValue.
// Shapes that cannot be represented decode to an empty value.
func ValueFromAny(raw any) FilterValue {
	switch x := raw.(type) {
	case nil:
		return FilterValue{}
	case []any:
		list := make([]any, 0, len(x))
		for _, item := range x {
			if m, ok := item.(map[string]any); ok {
				if rel, ok := relativeFromMap(m); ok {
					list = append(list, rel)
					continue
				}
			}
			list = append(list, scalarFromAny(item))
		}
		return FilterValue{Kind: KindList, List: list}
	case []string:
		return Strings(x...)
	case map[string]any:
		if rel, ok := relativeFromMap(x); ok {
			return FilterValue{Kind: KindRelative, Relative: rel}
		}
		return FilterValue{}
	case RelativeDateValue:
		return FilterValue{Kind: KindRelative, Relative: x}
	}
	return FilterValue{Kind: KindScalar, Scalar: scalarFromAny(raw)}
}

func scalarFromAny(raw any) any {
	switch x := raw.(type) {
	case string, bool, float64, nil:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	}
	return fmt.Sprintf("%v", raw)
}

func relativeFromMap(m map[string]any) (RelativeDateValue, bool) {
	if t, _ := m["type"].(string); t != relativeType {
		return RelativeDateValue{}, false
	}

	var amount int
	switch a := m["amount"].(type) {
	case float64:
		amount = int(a)
	case int:
		amount = a
	case int64:
		amount = int(a)
	default:
		return RelativeDateValue{}, false
	}
	if amount < 0 {
		return RelativeDateValue{}, false
	}

	unit, _ := m["unit"].(string)
	switch DateUnit(unit) {
	case UnitDays, UnitWeeks, UnitMonths, UnitYears:
	default:
		return RelativeDateValue{}, false
	}

	direction, _ := m["direction"].(string)
	switch DateDirection(direction) {
	case DirectionAgo, DirectionFromNow:
	default:
		return RelativeDateValue{}, false
	}

	return RelativeDateValue{Amount: amount, Unit: DateUnit(unit), Direction: DateDirection(direction)}, true
}

func (v FilterValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Raw())
}

func (v *FilterValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = ValueFromAny(raw)
	return nil
}

func (v FilterValue) MarshalYAML() (interface{}, error) {
	return v.Raw(), nil
}

func (v *FilterValue) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*v = ValueFromAny(raw)
	return nil
}

// ColumnFilter is a single filter row applied to one column
type ColumnFilter struct {
	ID       string         `json:"id" yaml:"id"`
	Value    FilterValue    `json:"value" yaml:"value"`
	Variant  FilterVariant  `json:"variant" yaml:"variant"`
	Operator FilterOperator `json:"operator" yaml:"operator"`
	FilterID string         `json:"filterId,omitempty" yaml:"filter_id,omitempty"`
}
