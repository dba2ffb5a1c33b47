package filter

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cast"

	"github.com/rebeliceyang/lazytable/internal/models"
)

// operand converts a filter value into the shape its variant compares with.
// Lists are converted item by item.
func (e *Evaluator) operand(v models.FilterValue, variant models.FilterVariant) any {
	switch v.Kind {
	case models.KindList:
		out := make([]any, len(v.List))
		for i, item := range v.List {
			out[i] = e.coerceItem(item, variant)
		}
		return out
	case models.KindRelative:
		return e.coerceItem(v.Relative, variant)
	case models.KindScalar:
		return e.coerceItem(v.Scalar, variant)
	}
	return nil
}

func (e *Evaluator) coerceItem(item any, variant models.FilterVariant) any {
	switch variant {
	case models.VariantNumber, models.VariantRange:
		return coerceNumber(item)
	case models.VariantDate, models.VariantDateRange:
		return e.coerceDate(item)
	case models.VariantBoolean:
		return coerceBoolean(item)
	case models.VariantText, models.VariantSelect, models.VariantMultiSelect:
		return item
	}
	return item
}

// coerceNumber parses numeric strings; anything else is left alone
func coerceNumber(item any) any {
	s, ok := item.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return item
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f
	}
	return item
}

// coerceDate resolves relative dates against now and parses date strings
func (e *Evaluator) coerceDate(item any) any {
	switch x := item.(type) {
	case models.RelativeDateValue:
		return ResolveRelativeDate(x, e.now())
	case string:
		if t, ok := e.parseDate(x); ok {
			return t
		}
	case time.Time:
		return x
	}
	return item
}

// coerceBoolean maps the strings "true" and "false" to booleans
func coerceBoolean(item any) any {
	if s, ok := item.(string); ok {
		switch s {
		case "true":
			return true
		case "false":
			return false
		}
	}
	return item
}

// cellOperand normalises a raw cell so it compares against coerced operands:
// numeric kinds become float64, and on date variants strings become instants.
func (e *Evaluator) cellOperand(cell any, variant models.FilterVariant) any {
	if f, ok := toNumber(cell); ok {
		return f
	}
	switch x := cell.(type) {
	case []byte:
		cell = string(x)
	case *time.Time:
		if x == nil {
			return nil
		}
		cell = *x
	}
	if variant.IsDate() {
		if s, ok := cell.(string); ok {
			if t, ok := e.parseDate(s); ok {
				return t
			}
		}
	}
	return cell
}

func (e *Evaluator) parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, e.location())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// toNumber reports the float64 form of Go numeric kinds. Strings are never
// numbers here; variant coercion decides whether to parse them.
func toNumber(v any) (float64, bool) {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		f, err := cast.ToFloat64E(v)
		return f, err == nil
	}
	return 0, false
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []byte:
		return len(x) == 0
	case *time.Time:
		return x == nil
	}
	return false
}
