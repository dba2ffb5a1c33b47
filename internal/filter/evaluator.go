package filter

import (
	"strings"
	"time"

	"github.com/rebeliceyang/lazytable/internal/models"
)

// Evaluator decides whether rows match column filters.
// Relative dates are resolved against Now on every call, and calendar-day
// comparisons happen in Location.
type Evaluator struct {
	Now      func() time.Time
	Location *time.Location
}

// NewEvaluator returns an evaluator using the wall clock and UTC days
func NewEvaluator() *Evaluator {
	return &Evaluator{Now: time.Now, Location: time.UTC}
}

var defaultEvaluator = NewEvaluator()

// Matches applies a filter to a row with the default evaluator
func Matches(row models.Row, f models.ColumnFilter) bool {
	return defaultEvaluator.Matches(row, f)
}

// MatchesAll reports whether the row passes every filter
func (e *Evaluator) MatchesAll(row models.Row, filters []models.ColumnFilter) bool {
	for _, f := range filters {
		if !e.Matches(row, f) {
			return false
		}
	}
	return true
}

// Matches reports whether one row passes one filter. Partially specified
// filters and unknown operators never block a row.
func (e *Evaluator) Matches(row models.Row, f models.ColumnFilter) bool {
	cell := row[f.ID]

	switch f.Operator {
	case models.OpIsEmpty:
		return isBlank(cell)
	case models.OpIsNotEmpty:
		return !isBlank(cell)
	}

	if f.Value.IsEmpty() {
		return true
	}

	compare := e.operand(f.Value, f.Variant)
	cellValue := e.cellOperand(cell, f.Variant)

	switch f.Operator {
	case models.OpEqual:
		return e.equal(cellValue, compare, f.Variant)
	case models.OpNotEqual:
		return !e.equal(cellValue, compare, f.Variant)
	case models.OpILike:
		a, aok := cellValue.(string)
		b, bok := compare.(string)
		if !aok || !bok {
			return false
		}
		return strings.Contains(strings.ToLower(a), strings.ToLower(b))
	case models.OpNotILike:
		a, aok := cellValue.(string)
		b, bok := compare.(string)
		if !aok || !bok {
			return true
		}
		return !strings.Contains(strings.ToLower(a), strings.ToLower(b))
	case models.OpLessThan:
		c, ok := order(cellValue, compare)
		return ok && c < 0
	case models.OpGreater:
		c, ok := order(cellValue, compare)
		return ok && c > 0
	case models.OpInArray:
		list, ok := compare.([]any)
		if !ok {
			return false
		}
		return member(cellValue, list)
	case models.OpNotInArray:
		list, ok := compare.([]any)
		if !ok {
			return true
		}
		return !member(cellValue, list)
	case models.OpIsBetween:
		return e.between(cellValue, compare, f.Variant)
	}
	return true
}

// equal compares dates by calendar day and everything else by value
func (e *Evaluator) equal(a, b any, variant models.FilterVariant) bool {
	if variant.IsDate() {
		at, aok := a.(time.Time)
		bt, bok := b.(time.Time)
		if aok && bok {
			return e.sameDay(at, bt)
		}
	}
	return valueEqual(a, b)
}

// between checks min <= cell <= max, inclusive. Dates compare by calendar
// day. Bad arity, unparsable bounds or a non-comparable cell match.
func (e *Evaluator) between(cell, compare any, variant models.FilterVariant) bool {
	bounds, ok := compare.([]any)
	if !ok || len(bounds) != 2 {
		return true
	}

	if variant.IsDate() {
		c, cok := cell.(time.Time)
		lo, lok := bounds[0].(time.Time)
		hi, hok := bounds[1].(time.Time)
		if !cok || !lok || !hok {
			return true
		}
		day := e.startOfDay(c)
		return !day.Before(e.startOfDay(lo)) && !day.After(e.startOfDay(hi))
	}

	c, cok := cell.(float64)
	lo, lok := coerceNumber(bounds[0]).(float64)
	hi, hok := coerceNumber(bounds[1]).(float64)
	if !cok || !lok || !hok {
		return true
	}
	return c >= lo && c <= hi
}

func (e *Evaluator) sameDay(a, b time.Time) bool {
	return e.startOfDay(a).Equal(e.startOfDay(b))
}

func (e *Evaluator) startOfDay(t time.Time) time.Time {
	y, m, d := t.In(e.location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.location())
}

func (e *Evaluator) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Evaluator) location() *time.Location {
	if e.Location == nil {
		return time.UTC
	}
	return e.Location
}

// order compares two numbers or two instants; ok is false otherwise
func order(a, b any) (int, bool) {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	}
	return 0, false
}

// valueEqual is strict equality: both sides must have the same type
func valueEqual(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}
	return false
}

// member reports whether cell is one of list. A list cell (multi-valued
// column) is a member when any of its items is.
func member(cell any, list []any) bool {
	switch x := cell.(type) {
	case []any:
		for _, item := range x {
			if member(normaliseItem(item), list) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range x {
			if member(item, list) {
				return true
			}
		}
		return false
	}
	for _, item := range list {
		if valueEqual(cell, item) {
			return true
		}
	}
	return false
}

func normaliseItem(item any) any {
	if f, ok := toNumber(item); ok {
		return f
	}
	return item
}
