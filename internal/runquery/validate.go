package runquery

import (
	"errors"
	"fmt"
)

// Validate checks that every predicate references a known column with a
// value of the right kind. All problems are reported, joined.
//
// Validate is a pure function with no side effects.
func Validate(q Query) error {
	v := &validator{}
	if q.Limit < 0 {
		v.addError("limit must be non-negative, got %d", q.Limit)
	}
	v.validatePredicate(q.Filter)
	return errors.Join(v.errs...)
}

// validator accumulates errors during traversal.
type validator struct {
	errs []error
}

func (v *validator) addError(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) validatePredicate(p Predicate) {
	if p == nil {
		return // no filter
	}

	switch pred := p.(type) {
	case Equals:
		v.validateEquals(pred)
	case *Equals:
		v.validateEquals(*pred)
	case AtLeast:
		v.validateAtLeast(pred)
	case *AtLeast:
		v.validateAtLeast(*pred)
	case And:
		v.validateAnd(pred)
	case *And:
		v.validateAnd(*pred)
	default:
		v.addError("unsupported predicate type: %T", p)
	}
}

func (v *validator) validateEquals(eq Equals) {
	kind, ok := columns[eq.Column]
	if !ok {
		v.addError("unknown column %q", eq.Column)
		return
	}
	switch eq.Value.(type) {
	case string:
		if kind != Text {
			v.addError("column %q is an integer, got string value", eq.Column)
		}
	case int, int64:
		if kind != Integer {
			v.addError("column %q is text, got integer value", eq.Column)
		}
	case nil:
		v.addError("column %q compared to nil", eq.Column)
	default:
		v.addError("column %q: unsupported value type %T", eq.Column, eq.Value)
	}
}

func (v *validator) validateAtLeast(al AtLeast) {
	kind, ok := columns[al.Column]
	if !ok {
		v.addError("unknown column %q", al.Column)
		return
	}
	if kind != Integer {
		v.addError("column %q is text and cannot be compared with >=", al.Column)
	}
}

func (v *validator) validateAnd(and And) {
	for _, sub := range and.Predicates {
		v.validatePredicate(sub)
	}
}
