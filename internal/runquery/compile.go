package runquery

import (
	"fmt"
	"strings"
)

// Compile validates q and converts it to a WHERE/ORDER BY/LIMIT suffix for
// a SELECT over the runs table, plus its parameters.
//
// The suffix always contains ORDER BY seq ASC. Values are never
// interpolated; every literal is a ? placeholder.
func Compile(q Query) (string, []any, error) {
	if err := Validate(q); err != nil {
		return "", nil, fmt.Errorf("invalid run query: %w", err)
	}

	var sb strings.Builder
	var params []any
	if q.Filter != nil {
		where, whereParams, err := compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
		params = whereParams
	}

	sb.WriteString(" ORDER BY seq ASC")
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}
	return sb.String(), params, nil
}

func compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case Equals:
		return compileEquals(pred)
	case *Equals:
		return compileEquals(*pred)
	case AtLeast:
		return compileAtLeast(pred)
	case *AtLeast:
		return compileAtLeast(*pred)
	case And:
		return compileAnd(pred)
	case *And:
		return compileAnd(*pred)
	case nil:
		return "1 = 1", nil, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(eq Equals) (string, []any, error) {
	if columns[eq.Column] == Text {
		// Text comparisons are byte-wise regardless of the connection collation
		return eq.Column + " = ? COLLATE BINARY", []any{eq.Value}, nil
	}
	return eq.Column + " = ?", []any{eq.Value}, nil
}

func compileAtLeast(al AtLeast) (string, []any, error) {
	return al.Column + " >= ?", []any{al.Value}, nil
}

func compileAnd(and And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		// Nested conjunctions keep their grouping
		if _, nested := pred.(And); nested {
			sql = "(" + sql + ")"
		} else if _, nested := pred.(*And); nested {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}
	return strings.Join(parts, " AND "), params, nil
}
