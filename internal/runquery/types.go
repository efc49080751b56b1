package runquery

// Predicate is a filter condition on one archived run.
//
// Predicate types:
//   - Equals: column = value
//   - AtLeast: column >= value (integer columns only)
//   - And: all predicates must be true
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Query selects archived runs.
type Query struct {
	Filter Predicate // WHERE conditions (nil = every run)
	Limit  int       // maximum rows (0 = no limit)
}

// Equals matches runs whose column equals a literal value.
//
//	Equals{Column: "outcome", Value: "complete"}
//
// compiles to
//
//	outcome = ?
type Equals struct {
	Column string
	Value  any // string for text columns, int or int64 for integer columns
}

func (Equals) predicateNode() {}

// AtLeast matches runs whose integer column is at least Value.
type AtLeast struct {
	Column string
	Value  int64
}

func (AtLeast) predicateNode() {}

// And is a conjunction. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Kind is the storage class of a runs column.
type Kind int

const (
	Text Kind = iota
	Integer
)

// columns lists the runs columns a predicate may reference.
var columns = map[string]Kind{
	"id":                Text,
	"name":              Text,
	"outcome":           Text,
	"digest":            Text,
	"population_digest": Text,
	"halting_set":       Text,
	"engine_version":    Text,
	"seq":               Integer,
	"stages":            Integer,
	"halted":            Integer,
	"population_size":   Integer,
}

// Columns returns the filterable columns and their kinds.
func Columns() map[string]Kind {
	out := make(map[string]Kind, len(columns))
	for k, v := range columns {
		out[k] = v
	}
	return out
}

// Where builds the conjunction of preds, dropping nil entries. It returns
// nil when nothing is left, which matches every run.
func Where(preds ...Predicate) Predicate {
	kept := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}
