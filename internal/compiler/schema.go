package compiler

import (
	_ "embed"

	"cuelang.org/go/cue"
)

//go:embed schema.cue
var schemaSrc string

// schemaPath selects the top-level definition every population file must satisfy.
var schemaPath = cue.ParsePath("#Population")

// applySchema unifies v with the population schema compiled in v's own
// context and reports the first violation with its position.
func applySchema(v cue.Value) (cue.Value, error) {
	schema := v.Context().CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, formatCUEError("schema", err)
	}

	unified := schema.LookupPath(schemaPath).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, formatCUEError("schema", err)
	}
	return unified, nil
}
