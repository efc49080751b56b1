// Package compiler turns CUE population files into ir.Population values.
//
// A population file is unified with an embedded closed schema, so unknown
// fields and wrong types are rejected with source positions before any
// machine is built. Files may list machines explicitly, invoke one
// generator (templates, champernowne or a Starlark script), or both.
//
//	name: "dovetail"
//	config: max_stages: 500
//	generate: templates: count: 20
//
// Validate reports structural errors with E1xx codes; AnalyzeTables
// reports what a table guarantees statically, such as an unreachable HALT.
package compiler
