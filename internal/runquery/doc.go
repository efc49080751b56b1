// Package runquery provides a small filter language over archived runs.
//
// A Query is a conjunction of column predicates on the runs table. It is
// built by the CLI from flags, checked by Validate and compiled to a
// parameterized SQLite WHERE clause by Compile:
//
//	[flags] → [Query] → [WHERE ... ORDER BY seq]
//
// # Sealed Interfaces
//
// Predicate is a sealed interface using the marker method pattern. Only
// types in this package implement it, so Compile and Validate can switch
// over every case.
//
// # Columns
//
// Predicates may only reference the columns listed by Columns. Text
// columns accept string values; integer columns accept int or int64 values
// and are the only columns AtLeast may compare.
//
// # Determinism
//
// Values are never interpolated into SQL. Every compiled query ends in
// ORDER BY seq ASC, so listings come back in archive order regardless of
// the filter.
package runquery
