// Package ir provides the shared value types for the ITTM oracle.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. Rule tables, populations and
// machine snapshots live here so the engine, the compiler, the archive and
// the reporting layer agree on a single representation.
//
// Key design constraints:
//   - RuleTable is immutable after construction and safe to share
//   - HALT is always the state numbered NumStates(); it has no outgoing rules
//   - Symbols and states are small unsigned integers (uint8)
//   - All JSON tags use snake_case
//   - Stage and step counters are logical, never wall-clock timestamps
package ir
