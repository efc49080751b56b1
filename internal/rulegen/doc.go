// Package rulegen builds rule tables and ready-to-run populations.
//
// Three generators are provided:
//
//   - Templates: twenty hand-balanced 3-state, 2-symbol tables (two
//     working states plus HALT), ten halting and ten looping, assigned to
//     machines round-robin.
//   - Champernowne: a shared source tape carrying the digit parity of
//     123456789101112..., with each machine's table chosen from the prime
//     factorization of a number parsed from the same digits.
//   - Starlark: a script defining rule(machine, state, symbol).
//
// Generators only produce tables and tapes. They never step machines.
package rulegen
