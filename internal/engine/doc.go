// Package engine implements the ITTM dovetail scheduler and its windowed
// loop-detection oracle.
//
// ARCHITECTURE:
//
// A Scheduler owns a fixed population of small Turing machines. Each call to
// Step runs one global stage s = 1, 2, 3, ... . At stage s every machine with
// index < min(s, N) that is not yet done takes exactly one step, in ascending
// index order. Machine i is therefore first stepped at stage i+1 and is
// considered at every later stage until it is done.
//
// Per-step algorithm:
// 1. Read the symbol under the machine's cursor
// 2. Look up (write, next) in the machine's rule table
// 3. Record the observation into history[personal_step mod W]
// 4. Write, enter next, advance cursor and personal step
// 5. Done if next is HALT, or if personal_step >= WARMUP and the
// LoopOracle finds a period p <= W/2
//
// Only HALT sets a bit in the HaltingSet. A loop verdict never does.
//
// CRITICAL PATTERNS:
//
// Freeze: once a machine is done its state, cursor, personal step and
// history are never mutated again.
//
// Isolation: a tape or symbol fault stops only the faulting machine. It is
// done with verdict "faulted" and no halting bit, and the run continues.
//
// Determinism: with the same population, two runs produce identical halting
// sets and snapshots. Parallel mode (WithWorkers) steps machines concurrently
// within a stage but emits step events in ascending index order, so its
// observable output equals sequential mode.
//
// Bounded budget: the run ends when every machine is done or when MaxStages
// stages have executed. In the latter case the outcome is inconclusive and
// machines left without a verdict are "undetermined".
package engine
