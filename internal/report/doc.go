// Package report renders runs for people: the final machine table, the
// halting set, per-machine termination lines, step traces and rule dumps.
// Summary is the JSON form of the same data.
package report
