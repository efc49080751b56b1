// Package harness runs conformance scenarios against the scheduler.
//
// A scenario is a YAML file naming a CUE population and the result it must
// produce:
//
//	name: dovetail
//	description: the twenty templates on blank tapes
//	population: populations/dovetail.cue
//	archive: true
//	expect:
//	  outcome: complete
//	  stages: 119
//	  halting_set: "01001101110111000100"
//	assertions:
//	  - type: machine
//	    machine: 9
//	    verdict: halted
//	    halt_step: 3
//	  - type: verdict_count
//	    verdict: looped
//	    count: 10
//
// Each scenario compiles its population, runs it on a fresh scheduler and,
// with archive set, writes the run to an in-memory store and replays it.
// RunWithGolden additionally pins the result in testdata/golden.
package harness
