package report

import (
	"fmt"
	"io"

	"github.com/roach88/ittm/internal/ir"
	"github.com/roach88/ittm/internal/rulegen"
)

// WriteRules dumps every machine's rule table.
func WriteRules(w io.Writer, pop *ir.Population) error {
	ew := &errWriter{w: w}
	for i, m := range pop.Machines {
		ew.printf("%s\n", RulesLine(i, m.Table, m.Description))
	}
	ew.printf("Rule generation completed for all machines.\n")
	return ew.err
}

// FactorizationLine describes how a champernowne machine got its table.
func FactorizationLine(index int, m rulegen.ChampernowneMachine) string {
	return fmt.Sprintf("Machine %d: Number=%d, Factorization=%s, Archetype=%s",
		index, m.Number, m.Factorization, m.Archetype)
}

// WriteFactorizations writes one FactorizationLine per machine.
func WriteFactorizations(w io.Writer, machines []rulegen.ChampernowneMachine) error {
	ew := &errWriter{w: w}
	for i, m := range machines {
		ew.printf("%s\n", FactorizationLine(i, m))
	}
	return ew.err
}
